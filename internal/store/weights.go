package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"herptrack-backend/internal/model"
)

// ListWeightRecords returns an animal's weight history, newest first.
func (s *gormStore) ListWeightRecords(ctx context.Context, ownerID, animalID uuid.UUID) ([]model.WeightRecord, error) {
	var records []model.WeightRecord
	err := s.db.WithContext(ctx).
		Where("owner_id = ? AND animal_id = ?", ownerID, animalID).
		Order("recorded_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (s *gormStore) InsertWeightRecord(ctx context.Context, record *model.WeightRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return s.db.WithContext(ctx).Create(record).Error
}

// DeleteWeightRecord removes a weight record. Deleting an ID that is already
// gone is not an error.
func (s *gormStore) DeleteWeightRecord(ctx context.Context, ownerID, recordID uuid.UUID) error {
	return s.db.WithContext(ctx).
		Where("owner_id = ? AND id = ?", ownerID, recordID).
		Delete(&model.WeightRecord{}).Error
}

// SetAnimalWeight writes the derived current weight back onto the animal row.
func (s *gormStore) SetAnimalWeight(ctx context.Context, ownerID, animalID uuid.UUID, grams *float64) error {
	return s.db.WithContext(ctx).
		Model(&model.Animal{}).
		Where("owner_id = ? AND id = ?", ownerID, animalID).
		Updates(map[string]any{"weight_grams": grams, "updated_at": time.Now().UTC()}).Error
}
