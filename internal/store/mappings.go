package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"herptrack-backend/internal/model"
)

// MapSensor associates a sensor with an enclosure, replacing the sensor ID of
// an existing mapping when one is present. The read-modify-write runs inside a
// transaction; mapping changes are rare human-triggered actions, so the
// remaining check-then-act window is accepted.
func (s *gormStore) MapSensor(ctx context.Context, ownerID, enclosureID uuid.UUID, sensorID string) (*model.SensorMapping, error) {
	var mapping model.SensorMapping
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("owner_id = ? AND enclosure_id = ?", ownerID, enclosureID).
			First(&mapping).Error
		switch {
		case err == nil:
			mapping.SensorID = sensorID
			return tx.Save(&mapping).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			mapping = model.SensorMapping{
				OwnerID:     ownerID,
				EnclosureID: enclosureID,
				SensorID:    sensorID,
			}
			return tx.Create(&mapping).Error
		default:
			return err
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to map sensor %s to enclosure %s: %w", sensorID, enclosureID, err)
	}
	return &mapping, nil
}

// UnmapSensor removes the mapping for an enclosure. Unmapping an enclosure
// without a mapping is a no-op.
func (s *gormStore) UnmapSensor(ctx context.Context, ownerID, enclosureID uuid.UUID) error {
	return s.db.WithContext(ctx).
		Where("owner_id = ? AND enclosure_id = ?", ownerID, enclosureID).
		Delete(&model.SensorMapping{}).Error
}

// SensorForEnclosure returns the mapping for an enclosure or ErrNotFound.
func (s *gormStore) SensorForEnclosure(ctx context.Context, ownerID, enclosureID uuid.UUID) (*model.SensorMapping, error) {
	var mapping model.SensorMapping
	err := s.db.WithContext(ctx).
		Where("owner_id = ? AND enclosure_id = ?", ownerID, enclosureID).
		First(&mapping).Error
	if err != nil {
		return nil, translate(err)
	}
	return &mapping, nil
}

// EnclosuresForSensor returns all mappings that point at a sensor. An empty
// slice, not an error, means the sensor is unmapped.
func (s *gormStore) EnclosuresForSensor(ctx context.Context, ownerID uuid.UUID, sensorID string) ([]model.SensorMapping, error) {
	var mappings []model.SensorMapping
	err := s.db.WithContext(ctx).
		Where("owner_id = ? AND sensor_id = ?", ownerID, sensorID).
		Find(&mappings).Error
	if err != nil {
		return nil, err
	}
	return mappings, nil
}
