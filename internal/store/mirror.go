package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"

	"herptrack-backend/internal/model"
)

// UpsertSensorSnapshots mirrors the latest sensor metadata from a poll.
func (s *gormStore) UpsertSensorSnapshots(ctx context.Context, snapshots []model.SensorSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "sensor_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "active", "battery_voltage", "rssi", "observed_at"}),
	}).Create(&snapshots).Error
	if err != nil {
		return fmt.Errorf("batch upsert sensor snapshots failed: %w", err)
	}
	return nil
}

// InsertSamples writes mirrored samples, skipping any whose upstream ID is
// already stored so repeated polls stay idempotent. Returns the number of rows
// actually inserted.
func (s *gormStore) InsertSamples(ctx context.Context, samples []model.SampleRecord) (int, error) {
	if len(samples) == 0 {
		return 0, nil
	}

	ids := make([]string, len(samples))
	for i, sample := range samples {
		ids[i] = sample.ID
	}

	var existing []string
	if err := s.db.WithContext(ctx).
		Model(&model.SampleRecord{}).
		Where("id IN ?", ids).
		Pluck("id", &existing).Error; err != nil {
		return 0, fmt.Errorf("failed to check for existing samples: %w", err)
	}
	seen := make(map[string]struct{}, len(existing))
	for _, id := range existing {
		seen[id] = struct{}{}
	}

	var fresh []model.SampleRecord
	for _, sample := range samples {
		if _, ok := seen[sample.ID]; ok {
			continue
		}
		fresh = append(fresh, sample)
	}
	if len(fresh) == 0 {
		return 0, nil
	}

	if err := s.db.WithContext(ctx).Create(&fresh).Error; err != nil {
		return 0, fmt.Errorf("failed to insert samples: %w", err)
	}
	return len(fresh), nil
}

// LatestSample returns the most recent mirrored sample for a sensor.
func (s *gormStore) LatestSample(ctx context.Context, ownerID uuid.UUID, sensorID string) (*model.SampleRecord, error) {
	var sample model.SampleRecord
	err := s.db.WithContext(ctx).
		Where("owner_id = ? AND sensor_id = ?", ownerID, sensorID).
		Order("observed_at DESC").
		First(&sample).Error
	if err != nil {
		return nil, translate(err)
	}
	return &sample, nil
}

// SamplesForSensor returns mirrored samples for trend display, newest first.
func (s *gormStore) SamplesForSensor(ctx context.Context, ownerID uuid.UUID, sensorID string, since *time.Time, limit int) ([]model.SampleRecord, error) {
	q := s.db.WithContext(ctx).
		Where("owner_id = ? AND sensor_id = ?", ownerID, sensorID).
		Order("observed_at DESC")
	if since != nil {
		q = q.Where("observed_at >= ?", *since)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var samples []model.SampleRecord
	if err := q.Find(&samples).Error; err != nil {
		return nil, err
	}
	return samples, nil
}
