package store

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"

	"herptrack-backend/internal/model"
)

// GetClientState returns the JSON value stored under (owner, key), or
// ErrNotFound when the entry has never been written.
func (s *gormStore) GetClientState(ctx context.Context, ownerID uuid.UUID, key string) (string, error) {
	var state model.ClientState
	err := s.db.WithContext(ctx).
		Where("owner_id = ? AND key = ?", ownerID, key).
		First(&state).Error
	if err != nil {
		return "", translate(err)
	}
	return state.Value, nil
}

// SetClientState upserts the JSON value under (owner, key).
func (s *gormStore) SetClientState(ctx context.Context, ownerID uuid.UUID, key, value string) error {
	state := model.ClientState{OwnerID: ownerID, Key: key, Value: value}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "owner_id"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&state).Error
}
