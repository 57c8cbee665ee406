package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"herptrack-backend/internal/model"
)

// UpsertToken overwrites any existing token row for (owner, service) before
// writing the new one. Done as delete-then-create in a transaction so the
// composite primary key never raises a unique-constraint violation.
func (s *gormStore) UpsertToken(ctx context.Context, ownerID uuid.UUID, service model.TokenService, value string, expiresAt time.Time) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("owner_id = ? AND service_name = ?", ownerID, service).
			Delete(&model.ApiToken{}).Error; err != nil {
			return fmt.Errorf("failed to clear existing %s token: %w", service, err)
		}
		token := model.ApiToken{
			OwnerID:     ownerID,
			ServiceName: service,
			TokenValue:  value,
			ExpiresAt:   expiresAt,
		}
		if err := tx.Create(&token).Error; err != nil {
			return fmt.Errorf("failed to store %s token: %w", service, err)
		}
		return nil
	})
}

// GetToken returns the stored token for (owner, service) or ErrNotFound. No
// expiry filtering happens here; expiry interpretation belongs to the caller.
func (s *gormStore) GetToken(ctx context.Context, ownerID uuid.UUID, service model.TokenService) (*model.ApiToken, error) {
	var token model.ApiToken
	err := s.db.WithContext(ctx).
		Where("owner_id = ? AND service_name = ?", ownerID, service).
		First(&token).Error
	if err != nil {
		return nil, translate(err)
	}
	return &token, nil
}

// DeleteTokens removes the given token rows for an owner (account disconnect).
func (s *gormStore) DeleteTokens(ctx context.Context, ownerID uuid.UUID, services ...model.TokenService) error {
	if len(services) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Where("owner_id = ? AND service_name IN ?", ownerID, services).
		Delete(&model.ApiToken{}).Error
}

// OwnersWithToken lists the owners that hold a token row for the given service.
// The poller uses this to find accounts with a SensorPush connection.
func (s *gormStore) OwnersWithToken(ctx context.Context, service model.TokenService) ([]uuid.UUID, error) {
	var owners []uuid.UUID
	err := s.db.WithContext(ctx).
		Model(&model.ApiToken{}).
		Where("service_name = ?", service).
		Pluck("owner_id", &owners).Error
	if err != nil {
		return nil, err
	}
	return owners, nil
}
