package store

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"

	"herptrack-backend/internal/model"
)

func (s *gormStore) UpsertSubscription(ctx context.Context, sub *model.PushSubscription) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"owner_id", "p256dh", "auth"}),
	}).Create(sub).Error
}

func (s *gormStore) DeleteSubscription(ctx context.Context, ownerID uuid.UUID, endpoint string) error {
	return s.db.WithContext(ctx).
		Where("owner_id = ? AND endpoint = ?", ownerID, endpoint).
		Delete(&model.PushSubscription{}).Error
}

func (s *gormStore) GetSubscription(ctx context.Context, ownerID uuid.UUID, endpoint string) (*model.PushSubscription, error) {
	var sub model.PushSubscription
	err := s.db.WithContext(ctx).
		Where("owner_id = ? AND endpoint = ?", ownerID, endpoint).
		First(&sub).Error
	if err != nil {
		return nil, translate(err)
	}
	return &sub, nil
}

func (s *gormStore) SubscriptionsForOwner(ctx context.Context, ownerID uuid.UUID) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}
