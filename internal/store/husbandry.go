package store

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"herptrack-backend/internal/model"
)

func (s *gormStore) CreateAnimal(ctx context.Context, animal *model.Animal) error {
	if animal.ID == uuid.Nil {
		animal.ID = uuid.New()
	}
	return s.db.WithContext(ctx).Create(animal).Error
}

func (s *gormStore) ListAnimals(ctx context.Context, ownerID uuid.UUID) ([]model.Animal, error) {
	var animals []model.Animal
	err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("name").
		Find(&animals).Error
	if err != nil {
		return nil, err
	}
	return animals, nil
}

func (s *gormStore) GetAnimal(ctx context.Context, ownerID, animalID uuid.UUID) (*model.Animal, error) {
	var animal model.Animal
	err := s.db.WithContext(ctx).
		Where("owner_id = ? AND id = ?", ownerID, animalID).
		First(&animal).Error
	if err != nil {
		return nil, translate(err)
	}
	return &animal, nil
}

func (s *gormStore) UpdateAnimal(ctx context.Context, animal *model.Animal) error {
	return s.db.WithContext(ctx).Save(animal).Error
}

// DeleteAnimal removes an animal together with its weight history.
func (s *gormStore) DeleteAnimal(ctx context.Context, ownerID, animalID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("owner_id = ? AND animal_id = ?", ownerID, animalID).
			Delete(&model.WeightRecord{}).Error; err != nil {
			return err
		}
		return tx.Where("owner_id = ? AND id = ?", ownerID, animalID).
			Delete(&model.Animal{}).Error
	})
}

func (s *gormStore) CreateEnclosure(ctx context.Context, enclosure *model.Enclosure) error {
	if enclosure.ID == uuid.Nil {
		enclosure.ID = uuid.New()
	}
	return s.db.WithContext(ctx).Create(enclosure).Error
}

func (s *gormStore) ListEnclosures(ctx context.Context, ownerID uuid.UUID) ([]model.Enclosure, error) {
	var enclosures []model.Enclosure
	err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("name").
		Find(&enclosures).Error
	if err != nil {
		return nil, err
	}
	return enclosures, nil
}

func (s *gormStore) GetEnclosure(ctx context.Context, ownerID, enclosureID uuid.UUID) (*model.Enclosure, error) {
	var enclosure model.Enclosure
	err := s.db.WithContext(ctx).
		Preload("Animals").
		Where("owner_id = ? AND id = ?", ownerID, enclosureID).
		First(&enclosure).Error
	if err != nil {
		return nil, translate(err)
	}
	return &enclosure, nil
}

func (s *gormStore) UpdateEnclosure(ctx context.Context, enclosure *model.Enclosure) error {
	return s.db.WithContext(ctx).Save(enclosure).Error
}

// DeleteEnclosure removes an enclosure, detaching its animals and dropping its
// sensor mapping in the same transaction.
func (s *gormStore) DeleteEnclosure(ctx context.Context, ownerID, enclosureID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Animal{}).
			Where("owner_id = ? AND enclosure_id = ?", ownerID, enclosureID).
			Update("enclosure_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("owner_id = ? AND enclosure_id = ?", ownerID, enclosureID).
			Delete(&model.SensorMapping{}).Error; err != nil {
			return err
		}
		return tx.Where("owner_id = ? AND id = ?", ownerID, enclosureID).
			Delete(&model.Enclosure{}).Error
	})
}
