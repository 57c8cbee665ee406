package model

import (
	"time"

	"github.com/google/uuid"
)

// Animal represents a tracked reptile.
//
// WeightGrams is the denormalized current weight. It is kept in sync with the
// animal's weight-record history by the weight reconciler; for animals that
// predate weight records it holds the legacy single weight value.
type Animal struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID     uuid.UUID  `gorm:"type:uuid;index;not null" json:"owner_id"`
	Name        string     `gorm:"size:256;not null" json:"name"`
	Species     string     `gorm:"size:256" json:"species"`
	Morph       string     `gorm:"size:256" json:"morph"`
	Sex         string     `gorm:"size:16" json:"sex"`
	HatchDate   *time.Time `json:"hatch_date"`
	WeightGrams *float64   `json:"weight_grams"`
	EnclosureID *uuid.UUID `gorm:"type:uuid;index" json:"enclosure_id"`
	ImageURL    string     `gorm:"size:1024" json:"image_url"`
	Notes       string     `json:"notes"`
	CreatedAt   time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null" json:"updated_at"`
}

// WeightRecord is a single weighing of an animal. Records are append-only;
// removal goes through the reconciler, which tombstones the ID before the row
// is deleted.
type WeightRecord struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AnimalID   uuid.UUID `gorm:"type:uuid;index;not null" json:"animal_id"`
	OwnerID    uuid.UUID `gorm:"type:uuid;index;not null" json:"owner_id"`
	Grams      float64   `gorm:"not null" json:"grams"`
	RecordedAt time.Time `gorm:"index;not null" json:"recorded_at"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
}
