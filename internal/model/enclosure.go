package model

import (
	"time"

	"github.com/google/uuid"
)

// Enclosure represents a habitat with environmental targets.
type Enclosure struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID       uuid.UUID `gorm:"type:uuid;index;not null" json:"owner_id"`
	Name          string    `gorm:"size:256;not null" json:"name"`
	Type          string    `gorm:"size:128" json:"type"`
	TargetTempC   *float64  `json:"target_temp_c"`
	TargetHumPct  *float64  `json:"target_humidity_pct"`
	Notes         string    `json:"notes"`
	CreatedAt     time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null" json:"updated_at"`

	// Associations
	Animals []Animal `gorm:"foreignKey:EnclosureID" json:"animals,omitempty"`
}

// SensorMapping associates one SensorPush sensor with one enclosure. At most
// one mapping exists per (owner, enclosure); the store enforces this with an
// update-if-exists-else-insert inside a transaction.
type SensorMapping struct {
	ID          int64     `gorm:"autoIncrement;primaryKey" json:"id"`
	OwnerID     uuid.UUID `gorm:"type:uuid;index;not null" json:"owner_id"`
	EnclosureID uuid.UUID `gorm:"type:uuid;index;not null" json:"enclosure_id"`
	SensorID    string    `gorm:"size:128;index;not null" json:"sensor_id"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}
