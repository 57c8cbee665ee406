package model

import (
	"time"

	"github.com/google/uuid"
)

// ClientState is a small owner-scoped key/value entry holding JSON-encoded UI
// state previously kept in the SPA's local storage: the deleted weight-record
// ID set per animal, and the last-active weight-tracker tab.
type ClientState struct {
	OwnerID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"owner_id"`
	Key       string    `gorm:"size:256;primaryKey" json:"key"`
	Value     string    `gorm:"not null" json:"value"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}
