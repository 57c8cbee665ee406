package model

import (
	"time"

	"github.com/google/uuid"
)

// TokenService enumerates the credential kinds of the SensorPush exchange.
type TokenService string

const (
	ServiceSensorPushAuthorization TokenService = "sensorpush_authorization"
	ServiceSensorPushAccess        TokenService = "sensorpush_access"
	ServiceSensorPushRefresh       TokenService = "sensorpush_refresh"
)

// ApiToken persists one named third-party credential per (owner, service).
// Rows are overwritten on refresh, never appended, and deleted only on account
// disconnect. Expiry interpretation is the caller's responsibility.
type ApiToken struct {
	OwnerID     uuid.UUID    `gorm:"type:uuid;primaryKey" json:"owner_id"`
	ServiceName TokenService `gorm:"size:64;primaryKey" json:"service_name"`
	TokenValue  string       `gorm:"not null" json:"-"`
	ExpiresAt   time.Time    `gorm:"not null" json:"expires_at"`
	UpdatedAt   time.Time    `gorm:"not null" json:"updated_at"`
}
