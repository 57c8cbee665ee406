package model

import (
	"time"

	"github.com/google/uuid"
)

// SensorSnapshot mirrors the last-seen state of a SensorPush sensor (hot table).
type SensorSnapshot struct {
	SensorID       string    `gorm:"size:128;primaryKey" json:"sensor_id"`
	OwnerID        uuid.UUID `gorm:"type:uuid;index;not null" json:"owner_id"`
	Name           string    `gorm:"size:256" json:"name"`
	Active         bool      `json:"active"`
	BatteryVoltage float64   `json:"battery_voltage"`
	RSSI           float64   `json:"rssi"`
	ObservedAt     time.Time `gorm:"not null" json:"observed_at"`
}

// SampleRecord mirrors one SensorPush sample (cold table, keyed by the
// upstream sample ID so repeated polls stay idempotent).
type SampleRecord struct {
	ID           string    `gorm:"size:128;primaryKey" json:"id"`
	SensorID     string    `gorm:"size:128;index;not null" json:"sensor_id"`
	OwnerID      uuid.UUID `gorm:"type:uuid;index;not null" json:"owner_id"`
	ObservedAt   time.Time `gorm:"index;not null" json:"observed_at"`
	TemperatureC float64   `json:"temperature_c"`
	HumidityPct  float64   `json:"humidity_pct"`
	DewpointC    float64   `json:"dewpoint_c"`
	PressureHPa  float64   `json:"pressure_hpa"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
}
