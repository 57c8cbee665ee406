package sensorpush

import "time"

// Sensor models one SensorPush sensor as returned by the devices endpoint.
type Sensor struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	DeviceID       string  `json:"deviceId"`
	Active         bool    `json:"active"`
	BatteryVoltage float64 `json:"battery_voltage"`
	RSSI           float64 `json:"rssi"`
}

// Sample models one reading from the samples endpoint.
type Sample struct {
	ID           string    `json:"id"`
	Observed     time.Time `json:"observed"`
	TemperatureC float64   `json:"temperature"`
	HumidityPct  float64   `json:"humidity"`
	DewpointC    float64   `json:"dewpoint"`
	PressureHPa  float64   `json:"barometric_pressure"`
}

// sensorsResponse is the envelope of GET /devices/sensors.
type sensorsResponse struct {
	Sensors map[string]Sensor `json:"sensors"`
}

// samplesRequest is the body of POST /samples. All filters travel in a single
// request.
type samplesRequest struct {
	Sensors   []string   `json:"sensors"`
	Limit     int        `json:"limit"`
	StartTime *time.Time `json:"startTime,omitempty"`
	StopTime  *time.Time `json:"stopTime,omitempty"`
}

// samplesResponse is the envelope of POST /samples, keyed by sensor ID.
type samplesResponse struct {
	Sensors map[string][]Sample `json:"sensors"`
}

type authorizeRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authorizeResponse struct {
	Authorization string `json:"authorization"`
}

type accessTokenRequest struct {
	Authorization string `json:"authorization"`
}

type refreshTokenRequest struct {
	RefreshToken string `json:"refreshtoken"`
}

type tokenResponse struct {
	AccessToken  string `json:"accesstoken"`
	RefreshToken string `json:"refreshtoken"`
}
