package sensorpush

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sort"
	"time"

	"github.com/google/uuid"

	"herptrack-backend/config"
	"herptrack-backend/internal/model"
	"herptrack-backend/internal/store"
)

// Service exposes the sensor and sample fetchers and runs the background
// polling loop that keeps the local mirror tables fresh.
type Service struct {
	cfg    *config.Config
	store  store.Store
	auth   *AuthManager
	client *Client
}

// NewService creates the SensorPush service. A single client and call gate are
// shared between interactive fetches and the poller so the upstream pacing
// budget is enforced globally.
func NewService(cfg *config.Config, s store.Store, auth *AuthManager, client *Client) *Service {
	return &Service{cfg: cfg, store: s, auth: auth, client: client}
}

// Auth returns the auth manager so API handlers can drive connect/disconnect.
func (s *Service) Auth() *AuthManager {
	return s.auth
}

// ListSensors fetches the owner's sensors. Returns ErrNoToken when the account
// is not connected. The returned set is mirrored into the snapshot table
// best-effort; mirroring failures are logged, never propagated.
func (s *Service) ListSensors(ctx context.Context, ownerID uuid.UUID) ([]Sensor, error) {
	token, err := s.auth.GetValidToken(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(ctx, http.MethodGet, "/devices/sensors", token, nil)
	if err != nil {
		return nil, err
	}
	if resp.IsAuthError() {
		return nil, ErrNoToken
	}
	if !resp.OK() {
		return nil, fmt.Errorf("listing sensors failed: %s", resp.Status)
	}

	var payload sensorsResponse
	if err := resp.Decode(&payload); err != nil {
		return nil, err
	}

	sensors := make([]Sensor, 0, len(payload.Sensors))
	for id, sensor := range payload.Sensors {
		if sensor.ID == "" {
			sensor.ID = id
		}
		sensors = append(sensors, sensor)
	}
	sort.Slice(sensors, func(i, j int) bool { return sensors[i].ID < sensors[j].ID })

	s.mirrorSensors(ctx, ownerID, sensors)
	return sensors, nil
}

// ListSamples fetches up to limit samples for one sensor, carrying all filters
// in a single request, and mirrors them with per-sample-ID deduplication so
// repeated polls stay idempotent.
func (s *Service) ListSamples(ctx context.Context, ownerID uuid.UUID, sensorID string, limit int, start, stop *time.Time) ([]Sample, error) {
	token, err := s.auth.GetValidToken(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	req := samplesRequest{Sensors: []string{sensorID}, Limit: limit, StartTime: start, StopTime: stop}
	resp, err := s.client.Do(ctx, http.MethodPost, "/samples", token, req)
	if err != nil {
		return nil, err
	}
	if resp.IsAuthError() {
		return nil, ErrNoToken
	}
	if !resp.OK() {
		return nil, fmt.Errorf("listing samples failed: %s", resp.Status)
	}

	var payload samplesResponse
	if err := resp.Decode(&payload); err != nil {
		return nil, err
	}
	samples := payload.Sensors[sensorID]

	s.mirrorSamples(ctx, ownerID, sensorID, samples)
	return samples, nil
}

// Run polls sensors for every connected owner until the context is cancelled.
// A failed iteration never terminates the loop; the next one is scheduled
// regardless of the current one's outcome.
func (s *Service) Run(ctx context.Context) {
	if !s.cfg.SensorPush.Enabled {
		log.Println("SensorPush polling is disabled. Not starting.")
		return
	}
	log.Println("Starting SensorPush polling service...")

	s.PollOnce(ctx)

	timer := time.NewTimer(s.cfg.SensorPush.PollInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("SensorPush polling service shutting down.")
			return
		case <-timer.C:
			s.PollOnce(ctx)
			timer.Reset(s.cfg.SensorPush.PollInterval)
		}
	}
}

// PollOnce revalidates tokens, re-lists sensors and fetches the single latest
// sample per sensor for every owner with a SensorPush connection.
func (s *Service) PollOnce(ctx context.Context) {
	log.Println("Executing SensorPush poll cycle...")

	owners, err := s.store.OwnersWithToken(ctx, model.ServiceSensorPushAccess)
	if err != nil {
		log.Printf("Error listing connected owners: %v", err)
		return
	}

	for _, ownerID := range owners {
		sensors, err := s.ListSensors(ctx, ownerID)
		if err != nil {
			log.Printf("Error listing sensors for owner %s: %v", ownerID, err)
			continue
		}
		for _, sensor := range sensors {
			if _, err := s.ListSamples(ctx, ownerID, sensor.ID, 1, nil, nil); err != nil {
				log.Printf("Error fetching latest sample for sensor %s: %v", sensor.ID, err)
			}
		}
	}

	log.Println("SensorPush poll cycle finished.")
}

func (s *Service) mirrorSensors(ctx context.Context, ownerID uuid.UUID, sensors []Sensor) {
	if len(sensors) == 0 {
		return
	}
	now := time.Now().UTC()
	snapshots := make([]model.SensorSnapshot, len(sensors))
	for i, sensor := range sensors {
		snapshots[i] = model.SensorSnapshot{
			SensorID:       sensor.ID,
			OwnerID:        ownerID,
			Name:           sensor.Name,
			Active:         sensor.Active,
			BatteryVoltage: sensor.BatteryVoltage,
			RSSI:           sensor.RSSI,
			ObservedAt:     now,
		}
	}
	if err := s.store.UpsertSensorSnapshots(ctx, snapshots); err != nil {
		log.Printf("Warning: failed to mirror %d sensor snapshots: %v", len(snapshots), err)
	}
}

func (s *Service) mirrorSamples(ctx context.Context, ownerID uuid.UUID, sensorID string, samples []Sample) {
	if len(samples) == 0 {
		return
	}
	records := make([]model.SampleRecord, len(samples))
	for i, sample := range samples {
		records[i] = model.SampleRecord{
			ID:           sample.ID,
			SensorID:     sensorID,
			OwnerID:      ownerID,
			ObservedAt:   sample.Observed,
			TemperatureC: sample.TemperatureC,
			HumidityPct:  sample.HumidityPct,
			DewpointC:    sample.DewpointC,
			PressureHPa:  sample.PressureHPa,
		}
	}
	if _, err := s.store.InsertSamples(ctx, records); err != nil {
		log.Printf("Warning: failed to mirror %d samples for sensor %s: %v", len(records), sensorID, err)
	}
}
