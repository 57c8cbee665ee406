package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"herptrack-backend/config"
	"herptrack-backend/internal/db"
	"herptrack-backend/internal/model"
	"herptrack-backend/internal/sensorpush"
	"herptrack-backend/internal/store"
)

// TestSensorPushPollLifecycle walks the whole integration path: connect an
// account, poll the upstream, and verify the mirror tables an enclosure's
// environment view is served from.
func TestSensorPushPollLifecycle(t *testing.T) {
	// 1. In-memory database with the full schema.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	testDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, _ := testDB.DB()
	defer sqlDB.Close()
	require.NoError(t, db.Migrate(testDB))
	gormStore := store.NewGormStore(testDB)

	// 2. Mock SensorPush API. Sample IDs are stable across polls so the
	// second cycle exercises the dedupe path.
	observed := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	var samplesRequests int
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/authorize", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"authorization": "auth-1"})
	})
	mux.HandleFunc("/oauth/accesstoken", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"accesstoken": "access-1", "refreshtoken": "refresh-1"})
	})
	mux.HandleFunc("/devices/sensors", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"sensors": map[string]any{
				"sensor-a": map[string]any{"id": "sensor-a", "name": "Rack 1 warm side", "active": true, "battery_voltage": 2.9},
				"sensor-b": map[string]any{"id": "sensor-b", "name": "Rack 1 cool side", "active": true, "battery_voltage": 2.8},
			},
		})
	})
	mux.HandleFunc("/samples", func(w http.ResponseWriter, r *http.Request) {
		samplesRequests++
		var req struct {
			Sensors []string `json:"sensors"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Sensors) != 1 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		sensorID := req.Sensors[0]

		temp := 30.4
		if sensorID == "sensor-b" {
			temp = 26.1
		}
		json.NewEncoder(w).Encode(map[string]any{
			"sensors": map[string]any{
				sensorID: []map[string]any{
					{"id": sensorID + "-s1", "observed": observed, "temperature": temp, "humidity": 58.0},
				},
			},
		})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	// 3. Service wiring with the gate window at zero so the test does not
	// pace itself.
	cfg := &config.Config{}
	cfg.SensorPush.Enabled = true
	cfg.SensorPush.BaseURL = server.URL
	cfg.SensorPush.PollInterval = time.Minute

	client := sensorpush.NewClient(server.URL, time.Second)
	auth := sensorpush.NewAuthManager(gormStore, client, sensorpush.NewCallGate(0))
	service := sensorpush.NewService(cfg, gormStore, auth, client)

	// 4. A keeper with an enclosure mapped to one of the sensors.
	keeper := &model.User{Email: "keeper@example.com", PasswordHash: []byte("x")}
	require.NoError(t, gormStore.CreateUser(context.Background(), keeper))
	enclosure := &model.Enclosure{OwnerID: keeper.ID, Name: "Rack 1"}
	require.NoError(t, gormStore.CreateEnclosure(context.Background(), enclosure))
	_, err = gormStore.MapSensor(context.Background(), keeper.ID, enclosure.ID, "sensor-a")
	require.NoError(t, err)

	t.Run("Connect account", func(t *testing.T) {
		require.NoError(t, auth.Authenticate(context.Background(), keeper.ID, "keeper@example.com", "hunter2"))

		owners, err := gormStore.OwnersWithToken(context.Background(), model.ServiceSensorPushAccess)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{keeper.ID}, owners)
	})

	t.Run("First poll mirrors sensors and samples", func(t *testing.T) {
		service.PollOnce(context.Background())

		var snapshots []model.SensorSnapshot
		require.NoError(t, testDB.Order("sensor_id").Find(&snapshots).Error)
		require.Len(t, snapshots, 2)
		assert.Equal(t, "Rack 1 warm side", snapshots[0].Name)

		sample, err := gormStore.LatestSample(context.Background(), keeper.ID, "sensor-a")
		require.NoError(t, err)
		assert.Equal(t, 30.4, sample.TemperatureC)
		assert.True(t, sample.ObservedAt.Equal(observed))
	})

	t.Run("Second poll is idempotent", func(t *testing.T) {
		service.PollOnce(context.Background())

		var count int64
		require.NoError(t, testDB.Model(&model.SampleRecord{}).Count(&count).Error)
		assert.EqualValues(t, 2, count, "re-polled samples must not duplicate")
		assert.GreaterOrEqual(t, samplesRequests, 4, "each poll fetches each sensor once")
	})

	t.Run("Interactive sample listing is mirrored too", func(t *testing.T) {
		samples, err := service.ListSamples(context.Background(), keeper.ID, "sensor-b", 5, nil, nil)
		require.NoError(t, err)
		require.Len(t, samples, 1)
		assert.Equal(t, 26.1, samples[0].TemperatureC)

		mirrored, err := gormStore.SamplesForSensor(context.Background(), keeper.ID, "sensor-b", nil, 0)
		require.NoError(t, err)
		assert.Len(t, mirrored, 1)
	})

	t.Run("Disconnect stops polling for the owner", func(t *testing.T) {
		require.NoError(t, auth.Disconnect(context.Background(), keeper.ID))

		owners, err := gormStore.OwnersWithToken(context.Background(), model.ServiceSensorPushAccess)
		require.NoError(t, err)
		assert.Empty(t, owners)

		_, err = service.ListSensors(context.Background(), keeper.ID)
		assert.ErrorIs(t, err, sensorpush.ErrNoToken)
	})
}

// TestPollRecoversFromExpiredAccessToken verifies the refresh path inside a
// poll cycle: an expired access token is exchanged via the refresh token and
// the cycle proceeds.
func TestPollRecoversFromExpiredAccessToken(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	testDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, _ := testDB.DB()
	defer sqlDB.Close()
	require.NoError(t, db.Migrate(testDB))
	gormStore := store.NewGormStore(testDB)

	var refreshes int
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/refreshtoken", func(w http.ResponseWriter, r *http.Request) {
		refreshes++
		json.NewEncoder(w).Encode(map[string]string{"accesstoken": "access-2", "refreshtoken": "refresh-2"})
	})
	mux.HandleFunc("/devices/sensors", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"sensors": map[string]any{
				"sensor-a": map[string]any{"id": "sensor-a", "name": "Rack 1", "active": true},
			},
		})
	})
	mux.HandleFunc("/samples", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"sensors": map[string]any{
				"sensor-a": []map[string]any{
					{"id": "sensor-a-s1", "observed": time.Now().UTC(), "temperature": 29.0, "humidity": 55.0},
				},
			},
		})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	cfg := &config.Config{}
	cfg.SensorPush.Enabled = true
	cfg.SensorPush.BaseURL = server.URL

	client := sensorpush.NewClient(server.URL, time.Second)
	auth := sensorpush.NewAuthManager(gormStore, client, sensorpush.NewCallGate(0))
	service := sensorpush.NewService(cfg, gormStore, auth, client)

	ownerID := uuid.New()
	now := time.Now()
	require.NoError(t, gormStore.UpsertToken(context.Background(), ownerID, model.ServiceSensorPushAccess, "access-1", now.Add(-time.Minute)))
	require.NoError(t, gormStore.UpsertToken(context.Background(), ownerID, model.ServiceSensorPushRefresh, "refresh-1", now.Add(30*time.Minute)))

	service.PollOnce(context.Background())

	assert.GreaterOrEqual(t, refreshes, 1, "the expired access token must be refreshed")

	sample, err := gormStore.LatestSample(context.Background(), ownerID, "sensor-a")
	require.NoError(t, err)
	assert.Equal(t, 29.0, sample.TemperatureC)

	access, err := gormStore.GetToken(context.Background(), ownerID, model.ServiceSensorPushAccess)
	require.NoError(t, err)
	assert.Equal(t, "access-2", access.TokenValue)
}
