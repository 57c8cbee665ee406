package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
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
	"herptrack-backend/internal/weight"
)

type testAPI struct {
	router *gin.Engine
	store  store.Store
	token  string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	s := store.NewGormStore(gdb)

	cfg := &config.Config{}
	cfg.Server.RateLimitPerSec = 1000
	cfg.Server.RateLimitBurst = 1000
	cfg.Server.CacheTTLSeconds = 60
	cfg.SensorPush.BaseURL = "http://unreachable.invalid"

	client := sensorpush.NewClient(cfg.SensorPush.BaseURL, time.Second)
	auth := sensorpush.NewAuthManager(s, client, sensorpush.NewCallGate(0))
	sp := sensorpush.NewService(cfg, s, auth, client)

	h := NewHandler(s, weight.NewReconciler(s), sp, &webpush.Options{VAPIDPublicKey: "test-public-key"}, []byte("test-secret"), time.Hour)
	return &testAPI{router: NewRouter(h, cfg), store: s}
}

// do performs a request, attaching the session token when one is set.
func (a *testAPI) do(method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testAPI) register(t *testing.T, email string) {
	t.Helper()
	w := a.do(http.MethodPost, "/api/auth/register", gin.H{"email": email, "password": "correct-horse"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	a.token = resp.Token
}

func TestRegisterAndLogin(t *testing.T) {
	api := newTestAPI(t)
	api.register(t, "keeper@example.com")

	// Duplicate registration is rejected.
	w := api.do(http.MethodPost, "/api/auth/register", gin.H{"email": "keeper@example.com", "password": "correct-horse"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = api.do(http.MethodPost, "/api/auth/login", gin.H{"email": "Keeper@Example.com", "password": "correct-horse"})
	assert.Equal(t, http.StatusOK, w.Code, "email lookup is case-insensitive")

	w = api.do(http.MethodPost, "/api/auth/login", gin.H{"email": "keeper@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.do(http.MethodPost, "/api/auth/register", gin.H{"email": "short@example.com", "password": "short"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodGet, "/api/animals", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	api.token = "not-a-jwt"
	w = api.do(http.MethodGet, "/api/animals", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAnimalCRUD(t *testing.T) {
	api := newTestAPI(t)
	api.register(t, "keeper@example.com")

	w := api.do(http.MethodPost, "/api/animals", gin.H{
		"name":    "Nagini",
		"species": "Python regius",
		"morph":   "Banana",
		"sex":     "F",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var animal model.Animal
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &animal))
	require.NotEqual(t, uuid.Nil, animal.ID)

	w = api.do(http.MethodGet, "/api/animals", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var animals []model.Animal
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &animals))
	require.Len(t, animals, 1)
	assert.Equal(t, "Nagini", animals[0].Name)

	w = api.do(http.MethodPut, "/api/animals/"+animal.ID.String(), gin.H{
		"name":    "Nagini",
		"species": "Python regius",
		"morph":   "Banana Pied",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.do(http.MethodGet, "/api/animals/"+animal.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &animal))
	assert.Equal(t, "Banana Pied", animal.Morph)

	w = api.do(http.MethodDelete, "/api/animals/"+animal.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = api.do(http.MethodGet, "/api/animals/"+animal.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(http.MethodGet, "/api/animals/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnimalsAreOwnerScoped(t *testing.T) {
	api := newTestAPI(t)
	api.register(t, "alice@example.com")

	w := api.do(http.MethodPost, "/api/animals", gin.H{"name": "Rex", "species": "Pogona vitticeps"})
	require.Equal(t, http.StatusCreated, w.Code)
	var animal model.Animal
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &animal))

	api.register(t, "mallory@example.com")
	w = api.do(http.MethodGet, "/api/animals/"+animal.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "foreign animals must be invisible, not forbidden")

	w = api.do(http.MethodGet, "/api/animals", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var animals []model.Animal
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &animals))
	assert.Empty(t, animals)
}

func TestWeightHistoryFlow(t *testing.T) {
	api := newTestAPI(t)
	api.register(t, "keeper@example.com")

	w := api.do(http.MethodPost, "/api/animals", gin.H{"name": "Nagini", "species": "Python regius"})
	require.Equal(t, http.StatusCreated, w.Code)
	var animal model.Animal
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &animal))
	base := "/api/animals/" + animal.ID.String() + "/weights"

	w = api.do(http.MethodPost, base, gin.H{"grams": 1450, "recorded_at": "2026-02-01T09:00:00Z"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = api.do(http.MethodPost, base, gin.H{"grams": 1480, "recorded_at": "2026-02-15T09:00:00Z"})
	require.Equal(t, http.StatusCreated, w.Code)
	var newest model.WeightRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &newest))

	w = api.do(http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var records []model.WeightRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &records))
	require.Len(t, records, 2)
	assert.Equal(t, 1480.0, records[0].Grams, "newest first")

	// The denormalized weight tracks the newest record.
	w = api.do(http.MethodGet, "/api/animals/"+animal.ID.String(), nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &animal))
	require.NotNil(t, animal.WeightGrams)
	assert.Equal(t, 1480.0, *animal.WeightGrams)

	w = api.do(http.MethodDelete, base+"/"+newest.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = api.do(http.MethodGet, "/api/animals/"+animal.ID.String(), nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &animal))
	require.NotNil(t, animal.WeightGrams)
	assert.Equal(t, 1450.0, *animal.WeightGrams)
}

func TestEnclosureEnvironment(t *testing.T) {
	api := newTestAPI(t)
	api.register(t, "keeper@example.com")

	w := api.do(http.MethodPost, "/api/enclosures", gin.H{
		"name":                "Rack 1",
		"type":                "rack",
		"target_temp_c":       31.0,
		"target_humidity_pct": 60.0,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var enclosure model.Enclosure
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &enclosure))

	// Unmapped: no sensor, not connected.
	w = api.do(http.MethodGet, "/api/enclosures/"+enclosure.ID.String()+"/environment", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var env struct {
		Connected bool                `json:"connected"`
		SensorID  string              `json:"sensor_id"`
		Sample    *model.SampleRecord `json:"sample"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.False(t, env.Connected)
	assert.Empty(t, env.SensorID)

	w = api.do(http.MethodPut, "/api/enclosures/"+enclosure.ID.String()+"/sensor", gin.H{"sensor_id": "sensor-a"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Mapped but no mirrored samples yet: still not connected.
	w = api.do(http.MethodGet, "/api/enclosures/"+enclosure.ID.String()+"/environment", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.False(t, env.Connected)
	assert.Equal(t, "sensor-a", env.SensorID)

	// A mirrored sample appears (as the poller would write it).
	owner, err := api.store.UserByEmail(context.Background(), "keeper@example.com")
	require.NoError(t, err)
	_, err = api.store.InsertSamples(context.Background(), []model.SampleRecord{{
		ID:           "s-1",
		SensorID:     "sensor-a",
		OwnerID:      owner.ID,
		ObservedAt:   time.Now().UTC(),
		TemperatureC: 30.4,
		HumidityPct:  58,
	}})
	require.NoError(t, err)

	w = api.do(http.MethodGet, "/api/enclosures/"+enclosure.ID.String()+"/environment", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.True(t, env.Connected)
	require.NotNil(t, env.Sample)
	assert.Equal(t, 30.4, env.Sample.TemperatureC)

	w = api.do(http.MethodDelete, "/api/enclosures/"+enclosure.ID.String()+"/sensor", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestMapSensorUnknownEnclosure(t *testing.T) {
	api := newTestAPI(t)
	api.register(t, "keeper@example.com")

	w := api.do(http.MethodPut, "/api/enclosures/"+uuid.NewString()+"/sensor", gin.H{"sensor_id": "sensor-a"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCompleteRecurringTaskRollsForward(t *testing.T) {
	api := newTestAPI(t)
	api.register(t, "keeper@example.com")

	w := api.do(http.MethodPost, "/api/tasks", gin.H{
		"title":       "Feed Nagini",
		"due_at":      "2026-02-01T18:00:00Z",
		"repeat_days": 7,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var task model.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &task))

	w = api.do(http.MethodPost, "/api/tasks/"+task.ID.String()+"/complete", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Completed model.Task  `json:"completed"`
		Next      *model.Task `json:"next"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotNil(t, resp.Completed.CompletedAt)
	require.NotNil(t, resp.Next, "a recurring task schedules its next occurrence")
	assert.True(t, resp.Next.DueAt.Equal(task.DueAt.AddDate(0, 0, 7)),
		"next occurrence is due_at + repeat_days, got %s", resp.Next.DueAt)
	assert.Nil(t, resp.Next.CompletedAt)

	// Default listing hides completed tasks.
	w = api.do(http.MethodGet, "/api/tasks", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var tasks []model.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tasks))
	require.Len(t, tasks, 1)
	assert.Equal(t, resp.Next.ID, tasks[0].ID)

	w = api.do(http.MethodGet, "/api/tasks?include_completed=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tasks))
	assert.Len(t, tasks, 2)
}

func TestUpdateTaskDueDateResetsNotification(t *testing.T) {
	api := newTestAPI(t)
	api.register(t, "keeper@example.com")

	w := api.do(http.MethodPost, "/api/tasks", gin.H{
		"title":  "Vet visit",
		"due_at": "2026-02-01T18:00:00Z",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var task model.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &task))

	require.NoError(t, api.store.MarkTaskNotified(context.Background(), task.ID, time.Now()))

	w = api.do(http.MethodPut, "/api/tasks/"+task.ID.String(), gin.H{
		"title":  "Vet visit",
		"due_at": "2026-02-03T18:00:00Z",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &task))
	assert.Nil(t, task.NotifiedAt, "rescheduling re-arms the reminder")
}

func TestClientStateEndpoints(t *testing.T) {
	api := newTestAPI(t)
	api.register(t, "keeper@example.com")

	w := api.do(http.MethodGet, "/api/state/active_tab", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(http.MethodPut, "/api/state/active_tab", gin.H{"value": `"weights"`})
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	w = api.do(http.MethodGet, "/api/state/active_tab", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"key":"active_tab","value":"\"weights\""}`, w.Body.String())
}

func TestSensorEndpointsWithoutConnection(t *testing.T) {
	api := newTestAPI(t)
	api.register(t, "keeper@example.com")

	w := api.do(http.MethodGet, "/api/sensorpush/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"connected":false}`, w.Body.String())

	w = api.do(http.MethodGet, "/api/sensorpush/sensors", nil)
	assert.Equal(t, http.StatusPreconditionRequired, w.Code,
		"listing sensors without a connected account is a precondition failure")

	w = api.do(http.MethodGet, "/api/sensorpush/sensors/sensor-a/samples", nil)
	assert.Equal(t, http.StatusPreconditionRequired, w.Code)

	w = api.do(http.MethodGet, "/api/sensorpush/sensors/sensor-a/samples?start=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubscriptionEndpoints(t *testing.T) {
	api := newTestAPI(t)
	api.register(t, "keeper@example.com")

	w := api.do(http.MethodGet, "/api/vapid_public_key", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"public_key":"test-public-key"}`, w.Body.String())

	w = api.do(http.MethodPut, "/api/subscriptions", gin.H{
		"endpoint": "https://push.example.com/a",
		"p256dh":   "key",
		"auth":     "secret",
	})
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = api.do(http.MethodGet, "/api/subscriptions?endpoint=https://push.example.com/a", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = api.do(http.MethodDelete, "/api/subscriptions", gin.H{"endpoint": "https://push.example.com/a"})
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = api.do(http.MethodGet, "/api/subscriptions?endpoint=https://push.example.com/a", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
