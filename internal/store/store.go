package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"herptrack-backend/internal/model"
)

// ErrNotFound is returned by lookups when no row matches. Callers branch on it
// instead of parsing driver errors.
var ErrNotFound = errors.New("not found")

// Store defines the interface for all database operations.
type Store interface {
	DB() *gorm.DB

	// Users
	CreateUser(ctx context.Context, user *model.User) error
	UserByEmail(ctx context.Context, email string) (*model.User, error)
	UserByID(ctx context.Context, id uuid.UUID) (*model.User, error)

	// API tokens
	UpsertToken(ctx context.Context, ownerID uuid.UUID, service model.TokenService, value string, expiresAt time.Time) error
	GetToken(ctx context.Context, ownerID uuid.UUID, service model.TokenService) (*model.ApiToken, error)
	DeleteTokens(ctx context.Context, ownerID uuid.UUID, services ...model.TokenService) error
	OwnersWithToken(ctx context.Context, service model.TokenService) ([]uuid.UUID, error)

	// Sensor-to-enclosure mappings
	MapSensor(ctx context.Context, ownerID, enclosureID uuid.UUID, sensorID string) (*model.SensorMapping, error)
	UnmapSensor(ctx context.Context, ownerID, enclosureID uuid.UUID) error
	SensorForEnclosure(ctx context.Context, ownerID, enclosureID uuid.UUID) (*model.SensorMapping, error)
	EnclosuresForSensor(ctx context.Context, ownerID uuid.UUID, sensorID string) ([]model.SensorMapping, error)

	// SensorPush mirror
	UpsertSensorSnapshots(ctx context.Context, snapshots []model.SensorSnapshot) error
	InsertSamples(ctx context.Context, samples []model.SampleRecord) (int, error)
	LatestSample(ctx context.Context, ownerID uuid.UUID, sensorID string) (*model.SampleRecord, error)
	SamplesForSensor(ctx context.Context, ownerID uuid.UUID, sensorID string, since *time.Time, limit int) ([]model.SampleRecord, error)

	// Weight records
	ListWeightRecords(ctx context.Context, ownerID, animalID uuid.UUID) ([]model.WeightRecord, error)
	InsertWeightRecord(ctx context.Context, record *model.WeightRecord) error
	DeleteWeightRecord(ctx context.Context, ownerID, recordID uuid.UUID) error
	SetAnimalWeight(ctx context.Context, ownerID, animalID uuid.UUID, grams *float64) error

	// Animals
	CreateAnimal(ctx context.Context, animal *model.Animal) error
	ListAnimals(ctx context.Context, ownerID uuid.UUID) ([]model.Animal, error)
	GetAnimal(ctx context.Context, ownerID, animalID uuid.UUID) (*model.Animal, error)
	UpdateAnimal(ctx context.Context, animal *model.Animal) error
	DeleteAnimal(ctx context.Context, ownerID, animalID uuid.UUID) error

	// Enclosures
	CreateEnclosure(ctx context.Context, enclosure *model.Enclosure) error
	ListEnclosures(ctx context.Context, ownerID uuid.UUID) ([]model.Enclosure, error)
	GetEnclosure(ctx context.Context, ownerID, enclosureID uuid.UUID) (*model.Enclosure, error)
	UpdateEnclosure(ctx context.Context, enclosure *model.Enclosure) error
	DeleteEnclosure(ctx context.Context, ownerID, enclosureID uuid.UUID) error

	// Tasks
	CreateTask(ctx context.Context, task *model.Task) error
	ListTasks(ctx context.Context, ownerID uuid.UUID, includeCompleted bool) ([]model.Task, error)
	GetTask(ctx context.Context, ownerID, taskID uuid.UUID) (*model.Task, error)
	UpdateTask(ctx context.Context, task *model.Task) error
	DeleteTask(ctx context.Context, ownerID, taskID uuid.UUID) error
	DueTasks(ctx context.Context, now time.Time) ([]model.Task, error)
	MarkTaskNotified(ctx context.Context, taskID uuid.UUID, at time.Time) error

	// Client state
	GetClientState(ctx context.Context, ownerID uuid.UUID, key string) (string, error)
	SetClientState(ctx context.Context, ownerID uuid.UUID, key, value string) error

	// Push subscriptions
	UpsertSubscription(ctx context.Context, sub *model.PushSubscription) error
	DeleteSubscription(ctx context.Context, ownerID uuid.UUID, endpoint string) error
	GetSubscription(ctx context.Context, ownerID uuid.UUID, endpoint string) (*model.PushSubscription, error)
	SubscriptionsForOwner(ctx context.Context, ownerID uuid.UUID) ([]model.PushSubscription, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// translate maps gorm's record-not-found onto the store's sentinel.
func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
