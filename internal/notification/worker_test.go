package notification

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"herptrack-backend/internal/db"
	"herptrack-backend/internal/model"
	"herptrack-backend/internal/store"
)

// mockSender is a mock implementation of the Sender interface.
type mockSender struct {
	SendFunc func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

func (m *mockSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return m.SendFunc(payload, sub, options)
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	return store.NewGormStore(gdb)
}

func seedDueTask(t *testing.T, s store.Store, title string) *model.Task {
	t.Helper()
	task := &model.Task{
		ID:      uuid.New(),
		OwnerID: uuid.New(),
		Title:   title,
		DueAt:   time.Now().Add(-5 * time.Minute),
	}
	require.NoError(t, s.CreateTask(context.Background(), task))
	return task
}

func TestWorkerPool_Dispatch(t *testing.T) {
	wp := NewWorkerPool(1, newTestStore(t), &webpush.Options{})

	taskID := uuid.New()
	wp.Dispatch(taskID)

	select {
	case job := <-wp.Jobs():
		assert.Equal(t, taskID, job)
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for job to be dispatched")
	}
}

func TestWorkerPool_SendsReminderToEverySubscription(t *testing.T) {
	s := newTestStore(t)
	wp := NewWorkerPool(1, s, &webpush.Options{})

	task := seedDueTask(t, s, "Feed Nagini")
	for _, endpoint := range []string{"https://push.example.com/a", "https://push.example.com/b"} {
		require.NoError(t, s.UpsertSubscription(context.Background(), &model.PushSubscription{
			Endpoint: endpoint,
			OwnerID:  task.OwnerID,
			P256DH:   "p256dh-key",
			Auth:     "auth-secret",
		}))
	}

	var (
		mu        sync.Mutex
		payloads  []string
		endpoints []string
	)
	var wg sync.WaitGroup
	wg.Add(2)
	wp.SetSender(&mockSender{
		SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
			mu.Lock()
			payloads = append(payloads, string(payload))
			endpoints = append(endpoints, sub.Endpoint)
			mu.Unlock()
			wg.Done()
			return &http.Response{
				StatusCode: http.StatusCreated,
				Body:       io.NopCloser(bytes.NewBufferString("")),
			}, nil
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wp.Start(ctx)

	wp.Dispatch(task.ID)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"https://push.example.com/a", "https://push.example.com/b"}, endpoints)
	for _, payload := range payloads {
		assert.Equal(t, "Husbandry task due: Feed Nagini", payload)
	}
}

func TestWorkerPool_PrunesExpiredSubscription(t *testing.T) {
	s := newTestStore(t)
	wp := NewWorkerPool(1, s, &webpush.Options{})

	task := seedDueTask(t, s, "Mist enclosure")
	require.NoError(t, s.UpsertSubscription(context.Background(), &model.PushSubscription{
		Endpoint: "https://push.example.com/expired",
		OwnerID:  task.OwnerID,
		P256DH:   "p256dh-key",
		Auth:     "auth-secret",
	}))

	var wg sync.WaitGroup
	wg.Add(1)
	wp.SetSender(&mockSender{
		SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
			wg.Done()
			return &http.Response{
				StatusCode: http.StatusGone,
				Body:       io.NopCloser(bytes.NewBufferString("")),
			}, nil
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wp.Start(ctx)

	wp.Dispatch(task.ID)
	wg.Wait()

	// The delete happens after the send returns; poll briefly for it.
	require.Eventually(t, func() bool {
		subs, err := s.SubscriptionsForOwner(context.Background(), task.OwnerID)
		return err == nil && len(subs) == 0
	}, time.Second, 10*time.Millisecond, "an expired subscription must be pruned")
}

func TestScheduler_ScanOnceNotifiesEachTaskOnce(t *testing.T) {
	s := newTestStore(t)
	wp := NewWorkerPool(1, s, &webpush.Options{})
	scheduler := NewScheduler(s, wp, time.Minute)

	task := seedDueTask(t, s, "Weigh Nagini")
	future := &model.Task{
		ID:      uuid.New(),
		OwnerID: task.OwnerID,
		Title:   "Vet visit",
		DueAt:   time.Now().Add(24 * time.Hour),
	}
	require.NoError(t, s.CreateTask(context.Background(), future))

	// Workers are not started: dispatched IDs stay queued for inspection.
	scheduler.ScanOnce(context.Background())

	select {
	case job := <-wp.Jobs():
		assert.Equal(t, task.ID, job)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for the due task to be dispatched")
	}

	// The task is marked notified before dispatch; a second scan is a no-op.
	scheduler.ScanOnce(context.Background())
	select {
	case job := <-wp.Jobs():
		t.Fatalf("task %s was dispatched twice", job)
	case <-time.After(50 * time.Millisecond):
	}

	got, err := s.GetTask(context.Background(), task.OwnerID, task.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.NotifiedAt)
}
