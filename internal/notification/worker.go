package notification

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/google/uuid"

	"herptrack-backend/internal/store"
)

// Sender defines the interface for sending a web push notification.
type Sender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is the real Sender backed by the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// WorkerPool delivers task-due reminders to the owner's browser push
// subscriptions.
type WorkerPool struct {
	size    int
	jobs    chan uuid.UUID
	store   store.Store
	webpush *webpush.Options
	sender  Sender
}

// NewWorkerPool creates a reminder worker pool.
func NewWorkerPool(size int, s store.Store, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan uuid.UUID, size),
		store:   s,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("Reminder worker %d started", id)
	for {
		select {
		case taskID := <-wp.jobs:
			wp.notifyTask(ctx, taskID)
		case <-ctx.Done():
			log.Printf("Reminder worker %d shutting down", id)
			return
		}
	}
}

// Dispatch queues a task for reminder delivery.
func (wp *WorkerPool) Dispatch(taskID uuid.UUID) {
	wp.jobs <- taskID
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan uuid.UUID {
	return wp.jobs
}

// SetSender swaps the push sender (used by tests).
func (wp *WorkerPool) SetSender(s Sender) {
	wp.sender = s
}

func (wp *WorkerPool) notifyTask(ctx context.Context, taskID uuid.UUID) {
	var task struct {
		OwnerID uuid.UUID
		Title   string
		DueAt   time.Time
	}
	err := wp.store.DB().WithContext(ctx).
		Table("tasks").
		Select("owner_id", "title", "due_at").
		Where("id = ?", taskID).
		Take(&task).Error
	if err != nil {
		log.Printf("Error fetching task %s for reminder: %v", taskID, err)
		return
	}

	subs, err := wp.store.SubscriptionsForOwner(ctx, task.OwnerID)
	if err != nil {
		log.Printf("Error fetching subscriptions for owner %s: %v", task.OwnerID, err)
		return
	}
	if len(subs) == 0 {
		return
	}

	log.Printf("Sending %d reminders for task %s", len(subs), taskID)
	message := fmt.Sprintf("Husbandry task due: %s", task.Title)
	for _, sub := range subs {
		wpSub := &webpush.Subscription{
			Endpoint: sub.Endpoint,
			Keys: webpush.Keys{
				P256dh: sub.P256DH,
				Auth:   sub.Auth,
			},
		}

		resp, err := wp.sender.Send([]byte(message), wpSub, wp.webpush)
		if err != nil {
			log.Printf("Error sending reminder to %s: %v", sub.Endpoint, err)
			continue
		}
		resp.Body.Close()

		// Expired subscriptions are pruned.
		if resp.StatusCode == http.StatusGone {
			log.Printf("Subscription for endpoint %s is expired. Deleting.", sub.Endpoint)
			if err := wp.store.DeleteSubscription(ctx, sub.OwnerID, sub.Endpoint); err != nil {
				log.Printf("Failed to delete expired subscription %s: %v", sub.Endpoint, err)
			}
		}
	}
}
