package notification

import (
	"context"
	"log"
	"time"

	"herptrack-backend/internal/store"
)

// Scheduler scans for due, un-notified tasks on a fixed interval and hands
// them to the worker pool. One reminder is sent per task occurrence; the
// notified timestamp prevents re-sends on later scans.
type Scheduler struct {
	store    store.Store
	pool     *WorkerPool
	interval time.Duration
	now      func() time.Time
}

// NewScheduler creates a reminder scheduler.
func NewScheduler(s store.Store, pool *WorkerPool, interval time.Duration) *Scheduler {
	return &Scheduler{store: s, pool: pool, interval: interval, now: time.Now}
}

// Run starts the worker pool and scans until the context is cancelled. A
// failed scan never terminates the loop.
func (s *Scheduler) Run(ctx context.Context) {
	s.pool.Start(ctx)
	s.ScanOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Reminder scheduler shutting down.")
			return
		case <-ticker.C:
			s.ScanOnce(ctx)
		}
	}
}

// ScanOnce dispatches reminders for every task that is due and not yet
// notified. Tasks are marked notified before dispatch so a crash between mark
// and send drops a reminder rather than duplicating it.
func (s *Scheduler) ScanOnce(ctx context.Context) {
	now := s.now().UTC()
	tasks, err := s.store.DueTasks(ctx, now)
	if err != nil {
		log.Printf("Error scanning for due tasks: %v", err)
		return
	}

	for _, task := range tasks {
		if err := s.store.MarkTaskNotified(ctx, task.ID, now); err != nil {
			log.Printf("Error marking task %s notified: %v", task.ID, err)
			continue
		}
		s.pool.Dispatch(task.ID)
	}
}
