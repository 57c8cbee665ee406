package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"herptrack-backend/internal/model"
)

func (s *gormStore) CreateTask(ctx context.Context, task *model.Task) error {
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	return s.db.WithContext(ctx).Create(task).Error
}

func (s *gormStore) ListTasks(ctx context.Context, ownerID uuid.UUID, includeCompleted bool) ([]model.Task, error) {
	q := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("due_at")
	if !includeCompleted {
		q = q.Where("completed_at IS NULL")
	}
	var tasks []model.Task
	if err := q.Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (s *gormStore) GetTask(ctx context.Context, ownerID, taskID uuid.UUID) (*model.Task, error) {
	var task model.Task
	err := s.db.WithContext(ctx).
		Where("owner_id = ? AND id = ?", ownerID, taskID).
		First(&task).Error
	if err != nil {
		return nil, translate(err)
	}
	return &task, nil
}

func (s *gormStore) UpdateTask(ctx context.Context, task *model.Task) error {
	return s.db.WithContext(ctx).Save(task).Error
}

func (s *gormStore) DeleteTask(ctx context.Context, ownerID, taskID uuid.UUID) error {
	return s.db.WithContext(ctx).
		Where("owner_id = ? AND id = ?", ownerID, taskID).
		Delete(&model.Task{}).Error
}

// DueTasks returns incomplete tasks past their due time that have not had a
// reminder sent yet.
func (s *gormStore) DueTasks(ctx context.Context, now time.Time) ([]model.Task, error) {
	var tasks []model.Task
	err := s.db.WithContext(ctx).
		Where("due_at <= ? AND completed_at IS NULL AND notified_at IS NULL", now).
		Order("due_at").
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

func (s *gormStore) MarkTaskNotified(ctx context.Context, taskID uuid.UUID, at time.Time) error {
	return s.db.WithContext(ctx).
		Model(&model.Task{}).
		Where("id = ?", taskID).
		Update("notified_at", at).Error
}
