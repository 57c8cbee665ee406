package model

import (
	"time"

	"github.com/google/uuid"
)

// Task is a husbandry chore (feeding, misting, cleaning, vet visit) tied to an
// animal or enclosure. A RepeatDays > 0 makes the task recurring: completing it
// schedules the next occurrence.
type Task struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID     uuid.UUID  `gorm:"type:uuid;index;not null" json:"owner_id"`
	AnimalID    *uuid.UUID `gorm:"type:uuid;index" json:"animal_id"`
	EnclosureID *uuid.UUID `gorm:"type:uuid;index" json:"enclosure_id"`
	Title       string     `gorm:"size:256;not null" json:"title"`
	Notes       string     `json:"notes"`
	DueAt       time.Time  `gorm:"index;not null" json:"due_at"`
	RepeatDays  int        `json:"repeat_days"`
	CompletedAt *time.Time `json:"completed_at"`
	NotifiedAt  *time.Time `json:"notified_at"`
	CreatedAt   time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null" json:"updated_at"`
}
