package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"herptrack-backend/internal/model"
	"herptrack-backend/internal/store"
)

type taskRequest struct {
	Title       string     `json:"title" binding:"required"`
	Notes       string     `json:"notes"`
	DueAt       time.Time  `json:"due_at" binding:"required"`
	RepeatDays  int        `json:"repeat_days"`
	AnimalID    *uuid.UUID `json:"animal_id"`
	EnclosureID *uuid.UUID `json:"enclosure_id"`
}

func (h *Handler) ListTasks(c *gin.Context) {
	ownerID, ok := h.owner(c)
	if !ok {
		return
	}
	includeCompleted := c.Query("include_completed") == "true"
	tasks, err := h.store.ListTasks(c.Request.Context(), ownerID, includeCompleted)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve tasks"})
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (h *Handler) CreateTask(c *gin.Context) {
	ownerID, ok := h.owner(c)
	if !ok {
		return
	}
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task := model.Task{
		OwnerID:     ownerID,
		Title:       req.Title,
		Notes:       req.Notes,
		DueAt:       req.DueAt,
		RepeatDays:  req.RepeatDays,
		AnimalID:    req.AnimalID,
		EnclosureID: req.EnclosureID,
	}
	if err := h.store.CreateTask(c.Request.Context(), &task); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (h *Handler) UpdateTask(c *gin.Context) {
	ownerID, ok := h.owner(c)
	if !ok {
		return
	}
	taskID, ok := parseID(c, "id")
	if !ok {
		return
	}

	task, err := h.store.GetTask(c.Request.Context(), ownerID, taskID)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task.Title = req.Title
	task.Notes = req.Notes
	task.RepeatDays = req.RepeatDays
	task.AnimalID = req.AnimalID
	task.EnclosureID = req.EnclosureID
	if !req.DueAt.Equal(task.DueAt) {
		task.DueAt = req.DueAt
		task.NotifiedAt = nil
	}

	if err := h.store.UpdateTask(c.Request.Context(), task); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *Handler) DeleteTask(c *gin.Context) {
	ownerID, ok := h.owner(c)
	if !ok {
		return
	}
	taskID, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.store.DeleteTask(c.Request.Context(), ownerID, taskID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// CompleteTask marks a task done. Recurring tasks roll forward: the next
// occurrence is scheduled RepeatDays after the completed due time.
func (h *Handler) CompleteTask(c *gin.Context) {
	ownerID, ok := h.owner(c)
	if !ok {
		return
	}
	taskID, ok := parseID(c, "id")
	if !ok {
		return
	}

	task, err := h.store.GetTask(c.Request.Context(), ownerID, taskID)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	now := time.Now().UTC()
	task.CompletedAt = &now
	if err := h.store.UpdateTask(c.Request.Context(), task); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if task.RepeatDays > 0 {
		next := model.Task{
			OwnerID:     task.OwnerID,
			AnimalID:    task.AnimalID,
			EnclosureID: task.EnclosureID,
			Title:       task.Title,
			Notes:       task.Notes,
			DueAt:       task.DueAt.AddDate(0, 0, task.RepeatDays),
			RepeatDays:  task.RepeatDays,
		}
		if err := h.store.CreateTask(c.Request.Context(), &next); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"completed": task, "next": next})
		return
	}

	c.JSON(http.StatusOK, gin.H{"completed": task})
}
