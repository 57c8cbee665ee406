package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"herptrack-backend/internal/store"
)

type addWeightRequest struct {
	Grams      float64    `json:"grams" binding:"required"`
	RecordedAt *time.Time `json:"recorded_at"`
}

// ListWeights returns the animal's reconciled weight history, newest first.
func (h *Handler) ListWeights(c *gin.Context) {
	ownerID, ok := h.owner(c)
	if !ok {
		return
	}
	animalID, ok := parseID(c, "id")
	if !ok {
		return
	}

	records, err := h.weights.Load(c.Request.Context(), ownerID, animalID)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "animal not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *Handler) AddWeight(c *gin.Context) {
	ownerID, ok := h.owner(c)
	if !ok {
		return
	}
	animalID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req addWeightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	recordedAt := time.Now().UTC()
	if req.RecordedAt != nil {
		recordedAt = *req.RecordedAt
	}

	record, err := h.weights.Add(c.Request.Context(), ownerID, animalID, req.Grams, recordedAt)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "animal not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, record)
}

func (h *Handler) DeleteWeight(c *gin.Context) {
	ownerID, ok := h.owner(c)
	if !ok {
		return
	}
	animalID, ok := parseID(c, "id")
	if !ok {
		return
	}
	recordID, ok := parseID(c, "record_id")
	if !ok {
		return
	}

	err := h.weights.Delete(c.Request.Context(), ownerID, animalID, recordID)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "animal not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}
