package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"herptrack-backend/internal/store"
)

// GetClientState returns the JSON blob stored under a key for the owner.
func (h *Handler) GetClientState(c *gin.Context) {
	ownerID, ok := h.owner(c)
	if !ok {
		return
	}
	key := c.Param("key")

	value, err := h.store.GetClientState(c.Request.Context(), ownerID, key)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no state for key"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "value": value})
}

type setStateRequest struct {
	Value string `json:"value" binding:"required"`
}

// SetClientState upserts the JSON blob stored under a key for the owner.
func (h *Handler) SetClientState(c *gin.Context) {
	ownerID, ok := h.owner(c)
	if !ok {
		return
	}
	key := c.Param("key")

	var req setStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.store.SetClientState(c.Request.Context(), ownerID, key, req.Value); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}
