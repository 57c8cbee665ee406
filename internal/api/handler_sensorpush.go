package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"herptrack-backend/internal/sensorpush"
)

type connectRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ConnectSensorPush runs the SensorPush credential exchange for the owner.
func (h *Handler) ConnectSensorPush(c *gin.Context) {
	ownerID, ok := h.owner(c)
	if !ok {
		return
	}
	var req connectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.sensorpush.Auth().Authenticate(c.Request.Context(), ownerID, req.Email, req.Password)
	if err != nil {
		var authErr *sensorpush.AuthError
		switch {
		case errors.As(err, &authErr):
			c.JSON(http.StatusUnauthorized, gin.H{"error": authErr.Error()})
		case errors.Is(err, sensorpush.ErrTimeout):
			c.JSON(http.StatusGatewayTimeout, gin.H{"error": "SensorPush timed out, try again later"})
		default:
			c.JSON(http.StatusBadGateway, gin.H{"error": "SensorPush is unreachable, try again later"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"connected": true})
}

// SensorPushStatus reports whether the owner's account is connected.
func (h *Handler) SensorPushStatus(c *gin.Context) {
	ownerID, ok := h.owner(c)
	if !ok {
		return
	}
	connected, err := h.sensorpush.Auth().Connected(c.Request.Context(), ownerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"connected": connected})
}

// DisconnectSensorPush drops all stored SensorPush credentials.
func (h *Handler) DisconnectSensorPush(c *gin.Context) {
	ownerID, ok := h.owner(c)
	if !ok {
		return
	}
	if err := h.sensorpush.Auth().Disconnect(c.Request.Context(), ownerID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// ListSensors lists the owner's SensorPush sensors.
func (h *Handler) ListSensors(c *gin.Context) {
	ownerID, ok := h.owner(c)
	if !ok {
		return
	}
	sensors, err := h.sensorpush.ListSensors(c.Request.Context(), ownerID)
	if err != nil {
		h.sensorError(c, err)
		return
	}
	c.JSON(http.StatusOK, sensors)
}

// ListSamples fetches recent samples for one sensor.
func (h *Handler) ListSamples(c *gin.Context) {
	ownerID, ok := h.owner(c)
	if !ok {
		return
	}
	sensorID := c.Param("id")

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}
	start, ok := parseTimeQuery(c, "start")
	if !ok {
		return
	}
	stop, ok := parseTimeQuery(c, "stop")
	if !ok {
		return
	}

	samples, err := h.sensorpush.ListSamples(c.Request.Context(), ownerID, sensorID, limit, start, stop)
	if err != nil {
		h.sensorError(c, err)
		return
	}
	c.JSON(http.StatusOK, samples)
}

// sensorError maps SensorPush failures onto the API error taxonomy: missing
// token is a precondition ("connect your account"), timeouts and transport
// failures are retryable, everything else is an upstream fault.
func (h *Handler) sensorError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, sensorpush.ErrNoToken):
		c.JSON(http.StatusPreconditionRequired, gin.H{"error": "SensorPush account is not connected"})
	case errors.Is(err, sensorpush.ErrTimeout):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "SensorPush timed out, try again later"})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"error": "SensorPush request failed, try again later"})
	}
}

func parseTimeQuery(c *gin.Context, key string) (*time.Time, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid '" + key + "' timestamp format. Use RFC3339."})
		return nil, false
	}
	return &t, true
}
