package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"herptrack-backend/internal/model"
	"herptrack-backend/internal/store"
)

type enclosureRequest struct {
	Name         string   `json:"name" binding:"required"`
	Type         string   `json:"type"`
	TargetTempC  *float64 `json:"target_temp_c"`
	TargetHumPct *float64 `json:"target_humidity_pct"`
	Notes        string   `json:"notes"`
}

func (h *Handler) ListEnclosures(c *gin.Context) {
	ownerID, ok := h.owner(c)
	if !ok {
		return
	}
	enclosures, err := h.store.ListEnclosures(c.Request.Context(), ownerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve enclosures"})
		return
	}
	c.JSON(http.StatusOK, enclosures)
}

func (h *Handler) CreateEnclosure(c *gin.Context) {
	ownerID, ok := h.owner(c)
	if !ok {
		return
	}
	var req enclosureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	enclosure := model.Enclosure{
		OwnerID:      ownerID,
		Name:         req.Name,
		Type:         req.Type,
		TargetTempC:  req.TargetTempC,
		TargetHumPct: req.TargetHumPct,
		Notes:        req.Notes,
	}
	if err := h.store.CreateEnclosure(c.Request.Context(), &enclosure); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, enclosure)
}

func (h *Handler) GetEnclosure(c *gin.Context) {
	ownerID, ok := h.owner(c)
	if !ok {
		return
	}
	enclosureID, ok := parseID(c, "id")
	if !ok {
		return
	}

	enclosure, err := h.store.GetEnclosure(c.Request.Context(), ownerID, enclosureID)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "enclosure not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, enclosure)
}

func (h *Handler) UpdateEnclosure(c *gin.Context) {
	ownerID, ok := h.owner(c)
	if !ok {
		return
	}
	enclosureID, ok := parseID(c, "id")
	if !ok {
		return
	}

	enclosure, err := h.store.GetEnclosure(c.Request.Context(), ownerID, enclosureID)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "enclosure not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var req enclosureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	enclosure.Name = req.Name
	enclosure.Type = req.Type
	enclosure.TargetTempC = req.TargetTempC
	enclosure.TargetHumPct = req.TargetHumPct
	enclosure.Notes = req.Notes

	if err := h.store.UpdateEnclosure(c.Request.Context(), enclosure); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, enclosure)
}

func (h *Handler) DeleteEnclosure(c *gin.Context) {
	ownerID, ok := h.owner(c)
	if !ok {
		return
	}
	enclosureID, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.store.DeleteEnclosure(c.Request.Context(), ownerID, enclosureID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// environmentResponse is the enclosure environment payload: the mapped sensor
// and its latest mirrored reading.
type environmentResponse struct {
	Connected    bool                `json:"connected"`
	SensorID     string              `json:"sensor_id,omitempty"`
	Sample       *model.SampleRecord `json:"sample,omitempty"`
	TargetTempC  *float64            `json:"target_temp_c,omitempty"`
	TargetHumPct *float64            `json:"target_humidity_pct,omitempty"`
}

// EnclosureEnvironment returns the latest reading from the enclosure's mapped
// sensor. An unmapped enclosure or a mapped sensor without mirrored samples
// reports "not connected" rather than an error.
func (h *Handler) EnclosureEnvironment(c *gin.Context) {
	ownerID, ok := h.owner(c)
	if !ok {
		return
	}
	enclosureID, ok := parseID(c, "id")
	if !ok {
		return
	}

	enclosure, err := h.store.GetEnclosure(c.Request.Context(), ownerID, enclosureID)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "enclosure not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := environmentResponse{
		TargetTempC:  enclosure.TargetTempC,
		TargetHumPct: enclosure.TargetHumPct,
	}

	mapping, err := h.store.SensorForEnclosure(c.Request.Context(), ownerID, enclosureID)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusOK, resp)
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp.SensorID = mapping.SensorID
	sample, err := h.store.LatestSample(c.Request.Context(), ownerID, mapping.SensorID)
	if err == nil {
		resp.Connected = true
		resp.Sample = sample
	} else if !errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}

type mapSensorRequest struct {
	SensorID string `json:"sensor_id" binding:"required"`
}

// MapSensor associates a SensorPush sensor with the enclosure (1:1 per
// enclosure; re-mapping replaces the sensor).
func (h *Handler) MapSensor(c *gin.Context) {
	ownerID, ok := h.owner(c)
	if !ok {
		return
	}
	enclosureID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req mapSensorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := h.store.GetEnclosure(c.Request.Context(), ownerID, enclosureID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "enclosure not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	mapping, err := h.store.MapSensor(c.Request.Context(), ownerID, enclosureID, req.SensorID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, mapping)
}

func (h *Handler) UnmapSensor(c *gin.Context) {
	ownerID, ok := h.owner(c)
	if !ok {
		return
	}
	enclosureID, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.store.UnmapSensor(c.Request.Context(), ownerID, enclosureID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}
