package api

import (
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"herptrack-backend/internal/mw"
	"herptrack-backend/internal/sensorpush"
	"herptrack-backend/internal/store"
	"herptrack-backend/internal/weight"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store      store.Store
	weights    *weight.Reconciler
	sensorpush *sensorpush.Service
	webpush    *webpush.Options
	jwtSecret  []byte
	sessionTTL time.Duration
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, weights *weight.Reconciler, sp *sensorpush.Service, webpushOptions *webpush.Options, jwtSecret []byte, sessionTTL time.Duration) *Handler {
	return &Handler{
		store:      s,
		weights:    weights,
		sensorpush: sp,
		webpush:    webpushOptions,
		jwtSecret:  jwtSecret,
		sessionTTL: sessionTTL,
	}
}

// owner pulls the authenticated owner from the context, aborting with 401 if
// the middleware never ran.
func (h *Handler) owner(c *gin.Context) (uuid.UUID, bool) {
	ownerID, ok := mw.Owner(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no session"})
	}
	return ownerID, ok
}

// parseID parses a UUID path parameter, aborting with 400 on garbage.
func parseID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}
