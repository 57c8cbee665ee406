package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"herptrack-backend/config"
	"herptrack-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler, cfg *config.Config) *gin.Engine {
	r := gin.Default()

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.Server.RateLimitPerSec), cfg.Server.RateLimitBurst)

	cacheTTL := time.Duration(cfg.Server.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.POST("/auth/register", h.Register)
		api.POST("/auth/login", h.Login)

		// The VAPID key is the only cacheable endpoint: everything else is
		// owner-scoped.
		api.GET("/vapid_public_key", caching, h.GetVAPIDPublicKey)

		auth := api.Group("")
		auth.Use(mw.RequireAuth(h.jwtSecret))
		{
			auth.GET("/animals", h.ListAnimals)
			auth.POST("/animals", h.CreateAnimal)
			auth.GET("/animals/:id", h.GetAnimal)
			auth.PUT("/animals/:id", h.UpdateAnimal)
			auth.DELETE("/animals/:id", h.DeleteAnimal)

			auth.GET("/animals/:id/weights", h.ListWeights)
			auth.POST("/animals/:id/weights", h.AddWeight)
			auth.DELETE("/animals/:id/weights/:record_id", h.DeleteWeight)

			auth.GET("/enclosures", h.ListEnclosures)
			auth.POST("/enclosures", h.CreateEnclosure)
			auth.GET("/enclosures/:id", h.GetEnclosure)
			auth.PUT("/enclosures/:id", h.UpdateEnclosure)
			auth.DELETE("/enclosures/:id", h.DeleteEnclosure)
			auth.GET("/enclosures/:id/environment", h.EnclosureEnvironment)
			auth.PUT("/enclosures/:id/sensor", h.MapSensor)
			auth.DELETE("/enclosures/:id/sensor", h.UnmapSensor)

			auth.GET("/tasks", h.ListTasks)
			auth.POST("/tasks", h.CreateTask)
			auth.PUT("/tasks/:id", h.UpdateTask)
			auth.DELETE("/tasks/:id", h.DeleteTask)
			auth.POST("/tasks/:id/complete", h.CompleteTask)

			auth.POST("/sensorpush/connect", h.ConnectSensorPush)
			auth.GET("/sensorpush/status", h.SensorPushStatus)
			auth.DELETE("/sensorpush/connection", h.DisconnectSensorPush)
			auth.GET("/sensorpush/sensors", h.ListSensors)
			auth.GET("/sensorpush/sensors/:id/samples", h.ListSamples)

			auth.GET("/state/:key", h.GetClientState)
			auth.PUT("/state/:key", h.SetClientState)

			auth.GET("/subscriptions", h.GetSubscription)
			auth.PUT("/subscriptions", h.PutSubscription)
			auth.DELETE("/subscriptions", h.DeleteSubscription)
		}
	}

	return r
}
