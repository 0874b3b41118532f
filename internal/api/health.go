package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type readiness interface {
	Ready(ctx context.Context) error
}

type healthRoutes struct {
	store     readiness
	startTime time.Time
}

func NewHealthRoutes(handler *gin.RouterGroup, store readiness) {
	r := &healthRoutes{store: store, startTime: time.Now().UTC()}
	handler.GET("/", r.Root)
	handler.GET("/health", r.Health)
	handler.GET("/ready", r.Ready)
}

func (r *healthRoutes) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "LifeQuest Hero API v1.0",
		"status":  "ready",
	})
}

func (r *healthRoutes) Health(c *gin.Context) {
	now := time.Now().UTC()
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"uptime_seconds": int(now.Sub(r.startTime).Seconds()),
		"timestamp":      now.Format(time.RFC3339),
	})
}

func (r *healthRoutes) Ready(c *gin.Context) {
	if err := r.store.Ready(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
