package api

import (
	"errors"
	"net/http"

	"lifequest_miniapp/internal/service"
	"lifequest_miniapp/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type webhookRoutes struct {
	us service.UserServiceI
}

// NewWebhookRoutes registers endpoints called by the avatar generation
// pipeline, not by mini-app clients. No Telegram auth here.
func NewWebhookRoutes(handler *gin.RouterGroup, us service.UserServiceI) {
	r := &webhookRoutes{us: us}
	h := handler.Group("/webhooks")
	{
		h.POST("/avatar-generated", r.AvatarGenerated)
	}
}

type AvatarGeneratedRequest struct {
	UserID    string `json:"user_id" binding:"required"`
	AvatarURL string `json:"avatar_url" binding:"required"`
	Level     int    `json:"level"`
}

func (r *webhookRoutes) AvatarGenerated(c *gin.Context) {
	log := logger.Logger()

	var req AvatarGeneratedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("invalid avatar webhook payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required fields"})
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		log.Error("failed to parse user_id", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
		return
	}

	level := req.Level
	if level < 1 {
		level = 1
	}

	if err := r.us.SetGeneratedAvatar(c.Request.Context(), userID, level, req.AvatarURL); err != nil {
		log.Error("failed to store generated avatar", zap.Error(err))
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store avatar"})
		return
	}

	log.Info("avatar updated",
		zap.String("user_id", req.UserID),
		zap.Int("level", level))

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Avatar updated"})
}
