package api

import (
	"errors"
	"net/http"
	"time"

	"lifequest_miniapp/internal/model"
	"lifequest_miniapp/internal/service"
	"lifequest_miniapp/pkg/auth"
	"lifequest_miniapp/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type goalRoutes struct {
	gs service.GoalServiceI
	a  *auth.TelegramAuth
}

func NewGoalRoutes(handler *gin.RouterGroup, gs service.GoalServiceI, a *auth.TelegramAuth) {
	r := &goalRoutes{gs: gs, a: a}
	h := handler.Group("/users/:telegram_id/goals")
	h.Use(a.TelegramAuthMiddleware())
	{
		h.GET("", r.GetGoals)
		h.POST("", r.CreateGoal)
		h.PATCH("/:goal_id", r.UpdateGoal)
		h.POST("/:goal_id/complete", r.CompleteGoal)
		h.POST("/:goal_id/notify", r.NotifyGoal)
	}
}

type GoalResponse struct {
	ID          string     `json:"id"`
	GoalText    string     `json:"goal_text"`
	GoalLevel   int        `json:"goal_level"`
	IsCompleted bool       `json:"is_completed"`
	CompletedAt *time.Time `json:"completed_at"`
	NotifiedAt  *time.Time `json:"notified_at"`
	Notes       *string    `json:"notes"`
	ImageURL    *string    `json:"image_url"`
	CreatedAt   time.Time  `json:"created_at"`
}

func toGoalResponse(goal *model.Goal) GoalResponse {
	return GoalResponse{
		ID:          goal.ID.String(),
		GoalText:    goal.GoalText,
		GoalLevel:   goal.GoalLevel,
		IsCompleted: goal.IsCompleted,
		CompletedAt: goal.CompletedAt,
		NotifiedAt:  goal.NotifiedAt,
		Notes:       goal.Notes,
		ImageURL:    goal.ImageURL,
		CreatedAt:   goal.CreatedAt,
	}
}

func parseGoalID(c *gin.Context) (uuid.UUID, bool) {
	goalID, err := uuid.Parse(c.Param("goal_id"))
	if err != nil {
		logger.Logger().Error("failed to parse goal_id", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid goal_id"})
		return uuid.Nil, false
	}
	return goalID, true
}

func (r *goalRoutes) handleGoalError(c *gin.Context, err error, action string) {
	logger.Logger().Error("goal request failed", zap.String("action", action), zap.Error(err))
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
	case errors.Is(err, service.ErrGoalNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "goal not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to " + action})
	}
}

func (r *goalRoutes) GetGoals(c *gin.Context) {
	id, ok := parseTelegramID(c)
	if !ok {
		return
	}

	goals, err := r.gs.GetGoals(c.Request.Context(), id)
	if err != nil {
		r.handleGoalError(c, err, "get goals")
		return
	}

	out := make([]GoalResponse, len(goals))
	for i, goal := range goals {
		out[i] = toGoalResponse(goal)
	}
	c.JSON(http.StatusOK, out)
}

type CreateGoalRequest struct {
	GoalText  string  `json:"goal_text" binding:"required"`
	GoalLevel int     `json:"goal_level"`
	Notes     *string `json:"notes"`
	ImageURL  *string `json:"image_url"`
}

func (r *goalRoutes) CreateGoal(c *gin.Context) {
	id, ok := parseTelegramID(c)
	if !ok {
		return
	}

	var req CreateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Logger().Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	goal, err := r.gs.CreateGoal(c.Request.Context(), id, &model.Goal{
		GoalText:  req.GoalText,
		GoalLevel: req.GoalLevel,
		Notes:     req.Notes,
		ImageURL:  req.ImageURL,
	})
	if err != nil {
		r.handleGoalError(c, err, "create goal")
		return
	}

	c.JSON(http.StatusCreated, toGoalResponse(goal))
}

type UpdateGoalRequest struct {
	GoalText  *string `json:"goal_text"`
	GoalLevel *int    `json:"goal_level"`
	Notes     *string `json:"notes"`
	ImageURL  *string `json:"image_url"`
}

func (r *goalRoutes) UpdateGoal(c *gin.Context) {
	id, ok := parseTelegramID(c)
	if !ok {
		return
	}
	goalID, ok := parseGoalID(c)
	if !ok {
		return
	}

	var req UpdateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Logger().Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	goal, err := r.gs.UpdateGoal(c.Request.Context(), id, goalID, model.GoalUpdate{
		GoalText:  req.GoalText,
		GoalLevel: req.GoalLevel,
		Notes:     req.Notes,
		ImageURL:  req.ImageURL,
	})
	if err != nil {
		r.handleGoalError(c, err, "update goal")
		return
	}

	c.JSON(http.StatusOK, toGoalResponse(goal))
}

func (r *goalRoutes) CompleteGoal(c *gin.Context) {
	id, ok := parseTelegramID(c)
	if !ok {
		return
	}
	goalID, ok := parseGoalID(c)
	if !ok {
		return
	}

	goal, err := r.gs.CompleteGoal(c.Request.Context(), id, goalID)
	if err != nil {
		r.handleGoalError(c, err, "complete goal")
		return
	}

	c.JSON(http.StatusOK, toGoalResponse(goal))
}

func (r *goalRoutes) NotifyGoal(c *gin.Context) {
	id, ok := parseTelegramID(c)
	if !ok {
		return
	}
	goalID, ok := parseGoalID(c)
	if !ok {
		return
	}

	if err := r.gs.NotifyGoal(c.Request.Context(), id, goalID); err != nil {
		r.handleGoalError(c, err, "notify goal")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
