package api

import (
	"errors"
	"net/http"

	"lifequest_miniapp/internal/model"
	"lifequest_miniapp/internal/service"
	"lifequest_miniapp/pkg/auth"
	"lifequest_miniapp/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type questRoutes struct {
	qs service.QuestServiceI
	a  *auth.TelegramAuth
}

func NewQuestRoutes(handler *gin.RouterGroup, qs service.QuestServiceI, a *auth.TelegramAuth) {
	r := &questRoutes{qs: qs, a: a}
	h := handler.Group("/users/:telegram_id")
	h.Use(a.TelegramAuthMiddleware())
	{
		h.GET("/quests", r.GetQuests)
		h.POST("/quests/complete", r.CompleteQuest)
		h.GET("/daily-xp", r.GetDailyXP)
	}
}

type QuestResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Branch      string `json:"branch"`
	XPReward    int    `json:"xp_reward"`
	Category    string `json:"category"`
	IsDaily     bool   `json:"is_daily"`
	IsCompleted bool   `json:"is_completed"`
}

func (r *questRoutes) GetQuests(c *gin.Context) {
	log := logger.Logger()

	id, ok := parseTelegramID(c)
	if !ok {
		return
	}

	quests, err := r.qs.GetUserQuests(c.Request.Context(), id)
	if err != nil {
		log.Error("failed to get quests", zap.Error(err))
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get quests"})
		return
	}

	out := make([]QuestResponse, len(quests))
	for i, q := range quests {
		out[i] = QuestResponse{
			ID:          q.ID.String(),
			Title:       q.Title,
			Description: q.Description,
			Branch:      q.Branch,
			XPReward:    q.XPReward,
			Category:    q.Category,
			IsDaily:     q.IsDaily,
			IsCompleted: q.IsCompleted,
		}
	}

	c.JSON(http.StatusOK, out)
}

type CompleteQuestRequest struct {
	QuestID string `json:"quest_id" binding:"required"`
}

type AchievedGoalResponse struct {
	ID        string `json:"id"`
	GoalText  string `json:"goal_text"`
	GoalLevel int    `json:"goal_level"`
}

type CompleteQuestResponse struct {
	Success        bool                   `json:"success"`
	XPGained       int                    `json:"xp_gained"`
	LeveledUp      bool                   `json:"leveled_up"`
	NewLevel       int                    `json:"new_level"`
	BonusAwarded   bool                   `json:"bonus_awarded"`
	BonusXP        int                    `json:"bonus_xp"`
	BonusLeveledUp bool                   `json:"bonus_leveled_up"`
	BonusNewLevel  *int                   `json:"bonus_new_level"`
	AchievedGoals  []AchievedGoalResponse `json:"achieved_goals"`
}

func (r *questRoutes) CompleteQuest(c *gin.Context) {
	log := logger.Logger()

	id, ok := parseTelegramID(c)
	if !ok {
		return
	}

	var req CompleteQuestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	questID, err := uuid.Parse(req.QuestID)
	if err != nil {
		log.Error("failed to parse quest_id", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quest_id"})
		return
	}

	result, err := r.qs.CompleteQuest(c.Request.Context(), id, questID)
	if err != nil {
		log.Error("failed to complete quest",
			zap.Error(err),
			zap.Int64("telegram_id", id),
			zap.String("quest_id", req.QuestID))
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		case errors.Is(err, service.ErrQuestNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "quest not found"})
		case errors.Is(err, service.ErrAlreadyCompletedToday):
			c.JSON(http.StatusConflict, gin.H{"error": "quest already completed today"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to complete quest"})
		}
		return
	}

	c.JSON(http.StatusOK, toCompleteQuestResponse(result))
}

func toCompleteQuestResponse(result *model.CompletionResult) CompleteQuestResponse {
	achieved := make([]AchievedGoalResponse, len(result.AchievedGoals))
	for i, goal := range result.AchievedGoals {
		achieved[i] = AchievedGoalResponse{
			ID:        goal.ID.String(),
			GoalText:  goal.GoalText,
			GoalLevel: goal.GoalLevel,
		}
	}

	return CompleteQuestResponse{
		Success:        true,
		XPGained:       result.XPGained,
		LeveledUp:      result.LeveledUp,
		NewLevel:       result.NewLevel,
		BonusAwarded:   result.BonusAwarded,
		BonusXP:        result.BonusXP,
		BonusLeveledUp: result.BonusLeveledUp,
		BonusNewLevel:  result.BonusNewLevel,
		AchievedGoals:  achieved,
	}
}

func (r *questRoutes) GetDailyXP(c *gin.Context) {
	log := logger.Logger()

	id, ok := parseTelegramID(c)
	if !ok {
		return
	}

	summary, err := r.qs.GetDailyXPSummary(c.Request.Context(), id)
	if err != nil {
		log.Error("failed to get daily xp", zap.Error(err))
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get daily xp"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"daily_xp":          summary.DailyXP,
		"daily_quest_count": summary.DailyQuestCount,
		"bonus_xp":          summary.BonusXP,
	})
}
