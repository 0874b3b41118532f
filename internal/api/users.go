package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"lifequest_miniapp/internal/model"
	"lifequest_miniapp/internal/service"
	"lifequest_miniapp/pkg/auth"
	"lifequest_miniapp/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
)

type userRoutes struct {
	us service.UserServiceI
	a  *auth.TelegramAuth
}

func NewUserRoutes(handler *gin.RouterGroup, us service.UserServiceI, a *auth.TelegramAuth) {
	r := &userRoutes{us: us, a: a}
	h := handler.Group("/users")
	h.Use(a.TelegramAuthMiddleware())
	{
		h.POST("/register", r.RegisterUser)
		h.GET("/:telegram_id", r.GetUser)
		h.POST("/:telegram_id/onboarding", r.CompleteOnboarding)
		h.GET("/:telegram_id/progress", r.GetProgress)
		h.POST("/:telegram_id/pro/activate", r.ActivatePro)
		h.POST("/:telegram_id/branches/add", r.AddBranch)
		h.DELETE("/by-username/:username", r.DeleteUserByUsername)
	}
}

func parseTelegramID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("telegram_id"), 10, 64)
	if err != nil {
		logger.Logger().Error("failed to parse telegram_id", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid telegram_id"})
		return 0, false
	}
	return id, true
}

type RegisterUserRequest struct {
	TelegramID   int64   `json:"tg_id" binding:"required"`
	Username     string  `json:"username"`
	FirstName    string  `json:"first_name"`
	LastName     string  `json:"last_name"`
	LanguageCode string  `json:"language_code"`
	AvatarURL    *string `json:"avatar_url"`
}

type UserResponse struct {
	ID             string     `json:"id"`
	TelegramID     int64      `json:"tg_id"`
	Username       string     `json:"username"`
	FirstName      string     `json:"first_name"`
	Age            *int       `json:"age"`
	Gender         *string    `json:"gender"`
	ActiveBranches []string   `json:"active_branches"`
	IsPro          bool       `json:"is_pro"`
	Strength       int        `json:"strength"`
	Health         int        `json:"health"`
	Intellect      int        `json:"intellect"`
	Agility        int        `json:"agility"`
	Confidence     int        `json:"confidence"`
	Stability      int        `json:"stability"`
	AvatarURL      *string    `json:"avatar_url"`
	LastActiveAt   *time.Time `json:"last_active_at,omitempty"`
}

func toUserResponse(user *model.User) UserResponse {
	resp := UserResponse{
		ID:             user.ID.String(),
		TelegramID:     user.TelegramID,
		Username:       user.Username,
		FirstName:      user.FirstName,
		Age:            user.Age,
		Gender:         user.Gender,
		ActiveBranches: user.ActiveBranches,
		IsPro:          user.IsPro,
		Strength:       user.Stats.Strength,
		Health:         user.Stats.Health,
		Intellect:      user.Stats.Intellect,
		Agility:        user.Stats.Agility,
		Confidence:     user.Stats.Confidence,
		Stability:      user.Stats.Stability,
		AvatarURL:      user.AvatarURL,
	}
	if !user.LastActiveAt.IsZero() {
		resp.LastActiveAt = &user.LastActiveAt
	}
	return resp
}

func (r *userRoutes) RegisterUser(c *gin.Context) {
	log := logger.Logger()

	var req RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user, err := r.us.RegisterUser(c.Request.Context(), service.RegisterInput{
		TelegramID:   req.TelegramID,
		Username:     req.Username,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		LanguageCode: req.LanguageCode,
		AvatarURL:    req.AvatarURL,
	})
	if err != nil {
		log.Error("failed to register user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register user"})
		return
	}

	c.JSON(http.StatusOK, toUserResponse(user))
}

func (r *userRoutes) GetUser(c *gin.Context) {
	log := logger.Logger()

	id, ok := parseTelegramID(c)
	if !ok {
		return
	}

	user, err := r.us.GetUserByTelegramID(c.Request.Context(), id)
	if err != nil {
		log.Error("failed to get user", zap.Error(err))
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get user"})
		return
	}

	c.JSON(http.StatusOK, toUserResponse(user))
}

type OnboardingRequest struct {
	Age       *int    `json:"age"`
	Gender    *string `json:"gender"`
	Branch    string  `json:"branch"`
	GoalText  *string `json:"goal_text"`
	GoalLevel int     `json:"goal_level"`
	SelfieURL *string `json:"selfie_url"`
}

func (r *userRoutes) CompleteOnboarding(c *gin.Context) {
	log := logger.Logger()

	id, ok := parseTelegramID(c)
	if !ok {
		return
	}

	var req OnboardingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	err := r.us.CompleteOnboarding(c.Request.Context(), id, model.OnboardingData{
		Age:       req.Age,
		Gender:    req.Gender,
		Branch:    req.Branch,
		GoalText:  req.GoalText,
		GoalLevel: req.GoalLevel,
		SelfieURL: req.SelfieURL,
	})
	if err != nil {
		log.Error("failed to complete onboarding", zap.Error(err))
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to complete onboarding"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Onboarding completed"})
}

type ProgressResponse struct {
	CurrentLevel int     `json:"current_level"`
	CurrentXP    int     `json:"current_xp"`
	NextLevelXP  int     `json:"next_level_xp"`
	TotalXP      int     `json:"total_xp"`
	GoalText     *string `json:"goal_text"`
	GoalLevel    int     `json:"goal_level"`
	GoalProgress int     `json:"goal_progress"`
}

func (r *userRoutes) GetProgress(c *gin.Context) {
	log := logger.Logger()

	id, ok := parseTelegramID(c)
	if !ok {
		return
	}

	progress, err := r.us.GetProgress(c.Request.Context(), id)
	if err != nil {
		log.Error("failed to get progress", zap.Error(err))
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get progress"})
		return
	}

	c.JSON(http.StatusOK, ProgressResponse{
		CurrentLevel: progress.CurrentLevel,
		CurrentXP:    progress.CurrentXP,
		NextLevelXP:  progress.NextLevelXP,
		TotalXP:      progress.TotalXP,
		GoalText:     progress.GoalText,
		GoalLevel:    progress.GoalLevel,
		GoalProgress: progress.GoalProgress(),
	})
}

func (r *userRoutes) ActivatePro(c *gin.Context) {
	log := logger.Logger()

	id, ok := parseTelegramID(c)
	if !ok {
		return
	}

	if err := r.us.ActivatePro(c.Request.Context(), id); err != nil {
		log.Error("failed to activate pro", zap.Error(err))
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to activate pro"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "PRO activated"})
}

type AddBranchRequest struct {
	Branch string `json:"branch" binding:"required"`
}

func (r *userRoutes) AddBranch(c *gin.Context) {
	log := logger.Logger()

	id, ok := parseTelegramID(c)
	if !ok {
		return
	}

	var req AddBranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	branches, err := r.us.AddBranch(c.Request.Context(), id, req.Branch)
	if err != nil {
		log.Error("failed to add branch", zap.Error(err))
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		case errors.Is(err, service.ErrProRequired):
			c.JSON(http.StatusForbidden, gin.H{"error": "PRO subscription required"})
		case errors.Is(err, service.ErrInvalidBranch):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid branch"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add branch"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "active_branches": branches})
}

// DeleteUserByUsername exists for test cleanup only.
func (r *userRoutes) DeleteUserByUsername(c *gin.Context) {
	log := logger.Logger()

	username := c.Param("username")
	telegramID, err := r.us.DeleteUserByUsername(c.Request.Context(), username)
	if err != nil {
		log.Error("failed to delete user", zap.Error(err))
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"telegram_id": telegramID,
	})
}
