package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"lifequest_miniapp/internal/model"
	"lifequest_miniapp/internal/notify"
	"lifequest_miniapp/internal/repository"
	"lifequest_miniapp/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type RegisterInput struct {
	TelegramID   int64
	Username     string
	FirstName    string
	LastName     string
	LanguageCode string
	AvatarURL    *string
}

type UserService struct {
	users    UserRepository
	progress ProgressRepository
	goals    GoalRepository
	avatars  AvatarTrigger
	effects  EffectDispatcher
}

func NewUserService(users UserRepository, progress ProgressRepository, goals GoalRepository, avatars AvatarTrigger, effects EffectDispatcher) *UserService {
	return &UserService{
		users:    users,
		progress: progress,
		goals:    goals,
		avatars:  avatars,
		effects:  effects,
	}
}

// RegisterUser creates the user with default branch, stats and a fresh
// progress record, or returns the existing one.
func (s *UserService) RegisterUser(ctx context.Context, input RegisterInput) (*model.User, error) {
	existing, err := s.users.GetUserByTelegramID(ctx, input.TelegramID)
	if err == nil {
		// Drop avatar references that did not come from our own storage.
		if existing.AvatarURL != nil && !ownAvatarURL(*existing.AvatarURL) {
			if err := s.users.SetAvatarURL(ctx, existing.ID, nil); err != nil {
				return nil, fmt.Errorf("failed to clear avatar url: %w", err)
			}
			existing.AvatarURL = nil
		}
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	user := &model.User{
		ID:             uuid.New(),
		TelegramID:     input.TelegramID,
		Username:       input.Username,
		FirstName:      input.FirstName,
		LastName:       input.LastName,
		LanguageCode:   input.LanguageCode,
		ActiveBranches: []string{model.DefaultBranch},
		IsPro:          false,
		Stats:          model.DefaultStats(),
		AvatarURL:      sanitizeAvatarURL(input.AvatarURL),
		CreatedAt:      nowUTC(),
		LastActiveAt:   nowUTC(),
	}
	if err := user.Stats.Validate(); err != nil {
		return nil, err
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	return user, nil
}

func (s *UserService) GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	user, err := s.users.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := s.users.TouchLastActive(ctx, telegramID); err != nil {
		logger.Logger().Warn("failed to touch last active", zap.Error(err), zap.Int64("telegram_id", telegramID))
	}

	return user, nil
}

// CompleteOnboarding stores the hero profile, sets the initial goal and
// dispatches the first avatar generation.
func (s *UserService) CompleteOnboarding(ctx context.Context, telegramID int64, data model.OnboardingData) error {
	user, err := s.users.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if data.Branch == "" {
		data.Branch = model.DefaultBranch
	}
	if data.GoalLevel < 1 {
		data.GoalLevel = model.DefaultGoalLevel
	}

	if err := s.users.UpdateOnboarding(ctx, telegramID, data); err != nil {
		return fmt.Errorf("failed to update onboarding data: %w", err)
	}

	if err := s.progress.SetProgressGoal(ctx, user.ID, data.GoalText, data.GoalLevel); err != nil {
		return fmt.Errorf("failed to set progress goal: %w", err)
	}

	if data.GoalText != nil {
		goal := &model.Goal{
			ID:        uuid.New(),
			UserID:    user.ID,
			GoalText:  *data.GoalText,
			GoalLevel: data.GoalLevel,
			CreatedAt: nowUTC(),
		}
		if err := s.goals.CreateGoal(ctx, goal); err != nil {
			return fmt.Errorf("failed to create initial goal: %w", err)
		}
	}

	job := notify.AvatarJob{
		UserID:     user.ID.String(),
		TelegramID: telegramID,
		SelfieURL:  data.SelfieURL,
		Branch:     data.Branch,
		Gender:     data.Gender,
		Age:        data.Age,
		Level:      1,
	}
	s.effects.Go("avatar_generation", func(ctx context.Context) error {
		return s.avatars.Dispatch(ctx, job)
	})

	return nil
}

func (s *UserService) GetProgress(ctx context.Context, telegramID int64) (*model.Progress, error) {
	user, err := s.users.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	progress, err := s.progress.GetProgress(ctx, user.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}
	return progress, nil
}

func (s *UserService) ActivatePro(ctx context.Context, telegramID int64) error {
	if err := s.users.SetPro(ctx, telegramID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to activate pro: %w", err)
	}
	return nil
}

// AddBranch appends a branch to the user's active set, preserving order.
// Multiple simultaneous branches are a PRO entitlement.
func (s *UserService) AddBranch(ctx context.Context, telegramID int64, branch string) ([]string, error) {
	if branch == "" {
		return nil, ErrInvalidBranch
	}

	user, err := s.users.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !user.IsPro {
		return nil, ErrProRequired
	}
	if user.HasBranch(branch) {
		return user.ActiveBranches, nil
	}

	branches, err := s.users.AddBranch(ctx, telegramID, branch)
	if err != nil {
		return nil, fmt.Errorf("failed to add branch: %w", err)
	}
	return branches, nil
}

// SetGeneratedAvatar stores the avatar delivered by the generation pipeline
// and records the generation for auditing.
func (s *UserService) SetGeneratedAvatar(ctx context.Context, userID uuid.UUID, level int, avatarURL string) error {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if err := s.users.SetAvatarURL(ctx, user.ID, &avatarURL); err != nil {
		return fmt.Errorf("failed to set avatar url: %w", err)
	}

	gen := &model.AvatarGeneration{
		ID:        uuid.New(),
		UserID:    user.ID,
		Level:     level,
		AvatarURL: avatarURL,
		Status:    "completed",
		CreatedAt: nowUTC(),
	}
	if err := s.users.InsertAvatarGeneration(ctx, gen); err != nil {
		return fmt.Errorf("failed to record avatar generation: %w", err)
	}
	return nil
}

func (s *UserService) DeleteUserByUsername(ctx context.Context, username string) (int64, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("failed to get user: %w", err)
	}

	if err := s.users.DeleteUser(ctx, user.ID); err != nil {
		return 0, fmt.Errorf("failed to delete user: %w", err)
	}
	return user.TelegramID, nil
}

// ownAvatarURL accepts only avatar references hosted in our storage.
func ownAvatarURL(url string) bool {
	return strings.Contains(url, "supabase")
}

func sanitizeAvatarURL(url *string) *string {
	if url != nil && ownAvatarURL(*url) {
		return url
	}
	return nil
}
