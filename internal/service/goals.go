package service

import (
	"context"
	"errors"
	"fmt"

	"lifequest_miniapp/internal/model"
	"lifequest_miniapp/internal/notify"
	"lifequest_miniapp/internal/repository"

	"github.com/google/uuid"
)

// FindNewlyAchieved selects the open goals whose target level has been
// reached and that have never been congratulated. A goal already carrying
// notified_at is never returned again.
func FindNewlyAchieved(openGoals []*model.Goal, effectiveLevel int) []*model.Goal {
	var achieved []*model.Goal
	for _, goal := range openGoals {
		if goal.AchievedAt(effectiveLevel) {
			achieved = append(achieved, goal)
		}
	}
	return achieved
}

type GoalService struct {
	users    UserRepository
	goals    GoalRepository
	notifier Notifier
	effects  EffectDispatcher
}

func NewGoalService(users UserRepository, goals GoalRepository, notifier Notifier, effects EffectDispatcher) *GoalService {
	return &GoalService{
		users:    users,
		goals:    goals,
		notifier: notifier,
		effects:  effects,
	}
}

func (s *GoalService) resolveUser(ctx context.Context, telegramID int64) (*model.User, error) {
	user, err := s.users.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *GoalService) GetGoals(ctx context.Context, telegramID int64) ([]*model.Goal, error) {
	user, err := s.resolveUser(ctx, telegramID)
	if err != nil {
		return nil, err
	}

	goals, err := s.goals.GetGoals(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get goals: %w", err)
	}
	return goals, nil
}

func (s *GoalService) CreateGoal(ctx context.Context, telegramID int64, goal *model.Goal) (*model.Goal, error) {
	user, err := s.resolveUser(ctx, telegramID)
	if err != nil {
		return nil, err
	}

	goal.ID = uuid.New()
	goal.UserID = user.ID
	goal.CreatedAt = nowUTC()
	if goal.GoalLevel < 1 {
		goal.GoalLevel = model.DefaultGoalLevel
	}

	if err := s.goals.CreateGoal(ctx, goal); err != nil {
		return nil, fmt.Errorf("failed to create goal: %w", err)
	}
	return goal, nil
}

func (s *GoalService) UpdateGoal(ctx context.Context, telegramID int64, goalID uuid.UUID, upd model.GoalUpdate) (*model.Goal, error) {
	user, err := s.resolveUser(ctx, telegramID)
	if err != nil {
		return nil, err
	}

	goal, err := s.goals.UpdateGoal(ctx, user.ID, goalID, upd)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrGoalNotFound
		}
		return nil, fmt.Errorf("failed to update goal: %w", err)
	}
	return goal, nil
}

func (s *GoalService) CompleteGoal(ctx context.Context, telegramID int64, goalID uuid.UUID) (*model.Goal, error) {
	user, err := s.resolveUser(ctx, telegramID)
	if err != nil {
		return nil, err
	}

	goal, err := s.goals.CompleteGoal(ctx, user.ID, goalID, nowUTC())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrGoalNotFound
		}
		return nil, fmt.Errorf("failed to complete goal: %w", err)
	}
	return goal, nil
}

// NotifyGoal sends the congratulation for a single goal on demand and marks
// it notified. Marking happens regardless of delivery outcome.
func (s *GoalService) NotifyGoal(ctx context.Context, telegramID int64, goalID uuid.UUID) error {
	user, err := s.resolveUser(ctx, telegramID)
	if err != nil {
		return err
	}

	goal, err := s.goals.GetGoalByID(ctx, user.ID, goalID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrGoalNotFound
		}
		return fmt.Errorf("failed to get goal: %w", err)
	}

	text := notify.GoalAchievedMessage(goal.GoalLevel, goal.GoalText)
	chatID := user.TelegramID
	s.effects.Go("goal_notification", func(ctx context.Context) error {
		return s.notifier.Send(ctx, chatID, text)
	})

	if err := s.goals.MarkGoalNotified(ctx, goal.ID, nowUTC()); err != nil {
		return fmt.Errorf("failed to mark goal notified: %w", err)
	}
	return nil
}
