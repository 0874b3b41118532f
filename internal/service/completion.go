package service

import (
	"context"
	"errors"
	"fmt"

	"lifequest_miniapp/internal/model"
	"lifequest_miniapp/internal/notify"
	"lifequest_miniapp/internal/repository"
	"lifequest_miniapp/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// avatarLevelInterval: the hero avatar is regenerated every time the user
// reaches a level that is an exact multiple of this.
const avatarLevelInterval = 5

type QuestService struct {
	users    UserRepository
	progress ProgressRepository
	quests   QuestRepository
	goals    GoalRepository
	notifier Notifier
	avatars  AvatarTrigger
	effects  EffectDispatcher
	events   EventPublisher
}

func NewQuestService(
	users UserRepository,
	progress ProgressRepository,
	quests QuestRepository,
	goals GoalRepository,
	notifier Notifier,
	avatars AvatarTrigger,
	effects EffectDispatcher,
	events EventPublisher,
) *QuestService {
	return &QuestService{
		users:    users,
		progress: progress,
		quests:   quests,
		goals:    goals,
		notifier: notifier,
		avatars:  avatars,
		effects:  effects,
		events:   events,
	}
}

func (s *QuestService) GetUserQuests(ctx context.Context, telegramID int64) ([]model.QuestStatus, error) {
	user, err := s.users.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	quests, err := s.quests.GetDailyQuests(ctx, questBranches(user.ActiveBranches))
	if err != nil {
		return nil, fmt.Errorf("failed to get daily quests: %w", err)
	}
	ordinary, _ := PartitionDailyQuests(quests)

	completed, err := s.quests.GetCompletedQuestIDs(ctx, user.ID, todayUTC())
	if err != nil {
		return nil, fmt.Errorf("failed to get completed quests: %w", err)
	}

	statuses := make([]model.QuestStatus, len(ordinary))
	for i, q := range ordinary {
		_, done := completed[q.ID]
		statuses[i] = model.QuestStatus{Quest: *q, IsCompleted: done}
	}

	return statuses, nil
}

func (s *QuestService) GetDailyXPSummary(ctx context.Context, telegramID int64) (*model.DailyXPSummary, error) {
	user, err := s.users.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	quests, err := s.quests.GetDailyQuests(ctx, questBranches(user.ActiveBranches))
	if err != nil {
		return nil, fmt.Errorf("failed to get daily quests: %w", err)
	}
	ordinary, bonus := PartitionDailyQuests(quests)

	summary := &model.DailyXPSummary{DailyQuestCount: len(ordinary)}
	for _, q := range ordinary {
		summary.DailyXP += q.XPReward
	}
	if bonus != nil {
		summary.BonusXP = bonus.XPReward
		summary.DailyXP += bonus.XPReward
	}

	return summary, nil
}

// CompleteQuest runs the full completion workflow: record the completion,
// award XP, grow stats on level-up, evaluate the bonus quest, then notify
// newly achieved goals. Steps after the completion record commits never
// abort the request; notifier and avatar failures are logged and swallowed.
func (s *QuestService) CompleteQuest(ctx context.Context, telegramID int64, questID uuid.UUID) (*model.CompletionResult, error) {
	log := logger.Logger()

	user, err := s.users.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	today := todayUTC()

	// Fast-path report before touching the catalog. The atomic insert below
	// remains the real guard against a concurrent double-tap.
	completed, err := s.quests.GetCompletedQuestIDs(ctx, user.ID, today)
	if err != nil {
		return nil, fmt.Errorf("failed to get completed quests: %w", err)
	}
	if _, done := completed[questID]; done {
		return nil, ErrAlreadyCompletedToday
	}

	quest, err := s.quests.GetQuestByID(ctx, questID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrQuestNotFound
		}
		return nil, fmt.Errorf("failed to get quest: %w", err)
	}

	inserted, err := s.quests.InsertCompletionIfAbsent(ctx, user.ID, questID, today)
	if err != nil {
		return nil, fmt.Errorf("failed to record completion: %w", err)
	}
	if !inserted {
		return nil, ErrAlreadyCompletedToday
	}

	result := &model.CompletionResult{XPGained: quest.XPReward}

	result.LeveledUp, result.NewLevel, err = s.awardAndGrow(ctx, user, quest.XPReward)
	if err != nil {
		return nil, err
	}

	// The bonus predicate is evaluated fresh: the completion just recorded
	// may have been the last ordinary daily quest.
	allQuests, err := s.quests.GetDailyQuests(ctx, questBranches(user.ActiveBranches))
	if err != nil {
		return nil, fmt.Errorf("failed to get daily quests: %w", err)
	}
	ordinary, bonus := PartitionDailyQuests(allQuests)

	completed, err = s.quests.GetCompletedQuestIDs(ctx, user.ID, today)
	if err != nil {
		return nil, fmt.Errorf("failed to get completed quests: %w", err)
	}

	if BonusUnlocked(ordinary, bonus, completed) {
		bonusInserted, err := s.quests.InsertCompletionIfAbsent(ctx, user.ID, bonus.ID, today)
		if err != nil {
			return nil, fmt.Errorf("failed to record bonus completion: %w", err)
		}
		if bonusInserted {
			result.BonusAwarded = true
			result.BonusXP = bonus.XPReward

			bonusLeveledUp, bonusLevel, err := s.awardAndGrow(ctx, user, bonus.XPReward)
			if err != nil {
				return nil, err
			}
			result.BonusLeveledUp = bonusLeveledUp
			result.BonusNewLevel = &bonusLevel
		}
	}

	effectiveLevel := result.EffectiveLevel()

	openGoals, err := s.goals.GetOpenGoals(ctx, user.ID)
	if err != nil {
		log.Error("failed to load open goals", zap.Error(err), zap.Int64("telegram_id", telegramID))
	} else {
		result.AchievedGoals = s.notifyAchievedGoals(ctx, user, openGoals, effectiveLevel)
	}

	s.publishCompletion(user.TelegramID, quest, result)

	return result, nil
}

// awardAndGrow is the per-award leg of the workflow: atomic XP award, then
// stat growth and the avatar trigger when a level milestone is crossed.
func (s *QuestService) awardAndGrow(ctx context.Context, user *model.User, amount int) (bool, int, error) {
	leveledUp, newLevel, err := s.progress.AwardXP(ctx, user.ID, amount)
	if err != nil {
		return false, 0, fmt.Errorf("failed to award xp: %w", err)
	}

	if !leveledUp {
		return false, newLevel, nil
	}

	delta := StatGrowthDelta(user.ActiveBranches, newLevel)
	if err := s.users.UpdateStats(ctx, user.ID, delta); err != nil {
		return false, 0, fmt.Errorf("failed to update stats: %w", err)
	}

	if newLevel%avatarLevelInterval == 0 {
		job := notify.AvatarJob{
			UserID:     user.ID.String(),
			TelegramID: user.TelegramID,
			SelfieURL:  user.SelfieURL,
			Branch:     user.PrimaryBranch(),
			Gender:     user.Gender,
			Age:        user.Age,
			Level:      newLevel,
		}
		s.effects.Go("avatar_generation", func(ctx context.Context) error {
			return s.avatars.Dispatch(ctx, job)
		})
	}

	return true, newLevel, nil
}

// notifyAchievedGoals fires a congratulation for every goal whose target
// level was just reached and marks it notified immediately, even when
// delivery fails: a goal is congratulated at most once, never twice.
func (s *QuestService) notifyAchievedGoals(ctx context.Context, user *model.User, openGoals []*model.Goal, effectiveLevel int) []*model.Goal {
	log := logger.Logger()

	achieved := FindNewlyAchieved(openGoals, effectiveLevel)
	for _, goal := range achieved {
		text := notify.GoalAchievedMessage(effectiveLevel, goal.GoalText)
		chatID := user.TelegramID
		s.effects.Go("goal_notification", func(ctx context.Context) error {
			return s.notifier.Send(ctx, chatID, text)
		})

		if err := s.goals.MarkGoalNotified(ctx, goal.ID, nowUTC()); err != nil {
			log.Error("failed to mark goal notified",
				zap.Error(err),
				zap.String("goal_id", goal.ID.String()))
		}
	}

	return achieved
}

func (s *QuestService) publishCompletion(telegramID int64, quest *model.Quest, result *model.CompletionResult) {
	if s.events == nil {
		return
	}

	s.events.Publish(telegramID, Event{
		Type: "quest_completed",
		Data: map[string]any{
			"quest_id":  quest.ID.String(),
			"title":     quest.Title,
			"xp_gained": result.XPGained,
		},
	})

	if result.LeveledUp || result.BonusLeveledUp {
		s.events.Publish(telegramID, Event{
			Type: "level_up",
			Data: map[string]any{
				"new_level": result.EffectiveLevel(),
			},
		})
	}
}
