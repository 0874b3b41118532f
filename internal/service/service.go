package service

import (
	"context"
	"errors"
	"time"

	"lifequest_miniapp/internal/model"
	"lifequest_miniapp/internal/notify"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound          = errors.New("user not found")
	ErrQuestNotFound         = errors.New("quest not found")
	ErrGoalNotFound          = errors.New("goal not found")
	ErrAlreadyCompletedToday = errors.New("quest already completed today")
	ErrProRequired           = errors.New("pro subscription required")
	ErrInvalidBranch         = errors.New("branch must not be empty")
)

type Service struct {
	*UserService
	*QuestService
	*GoalService
}

func NewService(userService *UserService, questService *QuestService, goalService *GoalService) *Service {
	return &Service{
		UserService:  userService,
		QuestService: questService,
		GoalService:  goalService,
	}
}

type UserServiceI interface {
	RegisterUser(ctx context.Context, input RegisterInput) (*model.User, error)
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	CompleteOnboarding(ctx context.Context, telegramID int64, data model.OnboardingData) error
	GetProgress(ctx context.Context, telegramID int64) (*model.Progress, error)
	ActivatePro(ctx context.Context, telegramID int64) error
	AddBranch(ctx context.Context, telegramID int64, branch string) ([]string, error)
	SetGeneratedAvatar(ctx context.Context, userID uuid.UUID, level int, avatarURL string) error
	DeleteUserByUsername(ctx context.Context, username string) (int64, error)
}

type QuestServiceI interface {
	GetUserQuests(ctx context.Context, telegramID int64) ([]model.QuestStatus, error)
	GetDailyXPSummary(ctx context.Context, telegramID int64) (*model.DailyXPSummary, error)
	CompleteQuest(ctx context.Context, telegramID int64, questID uuid.UUID) (*model.CompletionResult, error)
}

type GoalServiceI interface {
	GetGoals(ctx context.Context, telegramID int64) ([]*model.Goal, error)
	CreateGoal(ctx context.Context, telegramID int64, goal *model.Goal) (*model.Goal, error)
	UpdateGoal(ctx context.Context, telegramID int64, goalID uuid.UUID, upd model.GoalUpdate) (*model.Goal, error)
	CompleteGoal(ctx context.Context, telegramID int64, goalID uuid.UUID) (*model.Goal, error)
	NotifyGoal(ctx context.Context, telegramID int64, goalID uuid.UUID) error
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	GetUserByID(ctx context.Context, userID uuid.UUID) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	UpdateOnboarding(ctx context.Context, telegramID int64, data model.OnboardingData) error
	UpdateStats(ctx context.Context, userID uuid.UUID, delta model.Stats) error
	SetPro(ctx context.Context, telegramID int64) error
	AddBranch(ctx context.Context, telegramID int64, branch string) ([]string, error)
	SetAvatarURL(ctx context.Context, userID uuid.UUID, avatarURL *string) error
	TouchLastActive(ctx context.Context, telegramID int64) error
	GetActiveUsersSince(ctx context.Context, since time.Time) ([]*model.User, error)
	DeleteUser(ctx context.Context, userID uuid.UUID) error
	InsertAvatarGeneration(ctx context.Context, gen *model.AvatarGeneration) error
}

type ProgressRepository interface {
	GetProgress(ctx context.Context, userID uuid.UUID) (*model.Progress, error)
	AwardXP(ctx context.Context, userID uuid.UUID, amount int) (leveledUp bool, newLevel int, err error)
	SetProgressGoal(ctx context.Context, userID uuid.UUID, goalText *string, goalLevel int) error
}

type QuestRepository interface {
	GetDailyQuests(ctx context.Context, branches []string) ([]*model.Quest, error)
	GetQuestByID(ctx context.Context, questID uuid.UUID) (*model.Quest, error)
	GetCompletedQuestIDs(ctx context.Context, userID uuid.UUID, date time.Time) (map[uuid.UUID]struct{}, error)
	InsertCompletionIfAbsent(ctx context.Context, userID, questID uuid.UUID, date time.Time) (bool, error)
}

type GoalRepository interface {
	CreateGoal(ctx context.Context, goal *model.Goal) error
	GetGoals(ctx context.Context, userID uuid.UUID) ([]*model.Goal, error)
	GetGoalByID(ctx context.Context, userID, goalID uuid.UUID) (*model.Goal, error)
	GetOpenGoals(ctx context.Context, userID uuid.UUID) ([]*model.Goal, error)
	UpdateGoal(ctx context.Context, userID, goalID uuid.UUID, upd model.GoalUpdate) (*model.Goal, error)
	CompleteGoal(ctx context.Context, userID, goalID uuid.UUID, at time.Time) (*model.Goal, error)
	MarkGoalNotified(ctx context.Context, goalID uuid.UUID, at time.Time) error
}

// Notifier delivers a best-effort chat message. The workflow never consumes
// its result beyond logging.
type Notifier interface {
	Send(ctx context.Context, chatID int64, text string) error
}

// AvatarTrigger dispatches an external avatar-generation job.
type AvatarTrigger interface {
	Dispatch(ctx context.Context, job notify.AvatarJob) error
}

// EffectDispatcher runs outbound side effects detached from the request:
// the caller never waits, failures are logged, cancellation of the parent
// request does not cancel an already-dispatched effect.
type EffectDispatcher interface {
	Go(name string, fn func(ctx context.Context) error)
}

// EventPublisher pushes live progress events to connected mini-app clients.
type EventPublisher interface {
	Publish(telegramID int64, event Event)
}

type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// todayUTC is the completion-day boundary: UTC midnight.
func todayUTC() time.Time {
	return nowUTC().Truncate(24 * time.Hour)
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
