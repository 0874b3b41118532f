package mocks

import (
	"context"
	"time"

	"lifequest_miniapp/internal/model"
	"lifequest_miniapp/internal/notify"
	"lifequest_miniapp/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateUser(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) GetUserByID(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) UpdateOnboarding(ctx context.Context, telegramID int64, data model.OnboardingData) error {
	args := m.Called(ctx, telegramID, data)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateStats(ctx context.Context, userID uuid.UUID, delta model.Stats) error {
	args := m.Called(ctx, userID, delta)
	return args.Error(0)
}

func (m *MockUserRepository) SetPro(ctx context.Context, telegramID int64) error {
	args := m.Called(ctx, telegramID)
	return args.Error(0)
}

func (m *MockUserRepository) AddBranch(ctx context.Context, telegramID int64, branch string) ([]string, error) {
	args := m.Called(ctx, telegramID, branch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockUserRepository) SetAvatarURL(ctx context.Context, userID uuid.UUID, avatarURL *string) error {
	args := m.Called(ctx, userID, avatarURL)
	return args.Error(0)
}

func (m *MockUserRepository) TouchLastActive(ctx context.Context, telegramID int64) error {
	args := m.Called(ctx, telegramID)
	return args.Error(0)
}

func (m *MockUserRepository) GetActiveUsersSince(ctx context.Context, since time.Time) ([]*model.User, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.User), args.Error(1)
}

func (m *MockUserRepository) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockUserRepository) InsertAvatarGeneration(ctx context.Context, gen *model.AvatarGeneration) error {
	args := m.Called(ctx, gen)
	return args.Error(0)
}

type MockProgressRepository struct {
	mock.Mock
}

func (m *MockProgressRepository) GetProgress(ctx context.Context, userID uuid.UUID) (*model.Progress, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Progress), args.Error(1)
}

func (m *MockProgressRepository) AwardXP(ctx context.Context, userID uuid.UUID, amount int) (bool, int, error) {
	args := m.Called(ctx, userID, amount)
	return args.Bool(0), args.Int(1), args.Error(2)
}

func (m *MockProgressRepository) SetProgressGoal(ctx context.Context, userID uuid.UUID, goalText *string, goalLevel int) error {
	args := m.Called(ctx, userID, goalText, goalLevel)
	return args.Error(0)
}

type MockQuestRepository struct {
	mock.Mock
}

func (m *MockQuestRepository) GetDailyQuests(ctx context.Context, branches []string) ([]*model.Quest, error) {
	args := m.Called(ctx, branches)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Quest), args.Error(1)
}

func (m *MockQuestRepository) GetQuestByID(ctx context.Context, questID uuid.UUID) (*model.Quest, error) {
	args := m.Called(ctx, questID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Quest), args.Error(1)
}

func (m *MockQuestRepository) GetCompletedQuestIDs(ctx context.Context, userID uuid.UUID, date time.Time) (map[uuid.UUID]struct{}, error) {
	args := m.Called(ctx, userID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]struct{}), args.Error(1)
}

func (m *MockQuestRepository) InsertCompletionIfAbsent(ctx context.Context, userID, questID uuid.UUID, date time.Time) (bool, error) {
	args := m.Called(ctx, userID, questID, date)
	return args.Bool(0), args.Error(1)
}

type MockGoalRepository struct {
	mock.Mock
}

func (m *MockGoalRepository) CreateGoal(ctx context.Context, goal *model.Goal) error {
	args := m.Called(ctx, goal)
	return args.Error(0)
}

func (m *MockGoalRepository) GetGoals(ctx context.Context, userID uuid.UUID) ([]*model.Goal, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Goal), args.Error(1)
}

func (m *MockGoalRepository) GetGoalByID(ctx context.Context, userID, goalID uuid.UUID) (*model.Goal, error) {
	args := m.Called(ctx, userID, goalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Goal), args.Error(1)
}

func (m *MockGoalRepository) GetOpenGoals(ctx context.Context, userID uuid.UUID) ([]*model.Goal, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Goal), args.Error(1)
}

func (m *MockGoalRepository) UpdateGoal(ctx context.Context, userID, goalID uuid.UUID, upd model.GoalUpdate) (*model.Goal, error) {
	args := m.Called(ctx, userID, goalID, upd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Goal), args.Error(1)
}

func (m *MockGoalRepository) CompleteGoal(ctx context.Context, userID, goalID uuid.UUID, at time.Time) (*model.Goal, error) {
	args := m.Called(ctx, userID, goalID, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Goal), args.Error(1)
}

func (m *MockGoalRepository) MarkGoalNotified(ctx context.Context, goalID uuid.UUID, at time.Time) error {
	args := m.Called(ctx, goalID, at)
	return args.Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Send(ctx context.Context, chatID int64, text string) error {
	args := m.Called(ctx, chatID, text)
	return args.Error(0)
}

type MockAvatarTrigger struct {
	mock.Mock
}

func (m *MockAvatarTrigger) Dispatch(ctx context.Context, job notify.AvatarJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

// SyncDispatcher runs effects inline so tests can assert on collaborator
// calls without goroutine races.
type SyncDispatcher struct {
	Names []string
}

func (d *SyncDispatcher) Go(name string, fn func(ctx context.Context) error) {
	d.Names = append(d.Names, name)
	_ = fn(context.Background())
}

// MockEventPublisher records published events.
type MockEventPublisher struct {
	Events []service.Event
}

func (m *MockEventPublisher) Publish(_ int64, event service.Event) {
	m.Events = append(m.Events, event)
}
