package service_test

import (
	"context"
	"testing"

	"lifequest_miniapp/internal/model"
	"lifequest_miniapp/internal/notify"
	"lifequest_miniapp/internal/repository"
	"lifequest_miniapp/internal/service"
	"lifequest_miniapp/internal/service/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type questDeps struct {
	users    *mocks.MockUserRepository
	progress *mocks.MockProgressRepository
	quests   *mocks.MockQuestRepository
	goals    *mocks.MockGoalRepository
	notifier *mocks.MockNotifier
	avatars  *mocks.MockAvatarTrigger
	effects  *mocks.SyncDispatcher
	events   *mocks.MockEventPublisher
}

func newQuestDeps() *questDeps {
	return &questDeps{
		users:    &mocks.MockUserRepository{},
		progress: &mocks.MockProgressRepository{},
		quests:   &mocks.MockQuestRepository{},
		goals:    &mocks.MockGoalRepository{},
		notifier: &mocks.MockNotifier{},
		avatars:  &mocks.MockAvatarTrigger{},
		effects:  &mocks.SyncDispatcher{},
		events:   &mocks.MockEventPublisher{},
	}
}

func (d *questDeps) service() *service.QuestService {
	return service.NewQuestService(d.users, d.progress, d.quests, d.goals, d.notifier, d.avatars, d.effects, d.events)
}

func (d *questDeps) assertExpectations(t *testing.T) {
	d.users.AssertExpectations(t)
	d.progress.AssertExpectations(t)
	d.quests.AssertExpectations(t)
	d.goals.AssertExpectations(t)
	d.notifier.AssertExpectations(t)
	d.avatars.AssertExpectations(t)
}

func TestQuestService_CompleteQuest(t *testing.T) {
	userID := uuid.New()
	questA := &model.Quest{ID: uuid.New(), Title: "Сделай зарядку", Branch: "power", XPReward: 10, IsDaily: true}
	questB := &model.Quest{ID: uuid.New(), Title: "Прочитай 10 страниц", Branch: "global", XPReward: 15, IsDaily: true}
	bonusQuest := &model.Quest{ID: uuid.New(), Title: model.BonusQuestTitle, Branch: "global", XPReward: 50, IsDaily: true}

	hero := func() *model.User {
		return &model.User{ID: userID, TelegramID: 123, ActiveBranches: []string{"power"}}
	}

	tests := []struct {
		name          string
		questID       uuid.UUID
		setupMocks    func(d *questDeps)
		expectedError error
		checkResult   func(t *testing.T, d *questDeps, result *model.CompletionResult)
	}{
		{
			name:    "User not found",
			questID: questA.ID,
			setupMocks: func(d *questDeps) {
				d.users.On("GetUserByTelegramID", mock.Anything, int64(123)).
					Return(nil, repository.ErrNotFound)
			},
			expectedError: service.ErrUserNotFound,
		},
		{
			name:    "Already completed today",
			questID: questA.ID,
			setupMocks: func(d *questDeps) {
				d.users.On("GetUserByTelegramID", mock.Anything, int64(123)).
					Return(hero(), nil)
				d.quests.On("GetCompletedQuestIDs", mock.Anything, userID, mock.Anything).
					Return(map[uuid.UUID]struct{}{questA.ID: {}}, nil)
			},
			expectedError: service.ErrAlreadyCompletedToday,
		},
		{
			name:    "Quest not found",
			questID: questA.ID,
			setupMocks: func(d *questDeps) {
				d.users.On("GetUserByTelegramID", mock.Anything, int64(123)).
					Return(hero(), nil)
				d.quests.On("GetCompletedQuestIDs", mock.Anything, userID, mock.Anything).
					Return(map[uuid.UUID]struct{}{}, nil)
				d.quests.On("GetQuestByID", mock.Anything, questA.ID).
					Return(nil, repository.ErrNotFound)
			},
			expectedError: service.ErrQuestNotFound,
		},
		{
			name:    "Lost the insert race",
			questID: questA.ID,
			setupMocks: func(d *questDeps) {
				d.users.On("GetUserByTelegramID", mock.Anything, int64(123)).
					Return(hero(), nil)
				d.quests.On("GetCompletedQuestIDs", mock.Anything, userID, mock.Anything).
					Return(map[uuid.UUID]struct{}{}, nil)
				d.quests.On("GetQuestByID", mock.Anything, questA.ID).
					Return(questA, nil)
				d.quests.On("InsertCompletionIfAbsent", mock.Anything, userID, questA.ID, mock.Anything).
					Return(false, nil)
			},
			expectedError: service.ErrAlreadyCompletedToday,
		},
		{
			name:    "Success without level-up, bonus stays locked",
			questID: questA.ID,
			setupMocks: func(d *questDeps) {
				d.users.On("GetUserByTelegramID", mock.Anything, int64(123)).
					Return(hero(), nil)
				d.quests.On("GetCompletedQuestIDs", mock.Anything, userID, mock.Anything).
					Return(map[uuid.UUID]struct{}{}, nil).Once()
				d.quests.On("GetQuestByID", mock.Anything, questA.ID).
					Return(questA, nil)
				d.quests.On("InsertCompletionIfAbsent", mock.Anything, userID, questA.ID, mock.Anything).
					Return(true, nil)
				d.progress.On("AwardXP", mock.Anything, userID, 10).
					Return(false, 1, nil)
				d.quests.On("GetDailyQuests", mock.Anything, []string{"power", "global"}).
					Return([]*model.Quest{questA, questB, bonusQuest}, nil)
				d.quests.On("GetCompletedQuestIDs", mock.Anything, userID, mock.Anything).
					Return(map[uuid.UUID]struct{}{questA.ID: {}}, nil).Once()
				d.goals.On("GetOpenGoals", mock.Anything, userID).
					Return([]*model.Goal{}, nil)
			},
			checkResult: func(t *testing.T, d *questDeps, result *model.CompletionResult) {
				assert.Equal(t, 10, result.XPGained)
				assert.False(t, result.LeveledUp)
				assert.Equal(t, 1, result.NewLevel)
				assert.False(t, result.BonusAwarded)
				assert.Nil(t, result.BonusNewLevel)
				assert.Empty(t, result.AchievedGoals)

				if assert.Len(t, d.events.Events, 1) {
					assert.Equal(t, "quest_completed", d.events.Events[0].Type)
				}
			},
		},
		{
			name:    "Last daily quest unlocks the bonus and levels up",
			questID: questB.ID,
			setupMocks: func(d *questDeps) {
				d.users.On("GetUserByTelegramID", mock.Anything, int64(123)).
					Return(hero(), nil)
				d.quests.On("GetCompletedQuestIDs", mock.Anything, userID, mock.Anything).
					Return(map[uuid.UUID]struct{}{questA.ID: {}}, nil).Once()
				d.quests.On("GetQuestByID", mock.Anything, questB.ID).
					Return(questB, nil)
				d.quests.On("InsertCompletionIfAbsent", mock.Anything, userID, questB.ID, mock.Anything).
					Return(true, nil)
				d.progress.On("AwardXP", mock.Anything, userID, 15).
					Return(false, 1, nil)
				d.quests.On("GetDailyQuests", mock.Anything, []string{"power", "global"}).
					Return([]*model.Quest{questA, questB, bonusQuest}, nil)
				d.quests.On("GetCompletedQuestIDs", mock.Anything, userID, mock.Anything).
					Return(map[uuid.UUID]struct{}{questA.ID: {}, questB.ID: {}}, nil).Once()
				d.quests.On("InsertCompletionIfAbsent", mock.Anything, userID, bonusQuest.ID, mock.Anything).
					Return(true, nil)
				d.progress.On("AwardXP", mock.Anything, userID, 50).
					Return(true, 2, nil)
				d.users.On("UpdateStats", mock.Anything, userID, service.StatGrowthDelta([]string{"power"}, 2)).
					Return(nil)
				d.goals.On("GetOpenGoals", mock.Anything, userID).
					Return([]*model.Goal{}, nil)
			},
			checkResult: func(t *testing.T, d *questDeps, result *model.CompletionResult) {
				assert.Equal(t, 15, result.XPGained)
				assert.False(t, result.LeveledUp)
				assert.True(t, result.BonusAwarded)
				assert.Equal(t, 50, result.BonusXP)
				assert.True(t, result.BonusLeveledUp)
				if assert.NotNil(t, result.BonusNewLevel) {
					assert.Equal(t, 2, *result.BonusNewLevel)
				}
				assert.Equal(t, 2, result.EffectiveLevel())

				if assert.Len(t, d.events.Events, 2) {
					assert.Equal(t, "quest_completed", d.events.Events[0].Type)
					assert.Equal(t, "level_up", d.events.Events[1].Type)
				}
			},
		},
		{
			name:    "Bonus already claimed is not awarded twice",
			questID: questB.ID,
			setupMocks: func(d *questDeps) {
				d.users.On("GetUserByTelegramID", mock.Anything, int64(123)).
					Return(hero(), nil)
				d.quests.On("GetCompletedQuestIDs", mock.Anything, userID, mock.Anything).
					Return(map[uuid.UUID]struct{}{questA.ID: {}}, nil).Once()
				d.quests.On("GetQuestByID", mock.Anything, questB.ID).
					Return(questB, nil)
				d.quests.On("InsertCompletionIfAbsent", mock.Anything, userID, questB.ID, mock.Anything).
					Return(true, nil)
				d.progress.On("AwardXP", mock.Anything, userID, 15).
					Return(false, 1, nil)
				d.quests.On("GetDailyQuests", mock.Anything, []string{"power", "global"}).
					Return([]*model.Quest{questA, questB, bonusQuest}, nil)
				d.quests.On("GetCompletedQuestIDs", mock.Anything, userID, mock.Anything).
					Return(map[uuid.UUID]struct{}{
						questA.ID:     {},
						questB.ID:     {},
						bonusQuest.ID: {},
					}, nil).Once()
				d.goals.On("GetOpenGoals", mock.Anything, userID).
					Return([]*model.Goal{}, nil)
			},
			checkResult: func(t *testing.T, d *questDeps, result *model.CompletionResult) {
				assert.False(t, result.BonusAwarded)
				assert.Equal(t, 0, result.BonusXP)
			},
		},
		{
			name:    "Level milestone triggers avatar regeneration and goal congratulation",
			questID: questA.ID,
			setupMocks: func(d *questDeps) {
				goal := &model.Goal{ID: uuid.New(), UserID: userID, GoalText: "Новый я", GoalLevel: 5}

				d.users.On("GetUserByTelegramID", mock.Anything, int64(123)).
					Return(hero(), nil)
				d.quests.On("GetCompletedQuestIDs", mock.Anything, userID, mock.Anything).
					Return(map[uuid.UUID]struct{}{}, nil).Once()
				d.quests.On("GetQuestByID", mock.Anything, questA.ID).
					Return(questA, nil)
				d.quests.On("InsertCompletionIfAbsent", mock.Anything, userID, questA.ID, mock.Anything).
					Return(true, nil)
				d.progress.On("AwardXP", mock.Anything, userID, 10).
					Return(true, 5, nil)
				d.users.On("UpdateStats", mock.Anything, userID, service.StatGrowthDelta([]string{"power"}, 5)).
					Return(nil)
				d.avatars.On("Dispatch", mock.Anything, mock.MatchedBy(func(job notify.AvatarJob) bool {
					return job.TelegramID == 123 && job.Level == 5 && job.Branch == "power"
				})).Return(nil)
				d.quests.On("GetDailyQuests", mock.Anything, []string{"power", "global"}).
					Return([]*model.Quest{questA, questB, bonusQuest}, nil)
				d.quests.On("GetCompletedQuestIDs", mock.Anything, userID, mock.Anything).
					Return(map[uuid.UUID]struct{}{questA.ID: {}}, nil).Once()
				d.goals.On("GetOpenGoals", mock.Anything, userID).
					Return([]*model.Goal{goal}, nil)
				d.notifier.On("Send", mock.Anything, int64(123), notify.GoalAchievedMessage(5, "Новый я")).
					Return(nil)
				d.goals.On("MarkGoalNotified", mock.Anything, goal.ID, mock.Anything).
					Return(nil)
			},
			checkResult: func(t *testing.T, d *questDeps, result *model.CompletionResult) {
				assert.True(t, result.LeveledUp)
				assert.Equal(t, 5, result.NewLevel)
				assert.Len(t, result.AchievedGoals, 1)
				assert.Contains(t, d.effects.Names, "avatar_generation")
				assert.Contains(t, d.effects.Names, "goal_notification")
			},
		},
		{
			name:    "Goal is marked notified even when delivery fails",
			questID: questA.ID,
			setupMocks: func(d *questDeps) {
				goal := &model.Goal{ID: uuid.New(), UserID: userID, GoalText: "Цель", GoalLevel: 2}

				d.users.On("GetUserByTelegramID", mock.Anything, int64(123)).
					Return(hero(), nil)
				d.quests.On("GetCompletedQuestIDs", mock.Anything, userID, mock.Anything).
					Return(map[uuid.UUID]struct{}{}, nil).Once()
				d.quests.On("GetQuestByID", mock.Anything, questA.ID).
					Return(questA, nil)
				d.quests.On("InsertCompletionIfAbsent", mock.Anything, userID, questA.ID, mock.Anything).
					Return(true, nil)
				d.progress.On("AwardXP", mock.Anything, userID, 10).
					Return(true, 2, nil)
				d.users.On("UpdateStats", mock.Anything, userID, mock.Anything).
					Return(nil)
				d.quests.On("GetDailyQuests", mock.Anything, []string{"power", "global"}).
					Return([]*model.Quest{questA, questB, bonusQuest}, nil)
				d.quests.On("GetCompletedQuestIDs", mock.Anything, userID, mock.Anything).
					Return(map[uuid.UUID]struct{}{questA.ID: {}}, nil).Once()
				d.goals.On("GetOpenGoals", mock.Anything, userID).
					Return([]*model.Goal{goal}, nil)
				d.notifier.On("Send", mock.Anything, int64(123), mock.Anything).
					Return(assert.AnError)
				d.goals.On("MarkGoalNotified", mock.Anything, goal.ID, mock.Anything).
					Return(nil)
			},
			checkResult: func(t *testing.T, d *questDeps, result *model.CompletionResult) {
				assert.Len(t, result.AchievedGoals, 1)
			},
		},
		{
			name:    "XP award failure aborts the request",
			questID: questA.ID,
			setupMocks: func(d *questDeps) {
				d.users.On("GetUserByTelegramID", mock.Anything, int64(123)).
					Return(hero(), nil)
				d.quests.On("GetCompletedQuestIDs", mock.Anything, userID, mock.Anything).
					Return(map[uuid.UUID]struct{}{}, nil)
				d.quests.On("GetQuestByID", mock.Anything, questA.ID).
					Return(questA, nil)
				d.quests.On("InsertCompletionIfAbsent", mock.Anything, userID, questA.ID, mock.Anything).
					Return(true, nil)
				d.progress.On("AwardXP", mock.Anything, userID, 10).
					Return(false, 0, assert.AnError)
			},
			expectedError: assert.AnError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newQuestDeps()
			tt.setupMocks(d)

			result, err := d.service().CompleteQuest(context.Background(), 123, tt.questID)

			if tt.expectedError != nil {
				assert.Error(t, err)
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, result)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, result)
				if tt.checkResult != nil {
					tt.checkResult(t, d, result)
				}
			}

			d.assertExpectations(t)
		})
	}
}

func TestQuestService_GetUserQuests(t *testing.T) {
	userID := uuid.New()
	questA := &model.Quest{ID: uuid.New(), Title: "Сделай зарядку", Branch: "power", XPReward: 10, IsDaily: true}
	questB := &model.Quest{ID: uuid.New(), Title: "Прочитай 10 страниц", Branch: "global", XPReward: 15, IsDaily: true}
	bonusQuest := &model.Quest{ID: uuid.New(), Title: model.BonusQuestTitle, Branch: "global", XPReward: 50, IsDaily: true}

	d := newQuestDeps()
	d.users.On("GetUserByTelegramID", mock.Anything, int64(123)).
		Return(&model.User{ID: userID, TelegramID: 123, ActiveBranches: []string{"power"}}, nil)
	d.quests.On("GetDailyQuests", mock.Anything, []string{"power", "global"}).
		Return([]*model.Quest{questA, questB, bonusQuest}, nil)
	d.quests.On("GetCompletedQuestIDs", mock.Anything, userID, mock.Anything).
		Return(map[uuid.UUID]struct{}{questA.ID: {}}, nil)

	statuses, err := d.service().GetUserQuests(context.Background(), 123)

	assert.NoError(t, err)
	// The reserved bonus quest never shows up in the user-facing list.
	if assert.Len(t, statuses, 2) {
		assert.True(t, statuses[0].IsCompleted)
		assert.False(t, statuses[1].IsCompleted)
	}
	d.assertExpectations(t)
}

func TestQuestService_GetDailyXPSummary(t *testing.T) {
	userID := uuid.New()
	d := newQuestDeps()
	d.users.On("GetUserByTelegramID", mock.Anything, int64(123)).
		Return(&model.User{ID: userID, TelegramID: 123, ActiveBranches: []string{"power"}}, nil)
	d.quests.On("GetDailyQuests", mock.Anything, []string{"power", "global"}).
		Return([]*model.Quest{
			{ID: uuid.New(), Title: "A", XPReward: 10, IsDaily: true},
			{ID: uuid.New(), Title: "B", XPReward: 15, IsDaily: true},
			{ID: uuid.New(), Title: model.BonusQuestTitle, XPReward: 50, IsDaily: true},
		}, nil)

	summary, err := d.service().GetDailyXPSummary(context.Background(), 123)

	assert.NoError(t, err)
	assert.Equal(t, 2, summary.DailyQuestCount)
	assert.Equal(t, 50, summary.BonusXP)
	assert.Equal(t, 75, summary.DailyXP)
	d.assertExpectations(t)
}
