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

func strPtr(s string) *string { return &s }

func newUserService() (*service.UserService, *mocks.MockUserRepository, *mocks.MockProgressRepository, *mocks.MockGoalRepository, *mocks.MockAvatarTrigger) {
	users := &mocks.MockUserRepository{}
	progress := &mocks.MockProgressRepository{}
	goals := &mocks.MockGoalRepository{}
	avatars := &mocks.MockAvatarTrigger{}
	svc := service.NewUserService(users, progress, goals, avatars, &mocks.SyncDispatcher{})
	return svc, users, progress, goals, avatars
}

func TestUserService_RegisterUser(t *testing.T) {
	tests := []struct {
		name       string
		input      service.RegisterInput
		setupMocks func(users *mocks.MockUserRepository)
		checkUser  func(t *testing.T, user *model.User)
	}{
		{
			name:  "New user gets default branch and stats",
			input: service.RegisterInput{TelegramID: 123, Username: "hero", FirstName: "Иван"},
			setupMocks: func(users *mocks.MockUserRepository) {
				users.On("GetUserByTelegramID", mock.Anything, int64(123)).
					Return(nil, repository.ErrNotFound)
				users.On("CreateUser", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
					return u.TelegramID == 123 &&
						len(u.ActiveBranches) == 1 &&
						u.ActiveBranches[0] == model.DefaultBranch &&
						!u.IsPro
				})).Return(nil)
			},
			checkUser: func(t *testing.T, user *model.User) {
				assert.Equal(t, model.DefaultStats(), user.Stats)
				assert.NotEqual(t, uuid.Nil, user.ID)
			},
		},
		{
			name:  "Existing user is returned as-is",
			input: service.RegisterInput{TelegramID: 124},
			setupMocks: func(users *mocks.MockUserRepository) {
				users.On("GetUserByTelegramID", mock.Anything, int64(124)).
					Return(&model.User{ID: uuid.New(), TelegramID: 124, Username: "old"}, nil)
			},
			checkUser: func(t *testing.T, user *model.User) {
				assert.Equal(t, "old", user.Username)
			},
		},
		{
			name:  "Foreign avatar reference is cleared on re-register",
			input: service.RegisterInput{TelegramID: 125},
			setupMocks: func(users *mocks.MockUserRepository) {
				existingID := uuid.New()
				users.On("GetUserByTelegramID", mock.Anything, int64(125)).
					Return(&model.User{
						ID:         existingID,
						TelegramID: 125,
						AvatarURL:  strPtr("https://t.me/userpic/hero.jpg"),
					}, nil)
				users.On("SetAvatarURL", mock.Anything, existingID, (*string)(nil)).
					Return(nil)
			},
			checkUser: func(t *testing.T, user *model.User) {
				assert.Nil(t, user.AvatarURL)
			},
		},
		{
			name: "Telegram profile photo is not stored for new users",
			input: service.RegisterInput{
				TelegramID: 126,
				AvatarURL:  strPtr("https://t.me/userpic/hero.jpg"),
			},
			setupMocks: func(users *mocks.MockUserRepository) {
				users.On("GetUserByTelegramID", mock.Anything, int64(126)).
					Return(nil, repository.ErrNotFound)
				users.On("CreateUser", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
					return u.AvatarURL == nil
				})).Return(nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, users, _, _, _ := newUserService()
			tt.setupMocks(users)

			user, err := svc.RegisterUser(context.Background(), tt.input)

			assert.NoError(t, err)
			assert.NotNil(t, user)
			if tt.checkUser != nil {
				tt.checkUser(t, user)
			}
			users.AssertExpectations(t)
		})
	}
}

func TestUserService_CompleteOnboarding(t *testing.T) {
	userID := uuid.New()

	svc, users, progress, goals, avatars := newUserService()

	data := model.OnboardingData{
		Age:       intPtrTest(30),
		Gender:    strPtr("male"),
		Branch:    "longevity",
		GoalText:  strPtr("Пробежать марафон"),
		GoalLevel: 12,
		SelfieURL: strPtr("https://example.supabase.co/selfies/1.jpg"),
	}

	users.On("GetUserByTelegramID", mock.Anything, int64(123)).
		Return(&model.User{ID: userID, TelegramID: 123}, nil)
	users.On("UpdateOnboarding", mock.Anything, int64(123), data).
		Return(nil)
	progress.On("SetProgressGoal", mock.Anything, userID, data.GoalText, 12).
		Return(nil)
	goals.On("CreateGoal", mock.Anything, mock.MatchedBy(func(g *model.Goal) bool {
		return g.UserID == userID && g.GoalText == "Пробежать марафон" && g.GoalLevel == 12
	})).Return(nil)
	avatars.On("Dispatch", mock.Anything, mock.MatchedBy(func(job notify.AvatarJob) bool {
		return job.TelegramID == 123 && job.Level == 1 && job.Branch == "longevity"
	})).Return(nil)

	err := svc.CompleteOnboarding(context.Background(), 123, data)

	assert.NoError(t, err)
	users.AssertExpectations(t)
	progress.AssertExpectations(t)
	goals.AssertExpectations(t)
	avatars.AssertExpectations(t)
}

func TestUserService_AddBranch(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name           string
		branch         string
		setupMocks     func(users *mocks.MockUserRepository)
		expectedError  error
		expectedResult []string
	}{
		{
			name:   "PRO user adds a second branch",
			branch: "longevity",
			setupMocks: func(users *mocks.MockUserRepository) {
				users.On("GetUserByTelegramID", mock.Anything, int64(123)).
					Return(&model.User{ID: userID, TelegramID: 123, IsPro: true, ActiveBranches: []string{"power"}}, nil)
				users.On("AddBranch", mock.Anything, int64(123), "longevity").
					Return([]string{"power", "longevity"}, nil)
			},
			expectedResult: []string{"power", "longevity"},
		},
		{
			name:   "Non-PRO user is rejected",
			branch: "longevity",
			setupMocks: func(users *mocks.MockUserRepository) {
				users.On("GetUserByTelegramID", mock.Anything, int64(123)).
					Return(&model.User{ID: userID, TelegramID: 123, ActiveBranches: []string{"power"}}, nil)
			},
			expectedError: service.ErrProRequired,
		},
		{
			name:   "Adding an active branch is idempotent",
			branch: "power",
			setupMocks: func(users *mocks.MockUserRepository) {
				users.On("GetUserByTelegramID", mock.Anything, int64(123)).
					Return(&model.User{ID: userID, TelegramID: 123, IsPro: true, ActiveBranches: []string{"power"}}, nil)
			},
			expectedResult: []string{"power"},
		},
		{
			name:          "Empty branch name",
			branch:        "",
			setupMocks:    func(users *mocks.MockUserRepository) {},
			expectedError: service.ErrInvalidBranch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, users, _, _, _ := newUserService()
			tt.setupMocks(users)

			branches, err := svc.AddBranch(context.Background(), 123, tt.branch)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expectedResult, branches)
			}
			users.AssertExpectations(t)
		})
	}
}

func TestUserService_SetGeneratedAvatar(t *testing.T) {
	userID := uuid.New()
	avatarURL := "https://example.supabase.co/avatars/5.png"

	svc, users, _, _, _ := newUserService()

	users.On("GetUserByID", mock.Anything, userID).
		Return(&model.User{ID: userID, TelegramID: 123}, nil)
	users.On("SetAvatarURL", mock.Anything, userID, &avatarURL).
		Return(nil)
	users.On("InsertAvatarGeneration", mock.Anything, mock.MatchedBy(func(gen *model.AvatarGeneration) bool {
		return gen.UserID == userID && gen.Level == 5 && gen.AvatarURL == avatarURL && gen.Status == "completed"
	})).Return(nil)

	err := svc.SetGeneratedAvatar(context.Background(), userID, 5, avatarURL)

	assert.NoError(t, err)
	users.AssertExpectations(t)
}

func intPtrTest(v int) *int { return &v }
