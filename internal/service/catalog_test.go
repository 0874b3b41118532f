package service

import (
	"testing"

	"lifequest_miniapp/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestQuestBranches(t *testing.T) {
	assert.Equal(t, []string{"global"}, questBranches(nil))
	assert.Equal(t, []string{"power", "global"}, questBranches([]string{"power"}))
	assert.Equal(t, []string{"power", "longevity", "global"}, questBranches([]string{"power", "longevity"}))
}

func TestPartitionDailyQuests(t *testing.T) {
	questA := &model.Quest{ID: uuid.New(), Title: "A"}
	questB := &model.Quest{ID: uuid.New(), Title: "B"}
	bonusQuest := &model.Quest{ID: uuid.New(), Title: model.BonusQuestTitle}

	ordinary, bonus := PartitionDailyQuests([]*model.Quest{questA, bonusQuest, questB})

	assert.Equal(t, []*model.Quest{questA, questB}, ordinary)
	assert.Equal(t, bonusQuest, bonus)

	ordinary, bonus = PartitionDailyQuests([]*model.Quest{questA, questB})
	assert.Len(t, ordinary, 2)
	assert.Nil(t, bonus)
}

func TestBonusUnlocked(t *testing.T) {
	questA := &model.Quest{ID: uuid.New()}
	questB := &model.Quest{ID: uuid.New()}
	bonusQuest := &model.Quest{ID: uuid.New(), Title: model.BonusQuestTitle}
	ordinary := []*model.Quest{questA, questB}

	tests := []struct {
		name      string
		ordinary  []*model.Quest
		bonus     *model.Quest
		completed map[uuid.UUID]struct{}
		expected  bool
	}{
		{
			name:      "All ordinary done, bonus unclaimed",
			ordinary:  ordinary,
			bonus:     bonusQuest,
			completed: map[uuid.UUID]struct{}{questA.ID: {}, questB.ID: {}},
			expected:  true,
		},
		{
			name:      "One ordinary quest remaining",
			ordinary:  ordinary,
			bonus:     bonusQuest,
			completed: map[uuid.UUID]struct{}{questA.ID: {}},
			expected:  false,
		},
		{
			name:     "Bonus already claimed",
			ordinary: ordinary,
			bonus:    bonusQuest,
			completed: map[uuid.UUID]struct{}{
				questA.ID:     {},
				questB.ID:     {},
				bonusQuest.ID: {},
			},
			expected: false,
		},
		{
			name:      "No bonus quest in the catalog",
			ordinary:  ordinary,
			bonus:     nil,
			completed: map[uuid.UUID]struct{}{questA.ID: {}, questB.ID: {}},
			expected:  false,
		},
		{
			name:      "Empty catalog never unlocks",
			ordinary:  nil,
			bonus:     bonusQuest,
			completed: map[uuid.UUID]struct{}{},
			expected:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, BonusUnlocked(tt.ordinary, tt.bonus, tt.completed))
		})
	}
}
