package model

import (
	"time"

	"github.com/google/uuid"
)

// BonusQuestTitle marks the reserved catalog entry that unlocks only after
// every ordinary daily quest has been completed the same day.
const BonusQuestTitle = "⭐ Выполни все daily квесты"

// GlobalBranch quests are visible to every user regardless of active branches.
const GlobalBranch = "global"

type Quest struct {
	ID          uuid.UUID
	Title       string
	Description string
	Branch      string
	XPReward    int
	Category    string
	IsDaily     bool
}

func (q *Quest) IsBonus() bool {
	return q.Title == BonusQuestTitle
}

type QuestStatus struct {
	Quest
	IsCompleted bool
}

type QuestCompletion struct {
	UserID         uuid.UUID
	QuestID        uuid.UUID
	CompletionDate time.Time
	IsToday        bool
}

// CompletionResult summarizes a single complete-quest request, including
// the optional bonus award that may follow the last ordinary daily quest.
type CompletionResult struct {
	XPGained       int
	LeveledUp      bool
	NewLevel       int
	BonusAwarded   bool
	BonusXP        int
	BonusLeveledUp bool
	BonusNewLevel  *int
	AchievedGoals  []*Goal
}

// EffectiveLevel is the higher of the ordinary and bonus award levels.
func (r *CompletionResult) EffectiveLevel() int {
	if r.BonusNewLevel != nil && *r.BonusNewLevel > r.NewLevel {
		return *r.BonusNewLevel
	}
	return r.NewLevel
}

type DailyXPSummary struct {
	DailyXP         int
	DailyQuestCount int
	BonusXP         int
}
