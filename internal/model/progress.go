package model

import "github.com/google/uuid"

const InitialNextLevelXP = 100

type Progress struct {
	UserID       uuid.UUID
	CurrentLevel int
	CurrentXP    int
	NextLevelXP  int
	TotalXP      int
	GoalText     *string
	GoalLevel    int
}

func NewProgress(userID uuid.UUID) *Progress {
	return &Progress{
		UserID:       userID,
		CurrentLevel: 1,
		CurrentXP:    0,
		NextLevelXP:  InitialNextLevelXP,
		TotalXP:      0,
		GoalLevel:    DefaultGoalLevel,
	}
}

// GoalProgress is the percentage of the way toward the target level.
func (p *Progress) GoalProgress() int {
	goalLevel := p.GoalLevel
	if goalLevel < 1 {
		goalLevel = DefaultGoalLevel
	}
	return p.CurrentLevel * 100 / goalLevel
}
