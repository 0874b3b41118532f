package model

import (
	"time"

	"github.com/google/uuid"
)

const DefaultGoalLevel = 10

type Goal struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	GoalText    string
	GoalLevel   int
	IsCompleted bool
	CompletedAt *time.Time
	NotifiedAt  *time.Time
	Notes       *string
	ImageURL    *string
	CreatedAt   time.Time
}

// AchievedAt reports whether the goal target has been reached at the given
// level and the user has not been congratulated yet.
func (g *Goal) AchievedAt(level int) bool {
	goalLevel := g.GoalLevel
	if goalLevel < 1 {
		goalLevel = 1
	}
	return goalLevel <= level && g.NotifiedAt == nil
}

type GoalUpdate struct {
	GoalText  *string
	GoalLevel *int
	Notes     *string
	ImageURL  *string
}

type AvatarGeneration struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Level     int
	AvatarURL string
	Status    string
	CreatedAt time.Time
}
