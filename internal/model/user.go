package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DefaultBranch is the progression track assigned at registration.
const DefaultBranch = "power"

type User struct {
	ID             uuid.UUID
	TelegramID     int64
	Username       string
	FirstName      string
	LastName       string
	LanguageCode   string
	Age            *int
	Gender         *string
	ActiveBranches []string
	IsPro          bool
	Stats          Stats
	SelfieURL      *string
	AvatarURL      *string
	CreatedAt      time.Time
	LastActiveAt   time.Time
}

// PrimaryBranch is the branch used for avatar generation context.
func (u *User) PrimaryBranch() string {
	if len(u.ActiveBranches) == 0 {
		return DefaultBranch
	}
	return u.ActiveBranches[0]
}

func (u *User) HasBranch(branch string) bool {
	for _, b := range u.ActiveBranches {
		if b == branch {
			return true
		}
	}
	return false
}

// OnboardingData is what the mini-app collects on first launch.
type OnboardingData struct {
	Age       *int
	Gender    *string
	Branch    string
	GoalText  *string
	GoalLevel int
	SelfieURL *string
}

// Stats are the six hero characteristics. Every counter stays >= 1.
type Stats struct {
	Strength   int
	Health     int
	Intellect  int
	Agility    int
	Confidence int
	Stability  int
}

func DefaultStats() Stats {
	return Stats{
		Strength:   1,
		Health:     1,
		Intellect:  1,
		Agility:    1,
		Confidence: 1,
		Stability:  1,
	}
}

func (s Stats) Validate() error {
	counters := map[string]int{
		"strength":   s.Strength,
		"health":     s.Health,
		"intellect":  s.Intellect,
		"agility":    s.Agility,
		"confidence": s.Confidence,
		"stability":  s.Stability,
	}
	for name, v := range counters {
		if v < 1 {
			return fmt.Errorf("stat %s must be >= 1, got %d", name, v)
		}
	}
	return nil
}

// Add returns the element-wise sum of two stat sets.
func (s Stats) Add(delta Stats) Stats {
	return Stats{
		Strength:   s.Strength + delta.Strength,
		Health:     s.Health + delta.Health,
		Intellect:  s.Intellect + delta.Intellect,
		Agility:    s.Agility + delta.Agility,
		Confidence: s.Confidence + delta.Confidence,
		Stability:  s.Stability + delta.Stability,
	}
}
