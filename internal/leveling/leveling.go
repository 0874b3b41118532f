// Package leveling owns the XP-to-level progression math. It is pure: the
// repository applies it inside a row-locked transaction, the services and
// tests call it directly.
package leveling

import "errors"

var ErrInvalidXPAmount = errors.New("xp amount must not be negative")

// Curve returns the XP required to go from the given level to the next one.
// It must be monotonically non-decreasing in level.
type Curve func(level int) int

const DefaultXPPerLevel = 100

// FlatCurve is the baseline policy: a constant amount of XP per level.
func FlatCurve(step int) Curve {
	return func(int) int {
		return step
	}
}

// ValidateAmount rejects invalid awards before any state is touched.
func ValidateAmount(amount int) error {
	if amount < 0 {
		return ErrInvalidXPAmount
	}
	return nil
}

type State struct {
	Level       int
	XP          int
	NextLevelXP int
	TotalXP     int
}

// Award adds amount XP to the state and resolves any level-ups, including
// multi-level jumps from a single large award. A zero amount is a no-op.
func Award(s State, curve Curve, amount int) (State, bool, error) {
	if amount < 0 {
		return s, false, ErrInvalidXPAmount
	}
	if amount == 0 {
		return s, false, nil
	}

	s.XP += amount
	s.TotalXP += amount

	leveledUp := false
	for s.XP >= s.NextLevelXP {
		s.XP -= s.NextLevelXP
		s.Level++
		s.NextLevelXP = curve(s.Level)
		leveledUp = true
	}

	return s, leveledUp, nil
}
