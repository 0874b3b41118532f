package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGoalAchievedMessage(t *testing.T) {
	assert.Equal(t,
		"🎁 Ты достиг уровня 5 и заслужил: Новый я",
		GoalAchievedMessage(5, "Новый я"))

	// Empty goal text falls back to the generic label.
	assert.Equal(t,
		"🎁 Ты достиг уровня 3 и заслужил: Цель",
		GoalAchievedMessage(3, ""))
}
