package service

import (
	"testing"

	"lifequest_miniapp/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestStatGrowthDelta(t *testing.T) {
	tests := []struct {
		name     string
		branches []string
		newLevel int
		expected model.Stats
	}{
		{
			name:     "No branches gives base growth only",
			branches: nil,
			newLevel: 2,
			expected: model.Stats{Strength: 1, Health: 1, Intellect: 1, Agility: 1, Confidence: 1, Stability: 1},
		},
		{
			name:     "Power branch trains strength and agility",
			branches: []string{"power"},
			newLevel: 3,
			expected: model.Stats{Strength: 3, Health: 1, Intellect: 1, Agility: 2, Confidence: 1, Stability: 1},
		},
		{
			name:     "Two branches stack",
			branches: []string{"power", "longevity"},
			newLevel: 4,
			expected: model.Stats{Strength: 3, Health: 3, Intellect: 1, Agility: 2, Confidence: 1, Stability: 2},
		},
		{
			name:     "Unknown branch falls back to base growth",
			branches: []string{"mystery"},
			newLevel: 2,
			expected: model.Stats{Strength: 1, Health: 1, Intellect: 1, Agility: 1, Confidence: 1, Stability: 1},
		},
		{
			name:     "Tenth level doubles the delta",
			branches: []string{"power"},
			newLevel: 10,
			expected: model.Stats{Strength: 6, Health: 2, Intellect: 2, Agility: 4, Confidence: 2, Stability: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StatGrowthDelta(tt.branches, tt.newLevel))
		})
	}
}

func TestGrowStats(t *testing.T) {
	current := model.Stats{Strength: 5, Health: 4, Intellect: 3, Agility: 2, Confidence: 1, Stability: 1}

	grown := GrowStats(current, []string{"power"}, 3)

	assert.Equal(t, model.Stats{Strength: 8, Health: 5, Intellect: 4, Agility: 4, Confidence: 2, Stability: 2}, grown)
	// Input is untouched.
	assert.Equal(t, 5, current.Strength)
}
