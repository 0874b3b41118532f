package service

import "lifequest_miniapp/internal/model"

// branchStatGrowth maps each progression branch to the stats it trains on
// level-up, on top of the base growth every hero gets.
var branchStatGrowth = map[string]model.Stats{
	"power":     {Strength: 2, Agility: 1},
	"longevity": {Health: 2, Stability: 1},
	"stability": {Stability: 2, Confidence: 1},
}

// baseStatGrowth applies on every level-up regardless of branches.
var baseStatGrowth = model.Stats{
	Strength:   1,
	Health:     1,
	Intellect:  1,
	Agility:    1,
	Confidence: 1,
	Stability:  1,
}

// GrowStats returns the stats after one growth application. Growth happens
// once per completion event, parameterized by the final level reached, even
// when a single award jumps several levels.
func GrowStats(current model.Stats, activeBranches []string, newLevel int) model.Stats {
	return current.Add(StatGrowthDelta(activeBranches, newLevel))
}

// StatGrowthDelta is the increment table: base growth, plus branch training
// for every active branch, doubled at every tenth level.
func StatGrowthDelta(activeBranches []string, newLevel int) model.Stats {
	delta := baseStatGrowth
	for _, branch := range activeBranches {
		if growth, ok := branchStatGrowth[branch]; ok {
			delta = delta.Add(growth)
		}
	}
	if newLevel%10 == 0 {
		delta = delta.Add(delta)
	}
	return delta
}
