package service

import (
	"lifequest_miniapp/internal/model"

	"github.com/google/uuid"
)

// questBranches is the catalog filter for a user: their active branches
// plus the shared global track.
func questBranches(activeBranches []string) []string {
	branches := make([]string, 0, len(activeBranches)+1)
	branches = append(branches, activeBranches...)
	branches = append(branches, model.GlobalBranch)
	return branches
}

// PartitionDailyQuests splits the branch-filtered daily catalog into the
// ordinary quests and the reserved bonus quest.
func PartitionDailyQuests(quests []*model.Quest) (ordinary []*model.Quest, bonus *model.Quest) {
	for _, q := range quests {
		if q.IsBonus() {
			bonus = q
			continue
		}
		ordinary = append(ordinary, q)
	}
	return ordinary, bonus
}

// BonusUnlocked reports whether the bonus quest is eligible: there is at
// least one ordinary daily quest, all of them are completed today, and the
// bonus itself has not been claimed yet. Callers must re-evaluate with fresh
// completion data after each ordinary completion.
func BonusUnlocked(ordinary []*model.Quest, bonus *model.Quest, completedToday map[uuid.UUID]struct{}) bool {
	if bonus == nil || len(ordinary) == 0 {
		return false
	}
	for _, q := range ordinary {
		if _, ok := completedToday[q.ID]; !ok {
			return false
		}
	}
	_, bonusClaimed := completedToday[bonus.ID]
	return !bonusClaimed
}
