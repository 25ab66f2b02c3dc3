package engagement

import (
	"time"

	"github.com/tutu-network/coinquest/internal/domain"
)

// RewardLevelGates maps reward ID to the level that makes it available.
// Rewards missing from the table are never auto-unlocked.
var RewardLevelGates = map[string]int{
	"theme_emerald":      2,
	"badge_tracker":      3,
	"insight_spending":   3,
	"feature_categories": 4,
	"theme_gold":         5,
	"insight_forecast":   6,
	"feature_reports":    7,
	"badge_finance_guru": 10,
}

// AllRewards returns the reward catalog, all locked.
func AllRewards() []domain.Reward {
	return []domain.Reward{
		{ID: "theme_emerald", Name: "Emerald Theme", Description: "A calm green color theme", Icon: "🎨", Type: domain.RewardTheme},
		{ID: "badge_tracker", Name: "Tracker Badge", Description: "Show off your tracking habit", Icon: "🏅", Type: domain.RewardBadge},
		{ID: "insight_spending", Name: "Spending Patterns", Description: "See where your money goes by weekday", Icon: "🔎", Type: domain.RewardInsight},
		{ID: "feature_categories", Name: "Custom Categories", Description: "Create your own spending categories", Icon: "🏷️", Type: domain.RewardFeature},
		{ID: "theme_gold", Name: "Gold Theme", Description: "A premium gold color theme", Icon: "✨", Type: domain.RewardTheme},
		{ID: "insight_forecast", Name: "Savings Forecast", Description: "Project your savings six months ahead", Icon: "🔮", Type: domain.RewardInsight},
		{ID: "feature_reports", Name: "Advanced Reports", Description: "Unlock detailed trend reports", Icon: "📑", Type: domain.RewardFeature},
		{ID: "badge_finance_guru", Name: "Finance Guru", Description: "Reached the top level", Icon: "🧙", Type: domain.RewardBadge},
	}
}

// RequiredLevel returns the gate for a reward ID.
func RequiredLevel(id string) (int, bool) {
	lvl, ok := RewardLevelGates[id]
	return lvl, ok
}

// AvailableRewards returns locked rewards whose gate is at or below the
// profile's level.
func AvailableRewards(p *domain.Profile) []domain.Reward {
	var out []domain.Reward
	for _, r := range p.Rewards {
		if r.IsUnlocked {
			continue
		}
		if lvl, ok := RequiredLevel(r.ID); ok && lvl <= p.Level {
			out = append(out, r)
		}
	}
	return out
}

// UnlockReward unlocks a locked reward. Returns nil for unknown or
// already-unlocked IDs; unlocking is idempotent.
func UnlockReward(p *domain.Profile, id string, now time.Time) *domain.Reward {
	r := p.FindReward(id)
	if r == nil || r.IsUnlocked {
		return nil
	}
	at := now
	r.IsUnlocked = true
	r.DateUnlocked = &at
	out := *r
	return &out
}
