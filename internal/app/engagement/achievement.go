package engagement

import (
	"time"

	"github.com/tutu-network/coinquest/internal/domain"
)

// completeAchievement marks a reached achievement as completed and keeps the
// profile counter in sync. Returns false when it was already completed.
func completeAchievement(p *domain.Profile, a *domain.Achievement, now time.Time) bool {
	if a.IsCompleted {
		return false
	}
	at := now
	a.Progress = a.MaxProgress
	a.IsCompleted = true
	a.DateCompleted = &at
	p.CompletedAchievements = p.CountCompleted()
	return true
}

// ─── Progress Rules ─────────────────────────────────────────────────────────

// increment adds one per matching event.
func increment(current int, _ domain.Metadata) int { return current + 1 }

// fromMeta uses a metadata value as absolute progress.
func fromMeta(key string) domain.ProgressFunc {
	return func(current int, meta domain.Metadata) int {
		if !meta.Has(key) {
			return current
		}
		return meta.Int(key)
	}
}

// once completes on the first matching event.
func once(_ int, _ domain.Metadata) int { return 1 }

func metaAtLeast(key string, min float64) domain.ConditionFunc {
	return func(meta domain.Metadata, _ int, _ *domain.Profile) bool {
		return meta.Float(key) >= min
	}
}

func metaTrue(key string) domain.ConditionFunc {
	return func(meta domain.Metadata, _ int, _ *domain.Profile) bool {
		return meta.Bool(key)
	}
}

func metaNonEmpty(key string) domain.ConditionFunc {
	return func(meta domain.Metadata, _ int, _ *domain.Profile) bool {
		return meta.String(key) != ""
	}
}

// ─── Achievement Definitions ────────────────────────────────────────────────
// 24 achievements across the 6 habit types.

// AllAchievements returns the full achievement catalog with triggers attached.
func AllAchievements() []domain.Achievement {
	return []domain.Achievement{
		// ── Tracking (5) ───────────────────────────────────────────────
		{
			ID: "first_transaction", Name: "First Step", Description: "Record your first transaction",
			Icon: "📝", Type: domain.AchTracking, Rarity: domain.RarityCommon, XPReward: 10, MaxProgress: 1,
			Trigger: &domain.Trigger{Action: ActionAddTransaction, Progress: increment},
		},
		{
			ID: "transactions_10", Name: "Getting the Hang of It", Description: "Record 10 transactions",
			Icon: "🧾", Type: domain.AchTracking, Rarity: domain.RarityCommon, XPReward: 25, MaxProgress: 10,
			Trigger: &domain.Trigger{Action: ActionAddTransaction, Progress: increment},
		},
		{
			ID: "transactions_50", Name: "Diligent Tracker", Description: "Record 50 transactions",
			Icon: "📒", Type: domain.AchTracking, Rarity: domain.RarityUncommon, XPReward: 75, MaxProgress: 50,
			Trigger: &domain.Trigger{Action: ActionAddTransaction, Progress: increment},
		},
		{
			ID: "transactions_100", Name: "Bookkeeper", Description: "Record 100 transactions",
			Icon: "📚", Type: domain.AchTracking, Rarity: domain.RarityRare, XPReward: 150, MaxProgress: 100,
			Trigger: &domain.Trigger{Action: ActionAddTransaction, Progress: increment},
		},
		{
			ID: "categorized_25", Name: "Organizer", Description: "Record 25 categorized transactions",
			Icon: "🗂️", Type: domain.AchTracking, Rarity: domain.RarityUncommon, XPReward: 50, MaxProgress: 25,
			Trigger: &domain.Trigger{Action: ActionAddTransaction, Progress: increment, Condition: metaNonEmpty("category")},
		},

		// ── Budgeting (4) ──────────────────────────────────────────────
		{
			ID: "budget_aware", Name: "Budget Aware", Description: "Run your first budget check",
			Icon: "📊", Type: domain.AchBudgeting, Rarity: domain.RarityCommon, XPReward: 15, MaxProgress: 1,
			Trigger: &domain.Trigger{Action: ActionBudgetCompliance, Progress: once},
		},
		{
			ID: "budget_keeper", Name: "Budget Keeper", Description: "Stay within budget on 4 checks",
			Icon: "🎯", Type: domain.AchBudgeting, Rarity: domain.RarityUncommon, XPReward: 100, MaxProgress: 4,
			Trigger: &domain.Trigger{Action: ActionBudgetCompliance, Progress: increment, Condition: metaTrue("compliant")},
		},
		{
			ID: "budget_master", Name: "Budget Master", Description: "Stay within budget 3 months in a row",
			Icon: "🏆", Type: domain.AchBudgeting, Rarity: domain.RarityEpic, XPReward: 300, MaxProgress: 3,
			Trigger: &domain.Trigger{Action: ActionBudgetCompliance, Progress: fromMeta("consecutiveMonths")},
		},
		{
			ID: "expense_cutter", Name: "Cost Cutter", Description: "Apply 5 expense optimizations",
			Icon: "✂️", Type: domain.AchBudgeting, Rarity: domain.RarityUncommon, XPReward: 100, MaxProgress: 5,
			Trigger: &domain.Trigger{Action: ActionExpenseOptimization, Progress: increment},
		},

		// ── Saving (4) ─────────────────────────────────────────────────
		{
			ID: "savings_starter", Name: "Saver", Description: "Reach a 10% savings rate",
			Icon: "🐷", Type: domain.AchSaving, Rarity: domain.RarityCommon, XPReward: 50, MaxProgress: 1,
			Trigger: &domain.Trigger{Action: ActionSavingsCheck, Progress: once, Condition: metaAtLeast("savingsRate", 10)},
		},
		{
			ID: "savings_pro", Name: "Super Saver", Description: "Reach a 20% savings rate",
			Icon: "💰", Type: domain.AchSaving, Rarity: domain.RarityRare, XPReward: 200, MaxProgress: 20,
			Trigger: &domain.Trigger{Action: ActionSavingsCheck, Progress: fromMeta("savingsRate")},
		},
		{
			ID: "frugal_week", Name: "Frugal Week", Description: "Log 7 days without entertainment spending",
			Icon: "🧘", Type: domain.AchSaving, Rarity: domain.RarityUncommon, XPReward: 75, MaxProgress: 7,
			Trigger: &domain.Trigger{Action: ActionNoEntertainmentDay, Progress: increment},
		},
		{
			ID: "frugal_month", Name: "Monk Mode", Description: "Log 30 days without entertainment spending",
			Icon: "🏔️", Type: domain.AchSaving, Rarity: domain.RarityEpic, XPReward: 300, MaxProgress: 30,
			Trigger: &domain.Trigger{Action: ActionNoEntertainmentDay, Progress: increment},
		},

		// ── Learning (4) ───────────────────────────────────────────────
		{
			ID: "first_report", Name: "Curious Mind", Description: "Open your first report",
			Icon: "🔍", Type: domain.AchLearning, Rarity: domain.RarityCommon, XPReward: 10, MaxProgress: 1,
			Trigger: &domain.Trigger{Action: ActionViewReport, Progress: increment},
		},
		{
			ID: "reports_25", Name: "Analyst", Description: "Open 25 reports",
			Icon: "📈", Type: domain.AchLearning, Rarity: domain.RarityUncommon, XPReward: 100, MaxProgress: 25,
			Trigger: &domain.Trigger{Action: ActionViewReport, Progress: increment},
		},
		{
			ID: "weekly_reviewer", Name: "Weekly Reviewer", Description: "Complete 4 weekly analyses",
			Icon: "🗓️", Type: domain.AchLearning, Rarity: domain.RarityRare, XPReward: 150, MaxProgress: 4,
			Trigger: &domain.Trigger{Action: ActionWeeklyAnalysis, Progress: increment},
		},
		{
			ID: "healthy_finances", Name: "Health Conscious", Description: "Reach a financial health score of 70",
			Icon: "❤️", Type: domain.AchLearning, Rarity: domain.RarityUncommon, XPReward: 100, MaxProgress: 1,
			Trigger: &domain.Trigger{Action: ActionFinancialHealth, Progress: once, Condition: metaAtLeast("score", 70)},
		},

		// ── Consistency (4) ────────────────────────────────────────────
		{
			ID: "streak_3", Name: "Warming Up", Description: "Keep a 3-day streak",
			Icon: "🔥", Type: domain.AchConsistency, Rarity: domain.RarityCommon, XPReward: 20, MaxProgress: 3,
			Trigger: &domain.Trigger{Action: ActionStreakUpdated, Progress: fromMeta("newStreak")},
		},
		{
			ID: "streak_7", Name: "Week Warrior", Description: "Keep a 7-day streak",
			Icon: "💪", Type: domain.AchConsistency, Rarity: domain.RarityUncommon, XPReward: 50, MaxProgress: 7,
			Trigger: &domain.Trigger{Action: ActionStreakUpdated, Progress: fromMeta("newStreak")},
		},
		{
			ID: "streak_30", Name: "Monthly Machine", Description: "Keep a 30-day streak",
			Icon: "🗓️", Type: domain.AchConsistency, Rarity: domain.RarityEpic, XPReward: 250, MaxProgress: 30,
			Trigger: &domain.Trigger{Action: ActionStreakUpdated, Progress: fromMeta("newStreak")},
		},
		{
			ID: "streak_100", Name: "Centurion", Description: "Keep a 100-day streak",
			Icon: "🏛️", Type: domain.AchConsistency, Rarity: domain.RarityLegendary, XPReward: 1000, MaxProgress: 100,
			Trigger: &domain.Trigger{Action: ActionStreakUpdated, Progress: fromMeta("newStreak")},
		},

		// ── Goals (3) ──────────────────────────────────────────────────
		{
			ID: "first_goal", Name: "Dream Achiever", Description: "Reach your first savings goal",
			Icon: "🌟", Type: domain.AchGoals, Rarity: domain.RarityUncommon, XPReward: 50, MaxProgress: 1,
			Trigger: &domain.Trigger{Action: ActionGoalAchieved, Progress: increment},
		},
		{
			ID: "goals_5", Name: "Goal Getter", Description: "Reach 5 savings goals",
			Icon: "🎖️", Type: domain.AchGoals, Rarity: domain.RarityRare, XPReward: 200, MaxProgress: 5,
			Trigger: &domain.Trigger{Action: ActionGoalAchieved, Progress: increment},
		},
		{
			ID: "big_goal", Name: "Big Dreamer", Description: "Reach a goal of 10,000 or more",
			Icon: "👑", Type: domain.AchGoals, Rarity: domain.RarityLegendary, XPReward: 500, MaxProgress: 1,
			Trigger: &domain.Trigger{Action: ActionGoalAchieved, Progress: once, Condition: metaAtLeast("targetAmount", 10000)},
		},
	}
}
