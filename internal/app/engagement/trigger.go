package engagement

import (
	"github.com/tutu-network/coinquest/internal/domain"
)

// Progression actions emitted by the host application.
const (
	ActionAddTransaction      = "add_transaction"
	ActionViewReport          = "view_report"
	ActionFinancialHealth     = "financial_health_updated"
	ActionGoalAchieved        = "goal_achieved"
	ActionWeeklyAnalysis      = "weekly_analysis"
	ActionBudgetCompliance    = "budget_compliance"
	ActionSavingsCheck        = "savings_check"
	ActionExpenseOptimization = "expense_optimization"
	ActionDailyActivity       = "daily_activity"
	ActionNoEntertainmentDay  = "no_entertainment_day"
	ActionStreakUpdated       = "streak_updated"
)

// KnownActions lists every action the catalog reacts to.
var KnownActions = []string{
	ActionAddTransaction,
	ActionViewReport,
	ActionFinancialHealth,
	ActionGoalAchieved,
	ActionWeeklyAnalysis,
	ActionBudgetCompliance,
	ActionSavingsCheck,
	ActionExpenseOptimization,
	ActionDailyActivity,
	ActionNoEntertainmentDay,
	ActionStreakUpdated,
}

// IsKnownAction reports whether action is in KnownActions.
func IsKnownAction(action string) bool {
	for _, a := range KnownActions {
		if a == action {
			return true
		}
	}
	return false
}

// evaluate applies matching triggers to entries and returns the entries whose
// progress moved and, separately, those that reached their target.
// Progress never decreases and never exceeds the target.
func evaluate[T domain.Progressable](entries []T, action string, meta domain.Metadata, p *domain.Profile) (updated, reached []T) {
	for _, e := range entries {
		trig := e.EntryTrigger()
		if trig == nil || trig.Action != action || e.Completed() {
			continue
		}
		current := e.CurrentProgress()
		if trig.Condition != nil && !trig.Condition(meta, current, p) {
			continue
		}
		if trig.Progress == nil {
			continue
		}
		next := trig.Progress(current, meta)
		if next <= current {
			continue
		}
		if next > e.Target() {
			next = e.Target()
		}
		e.SetProgress(next)
		updated = append(updated, e)
		if next >= e.Target() {
			reached = append(reached, e)
		}
	}
	return updated, reached
}

// CheckAchievements advances achievements whose trigger matches action.
// Completion is left to the caller so XP and events can be applied.
func CheckAchievements(p *domain.Profile, action string, meta domain.Metadata) (updated, reached []*domain.Achievement) {
	entries := make([]*domain.Achievement, len(p.Achievements))
	for i := range p.Achievements {
		entries[i] = &p.Achievements[i]
	}
	return evaluate(entries, action, meta, p)
}

// CheckMissions advances active missions whose trigger matches action.
// Returned pointers are only valid until Missions.Active is modified, so
// callers should collect IDs before completing.
func CheckMissions(p *domain.Profile, action string, meta domain.Metadata) (updated, reached []*domain.Mission) {
	entries := make([]*domain.Mission, len(p.Missions.Active))
	for i := range p.Missions.Active {
		entries[i] = &p.Missions.Active[i]
	}
	return evaluate(entries, action, meta, p)
}

// advanceTo sets progress directly, with the same monotonic and clamping
// rules as trigger evaluation. It reports whether progress moved and
// whether the target was reached.
func advanceTo(e domain.Progressable, progress int) (moved, reached bool) {
	if e.Completed() {
		return false, false
	}
	current := e.CurrentProgress()
	if progress <= current {
		return false, false
	}
	if progress > e.Target() {
		progress = e.Target()
	}
	e.SetProgress(progress)
	return true, progress >= e.Target()
}
