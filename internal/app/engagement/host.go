package engagement

import (
	"time"

	"github.com/tutu-network/coinquest/internal/domain"
)

// ─── Host Event Surface ─────────────────────────────────────────────────────
// One method per host action. Each converts its payload to Metadata and runs
// achievements, then missions, for the action.

// TransactionInfo summarizes a recorded transaction.
type TransactionInfo struct {
	Amount   float64 `json:"amount"`
	Category string  `json:"category"`
	IsIncome bool    `json:"isIncome"`
}

// GoalInfo summarizes a reached savings goal.
type GoalInfo struct {
	GoalID       string  `json:"goalId"`
	TargetAmount float64 `json:"targetAmount"`
}

// BudgetCheck is the outcome of a budget-compliance check.
type BudgetCheck struct {
	Compliant         bool    `json:"compliant"`
	SpentRatio        float64 `json:"spentRatio"`
	ConsecutiveMonths int     `json:"consecutiveMonths"`
}

func (t TransactionInfo) meta() domain.Metadata {
	return domain.Metadata{"amount": t.Amount, "category": t.Category, "isIncome": t.IsIncome}
}

// TransactionAdded records a new transaction.
func (e *Engine) TransactionAdded(t TransactionInfo) ActionResult {
	return e.HandleAction(ActionAddTransaction, t.meta())
}

// ReportViewed records that the user opened a report.
func (e *Engine) ReportViewed(reportType string) ActionResult {
	return e.HandleAction(ActionViewReport, domain.Metadata{"reportType": reportType})
}

// FinancialHealthUpdated records a new financial-health score (0-100).
func (e *Engine) FinancialHealthUpdated(score float64) ActionResult {
	return e.HandleAction(ActionFinancialHealth, domain.Metadata{"score": score})
}

// GoalAchieved records a reached savings goal.
func (e *Engine) GoalAchieved(g GoalInfo) ActionResult {
	return e.HandleAction(ActionGoalAchieved, domain.Metadata{"goalId": g.GoalID, "targetAmount": g.TargetAmount})
}

// WeeklyAnalysisCompleted records a finished weekly review.
func (e *Engine) WeeklyAnalysisCompleted() ActionResult {
	return e.HandleAction(ActionWeeklyAnalysis, domain.Metadata{})
}

// BudgetComplianceChecked records a budget check result.
func (e *Engine) BudgetComplianceChecked(b BudgetCheck) ActionResult {
	return e.HandleAction(ActionBudgetCompliance, domain.Metadata{
		"compliant":         b.Compliant,
		"spentRatio":        b.SpentRatio,
		"consecutiveMonths": b.ConsecutiveMonths,
	})
}

// SavingsChecked records the current savings rate in percent.
func (e *Engine) SavingsChecked(savingsRate float64) ActionResult {
	return e.HandleAction(ActionSavingsCheck, domain.Metadata{"savingsRate": savingsRate})
}

// ExpenseOptimized records an applied expense optimization.
func (e *Engine) ExpenseOptimized(saved float64) ActionResult {
	return e.HandleAction(ActionExpenseOptimization, domain.Metadata{"saved": saved})
}

// NoEntertainmentDay records a day without entertainment spending.
func (e *Engine) NoEntertainmentDay() ActionResult {
	return e.HandleAction(ActionNoEntertainmentDay, domain.Metadata{})
}

// DailyActivityCompleted counts today toward the streak, then runs the
// daily_activity triggers.
func (e *Engine) DailyActivityCompleted() ActionResult {
	var res ActionResult
	e.run(func(now time.Time) {
		streak := e.checkStreakLocked(now)
		res.Streak = &streak
		res.Achievements = e.checkAchievementsLocked(ActionDailyActivity, domain.Metadata{}, now)
		res.Missions = e.checkMissionsLocked(ActionDailyActivity, domain.Metadata{}, now)
	})
	return res
}
