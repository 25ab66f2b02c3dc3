package engagement

import (
	"time"

	"github.com/google/uuid"

	"github.com/tutu-network/coinquest/internal/domain"
)

// missionPool is the set of mission templates the catalog issues.
var missionPool = []domain.MissionTemplate{
	// Daily
	{ID: "daily_log_3", Name: "Daily Logger", Description: "Record 3 transactions today", Icon: "✍️",
		Type: domain.MissionDaily, XPReward: 20, MaxProgress: 3,
		Trigger: &domain.Trigger{Action: ActionAddTransaction, Progress: increment}},
	{ID: "daily_checkin", Name: "Check In", Description: "Open the app and review today", Icon: "👋",
		Type: domain.MissionDaily, XPReward: 10, MaxProgress: 1,
		Trigger: &domain.Trigger{Action: ActionDailyActivity, Progress: once}},

	// Weekly
	{ID: "weekly_review", Name: "Weekly Review", Description: "Complete this week's analysis", Icon: "🗓️",
		Type: domain.MissionWeekly, XPReward: 50, MaxProgress: 1,
		Trigger: &domain.Trigger{Action: ActionWeeklyAnalysis, Progress: once}},
	{ID: "weekly_reports", Name: "Report Reader", Description: "Open 3 reports this week", Icon: "📈",
		Type: domain.MissionWeekly, XPReward: 30, MaxProgress: 3,
		Trigger: &domain.Trigger{Action: ActionViewReport, Progress: increment}},
	{ID: "weekly_budget", Name: "On Budget", Description: "Pass a budget check this week", Icon: "🎯",
		Type: domain.MissionWeekly, XPReward: 40, MaxProgress: 1,
		Trigger: &domain.Trigger{Action: ActionBudgetCompliance, Progress: once, Condition: metaTrue("compliant")}},
	{ID: "weekly_frugal", Name: "Fun on a Budget", Description: "3 days without entertainment spending", Icon: "🧘",
		Type: domain.MissionWeekly, XPReward: 60, MaxProgress: 3,
		Trigger: &domain.Trigger{Action: ActionNoEntertainmentDay, Progress: increment}},

	// Monthly
	{ID: "monthly_saver", Name: "Monthly Saver", Description: "Reach a 15% savings rate this month", Icon: "🐷",
		Type: domain.MissionMonthly, XPReward: 150, MaxProgress: 15,
		Trigger: &domain.Trigger{Action: ActionSavingsCheck, Progress: fromMeta("savingsRate")}},
	{ID: "monthly_optimizer", Name: "Trim the Fat", Description: "Apply 3 expense optimizations this month", Icon: "✂️",
		Type: domain.MissionMonthly, XPReward: 100, MaxProgress: 3,
		Trigger: &domain.Trigger{Action: ActionExpenseOptimization, Progress: increment}},

	// Special
	{ID: "special_first_goal", Name: "Goal Rush", Description: "Reach a savings goal within 30 days", Icon: "🚀",
		Type: domain.MissionSpecial, XPReward: 100, MaxProgress: 1,
		Trigger: &domain.Trigger{Action: ActionGoalAchieved, Progress: once}},
}

// specialWindow is how long a special mission stays open after issue.
const specialWindow = 30 * 24 * time.Hour

// completedRetention bounds how long recurring completions stay in history.
const completedRetention = 35 * 24 * time.Hour

// AllMissionTemplates returns the mission template catalog.
func AllMissionTemplates() []domain.MissionTemplate {
	out := make([]domain.MissionTemplate, len(missionPool))
	copy(out, missionPool)
	return out
}

// IssueMission creates a fresh instance of tmpl valid for the current period.
func IssueMission(tmpl domain.MissionTemplate, now time.Time) domain.Mission {
	return domain.Mission{
		ID:          "mission-" + tmpl.ID + "-" + uuid.New().String()[:8],
		TemplateID:  tmpl.ID,
		Name:        tmpl.Name,
		Description: tmpl.Description,
		Icon:        tmpl.Icon,
		Type:        tmpl.Type,
		XPReward:    tmpl.XPReward,
		MaxProgress: tmpl.MaxProgress,
		ExpiresAt:   periodEnd(tmpl.Type, now),
		Trigger:     tmpl.Trigger,
	}
}

// StartMission stamps StartedAt on an active mission.
func StartMission(p *domain.Profile, id string, now time.Time) (*domain.Mission, error) {
	m := p.FindActiveMission(id)
	if m == nil {
		return nil, domain.ErrMissionNotFound
	}
	at := now
	m.StartedAt = &at
	return m, nil
}

// SweepExpired drops active missions whose deadline is strictly before now.
// Expired missions are not recorded as completed.
func SweepExpired(p *domain.Profile, now time.Time) []domain.Mission {
	var expired []domain.Mission
	kept := p.Missions.Active[:0]
	for _, m := range p.Missions.Active {
		if m.IsExpired(now) {
			expired = append(expired, m)
			continue
		}
		kept = append(kept, m)
	}
	p.Missions.Active = kept
	return expired
}

// CompleteMission moves an active mission to Completed exactly once.
// Returns false if id is not active.
func CompleteMission(p *domain.Profile, id string, now time.Time) (domain.Mission, bool) {
	for i := range p.Missions.Active {
		if p.Missions.Active[i].ID != id {
			continue
		}
		m := p.Missions.Active[i]
		at := now
		m.Progress = m.MaxProgress
		m.IsCompleted = true
		m.CompletedAt = &at

		p.Missions.Active = append(p.Missions.Active[:i], p.Missions.Active[i+1:]...)
		p.Missions.Completed = append(p.Missions.Completed, m)
		return m, true
	}
	return domain.Mission{}, false
}

// RefreshMissions issues recurring templates that have no active instance
// and were not already completed in the current period. Special templates
// are only issued with a new profile.
func RefreshMissions(p *domain.Profile, templates []domain.MissionTemplate, now time.Time) []domain.Mission {
	var issued []domain.Mission
	for _, tmpl := range templates {
		if tmpl.Type == domain.MissionSpecial {
			continue
		}
		if hasActiveInstance(p, tmpl.ID) || completedSince(p, tmpl.ID, periodStart(tmpl.Type, now)) {
			continue
		}
		m := IssueMission(tmpl, now)
		p.Missions.Active = append(p.Missions.Active, m)
		issued = append(issued, m)
	}
	return issued
}

// PruneCompleted drops recurring completions that are both outside their
// template's current period and older than completedRetention. Special
// missions are kept.
func PruneCompleted(p *domain.Profile, now time.Time) []domain.Mission {
	cutoff := now.Add(-completedRetention)
	kept := p.Missions.Completed[:0]
	var pruned []domain.Mission
	for _, m := range p.Missions.Completed {
		if m.Type != domain.MissionSpecial && m.CompletedAt != nil &&
			m.CompletedAt.Before(cutoff) && m.CompletedAt.Before(periodStart(m.Type, now)) {
			pruned = append(pruned, m)
			continue
		}
		kept = append(kept, m)
	}
	p.Missions.Completed = kept
	return pruned
}

func hasActiveInstance(p *domain.Profile, templateID string) bool {
	for _, m := range p.Missions.Active {
		if m.TemplateID == templateID {
			return true
		}
	}
	return false
}

func completedSince(p *domain.Profile, templateID string, since time.Time) bool {
	for _, m := range p.Missions.Completed {
		if m.TemplateID == templateID && m.CompletedAt != nil && !m.CompletedAt.Before(since) {
			return true
		}
	}
	return false
}

// ─── Periods ────────────────────────────────────────────────────────────────

// periodStart returns the start of the current period in now's location.
func periodStart(t domain.MissionType, now time.Time) time.Time {
	day := startOfDay(now)
	switch t {
	case domain.MissionWeekly:
		daysSinceMonday := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -daysSinceMonday)
	case domain.MissionMonthly:
		return time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
	default:
		return day
	}
}

// periodEnd returns the expiry for a mission issued at now.
func periodEnd(t domain.MissionType, now time.Time) time.Time {
	switch t {
	case domain.MissionWeekly:
		return nextMonday(now)
	case domain.MissionMonthly:
		return periodStart(t, now).AddDate(0, 1, 0)
	case domain.MissionSpecial:
		return now.Add(specialWindow)
	default:
		return startOfDay(now).AddDate(0, 0, 1)
	}
}

// nextMonday returns the next Monday at 00:00 after the given time.
func nextMonday(t time.Time) time.Time {
	day := startOfDay(t)
	daysUntilMonday := (8 - int(day.Weekday())) % 7
	if daysUntilMonday == 0 {
		daysUntilMonday = 7 // If today is Monday, next Monday
	}
	return day.AddDate(0, 0, daysUntilMonday)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
