// Package domain holds the pure progression types: profile, achievements,
// missions, rewards, triggers, and the notification records derived from them.
// Nothing in here touches storage or the clock.
package domain

import "time"

// ─── Taxonomies ─────────────────────────────────────────────────────────────

// AchievementType groups achievements by the financial habit they reward.
type AchievementType string

const (
	AchTracking    AchievementType = "tracking"
	AchBudgeting   AchievementType = "budgeting"
	AchSaving      AchievementType = "saving"
	AchLearning    AchievementType = "learning"
	AchConsistency AchievementType = "consistency"
	AchGoals       AchievementType = "goals"
)

// Rarity is display weighting only.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// MissionType sets the expected lifetime of a mission instance.
type MissionType string

const (
	MissionDaily   MissionType = "daily"
	MissionWeekly  MissionType = "weekly"
	MissionMonthly MissionType = "monthly"
	MissionSpecial MissionType = "special"
)

// RewardType categorizes unlockable rewards.
type RewardType string

const (
	RewardTheme   RewardType = "theme"
	RewardFeature RewardType = "feature"
	RewardBadge   RewardType = "badge"
	RewardInsight RewardType = "insight"
)

// XPSource categorizes how XP was earned.
type XPSource string

const (
	XPAchievement XPSource = "ACHIEVEMENT"
	XPMission     XPSource = "MISSION"
	XPStreakBonus XPSource = "STREAK_BONUS"
	XPManual      XPSource = "MANUAL"
)

// ─── Triggers ───────────────────────────────────────────────────────────────

// ProgressFunc computes the absolute new progress from the current value
// and the event metadata. It must be pure.
type ProgressFunc func(current int, meta Metadata) int

// ConditionFunc guards a trigger. The profile is only valid for the call.
type ConditionFunc func(meta Metadata, current int, p *Profile) bool

// Trigger binds an achievement or mission to a domain action.
type Trigger struct {
	Action    string
	Progress  ProgressFunc
	Condition ConditionFunc // optional
}

// Progressable is an entry whose progress is advanced by a Trigger.
// Implemented by *Achievement and *Mission.
type Progressable interface {
	EntryID() string
	EntryTrigger() *Trigger
	Completed() bool
	CurrentProgress() int
	Target() int
	SetProgress(progress int)
}

// ─── Achievements ───────────────────────────────────────────────────────────

// Achievement is a permanent catalog entry. Once IsCompleted is set the
// progress, completion date and status never change again.
type Achievement struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Icon          string          `json:"icon"`
	Type          AchievementType `json:"type"`
	Rarity        Rarity          `json:"rarity"`
	XPReward      int64           `json:"xp_reward"`
	Progress      int             `json:"progress"`
	MaxProgress   int             `json:"max_progress"`
	IsCompleted   bool            `json:"is_completed"`
	DateCompleted *time.Time      `json:"date_completed,omitempty"`
	Trigger       *Trigger        `json:"-"` // resolved from the catalog by ID
}

func (a *Achievement) EntryID() string        { return a.ID }
func (a *Achievement) EntryTrigger() *Trigger { return a.Trigger }
func (a *Achievement) Completed() bool        { return a.IsCompleted }
func (a *Achievement) CurrentProgress() int   { return a.Progress }
func (a *Achievement) Target() int            { return a.MaxProgress }
func (a *Achievement) SetProgress(p int)      { a.Progress = p }

// ─── Missions ───────────────────────────────────────────────────────────────

// Mission is a time-boxed challenge. TemplateID keys the trigger registry;
// ID is unique per issued instance.
type Mission struct {
	ID          string      `json:"id"`
	TemplateID  string      `json:"template_id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Icon        string      `json:"icon"`
	Type        MissionType `json:"type"`
	XPReward    int64       `json:"xp_reward"`
	Progress    int         `json:"progress"`
	MaxProgress int         `json:"max_progress"`
	IsCompleted bool        `json:"is_completed"`
	ExpiresAt   time.Time   `json:"expires_at"`
	StartedAt   *time.Time  `json:"started_at,omitempty"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
	Trigger     *Trigger    `json:"-"`
}

func (m *Mission) EntryID() string        { return m.ID }
func (m *Mission) EntryTrigger() *Trigger { return m.Trigger }
func (m *Mission) Completed() bool        { return m.IsCompleted }
func (m *Mission) CurrentProgress() int   { return m.Progress }
func (m *Mission) Target() int            { return m.MaxProgress }
func (m *Mission) SetProgress(p int)      { m.Progress = p }

// IsExpired reports whether the mission deadline passed strictly before now.
func (m Mission) IsExpired(now time.Time) bool {
	return now.After(m.ExpiresAt)
}

// ProgressPct returns completion percentage (0-100).
func (m Mission) ProgressPct() float64 {
	if m.MaxProgress <= 0 {
		return 100.0
	}
	pct := float64(m.Progress) / float64(m.MaxProgress) * 100.0
	if pct > 100.0 {
		pct = 100.0
	}
	return pct
}

// MissionTemplate describes a mission that can be issued.
type MissionTemplate struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Icon        string      `json:"icon"`
	Type        MissionType `json:"type"`
	XPReward    int64       `json:"xp_reward"`
	MaxProgress int         `json:"max_progress"`
	Trigger     *Trigger    `json:"-"`
}

// MissionSet partitions the tracked missions. An instance is in exactly one
// of the two slices.
type MissionSet struct {
	Active    []Mission `json:"active"`
	Completed []Mission `json:"completed"`
}

// ─── Rewards ────────────────────────────────────────────────────────────────

// Reward is an unlockable perk. Eligibility is decided by the level gate
// table, not stored here.
type Reward struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	Icon         string     `json:"icon"`
	Type         RewardType `json:"type"`
	IsUnlocked   bool       `json:"is_unlocked"`
	DateUnlocked *time.Time `json:"date_unlocked,omitempty"`
}

// ─── Profile ────────────────────────────────────────────────────────────────

// Profile is the aggregate root. Level is derived from XP on every change
// and CompletedAchievements always mirrors the achievements slice.
type Profile struct {
	XP                    int64         `json:"xp"`
	Level                 int           `json:"level"`
	StreakDays            int           `json:"streak_days"`
	LongestStreak         int           `json:"longest_streak"`
	LastActiveDate        string        `json:"last_active_date,omitempty"` // YYYY-MM-DD
	Achievements          []Achievement `json:"achievements"`
	CompletedAchievements int           `json:"completed_achievements"`
	TotalAchievements     int           `json:"total_achievements"`
	Missions              MissionSet    `json:"missions"`
	Rewards               []Reward      `json:"rewards"`
	CreatedAt             time.Time     `json:"created_at"`
	UpdatedAt             time.Time     `json:"updated_at"`
}

// CountCompleted counts achievements with IsCompleted set.
func (p *Profile) CountCompleted() int {
	n := 0
	for i := range p.Achievements {
		if p.Achievements[i].IsCompleted {
			n++
		}
	}
	return n
}

// FindAchievement returns a pointer into the profile, or nil.
func (p *Profile) FindAchievement(id string) *Achievement {
	for i := range p.Achievements {
		if p.Achievements[i].ID == id {
			return &p.Achievements[i]
		}
	}
	return nil
}

// FindActiveMission returns a pointer into Missions.Active, or nil.
func (p *Profile) FindActiveMission(id string) *Mission {
	for i := range p.Missions.Active {
		if p.Missions.Active[i].ID == id {
			return &p.Missions.Active[i]
		}
	}
	return nil
}

// FindReward returns a pointer into the profile, or nil.
func (p *Profile) FindReward(id string) *Reward {
	for i := range p.Rewards {
		if p.Rewards[i].ID == id {
			return &p.Rewards[i]
		}
	}
	return nil
}

// Clone returns a deep copy. Triggers are shared since they are immutable.
func (p Profile) Clone() Profile {
	cp := p
	cp.Achievements = make([]Achievement, len(p.Achievements))
	for i, a := range p.Achievements {
		a.DateCompleted = cloneTime(a.DateCompleted)
		cp.Achievements[i] = a
	}
	cp.Missions.Active = cloneMissions(p.Missions.Active)
	cp.Missions.Completed = cloneMissions(p.Missions.Completed)
	cp.Rewards = make([]Reward, len(p.Rewards))
	for i, r := range p.Rewards {
		r.DateUnlocked = cloneTime(r.DateUnlocked)
		cp.Rewards[i] = r
	}
	return cp
}

func cloneMissions(in []Mission) []Mission {
	out := make([]Mission, len(in))
	for i, m := range in {
		m.StartedAt = cloneTime(m.StartedAt)
		m.CompletedAt = cloneTime(m.CompletedAt)
		out[i] = m
	}
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// ─── Notification Types ─────────────────────────────────────────────────────

// NotificationType categorizes notifications.
type NotificationType string

const (
	NotifyAchievement     NotificationType = "achievement"
	NotifyLevelUp         NotificationType = "level_up"
	NotifyMissionComplete NotificationType = "mission_complete"
	NotifyRewardUnlocked  NotificationType = "reward_unlocked"
	NotifyStreakMilestone NotificationType = "streak_milestone"
)

// Notification is a user-facing message.
type Notification struct {
	ID        int64            `json:"id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Body      string           `json:"body"`
	CreatedAt time.Time        `json:"created_at"`
	Shown     bool             `json:"shown"`
}

// NotificationPolicy governs how often notifications are stored for display.
type NotificationPolicy struct {
	MaxPerDay  int    `json:"max_per_day"`
	QuietStart string `json:"quiet_start"` // "22:00"
	QuietEnd   string `json:"quiet_end"`   // "08:00"
}

// DefaultNotificationPolicy returns the default policy.
func DefaultNotificationPolicy() NotificationPolicy {
	return NotificationPolicy{
		MaxPerDay:  3,
		QuietStart: "22:00",
		QuietEnd:   "08:00",
	}
}

// ─── XP Ledger ──────────────────────────────────────────────────────────────

// XPEntry is one append-only record of XP awarded.
type XPEntry struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Source    XPSource  `json:"source"`
	Amount    int64     `json:"amount"`
	Balance   int64     `json:"balance"` // total XP after this entry
	Level     int       `json:"level"`
}
