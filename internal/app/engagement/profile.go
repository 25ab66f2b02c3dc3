package engagement

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/tutu-network/coinquest/internal/domain"
)

// Catalog is the static content a profile is built from. Triggers live here
// and are re-attached to stored entries by ID.
type Catalog struct {
	Achievements []domain.Achievement
	Missions     []domain.MissionTemplate
	Rewards      []domain.Reward
}

// DefaultCatalog returns the built-in finance catalog.
func DefaultCatalog() Catalog {
	return Catalog{
		Achievements: AllAchievements(),
		Missions:     AllMissionTemplates(),
		Rewards:      AllRewards(),
	}
}

// NewProfile builds a fresh level-1 profile with one instance of every
// mission template.
func (c Catalog) NewProfile(now time.Time) domain.Profile {
	p := domain.Profile{
		Level:             1,
		Achievements:      make([]domain.Achievement, len(c.Achievements)),
		TotalAchievements: len(c.Achievements),
		Missions: domain.MissionSet{
			Active:    make([]domain.Mission, 0, len(c.Missions)),
			Completed: []domain.Mission{},
		},
		Rewards:   make([]domain.Reward, len(c.Rewards)),
		CreatedAt: now,
		UpdatedAt: now,
	}
	copy(p.Achievements, c.Achievements)
	copy(p.Rewards, c.Rewards)
	for _, tmpl := range c.Missions {
		p.Missions.Active = append(p.Missions.Active, IssueMission(tmpl, now))
	}
	return p
}

func (c Catalog) template(id string) (domain.MissionTemplate, bool) {
	for _, t := range c.Missions {
		if t.ID == id {
			return t, true
		}
	}
	return domain.MissionTemplate{}, false
}

// Rehydrate overlays stored progress onto the current catalog. Catalog
// entries missing from storage start fresh, stored entries missing from the
// catalog are dropped, and derived fields are recomputed.
func (c Catalog) Rehydrate(stored domain.Profile, thresholds []int64) domain.Profile {
	p := stored
	if p.XP < 0 {
		p.XP = 0
	}
	if p.StreakDays < 0 {
		p.StreakDays = 0
	}
	if p.LongestStreak < p.StreakDays {
		p.LongestStreak = p.StreakDays
	}

	byID := make(map[string]domain.Achievement, len(stored.Achievements))
	for _, a := range stored.Achievements {
		byID[a.ID] = a
	}
	p.Achievements = make([]domain.Achievement, len(c.Achievements))
	for i, def := range c.Achievements {
		a := def
		if s, ok := byID[def.ID]; ok {
			a.Progress = clampProgress(s.Progress, def.MaxProgress)
			a.IsCompleted = s.IsCompleted
			a.DateCompleted = s.DateCompleted
			if a.IsCompleted {
				a.Progress = def.MaxProgress
			}
		}
		p.Achievements[i] = a
	}

	p.Missions = c.rehydrateMissions(stored.Missions)

	rewards := make(map[string]domain.Reward, len(stored.Rewards))
	for _, r := range stored.Rewards {
		rewards[r.ID] = r
	}
	p.Rewards = make([]domain.Reward, len(c.Rewards))
	for i, def := range c.Rewards {
		r := def
		if s, ok := rewards[def.ID]; ok {
			r.IsUnlocked = s.IsUnlocked
			r.DateUnlocked = s.DateUnlocked
		}
		p.Rewards[i] = r
	}

	p.Level = LevelFromXP(p.XP, thresholds)
	p.TotalAchievements = len(c.Achievements)
	p.CompletedAchievements = p.CountCompleted()
	return p
}

// rehydrateMissions restores triggers and repairs the active/completed
// partition: completed wins when an ID appears in both.
func (c Catalog) rehydrateMissions(stored domain.MissionSet) domain.MissionSet {
	out := domain.MissionSet{Active: []domain.Mission{}, Completed: []domain.Mission{}}
	seen := make(map[string]bool)
	for _, m := range stored.Completed {
		if seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		m.IsCompleted = true
		m.Trigger = nil
		out.Completed = append(out.Completed, m)
	}
	for _, m := range stored.Active {
		if seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		if m.IsCompleted {
			out.Completed = append(out.Completed, m)
			continue
		}
		if tmpl, ok := c.template(m.TemplateID); ok {
			m.Trigger = tmpl.Trigger
			if m.MaxProgress <= 0 {
				m.MaxProgress = tmpl.MaxProgress
			}
		}
		if m.MaxProgress <= 0 {
			m.MaxProgress = 1
		}
		m.Progress = clampProgress(m.Progress, m.MaxProgress)
		out.Active = append(out.Active, m)
	}
	return out
}

func clampProgress(progress, max int) int {
	if progress < 0 {
		return 0
	}
	if progress > max {
		return max
	}
	return progress
}

// ─── Blob Codec ─────────────────────────────────────────────────────────────

// ValidateProfileBlob checks the structural shape of a stored profile:
// numeric xp and level, array achievements and rewards, and a missions
// object with array active and completed lists.
func ValidateProfileBlob(blob []byte) error {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(blob, &top); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidProfile, err)
	}
	if err := expectKind(top, "xp", '0'); err != nil {
		return err
	}
	if err := expectKind(top, "level", '0'); err != nil {
		return err
	}
	if err := expectKind(top, "achievements", '['); err != nil {
		return err
	}
	if err := expectKind(top, "rewards", '['); err != nil {
		return err
	}
	if err := expectKind(top, "missions", '{'); err != nil {
		return err
	}
	var missions map[string]json.RawMessage
	if err := json.Unmarshal(top["missions"], &missions); err != nil {
		return fmt.Errorf("%w: missions: %v", domain.ErrInvalidProfile, err)
	}
	if err := expectKind(missions, "active", '['); err != nil {
		return err
	}
	return expectKind(missions, "completed", '[')
}

// expectKind checks that obj[key] is a JSON value of the given kind.
// '0' stands for any finite number.
func expectKind(obj map[string]json.RawMessage, key string, kind byte) error {
	raw, ok := obj[key]
	if !ok {
		return fmt.Errorf("%w: missing %q", domain.ErrInvalidProfile, key)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return fmt.Errorf("%w: empty %q", domain.ErrInvalidProfile, key)
	}
	if kind == '0' {
		var f float64
		if err := json.Unmarshal(raw, &f); err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: %q is not a number", domain.ErrInvalidProfile, key)
		}
		return nil
	}
	if raw[0] != kind {
		return fmt.Errorf("%w: %q has the wrong type", domain.ErrInvalidProfile, key)
	}
	return nil
}

// DecodeProfile validates a stored blob and rehydrates it onto the catalog.
func DecodeProfile(blob []byte, c Catalog, thresholds []int64) (domain.Profile, error) {
	if err := ValidateProfileBlob(blob); err != nil {
		return domain.Profile{}, err
	}
	var stored domain.Profile
	if err := json.Unmarshal(blob, &stored); err != nil {
		return domain.Profile{}, fmt.Errorf("%w: %v", domain.ErrInvalidProfile, err)
	}
	return c.Rehydrate(stored, thresholds), nil
}

// EncodeProfile serializes a profile for storage.
func EncodeProfile(p domain.Profile) ([]byte, error) {
	return json.Marshal(p)
}

// XPAmount converts a host-supplied number to an XP amount. NaN, infinities
// and negatives are rejected; fractions are truncated.
func XPAmount(v float64) (int64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || v > math.MaxInt64/2 {
		return 0, domain.ErrInvalidXPAmount
	}
	return int64(v), nil
}
