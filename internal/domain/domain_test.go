package domain

import (
	"math"
	"testing"
	"time"
)

// ═══════════════════════════════════════════════════════════════════════════
// Metadata Tests
// ═══════════════════════════════════════════════════════════════════════════

func TestMetadata_Float(t *testing.T) {
	m := Metadata{
		"f64":    12.5,
		"int":    7,
		"int64":  int64(9),
		"str":    "3.25",
		"bad":    "abc",
		"nan":    math.NaN(),
		"inf":    math.Inf(1),
		"bool":   true,
		"nilval": nil,
	}
	tests := []struct {
		key  string
		want float64
	}{
		{"f64", 12.5},
		{"int", 7},
		{"int64", 9},
		{"str", 3.25},
		{"bad", 0},
		{"nan", 0},
		{"inf", 0},
		{"bool", 0},
		{"nilval", 0},
		{"missing", 0},
	}
	for _, tt := range tests {
		if got := m.Float(tt.key); got != tt.want {
			t.Errorf("Float(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
	if got := m.Int("f64"); got != 12 {
		t.Errorf("Int truncates: got %d, want 12", got)
	}
}

func TestMetadata_IntSaturates(t *testing.T) {
	m := Metadata{"huge": 1e20, "tiny": -1e20, "max": float64(math.MaxInt64), "str": "5e30"}
	tests := []struct {
		key  string
		want int
	}{
		{"huge", math.MaxInt},
		{"max", math.MaxInt},
		{"str", math.MaxInt},
		{"tiny", math.MinInt},
	}
	for _, tt := range tests {
		if got := m.Int(tt.key); got != tt.want {
			t.Errorf("Int(%q) = %d, want %d", tt.key, got, tt.want)
		}
	}
}

func TestMetadata_BoolStringHas(t *testing.T) {
	m := Metadata{"yes": true, "str": "true", "no": "nope", "name": "food", "n": 1}

	if !m.Bool("yes") || !m.Bool("str") {
		t.Error("expected true for bool and \"true\"")
	}
	if m.Bool("no") || m.Bool("n") || m.Bool("missing") {
		t.Error("expected false for non-boolean values")
	}
	if m.String("name") != "food" || m.String("n") != "" {
		t.Error("String should only return string values")
	}
	if !m.Has("n") || m.Has("missing") {
		t.Error("Has mismatch")
	}

	var empty Metadata
	if empty.Float("x") != 0 || empty.Has("x") {
		t.Error("nil metadata should read as zero")
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Mission Tests
// ═══════════════════════════════════════════════════════════════════════════

func TestMission_IsExpired(t *testing.T) {
	deadline := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	m := Mission{ExpiresAt: deadline}

	if m.IsExpired(deadline.Add(-time.Second)) {
		t.Error("mission should be live before its deadline")
	}
	if m.IsExpired(deadline) {
		t.Error("mission should still be live at its deadline instant")
	}
	if !m.IsExpired(deadline.Add(time.Nanosecond)) {
		t.Error("mission should expire after its deadline")
	}
}

func TestMission_ProgressPct(t *testing.T) {
	tests := []struct {
		progress, max int
		want          float64
	}{
		{0, 4, 0},
		{1, 4, 25},
		{4, 4, 100},
		{9, 4, 100},
		{0, 0, 100},
	}
	for _, tt := range tests {
		m := Mission{Progress: tt.progress, MaxProgress: tt.max}
		if got := m.ProgressPct(); got != tt.want {
			t.Errorf("ProgressPct(%d/%d) = %v, want %v", tt.progress, tt.max, got, tt.want)
		}
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Profile Tests
// ═══════════════════════════════════════════════════════════════════════════

func TestProfile_CloneIsDeep(t *testing.T) {
	done := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	p := Profile{
		XP:           50,
		Achievements: []Achievement{{ID: "a", IsCompleted: true, DateCompleted: &done}},
		Missions: MissionSet{
			Active:    []Mission{{ID: "m1", StartedAt: &done}},
			Completed: []Mission{{ID: "m0", CompletedAt: &done}},
		},
		Rewards: []Reward{{ID: "r", IsUnlocked: true, DateUnlocked: &done}},
	}

	cp := p.Clone()
	cp.Achievements[0].Progress = 99
	*cp.Achievements[0].DateCompleted = time.Time{}
	cp.Missions.Active[0].Progress = 3
	*cp.Missions.Completed[0].CompletedAt = time.Time{}
	cp.Rewards[0].IsUnlocked = false

	if p.Achievements[0].Progress != 0 || !p.Achievements[0].DateCompleted.Equal(done) {
		t.Error("achievement shared with clone")
	}
	if p.Missions.Active[0].Progress != 0 || !p.Missions.Completed[0].CompletedAt.Equal(done) {
		t.Error("mission shared with clone")
	}
	if !p.Rewards[0].IsUnlocked {
		t.Error("reward shared with clone")
	}
}

func TestProfile_Finders(t *testing.T) {
	p := Profile{
		Achievements: []Achievement{{ID: "a1"}, {ID: "a2", IsCompleted: true}},
		Missions:     MissionSet{Active: []Mission{{ID: "m1"}}, Completed: []Mission{{ID: "m0"}}},
		Rewards:      []Reward{{ID: "r1"}},
	}

	if a := p.FindAchievement("a2"); a == nil || !a.IsCompleted {
		t.Error("FindAchievement(a2) failed")
	}
	p.FindAchievement("a1").Progress = 5
	if p.Achievements[0].Progress != 5 {
		t.Error("FindAchievement should return a pointer into the profile")
	}
	if p.FindActiveMission("m0") != nil {
		t.Error("completed missions are not active")
	}
	if p.FindActiveMission("m1") == nil || p.FindReward("r1") == nil || p.FindReward("x") != nil {
		t.Error("finder mismatch")
	}
	if p.CountCompleted() != 1 {
		t.Errorf("CountCompleted = %d, want 1", p.CountCompleted())
	}
}

func TestProgressable(t *testing.T) {
	entries := []Progressable{
		&Achievement{ID: "a", MaxProgress: 3},
		&Mission{ID: "m", MaxProgress: 2},
	}
	for _, e := range entries {
		e.SetProgress(e.Target())
		if e.CurrentProgress() != e.Target() {
			t.Errorf("%s: progress %d, want %d", e.EntryID(), e.CurrentProgress(), e.Target())
		}
		if e.Completed() {
			t.Errorf("%s: SetProgress must not mark completion", e.EntryID())
		}
	}
}
