package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func gatheredNames(t *testing.T) map[string]bool {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	return names
}

func TestXPMetrics(t *testing.T) {
	XPAwarded.WithLabelValues("ACHIEVEMENT").Add(10)
	XPCurrent.Set(110)
	Level.Set(2)
	LevelUps.Inc()

	names := gatheredNames(t)
	expected := []string{
		"coinquest_xp_awarded_total",
		"coinquest_xp_current",
		"coinquest_level",
		"coinquest_level_ups_total",
	}
	for _, name := range expected {
		if !names[name] {
			t.Errorf("metric %q not found", name)
		}
	}
}

func TestCompletionCounters(t *testing.T) {
	MissionsExpired.WithLabelValues("daily").Inc()
	AchievementsCompleted.WithLabelValues("tracking").Inc()
	MissionsCompleted.WithLabelValues("weekly").Inc()
	RewardsUnlocked.WithLabelValues("theme").Inc()

	names := gatheredNames(t)
	for _, name := range []string{
		"coinquest_achievements_completed_total",
		"coinquest_missions_completed_total",
		"coinquest_missions_expired_total",
		"coinquest_rewards_unlocked_total",
	} {
		if !names[name] {
			t.Errorf("metric %q not found", name)
		}
	}
}

func TestPersistenceMetrics(t *testing.T) {
	ProfileSaves.WithLabelValues("error").Inc()
	ProfileSaveLatency.Observe(0.004)

	names := gatheredNames(t)
	if !names["coinquest_profile_saves_total"] {
		t.Error("coinquest_profile_saves_total not found")
	}
	if !names["coinquest_profile_save_seconds"] {
		t.Error("coinquest_profile_save_seconds not found")
	}
}

func TestHandler_ServesText(t *testing.T) {
	StreakDays.Set(7)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "coinquest_streak_days 7") {
		t.Error("expected coinquest_streak_days in /metrics output")
	}
}
