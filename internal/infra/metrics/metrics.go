// Package metrics provides Prometheus metrics for CoinQuest.
// Counters and gauges for XP, levels, streaks, completions, persistence,
// notifications and the local API.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ─── XP & Levels ────────────────────────────────────────────────────────────

// XPAwarded tracks XP awarded by source.
var XPAwarded = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "coinquest",
	Name:      "xp_awarded_total",
	Help:      "Total XP awarded, by source.",
}, []string{"source"})

// XPCurrent tracks the profile's XP.
var XPCurrent = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "coinquest",
	Name:      "xp_current",
	Help:      "Current XP total.",
})

// Level tracks the profile's level.
var Level = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "coinquest",
	Name:      "level",
	Help:      "Current level.",
})

// LevelUps tracks level-up events.
var LevelUps = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "coinquest",
	Name:      "level_ups_total",
	Help:      "Total level-ups.",
})

// ─── Streak ─────────────────────────────────────────────────────────────────

// StreakDays tracks the current daily streak.
var StreakDays = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "coinquest",
	Name:      "streak_days",
	Help:      "Current daily streak in days.",
})

// StreakResets tracks broken streaks.
var StreakResets = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "coinquest",
	Name:      "streak_resets_total",
	Help:      "Total streak resets after a missed day.",
})

// ─── Achievements, Missions & Rewards ───────────────────────────────────────

// AchievementsCompleted tracks completed achievements by type.
var AchievementsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "coinquest",
	Name:      "achievements_completed_total",
	Help:      "Total achievements completed, by type.",
}, []string{"type"})

// MissionsCompleted tracks completed missions by mission type.
var MissionsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "coinquest",
	Name:      "missions_completed_total",
	Help:      "Total missions completed, by mission type.",
}, []string{"type"})

// MissionsExpired tracks missions dropped at their deadline.
var MissionsExpired = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "coinquest",
	Name:      "missions_expired_total",
	Help:      "Total missions expired before completion, by mission type.",
}, []string{"type"})

// RewardsUnlocked tracks unlocked rewards by reward type.
var RewardsUnlocked = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "coinquest",
	Name:      "rewards_unlocked_total",
	Help:      "Total rewards unlocked, by reward type.",
}, []string{"type"})

// ─── Persistence ────────────────────────────────────────────────────────────

// ProfileSaves tracks profile writes by outcome (ok, error).
var ProfileSaves = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "coinquest",
	Name:      "profile_saves_total",
	Help:      "Profile writes by outcome.",
}, []string{"outcome"})

// ProfileSaveLatency tracks profile write duration in seconds.
var ProfileSaveLatency = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "coinquest",
	Name:      "profile_save_seconds",
	Help:      "Profile write duration in seconds.",
	Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
})

// ─── Notifications & API ────────────────────────────────────────────────────

// NotificationsCreated tracks stored notifications by type.
var NotificationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "coinquest",
	Name:      "notifications_created_total",
	Help:      "Total notifications stored, by type.",
}, []string{"type"})

// APIRequests tracks local API requests by route and status.
var APIRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "coinquest",
	Name:      "api_requests_total",
	Help:      "Local API requests by route and status code.",
}, []string{"route", "status"})

// LiveClients tracks connected live-feed clients.
var LiveClients = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "coinquest",
	Name:      "live_clients",
	Help:      "Connected live-feed (SSE) clients.",
})

// ─── Health ─────────────────────────────────────────────────────────────────

// HealthCheckStatus tracks health check results (1=healthy, 0=unhealthy).
var HealthCheckStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "coinquest",
	Name:      "health_check_status",
	Help:      "Health check result per component (1=healthy, 0=unhealthy).",
}, []string{"check"})

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
