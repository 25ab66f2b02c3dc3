package daemon

import (
	"context"
	"log"
	"time"

	"github.com/tutu-network/coinquest/internal/app/engagement"
	"github.com/tutu-network/coinquest/internal/domain"
	"github.com/tutu-network/coinquest/internal/infra/metrics"
)

// ─── Event Observers ────────────────────────────────────────────────────────

// observeMetrics mirrors engine events into Prometheus.
func observeMetrics(events *engagement.Events) (cancel func()) {
	return events.SubscribeAll(func(name engagement.EventName, payload any) {
		switch v := payload.(type) {
		case engagement.XPResult:
			metrics.XPAwarded.WithLabelValues(string(v.Source)).Add(float64(v.Amount))
			metrics.XPCurrent.Set(float64(v.XP))
			metrics.Level.Set(float64(v.Level))
			if v.LeveledUp {
				metrics.LevelUps.Inc()
			}
		case engagement.StreakUpdate:
			metrics.StreakDays.Set(float64(v.NewStreak))
			if !v.IsConsecutive {
				metrics.StreakResets.Inc()
			}
		case domain.Achievement:
			metrics.AchievementsCompleted.WithLabelValues(string(v.Type)).Inc()
		case domain.Mission:
			if name == engagement.EventMissionExpired {
				metrics.MissionsExpired.WithLabelValues(string(v.Type)).Inc()
			} else {
				metrics.MissionsCompleted.WithLabelValues(string(v.Type)).Inc()
			}
		case domain.Reward:
			metrics.RewardsUnlocked.WithLabelValues(string(v.Type)).Inc()
		case domain.Profile:
			metrics.XPCurrent.Set(float64(v.XP))
			metrics.Level.Set(float64(v.Level))
			metrics.StreakDays.Set(float64(v.StreakDays))
		}
	})
}

// recordXP appends every award to the ledger and clears it on reset.
func recordXP(events *engagement.Events, ledger xpLedger) (cancel func()) {
	cancelXP := events.XPAdded.Subscribe(func(r engagement.XPResult) {
		_, err := ledger.AppendXP(domain.XPEntry{
			Timestamp: time.Now(),
			Source:    r.Source,
			Amount:    r.Amount,
			Balance:   r.XP,
			Level:     r.Level,
		})
		if err != nil {
			log.Printf("[daemon] xp ledger append: %v", err)
		}
	})
	cancelReset := events.ProfileReset.Subscribe(func(domain.Profile) {
		if err := ledger.ClearXPHistory(); err != nil {
			log.Printf("[daemon] xp ledger clear: %v", err)
		}
	})
	return func() {
		cancelXP()
		cancelReset()
	}
}

type xpLedger interface {
	domain.XPLedger
	ClearXPHistory() error
}

// traceEvents logs every engine event when logging.level is "debug".
func traceEvents(events *engagement.Events) (cancel func()) {
	return events.SubscribeAll(func(name engagement.EventName, payload any) {
		log.Printf("[engine] debug: %s %T", name, payload)
	})
}

// ─── Instrumented Stores ────────────────────────────────────────────────────

// meteredStore counts profile writes and their latency.
type meteredStore struct {
	domain.ProfileStore
}

func (s meteredStore) Save(ctx context.Context, blob []byte) error {
	start := time.Now()
	err := s.ProfileStore.Save(ctx, blob)
	metrics.ProfileSaveLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ProfileSaves.WithLabelValues("error").Inc()
		return err
	}
	metrics.ProfileSaves.WithLabelValues("ok").Inc()
	return nil
}

// meteredNotifications counts stored notifications by type.
type meteredNotifications struct {
	domain.NotificationStore
}

func (s meteredNotifications) InsertNotification(n domain.Notification) (int64, error) {
	id, err := s.NotificationStore.InsertNotification(n)
	if err == nil {
		metrics.NotificationsCreated.WithLabelValues(string(n.Type)).Inc()
	}
	return id, err
}
