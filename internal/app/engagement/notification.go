package engagement

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/tutu-network/coinquest/internal/domain"
)

// NotificationService turns progression events into user-facing
// notifications:
//   - at most MaxPerDay stored per calendar day
//   - nothing stored during quiet hours
//   - only achievements, level-ups, missions, rewards and weekly streak
//     milestones are worth a notification
type NotificationService struct {
	store  domain.NotificationStore
	policy domain.NotificationPolicy
	clock  domain.Clock
}

// NewNotificationService creates a notification service with default policy.
func NewNotificationService(store domain.NotificationStore) *NotificationService {
	return NewNotificationServiceWithPolicy(store, domain.DefaultNotificationPolicy())
}

// NewNotificationServiceWithPolicy creates a notification service with custom policy.
func NewNotificationServiceWithPolicy(store domain.NotificationStore, policy domain.NotificationPolicy) *NotificationService {
	return &NotificationService{store: store, policy: policy, clock: domain.SystemClock{}}
}

// WithClock replaces the wall clock used for policy checks.
func (n *NotificationService) WithClock(c domain.Clock) *NotificationService {
	n.clock = c
	return n
}

// Create stores a notification if policy allows it.
// Returns the notification ID (0 if suppressed by policy) and any error.
func (n *NotificationService) Create(notif domain.Notification) (int64, error) {
	now := n.clock.Now()

	todayCount, err := n.store.NotificationCountSince(startOfDay(now))
	if err != nil {
		return 0, fmt.Errorf("count today: %w", err)
	}
	if todayCount >= n.policy.MaxPerDay {
		return 0, nil // daily limit reached
	}
	if n.isQuietHour(now) {
		return 0, nil
	}

	notif.CreatedAt = now
	notif.Shown = false

	id, err := n.store.InsertNotification(notif)
	if err != nil {
		return 0, fmt.Errorf("insert notification: %w", err)
	}
	return id, nil
}

// Pending returns unshown notifications.
func (n *NotificationService) Pending(limit int) ([]domain.Notification, error) {
	return n.store.ListPendingNotifications(limit)
}

// MarkShown marks a notification as shown.
func (n *NotificationService) MarkShown(id int64) error {
	return n.store.MarkNotificationShown(id)
}

// TodayCount returns how many notifications were stored today.
func (n *NotificationService) TodayCount() (int, error) {
	return n.store.NotificationCountSince(startOfDay(n.clock.Now()))
}

// Policy returns the current notification policy.
func (n *NotificationService) Policy() domain.NotificationPolicy {
	return n.policy
}

// Attach subscribes the service to engine events and returns a function that
// detaches it.
func (n *NotificationService) Attach(events *Events) (cancel func()) {
	return events.SubscribeAll(func(name EventName, payload any) {
		notif, ok := NotificationFor(name, payload)
		if !ok {
			return
		}
		if _, err := n.Create(notif); err != nil {
			log.Printf("[notify] %s: %v", name, err)
		}
	})
}

// NotificationFor maps an engine event to a notification. Events that do not
// warrant one return false.
func NotificationFor(name EventName, payload any) (domain.Notification, bool) {
	switch name {
	case EventAchievementCompleted:
		a, ok := payload.(domain.Achievement)
		if !ok {
			return domain.Notification{}, false
		}
		return domain.Notification{
			Type:  domain.NotifyAchievement,
			Title: fmt.Sprintf("%s Achievement unlocked: %s", a.Icon, a.Name),
			Body:  fmt.Sprintf("%s (+%d XP)", a.Description, a.XPReward),
		}, true
	case EventXPAdded:
		r, ok := payload.(XPResult)
		if !ok || !r.LeveledUp {
			return domain.Notification{}, false
		}
		return domain.Notification{
			Type:  domain.NotifyLevelUp,
			Title: fmt.Sprintf("Level %d reached!", r.Level),
			Body:  fmt.Sprintf("You now have %d XP.", r.XP),
		}, true
	case EventMissionCompleted:
		m, ok := payload.(domain.Mission)
		if !ok {
			return domain.Notification{}, false
		}
		return domain.Notification{
			Type:  domain.NotifyMissionComplete,
			Title: fmt.Sprintf("%s Mission complete: %s", m.Icon, m.Name),
			Body:  fmt.Sprintf("+%d XP", m.XPReward),
		}, true
	case EventRewardUnlocked:
		r, ok := payload.(domain.Reward)
		if !ok {
			return domain.Notification{}, false
		}
		return domain.Notification{
			Type:  domain.NotifyRewardUnlocked,
			Title: fmt.Sprintf("%s New reward: %s", r.Icon, r.Name),
			Body:  r.Description,
		}, true
	case EventStreakUpdated:
		s, ok := payload.(StreakUpdate)
		if !ok || !s.IsConsecutive || s.NewStreak%7 != 0 {
			return domain.Notification{}, false
		}
		return domain.Notification{
			Type:  domain.NotifyStreakMilestone,
			Title: fmt.Sprintf("🔥 %d-day streak!", s.NewStreak),
			Body:  fmt.Sprintf("Keep it going. +%d bonus XP", s.BonusXP),
		}, true
	}
	return domain.Notification{}, false
}

// isQuietHour returns true if the given time falls within quiet hours.
func (n *NotificationService) isQuietHour(t time.Time) bool {
	startHour, startMin := parseHHMM(n.policy.QuietStart)
	endHour, endMin := parseHHMM(n.policy.QuietEnd)

	timeMinutes := t.Hour()*60 + t.Minute()
	startMinutes := startHour*60 + startMin
	endMinutes := endHour*60 + endMin

	if startMinutes > endMinutes {
		// Wraps midnight, e.g. 22:00 to 08:00
		return timeMinutes >= startMinutes || timeMinutes < endMinutes
	}
	return timeMinutes >= startMinutes && timeMinutes < endMinutes
}

// parseHHMM parses "HH:MM" into hour and minute.
func parseHHMM(s string) (int, int) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0
	}
	h, _ := strconv.Atoi(parts[0])
	m, _ := strconv.Atoi(parts[1])
	return h, m
}

// ValidClockTime reports whether s is a valid "HH:MM" time.
func ValidClockTime(s string) bool {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return false
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	return err1 == nil && err2 == nil && h >= 0 && h < 24 && m >= 0 && m < 60
}
