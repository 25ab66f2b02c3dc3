package domain

import (
	"context"
	"time"
)

// ─── Service Interfaces ─────────────────────────────────────────────────────
// These interfaces define boundaries between layers.
// Infrastructure implements them; application layer depends on them.

// ProfileStore persists the progression profile as an opaque blob.
type ProfileStore interface {
	// Load returns the stored blob, or (nil, nil) when nothing was saved yet.
	Load(ctx context.Context) ([]byte, error)

	// Save replaces the stored blob.
	Save(ctx context.Context, blob []byte) error
}

// NotificationStore persists user-facing notifications.
type NotificationStore interface {
	InsertNotification(n Notification) (int64, error)
	NotificationCountSince(since time.Time) (int, error)
	ListPendingNotifications(limit int) ([]Notification, error)
	MarkNotificationShown(id int64) error
}

// Clock supplies wall-clock time for streak and expiry calculations.
type Clock interface {
	Now() time.Time
}

// SystemClock is the real wall clock in the local timezone.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }

// XPLedger records every XP award for history views.
type XPLedger interface {
	AppendXP(e XPEntry) (int64, error)
	XPHistory(limit int) ([]XPEntry, error)
}
