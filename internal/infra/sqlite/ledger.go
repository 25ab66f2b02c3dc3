package sqlite

import (
	"database/sql"
	"time"

	"github.com/tutu-network/coinquest/internal/domain"
)

var (
	_ domain.XPLedger          = (*DB)(nil)
	_ domain.NotificationStore = (*DB)(nil)
)

// ─── XP Ledger ──────────────────────────────────────────────────────────────

// AppendXP adds an XP ledger entry.
func (d *DB) AppendXP(e domain.XPEntry) (int64, error) {
	result, err := d.db.Exec(
		`INSERT INTO xp_ledger (timestamp, source, amount, balance, level)
		 VALUES (?, ?, ?, ?, ?)`,
		e.Timestamp.Unix(), string(e.Source), e.Amount, e.Balance, e.Level,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// XPHistory returns the most recent ledger entries, newest first.
func (d *DB) XPHistory(limit int) ([]domain.XPEntry, error) {
	rows, err := d.db.Query(
		`SELECT id, timestamp, source, amount, balance, level
		 FROM xp_ledger ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.XPEntry
	for rows.Next() {
		var e domain.XPEntry
		var ts int64
		if err := rows.Scan(&e.ID, &ts, &e.Source, &e.Amount, &e.Balance, &e.Level); err != nil {
			return nil, err
		}
		e.Timestamp = time.Unix(ts, 0)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// XPTotalBySource sums awarded XP per source.
func (d *DB) XPTotalBySource() (map[domain.XPSource]int64, error) {
	rows, err := d.db.Query(`SELECT source, SUM(amount) FROM xp_ledger GROUP BY source`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := make(map[domain.XPSource]int64)
	for rows.Next() {
		var src string
		var sum sql.NullInt64
		if err := rows.Scan(&src, &sum); err != nil {
			return nil, err
		}
		totals[domain.XPSource(src)] = sum.Int64
	}
	return totals, rows.Err()
}

// ClearXPHistory drops every ledger entry.
func (d *DB) ClearXPHistory() error {
	_, err := d.db.Exec(`DELETE FROM xp_ledger`)
	return err
}

// ─── Notifications ──────────────────────────────────────────────────────────

// InsertNotification creates a new notification.
func (d *DB) InsertNotification(n domain.Notification) (int64, error) {
	result, err := d.db.Exec(
		`INSERT INTO notifications (type, title, body, created_at, shown)
		 VALUES (?, ?, ?, ?, ?)`,
		string(n.Type), n.Title, n.Body, n.CreatedAt.Unix(), n.Shown,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// NotificationCountSince returns how many notifications were created at or
// after since.
func (d *DB) NotificationCountSince(since time.Time) (int, error) {
	var count int
	err := d.db.QueryRow(
		`SELECT COUNT(*) FROM notifications WHERE created_at >= ?`, since.Unix(),
	).Scan(&count)
	return count, err
}

// ListPendingNotifications returns unshown notifications, newest first.
func (d *DB) ListPendingNotifications(limit int) ([]domain.Notification, error) {
	rows, err := d.db.Query(
		`SELECT id, type, title, body, created_at, shown
		 FROM notifications WHERE shown = 0 ORDER BY created_at DESC, id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifs []domain.Notification
	for rows.Next() {
		var n domain.Notification
		var createdAt int64
		if err := rows.Scan(&n.ID, &n.Type, &n.Title, &n.Body, &createdAt, &n.Shown); err != nil {
			return nil, err
		}
		n.CreatedAt = time.Unix(createdAt, 0)
		notifs = append(notifs, n)
	}
	return notifs, rows.Err()
}

// MarkNotificationShown marks a notification as shown.
func (d *DB) MarkNotificationShown(id int64) error {
	_, err := d.db.Exec(`UPDATE notifications SET shown = 1 WHERE id = ?`, id)
	return err
}
