package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tutu-network/coinquest/internal/domain"
)

// profileKey is the progression row holding the profile blob.
const profileKey = "profile"

var _ domain.ProfileStore = (*ProfileStore)(nil)

// ProfileStore keeps the progression profile as one JSON row.
type ProfileStore struct {
	db *DB
}

// NewProfileStore returns a ProfileStore backed by d.
func NewProfileStore(d *DB) *ProfileStore {
	return &ProfileStore{db: d}
}

// Load returns the stored blob, or nil when no profile has been saved.
func (s *ProfileStore) Load(ctx context.Context) ([]byte, error) {
	var value string
	err := s.db.db.QueryRowContext(ctx,
		`SELECT value FROM progression WHERE key = ?`, profileKey,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return []byte(value), nil
}

// Save replaces the stored blob.
func (s *ProfileStore) Save(ctx context.Context, blob []byte) error {
	_, err := s.db.db.ExecContext(ctx,
		`INSERT INTO progression (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`,
		profileKey, string(blob), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// SavedAt returns when the profile was last written, zero if never.
func (s *ProfileStore) SavedAt() (time.Time, error) {
	var ts int64
	err := s.db.db.QueryRow(
		`SELECT updated_at FROM progression WHERE key = ?`, profileKey,
	).Scan(&ts)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(ts, 0), nil
}
