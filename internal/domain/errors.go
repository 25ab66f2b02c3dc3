package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors carry no infrastructure dependency.

var (
	// Input errors
	ErrInvalidXPAmount     = errors.New("xp amount must be a non-negative finite number")
	ErrAchievementNotFound = errors.New("achievement not found")
	ErrMissionNotFound     = errors.New("mission not found in active missions")
	ErrRewardNotFound      = errors.New("reward not found")
	ErrUnknownAction       = errors.New("unknown progression action")

	// Persisted state errors
	ErrInvalidProfile = errors.New("stored profile has an invalid shape")

	// Lifecycle errors
	ErrNotReady     = errors.New("progression engine has not finished loading")
	ErrEngineClosed = errors.New("progression engine is closed")
)
