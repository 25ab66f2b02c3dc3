package engagement

import (
	"math"
)

// DefaultThresholds is the cumulative XP needed for levels 1..10.
var DefaultThresholds = []int64{0, 100, 250, 500, 1000, 1750, 2750, 4000, 5500, 7500}

// LevelFromXP returns the highest level L (1-indexed) with thresholds[L-1] <= xp.
// Negative XP counts as 0 and an empty table yields level 1.
func LevelFromXP(xp int64, thresholds []int64) int {
	if xp < 0 {
		xp = 0
	}
	level := 1
	for i, required := range thresholds {
		if xp < required {
			break
		}
		level = i + 1
	}
	return level
}

// MaxLevel returns the top level of the table.
func MaxLevel(thresholds []int64) int {
	if len(thresholds) == 0 {
		return 1
	}
	return len(thresholds)
}

// LevelProgressPercent returns progress toward the next level, 0 to 100.
// The top level always reports 100.
func LevelProgressPercent(xp int64, thresholds []int64) int {
	if len(thresholds) == 0 {
		return 0
	}
	if xp < 0 {
		xp = 0
	}
	level := LevelFromXP(xp, thresholds)
	if level >= MaxLevel(thresholds) {
		return 100
	}
	thisLevel := thresholds[level-1]
	nextLevel := thresholds[level]
	span := nextLevel - thisLevel
	if span <= 0 {
		return 0
	}
	pct := int(math.Round(float64(xp-thisLevel) / float64(span) * 100.0))
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return pct
}

// XPToNextLevel returns XP remaining until the next level, 0 at the top.
func XPToNextLevel(xp int64, thresholds []int64) int64 {
	if xp < 0 {
		xp = 0
	}
	level := LevelFromXP(xp, thresholds)
	if level >= MaxLevel(thresholds) {
		return 0
	}
	remaining := thresholds[level] - xp
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// LevelInfo is the read model behind level displays.
type LevelInfo struct {
	Level       int   `json:"level"`
	MaxLevel    int   `json:"max_level"`
	XP          int64 `json:"xp"`
	XPToNext    int64 `json:"xp_to_next"`
	ProgressPct int   `json:"progress_pct"`
}

// DescribeLevel builds a LevelInfo for xp.
func DescribeLevel(xp int64, thresholds []int64) LevelInfo {
	return LevelInfo{
		Level:       LevelFromXP(xp, thresholds),
		MaxLevel:    MaxLevel(thresholds),
		XP:          xp,
		XPToNext:    XPToNextLevel(xp, thresholds),
		ProgressPct: LevelProgressPercent(xp, thresholds),
	}
}

// ValidThresholds reports whether t is non-empty, starts at 0 and is strictly ascending.
func ValidThresholds(t []int64) bool {
	if len(t) == 0 || t[0] != 0 {
		return false
	}
	for i := 1; i < len(t); i++ {
		if t[i] <= t[i-1] {
			return false
		}
	}
	return true
}
