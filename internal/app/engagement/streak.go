// Package engagement implements the CoinQuest progression engine.
// Streaks, levels, achievements, missions, rewards, and notifications,
// all driven by declarative triggers over host-application events.
package engagement

import (
	"time"

	"github.com/tutu-network/coinquest/internal/domain"
)

// dateLayout is the storage format of Profile.LastActiveDate.
const dateLayout = "2006-01-02"

// StreakState names the branch CheckDailyStreak took.
type StreakState string

const (
	StreakFirst       StreakState = "first"
	StreakSameDay     StreakState = "same_day"
	StreakConsecutive StreakState = "consecutive"
	StreakReset       StreakState = "reset"
)

// StreakPolicy sets the periodic streak bonus.
type StreakPolicy struct {
	BonusXP    int64 // awarded when the streak hits a multiple of BonusEvery
	BonusEvery int
}

// DefaultStreakPolicy awards 25 XP every 7 consecutive days.
func DefaultStreakPolicy() StreakPolicy {
	return StreakPolicy{BonusXP: 25, BonusEvery: 7}
}

// StreakResult describes one CheckDailyStreak call.
type StreakResult struct {
	State      StreakState
	OldStreak  int
	NewStreak  int
	DaysMissed int
	BonusXP    int64
}

// Changed reports whether the call emitted a streak update.
func (r StreakResult) Changed() bool {
	return r.State == StreakConsecutive || r.State == StreakReset
}

// CheckDailyStreak records activity for today's calendar day.
// Same day: no-op. Next day: extend. Anything else: reset to 1.
// Day arithmetic is on civil dates, so time of day and DST never matter.
func CheckDailyStreak(p *domain.Profile, today time.Time, policy StreakPolicy) StreakResult {
	todayStr := today.Format(dateLayout)
	res := StreakResult{OldStreak: p.StreakDays}

	if p.LastActiveDate == "" {
		// First activity ever
		p.StreakDays = 1
		p.LastActiveDate = todayStr
		res.State = StreakFirst
		res.NewStreak = 1
		bumpLongest(p)
		return res
	}

	if p.LastActiveDate == todayStr {
		res.State = StreakSameDay
		res.NewStreak = p.StreakDays
		return res
	}

	gap, ok := calendarDaysBetween(p.LastActiveDate, today)
	if ok && gap == 1 {
		p.StreakDays++
		p.LastActiveDate = todayStr
		res.State = StreakConsecutive
		res.NewStreak = p.StreakDays
		if policy.BonusEvery > 0 && p.StreakDays%policy.BonusEvery == 0 {
			res.BonusXP = policy.BonusXP
		}
		bumpLongest(p)
		return res
	}

	// Gap, clock moved backwards, or unparseable date
	if ok && gap > 1 {
		res.DaysMissed = gap - 1
	}
	p.StreakDays = 1
	p.LastActiveDate = todayStr
	res.State = StreakReset
	res.NewStreak = 1
	bumpLongest(p)
	return res
}

// calendarDaysBetween returns the civil-day difference from last to today.
func calendarDaysBetween(last string, today time.Time) (int, bool) {
	lastDay, err := time.Parse(dateLayout, last)
	if err != nil {
		return 0, false
	}
	y, m, d := today.Date()
	todayDay := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	days := int(todayDay.Sub(lastDay).Hours() / 24)
	return days, true
}

func bumpLongest(p *domain.Profile) {
	if p.StreakDays > p.LongestStreak {
		p.LongestStreak = p.StreakDays
	}
}
