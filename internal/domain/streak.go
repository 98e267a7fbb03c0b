package domain

import "time"

const day = 24 * time.Hour

// DaysBetween returns the whole days elapsed from prev to now (floor division).
// A clock that moved backwards counts as zero days.
func DaysBetween(prev, now time.Time) int {
	elapsed := now.Sub(prev)
	if elapsed < 0 {
		return 0
	}
	return int(elapsed / day)
}

// NextStreak returns stats after a practice session at now.
// The day delta is taken against the previous LastPracticeDate before it is overwritten:
// same day keeps the streak, one day increments it, more than one resets it to 1.
func NextStreak(stats Stats, now time.Time) Stats {
	next := stats

	if stats.LastPracticeDate == nil {
		next.StreakDays = 1
	} else {
		switch days := DaysBetween(*stats.LastPracticeDate, now); {
		case days == 1:
			next.StreakDays = stats.StreakDays + 1
		case days > 1:
			next.StreakDays = 1
		}
	}

	practiced := now
	next.LastPracticeDate = &practiced
	return next
}

// PracticeDayLabel returns a user-friendly label for a practice date
func PracticeDayLabel(date, now time.Time) string {
	if sameDay(date, now) {
		return "Today"
	}
	if sameDay(date, now.AddDate(0, 0, -1)) {
		return "Yesterday"
	}
	return date.Format("2 Jan 2006")
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
