// Package frequency decides, day by day, whether a habit's schedule rule
// requires a completion. Days the rule does not require are auto-skipped:
// computed on demand and never stored.
package frequency

import (
	"github.com/julianstephens/habitual/internal/calendar"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/vacation"
)

// IsAutoSkipped reports whether the habit's frequency rule does not require
// day. Days before the habit starts, completed days and habits without a rule
// are never auto-skipped.
//
// Quota rules (n_times_week, n_times_month) look at the whole window, future
// days included: once the quota is met every remaining open day in the window
// is skipped, even days after today.
func IsAutoSkipped(habit models.Habit, day calendar.Day, periods []models.VacationPeriod) bool {
	start := habit.StartDay()
	if !start.IsZero() && day.Before(start) {
		return false
	}
	if habit.IsCompleted(day) {
		return false
	}
	f := habit.Frequency
	if f == nil {
		return false
	}

	switch f.Type {
	case models.FrequencyDaysOfWeek:
		return !f.IncludesWeekday(day.Weekday())
	case models.FrequencyEveryNDays:
		if f.Period <= 1 || start.IsZero() {
			return false
		}
		daysDiff := day.DaysSince(start)
		return daysDiff >= 0 && daysDiff%f.Period != 0
	case models.FrequencyNTimesWeek:
		weekStart, weekEnd := calendar.WeekBounds(day)
		return quotaMet(habit, f.Count, weekStart, weekEnd, periods)
	case models.FrequencyNTimesMonth:
		monthStart, monthEnd := calendar.MonthBounds(day)
		return quotaMet(habit, f.Count, monthStart, monthEnd, periods)
	default:
		// every_day and unknown rules require every day
		return false
	}
}

// ShouldShowAutoSkip is the display-side name for IsAutoSkipped. There is no
// separate cutoff at today: future days are evaluated the same way.
func ShouldShowAutoSkip(habit models.Habit, day calendar.Day, periods []models.VacationPeriod) bool {
	return IsAutoSkipped(habit, day, periods)
}

// IsRequired reports whether a completion is expected on day: the habit exists,
// the day is not a vacation day for it and the rule does not auto-skip it.
// Completed days stay required so they keep counting towards the rule.
func IsRequired(habit models.Habit, day calendar.Day, periods []models.VacationPeriod) bool {
	start := habit.StartDay()
	if !start.IsZero() && day.Before(start) {
		return false
	}
	if vacation.IsDateInVacation(day, habit.ID, periods) {
		return false
	}
	return !IsAutoSkipped(habit, day, periods)
}

// quotaMet reports whether the completions recorded in [windowStart, windowEnd]
// already reach the quota, after shrinking it to the days the habit can
// actually be done (existing and not on vacation).
func quotaMet(habit models.Habit, count int, windowStart, windowEnd calendar.Day, periods []models.VacationPeriod) bool {
	window := calendar.EnumerateDays(windowStart, windowEnd)

	start := habit.StartDay()
	active := make([]calendar.Day, 0, len(window))
	for _, d := range window {
		if start.IsZero() || !d.Before(start) {
			active = append(active, d)
		}
	}

	available := len(active) - vacation.CountVacationDaysInRange(active, habit.ID, periods)
	target := min(count, max(0, available))

	completed := 0
	for _, d := range window {
		if habit.IsCompleted(d) {
			completed++
		}
	}
	return completed >= target
}
