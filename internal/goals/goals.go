// Package goals computes how many completions a habit's schedule asks for over
// a span of days, after removing vacation days.
package goals

import (
	"math"
	"time"

	"github.com/julianstephens/habitual/internal/calendar"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/vacation"
)

// AdjustedMonthlyGoal returns the number of completions the habit's rule
// requires over monthDates, ignoring days before the habit starts and days on
// vacation. Quota rules return a capped target rather than a per-day count.
func AdjustedMonthlyGoal(habit models.Habit, monthDates []calendar.Day, periods []models.VacationPeriod) int {
	valid := validDays(habit, monthDates)
	if len(valid) == 0 {
		return 0
	}

	f := habit.Frequency
	if f == nil {
		return max(0, len(valid)-vacation.CountVacationDaysInRange(valid, habit.ID, periods))
	}

	switch f.Type {
	case models.FrequencyEveryNDays:
		step := max(1, f.Period)
		goal := 0
		for i := 0; i < len(valid); i += step {
			if !vacation.IsDateInVacation(valid[i], habit.ID, periods) {
				goal++
			}
		}
		return goal
	case models.FrequencyDaysOfWeek:
		goal := 0
		for _, d := range valid {
			if f.IncludesWeekday(d.Weekday()) && !vacation.IsDateInVacation(d, habit.ID, periods) {
				goal++
			}
		}
		return goal
	case models.FrequencyNTimesWeek:
		goal := 0
		for _, week := range weekBuckets(valid) {
			available := len(week) - vacation.CountVacationDaysInRange(week, habit.ID, periods)
			goal += min(f.Count, max(0, available))
		}
		return goal
	case models.FrequencyNTimesMonth:
		available := len(valid) - vacation.CountVacationDaysInRange(valid, habit.ID, periods)
		return min(f.Count, max(0, available))
	default:
		return max(0, len(valid)-vacation.CountVacationDaysInRange(valid, habit.ID, periods))
	}
}

// Progress is a habit's standing against its adjusted goal for one month.
type Progress struct {
	Year      int        `json:"year"`
	Month     time.Month `json:"month"`
	Completed int        `json:"completed"`
	Goal      int        `json:"goal"`
	Percent   float64    `json:"percent"` // 0-100, capped
}

// MonthlyProgress counts completions in the month containing day and compares
// them with the adjusted goal. Percent is 0 when the goal is 0.
func MonthlyProgress(habit models.Habit, day calendar.Day, periods []models.VacationPeriod) Progress {
	days := calendar.MonthDays(day.Year(), day.Month())
	p := Progress{
		Year:  day.Year(),
		Month: day.Month(),
		Goal:  AdjustedMonthlyGoal(habit, days, periods),
	}
	for _, d := range validDays(habit, days) {
		if habit.IsCompleted(d) {
			p.Completed++
		}
	}
	if p.Goal > 0 {
		pct := float64(p.Completed) / float64(p.Goal) * 100
		if math.IsNaN(pct) {
			pct = 0
		}
		p.Percent = math.Min(pct, 100)
	}
	return p
}

func validDays(habit models.Habit, days []calendar.Day) []calendar.Day {
	start := habit.StartDay()
	valid := make([]calendar.Day, 0, len(days))
	for _, d := range days {
		if start.IsZero() || !d.Before(start) {
			valid = append(valid, d)
		}
	}
	return valid
}

// weekBuckets splits days into runs that end on each Sunday. The final run is
// kept even if it does not reach a Sunday.
func weekBuckets(days []calendar.Day) [][]calendar.Day {
	var buckets [][]calendar.Day
	var current []calendar.Day
	for i, d := range days {
		current = append(current, d)
		if d.Weekday() == time.Sunday || i == len(days)-1 {
			buckets = append(buckets, current)
			current = nil
		}
	}
	return buckets
}
