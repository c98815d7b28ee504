// Package vacation answers whether a day is covered by a vacation period for a
// given habit. Periods are read-only inputs; nothing here mutates them.
package vacation

import (
	"fmt"

	"github.com/julianstephens/habitual/internal/calendar"
	"github.com/julianstephens/habitual/internal/models"
)

// Contains reports whether day falls inside p's inclusive range. Periods with
// unparseable bounds cover nothing.
func Contains(p models.VacationPeriod, day calendar.Day) bool {
	start, err := calendar.ParseDay(p.StartDate)
	if err != nil {
		return false
	}
	end, err := calendar.ParseDay(p.EndDate)
	if err != nil {
		return false
	}
	return !day.Before(start) && !day.After(end)
}

// IsDateInVacation reports whether any period applicable to habitID covers day.
func IsDateInVacation(day calendar.Day, habitID string, periods []models.VacationPeriod) bool {
	for _, p := range periods {
		if p.AppliesTo(habitID) && Contains(p, day) {
			return true
		}
	}
	return false
}

// CountVacationDaysInRange counts the days in days that IsDateInVacation.
func CountVacationDaysInRange(days []calendar.Day, habitID string, periods []models.VacationPeriod) int {
	if len(periods) == 0 {
		return 0
	}
	n := 0
	for _, d := range days {
		if IsDateInVacation(d, habitID, periods) {
			n++
		}
	}
	return n
}

// ForHabit filters periods down to the ones that apply to habitID.
func ForHabit(habitID string, periods []models.VacationPeriod) []models.VacationPeriod {
	var out []models.VacationPeriod
	for _, p := range periods {
		if p.AppliesTo(habitID) {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks a period before it is stored.
func Validate(p models.VacationPeriod) error {
	start, err := calendar.ParseDay(p.StartDate)
	if err != nil {
		return fmt.Errorf("invalid start date: %w", err)
	}
	end, err := calendar.ParseDay(p.EndDate)
	if err != nil {
		return fmt.Errorf("invalid end date: %w", err)
	}
	if end.Before(start) {
		return fmt.Errorf("end date %s is before start date %s", p.EndDate, p.StartDate)
	}
	if !p.AllHabits && len(p.HabitIDs) == 0 {
		return fmt.Errorf("vacation must apply to all habits or to at least one habit")
	}
	return nil
}
