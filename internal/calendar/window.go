package calendar

import "time"

// EnumerateDays returns every day from start through end inclusive, in order.
// It returns nil when end is before start or either bound is zero.
func EnumerateDays(start, end Day) []Day {
	if start.IsZero() || end.IsZero() || end.Before(start) {
		return nil
	}
	days := make([]Day, 0, end.DaysSince(start)+1)
	for d := start; !d.After(end); d = d.AddDays(1) {
		days = append(days, d)
	}
	return days
}

// WeekBounds returns the Monday and Sunday of the ISO week containing d.
func WeekBounds(d Day) (Day, Day) {
	// Sunday is 0 in time.Weekday; shift so Monday is offset 0
	offset := (int(d.Weekday()) + 6) % 7
	start := d.AddDays(-offset)
	return start, start.AddDays(6)
}

// MonthBounds returns the first and last day of d's month.
func MonthBounds(d Day) (Day, Day) {
	first := Date(d.Year(), d.Month(), 1)
	last := Date(d.Year(), d.Month()+1, 0)
	return first, last
}

// MonthDays enumerates every day of the given month.
func MonthDays(year int, month time.Month) []Day {
	first, last := MonthBounds(Date(year, month, 1))
	return EnumerateDays(first, last)
}

// Keys formats days as day-key strings.
func Keys(days []Day) []string {
	keys := make([]string, len(days))
	for i, d := range days {
		keys[i] = d.String()
	}
	return keys
}
