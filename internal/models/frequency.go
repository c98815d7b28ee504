package models

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

type FrequencyType string

const (
	FrequencyEveryDay    FrequencyType = "every_day"
	FrequencyDaysOfWeek  FrequencyType = "by_days_of_week"
	FrequencyEveryNDays  FrequencyType = "every_n_days"
	FrequencyNTimesWeek  FrequencyType = "n_times_week"
	FrequencyNTimesMonth FrequencyType = "n_times_month"
)

// Frequency is the schedule rule of a habit. Only the fields relevant to Type
// are meaningful; a nil *Frequency on a habit means every day.
type Frequency struct {
	Type       FrequencyType `json:"type"`
	DaysOfWeek []int         `json:"daysOfWeek,omitempty"` // 0=Sunday .. 6=Saturday
	Period     int           `json:"period,omitempty"`
	Count      int           `json:"count,omitempty"`
}

// IncludesWeekday reports whether wd is one of the configured days of the week.
func (f Frequency) IncludesWeekday(wd time.Weekday) bool {
	for _, d := range f.DaysOfWeek {
		if time.Weekday(d) == wd {
			return true
		}
	}
	return false
}

func (f Frequency) Validate() error {
	switch f.Type {
	case FrequencyEveryDay, "":
		return nil
	case FrequencyDaysOfWeek:
		if len(f.DaysOfWeek) == 0 {
			return fmt.Errorf("by_days_of_week requires at least one weekday")
		}
		for _, d := range f.DaysOfWeek {
			if d < 0 || d > 6 {
				return fmt.Errorf("invalid weekday index %d (expected 0-6)", d)
			}
		}
	case FrequencyEveryNDays:
		if f.Period < 1 {
			return fmt.Errorf("every_n_days period must be at least 1, got %d", f.Period)
		}
	case FrequencyNTimesWeek:
		if f.Count < 1 || f.Count > 7 {
			return fmt.Errorf("n_times_week count must be between 1 and 7, got %d", f.Count)
		}
	case FrequencyNTimesMonth:
		if f.Count < 1 || f.Count > 31 {
			return fmt.Errorf("n_times_month count must be between 1 and 31, got %d", f.Count)
		}
	default:
		return fmt.Errorf("unknown frequency type %q", f.Type)
	}
	return nil
}

// FormatFrequency formats a frequency rule into a human-readable string
func FormatFrequency(f *Frequency) string {
	if f == nil {
		return "every day"
	}
	switch f.Type {
	case FrequencyEveryDay, "":
		return "every day"
	case FrequencyDaysOfWeek:
		days := append([]int(nil), f.DaysOfWeek...)
		sort.Ints(days)
		names := make([]string, 0, len(days))
		for _, d := range days {
			names = append(names, time.Weekday(d).String()[:3])
		}
		return "on " + strings.Join(names, ",")
	case FrequencyEveryNDays:
		if f.Period <= 1 {
			return "every day"
		}
		return fmt.Sprintf("every %d days", f.Period)
	case FrequencyNTimesWeek:
		return fmt.Sprintf("%d times a week", f.Count)
	case FrequencyNTimesMonth:
		return fmt.Sprintf("%d times a month", f.Count)
	default:
		return "unknown"
	}
}
