// Package calendar holds the naive wall-clock day arithmetic used by habit
// scheduling. A Day is a calendar date with no time zone; it is stored as a
// YYYY-MM-DD key and parsed only at the boundaries.
package calendar

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/habitual/internal/constants"
)

// Day is a calendar day. The zero value is the invalid day and reports IsZero.
type Day struct {
	t time.Time // always midnight UTC
}

// Date builds a Day from its components. Out-of-range values normalize the
// same way time.Date does.
func Date(year int, month time.Month, day int) Day {
	return Day{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// FromTime drops the clock part of t, keeping the wall-clock date in t's own location.
func FromTime(t time.Time) Day {
	return Date(t.Year(), t.Month(), t.Day())
}

// ParseDay parses a YYYY-MM-DD day key.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(constants.DateFormat, strings.TrimSpace(s))
	if err != nil {
		return Day{}, fmt.Errorf("invalid day %q (expected YYYY-MM-DD): %w", s, err)
	}
	return Day{t: t}, nil
}

// MustParseDay is ParseDay for literals; it panics on malformed input.
func MustParseDay(s string) Day {
	d, err := ParseDay(s)
	if err != nil {
		panic(err)
	}
	return d
}

// ParseDayLoose accepts a day key or any ISO-8601 timestamp and truncates it to
// its calendar day. It is used for fields like createdAt that may hold either.
func ParseDayLoose(s string) (Day, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Day{}, false
	}
	if d, err := ParseDay(s); err == nil {
		return d, true
	}
	if t, ok := ParseTimestamp(s); ok {
		return FromTime(t), true
	}
	if len(s) >= len(constants.DateFormat) {
		if d, err := ParseDay(s[:len(constants.DateFormat)]); err == nil {
			return d, true
		}
	}
	return Day{}, false
}

// ParseTimestamp parses the timestamp formats found on stored records:
// RFC 3339 with or without fractional seconds, or a bare day key.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", constants.DateFormat} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func (d Day) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(constants.DateFormat)
}

func (d Day) IsZero() bool { return d.t.IsZero() }

// Time returns midnight UTC of the day.
func (d Day) Time() time.Time { return d.t }

func (d Day) Weekday() time.Weekday { return d.t.Weekday() }

func (d Day) Year() int { return d.t.Year() }

func (d Day) Month() time.Month { return d.t.Month() }

func (d Day) DayOfMonth() int { return d.t.Day() }

func (d Day) AddDays(n int) Day { return Day{t: d.t.AddDate(0, 0, n)} }

func (d Day) Before(o Day) bool { return d.t.Before(o.t) }

func (d Day) After(o Day) bool { return d.t.After(o.t) }

func (d Day) Equal(o Day) bool { return d.t.Equal(o.t) }

// Compare returns -1, 0 or +1.
func (d Day) Compare(o Day) int { return d.t.Compare(o.t) }

// DaysSince returns the whole number of days from o to d (negative when d is earlier).
func (d Day) DaysSince(o Day) int {
	return int(d.t.Sub(o.t).Hours() / 24)
}

// MinDay returns the earlier of a and b, ignoring zero days.
func MinDay(a, b Day) Day {
	switch {
	case a.IsZero():
		return b
	case b.IsZero():
		return a
	case b.Before(a):
		return b
	}
	return a
}

func (d Day) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Day) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Day{}
		return nil
	}
	parsed, err := ParseDay(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
