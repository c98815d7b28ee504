package models

import (
	"time"

	"github.com/julianstephens/habitual/internal/calendar"
)

type HabitType string

const (
	HabitBinary     HabitType = "binary"
	HabitMeasurable HabitType = "measurable"
)

type TargetType string

const (
	TargetMin TargetType = "min"
	TargetMax TargetType = "max"
)

// Habit represents a recurring practice to track. Day-keyed maps use
// YYYY-MM-DD keys; timestamps are RFC 3339 strings so records round-trip
// through any JSON store unchanged.
type Habit struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Type        HabitType `json:"type"`
	StartDate   string    `json:"startDate,omitempty"`
	CreatedAt   string    `json:"createdAt"`
	UpdatedAt   string    `json:"updatedAt,omitempty"`

	Completions map[string]CompletionValue `json:"completions"`
	Frequency   *Frequency                 `json:"frequency,omitempty"`

	TargetValue float64    `json:"targetValue,omitempty"`
	TargetType  TargetType `json:"targetType,omitempty"`
	Unit        string     `json:"unit,omitempty"`

	Strength           int     `json:"strength"`
	LastStrengthUpdate string  `json:"lastStrengthUpdate,omitempty"`
	StrengthBaseline   float64 `json:"strengthBaseline"`

	IsArchived bool `json:"isArchived"`

	Icon             string   `json:"icon,omitempty"`
	Tags             []string `json:"tags,omitempty"`
	Section          string   `json:"section,omitempty"`
	Reminders        []string `json:"reminders,omitempty"` // HH:MM
	NotesEnabled     bool     `json:"notesEnabled,omitempty"`
	TimerEnabled     bool     `json:"timerEnabled,omitempty"`
	TimerDurationMin int      `json:"timerDurationMin,omitempty"`

	Notes   map[string]string `json:"notes,omitempty"`
	Moods   map[string]int    `json:"moods,omitempty"`
	Skipped map[string]bool   `json:"skipped,omitempty"`
}

// NewHabit returns a habit starting today with a zeroed strength score.
func NewHabit(id, name string, typ HabitType, now time.Time) Habit {
	ts := now.Format(time.RFC3339)
	return Habit{
		ID:                 id,
		Name:               name,
		Type:               typ,
		StartDate:          calendar.FromTime(now).String(),
		CreatedAt:          ts,
		UpdatedAt:          ts,
		Completions:        map[string]CompletionValue{},
		Strength:           0,
		StrengthBaseline:   0,
		LastStrengthUpdate: ts,
	}
}

// StartDay is the first day the habit exists: startDate, falling back to the
// day of createdAt. It is zero when neither parses.
func (h Habit) StartDay() calendar.Day {
	if d, ok := calendar.ParseDayLoose(h.StartDate); ok {
		return d
	}
	if d, ok := calendar.ParseDayLoose(h.CreatedAt); ok {
		return d
	}
	return calendar.Day{}
}

func (h Habit) IsMeasurable() bool { return h.Type == HabitMeasurable }

// Completion returns the stored entry for day, if any.
func (h Habit) Completion(day calendar.Day) (CompletionValue, bool) {
	v, ok := h.Completions[day.String()]
	return v, ok
}

// IsCompleted reports whether day holds a true or numeric completion.
func (h Habit) IsCompleted(day calendar.Day) bool {
	v, ok := h.Completions[day.String()]
	return ok && v.IsDone()
}

// IsSkipped reports a manual freeze on day.
func (h Habit) IsSkipped(day calendar.Day) bool {
	return h.Skipped[day.String()]
}

// SetCompletion records v for day. Callers must run the strength engine afterwards.
func (h *Habit) SetCompletion(day calendar.Day, v CompletionValue) {
	if h.Completions == nil {
		h.Completions = map[string]CompletionValue{}
	}
	h.Completions[day.String()] = v
}

// ClearCompletion removes the completion for day together with its note, so
// un-marking restores absence rather than storing false.
func (h *Habit) ClearCompletion(day calendar.Day) {
	key := day.String()
	delete(h.Completions, key)
	delete(h.Notes, key)
}

// ToggleSkip flips the manual freeze for day and returns the new state.
func (h *Habit) ToggleSkip(day calendar.Day) bool {
	key := day.String()
	if h.Skipped[key] {
		delete(h.Skipped, key)
		return false
	}
	if h.Skipped == nil {
		h.Skipped = map[string]bool{}
	}
	h.Skipped[key] = true
	return true
}

// Touch stamps updatedAt.
func (h *Habit) Touch(now time.Time) {
	h.UpdatedAt = now.UTC().Format(time.RFC3339Nano)
}

// ModifiedAt is the conflict-resolution timestamp: updatedAt, else createdAt.
func (h Habit) ModifiedAt() time.Time {
	if t, ok := calendar.ParseTimestamp(h.UpdatedAt); ok {
		return t
	}
	t, _ := calendar.ParseTimestamp(h.CreatedAt)
	return t
}

// Clone returns a deep copy so callers can hand out records without sharing maps.
func (h Habit) Clone() Habit {
	c := h
	if h.Completions != nil {
		c.Completions = make(map[string]CompletionValue, len(h.Completions))
		for k, v := range h.Completions {
			c.Completions[k] = v
		}
	}
	if h.Frequency != nil {
		f := *h.Frequency
		f.DaysOfWeek = append([]int(nil), h.Frequency.DaysOfWeek...)
		c.Frequency = &f
	}
	c.Tags = append([]string(nil), h.Tags...)
	c.Reminders = append([]string(nil), h.Reminders...)
	c.Notes = cloneMap(h.Notes)
	c.Moods = cloneMap(h.Moods)
	c.Skipped = cloneMap(h.Skipped)
	return c
}

func cloneMap[V any](m map[string]V) map[string]V {
	if m == nil {
		return nil
	}
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
