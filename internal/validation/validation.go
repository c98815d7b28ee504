// Package validation audits stored habits and vacations for records the
// analytics engine would silently work around: unparseable day keys,
// completions before a habit starts, strength checkpoints out of range.
package validation

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/julianstephens/habitual/internal/calendar"
	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/vacation"
)

// ConflictType represents the type of validation conflict
type ConflictType string

const (
	ConflictDuplicateHabitName    ConflictType = "duplicate_habit_name"
	ConflictInvalidFrequency      ConflictType = "invalid_frequency"
	ConflictInvalidDayKey         ConflictType = "invalid_day_key"
	ConflictCompletionBeforeStart ConflictType = "completion_before_start"
	ConflictStrengthOutOfRange    ConflictType = "strength_out_of_range"
	ConflictStaleCheckpoint       ConflictType = "stale_strength_checkpoint"
	ConflictInvalidVacation       ConflictType = "invalid_vacation"
	ConflictUnknownVacationHabit  ConflictType = "unknown_vacation_habit"
)

// Conflict is one problem found in the stored data.
type Conflict struct {
	Type        ConflictType
	Description string
	HabitID     string
	Day         string // YYYY-MM-DD, when the conflict is about one day
	// Fixable conflicts are repaired by Fix.
	Fixable bool
}

// Result contains all detected conflicts
type Result struct {
	Conflicts []Conflict
}

// HasConflicts returns true if there are any conflicts
func (r *Result) HasConflicts() bool {
	return len(r.Conflicts) > 0
}

// FormatReport returns a human-readable report of all conflicts
func (r *Result) FormatReport() string {
	if !r.HasConflicts() {
		return "No conflicts detected."
	}
	var b strings.Builder
	b.WriteString("Conflicts detected:\n")
	for _, c := range r.Conflicts {
		fmt.Fprintf(&b, "- %s\n", c.Description)
	}
	return b.String()
}

// Habits checks habits and the vacations that reference them. today bounds
// the checkpoint check: a habit that has not started yet keeps the checkpoint
// it was created with.
func Habits(habits []models.Habit, periods []models.VacationPeriod, today calendar.Day) Result {
	var res Result
	names := make(map[string]string, len(habits))
	ids := make(map[string]bool, len(habits))

	for _, h := range habits {
		ids[h.ID] = true
		key := strings.ToLower(strings.TrimSpace(h.Name))
		if other, ok := names[key]; ok {
			res.add(Conflict{
				Type:        ConflictDuplicateHabitName,
				Description: fmt.Sprintf("habits %s and %s share the name %q", other, h.ID, h.Name),
				HabitID:     h.ID,
			})
		} else {
			names[key] = h.ID
		}
		res.Conflicts = append(res.Conflicts, checkHabit(h, today)...)
	}

	for _, p := range periods {
		if err := vacation.Validate(p); err != nil {
			res.add(Conflict{
				Type:        ConflictInvalidVacation,
				Description: fmt.Sprintf("vacation %s: %v", p.ID, err),
			})
			continue
		}
		for _, id := range p.HabitIDs {
			if !ids[id] {
				res.add(Conflict{
					Type:        ConflictUnknownVacationHabit,
					Description: fmt.Sprintf("vacation %s references unknown habit %s", p.ID, id),
					HabitID:     id,
				})
			}
		}
	}
	return res
}

func (r *Result) add(c Conflict) { r.Conflicts = append(r.Conflicts, c) }

func checkHabit(h models.Habit, today calendar.Day) []Conflict {
	var out []Conflict
	if h.Frequency != nil {
		if err := h.Frequency.Validate(); err != nil {
			out = append(out, Conflict{
				Type:        ConflictInvalidFrequency,
				Description: fmt.Sprintf("habit %q: %v", h.Name, err),
				HabitID:     h.ID,
			})
		}
	}

	start := h.StartDay()
	keys := make([]string, 0, len(h.Completions))
	for k := range h.Completions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		d, err := calendar.ParseDay(k)
		if err != nil {
			out = append(out, Conflict{
				Type:        ConflictInvalidDayKey,
				Description: fmt.Sprintf("habit %q has a completion under invalid day %q", h.Name, k),
				HabitID:     h.ID,
				Day:         k,
				Fixable:     true,
			})
			continue
		}
		if !start.IsZero() && d.Before(start) {
			out = append(out, Conflict{
				Type:        ConflictCompletionBeforeStart,
				Description: fmt.Sprintf("habit %q has a completion on %s, before its start %s", h.Name, k, start),
				HabitID:     h.ID,
				Day:         k,
			})
		}
	}

	if h.Strength < 0 || h.Strength > constants.MaxStrength ||
		math.IsNaN(h.StrengthBaseline) || h.StrengthBaseline < 0 || h.StrengthBaseline > constants.MaxStrength {
		out = append(out, Conflict{
			Type:        ConflictStrengthOutOfRange,
			Description: fmt.Sprintf("habit %q has strength %d (baseline %.2f) outside 0-%d", h.Name, h.Strength, h.StrengthBaseline, constants.MaxStrength),
			HabitID:     h.ID,
			Fixable:     true,
		})
	}

	if last, ok := calendar.ParseDayLoose(h.LastStrengthUpdate); ok && !start.IsZero() && last.Before(start) && !start.After(today) {
		out = append(out, Conflict{
			Type:        ConflictStaleCheckpoint,
			Description: fmt.Sprintf("habit %q last strength update %s is before its start %s", h.Name, last, start),
			HabitID:     h.ID,
			Fixable:     true,
		})
	}
	return out
}

// Fix repairs the fixable conflicts in place and returns the ids of the
// habits it changed. Invalid day keys are dropped; strength checkpoints are
// cleared so the next recalculation rebuilds them from the completions.
func Fix(habits []models.Habit, res Result) []string {
	index := make(map[string]int, len(habits))
	for i, h := range habits {
		index[h.ID] = i
	}
	changed := map[string]bool{}
	for _, c := range res.Conflicts {
		if !c.Fixable {
			continue
		}
		i, ok := index[c.HabitID]
		if !ok {
			continue
		}
		h := &habits[i]
		switch c.Type {
		case ConflictInvalidDayKey:
			delete(h.Completions, c.Day)
			delete(h.Notes, c.Day)
		case ConflictStrengthOutOfRange, ConflictStaleCheckpoint:
			h.LastStrengthUpdate = ""
			h.StrengthBaseline = 0
			h.Strength = 0
		}
		changed[c.HabitID] = true
	}

	ids := make([]string, 0, len(changed))
	for id := range changed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
