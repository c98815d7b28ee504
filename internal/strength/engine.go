// Package strength maintains the per-habit strength score: an exponential
// moving average of daily completion quality in which vacation days and days
// the schedule does not require are frozen rather than counted as misses.
package strength

import (
	"math"
	"time"

	"github.com/julianstephens/habitual/internal/calendar"
	"github.com/julianstephens/habitual/internal/completion"
	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/frequency"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/vacation"
)

// ApplyEMAStep moves current 1/period of the way towards quality.
func ApplyEMAStep(current, quality float64, period int) float64 {
	if period < 1 {
		period = 1
	}
	alpha := 1 / float64(period)
	next := current*(1-alpha) + quality*alpha
	if math.IsNaN(next) {
		return 0
	}
	return next
}

// IsFrozen reports whether day leaves strength untouched: the habit is on
// vacation or its schedule does not require the day.
func IsFrozen(habit models.Habit, day calendar.Day, periods []models.VacationPeriod) bool {
	return vacation.IsDateInVacation(day, habit.ID, periods) || frequency.IsAutoSkipped(habit, day, periods)
}

// Engine recalculates strength against an injected clock.
type Engine struct {
	clock Clock
}

func NewEngine(clock Clock) *Engine {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Engine{clock: clock}
}

// Today is the engine's current calendar day.
func (e *Engine) Today() calendar.Day {
	return calendar.FromTime(e.clock.Now())
}

// Recalculate is RecalculateStrength at the engine clock's current time.
func (e *Engine) Recalculate(habit models.Habit, changed calendar.Day, periods []models.VacationPeriod) models.Habit {
	return RecalculateStrength(habit, changed, periods, e.clock.Now())
}

// RecalculateAll fully recomputes every habit, discarding any checkpoint. It
// is used after a merge, when the stored checkpoint no longer matches the
// completion history.
func (e *Engine) RecalculateAll(habits []models.Habit, periods []models.VacationPeriod) []models.Habit {
	now := e.clock.Now()
	out := make([]models.Habit, len(habits))
	for i, h := range habits {
		h.LastStrengthUpdate = ""
		out[i] = RecalculateStrength(h, calendar.Day{}, periods, now)
	}
	return out
}

// RecalculateStrength folds the habit's completions into its strength score as
// of now. changed is the day whose completion was just edited, or the zero Day.
//
// When the habit was already brought up to date today and the edit is not
// older than that checkpoint, only today is replayed on top of
// strengthBaseline. Otherwise the average is rebuilt from the first day the
// habit has data for, and strengthBaseline is re-snapshotted just before
// today. Edits to days after today return the habit unchanged.
func RecalculateStrength(habit models.Habit, changed calendar.Day, periods []models.VacationPeriod, now time.Time) models.Habit {
	today := calendar.FromTime(now)
	if !changed.IsZero() && changed.After(today) {
		return habit
	}

	lastUpdate, ok := calendar.ParseDayLoose(habit.LastStrengthUpdate)
	if ok && lastUpdate.Equal(today) && (changed.IsZero() || !changed.Before(lastUpdate)) {
		return incremental(habit, lastUpdate, today, periods)
	}
	return full(habit, today, periods, now)
}

func incremental(habit models.Habit, from, today calendar.Day, periods []models.VacationPeriod) models.Habit {
	s := sanitize(habit.StrengthBaseline)
	for _, d := range calendar.EnumerateDays(from, today) {
		if IsFrozen(habit, d, periods) {
			continue
		}
		s = ApplyEMAStep(s, completion.Quality(habit, d), constants.EMAPeriod)
	}
	habit.Strength = floorStrength(s)
	return habit
}

func full(habit models.Habit, today calendar.Day, periods []models.VacationPeriod, now time.Time) models.Habit {
	s := 0.0
	beforeToday := 0.0

	start := FirstDay(habit)
	if !start.IsZero() {
		for d := start; !d.After(today); d = d.AddDays(1) {
			if d.Equal(today) {
				beforeToday = s
			}
			if IsFrozen(habit, d, periods) {
				continue
			}
			s = ApplyEMAStep(s, completion.Quality(habit, d), constants.EMAPeriod)
		}
	}

	habit.Strength = floorStrength(s)
	habit.LastStrengthUpdate = now.Format(time.RFC3339)
	habit.StrengthBaseline = sanitize(beforeToday)
	return habit
}

// FirstDay is the earliest day strength is computed from: the habit's start
// day, or an earlier completion if one was recorded before it.
func FirstDay(habit models.Habit) calendar.Day {
	first := habit.StartDay()
	for key, v := range habit.Completions {
		if !v.IsDone() {
			continue
		}
		d, err := calendar.ParseDay(key)
		if err != nil {
			continue
		}
		first = calendar.MinDay(first, d)
	}
	return first
}

func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return math.Min(v, constants.MaxStrength)
}

func floorStrength(v float64) int {
	return int(math.Floor(sanitize(v)))
}
