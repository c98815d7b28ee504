// Package completion converts stored completion entries into a 0-100 quality
// score, the input of the strength moving average.
package completion

import (
	"math"

	"github.com/julianstephens/habitual/internal/calendar"
	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/models"
)

// Quality returns the completion quality of habit on day, in [0, 100].
func Quality(habit models.Habit, day calendar.Day) float64 {
	v, ok := habit.Completion(day)
	if !ok {
		return 0
	}
	return clamp(ValueQuality(habit, v))
}

// ValueQuality scores a single entry against the habit's target.
//
// Binary habits score 100 for true and 0 otherwise. Measurable habits score a
// legacy true as 100; numbers are scored against targetValue: a min target
// scales linearly up to 100 with no bonus for overshoot, a max target scores
// 100 up to the ceiling and loses 100 points per target-width of excess.
func ValueQuality(habit models.Habit, v models.CompletionValue) float64 {
	switch v.Kind {
	case models.NotCompleted:
		return 0
	case models.Completed:
		return constants.MaxStrength
	}

	if !habit.IsMeasurable() {
		return 0
	}

	amount := v.Amount
	target := habit.TargetValue
	if math.IsNaN(amount) {
		return 0
	}
	if target == 0 || math.IsNaN(target) {
		if amount > 0 {
			return constants.MaxStrength
		}
		return 0
	}

	if habit.TargetType == models.TargetMax {
		if amount <= target {
			return constants.MaxStrength
		}
		return math.Max(constants.MaxStrength-((amount-target)/target)*100, 0)
	}
	return math.Min((amount/target)*100, constants.MaxStrength)
}

func clamp(q float64) float64 {
	if math.IsNaN(q) || q < 0 {
		return 0
	}
	return math.Min(q, constants.MaxStrength)
}
