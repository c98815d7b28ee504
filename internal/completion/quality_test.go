package completion

import (
	"math"
	"testing"

	"github.com/julianstephens/habitual/internal/calendar"
	"github.com/julianstephens/habitual/internal/models"
)

var testDay = calendar.MustParseDay("2025-01-10")

func measurable(target float64, tt models.TargetType, v *models.CompletionValue) models.Habit {
	h := models.Habit{
		ID:          "m1",
		Type:        models.HabitMeasurable,
		TargetValue: target,
		TargetType:  tt,
		Completions: map[string]models.CompletionValue{},
	}
	if v != nil {
		h.Completions[testDay.String()] = *v
	}
	return h
}

func ptr(v models.CompletionValue) *models.CompletionValue { return &v }

func TestQuality_Binary(t *testing.T) {
	h := models.Habit{Type: models.HabitBinary, Completions: map[string]models.CompletionValue{}}
	if got := Quality(h, testDay); got != 0 {
		t.Errorf("missing completion: expected 0, got %v", got)
	}
	h.Completions[testDay.String()] = models.Done()
	if got := Quality(h, testDay); got != 100 {
		t.Errorf("true: expected 100, got %v", got)
	}
	h.Completions[testDay.String()] = models.NotDone()
	if got := Quality(h, testDay); got != 0 {
		t.Errorf("false: expected 0, got %v", got)
	}
	h.Completions[testDay.String()] = models.Measured(4)
	if got := Quality(h, testDay); got != 0 {
		t.Errorf("number on binary habit: expected 0, got %v", got)
	}
}

func TestQuality_Measurable(t *testing.T) {
	tests := []struct {
		name   string
		target float64
		tt     models.TargetType
		v      *models.CompletionValue
		want   float64
	}{
		{"missing", 10, models.TargetMin, nil, 0},
		{"false", 10, models.TargetMin, ptr(models.NotDone()), 0},
		{"legacy true", 10, models.TargetMin, ptr(models.Done()), 100},
		{"legacy true on max", 5, models.TargetMax, ptr(models.Done()), 100},
		{"no target positive", 0, models.TargetMin, ptr(models.Measured(3)), 100},
		{"no target zero", 0, models.TargetMin, ptr(models.Measured(0)), 0},
		{"min half", 10, models.TargetMin, ptr(models.Measured(5)), 50},
		{"min exact", 10, models.TargetMin, ptr(models.Measured(10)), 100},
		{"min overshoot capped", 10, models.TargetMin, ptr(models.Measured(25)), 100},
		{"min negative clamped", 10, models.TargetMin, ptr(models.Measured(-4)), 0},
		{"max under", 5, models.TargetMax, ptr(models.Measured(3)), 100},
		{"max at ceiling", 5, models.TargetMax, ptr(models.Measured(5)), 100},
		{"max 50% excess", 5, models.TargetMax, ptr(models.Measured(7.5)), 50},
		{"max double", 5, models.TargetMax, ptr(models.Measured(10)), 0},
		{"max beyond double", 5, models.TargetMax, ptr(models.Measured(40)), 0},
		{"nan amount", 5, models.TargetMin, ptr(models.Measured(math.NaN())), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Quality(measurable(tt.target, tt.tt, tt.v), testDay)
			if got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestQuality_Bounds(t *testing.T) {
	values := []float64{-100, -1, 0, 0.001, 1, 4.99, 5, 7, 10, 1e9, math.Inf(1)}
	targets := []float64{0, 0.5, 5, 100}
	for _, tt := range []models.TargetType{models.TargetMin, models.TargetMax, ""} {
		for _, target := range targets {
			for _, v := range values {
				q := Quality(measurable(target, tt, ptr(models.Measured(v))), testDay)
				if math.IsNaN(q) || q < 0 || q > 100 {
					t.Errorf("quality out of bounds: target=%v type=%q value=%v -> %v", target, tt, v, q)
				}
			}
		}
	}
}
