package strength

import (
	"math"
	"testing"

	"github.com/julianstephens/habitual/internal/models"
)

func TestHistory_SkipFreezes(t *testing.T) {
	h := dailyHabit("2025-01-01", "2025-01-01", "2025-01-02", "2025-01-03")
	h.ToggleSkip(day("2025-01-04"))

	points := History(h, day("2025-01-01"), day("2025-01-05"))
	if len(points) != 5 {
		t.Fatalf("expected 5 points, got %d", len(points))
	}

	three := int(math.Floor(expected(100, 100, 100)))
	if points[2].Strength != three {
		t.Errorf("expected %d on day 3, got %d", three, points[2].Strength)
	}
	if !points[3].Frozen || points[3].Strength != three {
		t.Errorf("skipped day must be frozen at %d, got %+v", three, points[3])
	}
	if want := int(math.Floor(expected(100, 100, 100, 0))); points[4].Strength != want {
		t.Errorf("expected decay to %d on day 5, got %d", want, points[4].Strength)
	}
}

func TestHistory_VacationIsNotFrozen(t *testing.T) {
	// History only honours manual skips; the live engine also honours vacations.
	h := dailyHabit("2025-01-01", "2025-01-01")
	points := History(h, day("2025-01-01"), day("2025-01-03"))
	for _, p := range points {
		if p.Frozen {
			t.Errorf("unexpected frozen point %+v", p)
		}
	}
	if want := int(math.Floor(expected(100, 0, 0))); points[2].Strength != want {
		t.Errorf("expected %d, got %d", want, points[2].Strength)
	}
}

func TestHistory_WindowAfterStart(t *testing.T) {
	h := dailyHabit("2025-01-01", "2025-01-01", "2025-01-02", "2025-01-03", "2025-01-04")

	points := History(h, day("2025-01-03"), day("2025-01-04"))
	if len(points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(points))
	}
	if want := int(math.Floor(expected(100, 100, 100, 100))); points[1].Strength != want {
		t.Errorf("earlier days must still feed the average: expected %d, got %d", want, points[1].Strength)
	}
	if points[0].Day.String() != "2025-01-03" {
		t.Errorf("unexpected first day %s", points[0].Day)
	}
}

func TestHistory_BeforeStart(t *testing.T) {
	h := dailyHabit("2025-01-05", "2025-01-05")
	points := History(h, day("2025-01-03"), day("2025-01-05"))
	if len(points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(points))
	}
	if points[0].Strength != 0 || points[1].Strength != 0 {
		t.Errorf("days before start must be zero: %+v", points[:2])
	}
	if points[2].Strength != 3 {
		t.Errorf("expected 3 on the first completed day, got %d", points[2].Strength)
	}

	empty := History(models.Habit{}, day("2025-01-01"), day("2025-01-02"))
	if len(empty) != 2 || empty[0].Strength != 0 {
		t.Errorf("habit without start should yield zero points, got %+v", empty)
	}
	if History(h, day("2025-01-05"), day("2025-01-01")) != nil {
		t.Error("inverted range should be nil")
	}
}
