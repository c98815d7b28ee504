package vacations

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/habitual/internal/calendar"
	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/storage/sqlite"
	"github.com/julianstephens/habitual/internal/strength"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func setupTestContext(t *testing.T) (*cli.Context, *bytes.Buffer) {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	out := &bytes.Buffer{}
	return &cli.Context{
		Store:  store,
		Clock:  strength.FixedClock{T: testNow},
		Out:    out,
		NoSync: true,
	}, out
}

// seedHabit stores a daily habit started on 2025-03-01 and completed every
// day up to today.
func seedHabit(t *testing.T, ctx *cli.Context, id, name string) models.Habit {
	t.Helper()
	h := models.NewHabit(id, name, models.HabitBinary, time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	for _, d := range calendar.EnumerateDays(calendar.Date(2025, 3, 1), calendar.FromTime(testNow)) {
		h.SetCompletion(d, models.Done())
	}
	h = ctx.Engine().Recalculate(h, calendar.Day{}, nil)
	if err := ctx.Store.AddHabit(h); err != nil {
		t.Fatalf("failed to add habit: %v", err)
	}
	return h
}

func TestVacationAddAllHabits(t *testing.T) {
	ctx, out := setupTestContext(t)
	before := seedHabit(t, ctx, "h-1", "Read")

	cmd := VacationAddCmd{Start: "2025-03-03", End: "2025-03-05", Note: "trip"}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("failed to add vacation: %v", err)
	}

	periods, err := ctx.Store.GetAllVacations()
	if err != nil {
		t.Fatalf("failed to list vacations: %v", err)
	}
	if len(periods) != 1 || !periods[0].AllHabits || periods[0].Note != "trip" {
		t.Fatalf("vacations = %+v, want one all-habits period", periods)
	}
	if !strings.Contains(out.String(), "for all habits") {
		t.Errorf("unexpected output: %q", out.String())
	}

	// Frozen days stop counting, so a perfect streak has fewer steps.
	after, err := ctx.Store.GetHabit("h-1")
	if err != nil {
		t.Fatalf("failed to load habit: %v", err)
	}
	if after.Strength >= before.Strength {
		t.Errorf("Strength = %d, want less than %d after freezing three days", after.Strength, before.Strength)
	}

	ops, err := ctx.Store.GetQueueOps()
	if err != nil {
		t.Fatalf("failed to read queue: %v", err)
	}
	if len(ops) != 0 {
		t.Errorf("vacations are local, expected no queued ops, got %d", len(ops))
	}
}

func TestVacationAddForHabits(t *testing.T) {
	ctx, out := setupTestContext(t)
	seedHabit(t, ctx, "h-1", "Read")
	seedHabit(t, ctx, "h-2", "Stretch")

	cmd := VacationAddCmd{Start: "2025-03-03", End: "2025-03-05", Habits: []string{"stretch"}}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("failed to add vacation: %v", err)
	}
	periods, err := ctx.Store.GetAllVacations()
	if err != nil {
		t.Fatalf("failed to list vacations: %v", err)
	}
	if len(periods) != 1 || periods[0].AllHabits || len(periods[0].HabitIDs) != 1 || periods[0].HabitIDs[0] != "h-2" {
		t.Fatalf("vacations = %+v, want one period for h-2", periods)
	}
	if !strings.Contains(out.String(), "for Stretch") {
		t.Errorf("unexpected output: %q", out.String())
	}

	read, _ := ctx.Store.GetHabit("h-1")
	stretch, _ := ctx.Store.GetHabit("h-2")
	if stretch.Strength >= read.Strength {
		t.Errorf("Stretch strength %d should be below Read strength %d", stretch.Strength, read.Strength)
	}
}

func TestVacationAddErrors(t *testing.T) {
	ctx, _ := setupTestContext(t)
	seedHabit(t, ctx, "h-1", "Read")

	tests := []struct {
		name string
		cmd  VacationAddCmd
	}{
		{"end before start", VacationAddCmd{Start: "2025-03-05", End: "2025-03-03"}},
		{"bad date", VacationAddCmd{Start: "March 3", End: "2025-03-05"}},
		{"unknown habit", VacationAddCmd{Start: "2025-03-03", End: "2025-03-05", Habits: []string{"Write"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cmd.Run(ctx); err == nil {
				t.Fatal("expected error")
			}
		})
	}

	periods, err := ctx.Store.GetAllVacations()
	if err != nil {
		t.Fatalf("failed to list vacations: %v", err)
	}
	if len(periods) != 0 {
		t.Errorf("expected no vacations, got %d", len(periods))
	}
}

func TestVacationListAndDelete(t *testing.T) {
	ctx, out := setupTestContext(t)
	before := seedHabit(t, ctx, "h-1", "Read")

	add := VacationAddCmd{Start: "today", End: "2025-03-12", Habits: []string{"Read"}}
	if err := add.Run(ctx); err != nil {
		t.Fatalf("failed to add vacation: %v", err)
	}

	out.Reset()
	list := VacationListCmd{}
	if err := list.Run(ctx); err != nil {
		t.Fatalf("failed to list vacations: %v", err)
	}
	if !strings.Contains(out.String(), "Read") || !strings.Contains(out.String(), "(active)") {
		t.Errorf("unexpected list output: %q", out.String())
	}

	periods, err := ctx.Store.GetAllVacations()
	if err != nil {
		t.Fatalf("failed to list vacations: %v", err)
	}
	del := VacationDeleteCmd{ID: periods[0].ID[:8]}
	if err := del.Run(ctx); err != nil {
		t.Fatalf("failed to delete vacation: %v", err)
	}
	periods, err = ctx.Store.GetAllVacations()
	if err != nil {
		t.Fatalf("failed to list vacations: %v", err)
	}
	if len(periods) != 0 {
		t.Errorf("expected vacation to be deleted, got %d", len(periods))
	}

	after, err := ctx.Store.GetHabit("h-1")
	if err != nil {
		t.Fatalf("failed to load habit: %v", err)
	}
	if after.Strength != before.Strength {
		t.Errorf("Strength = %d, want %d restored after deleting the vacation", after.Strength, before.Strength)
	}
}

func TestVacationDeleteNotFound(t *testing.T) {
	ctx, _ := setupTestContext(t)
	cmd := VacationDeleteCmd{ID: "missing"}
	if err := cmd.Run(ctx); err == nil {
		t.Fatal("expected error for unknown vacation")
	}
}

func TestVacationListEmpty(t *testing.T) {
	ctx, out := setupTestContext(t)
	cmd := VacationListCmd{}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("failed to list vacations: %v", err)
	}
	if !strings.Contains(out.String(), "No vacations found") {
		t.Errorf("unexpected output: %q", out.String())
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("abc"); got != "abc" {
		t.Errorf("shortID(abc) = %q", got)
	}
	if got := shortID("0123456789"); got != "01234567" {
		t.Errorf("shortID(0123456789) = %q", got)
	}
}
