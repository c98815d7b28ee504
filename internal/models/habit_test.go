package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/julianstephens/habitual/internal/calendar"
)

func TestCompletionValueJSON(t *testing.T) {
	var completions map[string]CompletionValue
	raw := `{"2025-01-01":true,"2025-01-02":7.5,"2025-01-03":false,"2025-01-04":null,"2025-01-05":0}`
	if err := json.Unmarshal([]byte(raw), &completions); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	tests := map[string]struct {
		kind CompletionKind
		done bool
	}{
		"2025-01-01": {Completed, true},
		"2025-01-02": {Value, true},
		"2025-01-03": {NotCompleted, false},
		"2025-01-04": {NotCompleted, false},
		"2025-01-05": {Value, true},
	}
	for key, want := range tests {
		got := completions[key]
		if got.Kind != want.kind {
			t.Errorf("%s: expected kind %d, got %d", key, want.kind, got.Kind)
		}
		if got.IsDone() != want.done {
			t.Errorf("%s: expected done=%v", key, want.done)
		}
	}
	if completions["2025-01-02"].Amount != 7.5 {
		t.Errorf("expected amount 7.5, got %v", completions["2025-01-02"].Amount)
	}

	data, err := json.Marshal(map[string]CompletionValue{"a": Done(), "b": Measured(3), "c": NotDone()})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"a":true,"b":3,"c":false}` {
		t.Errorf("unexpected json %s", data)
	}

	var bad CompletionValue
	if err := json.Unmarshal([]byte(`"yes"`), &bad); err == nil {
		t.Error("expected error for string completion")
	}
}

func TestHabitJSONFieldNames(t *testing.T) {
	h := NewHabit("h1", "Read", HabitMeasurable, time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC))
	h.TargetValue = 20
	h.TargetType = TargetMin
	h.Frequency = &Frequency{Type: FrequencyNTimesWeek, Count: 3}

	data, err := json.Marshal(h)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var generic map[string]any
	if err := json.Unmarshal(data, &generic); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"id", "type", "startDate", "createdAt", "updatedAt", "completions", "frequency", "targetValue", "targetType", "strength", "lastStrengthUpdate", "strengthBaseline", "isArchived"} {
		if _, ok := generic[key]; !ok {
			t.Errorf("expected key %q in %s", key, data)
		}
	}
	if generic["startDate"] != "2025-01-01" {
		t.Errorf("unexpected startDate %v", generic["startDate"])
	}

	var back Habit
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal habit: %v", err)
	}
	if back.Frequency == nil || back.Frequency.Count != 3 {
		t.Errorf("frequency lost: %+v", back.Frequency)
	}
}

func TestStartDayFallback(t *testing.T) {
	h := Habit{CreatedAt: "2025-02-03T18:30:00Z"}
	if got := h.StartDay().String(); got != "2025-02-03" {
		t.Errorf("expected createdAt fallback, got %q", got)
	}
	h.StartDate = "2025-02-01"
	if got := h.StartDay().String(); got != "2025-02-01" {
		t.Errorf("expected startDate, got %q", got)
	}
	if !(Habit{}).StartDay().IsZero() {
		t.Error("expected zero day without dates")
	}
}

func TestClearCompletionRemovesNote(t *testing.T) {
	day := calendar.MustParseDay("2025-01-10")
	h := Habit{Notes: map[string]string{"2025-01-10": "felt great"}}
	h.SetCompletion(day, Done())
	if !h.IsCompleted(day) {
		t.Fatal("expected completion")
	}
	h.ClearCompletion(day)
	if _, ok := h.Completions["2025-01-10"]; ok {
		t.Error("expected key to be absent, not false")
	}
	if _, ok := h.Notes["2025-01-10"]; ok {
		t.Error("expected note to be removed")
	}
}

func TestToggleSkip(t *testing.T) {
	day := calendar.MustParseDay("2025-01-10")
	var h Habit
	if !h.ToggleSkip(day) || !h.IsSkipped(day) {
		t.Fatal("expected day to be skipped")
	}
	if h.ToggleSkip(day) || h.IsSkipped(day) {
		t.Fatal("expected skip to be cleared")
	}
}

func TestCloneIsDeep(t *testing.T) {
	h := Habit{
		Completions: map[string]CompletionValue{"2025-01-01": Done()},
		Frequency:   &Frequency{Type: FrequencyDaysOfWeek, DaysOfWeek: []int{1, 3}},
		Notes:       map[string]string{"2025-01-01": "x"},
	}
	c := h.Clone()
	c.Completions["2025-01-02"] = Done()
	c.Frequency.DaysOfWeek[0] = 5
	c.Notes["2025-01-01"] = "y"

	if len(h.Completions) != 1 || h.Frequency.DaysOfWeek[0] != 1 || h.Notes["2025-01-01"] != "x" {
		t.Error("clone shares state with original")
	}
}

func TestModifiedAtFallsBackToCreatedAt(t *testing.T) {
	h := Habit{CreatedAt: "2025-01-01T00:00:00Z"}
	if h.ModifiedAt().IsZero() {
		t.Fatal("expected createdAt fallback")
	}
	h.UpdatedAt = "2025-01-02"
	if got := h.ModifiedAt().Format("2006-01-02"); got != "2025-01-02" {
		t.Errorf("expected updatedAt, got %s", got)
	}
}

func TestFrequencyValidate(t *testing.T) {
	tests := []struct {
		f       Frequency
		wantErr bool
	}{
		{Frequency{Type: FrequencyEveryDay}, false},
		{Frequency{Type: FrequencyDaysOfWeek, DaysOfWeek: []int{0, 6}}, false},
		{Frequency{Type: FrequencyDaysOfWeek}, true},
		{Frequency{Type: FrequencyDaysOfWeek, DaysOfWeek: []int{7}}, true},
		{Frequency{Type: FrequencyEveryNDays, Period: 0}, true},
		{Frequency{Type: FrequencyEveryNDays, Period: 2}, false},
		{Frequency{Type: FrequencyNTimesWeek, Count: 8}, true},
		{Frequency{Type: FrequencyNTimesMonth, Count: 10}, false},
		{Frequency{Type: "hourly"}, true},
	}
	for _, tt := range tests {
		err := tt.f.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("Validate(%+v) error = %v, wantErr %v", tt.f, err, tt.wantErr)
		}
	}
}

func TestFormatFrequency(t *testing.T) {
	if got := FormatFrequency(nil); got != "every day" {
		t.Errorf("got %q", got)
	}
	if got := FormatFrequency(&Frequency{Type: FrequencyDaysOfWeek, DaysOfWeek: []int{5, 1}}); got != "on Mon,Fri" {
		t.Errorf("got %q", got)
	}
	if got := FormatFrequency(&Frequency{Type: FrequencyEveryNDays, Period: 3}); got != "every 3 days" {
		t.Errorf("got %q", got)
	}
}
