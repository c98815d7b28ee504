package syncer

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/storage"
	"github.com/julianstephens/habitual/internal/strength"
)

var clock = strength.FixedClock{T: time.Date(2025, 1, 2, 12, 0, 0, 0, time.UTC)}

type fakeTransport struct {
	remote   []models.Habit
	fetchErr error
	pushErr  error
	reject   bool
	pushes   [][]models.Habit
}

func (f *fakeTransport) FetchRemoteHabits(ctx context.Context) ([]models.Habit, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	out := make([]models.Habit, len(f.remote))
	for i, h := range f.remote {
		out[i] = h.Clone()
	}
	return out, nil
}

func (f *fakeTransport) PushHabits(ctx context.Context, habits []models.Habit) (bool, error) {
	if f.pushErr != nil {
		return false, f.pushErr
	}
	if f.reject {
		return false, nil
	}
	f.pushes = append(f.pushes, habits)
	f.remote = habits
	return true, nil
}

type fakeStore struct {
	habits    []models.Habit
	vacations []models.VacationPeriod
	ops       []models.QueueOp
	meta      map[string]string
	replaced  int
}

func (s *fakeStore) GetAllHabits(bool) ([]models.Habit, error) { return s.habits, nil }
func (s *fakeStore) ReplaceHabits(h []models.Habit) error {
	s.habits = h
	s.replaced++
	return nil
}
func (s *fakeStore) GetAllVacations() ([]models.VacationPeriod, error) { return s.vacations, nil }
func (s *fakeStore) SetMeta(k, v string) error {
	if s.meta == nil {
		s.meta = map[string]string{}
	}
	s.meta[k] = v
	return nil
}
func (s *fakeStore) EnqueueOp(op models.QueueOp) error {
	s.ops = append(s.ops, op)
	return nil
}
func (s *fakeStore) GetQueueOps() ([]models.QueueOp, error) { return s.ops, nil }
func (s *fakeStore) DeleteQueueOps(ids []string) error {
	drop := map[string]bool{}
	for _, id := range ids {
		drop[id] = true
	}
	var kept []models.QueueOp
	for _, op := range s.ops {
		if !drop[op.ID] {
			kept = append(kept, op)
		}
	}
	s.ops = kept
	return nil
}

func habit(id, updatedAt string, done ...string) models.Habit {
	h := models.Habit{
		ID:          id,
		Name:        "habit " + id,
		Type:        models.HabitBinary,
		StartDate:   "2025-01-01",
		CreatedAt:   "2025-01-01T00:00:00Z",
		UpdatedAt:   updatedAt,
		Completions: map[string]models.CompletionValue{},
	}
	for _, d := range done {
		h.Completions[d] = models.Done()
	}
	return h
}

func ids(habits []models.Habit) []string {
	out := make([]string, len(habits))
	for i, h := range habits {
		out[i] = h.ID
	}
	sort.Strings(out)
	return out
}

func TestSync_Offline(t *testing.T) {
	store := &fakeStore{habits: []models.Habit{habit("a", "2025-01-01")}}
	res, err := New(store, store, nil).Sync(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != OutcomeOffline || len(res.Habits) != 1 {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestSync_BothEmpty(t *testing.T) {
	store := &fakeStore{}
	tr := &fakeTransport{}
	res, err := New(store, store, tr, WithClock(clock)).Sync(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != OutcomeNoop || len(res.Habits) != 0 || len(tr.pushes) != 0 || store.replaced != 0 {
		t.Errorf("expected a no-op, got %+v (pushes=%d)", res, len(tr.pushes))
	}
}

func TestSync_FirstPush(t *testing.T) {
	store := &fakeStore{habits: []models.Habit{habit("a", "2025-01-01", "2025-01-01")}}
	tr := &fakeTransport{}
	res, err := New(store, store, tr, WithClock(clock)).Sync(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != OutcomePushedLocal || !res.Pushed {
		t.Errorf("unexpected result %+v", res)
	}
	if len(tr.pushes) != 1 || tr.pushes[0][0].ID != "a" {
		t.Errorf("expected local set pushed, got %+v", tr.pushes)
	}
	if store.replaced != 0 {
		t.Error("first push must not rewrite local habits")
	}
	if store.meta[storage.MetaLastSync] != "2025-01-02T12:00:00Z" {
		t.Errorf("unexpected last sync %q", store.meta[storage.MetaLastSync])
	}
}

func TestSync_AdoptRemote(t *testing.T) {
	store := &fakeStore{}
	remote := habit("r", "2025-01-01", "2025-01-01")
	remote.Strength = 42
	tr := &fakeTransport{remote: []models.Habit{remote}}
	hooked := 0

	res, err := New(store, store, tr, WithClock(clock), WithBeforeReplace(func() error { hooked++; return nil })).Sync(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != OutcomeAdoptedRemote {
		t.Errorf("unexpected outcome %s", res.Outcome)
	}
	if len(store.habits) != 1 || store.habits[0].Strength != 42 {
		t.Errorf("remote should be adopted as-is, got %+v", store.habits)
	}
	if len(tr.pushes) != 0 {
		t.Error("adopting remote must not push")
	}
	if hooked != 1 {
		t.Errorf("expected backup hook once, got %d", hooked)
	}
}

func TestSync_MergeAndReadRepair(t *testing.T) {
	local := habit("h", "2025-01-02", "2025-01-01")
	local.Name = "Local"
	remote := habit("h", "2025-01-01", "2025-01-01", "2025-01-02")
	remote.Name = "Remote"
	store := &fakeStore{habits: []models.Habit{local, habit("only-local", "2025-01-01")}}
	tr := &fakeTransport{remote: []models.Habit{remote, habit("only-remote", "2025-01-01")}}

	res, err := New(store, store, tr, WithClock(clock)).Sync(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != OutcomeMerged || !res.Pushed {
		t.Fatalf("unexpected result %+v", res)
	}

	got := ids(store.habits)
	if len(got) != 3 || got[0] != "h" || got[1] != "only-local" || got[2] != "only-remote" {
		t.Fatalf("unexpected merged set %v", got)
	}
	var h models.Habit
	for _, x := range store.habits {
		if x.ID == "h" {
			h = x
		}
	}
	if h.Name != "Local" {
		t.Errorf("expected local scalars, got %q", h.Name)
	}
	if len(h.Completions) != 2 {
		t.Errorf("expected union of completions, got %v", h.Completions)
	}
	// two done days from 2025-01-01 through today
	if h.Strength != 6 {
		t.Errorf("expected strength recomputed to 6, got %d", h.Strength)
	}
	if len(tr.pushes) != 1 || len(tr.pushes[0]) != 3 {
		t.Errorf("expected merged set pushed back, got %+v", tr.pushes)
	}
}

func TestSync_TransportFailuresAreSwallowed(t *testing.T) {
	local := []models.Habit{habit("a", "2025-01-01")}

	t.Run("fetch", func(t *testing.T) {
		store := &fakeStore{habits: local}
		tr := &fakeTransport{fetchErr: errors.New("connection refused")}
		res, err := New(store, store, tr, WithClock(clock)).Sync(context.Background())
		if err != nil {
			t.Fatalf("transport errors must not surface: %v", err)
		}
		if res.Outcome != OutcomeOffline || len(res.Habits) != 1 || store.replaced != 0 {
			t.Errorf("expected local snapshot unchanged, got %+v", res)
		}
		if _, ok := store.meta[storage.MetaLastSync]; ok {
			t.Error("failed sync must not record a sync time")
		}
	})

	t.Run("push", func(t *testing.T) {
		store := &fakeStore{habits: local}
		tr := &fakeTransport{remote: []models.Habit{habit("b", "2025-01-01")}, pushErr: errors.New("timeout")}
		res, err := New(store, store, tr, WithClock(clock)).Sync(context.Background())
		if err != nil {
			t.Fatalf("transport errors must not surface: %v", err)
		}
		if res.Outcome != OutcomeMerged || res.Pushed {
			t.Errorf("expected merged but unpushed, got %+v", res)
		}
		if len(store.habits) != 2 {
			t.Errorf("merge should still be stored locally, got %d habits", len(store.habits))
		}
	})
}

func TestSync_HookErrorAborts(t *testing.T) {
	store := &fakeStore{habits: []models.Habit{habit("a", "2025-01-01")}}
	tr := &fakeTransport{remote: []models.Habit{habit("b", "2025-01-01")}}
	_, err := New(store, store, tr, WithClock(clock), WithBeforeReplace(func() error { return errors.New("disk full") })).Sync(context.Background())
	if err == nil {
		t.Fatal("expected hook error to abort the sync")
	}
	if store.replaced != 0 || len(tr.pushes) != 0 {
		t.Error("nothing may be written after a failed hook")
	}
}

func TestEnqueue(t *testing.T) {
	store := &fakeStore{}
	o := New(store, store, nil, WithClock(clock))

	h := habit("a", "2025-01-01")
	if err := o.Enqueue(models.QueueCreate, "a", &h); err != nil {
		t.Fatalf("failed to enqueue: %v", err)
	}
	h.Name = "changed after enqueue"
	if err := o.Enqueue(models.QueueDelete, "a", &h); err != nil {
		t.Fatalf("failed to enqueue: %v", err)
	}
	if err := o.Enqueue(models.QueueUpdate, "a", nil); err == nil {
		t.Error("expected update without payload to fail")
	}
	if err := o.Enqueue("UPSERT", "a", &h); err == nil {
		t.Error("expected unknown op to fail")
	}

	if len(store.ops) != 2 {
		t.Fatalf("expected 2 ops, got %d", len(store.ops))
	}
	if store.ops[0].Payload.Name != "habit a" {
		t.Error("payload must be copied at enqueue time")
	}
	if store.ops[1].Payload != nil {
		t.Error("delete must not carry a payload")
	}
	id, err := ulid.Parse(store.ops[0].ID)
	if err != nil {
		t.Fatalf("op id is not a ULID: %v", err)
	}
	if ulid.Time(id.Time()).UnixMilli() != clock.T.UnixMilli() {
		t.Errorf("ULID timestamp does not follow the clock")
	}
	if store.ops[0].ID >= store.ops[1].ID {
		t.Error("ULIDs must sort in enqueue order")
	}
}

func TestDrainQueue(t *testing.T) {
	store := &fakeStore{}
	tr := &fakeTransport{remote: []models.Habit{habit("keep", "2025-01-01"), habit("gone", "2025-01-01"), habit("edit", "2025-01-01", "2025-01-01")}}
	o := New(store, store, tr, WithClock(clock))

	created := habit("new", "2025-01-02")
	edited := habit("edit", "2025-01-02", "2025-01-02")
	edited.Name = "Edited"
	for _, step := range []struct {
		op models.QueueOpType
		id string
		h  *models.Habit
	}{
		{models.QueueCreate, "new", &created},
		{models.QueueUpdate, "edit", &edited},
		{models.QueueDelete, "gone", nil},
	} {
		if err := o.Enqueue(step.op, step.id, step.h); err != nil {
			t.Fatalf("failed to enqueue: %v", err)
		}
	}

	n, err := o.DrainQueue(context.Background())
	if err != nil {
		t.Fatalf("failed to drain: %v", err)
	}
	if n != 3 || len(store.ops) != 0 {
		t.Errorf("expected 3 ops drained and cleared, got %d (left %d)", n, len(store.ops))
	}

	got := ids(tr.remote)
	want := []string{"edit", "keep", "new"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
	for _, h := range tr.remote {
		if h.ID == "edit" && (h.Name != "Edited" || len(h.Completions) != 2) {
			t.Errorf("update was not merged: %+v", h)
		}
	}
}

func TestDrainQueue_FailureKeepsOps(t *testing.T) {
	store := &fakeStore{}
	tr := &fakeTransport{reject: true}
	o := New(store, store, tr, WithClock(clock))
	if err := o.Enqueue(models.QueueDelete, "x", nil); err != nil {
		t.Fatalf("failed to enqueue: %v", err)
	}

	if _, err := o.DrainQueue(context.Background()); err == nil {
		t.Fatal("expected rejected push to fail the drain")
	}
	if len(store.ops) != 1 {
		t.Errorf("ops must survive a failed drain, got %d", len(store.ops))
	}

	// Sync stops instead of merging a remote that still has the deleted habit.
	store.habits = []models.Habit{habit("a", "2025-01-01")}
	tr.remote = []models.Habit{habit("x", "2025-01-01")}
	res, err := o.Sync(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != OutcomeOffline || store.replaced != 0 {
		t.Errorf("expected sync to be deferred, got %+v", res)
	}
}

func TestDrainQueue_Offline(t *testing.T) {
	store := &fakeStore{}
	o := New(store, store, nil, WithClock(clock))
	if n, err := o.DrainQueue(context.Background()); err != nil || n != 0 {
		t.Errorf("empty queue should drain trivially, got %d %v", n, err)
	}
	_ = o.Enqueue(models.QueueDelete, "x", nil)
	if _, err := o.DrainQueue(context.Background()); !errors.Is(err, ErrOffline) {
		t.Errorf("expected ErrOffline, got %v", err)
	}
}

func TestReplay_DeleteThenCreate(t *testing.T) {
	snapshot := []models.Habit{habit("a", "2025-01-01", "2025-01-01")}
	again := habit("a", "2025-01-03")
	again.Name = "Again"
	out := Replay(snapshot, []models.QueueOp{
		{Op: models.QueueDelete, EntityID: "a"},
		{Op: models.QueueCreate, EntityID: "a", Payload: &again},
		{Op: models.QueueUpdate, EntityID: "missing"},
	})
	if len(out) != 1 || out[0].Name != "Again" || len(out[0].Completions) != 0 {
		t.Errorf("expected only the recreated habit, got %+v", out)
	}
	if len(snapshot[0].Completions) != 1 {
		t.Error("snapshot was modified")
	}
}
