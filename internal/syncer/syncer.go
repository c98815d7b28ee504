// Package syncer reconciles the local replica with the sync server. It owns
// the orchestration around the pure merge: which side wins when one is
// empty, read-repair after a merge, and replay of the offline queue.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/merge"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/storage"
	"github.com/julianstephens/habitual/internal/strength"
)

// ErrOffline is returned by DrainQueue when no remote is configured.
var ErrOffline = errors.New("no sync remote configured")

// Transport reaches the remote replica.
type Transport interface {
	FetchRemoteHabits(ctx context.Context) ([]models.Habit, error)
	// PushHabits replaces the remote set. false with a nil error means the
	// remote refused the write.
	PushHabits(ctx context.Context, habits []models.Habit) (bool, error)
}

// Local is the part of the local store a sync reads and replaces.
type Local interface {
	GetAllHabits(includeArchived bool) ([]models.Habit, error)
	ReplaceHabits([]models.Habit) error
	GetAllVacations() ([]models.VacationPeriod, error)
	SetMeta(key, value string) error
}

// Queue holds changes made while the remote was unreachable.
type Queue interface {
	EnqueueOp(models.QueueOp) error
	GetQueueOps() ([]models.QueueOp, error)
	DeleteQueueOps(ids []string) error
}

// Outcome names which branch a sync took.
type Outcome string

const (
	OutcomeNoop          Outcome = "noop"
	OutcomePushedLocal   Outcome = "pushed-local"
	OutcomeAdoptedRemote Outcome = "adopted-remote"
	OutcomeMerged        Outcome = "merged"
	OutcomeOffline       Outcome = "offline"
)

// Result describes a finished sync. Habits is the local snapshot afterwards.
type Result struct {
	Outcome Outcome
	Habits  []models.Habit
	Pushed  bool
	// Replayed is the number of queued operations drained first.
	Replayed int
}

type Orchestrator struct {
	local     Local
	queue     Queue
	transport Transport
	clock     strength.Clock
	engine    *strength.Engine

	beforeReplace func() error
}

type Option func(*Orchestrator)

func WithClock(c strength.Clock) Option {
	return func(o *Orchestrator) { o.clock = c }
}

// WithBeforeReplace registers a hook run before a sync overwrites the local
// habits, e.g. a database backup. A hook error aborts the sync.
func WithBeforeReplace(fn func() error) Option {
	return func(o *Orchestrator) { o.beforeReplace = fn }
}

// New builds an orchestrator. transport may be nil, in which case syncs are
// offline no-ops and changes only accumulate in the queue.
func New(local Local, queue Queue, transport Transport, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		local:     local,
		queue:     queue,
		transport: transport,
		clock:     strength.SystemClock{},
	}
	for _, opt := range opts {
		opt(o)
	}
	o.engine = strength.NewEngine(o.clock)
	return o
}

// Sync drains the offline queue, then reconciles local and remote:
//
//   - both empty: nothing to do
//   - remote empty: push local as the first sync
//   - local empty: adopt remote as-is
//   - both non-empty: merge, recompute strength, store locally and push the
//     merged set back (read-repair)
//
// Transport failures never surface as errors; they are logged and the local
// snapshot is returned unchanged so the next sync can retry. Only local
// storage failures are returned.
func (o *Orchestrator) Sync(ctx context.Context) (Result, error) {
	local, err := o.local.GetAllHabits(true)
	if err != nil {
		return Result{}, fmt.Errorf("failed to load local habits: %w", err)
	}
	offline := Result{Outcome: OutcomeOffline, Habits: local}
	if o.transport == nil {
		return offline, nil
	}

	replayed, err := o.DrainQueue(ctx)
	if err != nil {
		// A queued delete that did not reach the remote would be undone by
		// the merge below, so stop here.
		logger.Warn("Sync deferred: offline queue could not be drained", "error", err)
		return offline, nil
	}

	remote, err := o.transport.FetchRemoteHabits(ctx)
	if err != nil {
		logger.Warn("Sync deferred: failed to fetch remote habits", "error", err)
		offline.Replayed = replayed
		return offline, nil
	}

	res := Result{Replayed: replayed}
	switch {
	case len(local) == 0 && len(remote) == 0:
		res.Outcome = OutcomeNoop
		res.Habits = local

	case len(remote) == 0:
		res.Outcome = OutcomePushedLocal
		res.Habits = local
		res.Pushed = o.push(ctx, local)

	case len(local) == 0:
		res.Outcome = OutcomeAdoptedRemote
		if err := o.replace(remote); err != nil {
			return Result{}, err
		}
		res.Habits = remote

	default:
		periods, err := o.local.GetAllVacations()
		if err != nil {
			return Result{}, fmt.Errorf("failed to load vacations: %w", err)
		}
		merged := o.engine.RecalculateAll(merge.Habits(local, remote), periods)
		if err := o.replace(merged); err != nil {
			return Result{}, err
		}
		res.Outcome = OutcomeMerged
		res.Habits = merged
		res.Pushed = o.push(ctx, merged)
	}

	if err := o.local.SetMeta(storage.MetaLastSync, o.clock.Now().UTC().Format(time.RFC3339)); err != nil {
		logger.Warn("Failed to record sync time", "error", err)
	}
	logger.Info("Sync complete", "outcome", res.Outcome, "habits", len(res.Habits), "pushed", res.Pushed, "replayed", replayed)
	return res, nil
}

func (o *Orchestrator) replace(habits []models.Habit) error {
	if o.beforeReplace != nil {
		if err := o.beforeReplace(); err != nil {
			return fmt.Errorf("pre-sync hook failed: %w", err)
		}
	}
	if err := o.local.ReplaceHabits(habits); err != nil {
		return fmt.Errorf("failed to store synced habits: %w", err)
	}
	return nil
}

func (o *Orchestrator) push(ctx context.Context, habits []models.Habit) bool {
	ok, err := o.transport.PushHabits(ctx, habits)
	if err != nil {
		logger.Warn("Failed to push habits", "error", err)
		return false
	}
	if !ok {
		logger.Warn("Remote rejected pushed habits")
	}
	return ok
}

// Enqueue records a change for later replay. payload is required for
// creates and updates and ignored for deletes.
func (o *Orchestrator) Enqueue(op models.QueueOpType, entityID string, payload *models.Habit) error {
	switch op {
	case models.QueueCreate, models.QueueUpdate:
		if payload == nil {
			return fmt.Errorf("%s %s requires a payload", op, entityID)
		}
		c := payload.Clone()
		payload = &c
	case models.QueueDelete:
		payload = nil
	default:
		return fmt.Errorf("unknown queue operation %q", op)
	}

	now := o.clock.Now()
	return o.queue.EnqueueOp(models.QueueOp{
		ID:        ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		Op:        op,
		EntityID:  entityID,
		Payload:   payload,
		CreatedAt: now,
	})
}

// DrainQueue replays queued operations against a fresh remote snapshot and
// pushes the result. Creates and updates go through the same merge as a
// sync; deletes drop the record. Operations are removed only after the push
// succeeds, so a failed drain can simply be retried.
func (o *Orchestrator) DrainQueue(ctx context.Context) (int, error) {
	ops, err := o.queue.GetQueueOps()
	if err != nil {
		return 0, fmt.Errorf("failed to read offline queue: %w", err)
	}
	if len(ops) == 0 {
		return 0, nil
	}
	if o.transport == nil {
		return 0, ErrOffline
	}

	remote, err := o.transport.FetchRemoteHabits(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch remote habits: %w", err)
	}

	replayed := Replay(remote, ops)
	periods, err := o.local.GetAllVacations()
	if err != nil {
		return 0, fmt.Errorf("failed to load vacations: %w", err)
	}
	replayed = o.engine.RecalculateAll(replayed, periods)

	ok, err := o.transport.PushHabits(ctx, replayed)
	if err != nil {
		return 0, fmt.Errorf("failed to push replayed habits: %w", err)
	}
	if !ok {
		return 0, errors.New("remote rejected replayed habits")
	}

	ids := make([]string, len(ops))
	for i, op := range ops {
		ids[i] = op.ID
	}
	if err := o.queue.DeleteQueueOps(ids); err != nil {
		return 0, fmt.Errorf("failed to clear offline queue: %w", err)
	}
	logger.Info("Offline queue drained", "ops", len(ops))
	return len(ops), nil
}

// Replay applies ops in order to snapshot and returns the new set. Habits keep
// their snapshot order; created ones are appended.
func Replay(snapshot []models.Habit, ops []models.QueueOp) []models.Habit {
	out := make([]models.Habit, 0, len(snapshot))
	index := make(map[string]int, len(snapshot))
	deleted := make(map[string]bool)
	for _, h := range snapshot {
		index[h.ID] = len(out)
		out = append(out, h.Clone())
	}

	for _, op := range ops {
		switch op.Op {
		case models.QueueCreate, models.QueueUpdate:
			if op.Payload == nil {
				logger.Warn("Skipping queued operation without payload", "op", op.Op, "id", op.EntityID)
				continue
			}
			if i, ok := index[op.EntityID]; ok && !deleted[op.EntityID] {
				out[i] = merge.Habit(out[i], *op.Payload)
				continue
			}
			delete(deleted, op.EntityID)
			index[op.EntityID] = len(out)
			out = append(out, op.Payload.Clone())
		case models.QueueDelete:
			if _, ok := index[op.EntityID]; ok {
				deleted[op.EntityID] = true
			}
		}
	}

	result := make([]models.Habit, 0, len(out))
	for i, h := range out {
		if deleted[h.ID] || index[h.ID] != i {
			continue
		}
		result = append(result, h)
	}
	return result
}
