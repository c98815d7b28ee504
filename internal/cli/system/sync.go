package system

import (
	"context"
	"errors"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/syncer"
)

type SyncCmd struct{}

func (c *SyncCmd) Run(ctx *cli.Context) error {
	res, err := ctx.Orchestrator().Sync(context.Background())
	if err != nil {
		return err
	}

	switch res.Outcome {
	case syncer.OutcomeOffline:
		ops, err := ctx.Store.GetQueueOps()
		if err != nil {
			return err
		}
		ctx.Printf("%s\n", cli.WarningStyle.Render("Sync skipped: remote unavailable or not configured."))
		ctx.Printf("%d change(s) waiting in the offline queue.\n", len(ops))
	case syncer.OutcomeNoop:
		ctx.Printf("Nothing to sync.\n")
	case syncer.OutcomePushedLocal:
		ctx.Printf("Uploaded %d habit(s) to the remote.\n", len(res.Habits))
	case syncer.OutcomeAdoptedRemote:
		ctx.Printf("Downloaded %d habit(s) from the remote.\n", len(res.Habits))
	case syncer.OutcomeMerged:
		ctx.Printf("Merged %d habit(s) with the remote.\n", len(res.Habits))
	}
	if res.Replayed > 0 {
		ctx.Printf("Replayed %d queued change(s).\n", res.Replayed)
	}
	if (res.Outcome == syncer.OutcomePushedLocal || res.Outcome == syncer.OutcomeMerged) && !res.Pushed {
		ctx.Printf("%s\n", cli.WarningStyle.Render("The remote did not accept the upload; it will be retried on the next sync."))
	}
	return nil
}

type QueueCmd struct {
	List  QueueListCmd  `cmd:"" help:"List pending offline changes." default:"1"`
	Drain QueueDrainCmd `cmd:"" help:"Replay pending changes against the remote."`
}

type QueueListCmd struct{}

func (c *QueueListCmd) Run(ctx *cli.Context) error {
	ops, err := ctx.Store.GetQueueOps()
	if err != nil {
		return err
	}
	if len(ops) == 0 {
		ctx.Printf("Offline queue is empty.\n")
		return nil
	}
	now := ctx.Now()
	for _, op := range ops {
		ctx.Printf("%s  %-6s  %s  %s\n", op.ID, op.Op, describe(op), cli.MutedStyle.Render(humanize.RelTime(op.CreatedAt, now, "ago", "from now")))
	}
	return nil
}

func describe(op models.QueueOp) string {
	if op.Payload != nil && op.Payload.Name != "" {
		return op.Payload.Name
	}
	return op.EntityID
}

type QueueDrainCmd struct {
	Timeout time.Duration `help:"Give up after this long." default:"30s"`
}

func (c *QueueDrainCmd) Run(ctx *cli.Context) error {
	dctx, cancel := context.WithTimeout(context.Background(), c.Timeout)
	defer cancel()

	n, err := ctx.Orchestrator().DrainQueue(dctx)
	if errors.Is(err, syncer.ErrOffline) {
		ctx.Printf("No remote configured; changes stay queued.\n")
		return nil
	}
	if err != nil {
		return err
	}
	ctx.Printf("Replayed %d queued change(s).\n", n)
	return nil
}
