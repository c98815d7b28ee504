package system

import (
	"errors"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/validation"
)

type ValidateCmd struct {
	Fix bool `help:"Repair fixable conflicts and recalculate strength."`
}

func (c *ValidateCmd) Run(ctx *cli.Context) error {
	habits, err := ctx.Store.GetAllHabits(true)
	if err != nil {
		return err
	}
	periods, err := ctx.Vacations()
	if err != nil {
		return err
	}

	res := validation.Habits(habits, periods, ctx.Today())
	ctx.Printf("%s\n", res.FormatReport())
	if !res.HasConflicts() {
		return nil
	}
	if !c.Fix {
		return errors.New("validation failed")
	}

	changed := validation.Fix(habits, res)
	if len(changed) == 0 {
		ctx.Printf("%s\n", cli.WarningStyle.Render("None of the conflicts can be fixed automatically."))
		return errors.New("validation failed")
	}

	fixed := make(map[string]bool, len(changed))
	for _, id := range changed {
		fixed[id] = true
	}
	recalculated := ctx.Engine().RecalculateAll(habits, periods)

	// Sync once after every fix is queued.
	noSync := ctx.NoSync
	ctx.NoSync = true
	for _, h := range recalculated {
		if !fixed[h.ID] {
			continue
		}
		h.Touch(ctx.Now())
		if err := ctx.Commit(h, models.QueueUpdate); err != nil {
			ctx.NoSync = noSync
			return err
		}
	}
	ctx.NoSync = noSync
	ctx.AutoSync()

	ctx.Printf("Fixed %d habit(s).\n", len(changed))
	return nil
}
