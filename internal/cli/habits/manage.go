package habits

import (
	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/models"
)

type HabitArchiveCmd struct {
	Habit     string `arg:"" help:"Habit name or id."`
	Unarchive bool   `help:"Unarchive the habit instead."`
}

func (c *HabitArchiveCmd) Run(ctx *cli.Context) error {
	h, err := ctx.ResolveHabit(c.Habit)
	if err != nil {
		return err
	}
	if h.IsArchived == !c.Unarchive {
		ctx.Printf("Nothing to do: %q is already %s\n", h.Name, archivedWord(h.IsArchived))
		return nil
	}
	h.IsArchived = !c.Unarchive
	h.Touch(ctx.Now())
	if err := ctx.Commit(h, models.QueueUpdate); err != nil {
		return err
	}
	ctx.Printf("Habit %q %s\n", h.Name, archivedWord(h.IsArchived))
	return nil
}

func archivedWord(archived bool) string {
	if archived {
		return "archived"
	}
	return "unarchived"
}

type HabitDeleteCmd struct {
	Habit string `arg:"" help:"Habit name or id."`
}

func (c *HabitDeleteCmd) Run(ctx *cli.Context) error {
	h, err := ctx.ResolveHabit(c.Habit)
	if err != nil {
		return err
	}
	if err := ctx.Commit(h, models.QueueDelete); err != nil {
		return err
	}
	ctx.Printf("Deleted habit: %s\n", h.Name)
	ctx.Printf("%s\n", cli.MutedStyle.Render("(Use 'habitual habit archive' to hide a habit without losing its history)"))
	return nil
}
