package habits

import (
	"errors"
	"fmt"

	"github.com/julianstephens/habitual/internal/calendar"
	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/completion"
	"github.com/julianstephens/habitual/internal/models"
)

type HabitMarkCmd struct {
	Habit string   `arg:"" help:"Habit name or id."`
	Date  string   `help:"Day to mark (YYYY-MM-DD, today or yesterday)." default:"today"`
	Value *float64 `help:"Measured value for measurable habits."`
	Note  string   `help:"Optional note for this day."`
}

func (c *HabitMarkCmd) Run(ctx *cli.Context) error {
	h, day, err := load(ctx, c.Habit, c.Date)
	if err != nil {
		return err
	}

	v := models.Done()
	if c.Value != nil {
		if !h.IsMeasurable() {
			return fmt.Errorf("habit %q is not measurable; omit --value", h.Name)
		}
		if *c.Value < 0 {
			return errors.New("value cannot be negative")
		}
		v = models.Measured(*c.Value)
	}
	h.SetCompletion(day, v)
	if c.Note != "" {
		if h.Notes == nil {
			h.Notes = map[string]string{}
		}
		h.Notes[day.String()] = c.Note
	}

	h, err = save(ctx, h, day)
	if err != nil {
		return err
	}
	ctx.Printf("Marked %q for %s (quality %.0f%%). Strength: %s\n",
		h.Name, day, completion.Quality(h, day), cli.StrengthBar(h.Strength))
	return nil
}

type HabitUnmarkCmd struct {
	Habit string `arg:"" help:"Habit name or id."`
	Date  string `help:"Day to clear (YYYY-MM-DD, today or yesterday)." default:"today"`
}

func (c *HabitUnmarkCmd) Run(ctx *cli.Context) error {
	h, day, err := load(ctx, c.Habit, c.Date)
	if err != nil {
		return err
	}
	if _, ok := h.Completion(day); !ok {
		return fmt.Errorf("habit %q has no completion on %s", h.Name, day)
	}
	h.ClearCompletion(day)

	h, err = save(ctx, h, day)
	if err != nil {
		return err
	}
	ctx.Printf("Unmarked %q for %s. Strength: %s\n", h.Name, day, cli.StrengthBar(h.Strength))
	return nil
}

type HabitSkipCmd struct {
	Habit string `arg:"" help:"Habit name or id."`
	Date  string `help:"Day to skip (YYYY-MM-DD, today or yesterday)." default:"today"`
}

func (c *HabitSkipCmd) Run(ctx *cli.Context) error {
	h, day, err := load(ctx, c.Habit, c.Date)
	if err != nil {
		return err
	}
	skipped := h.ToggleSkip(day)

	if _, err := save(ctx, h, day); err != nil {
		return err
	}
	if skipped {
		ctx.Printf("Skipped %q on %s\n", h.Name, day)
	} else {
		ctx.Printf("Removed skip for %q on %s\n", h.Name, day)
	}
	return nil
}

func load(ctx *cli.Context, ref, date string) (models.Habit, calendar.Day, error) {
	h, err := ctx.ResolveHabit(ref)
	if err != nil {
		return models.Habit{}, calendar.Day{}, err
	}
	day, err := cli.ParseDay(date, ctx.Today())
	if err != nil {
		return models.Habit{}, calendar.Day{}, err
	}
	if start := h.StartDay(); !start.IsZero() && day.Before(start) {
		return models.Habit{}, calendar.Day{}, fmt.Errorf("%s is before %q started (%s)", day, h.Name, start)
	}
	return h, day, nil
}

// save stamps the habit, recalculates strength for the edited day and commits.
func save(ctx *cli.Context, h models.Habit, day calendar.Day) (models.Habit, error) {
	periods, err := ctx.Vacations()
	if err != nil {
		return h, err
	}
	h.Touch(ctx.Now())
	h = ctx.Engine().Recalculate(h, day, periods)
	if err := ctx.Commit(h, models.QueueUpdate); err != nil {
		return h, err
	}
	return h, nil
}
