package habits

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/goals"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/storage"
)

type HabitCmd struct {
	Add     HabitAddCmd     `cmd:"" help:"Add a new habit."`
	List    HabitListCmd    `cmd:"" help:"List habits with today's status." default:"1"`
	Show    HabitShowCmd    `cmd:"" help:"Show a habit in detail."`
	Mark    HabitMarkCmd    `cmd:"" help:"Mark a habit as done for a day."`
	Unmark  HabitUnmarkCmd  `cmd:"" help:"Remove a completion."`
	Skip    HabitSkipCmd    `cmd:"" help:"Toggle a manual skip for a day."`
	History HabitHistoryCmd `cmd:"" help:"Show a habit's strength history."`
	Archive HabitArchiveCmd `cmd:"" help:"Archive a habit."`
	Delete  HabitDeleteCmd  `cmd:"" help:"Delete a habit."`
}

type HabitAddCmd struct {
	Name        string  `arg:"" help:"Habit name."`
	Description string  `help:"Optional description."`
	Measurable  bool    `help:"Track a number instead of done/not done."`
	Target      float64 `help:"Target value for measurable habits."`
	TargetType  string  `help:"Whether the target is a minimum or a maximum." enum:"min,max" default:"min"`
	Unit        string  `help:"Unit of the measured value."`
	Days        string  `help:"Only on these weekdays, e.g. mon,wed,fri." xor:"freq"`
	Every       int     `help:"Every N days." xor:"freq"`
	PerWeek     int     `help:"N times per week." xor:"freq"`
	PerMonth    int     `help:"N times per month." xor:"freq"`
	Start       string  `help:"Start date (YYYY-MM-DD, default today)."`
}

func (c *HabitAddCmd) frequency() (*models.Frequency, error) {
	var f *models.Frequency
	switch {
	case c.Days != "":
		days, err := cli.ParseWeekdays(c.Days)
		if err != nil {
			return nil, err
		}
		f = &models.Frequency{Type: models.FrequencyDaysOfWeek, DaysOfWeek: days}
	case c.Every > 0:
		f = &models.Frequency{Type: models.FrequencyEveryNDays, Period: c.Every}
	case c.PerWeek > 0:
		f = &models.Frequency{Type: models.FrequencyNTimesWeek, Count: c.PerWeek}
	case c.PerMonth > 0:
		f = &models.Frequency{Type: models.FrequencyNTimesMonth, Count: c.PerMonth}
	default:
		return nil, nil
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

func (c *HabitAddCmd) Run(ctx *cli.Context) error {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return errors.New("habit name cannot be empty")
	}
	if _, err := ctx.Store.GetHabitByName(name); err == nil {
		return fmt.Errorf("habit with name %q already exists", name)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	freq, err := c.frequency()
	if err != nil {
		return err
	}

	typ := models.HabitBinary
	if c.Measurable {
		typ = models.HabitMeasurable
		if c.Target <= 0 {
			return errors.New("measurable habits need a positive --target")
		}
	}

	h := models.NewHabit(uuid.New().String(), name, typ, ctx.Now())
	h.Description = c.Description
	h.Frequency = freq
	if c.Measurable {
		h.TargetValue = c.Target
		h.TargetType = models.TargetType(c.TargetType)
		h.Unit = c.Unit
	}
	if c.Start != "" {
		start, err := cli.ParseDay(c.Start, ctx.Today())
		if err != nil {
			return err
		}
		h.StartDate = start.String()
	}

	if err := ctx.Commit(h, models.QueueCreate); err != nil {
		return err
	}
	ctx.Printf("Added habit: %s (%s)\n", h.Name, models.FormatFrequency(h.Frequency))
	return nil
}

type HabitListCmd struct {
	Archived bool `help:"Include archived habits."`
}

func (c *HabitListCmd) Run(ctx *cli.Context) error {
	habits, err := ctx.Store.GetAllHabits(c.Archived)
	if err != nil {
		return err
	}
	if len(habits) == 0 {
		ctx.Printf("No habits found. Add one with 'habitual habit add <name>'.\n")
		return nil
	}
	periods, err := ctx.Vacations()
	if err != nil {
		return err
	}

	today := ctx.Today()
	ctx.Printf("%s\n\n", cli.HeaderStyle.Render("Habits for "+today.String()))
	for _, h := range habits {
		name := h.Name
		if h.IsArchived {
			name += cli.MutedStyle.Render(" [archived]")
		}
		p := goals.MonthlyProgress(h, today, periods)
		ctx.Printf("%-14s %s  %s  %d/%d this month\n",
			cli.DayStatus(h, today, periods).Render(),
			cli.StrengthBar(h.Strength),
			name,
			p.Completed, p.Goal,
		)
	}
	return nil
}
