package habits

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/julianstephens/habitual/internal/calendar"
	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/goals"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/storage"
	"github.com/julianstephens/habitual/internal/strength"
)

type HabitShowCmd struct {
	Habit string `arg:"" help:"Habit name or id."`
	Days  int    `help:"Number of recent days to show." default:"14"`
}

func (c *HabitShowCmd) Run(ctx *cli.Context) error {
	h, err := ctx.ResolveHabit(c.Habit)
	if err != nil {
		return err
	}
	periods, err := ctx.Vacations()
	if err != nil {
		return err
	}
	today := ctx.Today()

	ctx.Printf("%s\n", cli.HeaderStyle.Render(h.Name))
	if h.Description != "" {
		ctx.Printf("%s\n", h.Description)
	}
	ctx.Printf("ID:         %s\n", h.ID)
	ctx.Printf("Type:       %s\n", h.Type)
	if h.IsMeasurable() {
		ctx.Printf("Target:     %s %g %s\n", targetWord(h.TargetType), h.TargetValue, h.Unit)
	}
	ctx.Printf("Frequency:  %s\n", models.FormatFrequency(h.Frequency))
	ctx.Printf("Started:    %s\n", h.StartDay())
	ctx.Printf("Strength:   %s\n", cli.StrengthBar(h.Strength))
	if t, ok := calendar.ParseTimestamp(h.LastStrengthUpdate); ok {
		ctx.Printf("Updated:    %s\n", humanize.RelTime(t, ctx.Now(), "ago", "from now"))
	}

	p := goals.MonthlyProgress(h, today, periods)
	ctx.Printf("This month: %d/%d (%.0f%%)\n", p.Completed, p.Goal, p.Percent)

	days := max(1, c.Days)
	ctx.Printf("\n")
	for _, d := range calendar.EnumerateDays(today.AddDays(-(days - 1)), today) {
		line := fmt.Sprintf("%s %s  %s", d, d.Weekday().String()[:3], cli.DayStatus(h, d, periods).Render())
		if v, ok := h.Completion(d); ok && h.IsMeasurable() && v.Kind == models.Value {
			line += fmt.Sprintf(" (%g %s)", v.Amount, h.Unit)
		}
		if note := h.Notes[d.String()]; note != "" {
			line += cli.MutedStyle.Render("  " + note)
		}
		ctx.Printf("%s\n", line)
	}
	return nil
}

func targetWord(t models.TargetType) string {
	if t == models.TargetMax {
		return "at most"
	}
	return "at least"
}

type HabitHistoryCmd struct {
	Habit string `arg:"" help:"Habit name or id."`
	Days  int    `help:"Number of days to chart." default:"30"`
}

func (c *HabitHistoryCmd) Run(ctx *cli.Context) error {
	h, err := ctx.ResolveHabit(c.Habit)
	if err != nil {
		return err
	}
	if c.Days < 1 {
		return errors.New("--days must be at least 1")
	}
	today := ctx.Today()
	points := strength.History(h, today.AddDays(-(c.Days - 1)), today)

	ctx.Printf("%s\n\n", cli.HeaderStyle.Render("Strength history: "+h.Name))
	for _, p := range points {
		marker := "  "
		if p.Frozen {
			marker = cli.SkipStyle.Render("❄ ")
		}
		ctx.Printf("%s %s%s\n", p.Day, marker, cli.StrengthBar(p.Strength))
	}
	return nil
}

type StatsCmd struct {
	Month string `help:"Any day in the month to report on (default today)."`
}

func (c *StatsCmd) Run(ctx *cli.Context) error {
	habits, err := ctx.Store.GetAllHabits(false)
	if err != nil {
		return err
	}
	periods, err := ctx.Vacations()
	if err != nil {
		return err
	}
	day, err := cli.ParseDay(c.Month, ctx.Today())
	if err != nil {
		return err
	}

	ctx.Printf("%s\n\n", cli.HeaderStyle.Render(fmt.Sprintf("%s %d", day.Month(), day.Year())))
	if len(habits) == 0 {
		ctx.Printf("No active habits.\n")
	}

	totalDone, totalGoal, strengthSum := 0, 0, 0
	for _, h := range habits {
		p := goals.MonthlyProgress(h, day, periods)
		totalDone += min(p.Completed, p.Goal)
		totalGoal += p.Goal
		strengthSum += h.Strength
		ctx.Printf("%-24s %s  %3d/%-3d %5.1f%%\n", truncate(h.Name, 24), cli.StrengthBar(h.Strength), p.Completed, p.Goal, p.Percent)
	}

	if len(habits) > 0 {
		overall := 0.0
		if totalGoal > 0 {
			overall = float64(totalDone) / float64(totalGoal) * 100
		}
		ctx.Printf("\nAverage strength: %d\n", strengthSum/len(habits))
		ctx.Printf("Goals met:        %d/%d (%.0f%%)\n", totalDone, totalGoal, overall)
	}

	last, err := ctx.Store.GetMeta(storage.MetaLastSync)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		ctx.Printf("Last sync:        never\n")
	case err != nil:
		return err
	default:
		if t, ok := calendar.ParseTimestamp(last); ok {
			ctx.Printf("Last sync:        %s\n", humanize.RelTime(t, ctx.Now(), "ago", "from now"))
		}
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s + strings.Repeat(" ", n-len(r))
	}
	return string(r[:n-1]) + "…"
}
