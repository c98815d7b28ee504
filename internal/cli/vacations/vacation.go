package vacations

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/vacation"
)

type VacationCmd struct {
	Add    VacationAddCmd    `cmd:"" help:"Add a vacation period."`
	List   VacationListCmd   `cmd:"" help:"List vacation periods." default:"1"`
	Delete VacationDeleteCmd `cmd:"" help:"Delete a vacation period."`
}

type VacationAddCmd struct {
	Start  string   `arg:"" help:"First day (YYYY-MM-DD)."`
	End    string   `arg:"" help:"Last day, inclusive (YYYY-MM-DD)."`
	Habits []string `help:"Habits (name or id) the vacation applies to; all habits when omitted." sep:","`
	Note   string   `help:"Optional note."`
}

func (c *VacationAddCmd) Run(ctx *cli.Context) error {
	today := ctx.Today()
	start, err := cli.ParseDay(c.Start, today)
	if err != nil {
		return err
	}
	end, err := cli.ParseDay(c.End, today)
	if err != nil {
		return err
	}

	p := models.VacationPeriod{
		ID:        uuid.New().String(),
		StartDate: start.String(),
		EndDate:   end.String(),
		AllHabits: len(c.Habits) == 0,
		Note:      c.Note,
	}
	names := make([]string, 0, len(c.Habits))
	for _, ref := range c.Habits {
		h, err := ctx.ResolveHabit(ref)
		if err != nil {
			return err
		}
		p.HabitIDs = append(p.HabitIDs, h.ID)
		names = append(names, h.Name)
	}
	if err := vacation.Validate(p); err != nil {
		return err
	}
	if err := ctx.Store.AddVacation(p); err != nil {
		return err
	}
	if err := recalculate(ctx); err != nil {
		return err
	}

	scope := "all habits"
	if !p.AllHabits {
		scope = strings.Join(names, ", ")
	}
	ctx.Printf("Added vacation %s to %s for %s\n", p.StartDate, p.EndDate, scope)
	return nil
}

type VacationListCmd struct{}

func (c *VacationListCmd) Run(ctx *cli.Context) error {
	periods, err := ctx.Vacations()
	if err != nil {
		return err
	}
	if len(periods) == 0 {
		ctx.Printf("No vacations found.\n")
		return nil
	}

	habits, err := ctx.Store.GetAllHabits(true)
	if err != nil {
		return err
	}
	names := make(map[string]string, len(habits))
	for _, h := range habits {
		names[h.ID] = h.Name
	}

	today := ctx.Today()
	for _, p := range periods {
		scope := "all habits"
		if !p.AllHabits {
			parts := make([]string, len(p.HabitIDs))
			for i, id := range p.HabitIDs {
				parts[i] = names[id]
				if parts[i] == "" {
					parts[i] = cli.MutedStyle.Render(id)
				}
			}
			scope = strings.Join(parts, ", ")
		}
		line := fmt.Sprintf("%s  %s → %s  %s", shortID(p.ID), p.StartDate, p.EndDate, scope)
		if vacation.Contains(p, today) {
			line = cli.VacationStyle.Render(line + " (active)")
		}
		if p.Note != "" {
			line += cli.MutedStyle.Render("  " + p.Note)
		}
		ctx.Printf("%s\n", line)
	}
	return nil
}

type VacationDeleteCmd struct {
	ID string `arg:"" help:"Vacation id or unique id prefix."`
}

func (c *VacationDeleteCmd) Run(ctx *cli.Context) error {
	periods, err := ctx.Vacations()
	if err != nil {
		return err
	}
	var match []models.VacationPeriod
	for _, p := range periods {
		if strings.HasPrefix(p.ID, c.ID) {
			match = append(match, p)
		}
	}
	switch len(match) {
	case 0:
		return fmt.Errorf("vacation %q not found", c.ID)
	case 1:
	default:
		return errors.New("id prefix matches more than one vacation; use more characters")
	}

	if err := ctx.Store.DeleteVacation(match[0].ID); err != nil {
		return err
	}
	if err := recalculate(ctx); err != nil {
		return err
	}
	ctx.Printf("Deleted vacation %s to %s\n", match[0].StartDate, match[0].EndDate)
	return nil
}

// recalculate rebuilds strength for every habit after the frozen days
// changed. Vacations are local, so the habits only change locally until the
// next edit is synced.
func recalculate(ctx *cli.Context) error {
	habits, err := ctx.Store.GetAllHabits(true)
	if err != nil {
		return err
	}
	periods, err := ctx.Vacations()
	if err != nil {
		return err
	}
	for _, h := range ctx.Engine().RecalculateAll(habits, periods) {
		if err := ctx.Store.UpdateHabit(h); err != nil {
			return err
		}
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
