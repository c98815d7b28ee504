package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/habitual/internal/calendar"
	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/frequency"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/vacation"
)

var (
	HeaderStyle = lipgloss.NewStyle().Bold(true).Underline(true)

	DoneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	DueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	SkipStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	VacationStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	MutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	barFull  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	barEmpty = lipgloss.NewStyle().Foreground(lipgloss.Color("236"))
)

const barWidth = 20

// StrengthBar renders strength as a fixed-width bar followed by its value.
func StrengthBar(strength int) string {
	strength = max(0, min(strength, constants.MaxStrength))
	filled := strength * barWidth / constants.MaxStrength
	return barFull.Render(strings.Repeat("█", filled)) +
		barEmpty.Render(strings.Repeat("░", barWidth-filled)) +
		fmt.Sprintf(" %3d", strength)
}

// Status names a habit's state on one day.
type Status string

const (
	StatusDone     Status = "done"
	StatusDue      Status = "due"
	StatusSkipped  Status = "skipped"
	StatusAutoSkip Status = "not due"
	StatusVacation Status = "vacation"
	StatusInactive Status = "not started"
)

func (s Status) Render() string {
	switch s {
	case StatusDone:
		return DoneStyle.Render("✓ " + string(s))
	case StatusDue:
		return DueStyle.Render("○ " + string(s))
	case StatusVacation:
		return VacationStyle.Render("✈ " + string(s))
	default:
		return SkipStyle.Render("- " + string(s))
	}
}

// Mark is the single-character form of a status for history grids.
func (s Status) Mark() string {
	switch s {
	case StatusDone:
		return DoneStyle.Render("x")
	case StatusDue:
		return DueStyle.Render(".")
	case StatusVacation:
		return VacationStyle.Render("v")
	case StatusSkipped:
		return SkipStyle.Render("s")
	default:
		return SkipStyle.Render("-")
	}
}

// DayStatus classifies day for display. A completion wins over any freeze.
func DayStatus(h models.Habit, day calendar.Day, periods []models.VacationPeriod) Status {
	if start := h.StartDay(); !start.IsZero() && day.Before(start) && !h.IsCompleted(day) {
		return StatusInactive
	}
	switch {
	case h.IsCompleted(day):
		return StatusDone
	case h.IsSkipped(day):
		return StatusSkipped
	case vacation.IsDateInVacation(day, h.ID, periods):
		return StatusVacation
	case frequency.ShouldShowAutoSkip(h, day, periods):
		return StatusAutoSkip
	default:
		return StatusDue
	}
}
