package strength

import (
	"github.com/julianstephens/habitual/internal/calendar"
	"github.com/julianstephens/habitual/internal/completion"
	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/models"
)

// Point is one day of a strength history.
type Point struct {
	Day      calendar.Day `json:"day"`
	Strength int          `json:"strength"`
	Quality  float64      `json:"quality"`
	Frozen   bool         `json:"frozen"`
}

// History replays strength day by day and returns the points between from and
// to inclusive, for charting. Unlike the live engine it freezes only on days
// the user skipped by hand; vacations and schedule gaps count as misses here.
func History(habit models.Habit, from, to calendar.Day) []Point {
	if to.Before(from) {
		return nil
	}
	start := FirstDay(habit)
	if start.IsZero() || start.After(to) {
		points := make([]Point, 0, to.DaysSince(from)+1)
		for _, d := range calendar.EnumerateDays(from, to) {
			points = append(points, Point{Day: d})
		}
		return points
	}

	s := 0.0
	var points []Point
	for d := calendar.MinDay(start, from); !d.After(to); d = d.AddDays(1) {
		p := Point{Day: d}
		switch {
		case d.Before(start):
			// before the habit existed
		case habit.IsSkipped(d):
			p.Frozen = true
		default:
			p.Quality = completion.Quality(habit, d)
			s = ApplyEMAStep(s, p.Quality, constants.EMAPeriod)
		}
		p.Strength = floorStrength(s)
		if !d.Before(from) {
			points = append(points, p)
		}
	}
	return points
}
