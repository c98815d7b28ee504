// Package merge reconciles two replicas of the habit list. It is pure: inputs
// are never modified and the result shares no maps with them.
package merge

import (
	"github.com/mitchellh/hashstructure/v2"

	"github.com/julianstephens/habitual/internal/models"
)

// Habits merges the local and remote snapshots by habit id. Habits present on
// one side only pass through unchanged. Order is local first, then remote-only
// habits in remote order.
func Habits(local, remote []models.Habit) []models.Habit {
	byID := make(map[string]int, len(remote))
	for i, h := range remote {
		byID[h.ID] = i
	}

	out := make([]models.Habit, 0, len(local)+len(remote))
	seen := make(map[string]bool, len(local))
	for _, l := range local {
		seen[l.ID] = true
		if i, ok := byID[l.ID]; ok {
			out = append(out, Habit(l, remote[i]))
			continue
		}
		out = append(out, l.Clone())
	}
	for _, r := range remote {
		if !seen[r.ID] {
			out = append(out, r.Clone())
		}
	}
	return out
}

// Habit merges two versions of the same habit.
//
// The scalar and config fields come as one set from whichever side was
// modified last. Completions, notes, moods and manual skips are unioned by
// day, and a day present on both sides takes the newer side's value. The
// strength fields are cleared: they only make sense against the merged
// completion history, so callers rerun the strength engine afterwards.
func Habit(a, b models.Habit) models.Habit {
	winner, loser := a, b
	if !Newer(a, b) {
		winner, loser = b, a
	}

	out := winner.Clone()
	out.Completions = unionByDay(winner.Completions, loser.Completions)
	out.Notes = unionByDay(winner.Notes, loser.Notes)
	out.Moods = unionByDay(winner.Moods, loser.Moods)
	out.Skipped = unionByDay(winner.Skipped, loser.Skipped)

	out.Strength = 0
	out.StrengthBaseline = 0
	out.LastStrengthUpdate = ""
	return out
}

// Newer reports whether a wins over b. The later updatedAt (or createdAt)
// wins; equal timestamps fall back to comparing content hashes so both
// argument orders pick the same side.
func Newer(a, b models.Habit) bool {
	ta, tb := a.ModifiedAt(), b.ModifiedAt()
	if !ta.Equal(tb) {
		return ta.After(tb)
	}
	return Fingerprint(a) >= Fingerprint(b)
}

// Fingerprint hashes everything except the derived strength fields.
func Fingerprint(h models.Habit) uint64 {
	h.Strength = 0
	h.StrengthBaseline = 0
	h.LastStrengthUpdate = ""
	sum, err := hashstructure.Hash(h, hashstructure.FormatV2, nil)
	if err != nil {
		return 0
	}
	return sum
}

func unionByDay[V any](newer, older map[string]V) map[string]V {
	if newer == nil && older == nil {
		return nil
	}
	out := make(map[string]V, len(newer)+len(older))
	for k, v := range older {
		out[k] = v
	}
	for k, v := range newer {
		out[k] = v
	}
	return out
}
