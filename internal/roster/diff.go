// Package roster computes and formats gameweek roster changes.
package roster

import (
	"sort"

	"fplremind/internal/fpl"
)

// Chip names as rendered in summaries.
const (
	ChipWildcard = "Wildcard"
	ChipFreeHit  = "Free Hit"
)

// Changes describes one team's moves between two consecutive gameweeks.
type Changes struct {
	TeamName string

	// In/Out hold element ids, sorted ascending for stable output.
	In  []int
	Out []int

	Captain     int // element id, 0 when absent
	ViceCaptain int // element id, 0 when absent

	// Chip is ChipWildcard or ChipFreeHit when one was active, else "".
	// ChipWhen is "current" or "previous" (a Free Hit in the previous
	// gameweek means the squad reverted this week).
	Chip     string
	ChipWhen string
}

// Diff compares previous-gameweek picks against current-gameweek picks.
func Diff(teamName string, current, previous *fpl.EntryPicks) Changes {
	ch := Changes{TeamName: teamName}

	cur := make(map[int]bool, len(current.Picks))
	for _, p := range current.Picks {
		cur[p.Element] = true
		if p.IsCaptain && ch.Captain == 0 {
			ch.Captain = p.Element
		}
		if p.IsViceCaptain && ch.ViceCaptain == 0 {
			ch.ViceCaptain = p.Element
		}
	}
	prev := make(map[int]bool, len(previous.Picks))
	for _, p := range previous.Picks {
		prev[p.Element] = true
	}

	for id := range prev {
		if !cur[id] {
			ch.Out = append(ch.Out, id)
		}
	}
	for id := range cur {
		if !prev[id] {
			ch.In = append(ch.In, id)
		}
	}
	sort.Ints(ch.Out)
	sort.Ints(ch.In)

	switch {
	case current.ActiveChip == "wildcard":
		ch.Chip, ch.ChipWhen = ChipWildcard, "current"
	case current.ActiveChip == "freehit":
		ch.Chip, ch.ChipWhen = ChipFreeHit, "current"
	case previous.ActiveChip == "freehit":
		ch.Chip, ch.ChipWhen = ChipFreeHit, "previous"
	}

	return ch
}
