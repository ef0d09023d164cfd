// Package deadline turns gameweek events into a notification plan.
package deadline

import (
	"sort"
	"time"

	"fplremind/internal/fpl"
)

// Deadline is an upcoming transfer cutoff in the bot's timezone.
type Deadline struct {
	Gameweek int
	Name     string
	At       time.Time
}

// Kind identifies a planned notification.
type Kind string

const (
	KindDay     Kind = "day"
	KindHour    Kind = "hour"
	KindSummary Kind = "summary"
)

// Item is one scheduled notification for a deadline day.
type Item struct {
	Kind Kind
	At   time.Time
}

// Upcoming returns deadlines of unfinished gameweeks converted to loc,
// sorted by time.
func Upcoming(events []fpl.Event, loc *time.Location) []Deadline {
	if loc == nil {
		loc = time.Local
	}
	out := make([]Deadline, 0, len(events))
	for _, e := range events {
		if e.Finished || e.DeadlineTime.IsZero() {
			continue
		}
		out = append(out, Deadline{
			Gameweek: e.ID,
			Name:     e.Name,
			At:       e.DeadlineTime.In(loc),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	return out
}

// Today returns the deadline falling on the same local date as now, if any.
// At most one deadline per day is assumed; the earliest wins.
func Today(deadlines []Deadline, now time.Time) (Deadline, bool) {
	for _, d := range deadlines {
		if sameDate(d.At, now) {
			return d, true
		}
	}
	return Deadline{}, false
}

// Plan lays out the notifications for a deadline day:
// the day reminder fires immediately, the hour reminder at At-hourBefore,
// and the transfers summary at At+summaryDelay. Items whose fire time has
// already passed are dropped; a passed deadline yields an empty plan.
func Plan(d Deadline, now time.Time, hourBefore, summaryDelay time.Duration) []Item {
	if !d.At.After(now) {
		return nil
	}
	items := []Item{{Kind: KindDay, At: now}}
	if hourAt := d.At.Add(-hourBefore); hourAt.After(now) {
		items = append(items, Item{Kind: KindHour, At: hourAt})
	}
	items = append(items, Item{Kind: KindSummary, At: d.At.Add(summaryDelay)})
	return items
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
