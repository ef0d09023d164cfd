package fpl

import "time"

// Bootstrap is the subset of /bootstrap-static/ the bot consumes.
type Bootstrap struct {
	Events   []Event   `json:"events"`
	Elements []Element `json:"elements"`
}

// Event is one gameweek.
type Event struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	DeadlineTime time.Time `json:"deadline_time"`
	Finished     bool      `json:"finished"`
}

// Element is one player.
type Element struct {
	ID          int    `json:"id"`
	WebName     string `json:"web_name"`
	Team        int    `json:"team"`
	ElementType int    `json:"element_type"`
}

// PlayerNames indexes elements by id for message formatting.
func (b *Bootstrap) PlayerNames() map[int]string {
	m := make(map[int]string, len(b.Elements))
	for _, e := range b.Elements {
		m[e.ID] = e.WebName
	}
	return m
}

// LeagueStandings is the subset of /leagues-classic/{id}/standings/ the bot consumes.
type LeagueStandings struct {
	League struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"league"`
	Standings struct {
		Results []LeagueEntry `json:"results"`
	} `json:"standings"`
}

// LeagueEntry is one team in a classic league.
type LeagueEntry struct {
	Entry      int64  `json:"entry"`
	EntryName  string `json:"entry_name"`
	PlayerName string `json:"player_name"`
	Rank       int    `json:"rank"`
}

// EntryPicks is /entry/{id}/event/{gw}/picks/.
// ActiveChip is "" when no chip is played ("wildcard", "freehit", ...).
type EntryPicks struct {
	ActiveChip string `json:"active_chip"`
	Picks      []Pick `json:"picks"`
}

type Pick struct {
	Element       int  `json:"element"`
	IsCaptain     bool `json:"is_captain"`
	IsViceCaptain bool `json:"is_vice_captain"`
}
