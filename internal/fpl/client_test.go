package fpl

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func testClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := New(Config{BaseURL: srv.URL, RatePerSec: 1000, RetryMax: 2})
	return c, srv
}

func TestBootstrapDecodesEventsAndElements(t *testing.T) {
	t.Parallel()
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bootstrap-static/" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Errorf("Accept = %q", got)
		}
		w.Write([]byte(`{
			"events": [
				{"id": 11, "name": "Gameweek 11", "deadline_time": "2026-02-27T18:30:00Z", "finished": false},
				{"id": 10, "name": "Gameweek 10", "deadline_time": "2026-02-20T18:30:00Z", "finished": true}
			],
			"elements": [
				{"id": 1, "web_name": "Salah", "team": 12, "element_type": 3},
				{"id": 2, "web_name": "Haaland", "team": 13, "element_type": 4}
			]
		}`))
	}))

	bs, err := c.Bootstrap(context.Background())
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if len(bs.Events) != 2 || len(bs.Elements) != 2 {
		t.Fatalf("unexpected sizes: events=%d elements=%d", len(bs.Events), len(bs.Elements))
	}
	if bs.Events[0].DeadlineTime.IsZero() {
		t.Fatal("deadline_time not parsed")
	}
	names := bs.PlayerNames()
	if names[1] != "Salah" || names[2] != "Haaland" {
		t.Fatalf("unexpected player names: %v", names)
	}
}

func TestEntryPicksNotFound(t *testing.T) {
	t.Parallel()
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))

	_, err := c.EntryPicks(context.Background(), 42, 7)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetJSONRetriesServerErrors(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "upstream hiccup", http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"active_chip": "wildcard", "picks": [{"element": 5, "is_captain": true, "is_vice_captain": false}]}`))
	}))

	picks, err := c.EntryPicks(context.Background(), 42, 7)
	if err != nil {
		t.Fatalf("EntryPicks after retries: %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
	if picks.ActiveChip != "wildcard" || len(picks.Picks) != 1 || !picks.Picks[0].IsCaptain {
		t.Fatalf("unexpected picks: %+v", picks)
	}
}

func TestGetJSONDoesNotRetryClientErrors(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "nope", http.StatusForbidden)
	}))

	_, err := c.LeagueStandings(context.Background(), 99)
	if err == nil {
		t.Fatal("expected error")
	}
	var se *StatusError
	if !errors.As(err, &se) || se.Status != http.StatusForbidden {
		t.Fatalf("expected StatusError 403, got %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected 1 attempt, got %d", got)
	}
}

func TestLeagueStandingsDecodes(t *testing.T) {
	t.Parallel()
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/leagues-classic/303/standings/" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte(`{
			"league": {"id": 303, "name": "Office League"},
			"standings": {"results": [
				{"entry": 7, "entry_name": "Pain Train", "player_name": "Sam", "rank": 1},
				{"entry": 8, "entry_name": "Bench Mob", "player_name": "Alex", "rank": 2}
			]}
		}`))
	}))

	ls, err := c.LeagueStandings(context.Background(), 303)
	if err != nil {
		t.Fatalf("LeagueStandings: %v", err)
	}
	if ls.League.Name != "Office League" || len(ls.Standings.Results) != 2 {
		t.Fatalf("unexpected standings: %+v", ls)
	}
}
