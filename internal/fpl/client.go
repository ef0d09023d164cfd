package fpl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://fantasy.premierleague.com/api"

	defaultTimeout    = 20 * time.Second
	defaultRatePerSec = 2
	defaultRetryMax   = 3
	defaultUserAgent  = "fplremind/1.0"
)

// ErrNotFound marks a 404 from the API. Callers branch on it: entry picks
// return 404 both before the gameweek's picks are published and for entries
// without a previous gameweek.
var ErrNotFound = errors.New("fpl: not found")

// StatusError carries a non-2xx upstream status.
type StatusError struct {
	Status int
	Path   string
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fpl: GET %s: unexpected status %d: %s", e.Path, e.Status, e.Body)
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config controls how the client reaches the upstream API.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	UserAgent  string
	Timeout    time.Duration
	RatePerSec int
	RetryMax   int
}

// Client is a read-only HTTP client for the public FPL API.
// Requests are paced by a token bucket and retried with exponential
// backoff on transient failures; 4xx is never retried.
type Client struct {
	baseURL   string
	http      httpDoer
	userAgent string
	limiter   *rate.Limiter
	retryMax  uint64
}

func New(cfg Config) *Client {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	ua := strings.TrimSpace(cfg.UserAgent)
	if ua == "" {
		ua = defaultUserAgent
	}
	rps := cfg.RatePerSec
	if rps <= 0 {
		rps = defaultRatePerSec
	}
	retryMax := cfg.RetryMax
	if retryMax <= 0 {
		retryMax = defaultRetryMax
	}
	return &Client{
		baseURL:   base,
		http:      hc,
		userAgent: ua,
		limiter:   rate.NewLimiter(rate.Limit(rps), rps),
		retryMax:  uint64(retryMax),
	}
}

// Bootstrap fetches gameweek events and player elements.
func (c *Client) Bootstrap(ctx context.Context) (*Bootstrap, error) {
	var out Bootstrap
	if err := c.getJSON(ctx, "/bootstrap-static/", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// LeagueStandings fetches the classic-league table for the given league.
func (c *Client) LeagueStandings(ctx context.Context, leagueID int64) (*LeagueStandings, error) {
	var out LeagueStandings
	path := fmt.Sprintf("/leagues-classic/%d/standings/", leagueID)
	if err := c.getJSON(ctx, path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// EntryPicks fetches one team's picks for one gameweek.
// Returns ErrNotFound when the API has no picks for that entry/gameweek.
func (c *Client) EntryPicks(ctx context.Context, entryID int64, gameweek int) (*EntryPicks, error) {
	var out EntryPicks
	path := fmt.Sprintf("/entry/%d/event/%d/picks/", entryID, gameweek)
	if err := c.getJSON(ctx, path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	op := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return err // transient; retry
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return backoff.Permanent(fmt.Errorf("fpl: GET %s: decode: %w", path, err))
			}
			return nil
		case resp.StatusCode == http.StatusNotFound:
			return backoff.Permanent(fmt.Errorf("%w: GET %s", ErrNotFound, path))
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return statusErr(resp, path) // transient; retry
		default:
			return backoff.Permanent(statusErr(resp, path))
		}
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.retryMax), ctx)
	return backoff.Retry(op, bo)
}

func statusErr(resp *http.Response, path string) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &StatusError{Status: resp.StatusCode, Path: path, Body: strings.TrimSpace(string(body))}
}
