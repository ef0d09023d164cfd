// Package reminder orchestrates the deadline-day flow: the daily check,
// the two reminders, and the post-deadline transfers summary.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"fplremind/internal/deadline"
	"fplremind/internal/fpl"
	"fplremind/internal/notifier"
	"fplremind/internal/roster"
	logx "fplremind/pkg/logx"
)

// API is the slice of the FPL client the bot needs.
type API interface {
	Bootstrap(ctx context.Context) (*fpl.Bootstrap, error)
	LeagueStandings(ctx context.Context, leagueID int64) (*fpl.LeagueStandings, error)
	EntryPicks(ctx context.Context, entryID int64, gameweek int) (*fpl.EntryPicks, error)
}

// Scheduler plants the one-shot timers for deadline-day notifications.
type Scheduler interface {
	RunAt(name string, at time.Time, timeout time.Duration, job func(ctx context.Context) error) error
	Location() *time.Location
}

// Sender broadcasts a notification to the configured channels.
type Sender interface {
	Send(ctx context.Context, msg notifier.Message) error
}

type Config struct {
	LeagueID         int64
	HourBefore       time.Duration
	SummaryDelay     time.Duration
	SummaryRetryMax  int
	SummaryRetryWait time.Duration
}

type Bot struct {
	log   logx.Logger
	cfg   Config
	api   API
	sched Scheduler
	send  Sender

	// jobs tracks planted one-shots so a single-run invocation can wait
	// for the day's notifications to drain before exiting.
	jobs sync.WaitGroup

	now func() time.Time // test seam
}

func New(cfg Config, api API, sched Scheduler, send Sender, log logx.Logger) *Bot {
	if cfg.HourBefore <= 0 {
		cfg.HourBefore = time.Hour
	}
	if cfg.SummaryDelay <= 0 {
		cfg.SummaryDelay = 90 * time.Minute
	}
	if cfg.SummaryRetryMax <= 0 {
		cfg.SummaryRetryMax = 3
	}
	if cfg.SummaryRetryWait <= 0 {
		cfg.SummaryRetryWait = time.Hour
	}
	return &Bot{
		log:   log,
		cfg:   cfg,
		api:   api,
		sched: sched,
		send:  send,
		now:   time.Now,
	}
}

// CheckDeadlines is the daily entry point. On a deadline day it sends the
// morning reminder immediately and plants the hour warning and the
// transfers summary; on any other day it is a no-op.
func (b *Bot) CheckDeadlines(ctx context.Context) error {
	boot, err := b.api.Bootstrap(ctx)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}

	loc := b.sched.Location()
	now := b.now().In(loc)
	upcoming := deadline.Upcoming(boot.Events, loc)
	d, ok := deadline.Today(upcoming, now)
	if !ok {
		b.log.Debug("no deadline today", logx.Int("upcoming", len(upcoming)))
		return nil
	}
	b.log.Info("deadline today",
		logx.Int("gw", d.Gameweek),
		logx.String("name", d.Name),
		logx.Time("at", d.At))

	for _, item := range deadline.Plan(d, now, b.cfg.HourBefore, b.cfg.SummaryDelay) {
		switch item.Kind {
		case deadline.KindDay:
			msg := notifier.Message{
				Kind:     string(deadline.KindDay),
				Gameweek: d.Gameweek,
				DedupKey: fmt.Sprintf("day:gw%d", d.Gameweek),
				Text:     roster.FormatDayReminder(d.Gameweek, d.At),
			}
			if err := b.send.Send(ctx, msg); err != nil {
				b.log.Error("day reminder failed", logx.Int("gw", d.Gameweek), logx.Err(err))
			}
		case deadline.KindHour:
			b.plant(fmt.Sprintf("hour-warning:gw%d", d.Gameweek), item.At, func(ctx context.Context) error {
				return b.send.Send(ctx, notifier.Message{
					Kind:     string(deadline.KindHour),
					Gameweek: d.Gameweek,
					DedupKey: fmt.Sprintf("hour:gw%d", d.Gameweek),
					Text:     roster.FormatHourReminder(d.Gameweek),
				})
			})
		case deadline.KindSummary:
			gw := d.Gameweek
			b.plant(fmt.Sprintf("transfers-summary:gw%d", gw), item.At, func(ctx context.Context) error {
				return b.runSummary(ctx, gw, 1)
			})
		}
	}
	return nil
}

// Wait blocks until every planted one-shot for the day has finished, or
// ctx expires. Used by single-run mode to drain before exit.
func (b *Bot) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		b.jobs.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Bot) plant(name string, at time.Time, job func(ctx context.Context) error) {
	b.jobs.Add(1)
	wrapped := func(ctx context.Context) error {
		defer b.jobs.Done()
		return job(ctx)
	}
	if err := b.sched.RunAt(name, at, 0, wrapped); err != nil {
		b.jobs.Done()
		b.log.Error("schedule failed", logx.String("name", name), logx.Err(err))
	}
}

// runSummary builds and sends the transfers summary. When the gameweek's
// picks are not published yet the whole summary is retried after a wait,
// up to the configured attempt cap.
func (b *Bot) runSummary(ctx context.Context, gameweek, attempt int) error {
	text, err := b.buildSummary(ctx, gameweek)
	if errors.Is(err, fpl.ErrNotFound) {
		if attempt >= b.cfg.SummaryRetryMax {
			b.log.Warn("picks never appeared, giving up on summary",
				logx.Int("gw", gameweek), logx.Int("attempts", attempt))
			return nil
		}
		at := b.now().Add(b.cfg.SummaryRetryWait)
		b.log.Info("picks not published yet, summary postponed",
			logx.Int("gw", gameweek), logx.Int("attempt", attempt), logx.Time("retry_at", at))
		b.plant(fmt.Sprintf("transfers-summary:gw%d", gameweek), at, func(ctx context.Context) error {
			return b.runSummary(ctx, gameweek, attempt+1)
		})
		return nil
	}
	if err != nil {
		return fmt.Errorf("summary gw%d: %w", gameweek, err)
	}

	return b.send.Send(ctx, notifier.Message{
		Kind:     string(deadline.KindSummary),
		Gameweek: gameweek,
		DedupKey: fmt.Sprintf("summary:gw%d", gameweek),
		Text:     text,
	})
}

// buildSummary returns fpl.ErrNotFound when any tracked entry's picks for
// the current gameweek are missing, which means the API has not published
// the gameweek yet.
func (b *Bot) buildSummary(ctx context.Context, gameweek int) (string, error) {
	boot, err := b.api.Bootstrap(ctx)
	if err != nil {
		return "", fmt.Errorf("bootstrap: %w", err)
	}
	names := boot.PlayerNames()

	standings, err := b.api.LeagueStandings(ctx, b.cfg.LeagueID)
	if err != nil {
		return "", fmt.Errorf("standings: %w", err)
	}

	sections := make([]string, 0, len(standings.Standings.Results))
	for _, entry := range standings.Standings.Results {
		current, err := b.api.EntryPicks(ctx, entry.Entry, gameweek)
		if err != nil {
			// Missing current picks bubbles up so the caller can retry
			// the whole summary once the gameweek is published.
			return "", err
		}

		if gameweek <= 1 {
			// Opening gameweek: no previous squad to diff against.
			continue
		}
		previous, err := b.api.EntryPicks(ctx, entry.Entry, gameweek-1)
		if errors.Is(err, fpl.ErrNotFound) {
			// Entry joined mid-season; nothing to diff against.
			b.log.Debug("no previous picks, skipping entry",
				logx.Int64("entry", entry.Entry), logx.String("team", entry.EntryName))
			continue
		}
		if err != nil {
			return "", err
		}

		ch := roster.Diff(entry.EntryName, current, previous)
		sections = append(sections, roster.FormatTeam(ch, names))
	}

	return roster.FormatSummary(gameweek, sections), nil
}
