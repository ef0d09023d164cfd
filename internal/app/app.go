// Package app wires configuration, logging, storage, channels, the FPL
// client, the scheduler and the reminder bot into one runnable unit.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"fplremind/internal/config"
	"fplremind/internal/fpl"
	"fplremind/internal/notifier"
	"fplremind/internal/reminder"
	"fplremind/internal/scheduler"
	"fplremind/internal/storage"
	"fplremind/internal/transport"
	"fplremind/internal/transport/discord"
	"fplremind/internal/transport/telegram"
	logx "fplremind/pkg/logx"
)

const (
	defaultDailyCheck = "0 8 * * *"
	defaultJobTimeout = 2 * time.Minute
)

type App struct {
	log    logx.Logger
	logSvc *logx.Service

	cfgMgr *config.Manager
	store  storage.Store
	sched  *scheduler.Service
	bot    *reminder.Bot

	watchCancel context.CancelFunc
	watchWG     sync.WaitGroup
}

// New loads and validates the config at path and builds every component.
func New(path string) (*App, error) {
	mgr := config.NewManager(path)
	cfg, err := mgr.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	mgr.SetLogger(log.With(logx.String("svc", "config")))
	mgr.SetValidator(func(ctx context.Context, cfg *config.Config) error {
		return cfg.Validate()
	})

	a := &App{log: log, logSvc: logSvc, cfgMgr: mgr}
	if err := a.build(cfg); err != nil {
		_ = logSvc.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(cfg *config.Config) error {
	store, err := openStore(cfg, a.log.With(logx.String("svc", "storage")))
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	a.store = store

	channels, err := buildChannels(cfg, a.log)
	if err != nil {
		return err
	}

	nCfg, err := notifierConfig(cfg)
	if err != nil {
		return err
	}
	notif := notifier.New(nCfg, channels, store, a.log.With(logx.String("svc", "notifier")))

	sCfg, err := schedulerConfig(cfg)
	if err != nil {
		return err
	}
	a.sched = scheduler.New(sCfg, a.log.With(logx.String("svc", "scheduler")))

	fCfg, err := fplConfig(cfg)
	if err != nil {
		return err
	}
	client := fpl.New(fCfg)

	rCfg, err := reminderConfig(cfg)
	if err != nil {
		return err
	}
	a.bot = reminder.New(rCfg, client, a.sched, notif, a.log.With(logx.String("svc", "reminder")))
	return nil
}

// Start runs the daemon: the scheduler with its daily deadline check plus
// the config file watcher for hot log-level changes.
func (a *App) Start(ctx context.Context) error {
	a.sched.Start(ctx)

	cfg := a.cfgMgr.Get()
	spec := strings.TrimSpace(cfg.Scheduler.DailyCheck)
	if spec == "" {
		spec = defaultDailyCheck
	}
	if cfg.Scheduler.Enabled {
		if err := a.sched.AddCron("deadline-check", spec, 0, a.bot.CheckDeadlines); err != nil {
			return fmt.Errorf("register daily check: %w", err)
		}
		a.log.Info("daily deadline check registered", logx.String("cron", spec))
	} else {
		a.log.Warn("scheduler disabled; no daily check registered (use -once from external cron)")
	}

	watchCtx, cancel := context.WithCancel(ctx)
	a.watchCancel = cancel
	updates := a.cfgMgr.Subscribe(1)

	a.watchWG.Add(2)
	go func() {
		defer a.watchWG.Done()
		if err := a.cfgMgr.Watch(watchCtx); err != nil {
			a.log.Warn("config watcher stopped", logx.Err(err))
		}
	}()
	go func() {
		defer a.watchWG.Done()
		for {
			select {
			case <-watchCtx.Done():
				a.cfgMgr.Unsubscribe(updates)
				return
			case next, ok := <-updates:
				if !ok {
					return
				}
				a.applyReload(next)
			}
		}
	}()

	a.log.Info("started")
	return nil
}

// applyReload applies the hot-swappable parts of a reloaded config.
// Everything else (channels, storage, client pacing) needs a restart.
func (a *App) applyReload(cfg *config.Config) {
	if cfg == nil {
		return
	}
	a.logSvc.Apply(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	a.log.Info("config reloaded; logging settings applied, other changes need a restart")
}

// RunOnce performs a single deadline check and waits for the day's planted
// notifications to finish. Meant to be invoked from an external cron.
func (a *App) RunOnce(ctx context.Context) error {
	a.sched.Start(ctx)
	if err := a.bot.CheckDeadlines(ctx); err != nil {
		return err
	}
	return a.bot.Wait(ctx)
}

func (a *App) Stop(ctx context.Context) {
	if a.watchCancel != nil {
		a.watchCancel()
		a.watchWG.Wait()
	}
	a.sched.Stop(ctx)
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn("storage close", logx.Err(err))
		}
	}
	a.log.Info("stopped")
	_ = a.logSvc.Close()
}

func buildChannels(cfg *config.Config, log logx.Logger) ([]transport.Channel, error) {
	var out []transport.Channel
	if cfg.Telegram.Enabled {
		ch, err := telegram.New(telegram.Config{
			Token:  cfg.Telegram.Token,
			ChatID: cfg.Telegram.ChatID,
		})
		if err != nil {
			log.Warn("telegram channel unavailable", logx.Err(err))
		} else {
			out = append(out, ch)
		}
	}
	if cfg.Discord.Enabled {
		ch, err := discord.New(discord.Config{WebhookURL: cfg.Discord.WebhookURL})
		if err != nil {
			log.Warn("discord channel unavailable", logx.Err(err))
		} else {
			out = append(out, ch)
		}
	}
	if len(out) == 0 {
		return nil, errors.New("no notification channel could be initialised")
	}
	return out, nil
}

func openStore(cfg *config.Config, log logx.Logger) (storage.Store, error) {
	if cfg.Storage == nil {
		return nil, nil
	}
	busy, err := config.DurationField("storage.busy_timeout", cfg.Storage.BusyTimeout)
	if err != nil {
		return nil, err
	}
	return storage.Open(storage.Config{
		Driver:      cfg.Storage.Driver,
		Path:        cfg.Storage.Path,
		BusyTimeout: busy,
	}, log)
}

func notifierConfig(cfg *config.Config) (notifier.Config, error) {
	window, err := config.DurationFieldOr("notifier.dedup_window", cfg.Notifier.DedupWindow, 24*time.Hour)
	if err != nil {
		return notifier.Config{}, err
	}
	return notifier.Config{
		RatePerSec:  float64(cfg.Notifier.RatePerSec),
		RetryMax:    cfg.Notifier.RetryMax,
		DedupWindow: window,
	}, nil
}

func schedulerConfig(cfg *config.Config) (scheduler.Config, error) {
	timeout := defaultJobTimeout
	if raw := strings.TrimSpace(cfg.Scheduler.DefaultTimeout); raw != "" {
		d, err := config.DurationField("scheduler.default_timeout", raw)
		if err != nil {
			return scheduler.Config{}, err
		}
		timeout = d
	}
	return scheduler.Config{
		Workers:        cfg.Scheduler.Workers,
		DefaultTimeout: timeout,
		Timezone:       cfg.Scheduler.Timezone,
	}, nil
}

func fplConfig(cfg *config.Config) (fpl.Config, error) {
	timeout, err := config.DurationField("fpl.timeout", cfg.FPL.Timeout)
	if err != nil {
		return fpl.Config{}, err
	}
	return fpl.Config{
		BaseURL:    cfg.FPL.BaseURL,
		Timeout:    timeout,
		RatePerSec: cfg.FPL.RatePerSec,
		RetryMax:   cfg.FPL.RetryMax,
	}, nil
}

func reminderConfig(cfg *config.Config) (reminder.Config, error) {
	hourBefore, err := config.DurationFieldOr("reminder.hour_before", cfg.Reminder.HourBefore, time.Hour)
	if err != nil {
		return reminder.Config{}, err
	}
	summaryDelay, err := config.DurationFieldOr("reminder.summary_delay", cfg.Reminder.SummaryDelay, 90*time.Minute)
	if err != nil {
		return reminder.Config{}, err
	}
	retryWait, err := config.DurationFieldOr("reminder.summary_retry_wait", cfg.Reminder.SummaryRetryWait, time.Hour)
	if err != nil {
		return reminder.Config{}, err
	}
	return reminder.Config{
		LeagueID:         cfg.FPL.LeagueID,
		HourBefore:       hourBefore,
		SummaryDelay:     summaryDelay,
		SummaryRetryMax:  cfg.Reminder.SummaryRetryMax,
		SummaryRetryWait: retryWait,
	}, nil
}
