package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Config struct {
	FPL      FPLConfig      `json:"fpl"`
	Reminder ReminderConfig `json:"reminder"`

	Telegram TelegramConfig `json:"telegram"`
	Discord  DiscordConfig  `json:"discord"`

	Logging   LoggingConfig   `json:"logging"`
	Scheduler SchedulerConfig `json:"scheduler"`
	Notifier  NotifierConfig  `json:"notifier"`
	Storage   *StorageConfig  `json:"storage,omitempty"`
}

// FPLConfig controls the Fantasy Premier League API client.
//
// All durations are Go duration strings (e.g. "500ms", "10s", "1m").
type FPLConfig struct {
	// BaseURL defaults to the public FPL API.
	BaseURL string `json:"base_url,omitempty"`

	// LeagueID is the classic league tracked for the transfers summary.
	// May also come from the FPL_LEAGUE_ID environment variable.
	LeagueID int64 `json:"league_id,omitempty"`

	Timeout    string `json:"timeout,omitempty"`
	RatePerSec int    `json:"rate_per_sec,omitempty"`
	RetryMax   int    `json:"retry_max,omitempty"`
}

// ReminderConfig controls deadline-day notification timing.
//
// Defaults (when fields are omitted/zero):
//   - hour_before: "1h"
//   - summary_delay: "1h30m"
//   - summary_retry_max: 3
//   - summary_retry_wait: "1h"
type ReminderConfig struct {
	// HourBefore is how long before the deadline the warning fires.
	HourBefore string `json:"hour_before,omitempty"`
	// SummaryDelay is how long after the deadline the transfers summary fires.
	SummaryDelay string `json:"summary_delay,omitempty"`
	// SummaryRetryMax bounds "picks not published yet" reattempts.
	SummaryRetryMax int `json:"summary_retry_max,omitempty"`
	// SummaryRetryWait is the gap between those reattempts.
	SummaryRetryWait string `json:"summary_retry_wait,omitempty"`
}

type TelegramConfig struct {
	Enabled bool `json:"enabled"`
	// Token may also come from the TELEGRAM_BOT_TOKEN environment variable.
	Token string `json:"token,omitempty"`
	// ChatID may also come from the TELEGRAM_CHAT_ID environment variable.
	ChatID int64 `json:"chat_id,omitempty"`
}

type DiscordConfig struct {
	Enabled bool `json:"enabled"`
	// WebhookURL may also come from the DISCORD_WEBHOOK environment variable.
	WebhookURL string `json:"webhook_url,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// SchedulerConfig controls the trigger service.
type SchedulerConfig struct {
	Enabled bool `json:"enabled"`
	Workers int  `json:"workers,omitempty"`

	// DefaultTimeout is a Go duration string (e.g. "10s", "1m").
	// Use "0s" to disable a global default timeout.
	DefaultTimeout string `json:"default_timeout,omitempty"`

	// DailyCheck is the cron spec for the morning deadline check.
	// Defaults to "0 8 * * *" (08:00 in Timezone).
	DailyCheck string `json:"daily_check,omitempty"`

	// Timezone is an IANA TZ, e.g. "Europe/London". Empty means local.
	Timezone string `json:"timezone,omitempty"`
}

// NotifierConfig controls delivery pacing and retries.
type NotifierConfig struct {
	RatePerSec int `json:"rate_per_sec,omitempty"`
	RetryMax   int `json:"retry_max,omitempty"`
	// DedupWindow is how long a sent notification key suppresses resends.
	DedupWindow string `json:"dedup_window,omitempty"`
}

// StorageConfig controls the optional persistence layer.
//
// Example:
//
//	"storage": { "driver": "file", "path": "./fplremind_store" }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

// Validate checks invariants that would otherwise surface mid-run.
// Secrets are checked after env overrides have been applied.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if !c.Telegram.Enabled && !c.Discord.Enabled {
		return errors.New("no notification channel enabled (telegram or discord)")
	}
	if c.Telegram.Enabled {
		if strings.TrimSpace(c.Telegram.Token) == "" {
			return errors.New("telegram.token is required (or TELEGRAM_BOT_TOKEN)")
		}
		if c.Telegram.ChatID == 0 {
			return errors.New("telegram.chat_id is required (or TELEGRAM_CHAT_ID)")
		}
	}
	if c.Discord.Enabled && strings.TrimSpace(c.Discord.WebhookURL) == "" {
		return errors.New("discord.webhook_url is required (or DISCORD_WEBHOOK)")
	}
	if c.FPL.LeagueID < 0 {
		return fmt.Errorf("fpl.league_id must be >= 0, got %d", c.FPL.LeagueID)
	}

	// Duration fields must parse even when the values are unused today.
	for _, d := range []struct{ field, value string }{
		{"fpl.timeout", c.FPL.Timeout},
		{"reminder.hour_before", c.Reminder.HourBefore},
		{"reminder.summary_delay", c.Reminder.SummaryDelay},
		{"reminder.summary_retry_wait", c.Reminder.SummaryRetryWait},
		{"scheduler.default_timeout", c.Scheduler.DefaultTimeout},
		{"notifier.dedup_window", c.Notifier.DedupWindow},
	} {
		if _, err := DurationField(d.field, d.value); err != nil {
			return err
		}
	}
	if c.Storage != nil {
		if _, err := DurationField("storage.busy_timeout", c.Storage.BusyTimeout); err != nil {
			return err
		}
	}
	return nil
}

// DurationField parses an optional duration-string field like "1h30m".
// Empty means "unset" and yields zero with no error, so callers keep their
// own defaults.
func DurationField(field, value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a duration: %w", field, value, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: negative duration %q", field, value)
	}
	return d, nil
}

// DurationFieldOr resolves an optional duration field, substituting def for
// unset or zero values.
func DurationFieldOr(field, value string, def time.Duration) (time.Duration, error) {
	d, err := DurationField(field, value)
	if err != nil {
		return 0, err
	}
	if d == 0 {
		return def, nil
	}
	return d, nil
}
