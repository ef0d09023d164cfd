package app

import (
	"testing"
	"time"

	"fplremind/internal/config"
	logx "fplremind/pkg/logx"
)

func TestBuildChannelsDiscordOnly(t *testing.T) {
	t.Parallel()
	cfg := &config.Config{}
	cfg.Discord.Enabled = true
	cfg.Discord.WebhookURL = "https://discord.com/api/webhooks/1/abc"

	chs, err := buildChannels(cfg, logx.Nop())
	if err != nil {
		t.Fatalf("buildChannels: %v", err)
	}
	if len(chs) != 1 || chs[0].Name() != "discord" {
		t.Fatalf("channels = %v", chs)
	}
}

func TestBuildChannelsNoneInitialised(t *testing.T) {
	t.Parallel()
	cfg := &config.Config{}
	cfg.Discord.Enabled = true // missing webhook url

	if _, err := buildChannels(cfg, logx.Nop()); err == nil {
		t.Fatal("expected error when no channel comes up")
	}
}

func TestReminderConfigDefaults(t *testing.T) {
	t.Parallel()
	cfg := &config.Config{}
	cfg.FPL.LeagueID = 42

	rc, err := reminderConfig(cfg)
	if err != nil {
		t.Fatalf("reminderConfig: %v", err)
	}
	if rc.LeagueID != 42 {
		t.Errorf("league = %d", rc.LeagueID)
	}
	if rc.HourBefore != time.Hour {
		t.Errorf("hour_before = %v", rc.HourBefore)
	}
	if rc.SummaryDelay != 90*time.Minute {
		t.Errorf("summary_delay = %v", rc.SummaryDelay)
	}
	if rc.SummaryRetryWait != time.Hour {
		t.Errorf("summary_retry_wait = %v", rc.SummaryRetryWait)
	}
}

func TestReminderConfigOverrides(t *testing.T) {
	t.Parallel()
	cfg := &config.Config{}
	cfg.Reminder.HourBefore = "45m"
	cfg.Reminder.SummaryDelay = "2h"
	cfg.Reminder.SummaryRetryWait = "30m"

	rc, err := reminderConfig(cfg)
	if err != nil {
		t.Fatalf("reminderConfig: %v", err)
	}
	if rc.HourBefore != 45*time.Minute || rc.SummaryDelay != 2*time.Hour || rc.SummaryRetryWait != 30*time.Minute {
		t.Errorf("unexpected config: %+v", rc)
	}
}

func TestSchedulerConfigTimeout(t *testing.T) {
	t.Parallel()
	cfg := &config.Config{}
	sc, err := schedulerConfig(cfg)
	if err != nil {
		t.Fatalf("schedulerConfig: %v", err)
	}
	if sc.DefaultTimeout != defaultJobTimeout {
		t.Errorf("default timeout = %v", sc.DefaultTimeout)
	}

	cfg.Scheduler.DefaultTimeout = "0s"
	sc, err = schedulerConfig(cfg)
	if err != nil {
		t.Fatalf("schedulerConfig: %v", err)
	}
	if sc.DefaultTimeout != 0 {
		t.Errorf("explicit 0s should disable the default, got %v", sc.DefaultTimeout)
	}

	cfg.Scheduler.DefaultTimeout = "nope"
	if _, err := schedulerConfig(cfg); err == nil {
		t.Fatal("expected error for bad duration")
	}
}
