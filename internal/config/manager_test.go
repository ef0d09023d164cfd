package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const sampleYAML = `
fpl:
  league_id: 42
  timeout: 10s
reminder:
  hour_before: 1h
  summary_delay: 1h30m
telegram:
  enabled: true
  token: "123:abc"
  chat_id: -100200300
logging:
  level: debug
  console: true
scheduler:
  enabled: true
  daily_check: "0 8 * * *"
  timezone: Europe/London
`

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", sampleYAML)
	mgr := NewManager(path)
	cfg, err := mgr.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.FPL.LeagueID != 42 {
		t.Errorf("league_id = %d", cfg.FPL.LeagueID)
	}
	if cfg.Telegram.ChatID != -100200300 {
		t.Errorf("chat_id = %d", cfg.Telegram.ChatID)
	}
	if cfg.Scheduler.Timezone != "Europe/London" {
		t.Errorf("timezone = %q", cfg.Scheduler.Timezone)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
	if got := mgr.Get(); got != cfg {
		t.Error("Get() should return the committed config")
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, "config.yaml", "fpl:\n  laegue_id: 42\n")
	if _, err := NewManager(path).Parse(); err == nil {
		t.Fatal("expected error for misspelled key")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv(EnvLeagueID, "777")
	t.Setenv(EnvTelegramToken, "456:xyz")
	t.Setenv(EnvTelegramChat, "99")
	t.Setenv(EnvDiscordHook, "https://discord.com/api/webhooks/1/a")

	path := writeConfig(t, "config.yaml", sampleYAML)
	cfg, err := NewManager(path).Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.FPL.LeagueID != 777 {
		t.Errorf("league_id = %d, want env override", cfg.FPL.LeagueID)
	}
	if cfg.Telegram.Token != "456:xyz" || cfg.Telegram.ChatID != 99 {
		t.Errorf("telegram = %+v", cfg.Telegram)
	}
	if cfg.Discord.WebhookURL == "" {
		t.Error("discord webhook not applied")
	}
}

func TestEnvRejectsBadNumbers(t *testing.T) {
	t.Setenv(EnvLeagueID, "not-a-number")
	var cfg Config
	if err := ApplyEnv(&cfg); err == nil {
		t.Fatal("expected error for invalid league id")
	}
}

func TestValidateRequiresChannel(t *testing.T) {
	t.Parallel()
	var cfg Config
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when no channel is enabled")
	}

	cfg.Telegram.Enabled = true
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing telegram credentials")
	}
	cfg.Telegram.Token = "123:abc"
	cfg.Telegram.ChatID = 7
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	cfg.Reminder.HourBefore = "soon"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid duration")
	}
}
