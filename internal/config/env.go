package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Environment variables recognized for secrets and per-deployment values.
// They override whatever the config file says, so tokens never have to live
// on disk next to the binary.
const (
	EnvLeagueID      = "FPL_LEAGUE_ID"
	EnvTelegramToken = "TELEGRAM_BOT_TOKEN"
	EnvTelegramChat  = "TELEGRAM_CHAT_ID"
	EnvDiscordHook   = "DISCORD_WEBHOOK"
)

// ApplyEnv overlays environment-provided credentials onto cfg.
// Call before Validate().
func ApplyEnv(cfg *Config) error {
	if cfg == nil {
		return nil
	}
	if v := strings.TrimSpace(os.Getenv(EnvLeagueID)); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: invalid league id %q: %w", EnvLeagueID, v, err)
		}
		cfg.FPL.LeagueID = id
	}
	if v := strings.TrimSpace(os.Getenv(EnvTelegramToken)); v != "" {
		cfg.Telegram.Token = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvTelegramChat)); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: invalid chat id %q: %w", EnvTelegramChat, v, err)
		}
		cfg.Telegram.ChatID = id
	}
	if v := strings.TrimSpace(os.Getenv(EnvDiscordHook)); v != "" {
		cfg.Discord.WebhookURL = v
	}
	return nil
}
