package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config keeps runtime settings for the bot.
type Config struct {
	DiscordToken   string
	DatabaseURL    string
	NotifyCooldown time.Duration
	CorrelationTTL time.Duration
	SweepInterval  time.Duration
}

// Load reads configuration from environment variables with sane defaults.
// A .env file is honored when present; deployments normally set the
// environment directly.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		DiscordToken:   strings.TrimSpace(os.Getenv("DISCORD_TOKEN")),
		DatabaseURL:    strings.TrimSpace(os.Getenv("DATABASE_URL")),
		NotifyCooldown: parseDuration(os.Getenv("NOTIFY_COOLDOWN_SECONDS"), "s"),
		CorrelationTTL: parseDuration(os.Getenv("CORRELATION_TTL_HOURS"), "h"),
		SweepInterval:  parseDuration(os.Getenv("SWEEP_INTERVAL_HOURS"), "h"),
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "wololo.db"
	}

	if cfg.NotifyCooldown == 0 {
		cfg.NotifyCooldown = 2 * time.Minute
	}

	if cfg.CorrelationTTL == 0 {
		cfg.CorrelationTTL = 7 * 24 * time.Hour
	}

	if cfg.SweepInterval == 0 {
		cfg.SweepInterval = 6 * time.Hour
	}

	if cfg.DiscordToken == "" {
		return cfg, fmt.Errorf("DISCORD_TOKEN is required")
	}

	return cfg, nil
}

func parseDuration(raw, unit string) time.Duration {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	d, err := time.ParseDuration(raw + unit)
	if err != nil || d <= 0 {
		return 0
	}
	return d
}
