// Package daemon manages the CoinQuest service lifecycle and configuration.
package daemon

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/tutu-network/coinquest/internal/app/engagement"
	"github.com/tutu-network/coinquest/internal/domain"
)

// Config holds all daemon configuration.
type Config struct {
	Progression   ProgressionConfig   `toml:"progression"`
	API           APIConfig           `toml:"api"`
	Notifications NotificationsConfig `toml:"notifications"`
	Logging       LoggingConfig       `toml:"logging"`
	Telemetry     TelemetryConfig     `toml:"telemetry"`
}

// ProgressionConfig tunes the engine.
type ProgressionConfig struct {
	LevelThresholds  []int64 `toml:"level_thresholds"`
	StreakBonusXP    int64   `toml:"streak_bonus_xp"`
	StreakBonusEvery int     `toml:"streak_bonus_every"`
	RefreshMissions  bool    `toml:"refresh_missions"`
	RolloverInterval string  `toml:"rollover_interval"` // how often to check for a new day
}

// APIConfig controls the local HTTP API server.
type APIConfig struct {
	Host        string   `toml:"host"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
}

// NotificationsConfig mirrors domain.NotificationPolicy.
type NotificationsConfig struct {
	Enabled    bool   `toml:"enabled"`
	MaxPerDay  int    `toml:"max_per_day"`
	QuietStart string `toml:"quiet_start"`
	QuietEnd   string `toml:"quiet_end"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level string `toml:"level"` // "info" or "debug"
	File  string `toml:"file"`
}

// TelemetryConfig controls the Prometheus endpoint.
type TelemetryConfig struct {
	Prometheus bool `toml:"prometheus"`
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	streak := engagement.DefaultStreakPolicy()
	policy := domain.DefaultNotificationPolicy()
	return Config{
		Progression: ProgressionConfig{
			LevelThresholds:  append([]int64(nil), engagement.DefaultThresholds...),
			StreakBonusXP:    streak.BonusXP,
			StreakBonusEvery: streak.BonusEvery,
			RefreshMissions:  true,
			RolloverInterval: "1m",
		},
		API: APIConfig{
			Host:        "127.0.0.1",
			Port:        7717,
			CORSOrigins: []string{"*"},
		},
		Notifications: NotificationsConfig{
			Enabled:    true,
			MaxPerDay:  policy.MaxPerDay,
			QuietStart: policy.QuietStart,
			QuietEnd:   policy.QuietEnd,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  filepath.Join(coinquestHome(), "coinquest.log"),
		},
		Telemetry: TelemetryConfig{
			Prometheus: true,
		},
	}
}

// Validate checks the values a hand-edited config file can get wrong.
func (c Config) Validate() error {
	var errs []error
	if !engagement.ValidThresholds(c.Progression.LevelThresholds) {
		errs = append(errs, fmt.Errorf("progression.level_thresholds must start at 0 and be strictly ascending"))
	}
	if c.Progression.StreakBonusEvery <= 0 {
		errs = append(errs, fmt.Errorf("progression.streak_bonus_every must be positive"))
	}
	if c.Progression.StreakBonusXP < 0 {
		errs = append(errs, fmt.Errorf("progression.streak_bonus_xp must not be negative"))
	}
	if c.API.Port <= 0 || c.API.Port > 65535 {
		errs = append(errs, fmt.Errorf("api.port %d out of range", c.API.Port))
	}
	if c.Notifications.MaxPerDay < 0 {
		errs = append(errs, fmt.Errorf("notifications.max_per_day must not be negative"))
	}
	if !engagement.ValidClockTime(c.Notifications.QuietStart) || !engagement.ValidClockTime(c.Notifications.QuietEnd) {
		errs = append(errs, fmt.Errorf("notifications quiet hours must be HH:MM"))
	}
	return errors.Join(errs...)
}

// StreakPolicy returns the configured streak bonus.
func (c Config) StreakPolicy() engagement.StreakPolicy {
	return engagement.StreakPolicy{BonusXP: c.Progression.StreakBonusXP, BonusEvery: c.Progression.StreakBonusEvery}
}

// NotificationPolicy returns the configured notification policy.
func (c Config) NotificationPolicy() domain.NotificationPolicy {
	return domain.NotificationPolicy{
		MaxPerDay:  c.Notifications.MaxPerDay,
		QuietStart: c.Notifications.QuietStart,
		QuietEnd:   c.Notifications.QuietEnd,
	}
}

// LoadConfig reads config from ~/.coinquest/config.toml, falling back to defaults.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	path := filepath.Join(coinquestHome(), "config.toml")

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil // No config file yet, use defaults
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// SaveConfig writes the config to ~/.coinquest/config.toml.
func SaveConfig(cfg Config) error {
	path := filepath.Join(coinquestHome(), "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(cfg)
}

// coinquestHome returns the CoinQuest data directory.
func coinquestHome() string {
	if env := os.Getenv("COINQUEST_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".coinquest")
}

// Home is exported for use by other packages.
func Home() string {
	return coinquestHome()
}
