// Package config loads the server configuration from file, environment,
// and defaults, in that order of precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server Server `mapstructure:"server"`
	Game   Game   `mapstructure:"game"`
	Events Events `mapstructure:"events"`
	Collab Collab `mapstructure:"collab"`
}

// Server holds HTTP server configuration
type Server struct {
	Host                  string        `mapstructure:"host"`
	Port                  int           `mapstructure:"port"`
	LogLevel              string        `mapstructure:"log_level"`
	LogFormat             string        `mapstructure:"log_format"`
	MaxMatches            int           `mapstructure:"max_matches"`
	FinishedMatchTTL      time.Duration `mapstructure:"finished_match_ttl"`
	AbandonedMatchTTL     time.Duration `mapstructure:"abandoned_match_ttl"`
	CleanupInterval       time.Duration `mapstructure:"cleanup_interval"`
	GracefulShutdownDelay time.Duration `mapstructure:"graceful_shutdown_delay"`
}

// Game holds match mechanics configuration
type Game struct {
	MinPlayers   int           `mapstructure:"min_players"`
	MaxPlayers   int           `mapstructure:"max_players"`
	MafiaDivisor int           `mapstructure:"mafia_divisor"`
	NightTimeout time.Duration `mapstructure:"night_timeout"`
	DayDuration  time.Duration `mapstructure:"day_duration"`
	VoteTimeout  time.Duration `mapstructure:"vote_timeout"`
}

// Events holds event persistence and logging configuration
type Events struct {
	StoreDSN  string        `mapstructure:"store_dsn"`
	Retention time.Duration `mapstructure:"retention"`
	LogKinds  []string      `mapstructure:"log_kinds"` // empty logs every kind
	DevLog    bool          `mapstructure:"dev_log"`   // log full envelopes as JSON
}

// Collab holds the messaging bridge configuration for sibling services
type Collab struct {
	Enabled bool   `mapstructure:"enabled"`
	NatsURL string `mapstructure:"nats_url"`
}

var (
	// Global config instance
	cfg *Config
	v   *viper.Viper
)

// setViperDefaults sets all default values using Viper's SetDefault
func setViperDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.log_format", "console")
	v.SetDefault("server.max_matches", 100)
	v.SetDefault("server.finished_match_ttl", "10m")
	v.SetDefault("server.abandoned_match_ttl", "1h")
	v.SetDefault("server.cleanup_interval", "1m")
	v.SetDefault("server.graceful_shutdown_delay", "5s")

	// Game defaults
	v.SetDefault("game.min_players", 5)
	v.SetDefault("game.max_players", 30)
	v.SetDefault("game.mafia_divisor", 4)
	v.SetDefault("game.night_timeout", "60s")
	v.SetDefault("game.day_duration", "3m")
	v.SetDefault("game.vote_timeout", "60s")

	// Event store defaults
	v.SetDefault("events.store_dsn", "")
	v.SetDefault("events.retention", "24h")
	v.SetDefault("events.log_kinds", []string{})
	v.SetDefault("events.dev_log", false)

	// Collab defaults
	v.SetDefault("collab.enabled", false)
	v.SetDefault("collab.nats_url", "nats://localhost:4222")
}

// Init initializes the configuration
func Init(configPath string) error {
	v = viper.New()

	setViperDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/mafiacore")
	}

	v.SetEnvPrefix("MAFIA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if configPath != "" {
			// Specific file requested but not found: fall back to defaults
		} else if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg = &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	return nil
}

// Get returns the global config instance
func Get() *Config {
	if cfg == nil {
		if err := Init(""); err != nil {
			panic("failed to initialize config with defaults: " + err.Error())
		}
	}
	return cfg
}

// GetViper returns the viper instance for advanced usage
func GetViper() *viper.Viper {
	if v == nil {
		panic("config not initialized - call Init() first")
	}
	return v
}

// Set allows runtime config updates
func Set(key string, value interface{}) {
	v.Set(key, value)
	v.Unmarshal(cfg)
}

// WatchConfig enables hot-reloading of the config file
func WatchConfig(onChange func()) {
	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		v.Unmarshal(cfg)
		if onChange != nil {
			onChange()
		}
	})
}

// Validate validates the configuration values
func Validate(c *Config) error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Server.MaxMatches <= 0 {
		return fmt.Errorf("server.max_matches must be positive")
	}
	if c.Server.CleanupInterval <= 0 {
		return fmt.Errorf("server.cleanup_interval must be positive")
	}
	if c.Server.FinishedMatchTTL < 0 || c.Server.AbandonedMatchTTL < 0 {
		return fmt.Errorf("server match TTLs must be non-negative")
	}

	if c.Game.MinPlayers < 3 {
		return fmt.Errorf("game.min_players must be at least 3")
	}
	if c.Game.MaxPlayers < c.Game.MinPlayers {
		return fmt.Errorf("game.max_players must be at least game.min_players")
	}
	if c.Game.MafiaDivisor < 2 {
		return fmt.Errorf("game.mafia_divisor must be at least 2")
	}
	if c.Game.NightTimeout < 0 || c.Game.DayDuration < 0 || c.Game.VoteTimeout < 0 {
		return fmt.Errorf("game phase timers must be non-negative")
	}

	if c.Events.Retention < 0 {
		return fmt.Errorf("events.retention must be non-negative")
	}

	if c.Collab.Enabled && c.Collab.NatsURL == "" {
		return fmt.Errorf("collab.nats_url is required when collab.enabled is true")
	}

	return nil
}
