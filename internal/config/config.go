// Package config provides CrewKan configuration loaded through viper.
//
// Configuration is read from a YAML config file (crewkan.yaml in the board
// root or $HOME/.config/crewkan/config.yaml), overridable through
// CREWKAN_* environment variables. Every key has a default, so a missing
// config file is not an error.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete CrewKan core configuration.
type Config struct {
	Lock          LockConfig          `mapstructure:"lock"`
	Record        RecordConfig        `mapstructure:"record"`
	Board         BoardConfig         `mapstructure:"board"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	Logging       LoggingConfig       `mapstructure:"logging"`
}

// LockConfig controls advisory file lock behavior.
type LockConfig struct {
	// TimeoutSeconds bounds lock acquisition.
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
	// RetryIntervalMs is the sleep between acquisition polls.
	RetryIntervalMs int `mapstructure:"retry_interval_ms"`
	// StaleAfterSeconds is the marker age beyond which a lock is reclaimable.
	StaleAfterSeconds int `mapstructure:"stale_after_seconds"`
}

// RecordConfig controls durable record I/O.
type RecordConfig struct {
	// MaxRetries bounds retries of transient I/O failures.
	MaxRetries int `mapstructure:"max_retries"`
	// RetryDelayMs is the pause between transient-failure retries.
	RetryDelayMs int `mapstructure:"retry_delay_ms"`
	// Backup enables the pre-overwrite .bak copy.
	Backup bool `mapstructure:"backup"`
}

// BoardConfig carries board-level defaults applied when an issue omits them.
type BoardConfig struct {
	// DefaultPriority is applied to issues created without a priority.
	DefaultPriority string `mapstructure:"default_priority"`
	// IDPrefix is the prefix for generated issue ids.
	IDPrefix string `mapstructure:"id_prefix"`
	// DefaultIssueType is applied to issues created without a type.
	DefaultIssueType string `mapstructure:"default_issue_type"`
}

// NotificationsConfig controls mailbox event emission.
type NotificationsConfig struct {
	// Enabled controls whether board operations emit completion and
	// assignment events.
	Enabled bool `mapstructure:"enabled"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	// Level is one of DEBUG, INFO, WARN, ERROR.
	Level string `mapstructure:"level"`
	// RotateMaxSizeMB is the log size triggering rotation (0 disables).
	RotateMaxSizeMB int `mapstructure:"rotate_max_size_mb"`
	// RotateMaxBackups is the number of rotated files to keep.
	RotateMaxBackups int `mapstructure:"rotate_max_backups"`
	// RotateCompress gzips rotated files.
	RotateCompress bool `mapstructure:"rotate_compress"`
}

// SetDefaults registers the default value for every configuration key.
// Call before reading the config file so defaults apply even without one.
func SetDefaults() {
	viper.SetDefault("lock.timeout_seconds", 30)
	viper.SetDefault("lock.retry_interval_ms", 100)
	viper.SetDefault("lock.stale_after_seconds", 300)

	viper.SetDefault("record.max_retries", 3)
	viper.SetDefault("record.retry_delay_ms", 50)
	viper.SetDefault("record.backup", true)

	viper.SetDefault("board.default_priority", "medium")
	viper.SetDefault("board.id_prefix", "T")
	viper.SetDefault("board.default_issue_type", "task")

	viper.SetDefault("notifications.enabled", true)

	viper.SetDefault("logging.level", "INFO")
	viper.SetDefault("logging.rotate_max_size_mb", 10)
	viper.SetDefault("logging.rotate_max_backups", 3)
	viper.SetDefault("logging.rotate_compress", false)
}

// ConfigDir returns the user-level configuration directory.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "crewkan")
}

// Load reads configuration from the config file and environment into a
// Config. A missing config file is not an error; defaults apply.
func Load() (*Config, error) {
	SetDefaults()

	viper.SetConfigName("crewkan")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	if dir := ConfigDir(); dir != "" {
		viper.AddConfigPath(dir)
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("CREWKAN")
	// CREWKAN_LOCK_TIMEOUT_SECONDS for lock.timeout_seconds, etc.
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	_ = viper.ReadInConfig() // optional

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration with every key at its default value,
// bypassing the config file and environment.
func Default() *Config {
	return &Config{
		Lock: LockConfig{
			TimeoutSeconds:    30,
			RetryIntervalMs:   100,
			StaleAfterSeconds: 300,
		},
		Record: RecordConfig{
			MaxRetries:   3,
			RetryDelayMs: 50,
			Backup:       true,
		},
		Board: BoardConfig{
			DefaultPriority:  "medium",
			IDPrefix:         "T",
			DefaultIssueType: "task",
		},
		Notifications: NotificationsConfig{Enabled: true},
		Logging: LoggingConfig{
			Level:            "INFO",
			RotateMaxSizeMB:  10,
			RotateMaxBackups: 3,
		},
	}
}

// LockTimeout returns the lock acquisition bound as a duration.
func (c *Config) LockTimeout() time.Duration {
	return time.Duration(c.Lock.TimeoutSeconds) * time.Second
}

// LockRetryInterval returns the pause between lock polls as a duration.
func (c *Config) LockRetryInterval() time.Duration {
	return time.Duration(c.Lock.RetryIntervalMs) * time.Millisecond
}

// LockStaleAfter returns the lock staleness threshold as a duration.
func (c *Config) LockStaleAfter() time.Duration {
	return time.Duration(c.Lock.StaleAfterSeconds) * time.Second
}

// RecordRetryDelay returns the transient-failure retry pause as a duration.
func (c *Config) RecordRetryDelay() time.Duration {
	return time.Duration(c.Record.RetryDelayMs) * time.Millisecond
}
