package config

import (
	"fmt"
	"strings"

	"github.com/seghcder/crewkan/internal/logging"
)

// Validate checks the configuration for values the core cannot operate
// with. It returns the first problem found.
func (c *Config) Validate() error {
	if c.Lock.TimeoutSeconds <= 0 {
		return fmt.Errorf("lock.timeout_seconds must be positive, got %d", c.Lock.TimeoutSeconds)
	}
	if c.Lock.RetryIntervalMs <= 0 {
		return fmt.Errorf("lock.retry_interval_ms must be positive, got %d", c.Lock.RetryIntervalMs)
	}
	if c.Lock.StaleAfterSeconds <= 0 {
		return fmt.Errorf("lock.stale_after_seconds must be positive, got %d", c.Lock.StaleAfterSeconds)
	}
	if c.Lock.StaleAfterSeconds < c.Lock.TimeoutSeconds {
		return fmt.Errorf("lock.stale_after_seconds (%d) must not be below lock.timeout_seconds (%d): a healthy holder's lock could be reclaimed mid-wait",
			c.Lock.StaleAfterSeconds, c.Lock.TimeoutSeconds)
	}

	if c.Record.MaxRetries < 0 {
		return fmt.Errorf("record.max_retries must not be negative, got %d", c.Record.MaxRetries)
	}
	if c.Record.RetryDelayMs < 0 {
		return fmt.Errorf("record.retry_delay_ms must not be negative, got %d", c.Record.RetryDelayMs)
	}

	if c.Board.DefaultPriority == "" {
		return fmt.Errorf("board.default_priority must not be empty")
	}
	if c.Board.IDPrefix == "" {
		return fmt.Errorf("board.id_prefix must not be empty")
	}

	level := strings.ToUpper(c.Logging.Level)
	valid := false
	for _, l := range logging.ValidLevels() {
		if level == l {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("logging.level must be one of %v, got %q", logging.ValidLevels(), c.Logging.Level)
	}

	if c.Logging.RotateMaxSizeMB < 0 {
		return fmt.Errorf("logging.rotate_max_size_mb must not be negative, got %d", c.Logging.RotateMaxSizeMB)
	}
	if c.Logging.RotateMaxBackups < 0 {
		return fmt.Errorf("logging.rotate_max_backups must not be negative, got %d", c.Logging.RotateMaxBackups)
	}

	return nil
}
