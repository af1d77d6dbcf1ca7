package config

import (
	"errors"
	"fmt"
	"strings"
)

var validLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Logging.File == "" {
		return errors.New("logging.file is required")
	}
	if c.Logging.MaxSizeMB < 1 {
		return errors.New("logging.max_size_mb must be >= 1")
	}
	if c.Logging.MaxBackups < 0 {
		return errors.New("logging.max_backups must be >= 0")
	}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level)
	}

	if c.API.MaxRetries < 0 {
		return errors.New("api.max_retries must be >= 0")
	}

	if c.Pulse.Asset == "" {
		return errors.New("pulse.asset is required")
	}
	if c.Pulse.Interval <= 0 {
		return errors.New("pulse.interval must be positive")
	}
	if c.Pulse.Window < 1 {
		return errors.New("pulse.window must be >= 1")
	}
	if c.Pulse.MaxDoublings < 0 {
		return errors.New("pulse.max_doublings must be >= 0")
	}
	if c.Pulse.AlertAfter < 1 {
		return errors.New("pulse.alert_after must be >= 1")
	}
	if c.Pulse.MaxCycles < 0 {
		return errors.New("pulse.max_cycles must be >= 0")
	}

	if c.Snapshot.Pages < 1 {
		return errors.New("snapshot.pages must be >= 1")
	}
	if c.Snapshot.PageSize < 1 {
		return errors.New("snapshot.page_size must be >= 1")
	}
	if c.Snapshot.BrowserOutput == c.Snapshot.APIOutput {
		return fmt.Errorf("snapshot.browser_output and snapshot.api_output must differ, both %q", c.Snapshot.APIOutput)
	}

	if c.Browser.ScrollRepeats < 1 {
		return errors.New("browser.scroll_repeats must be >= 1")
	}
	if c.Browser.ScrollStep < 1 {
		return errors.New("browser.scroll_step must be >= 1")
	}

	return nil
}
