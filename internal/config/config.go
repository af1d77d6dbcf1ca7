package config

import "time"

// Config is the root configuration for a crawler run.
type Config struct {
	Logging  LoggingConfig  `yaml:"logging"`
	API      APIConfig      `yaml:"api"`
	Pulse    PulseConfig    `yaml:"pulse"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
	Browser  BrowserConfig  `yaml:"browser"`
}

// LoggingConfig holds the rotating log file settings.
type LoggingConfig struct {
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	Level      string `yaml:"level"`   // debug, info, warn, error
	Console    bool   `yaml:"console"` // Also write log lines to stderr
}

// APIConfig holds upstream HTTP endpoints.
type APIConfig struct {
	OracleURL  string        `yaml:"oracle_url"`  // CoinGecko v3 base
	ListingURL string        `yaml:"listing_url"` // CoinMarketCap static listing host
	DetailURL  string        `yaml:"detail_url"`  // CoinMarketCap data API host
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"` // 0 = single attempt
}

// PulseConfig holds price pulse settings.
type PulseConfig struct {
	Asset        string        `yaml:"asset"`    // Oracle asset id (e.g. "bitcoin")
	Currency     string        `yaml:"currency"` // Quote currency (e.g. "usd")
	Symbol       string        `yaml:"symbol"`   // Display symbol (e.g. "BTC")
	Interval     time.Duration `yaml:"interval"`
	Window       int           `yaml:"window"`
	MaxDoublings int           `yaml:"max_doublings"`
	AlertAfter   int           `yaml:"alert_after"`
	MaxCycles    int           `yaml:"max_cycles"` // 0 = run until interrupted
}

// SnapshotConfig holds ranked snapshot settings shared by both collectors.
type SnapshotConfig struct {
	Pages         int           `yaml:"pages"`
	PageSize      int           `yaml:"page_size"`
	PageDelay     time.Duration `yaml:"page_delay"`
	DetailDelay   time.Duration `yaml:"detail_delay"`
	BrowserOutput string        `yaml:"browser_output"`
	APIOutput     string        `yaml:"api_output"`
}

// BrowserConfig holds headless browser settings.
type BrowserConfig struct {
	ExecPath      string        `yaml:"exec_path"`    // Chrome binary
	DevToolsURL   string        `yaml:"devtools_url"` // Attach to a running Chrome instead of launching
	PageURL       string        `yaml:"page_url"`     // Listing URL; "?page=N" is appended
	ReadySelector string        `yaml:"ready_selector"`
	TableSelector string        `yaml:"table_selector"`
	ReadyTimeout  time.Duration `yaml:"ready_timeout"`
	ScrollStep    int           `yaml:"scroll_step"`
	ScrollTick    time.Duration `yaml:"scroll_tick"`
	ScrollRepeats int           `yaml:"scroll_repeats"`
	UserAgent     string        `yaml:"user_agent"`
	WindowWidth   int           `yaml:"window_width"`
	WindowHeight  int           `yaml:"window_height"`
}

// EntryLimit is the number of ranked entries the API collector keeps.
func (s SnapshotConfig) EntryLimit() int {
	return s.Pages * s.PageSize
}
