package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultLogFile       = "logs.log"
	DefaultLogMaxSizeMB  = 10
	DefaultLogMaxBackups = 5
	DefaultLogLevel      = "info"

	DefaultOracleURL  = "https://api.coingecko.com/api/v3"
	DefaultListingURL = "https://s3.coinmarketcap.com"
	DefaultDetailURL  = "https://api.coinmarketcap.com"
	DefaultAPITimeout = 10 * time.Second

	DefaultPulseAsset        = "bitcoin"
	DefaultPulseCurrency     = "usd"
	DefaultPulseSymbol       = "BTC"
	DefaultPulseInterval     = 30 * time.Second
	DefaultPulseWindow       = 10
	DefaultPulseMaxDoublings = 3
	DefaultPulseAlertAfter   = 5

	DefaultPages         = 5
	DefaultPageSize      = 20
	DefaultPageDelay     = 4 * time.Second
	DefaultDetailDelay   = 4 * time.Second
	DefaultBrowserOutput = "five_pages_selenium.csv"
	DefaultAPIOutput     = "five_pages_api.csv"

	DefaultChromePath    = "google-chrome"
	DefaultPageURL       = "https://coinmarketcap.com/"
	DefaultReadySelector = "span.table_footer-left"
	DefaultTableSelector = "table.cmc-table"
	DefaultReadyTimeout  = 30 * time.Second
	DefaultScrollStep    = 300
	DefaultScrollTick    = 1 * time.Second
	DefaultScrollRepeats = 2
	DefaultUserAgent     = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36"
	DefaultWindowWidth  = 1500
	DefaultWindowHeight = 700
)

func (c *Config) applyDefaults() {
	// Logging defaults
	if c.Logging.File == "" {
		c.Logging.File = DefaultLogFile
	}
	if c.Logging.MaxSizeMB == 0 {
		c.Logging.MaxSizeMB = DefaultLogMaxSizeMB
	}
	if c.Logging.MaxBackups == 0 {
		c.Logging.MaxBackups = DefaultLogMaxBackups
	}
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}

	// API defaults
	if c.API.OracleURL == "" {
		c.API.OracleURL = DefaultOracleURL
	}
	if c.API.ListingURL == "" {
		c.API.ListingURL = DefaultListingURL
	}
	if c.API.DetailURL == "" {
		c.API.DetailURL = DefaultDetailURL
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}

	// Pulse defaults
	if c.Pulse.Asset == "" {
		c.Pulse.Asset = DefaultPulseAsset
	}
	if c.Pulse.Currency == "" {
		c.Pulse.Currency = DefaultPulseCurrency
	}
	if c.Pulse.Symbol == "" {
		c.Pulse.Symbol = DefaultPulseSymbol
	}
	if c.Pulse.Interval == 0 {
		c.Pulse.Interval = DefaultPulseInterval
	}
	if c.Pulse.Window == 0 {
		c.Pulse.Window = DefaultPulseWindow
	}
	if c.Pulse.MaxDoublings == 0 {
		c.Pulse.MaxDoublings = DefaultPulseMaxDoublings
	}
	if c.Pulse.AlertAfter == 0 {
		c.Pulse.AlertAfter = DefaultPulseAlertAfter
	}

	// Snapshot defaults
	if c.Snapshot.Pages == 0 {
		c.Snapshot.Pages = DefaultPages
	}
	if c.Snapshot.PageSize == 0 {
		c.Snapshot.PageSize = DefaultPageSize
	}
	if c.Snapshot.PageDelay == 0 {
		c.Snapshot.PageDelay = DefaultPageDelay
	}
	if c.Snapshot.DetailDelay == 0 {
		c.Snapshot.DetailDelay = DefaultDetailDelay
	}
	if c.Snapshot.BrowserOutput == "" {
		c.Snapshot.BrowserOutput = DefaultBrowserOutput
	}
	if c.Snapshot.APIOutput == "" {
		c.Snapshot.APIOutput = DefaultAPIOutput
	}

	// Browser defaults
	if c.Browser.ExecPath == "" {
		c.Browser.ExecPath = DefaultChromePath
	}
	if c.Browser.PageURL == "" {
		c.Browser.PageURL = DefaultPageURL
	}
	if c.Browser.ReadySelector == "" {
		c.Browser.ReadySelector = DefaultReadySelector
	}
	if c.Browser.TableSelector == "" {
		c.Browser.TableSelector = DefaultTableSelector
	}
	if c.Browser.ReadyTimeout == 0 {
		c.Browser.ReadyTimeout = DefaultReadyTimeout
	}
	if c.Browser.ScrollStep == 0 {
		c.Browser.ScrollStep = DefaultScrollStep
	}
	if c.Browser.ScrollTick == 0 {
		c.Browser.ScrollTick = DefaultScrollTick
	}
	if c.Browser.ScrollRepeats == 0 {
		c.Browser.ScrollRepeats = DefaultScrollRepeats
	}
	if c.Browser.UserAgent == "" {
		c.Browser.UserAgent = DefaultUserAgent
	}
	if c.Browser.WindowWidth == 0 {
		c.Browser.WindowWidth = DefaultWindowWidth
	}
	if c.Browser.WindowHeight == 0 {
		c.Browser.WindowHeight = DefaultWindowHeight
	}
}
