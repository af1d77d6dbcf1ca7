package collector

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/rickgao/coin-crawler/internal/browser"
	"github.com/rickgao/coin-crawler/internal/wait"
)

// Opener acquires a browser for one collection run.
type Opener func(ctx context.Context) (browser.Browser, error)

// BrowserConfig holds browser collector configuration.
type BrowserConfig struct {
	PageURL       string        // Listing URL; the page number goes in ?page=
	Pages         int           // Pages to collect (default: 5)
	PageDelay     time.Duration // Pause before each page load (default: 4s)
	ReadySelector string        // Element that marks a rendered page
	ReadyTimeout  time.Duration // Max wait for ReadySelector (default: 30s)
	TableSelector string        // Ranked table
	ScrollStep    int           // Pixels per scroll (default: 300)
	ScrollTick    time.Duration // Pause between scrolls (default: 1s)
	ScrollRepeats int           // Unchanged heights that end scrolling (default: 2)
}

// DefaultBrowserConfig returns sensible defaults.
func DefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{
		PageURL:       "https://coinmarketcap.com/",
		Pages:         5,
		PageDelay:     4 * time.Second,
		ReadySelector: "span.table_footer-left",
		ReadyTimeout:  30 * time.Second,
		TableSelector: "table.cmc-table",
		ScrollStep:    300,
		ScrollTick:    time.Second,
		ScrollRepeats: 2,
	}
}

// BrowserCollector collects ranked entries from rendered listing pages.
type BrowserCollector struct {
	cfg      BrowserConfig
	open     Opener
	sink     Sink
	detector Detector
	logger   *slog.Logger
	sleep    wait.Func
}

// NewBrowserCollector creates a new BrowserCollector.
func NewBrowserCollector(cfg BrowserConfig, open Opener, sink Sink, logger *slog.Logger) *BrowserCollector {
	if logger == nil {
		logger = slog.Default()
	}
	return &BrowserCollector{
		cfg:      cfg,
		open:     open,
		sink:     sink,
		detector: Detector{Threshold: cfg.ScrollRepeats},
		logger:   logger,
		sleep:    wait.Sleep,
	}
}

// Run collects every configured page. The browser is released on all paths.
func (c *BrowserCollector) Run(ctx context.Context) error {
	c.logger.Info("Fetching CoinMarketCap data (browser)..")

	if err := c.sink.Reset(); err != nil {
		return err
	}

	b, err := c.open(ctx)
	if err != nil {
		return fmt.Errorf("open browser: %w", err)
	}
	defer func() {
		if cerr := b.Close(); cerr != nil {
			c.logger.Warn("browser close failed", "error", cerr)
		}
	}()

	total := 0
	for page := 1; page <= c.cfg.Pages; page++ {
		n, err := c.collectPage(ctx, b, page)
		if err != nil {
			return fmt.Errorf("page %d: %w", page, err)
		}
		total += n
	}

	c.logger.Info("browser snapshot complete", "pages", c.cfg.Pages, "rows", total)
	return nil
}

func (c *BrowserCollector) collectPage(ctx context.Context, b browser.Browser, page int) (int, error) {
	c.logger.Info(fmt.Sprintf("Processing page %d", page))

	if err := c.sleep(ctx, c.cfg.PageDelay); err != nil {
		return 0, err
	}

	pageURL, err := PageURL(c.cfg.PageURL, page)
	if err != nil {
		return 0, err
	}
	if err := b.Navigate(ctx, pageURL); err != nil {
		return 0, err
	}
	if err := b.WaitVisible(ctx, c.cfg.ReadySelector, c.cfg.ReadyTimeout); err != nil {
		return 0, err
	}
	if err := c.scrollToBottom(ctx, b); err != nil {
		return 0, err
	}

	c.logger.Info("Generating rows list..")

	table, err := b.ExtractTable(ctx, c.cfg.TableSelector)
	if err != nil {
		return 0, err
	}

	records := table.Records()
	for _, rec := range records {
		entry, err := NormalizeTableRow(rec)
		if err != nil {
			return 0, err
		}
		if err := c.sink.Append(entry); err != nil {
			return 0, err
		}
	}
	return len(records), nil
}

// scrollToBottom scrolls until the document height stops changing.
func (c *BrowserCollector) scrollToBottom(ctx context.Context, b browser.Browser) error {
	previous, repeats := 0, 0
	for steps := 1; ; steps++ {
		if err := b.ScrollBy(ctx, c.cfg.ScrollStep); err != nil {
			return err
		}
		height, err := b.ScrollHeight(ctx)
		if err != nil {
			return err
		}
		if err := c.sleep(ctx, c.cfg.ScrollTick); err != nil {
			return err
		}

		var done bool
		done, previous, repeats = c.detector.HasReachedBottom(height, previous, repeats)
		if done {
			c.logger.Debug("reached bottom", "height", height, "steps", steps)
			return nil
		}
	}
}

// PageURL returns base with the page query parameter set.
func PageURL(base string, page int) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse page url: %w", err)
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
