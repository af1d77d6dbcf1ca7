package collector

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"github.com/rickgao/coin-crawler/internal/api"
	"github.com/rickgao/coin-crawler/internal/wait"
)

// ListingSource provides the full coin listing.
type ListingSource interface {
	GetListing(ctx context.Context) (*api.ListingResponse, error)
}

// DetailSource provides market statistics per coin id.
type DetailSource interface {
	GetDetail(ctx context.Context, id string) (*api.Statistics, error)
}

// APIConfig holds API collector configuration.
type APIConfig struct {
	Limit       int           // Entries kept from the head of the listing (default: 100)
	DetailDelay time.Duration // Pause before each detail request (default: 4s)
}

// DefaultAPIConfig returns sensible defaults.
func DefaultAPIConfig() APIConfig {
	return APIConfig{
		Limit:       100,
		DetailDelay: 4 * time.Second,
	}
}

// APICollector collects ranked entries from the listing and detail APIs.
type APICollector struct {
	cfg     APIConfig
	listing ListingSource
	details DetailSource
	sink    Sink
	logger  *slog.Logger
	sleep   wait.Func
}

// NewAPICollector creates a new APICollector.
func NewAPICollector(cfg APIConfig, listing ListingSource, details DetailSource, sink Sink, logger *slog.Logger) *APICollector {
	if logger == nil {
		logger = slog.Default()
	}
	return &APICollector{
		cfg:     cfg,
		listing: listing,
		details: details,
		sink:    sink,
		logger:  logger,
		sleep:   wait.Sleep,
	}
}

// Run fetches the listing head and writes one entry per coin.
func (c *APICollector) Run(ctx context.Context) error {
	c.logger.Info("Fetching CoinMarketCap data (API)..")

	if err := c.sink.Reset(); err != nil {
		return err
	}

	listing, err := c.listing.GetListing(ctx)
	if err != nil {
		logAPIError(c.logger, err)
		return err
	}

	rows := listing.Rows(c.cfg.Limit)
	for i, row := range rows {
		if err := c.sleep(ctx, c.cfg.DetailDelay); err != nil {
			return err
		}

		c.logger.Info(fmt.Sprintf("Fetching details for %q (%d/%d)..", row[KeyName], i+1, len(rows)))

		id, ok := row[KeyID]
		if !ok || id == "" {
			return &MissingFieldError{Source: "listing", Field: KeyID}
		}

		stats, err := c.details.GetDetail(ctx, id)
		if err != nil {
			logAPIError(c.logger, err)
			return err
		}

		merged := maps.Clone(row)
		maps.Copy(merged, stats.Fields())

		entry, err := NormalizeListingRow(i, merged)
		if err != nil {
			return fmt.Errorf("listing entry %d (id %s): %w", i+1, id, err)
		}
		if err := c.sink.Append(entry); err != nil {
			return err
		}
	}

	c.logger.Info("api snapshot complete", "rows", len(rows))
	return nil
}
