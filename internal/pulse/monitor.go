package pulse

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/rickgao/coin-crawler/internal/api"
	"github.com/rickgao/coin-crawler/internal/model"
	"github.com/rickgao/coin-crawler/internal/wait"
)

// PriceSource provides the latest oracle quote.
type PriceSource interface {
	GetSimplePrice(ctx context.Context, asset, currency string) (model.PricePoint, error)
}

// Config holds monitor configuration.
type Config struct {
	Asset        string        // Oracle asset id (default: bitcoin)
	Currency     string        // Quote currency (default: usd)
	Symbol       string        // Display symbol (default: BTC)
	Interval     time.Duration // Base poll interval (default: 30s)
	Window       int           // SMA window size (default: 10)
	MaxDoublings int           // Interval doublings per failure streak (default: 3)
	AlertAfter   int           // Failure count that raises an alert (default: 5)
	MaxCycles    int           // Polls before Run returns; 0 = unbounded
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Asset:        "bitcoin",
		Currency:     "usd",
		Symbol:       "BTC",
		Interval:     30 * time.Second,
		Window:       10,
		MaxDoublings: 3,
		AlertAfter:   5,
	}
}

// State is everything the monitor carries between polls.
type State struct {
	Poll    model.PollState
	Tracker *Tracker
}

// NewState returns the initial state for cfg.
func NewState(cfg Config) *State {
	return &State{
		Poll:    model.PollState{Interval: cfg.Interval},
		Tracker: NewTracker(cfg.Window),
	}
}

// Monitor polls the price oracle and prints a moving average of the quote.
type Monitor struct {
	cfg     Config
	source  PriceSource
	backoff Backoff
	out     io.Writer
	logger  *slog.Logger
	sleep   wait.Func
}

// New creates a new Monitor writing console lines to out.
func New(cfg Config, source PriceSource, out io.Writer, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	if out == nil {
		out = io.Discard
	}
	return &Monitor{
		cfg:    cfg,
		source: source,
		backoff: Backoff{
			Base:         cfg.Interval,
			MaxDoublings: cfg.MaxDoublings,
			AlertAfter:   cfg.AlertAfter,
		},
		out:    out,
		logger: logger,
		sleep:  wait.Sleep,
	}
}

// Run polls until ctx is done, a fatal status is returned, or MaxCycles
// polls have completed. Cancellation is reported as ctx.Err().
func (m *Monitor) Run(ctx context.Context) error {
	st := NewState(m.cfg)

	m.logger.Info("price pulse started",
		"asset", m.cfg.Asset,
		"currency", m.cfg.Currency,
		"interval", m.cfg.Interval,
		"window", m.cfg.Window,
	)

	for cycle := 1; ; cycle++ {
		if err := m.Cycle(ctx, st); err != nil {
			return err
		}
		if m.cfg.MaxCycles > 0 && cycle >= m.cfg.MaxCycles {
			m.logger.Info("price pulse finished", "cycles", cycle)
			return nil
		}

		m.logger.Info(fmt.Sprintf("Waiting for %d seconds..", int(st.Poll.Interval.Seconds())))
		if err := m.sleep(ctx, st.Poll.Interval); err != nil {
			return err
		}
	}
}

// Cycle performs one poll and updates st.
func (m *Monitor) Cycle(ctx context.Context, st *State) error {
	m.logger.Info("Pinging coingecko..")

	point, err := m.source.GetSimplePrice(ctx, m.cfg.Asset, m.cfg.Currency)
	status := http.StatusOK
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		status = api.StatusOf(err)
		if status == 0 {
			return fmt.Errorf("poll price oracle: %w", err)
		}
	}

	step, stepErr := m.backoff.Next(status, st.Poll.Interval, st.Poll.Failures)
	if errors.Is(stepErr, ErrFatalStatus) {
		var apiErr *api.APIError
		if errors.As(err, &apiErr) {
			m.logger.Error(fmt.Sprintf("Error [code %d]", apiErr.StatusCode),
				"body", strings.TrimSpace(string(apiErr.Body)),
			)
		}
		return err
	}
	st.Poll = model.PollState{Interval: step.Interval, Failures: step.Failures}

	if err != nil {
		m.logger.Warn("price oracle unavailable",
			"status", status,
			"failures", step.Failures,
			"next_interval", step.Interval,
		)
		if step.Alert {
			m.logger.Error(fmt.Sprintf("(!) %d failures in a row, will continue", step.Failures))
		}
		return nil
	}

	obs := st.Tracker.Observe(point)
	if !obs.Changed {
		m.logger.Info("No changes detected")
		return nil
	}

	m.logger.Info("Price has been updated",
		"timestamp", point.Stamp(),
		"price", point.Value.String(),
	)
	fmt.Fprintln(m.out, obs.Line(m.cfg.Symbol, strings.ToUpper(m.cfg.Currency)))
	return nil
}
