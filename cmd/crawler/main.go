package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/coin-crawler/internal/api"
	"github.com/rickgao/coin-crawler/internal/browser"
	"github.com/rickgao/coin-crawler/internal/collector"
	"github.com/rickgao/coin-crawler/internal/config"
	"github.com/rickgao/coin-crawler/internal/logging"
	"github.com/rickgao/coin-crawler/internal/pulse"
	"github.com/rickgao/coin-crawler/internal/version"
	"github.com/rickgao/coin-crawler/internal/writer"
)

// phase is one sequential stage of a crawler run.
type phase struct {
	id   string
	name string
	run  func(ctx context.Context, logger *slog.Logger) error
}

func main() {
	configPath := flag.String("config", "", "path to config file (empty = built-in defaults)")
	envPath := flag.String("env", ".env", "optional dotenv file loaded before the config")
	only := flag.String("phases", "1,2.1,2.2", "comma-separated phases to run")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	if err := config.LoadEnvFile(*envPath); err != nil {
		fmt.Fprintf(os.Stderr, "load env file: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger, logFile := logging.New(cfg.Logging)
	slog.SetDefault(logger)

	logger.Info("starting crawler", append(version.Attrs(), "config", *configPath)...)

	selected := make(map[string]bool)
	for _, id := range strings.Split(*only, ",") {
		selected[strings.TrimSpace(id)] = true
	}

	for _, ph := range phases(cfg) {
		if !selected[ph.id] {
			logger.Debug("phase skipped", "phase", ph.id)
			continue
		}
		if err := runPhase(ph, logger); err != nil {
			logger.Error("unanticipated error, exiting", "phase", ph.id, "error", err)
			logFile.Close()
			os.Exit(1)
		}
	}

	logger.Info("crawler finished")
	logFile.Close()
}

// runPhase runs ph under its own interrupt scope. Interrupts and upstream
// API errors end the phase and return nil; anything else is returned.
func runPhase(ph phase, logger *slog.Logger) (err error) {
	plog := logger.With("phase", ph.id, "run", uuid.NewString())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	defer func() {
		if r := recover(); r != nil {
			plog.Error("panic", "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("phase %s panicked: %v", ph.id, r)
		}
	}()

	start := time.Now()
	plog.Info("phase started", "name", ph.name)

	err = ph.run(ctx, plog)
	return classify(ctx, ph, plog, err, time.Since(start))
}

func classify(ctx context.Context, ph phase, logger *slog.Logger, err error, elapsed time.Duration) error {
	switch {
	case err == nil:
		logger.Info("phase finished", "name", ph.name, "elapsed", elapsed)
		return nil
	case errors.Is(err, context.Canceled) || ctx.Err() != nil:
		logger.Warn("phase interrupted", "name", ph.name, "error", err)
		fmt.Printf("Shutting down (Phase %s)..\n", ph.id)
		return nil
	case api.StatusOf(err) != 0:
		logger.Error("phase stopped by upstream error",
			"name", ph.name,
			"status", api.StatusOf(err),
			"error", err,
		)
		return nil
	default:
		return err
	}
}

func phases(cfg *config.Config) []phase {
	return []phase{
		{id: "1", name: "price pulse", run: func(ctx context.Context, logger *slog.Logger) error {
			return runPulse(ctx, cfg, logger)
		}},
		{id: "2.1", name: "browser snapshot", run: func(ctx context.Context, logger *slog.Logger) error {
			return runBrowserSnapshot(ctx, cfg, logger)
		}},
		{id: "2.2", name: "api snapshot", run: func(ctx context.Context, logger *slog.Logger) error {
			return runAPISnapshot(ctx, cfg, logger)
		}},
	}
}

func runPulse(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	client := api.NewClient(
		cfg.API.OracleURL,
		api.WithHeaders(api.OracleHeaders),
		api.WithTimeout(cfg.API.Timeout),
		api.WithRetries(cfg.API.MaxRetries, time.Second),
		api.WithLogger(logger),
	)

	mon := pulse.New(pulse.Config{
		Asset:        cfg.Pulse.Asset,
		Currency:     cfg.Pulse.Currency,
		Symbol:       cfg.Pulse.Symbol,
		Interval:     cfg.Pulse.Interval,
		Window:       cfg.Pulse.Window,
		MaxDoublings: cfg.Pulse.MaxDoublings,
		AlertAfter:   cfg.Pulse.AlertAfter,
		MaxCycles:    cfg.Pulse.MaxCycles,
	}, client, os.Stdout, logger)

	return mon.Run(ctx)
}

func runBrowserSnapshot(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	launch := browser.DefaultLaunchConfig()
	launch.ExecPath = cfg.Browser.ExecPath
	launch.DevToolsURL = cfg.Browser.DevToolsURL
	launch.UserAgent = cfg.Browser.UserAgent
	launch.WindowWidth = cfg.Browser.WindowWidth
	launch.WindowHeight = cfg.Browser.WindowHeight

	open := func(ctx context.Context) (browser.Browser, error) {
		return browser.Launch(ctx, launch, logger)
	}

	c := collector.NewBrowserCollector(collector.BrowserConfig{
		PageURL:       cfg.Browser.PageURL,
		Pages:         cfg.Snapshot.Pages,
		PageDelay:     cfg.Snapshot.PageDelay,
		ReadySelector: cfg.Browser.ReadySelector,
		ReadyTimeout:  cfg.Browser.ReadyTimeout,
		TableSelector: cfg.Browser.TableSelector,
		ScrollStep:    cfg.Browser.ScrollStep,
		ScrollTick:    cfg.Browser.ScrollTick,
		ScrollRepeats: cfg.Browser.ScrollRepeats,
	}, open, writer.NewCSVWriter(cfg.Snapshot.BrowserOutput, logger), logger)

	return c.Run(ctx)
}

func runAPISnapshot(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	common := []api.ClientOption{
		api.WithTimeout(cfg.API.Timeout),
		api.WithRetries(cfg.API.MaxRetries, time.Second),
		api.WithLogger(logger),
	}
	listing := api.NewClient(cfg.API.ListingURL, append(common, api.WithHeaders(api.ListingHeaders))...)
	details := api.NewClient(cfg.API.DetailURL, append(common, api.WithHeaders(api.DetailHeaders))...)

	c := collector.NewAPICollector(collector.APIConfig{
		Limit:       cfg.Snapshot.EntryLimit(),
		DetailDelay: cfg.Snapshot.DetailDelay,
	}, listing, details, writer.NewCSVWriter(cfg.Snapshot.APIOutput, logger), logger)

	return c.Run(ctx)
}
