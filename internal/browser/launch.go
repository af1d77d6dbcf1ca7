package browser

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// LaunchConfig configures how a Page is obtained.
type LaunchConfig struct {
	ExecPath     string        // Chrome binary (default: google-chrome)
	DevToolsURL  string        // http://host:port of a running Chrome; skips launching
	UserAgent    string        // navigator.userAgent override
	WindowWidth  int           // default: 1500
	WindowHeight int           // default: 700
	StartTimeout time.Duration // Max wait for the DevTools endpoint (default: 20s)
	Session      SessionConfig
	Page         PageConfig
}

// DefaultLaunchConfig returns sensible defaults.
func DefaultLaunchConfig() LaunchConfig {
	return LaunchConfig{
		ExecPath:     "google-chrome",
		WindowWidth:  1500,
		WindowHeight: 700,
		StartTimeout: 20 * time.Second,
		Session:      DefaultSessionConfig(),
		Page:         DefaultPageConfig(),
	}
}

var devToolsLine = regexp.MustCompile(`DevTools listening on (ws://\S+)`)

// Launch returns a prepared Page. With DevToolsURL set it attaches to that
// Chrome; otherwise it starts a headless Chrome with a throwaway profile that
// Page.Close terminates and removes.
func Launch(ctx context.Context, cfg LaunchConfig, logger *slog.Logger) (*Page, error) {
	if logger == nil {
		logger = slog.Default()
	}

	endpoint := strings.TrimRight(cfg.DevToolsURL, "/")
	var release func() error

	if endpoint == "" {
		proc, err := startChrome(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		endpoint = proc.endpoint
		release = proc.stop
	}

	page, err := attach(ctx, endpoint, cfg, logger)
	if err != nil {
		if release != nil {
			release()
		}
		return nil, err
	}
	page.onClose = release
	return page, nil
}

func attach(ctx context.Context, endpoint string, cfg LaunchConfig, logger *slog.Logger) (*Page, error) {
	wsURL, err := pageTarget(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	scfg := cfg.Session
	scfg.URL = wsURL
	session, err := Dial(ctx, scfg, logger)
	if err != nil {
		return nil, err
	}

	pcfg := cfg.Page
	pcfg.UserAgent = cfg.UserAgent
	page := NewPage(session, pcfg, logger)
	if err := page.Prepare(ctx); err != nil {
		session.Close()
		return nil, fmt.Errorf("prepare page: %w", err)
	}
	return page, nil
}

// pageTarget finds the websocket URL of a page target on the DevTools HTTP
// endpoint, opening a blank one if none exists.
func pageTarget(ctx context.Context, endpoint string) (string, error) {
	var targets []target
	if err := getJSON(ctx, http.MethodGet, endpoint+"/json/list", &targets); err != nil {
		return "", fmt.Errorf("list targets: %w", err)
	}
	for _, t := range targets {
		if t.Type == "page" && t.WebSocketDebuggerURL != "" {
			return t.WebSocketDebuggerURL, nil
		}
	}

	var created target
	if err := getJSON(ctx, http.MethodPut, endpoint+"/json/new?about:blank", &created); err != nil {
		return "", fmt.Errorf("open target: %w", err)
	}
	if created.WebSocketDebuggerURL == "" {
		return "", errors.New("open target: no websocket url")
	}
	return created.WebSocketDebuggerURL, nil
}

func getJSON(ctx context.Context, method, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", method, u, resp.StatusCode, body)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// chromeProcess is a launched Chrome and its profile directory.
type chromeProcess struct {
	cmd        *exec.Cmd
	profileDir string
	endpoint   string // http://127.0.0.1:port
	logger     *slog.Logger
}

// chromeArgs returns the command line for a hardened headless Chrome.
func chromeArgs(cfg LaunchConfig, profileDir string) []string {
	return []string{
		"--headless=new",
		"--no-sandbox",
		"--disable-blink-features=AutomationControlled",
		"--window-size=" + strconv.Itoa(cfg.WindowWidth) + "," + strconv.Itoa(cfg.WindowHeight),
		"--remote-debugging-port=0",
		"--user-data-dir=" + profileDir,
		"--no-first-run",
		"--no-default-browser-check",
		"about:blank",
	}
}

func startChrome(ctx context.Context, cfg LaunchConfig, logger *slog.Logger) (*chromeProcess, error) {
	profileDir, err := os.MkdirTemp("", "coin-crawler-chrome-*")
	if err != nil {
		return nil, fmt.Errorf("create profile dir: %w", err)
	}

	cmd := exec.Command(cfg.ExecPath, chromeArgs(cfg, profileDir)...)
	stderr, err := cmd.StderrPipe()
	if err != nil {
		os.RemoveAll(profileDir)
		return nil, fmt.Errorf("chrome stderr: %w", err)
	}
	if err := cmd.Start(); err != nil {
		os.RemoveAll(profileDir)
		return nil, fmt.Errorf("start chrome: %w", err)
	}

	proc := &chromeProcess{cmd: cmd, profileDir: profileDir, logger: logger}

	found := make(chan string, 1)
	go func() {
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			if ws, ok := parseDevToolsLine(scanner.Text()); ok {
				found <- ws
				break
			}
		}
		// Keep draining so Chrome never blocks on a full pipe.
		io.Copy(io.Discard, stderr)
	}()

	timeout := cfg.StartTimeout
	if timeout <= 0 {
		timeout = DefaultLaunchConfig().StartTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case ws := <-found:
		endpoint, err := httpEndpoint(ws)
		if err != nil {
			proc.stop()
			return nil, err
		}
		proc.endpoint = endpoint
		logger.Info("chrome started", "pid", cmd.Process.Pid, "devtools", endpoint)
		return proc, nil
	case <-timer.C:
		proc.stop()
		return nil, fmt.Errorf("start chrome: %w", ErrTimeout)
	case <-ctx.Done():
		proc.stop()
		return nil, ctx.Err()
	}
}

func (c *chromeProcess) stop() error {
	if c.cmd.Process != nil {
		c.cmd.Process.Kill()
		c.cmd.Wait()
	}
	if err := os.RemoveAll(c.profileDir); err != nil {
		return fmt.Errorf("remove profile dir: %w", err)
	}
	c.logger.Debug("chrome stopped", "profile", c.profileDir)
	return nil
}

// parseDevToolsLine extracts the browser websocket URL Chrome prints on
// startup.
func parseDevToolsLine(line string) (string, bool) {
	m := devToolsLine.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// httpEndpoint turns ws://host:port/devtools/browser/<id> into http://host:port.
func httpEndpoint(ws string) (string, error) {
	u, err := url.Parse(ws)
	if err != nil {
		return "", fmt.Errorf("parse devtools url: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("parse devtools url: no host in %q", ws)
	}
	return "http://" + u.Host, nil
}
