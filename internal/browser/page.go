package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// hideWebdriver runs before any page script on every new document.
const hideWebdriver = `Object.defineProperty(navigator, 'webdriver', {get: () => undefined});`

// extractTableJS takes the selector as a JSON string literal.
const extractTableJS = `(() => {
  const table = document.querySelector(%s);
  if (!table) return null;
  const text = (el) => el.innerText;
  return {
    headers: Array.from(table.querySelectorAll('thead > tr > th'), text),
    rows: Array.from(table.querySelectorAll('tbody > tr'), (tr) => Array.from(tr.querySelectorAll('td'), text)),
  };
})()`

// PageConfig configures a Page.
type PageConfig struct {
	PollInterval    time.Duration // Spacing of readiness checks
	NavigateTimeout time.Duration // Max wait for document.readyState after Page.navigate
	UserAgent       string        // Overrides the navigator user agent when set
}

// DefaultPageConfig returns sensible defaults.
func DefaultPageConfig() PageConfig {
	return PageConfig{
		PollInterval:    250 * time.Millisecond,
		NavigateTimeout: 30 * time.Second,
	}
}

// Page implements Browser over a DevTools session.
type Page struct {
	cfg     PageConfig
	session *Session
	logger  *slog.Logger

	onClose func() error // releases a launched process
}

// NewPage wraps session. Call Prepare before the first navigation.
func NewPage(session *Session, cfg PageConfig, logger *slog.Logger) *Page {
	if logger == nil {
		logger = slog.Default()
	}
	return &Page{
		cfg:     cfg,
		session: session,
		logger:  logger,
	}
}

// Prepare enables the Page domain, hides navigator.webdriver and applies the
// user agent override.
func (p *Page) Prepare(ctx context.Context) error {
	if err := p.session.Call(ctx, "Page.enable", nil, nil); err != nil {
		return err
	}

	params := map[string]any{"source": hideWebdriver}
	if err := p.session.Call(ctx, "Page.addScriptToEvaluateOnNewDocument", params, nil); err != nil {
		return err
	}

	if p.cfg.UserAgent != "" {
		params := map[string]any{"userAgent": p.cfg.UserAgent}
		if err := p.session.Call(ctx, "Network.setUserAgentOverride", params, nil); err != nil {
			return err
		}
	}
	return nil
}

// Navigate loads url and waits until the document has left the loading state.
func (p *Page) Navigate(ctx context.Context, url string) error {
	var res navigateResult
	if err := p.session.Call(ctx, "Page.navigate", map[string]any{"url": url}, &res); err != nil {
		return err
	}
	if res.ErrorText != "" {
		return fmt.Errorf("navigate %s: %s", url, res.ErrorText)
	}

	err := p.poll(ctx, p.cfg.NavigateTimeout, `document.readyState !== "loading"`)
	if err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	p.logger.Debug("page loaded", "url", url)
	return nil
}

// WaitVisible implements Browser.
func (p *Page) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	expr := fmt.Sprintf("document.querySelector(%s) !== null", quoteJS(selector))
	if err := p.poll(ctx, timeout, expr); err != nil {
		return fmt.Errorf("wait for %s: %w", selector, err)
	}
	return nil
}

// ScrollBy implements Browser.
func (p *Page) ScrollBy(ctx context.Context, dy int) error {
	return p.Evaluate(ctx, fmt.Sprintf("window.scrollBy(0, %d)", dy), nil)
}

// ScrollHeight implements Browser.
func (p *Page) ScrollHeight(ctx context.Context) (int, error) {
	var h int
	if err := p.Evaluate(ctx, "document.body.scrollHeight", &h); err != nil {
		return 0, err
	}
	return h, nil
}

// ExtractTable implements Browser.
func (p *Page) ExtractTable(ctx context.Context, selector string) (*Table, error) {
	var table *Table
	if err := p.Evaluate(ctx, fmt.Sprintf(extractTableJS, quoteJS(selector)), &table); err != nil {
		return nil, err
	}
	if table == nil {
		return nil, fmt.Errorf("table %s: %w", selector, ErrNotFound)
	}
	return table, nil
}

// Evaluate runs expression in the page and decodes its JSON value into out.
// A thrown exception is returned as an error.
func (p *Page) Evaluate(ctx context.Context, expression string, out any) error {
	params := map[string]any{
		"expression":    expression,
		"returnByValue": true,
		"awaitPromise":  true,
	}

	var res evaluateResult
	if err := p.session.Call(ctx, "Runtime.evaluate", params, &res); err != nil {
		return err
	}

	if ex := res.ExceptionDetails; ex != nil {
		msg := ex.Text
		if ex.Exception != nil && ex.Exception.Description != "" {
			msg = ex.Exception.Description
		}
		return fmt.Errorf("evaluate: %s", msg)
	}

	if out == nil || len(res.Result.Value) == 0 {
		return nil
	}
	if err := json.Unmarshal(res.Result.Value, out); err != nil {
		return fmt.Errorf("decode evaluate value: %w", err)
	}
	return nil
}

// Close implements Browser.
func (p *Page) Close() error {
	err := p.session.Close()
	if p.onClose != nil {
		err = errors.Join(err, p.onClose())
	}
	return err
}

// poll evaluates a boolean expression until it is true. It returns
// ErrTimeout once timeout elapses and ctx.Err() on cancellation.
func (p *Page) poll(ctx context.Context, timeout time.Duration, expr string) error {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	interval := p.cfg.PollInterval
	if interval <= 0 {
		interval = DefaultPageConfig().PollInterval
	}
	tick := time.NewTicker(interval)
	defer tick.Stop()

	for {
		var ok bool
		if err := p.Evaluate(ctx, expr, &ok); err != nil {
			return err
		}
		if ok {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return ErrTimeout
		case <-tick.C:
		}
	}
}

func quoteJS(s string) string {
	data, _ := json.Marshal(s)
	return string(data)
}
