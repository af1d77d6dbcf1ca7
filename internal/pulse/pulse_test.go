package pulse

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickgao/coin-crawler/internal/api"
	"github.com/rickgao/coin-crawler/internal/logging"
	"github.com/rickgao/coin-crawler/internal/model"
)

func point(ts int64, value string) model.PricePoint {
	return model.NewPricePoint(ts, decimal.RequireFromString(value))
}

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"67234.5", "67,234.50"},
		{"67234.567", "67,234.567"},
		{"0.1", "0.10"},
		{"42", "42.00"},
		{"1234567.25", "1,234,567.25"},
		{"999.99", "999.99"},
		{"-1234.5", "-1,234.50"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatPrice(decimal.RequireFromString(tt.in)))
		})
	}

	assert.Equal(t, "67,234.50", FormatFloat(67234.5))
}

func TestTracker_WindowBound(t *testing.T) {
	tr := NewTracker(3)

	for i := 1; i <= 7; i++ {
		tr.Observe(point(int64(i), fmt.Sprintf("%d", i*10)))
		assert.LessOrEqual(t, tr.Len(), 3)
	}

	assert.Equal(t, 3, tr.Len())
	assert.Equal(t, []string{"50", "60", "70"}, strs(tr.Values()))
}

func TestTracker_MeanOfMostRecent(t *testing.T) {
	tr := NewTracker(3)

	tr.Observe(point(1, "1000"))
	tr.Observe(point(2, "10"))
	tr.Observe(point(3, "20"))
	obs := tr.Observe(point(4, "31"))

	require.True(t, obs.HasAverage)
	assert.Equal(t, "20.33", obs.Average.StringFixed(2))
}

func TestTracker_UnchangedTimestamp(t *testing.T) {
	tr := NewTracker(10)

	first := tr.Observe(point(100, "5"))
	require.True(t, first.Changed)

	again := tr.Observe(point(100, "6"))
	assert.False(t, again.Changed)
	assert.Equal(t, 1, tr.Len())
	assert.Equal(t, []string{"5"}, strs(tr.Values()))
}

func TestTracker_NeededCountdown(t *testing.T) {
	tr := NewTracker(10)

	for i := 0; i < 9; i++ {
		obs := tr.Observe(point(int64(i), "100"))
		assert.False(t, obs.HasAverage)
		assert.Equal(t, 9-i, obs.Needed)
	}

	obs := tr.Observe(point(9, "100"))
	assert.True(t, obs.HasAverage)
	assert.Equal(t, 0, obs.Needed)
}

func TestObservation_Line(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC).Unix()

	tr := NewTracker(2)
	obs := tr.Observe(point(ts, "67234.5"))
	assert.Equal(t,
		"[2024-05-01T12:00:00] BTC → USD: $67,234.50; SMA(2): not enough values (need 1 more)",
		obs.Line("BTC", "USD"))

	obs = tr.Observe(point(ts+30, "67000"))
	assert.Equal(t,
		"[2024-05-01T12:00:30] BTC → USD: $67,000.00; SMA(2): $67,117.25",
		obs.Line("BTC", "USD"))
}

func TestBackoff_Next(t *testing.T) {
	base := 30 * time.Second
	b := Backoff{Base: base, MaxDoublings: 3, AlertAfter: 5}

	t.Run("503 streak", func(t *testing.T) {
		interval, failures := base, 0
		want := []time.Duration{2 * base, 4 * base, 8 * base, 8 * base, 8 * base, 8 * base}
		alerts := 0

		for i, w := range want {
			step, err := b.Next(http.StatusServiceUnavailable, interval, failures)
			require.NoError(t, err)
			assert.Equal(t, w, step.Interval, "failure %d", i+1)
			assert.Equal(t, i+1, step.Failures)
			if step.Alert {
				alerts++
				assert.Equal(t, 5, step.Failures)
			}
			interval, failures = step.Interval, step.Failures
		}
		assert.Equal(t, 1, alerts)
	})

	t.Run("500 is transient", func(t *testing.T) {
		step, err := b.Next(http.StatusInternalServerError, base, 0)
		require.NoError(t, err)
		assert.Equal(t, 2*base, step.Interval)
	})

	t.Run("2xx resets", func(t *testing.T) {
		step, err := b.Next(http.StatusOK, 8*base, 4)
		require.NoError(t, err)
		assert.Equal(t, Step{Interval: base}, step)
	})

	t.Run("other status is fatal", func(t *testing.T) {
		for _, status := range []int{http.StatusBadRequest, http.StatusNotFound, http.StatusTooManyRequests, http.StatusBadGateway} {
			step, err := b.Next(status, 2*base, 1)
			assert.ErrorIs(t, err, ErrFatalStatus, "status %d", status)
			assert.Equal(t, Step{Interval: 2 * base, Failures: 1}, step)
		}
	})
}

// scriptedSource replays a fixed list of responses.
type scriptedSource struct {
	results []result
	calls   int
}

type result struct {
	point model.PricePoint
	err   error
}

func (s *scriptedSource) GetSimplePrice(ctx context.Context, asset, currency string) (model.PricePoint, error) {
	if s.calls >= len(s.results) {
		return model.PricePoint{}, errors.New("script exhausted")
	}
	r := s.results[s.calls]
	s.calls++
	return r.point, r.err
}

func statusErr(code int) error {
	return fmt.Errorf("get simple price bitcoin: %w", &api.APIError{
		StatusCode: code,
		Message:    http.StatusText(code),
		Body:       []byte("coin not found\n"),
	})
}

type sleepRecorder struct {
	slept []time.Duration
}

func (r *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	r.slept = append(r.slept, d)
	return ctx.Err()
}

func newTestMonitor(cfg Config, src PriceSource) (*Monitor, *bytes.Buffer, *bytes.Buffer, *sleepRecorder) {
	var out, logs bytes.Buffer
	logger := slog.New(logging.NewHandler(&logs, slog.LevelDebug))
	m := New(cfg, src, &out, logger)
	rec := &sleepRecorder{}
	m.sleep = rec.sleep
	return m, &out, &logs, rec
}

func TestMonitor_Run_Countdown(t *testing.T) {
	var results []result
	for i := 0; i < 10; i++ {
		results = append(results, result{point: point(int64(1714564800+i*30), fmt.Sprintf("%d", 100+i))})
	}

	cfg := DefaultConfig()
	cfg.MaxCycles = 10
	m, out, _, rec := newTestMonitor(cfg, &scriptedSource{results: results})

	require.NoError(t, m.Run(context.Background()))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 10)
	for i := 0; i < 9; i++ {
		assert.Contains(t, lines[i], fmt.Sprintf("need %d more", 9-i))
	}
	assert.True(t, strings.HasSuffix(lines[9], "SMA(10): $104.50"), lines[9])
	assert.Len(t, rec.slept, 9)
}

func TestMonitor_Run_UnchangedTimestamp(t *testing.T) {
	src := &scriptedSource{results: []result{
		{point: point(100, "1")},
		{point: point(100, "1")},
		{point: point(130, "2")},
	}}

	cfg := DefaultConfig()
	cfg.MaxCycles = 3
	m, out, logs, _ := newTestMonitor(cfg, src)

	require.NoError(t, m.Run(context.Background()))

	assert.Equal(t, 2, strings.Count(out.String(), "\n"))
	assert.Contains(t, logs.String(), "No changes detected")
}

func TestMonitor_Run_ServerErrors(t *testing.T) {
	var results []result
	for i := 0; i < 6; i++ {
		results = append(results, result{err: statusErr(http.StatusServiceUnavailable)})
	}
	results = append(results, result{point: point(100, "1")})

	cfg := DefaultConfig()
	cfg.MaxCycles = 8
	cfg.Interval = time.Second
	src := &scriptedSource{results: append(results, result{point: point(130, "1")})}
	m, _, logs, rec := newTestMonitor(cfg, src)

	require.NoError(t, m.Run(context.Background()))

	s := time.Second
	assert.Equal(t, []time.Duration{2 * s, 4 * s, 8 * s, 8 * s, 8 * s, 8 * s, s}, rec.slept)
	assert.Equal(t, 1, strings.Count(logs.String(), "(!) 5 failures in a row, will continue"))
}

func TestMonitor_Run_FatalStatus(t *testing.T) {
	src := &scriptedSource{results: []result{
		{point: point(100, "1")},
		{err: statusErr(http.StatusNotFound)},
	}}

	m, _, logs, rec := newTestMonitor(DefaultConfig(), src)

	err := m.Run(context.Background())

	var apiErr *api.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Len(t, rec.slept, 1)
	assert.Contains(t, logs.String(), `Error [code 404]`)
	assert.Contains(t, logs.String(), `body="coin not found"`)
}

func TestMonitor_Run_TransportError(t *testing.T) {
	src := &scriptedSource{results: []result{
		{err: errors.New("dial tcp: connection refused")},
	}}

	m, _, _, _ := newTestMonitor(DefaultConfig(), src)

	err := m.Run(context.Background())
	require.Error(t, err)
	assert.Zero(t, api.StatusOf(err))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestMonitor_Run_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	src := &scriptedSource{results: []result{{point: point(100, "1")}}}
	m, _, _, _ := newTestMonitor(DefaultConfig(), src)
	m.sleep = func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}

	err := m.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMonitor_Cycle_CancelledDuringRequest(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &scriptedSource{results: []result{{err: fmt.Errorf("do request: %w", context.Canceled)}}}
	m, _, _, _ := newTestMonitor(DefaultConfig(), src)

	err := m.Cycle(ctx, NewState(DefaultConfig()))
	assert.ErrorIs(t, err, context.Canceled)
}

func strs(ds []decimal.Decimal) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.String()
	}
	return out
}
