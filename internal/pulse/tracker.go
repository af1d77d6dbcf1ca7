package pulse

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rickgao/coin-crawler/internal/model"
)

// Tracker keeps the most recent prices in a bounded window and reports their
// simple moving average once the window is full.
type Tracker struct {
	size   int
	values []decimal.Decimal
	last   time.Time
	seen   bool
}

// NewTracker creates a Tracker holding at most size values. Sizes below 1 are
// treated as 1.
func NewTracker(size int) *Tracker {
	if size < 1 {
		size = 1
	}
	return &Tracker{
		size:   size,
		values: make([]decimal.Decimal, 0, size),
	}
}

// Observation is the result of feeding one PricePoint into a Tracker.
type Observation struct {
	Point      model.PricePoint
	Changed    bool            // false when the timestamp matched the previous one
	Average    decimal.Decimal // mean of the window, rounded to 2 places
	HasAverage bool
	Needed     int // values still missing before an average is available
	Window     int
}

// Observe records p unless its timestamp equals the last recorded one.
func (t *Tracker) Observe(p model.PricePoint) Observation {
	obs := Observation{Point: p, Window: t.size}

	if t.seen && p.Timestamp.Equal(t.last) {
		obs.Needed = t.size - len(t.values)
		return obs
	}

	t.last = p.Timestamp
	t.seen = true
	obs.Changed = true

	if len(t.values) == t.size {
		copy(t.values, t.values[1:])
		t.values = t.values[:t.size-1]
	}
	t.values = append(t.values, p.Value)

	if len(t.values) < t.size {
		obs.Needed = t.size - len(t.values)
		return obs
	}

	sum := decimal.Zero
	for _, v := range t.values {
		sum = sum.Add(v)
	}
	obs.Average = sum.Div(decimal.NewFromInt(int64(t.size))).Round(2)
	obs.HasAverage = true
	return obs
}

// Len returns the number of values currently in the window.
func (t *Tracker) Len() int { return len(t.values) }

// Size returns the window capacity.
func (t *Tracker) Size() int { return t.size }

// Values returns a copy of the window, oldest first.
func (t *Tracker) Values() []decimal.Decimal {
	out := make([]decimal.Decimal, len(t.values))
	copy(out, t.values)
	return out
}

// Line renders the observation as a console line:
//
//	[2024-05-01T12:00:00] BTC → USD: $67,234.50; SMA(10): $67,100.12
func (o Observation) Line(symbol, currency string) string {
	var sma string
	if o.HasAverage {
		sma = "$" + FormatPrice(o.Average)
	} else {
		sma = fmt.Sprintf("not enough values (need %d more)", o.Needed)
	}
	return fmt.Sprintf("[%s] %s → %s: $%s; SMA(%d): %s",
		o.Point.Stamp(), symbol, currency, FormatPrice(o.Point.Value), o.Window, sma)
}
