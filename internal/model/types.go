package model

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// -----------------------------------------------------------------------------
// Pulse Types
// -----------------------------------------------------------------------------

// TimestampLayout is the UTC layout used when printing oracle timestamps.
const TimestampLayout = "2006-01-02T15:04:05"

// PricePoint is a single oracle observation.
type PricePoint struct {
	Timestamp time.Time       // Oracle last-updated time (UTC, second precision)
	Value     decimal.Decimal // Quoted price
}

// NewPricePoint builds a PricePoint from a unix-seconds timestamp.
func NewPricePoint(unixSeconds int64, value decimal.Decimal) PricePoint {
	return PricePoint{
		Timestamp: time.Unix(unixSeconds, 0).UTC(),
		Value:     value,
	}
}

// Stamp returns the timestamp rendered with TimestampLayout.
func (p PricePoint) Stamp() string {
	return p.Timestamp.Format(TimestampLayout)
}

// PollState is the scheduling half of the pulse loop state. The last seen
// oracle timestamp lives with the sliding window that compares against it.
type PollState struct {
	Interval time.Duration // Wait before the next poll
	Failures int           // Consecutive transient server errors
}

// -----------------------------------------------------------------------------
// Snapshot Types
// -----------------------------------------------------------------------------

// RankedEntry is one row of a ranked market snapshot.
type RankedEntry struct {
	Rank         int    // 1-based rank
	NameSymbol   string // "Bitcoin BTC"
	PriceUSD     string // Price as rendered by the source
	PctChange24h string // 24h percentage change as rendered by the source
	MarketCapUSD string // Market capitalization as rendered by the source
}

// SnapshotHeader is the CSV header for RankedEntry rows.
var SnapshotHeader = []string{
	"Rank",
	"Name & Symbol",
	"Price (USD)",
	"24 h % Change",
	"Market Cap (USD)",
}

// Record returns the entry as a CSV record matching SnapshotHeader.
func (e RankedEntry) Record() []string {
	return []string{
		strconv.Itoa(e.Rank),
		e.NameSymbol,
		e.PriceUSD,
		e.PctChange24h,
		e.MarketCapUSD,
	}
}
