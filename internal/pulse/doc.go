// Package pulse implements the Price Pulse monitor.
//
// The Price Pulse:
//   - Polls the price oracle on a fixed base interval
//   - Ignores polls whose oracle timestamp did not move
//   - Keeps the last N prices and prints their simple moving average
//   - Doubles the interval on 500/503 (at most MaxDoublings times) and keeps going
//   - Stops on any other non-2xx status, on cancellation, or after MaxCycles
package pulse
