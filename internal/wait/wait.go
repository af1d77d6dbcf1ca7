// Package wait provides context-aware pauses.
package wait

import (
	"context"
	"time"
)

// Func pauses for d or until ctx is done. Components take a Func so tests can
// replace real sleeping.
type Func func(ctx context.Context, d time.Duration) error

// Sleep blocks for d or until ctx is done, returning ctx.Err() in the latter
// case. A non-positive d only checks ctx.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
