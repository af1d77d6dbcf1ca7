package pulse

import (
	"errors"
	"net/http"
	"time"
)

// ErrFatalStatus is returned by Backoff.Next for statuses that must stop
// the monitor.
var ErrFatalStatus = errors.New("fatal status")

// Backoff decides the next poll interval from the last response status.
type Backoff struct {
	Base         time.Duration // Interval after any 2xx
	MaxDoublings int           // Failures 1..MaxDoublings double the interval
	AlertAfter   int           // Failure count that raises an alert
}

// Step is one scheduling decision.
type Step struct {
	Interval time.Duration
	Failures int
	Alert    bool // the streak just reached AlertAfter
}

// Transient reports whether status is a server error the monitor rides out.
func Transient(status int) bool {
	return status == http.StatusInternalServerError || status == http.StatusServiceUnavailable
}

// Next returns the schedule following a response with the given status.
// Any status that is neither 2xx nor transient yields ErrFatalStatus and the
// unchanged interval and failure count.
func (b Backoff) Next(status int, interval time.Duration, failures int) (Step, error) {
	switch {
	case status >= 200 && status < 300:
		return Step{Interval: b.Base}, nil
	case Transient(status):
		failures++
		if failures <= b.MaxDoublings {
			interval *= 2
		}
		return Step{
			Interval: interval,
			Failures: failures,
			Alert:    failures == b.AlertAfter,
		}, nil
	default:
		return Step{Interval: interval, Failures: failures}, ErrFatalStatus
	}
}
