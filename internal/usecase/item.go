package usecase

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

type itemState int

const (
	statePending itemState = iota
	stateInFlight
	stateRetryScheduled
	stateSucceeded
	stateFailed
	stateCancelled
)

func (s itemState) String() string {
	switch s {
	case statePending:
		return "pending"
	case stateInFlight:
		return "in_flight"
	case stateRetryScheduled:
		return "retry_scheduled"
	case stateSucceeded:
		return "succeeded"
	case stateFailed:
		return "failed"
	case stateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

func (s itemState) terminal() bool {
	return s == stateSucceeded || s == stateFailed || s == stateCancelled
}

// itemRun tracks one item through Pending -> InFlight -> {Succeeded |
// RetryScheduled -> InFlight | Failed}, with Cancelled reachable from every
// non-terminal state. Only the worker that owns it touches it.
type itemRun struct {
	state       itemState
	attempts    int
	maxAttempts int
	lastErr     error
	delay       time.Duration
	backoff     backoff.BackOff
	maxDelay    time.Duration
}

func newItemRun(maxRetries int, b backoff.BackOff, maxDelay time.Duration) *itemRun {
	if maxRetries < 0 {
		maxRetries = 0
	}
	b.Reset()
	return &itemRun{
		state:       statePending,
		maxAttempts: maxRetries + 1,
		backoff:     b,
		maxDelay:    maxDelay,
	}
}

// dispatch moves Pending or RetryScheduled to InFlight and counts the attempt.
func (r *itemRun) dispatch() {
	r.state = stateInFlight
	r.attempts++
}

func (r *itemRun) succeed() {
	r.state = stateSucceeded
	r.lastErr = nil
}

func (r *itemRun) fail(err error) {
	r.state = stateFailed
	r.lastErr = err
}

func (r *itemRun) cancel(err error) {
	r.state = stateCancelled
	r.lastErr = err
}

// attemptFailed applies a classified generation failure. Transient failures
// schedule a retry until the attempt budget is spent.
func (r *itemRun) attemptFailed(err error, code ErrorCode) {
	if code == ErrorPermanentGeneration {
		r.fail(coded(err, ErrorPermanentGeneration, "permanent_error"))
		return
	}
	if r.attempts >= r.maxAttempts {
		r.fail(coded(err, ErrorTransientGeneration, "retries_exhausted"))
		return
	}
	r.lastErr = err
	r.delay = r.nextDelay(retryAfter(err))
	r.state = stateRetryScheduled
}

func (r *itemRun) nextDelay(hint time.Duration) time.Duration {
	d := r.backoff.NextBackOff()
	if d == backoff.Stop {
		d = r.maxDelay
	}
	if hint > d {
		d = hint
	}
	if r.maxDelay > 0 && d > r.maxDelay {
		d = r.maxDelay
	}
	return d
}

// coded wraps err in an *Error unless it already is one with the same code.
func coded(err error, code ErrorCode, reason string) *Error {
	if ue, ok := err.(*Error); ok && ue.Code == code {
		return ue
	}
	return newError(code, reason, err)
}
