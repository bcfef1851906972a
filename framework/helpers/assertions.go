package helpers

import (
	"context"
	"time"
)

// PollUntil calls testFn repeatedly at intervals until it returns true, the timeout elapses, the
// context is cancelled, or the abort channel (which may be nil) is closed.
//
// Returns true if testFn returned true.
func PollUntil(
	ctx context.Context,
	timeout time.Duration,
	interval time.Duration,
	abort <-chan struct{},
	testFn func() bool,
) bool {
	if ctx.Err() != nil {
		return false
	}
	if testFn() {
		return true
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for {
		select {
		case <-ctx.Done():
			return false
		case <-abort:
			return false
		case <-deadline.C:
			return false
		case <-ticker.C:
			if testFn() {
				return true
			}
		}
	}
}

// AssertEventually calls testFn repeatedly at intervals until it gets a true value; if the timeout
// elapses, the test fails. Unlike assert.Eventually it does not use a separate goroutine, so it is safe
// to use from a test case whose failures are reported by panicking.
func AssertEventually(
	t TestContext,
	testFn func() bool,
	timeout time.Duration,
	interval time.Duration,
	failureMsgFormat string,
	failureMsgArgs ...interface{},
) bool {
	if PollUntil(context.Background(), timeout, interval, nil, testFn) {
		return true
	}
	t.Errorf(failureMsgFormat, failureMsgArgs...)
	return false
}

// RequireEventually is the same as AssertEventually, except that the test also terminates on failure.
func RequireEventually(
	t TestContext,
	testFn func() bool,
	timeout time.Duration,
	interval time.Duration,
	failureMsgFormat string,
	failureMsgArgs ...interface{},
) {
	if !AssertEventually(t, testFn, timeout, interval, failureMsgFormat, failureMsgArgs...) {
		t.FailNow()
	}
}
