package helpers

import (
	"time"
)

// TryReceive is a shortcut for using select to do a receive with timeout. The second return
// value is false if it timed out.
func TryReceive[V any](ch <-chan V, timeout time.Duration) (V, bool) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	select {
	case value := <-ch:
		return value, true
	case <-deadline.C:
		var empty V
		return empty, false
	}
}

// RequireValue tries to receive a value and returns it if successful, or causes the test
// to fail and terminate immediately if it timed out.
func RequireValue[V any](t TestContext, ch <-chan V, timeout time.Duration) V {
	var empty V
	return RequireValueWithMessage(t, ch, timeout, "timed out waiting for value of type %T", empty)
}

// RequireValueWithMessage is the same as RequireValue, but allows customization of the failure message.
func RequireValueWithMessage[V any](
	t TestContext,
	ch <-chan V,
	timeout time.Duration,
	msgFormat string,
	msgArgs ...interface{},
) V {
	value, ok := TryReceive(ch, timeout)
	if !ok {
		t.Errorf(msgFormat, msgArgs...)
		t.FailNow()
	}
	return value
}
