package helpers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func makePollTestFn[V any](initialValue, finalValue V, countBeforeFinalValue int) func() V {
	counter := 0
	return func() V {
		counter++
		if counter <= countBeforeFinalValue {
			return initialValue
		}
		return finalValue
	}
}

func TestPollUntil(t *testing.T) {
	t.Run("first call happens immediately", func(t *testing.T) {
		calls := 0
		start := time.Now()
		result := PollUntil(context.Background(), time.Second, time.Hour, nil, func() bool {
			calls++
			return true
		})
		assert.True(t, result)
		assert.Equal(t, 1, calls)
		assert.Less(t, time.Since(start), time.Second)
	})

	t.Run("cancelled context stops polling", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(time.Millisecond * 20)
			cancel()
		}()
		start := time.Now()
		assert.False(t, PollUntil(ctx, time.Minute, time.Millisecond, nil, func() bool { return false }))
		assert.Less(t, time.Since(start), time.Minute)
	})

	t.Run("already-cancelled context never calls testFn", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		called := false
		assert.False(t, PollUntil(ctx, time.Second, time.Millisecond, nil, func() bool {
			called = true
			return true
		}))
		assert.False(t, called)
	})

	t.Run("closed abort channel stops polling", func(t *testing.T) {
		abort := make(chan struct{})
		close(abort)
		assert.False(t, PollUntil(context.Background(), time.Minute, time.Millisecond, abort,
			func() bool { return false }))
	})
}

func TestEventually(t *testing.T) {
	t.Run("value is seen", func(t *testing.T) {
		var tr1 TestRecorder
		result := AssertEventually(&tr1, makePollTestFn(false, true, 1), time.Second, time.Millisecond, "sorry %s", "no")
		assert.True(t, result)
		assert.Len(t, tr1.Errors, 0)
		assert.False(t, tr1.Terminated)

		var tr2 TestRecorder
		RequireEventually(&tr2, makePollTestFn(false, true, 1), time.Second, time.Millisecond, "sorry %s", "no")
		assert.Len(t, tr2.Errors, 0)
		assert.False(t, tr2.Terminated)
	})

	t.Run("value is not seen", func(t *testing.T) {
		var tr1 TestRecorder
		result := AssertEventually(&tr1, makePollTestFn(false, true, 100), time.Millisecond*10, time.Millisecond,
			"sorry %s", "no")
		assert.False(t, result)
		if assert.Len(t, tr1.Errors, 1) {
			assert.Equal(t, "sorry no", tr1.Errors[0])
		}
		assert.False(t, tr1.Terminated)

		var tr2 TestRecorder
		RequireEventually(&tr2, makePollTestFn(false, true, 100), time.Millisecond*10, time.Millisecond,
			"sorry %s", "no")
		if assert.Len(t, tr2.Errors, 1) {
			assert.Equal(t, "sorry no", tr2.Errors[0])
		}
		assert.True(t, tr2.Terminated)
	})
}
