package helpers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTryReceive(t *testing.T) {
	ch := make(chan string, 1)
	_, ok := TryReceive(ch, time.Millisecond)
	assert.False(t, ok)

	ch <- "a"
	value, ok := TryReceive(ch, time.Millisecond)
	assert.True(t, ok)
	assert.Equal(t, "a", value)

	go func() {
		time.Sleep(time.Millisecond * 50)
		ch <- "b"
	}()
	value, ok = TryReceive(ch, time.Second)
	assert.True(t, ok)
	assert.Equal(t, "b", value)
}

func TestRequireValue(t *testing.T) {
	tr1 := TestRecorder{PanicOnTerminate: true}
	ch := make(chan string, 1)
	assert.PanicsWithValue(t, &tr1, func() { _ = RequireValue(&tr1, ch, time.Millisecond) })
	if assert.Error(t, tr1.Err()) {
		assert.Contains(t, tr1.Err().Error(), "waiting for value of type string")
	}

	tr2 := TestRecorder{PanicOnTerminate: true}
	ch <- "a"
	assert.Equal(t, "a", RequireValue(&tr2, ch, time.Millisecond))
	assert.NoError(t, tr2.Err())

	tr3 := TestRecorder{PanicOnTerminate: true}
	go func() {
		time.Sleep(time.Millisecond * 50)
		ch <- "b"
	}()
	assert.Equal(t, "b", RequireValue(&tr3, ch, time.Second))
	assert.NoError(t, tr3.Err())
}
