package harness

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitReadyAcceptsAnyHTTPStatus(t *testing.T) {
	for _, status := range []int{200, 404, 500} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			handler, requestsCh := httphelpers.RecordingHandler(httphelpers.HandlerWithStatus(status))
			httphelpers.WithServer(handler, func(server *httptest.Server) {
				p := NewProber()
				assert.True(t, p.WaitReady(context.Background(), server.URL+"/health", time.Second*5, time.Hour))
				r := <-requestsCh
				assert.Equal(t, "/health", r.Request.URL.Path)
			})
		})
	}
}

func TestWaitReadyRetriesAfterConnectionFailures(t *testing.T) {
	handler := httphelpers.SequentialHandler(
		httphelpers.BrokenConnectionHandler(),
		httphelpers.BrokenConnectionHandler(),
		httphelpers.HandlerWithStatus(200),
	)
	httphelpers.WithServer(handler, func(server *httptest.Server) {
		logger := newTestLogger(t)
		p := NewProber(ProberLogger(logger))
		assert.True(t, p.WaitReady(context.Background(), server.URL, time.Second*5, time.Millisecond*10))
		require.Len(t, logger.Output(), 1)
		assert.Contains(t, logger.Output()[0].Message, "after 3 attempt(s)")
	})
}

func TestWaitReadyTimesOutWhenNothingIsListening(t *testing.T) {
	p := NewProber()
	start := time.Now()
	assert.False(t, p.WaitReady(context.Background(), unusedURL(t), time.Millisecond*200, time.Millisecond*20))
	assert.Less(t, time.Since(start), time.Second*5)
}

func TestWaitReadyWithNonPositiveIntervalUsesDefault(t *testing.T) {
	p := NewProber()
	for _, interval := range []time.Duration{0, -time.Second} {
		assert.NotPanics(t, func() {
			assert.False(t, p.WaitReady(context.Background(), unusedURL(t), time.Millisecond*200, interval))
		})
	}
	assert.NotPanics(t, func() {
		results := p.WaitAllReady(context.Background(),
			[]ProbeTarget{{Name: "backend", URL: unusedURL(t), Timeout: time.Millisecond * 200}}, 0)
		assert.Equal(t, map[string]bool{"backend": false}, results)
	})
}

func TestWaitReadyStopsWhenContextIsCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(time.Millisecond * 50)
		cancel()
	}()
	p := NewProber()
	start := time.Now()
	assert.False(t, p.WaitReady(ctx, unusedURL(t), time.Minute, time.Millisecond*10))
	assert.Less(t, time.Since(start), time.Second*30)
}

func TestWaitReadyUsesRequestTimeout(t *testing.T) {
	hang := make(chan struct{})
	defer close(hang)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-hang:
		case <-r.Context().Done():
		}
	})
	httphelpers.WithServer(handler, func(server *httptest.Server) {
		p := NewProber(ProberHTTPClient(&http.Client{Timeout: time.Millisecond * 50}))
		assert.False(t, p.WaitReady(context.Background(), server.URL, time.Millisecond*300, time.Millisecond*10))
	})
}

func TestWaitAllReadyProbesTargetsIndependently(t *testing.T) {
	httphelpers.WithServer(httphelpers.HandlerWithStatus(404), func(server *httptest.Server) {
		p := NewProber()
		start := time.Now()
		results := p.WaitAllReady(context.Background(), []ProbeTarget{
			{Name: "backend", URL: server.URL + "/health", Timeout: time.Second * 5},
			{Name: "recognition", URL: unusedURL(t), Timeout: time.Millisecond * 300},
		}, time.Millisecond*20)

		assert.Equal(t, map[string]bool{"backend": true, "recognition": false}, results)
		assert.Less(t, time.Since(start), time.Second*5)
	})
}

func TestWaitAllReadyStopsWaitingOnAbortedTarget(t *testing.T) {
	abort := make(chan struct{})
	close(abort)
	p := NewProber()
	start := time.Now()
	results := p.WaitAllReady(context.Background(), []ProbeTarget{
		{Name: "crashed", URL: unusedURL(t), Timeout: time.Minute, Abort: abort},
	}, time.Millisecond*10)

	assert.Equal(t, map[string]bool{"crashed": false}, results)
	assert.Less(t, time.Since(start), time.Second*30)
}
