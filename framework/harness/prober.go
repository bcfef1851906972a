package harness

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/linguasigna/integration-harness/framework"
	"github.com/linguasigna/integration-harness/framework/helpers"
)

// DefaultProbeRequestTimeout bounds each individual readiness request.
const DefaultProbeRequestTimeout = time.Second * 2

// Prober decides whether services are ready. A service is ready as soon as it returns any HTTP
// response at all, whatever the status; only a failure to get a response means it is not ready yet.
type Prober struct {
	client *http.Client
	logger framework.Logger
}

// ProberOption is an option for NewProber.
type ProberOption = helpers.ConfigOption[Prober]

// ProberHTTPClient replaces the default HTTP client, which has a request timeout of
// DefaultProbeRequestTimeout.
func ProberHTTPClient(client *http.Client) ProberOption {
	return helpers.OptionFunc[Prober](func(p *Prober) error {
		p.client = client
		return nil
	})
}

// ProberLogger sets the logger that receives a message for each target that resolves.
func ProberLogger(logger framework.Logger) ProberOption {
	return helpers.OptionFunc[Prober](func(p *Prober) error {
		p.logger = logger
		return nil
	})
}

// ProbeTarget is one endpoint for WaitAllReady.
type ProbeTarget struct {
	Name    string
	URL     string
	Timeout time.Duration

	// Abort, if not nil, stops waiting on this target when it is closed; the harness uses the
	// service's Exited channel so that a crashed process is not waited on for the whole timeout.
	Abort <-chan struct{}
}

func NewProber(options ...ProberOption) *Prober {
	p := &Prober{
		client: &http.Client{Timeout: DefaultProbeRequestTimeout},
		logger: framework.NullLogger(),
	}
	_ = helpers.ApplyOptions(p, options...) // these options never return errors
	return p
}

// WaitReady polls url every interval until it gets a response or the timeout elapses. The first
// request is made immediately. A non-positive interval means DefaultPollInterval. It returns false on timeout or if ctx is cancelled.
func (p *Prober) WaitReady(ctx context.Context, url string, timeout, interval time.Duration) bool {
	return p.waitReady(ctx, ProbeTarget{URL: url, Timeout: timeout}, interval)
}

// WaitAllReady polls all of the targets concurrently, each with its own timeout, and returns when all
// of them have resolved. The result maps each target name to whether it became ready.
func (p *Prober) WaitAllReady(ctx context.Context, targets []ProbeTarget, interval time.Duration) map[string]bool {
	results := make(map[string]bool, len(targets))
	var lock sync.Mutex
	var wg sync.WaitGroup
	for _, target := range targets {
		wg.Add(1)
		go func(target ProbeTarget) {
			defer wg.Done()
			ready := p.waitReady(ctx, target, interval)
			lock.Lock()
			results[target.Name] = ready
			lock.Unlock()
		}(target)
	}
	wg.Wait()
	return results
}

func (p *Prober) waitReady(ctx context.Context, target ProbeTarget, interval time.Duration) bool {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ctx, cancel := context.WithTimeout(ctx, target.Timeout)
	defer cancel()
	start := time.Now()
	attempts := 0
	ready := helpers.PollUntil(ctx, target.Timeout, interval, target.Abort, func() bool {
		attempts++
		return p.probe(ctx, target.URL)
	})
	if ready {
		p.logger.Printf("%s is ready at %s (after %d attempt(s), %s)", target.describe(), target.URL, attempts,
			time.Since(start).Round(time.Millisecond))
	} else {
		p.logger.Printf("%s did not become ready at %s (%d attempt(s))", target.describe(), target.URL, attempts)
	}
	return ready
}

func (t ProbeTarget) describe() string {
	if t.Name == "" {
		return "Service"
	}
	return fmt.Sprintf("Service %q", t.Name)
}

func (p *Prober) probe(ctx context.Context, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	return true
}
