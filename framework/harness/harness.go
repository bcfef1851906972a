package harness

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/linguasigna/integration-harness/framework"
	"github.com/linguasigna/integration-harness/framework/helpers"
	"github.com/linguasigna/integration-harness/framework/suite"
)

const (
	DefaultReadyTimeout = time.Second * 15
	DefaultPollInterval = time.Second
	DefaultGraceTimeout = time.Second * 5
)

// State is the lifecycle state of a Harness.
type State int

const (
	Idle State = iota
	Launching
	AwaitingReady
	Running
	Cleanup
	Done
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Launching:
		return "Launching"
	case AwaitingReady:
		return "AwaitingReady"
	case Running:
		return "Running"
	case Cleanup:
		return "Cleanup"
	case Done:
		return "Done"
	default:
		return "?"
	}
}

// Config describes the services a Harness manages.
type Config struct {
	// Services are launched in this order and stopped in the reverse order.
	Services []ServiceSpec

	// ReadyTimeout is the startup timeout for any service that does not specify its own.
	ReadyTimeout time.Duration

	// PollInterval is the time between readiness probes.
	PollInterval time.Duration

	// GraceTimeout is how long to wait after asking a service to terminate before killing it, for any
	// service that does not specify its own.
	GraceTimeout time.Duration
}

// Endpoints maps each service's role to its base URL.
type Endpoints map[string]string

// SuiteFunc runs the tests against live services.
type SuiteFunc func(ctx context.Context, endpoints Endpoints) suite.Report

// Outcome is the terminal result of Harness.Run.
type Outcome struct {
	// Success is true if every service became ready and every test case passed.
	Success bool

	// Report is nil if the suite never ran.
	Report *suite.Report

	// Err is a *LaunchError, a *ReadinessError, or another error that prevented the suite from running.
	Err error

	// NotReady lists the services that never became ready, sorted by name.
	NotReady []string

	// FinalStates records the state of each service after cleanup.
	FinalStates map[string]ServiceState

	// ServiceOutput holds what each launched service wrote, for diagnostics.
	ServiceOutput map[string]framework.CapturedOutput
}

// Harness launches services, waits for them, runs a suite, and cleans up. A Harness can run only once.
type Harness struct {
	config       Config
	prober       *Prober
	logger       framework.Logger
	state        State
	handles      []*ServiceHandle
	cleanupOnce  sync.Once
	cleanupCount int
	lock         sync.Mutex
}

// Option is an option for New.
type Option = helpers.ConfigOption[Harness]

// WithLogger sets the logger for lifecycle messages.
func WithLogger(logger framework.Logger) Option {
	return helpers.OptionFunc[Harness](func(h *Harness) error {
		h.logger = logger
		return nil
	})
}

// WithProber replaces the default readiness prober.
func WithProber(prober *Prober) Option {
	return helpers.OptionFunc[Harness](func(h *Harness) error {
		h.prober = prober
		return nil
	})
}

// New validates the configuration and creates a Harness. No processes are started until Run.
func New(config Config, options ...Option) (*Harness, error) {
	if len(config.Services) == 0 {
		return nil, errors.New("no services were configured")
	}
	names := make(map[string]bool)
	for _, s := range config.Services {
		if s.Name == "" {
			return nil, errors.New("every service must have a name")
		}
		if names[s.Name] {
			return nil, fmt.Errorf("duplicate service name %q", s.Name)
		}
		names[s.Name] = true
		if s.ReadyURL == "" {
			return nil, fmt.Errorf("service %q has no readiness URL", s.Name)
		}
	}
	if config.ReadyTimeout <= 0 {
		config.ReadyTimeout = DefaultReadyTimeout
	}
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultPollInterval
	}
	if config.GraceTimeout <= 0 {
		config.GraceTimeout = DefaultGraceTimeout
	}

	h := &Harness{config: config, logger: framework.NullLogger()}
	if err := helpers.ApplyOptions(h, options...); err != nil {
		return nil, err
	}
	if h.prober == nil {
		h.prober = NewProber(ProberLogger(h.logger))
	}
	return h, nil
}

// State returns the current lifecycle state.
func (h *Harness) State() State {
	h.lock.Lock()
	defer h.lock.Unlock()
	return h.state
}

func (h *Harness) setState(state State) {
	h.lock.Lock()
	h.state = state
	h.lock.Unlock()
	h.logger.Printf("Harness state: %s", state)
}

// Run starts every service, waits until all of them are ready, calls suiteFn, and then stops every
// service that was started. Cleanup happens exactly once whatever the outcome, including when ctx is
// cancelled or suiteFn panics.
func (h *Harness) Run(ctx context.Context, suiteFn SuiteFunc) (outcome Outcome) {
	h.lock.Lock()
	if h.state != Idle {
		h.lock.Unlock()
		return Outcome{Err: errors.New("harness has already been run")}
	}
	h.lock.Unlock()

	defer func() {
		if r := recover(); r != nil {
			outcome.Err = fmt.Errorf("unexpected panic while running suite: %v", r)
		}
		h.cleanup()
		outcome.FinalStates = make(map[string]ServiceState, len(h.handles))
		outcome.ServiceOutput = make(map[string]framework.CapturedOutput, len(h.handles))
		for _, handle := range h.handles {
			outcome.FinalStates[handle.Name()] = handle.State()
			outcome.ServiceOutput[handle.Name()] = handle.Output()
		}
		outcome.Success = outcome.Err == nil && outcome.Report != nil && outcome.Report.OK()
		h.setState(Done)
		h.logger.Printf("Harness finished: %s", helpers.IfElse(outcome.Success, "success", "failure"))
	}()

	h.setState(Launching)
	for _, spec := range h.config.Services {
		handle, err := StartService(spec, h.logger)
		if err != nil {
			h.logger.Printf("%s", err)
			outcome.Err = err
			return
		}
		h.handles = append(h.handles, handle)
	}

	h.setState(AwaitingReady)
	targets := make([]ProbeTarget, 0, len(h.handles))
	for _, handle := range h.handles {
		targets = append(targets, ProbeTarget{
			Name:    handle.Name(),
			URL:     handle.spec.ReadyURL,
			Timeout: h.startupTimeout(handle.spec),
			Abort:   handle.Exited(),
		})
	}
	ready := h.prober.WaitAllReady(ctx, targets, h.config.PollInterval)
	notReady := make(map[string]bool)
	for _, handle := range h.handles {
		if ready[handle.Name()] {
			handle.MarkReady()
		} else {
			handle.MarkFailed()
			notReady[handle.Name()] = true
		}
	}
	if err := ctx.Err(); err != nil {
		outcome.Err = fmt.Errorf("interrupted while waiting for services: %w", err)
		return
	}
	if len(notReady) > 0 {
		outcome.NotReady = helpers.SortedKeys(notReady)
		outcome.Err = &ReadinessError{Services: outcome.NotReady}
		h.logger.Printf("%s", outcome.Err)
		for _, handle := range h.handles {
			if notReady[handle.Name()] {
				h.logger.Printf("Output from service %q:\n%s", handle.Name(), handle.Output().ToString("  "))
			}
		}
		return
	}

	h.setState(Running)
	endpoints := make(Endpoints, len(h.handles))
	for _, handle := range h.handles {
		endpoints[handle.spec.role()] = handle.spec.BaseURL
	}
	report := suiteFn(ctx, endpoints)
	outcome.Report = &report
	return
}

func (h *Harness) cleanup() {
	h.cleanupOnce.Do(func() {
		h.setState(Cleanup)
		for i := len(h.handles) - 1; i >= 0; i-- {
			handle := h.handles[i]
			handle.Stop(h.graceTimeout(handle.spec))
		}
		h.lock.Lock()
		h.cleanupCount++
		h.lock.Unlock()
	})
}

func (h *Harness) startupTimeout(spec ServiceSpec) time.Duration {
	return helpers.IfElse(spec.StartupTimeout > 0, spec.StartupTimeout, h.config.ReadyTimeout)
}

func (h *Harness) graceTimeout(spec ServiceSpec) time.Duration {
	return helpers.IfElse(spec.GraceTimeout > 0, spec.GraceTimeout, h.config.GraceTimeout)
}
