package harness

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linguasigna/integration-harness/framework"
	"github.com/linguasigna/integration-harness/framework/suite"
)

func passingSuite(called *bool, endpoints *Endpoints) SuiteFunc {
	return func(ctx context.Context, e Endpoints) suite.Report {
		*called = true
		if endpoints != nil {
			*endpoints = e
		}
		return suite.Run(ctx, suite.Config{}, suite.Case{Name: "a", Action: func(*suite.T) {}})
	}
}

func stateTransitions(output framework.CapturedOutput) []string {
	var ret []string
	for _, m := range output {
		if len(m.Message) > len("Harness state: ") && m.Message[:len("Harness state: ")] == "Harness state: " {
			ret = append(ret, m.Message[len("Harness state: "):])
		}
	}
	return ret
}

func fastConfig(services ...ServiceSpec) Config {
	return Config{
		Services:     services,
		ReadyTimeout: time.Second * 10,
		PollInterval: time.Millisecond * 20,
		GraceTimeout: time.Second * 5,
	}
}

func TestHarnessRunsSuiteWhenAllServicesAreReady(t *testing.T) {
	logger := newTestLogger(t)
	backend := servingChildSpec(t, "backend")
	backend.Role = "backend"
	recognition := servingChildSpec(t, "recognition")

	h, err := New(fastConfig(backend, recognition), WithLogger(logger))
	require.NoError(t, err)
	assert.Equal(t, Idle, h.State())

	var called bool
	var endpoints Endpoints
	outcome := h.Run(context.Background(), passingSuite(&called, &endpoints))

	require.NoError(t, outcome.Err)
	assert.True(t, outcome.Success)
	assert.True(t, called)
	require.NotNil(t, outcome.Report)
	assert.Equal(t, 1, outcome.Report.PassCount())
	assert.Equal(t, Endpoints{"backend": backend.BaseURL, "recognition": recognition.BaseURL}, endpoints)
	assert.Equal(t, map[string]ServiceState{"backend": Stopped, "recognition": Stopped}, outcome.FinalStates)
	assert.Equal(t, Done, h.State())
	assert.Equal(t, 1, h.cleanupCount)
	assert.Equal(t, []string{"Launching", "AwaitingReady", "Running", "Cleanup", "Done"},
		stateTransitions(logger.Output()))
}

func TestHarnessStopsServicesInReverseOrder(t *testing.T) {
	logger := newTestLogger(t)
	h, err := New(fastConfig(servingChildSpec(t, "first"), servingChildSpec(t, "second")), WithLogger(logger))
	require.NoError(t, err)

	var called bool
	_ = h.Run(context.Background(), passingSuite(&called, nil))

	var stops []string
	for _, m := range logger.Output() {
		switch m.Message {
		case `Stopping service "first"`, `Stopping service "second"`:
			stops = append(stops, m.Message)
		}
	}
	assert.Equal(t, []string{`Stopping service "second"`, `Stopping service "first"`}, stops)
}

func TestHarnessReportsFailureWhenACaseFails(t *testing.T) {
	h, err := New(fastConfig(servingChildSpec(t, "backend")), WithLogger(newTestLogger(t)))
	require.NoError(t, err)

	outcome := h.Run(context.Background(), func(ctx context.Context, _ Endpoints) suite.Report {
		return suite.Run(ctx, suite.Config{},
			suite.Case{Name: "a", Action: func(t *suite.T) { t.Errorf("bad") }},
			suite.Case{Name: "b", Action: func(*suite.T) {}})
	})

	assert.NoError(t, outcome.Err)
	assert.False(t, outcome.Success)
	require.NotNil(t, outcome.Report)
	assert.Equal(t, 1, outcome.Report.PassCount())
	assert.Equal(t, 2, outcome.Report.Total())
	assert.Equal(t, Stopped, outcome.FinalStates["backend"])
}

func TestHarnessSpawnFailureSkipsSuiteAndStopsStartedServices(t *testing.T) {
	logger := newTestLogger(t)
	started := servingChildSpec(t, "backend")
	broken := ServiceSpec{Name: "recognition", Command: "/no/such/executable", ReadyURL: unusedURL(t)}
	h, err := New(fastConfig(started, broken), WithLogger(logger))
	require.NoError(t, err)

	var called bool
	outcome := h.Run(context.Background(), passingSuite(&called, nil))

	assert.False(t, called)
	assert.False(t, outcome.Success)
	assert.Nil(t, outcome.Report)
	var le *LaunchError
	require.True(t, errors.As(outcome.Err, &le))
	assert.Equal(t, "recognition", le.Service)
	assert.Equal(t, map[string]ServiceState{"backend": Stopped}, outcome.FinalStates)
	assert.Equal(t, 1, h.cleanupCount)
	assert.Equal(t, []string{"Launching", "Cleanup", "Done"}, stateTransitions(logger.Output()))
}

func TestHarnessReadinessTimeoutSkipsSuite(t *testing.T) {
	logger := newTestLogger(t)
	ready := servingChildSpec(t, "backend")
	neverReady := childSpec(t, "recognition", "sleep")
	neverReady.ReadyURL = unusedURL(t)
	neverReady.StartupTimeout = time.Second

	h, err := New(fastConfig(ready, neverReady), WithLogger(logger))
	require.NoError(t, err)

	var called bool
	outcome := h.Run(context.Background(), passingSuite(&called, nil))

	assert.False(t, called)
	assert.False(t, outcome.Success)
	assert.Nil(t, outcome.Report)
	var re *ReadinessError
	require.True(t, errors.As(outcome.Err, &re))
	assert.Equal(t, []string{"recognition"}, re.Services)
	assert.Equal(t, []string{"recognition"}, outcome.NotReady)
	assert.Equal(t, map[string]ServiceState{"backend": Stopped, "recognition": Failed}, outcome.FinalStates)
	assert.True(t, hasMessage(outcome.ServiceOutput["recognition"], "sleeping"))
	assert.Equal(t, 1, h.cleanupCount)
	assert.Equal(t, []string{"Launching", "AwaitingReady", "Cleanup", "Done"}, stateTransitions(logger.Output()))
}

func TestHarnessDoesNotWaitForServiceThatExited(t *testing.T) {
	crashing := childSpec(t, "backend", "exit")
	crashing.ReadyURL = unusedURL(t)
	config := fastConfig(crashing)
	config.ReadyTimeout = time.Minute
	h, err := New(config, WithLogger(newTestLogger(t)))
	require.NoError(t, err)

	start := time.Now()
	var called bool
	outcome := h.Run(context.Background(), passingSuite(&called, nil))

	assert.Less(t, time.Since(start), time.Second*30)
	assert.False(t, called)
	assert.Equal(t, []string{"backend"}, outcome.NotReady)
	assert.True(t, hasMessage(outcome.ServiceOutput["backend"], "goodbye"))
}

func TestHarnessCleansUpWhenInterruptedDuringSuite(t *testing.T) {
	h, err := New(fastConfig(servingChildSpec(t, "backend")), WithLogger(newTestLogger(t)))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	outcome := h.Run(ctx, func(ctx context.Context, _ Endpoints) suite.Report {
		return suite.Run(ctx, suite.Config{},
			suite.Case{Name: "a", Action: func(*suite.T) { cancel() }},
			suite.Case{Name: "b", Action: func(*suite.T) {}})
	})

	assert.False(t, outcome.Success)
	require.NotNil(t, outcome.Report)
	assert.Equal(t, suite.NotRunMessage, outcome.Report.Results[1].Message)
	assert.Equal(t, Stopped, outcome.FinalStates["backend"])
}

func TestHarnessCleansUpWhenInterruptedBeforeReady(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	spec := childSpec(t, "backend", "sleep")
	spec.ReadyURL = unusedURL(t)
	h, err := New(fastConfig(spec), WithLogger(newTestLogger(t)))
	require.NoError(t, err)

	var called bool
	outcome := h.Run(ctx, passingSuite(&called, nil))

	assert.False(t, called)
	assert.ErrorIs(t, outcome.Err, context.Canceled)
	assert.Equal(t, Failed, outcome.FinalStates["backend"])
	assert.Equal(t, 1, h.cleanupCount)
}

func TestHarnessCleansUpWhenSuitePanics(t *testing.T) {
	h, err := New(fastConfig(servingChildSpec(t, "backend")), WithLogger(newTestLogger(t)))
	require.NoError(t, err)

	outcome := h.Run(context.Background(), func(context.Context, Endpoints) suite.Report {
		panic("oops")
	})

	assert.False(t, outcome.Success)
	require.Error(t, outcome.Err)
	assert.Contains(t, outcome.Err.Error(), "oops")
	assert.Equal(t, Stopped, outcome.FinalStates["backend"])
	assert.Equal(t, 1, h.cleanupCount)
}

func TestHarnessCanOnlyRunOnce(t *testing.T) {
	h, err := New(fastConfig(servingChildSpec(t, "backend")), WithLogger(newTestLogger(t)))
	require.NoError(t, err)

	var called bool
	first := h.Run(context.Background(), passingSuite(&called, nil))
	assert.True(t, first.Success)

	called = false
	second := h.Run(context.Background(), passingSuite(&called, nil))
	assert.False(t, called)
	assert.False(t, second.Success)
	assert.Error(t, second.Err)
	assert.Equal(t, 1, h.cleanupCount)
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)

	_, err = New(Config{Services: []ServiceSpec{{Command: "x", ReadyURL: "http://localhost"}}})
	assert.Error(t, err)

	_, err = New(Config{Services: []ServiceSpec{{Name: "a", Command: "x"}}})
	assert.Error(t, err)

	_, err = New(Config{Services: []ServiceSpec{
		{Name: "a", Command: "x", ReadyURL: "http://localhost"},
		{Name: "a", Command: "y", ReadyURL: "http://localhost"},
	}})
	assert.Error(t, err)

	h, err := New(Config{Services: []ServiceSpec{{Name: "a", Command: "x", ReadyURL: "http://localhost"}}})
	require.NoError(t, err)
	assert.Equal(t, DefaultReadyTimeout, h.config.ReadyTimeout)
	assert.Equal(t, DefaultPollInterval, h.config.PollInterval)
	assert.Equal(t, DefaultGraceTimeout, h.config.GraceTimeout)
}

func TestPerServiceTimeoutsOverrideDefaults(t *testing.T) {
	h, err := New(Config{Services: []ServiceSpec{{Name: "a", Command: "x", ReadyURL: "http://localhost"}}})
	require.NoError(t, err)

	assert.Equal(t, DefaultGraceTimeout, h.graceTimeout(ServiceSpec{}))
	assert.Equal(t, time.Second, h.graceTimeout(ServiceSpec{GraceTimeout: time.Second}))
	assert.Equal(t, DefaultReadyTimeout, h.startupTimeout(ServiceSpec{}))
	assert.Equal(t, time.Second, h.startupTimeout(ServiceSpec{StartupTimeout: time.Second}))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "AwaitingReady", AwaitingReady.String())
	assert.Equal(t, "?", State(99).String())
}
