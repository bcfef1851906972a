package harness

import (
	"errors"
	"os"
	"os/exec"
	"regexp"
	"sync"
	"time"

	"github.com/alessio/shellescape"

	"github.com/linguasigna/integration-harness/framework"
)

const (
	// capturedOutputLimit is the number of output lines kept per service; older lines are dropped.
	capturedOutputLimit = 2000

	// killWaitTimeout bounds how long Stop waits for a process to disappear after it was killed.
	killWaitTimeout = time.Second * 5

	// pipeWaitDelay bounds how long we wait for the output pipes to close after the process exits,
	// in case some descendant process is still holding them open.
	pipeWaitDelay = time.Second * 2
)

// ServiceSpec describes how to launch one service and how to tell when it is ready. It is created when
// the harness is configured and not modified afterward.
type ServiceSpec struct {
	// Name identifies the service in logs and diagnostics. It must be unique within a harness.
	Name string

	// Role tells the test suite what the service is for, such as "backend". If empty, Name is used.
	Role string

	Command string
	Args    []string
	Dir     string

	// Env contains extra "KEY=VALUE" entries added to the harness's own environment.
	Env []string

	// BaseURL is the URL that test cases use to reach the service.
	BaseURL string

	// ReadyURL is polled until it returns any HTTP response.
	ReadyURL string

	// StartupTimeout and GraceTimeout override the harness-wide defaults if nonzero.
	StartupTimeout time.Duration
	GraceTimeout   time.Duration

	// OutputFilters exclude matching lines from the captured output.
	OutputFilters []*regexp.Regexp

	// EchoOutput causes each output line to also be written to the harness logger as it arrives.
	EchoOutput bool
}

// CommandLine returns the launch command in a form that could be pasted into a shell.
func (s ServiceSpec) CommandLine() string {
	return shellescape.QuoteCommand(append([]string{s.Command}, s.Args...))
}

func (s ServiceSpec) role() string {
	if s.Role == "" {
		return s.Name
	}
	return s.Role
}

// ServiceState is the lifecycle state of a ServiceHandle.
type ServiceState int

const (
	NotStarted ServiceState = iota
	Starting
	Ready
	Failed
	Stopped
)

func (s ServiceState) String() string {
	switch s {
	case NotStarted:
		return "NotStarted"
	case Starting:
		return "Starting"
	case Ready:
		return "Ready"
	case Failed:
		return "Failed"
	case Stopped:
		return "Stopped"
	default:
		return "?"
	}
}

// ServiceHandle owns one child process. Nothing else may signal the process.
type ServiceHandle struct {
	spec        ServiceSpec
	cmd         *exec.Cmd
	output      *framework.CapturingLogger
	writer      *outputWriter
	logger      framework.Logger
	exited      chan struct{}
	exitErr     error
	state       ServiceState
	stopCalled  bool
	stopped     bool
	signalsSent int
	lock        sync.Mutex
}

// StartService launches the command described by spec. It does not wait for the service to be ready.
// If the command cannot be spawned, it returns a *LaunchError.
func StartService(spec ServiceSpec, logger framework.Logger) (*ServiceHandle, error) {
	if logger == nil {
		logger = framework.NullLogger()
	}
	h := &ServiceHandle{
		spec:   spec,
		output: framework.NewCapturingLogger(capturedOutputLimit),
		logger: logger,
		exited: make(chan struct{}),
	}
	if spec.Command == "" {
		return nil, &LaunchError{Service: spec.Name, Err: errors.New("no command was configured")}
	}

	var outputLogger framework.Logger = h.output
	if spec.EchoOutput {
		outputLogger = framework.MultiLogger(h.output, framework.LoggerWithPrefix(logger, "["+spec.Name+"] "))
	}
	h.writer = newOutputWriter(outputLogger, spec.OutputFilters)

	cmd := exec.Command(spec.Command, spec.Args...) //nolint:gosec
	cmd.Dir = spec.Dir
	if len(spec.Env) > 0 {
		cmd.Env = append(os.Environ(), spec.Env...)
	}
	cmd.Stdout = h.writer
	cmd.Stderr = h.writer
	cmd.WaitDelay = pipeWaitDelay
	configureProcessGroup(cmd)

	logger.Printf("Starting service %q: %s", spec.Name, spec.CommandLine())
	if err := cmd.Start(); err != nil {
		return nil, &LaunchError{Service: spec.Name, Command: spec.CommandLine(), Err: err}
	}
	h.cmd = cmd
	h.state = Starting
	logger.Printf("Service %q started with PID %d", spec.Name, cmd.Process.Pid)

	go h.watch()
	return h, nil
}

func (h *ServiceHandle) watch() {
	err := h.cmd.Wait()
	h.writer.flush()
	h.lock.Lock()
	h.exitErr = err
	stopping := h.stopCalled
	h.lock.Unlock()
	if !stopping {
		h.logger.Printf("Service %q exited unexpectedly: %s", h.spec.Name, describeExit(err))
	}
	close(h.exited)
}

func describeExit(err error) string {
	if err == nil {
		return "exit status 0"
	}
	return err.Error()
}

func (h *ServiceHandle) Spec() ServiceSpec { return h.spec }

func (h *ServiceHandle) Name() string { return h.spec.Name }

// PID returns the operating system's process ID, or 0 if the process was never started.
func (h *ServiceHandle) PID() int {
	if h.cmd == nil || h.cmd.Process == nil {
		return 0
	}
	return h.cmd.Process.Pid
}

func (h *ServiceHandle) State() ServiceState {
	h.lock.Lock()
	defer h.lock.Unlock()
	return h.state
}

// Exited returns a channel that is closed once the process has exited for any reason.
func (h *ServiceHandle) Exited() <-chan struct{} {
	return h.exited
}

// ExitError returns the result of waiting for the process; it is only meaningful after Exited is closed.
func (h *ServiceHandle) ExitError() error {
	h.lock.Lock()
	defer h.lock.Unlock()
	return h.exitErr
}

// Output returns the lines the process has written so far.
func (h *ServiceHandle) Output() framework.CapturedOutput {
	if h.output == nil {
		return nil
	}
	return h.output.Output()
}

// MarkReady records that the service answered its readiness probe.
func (h *ServiceHandle) MarkReady() {
	h.setStateIf(Starting, Ready)
}

// MarkFailed records that the service never became ready.
func (h *ServiceHandle) MarkFailed() {
	h.setStateIf(Starting, Failed)
}

func (h *ServiceHandle) setStateIf(from, to ServiceState) {
	h.lock.Lock()
	defer h.lock.Unlock()
	if h.state == from {
		h.state = to
	}
}

// Stopped is true once Stop has confirmed that the process is gone.
func (h *ServiceHandle) Stopped() bool {
	h.lock.Lock()
	defer h.lock.Unlock()
	return h.stopped
}

// SignalsSent returns how many termination or kill signals Stop has sent.
func (h *ServiceHandle) SignalsSent() int {
	h.lock.Lock()
	defer h.lock.Unlock()
	return h.signalsSent
}

// Stop asks the process to terminate, and kills it if it has not exited within the grace period. It
// is idempotent: calling it again, or calling it on a process that never started or has already
// exited, sends no signal. A handle in the Failed state stays Failed; any other state becomes
// Stopped.
func (h *ServiceHandle) Stop(grace time.Duration) {
	h.lock.Lock()
	if h.cmd == nil || h.stopCalled {
		h.lock.Unlock()
		return
	}
	h.stopCalled = true
	h.lock.Unlock()

	defer func() {
		h.lock.Lock()
		h.stopped = true
		if h.state != Failed {
			h.state = Stopped
		}
		h.lock.Unlock()
	}()

	select {
	case <-h.exited:
		h.logger.Printf("Service %q had already exited", h.spec.Name)
		return
	default:
	}

	h.logger.Printf("Stopping service %q", h.spec.Name)
	h.countSignal()
	if err := terminateProcess(h.cmd.Process); err != nil {
		h.logger.Printf("Error sending termination signal to service %q: %s", h.spec.Name, err)
	}

	grace = max(grace, 0)
	deadline := time.NewTimer(grace)
	defer deadline.Stop()
	select {
	case <-h.exited:
		h.logger.Printf("Service %q stopped", h.spec.Name)
		return
	case <-deadline.C:
	}

	h.logger.Printf("Service %q did not exit within %s, killing", h.spec.Name, grace)
	h.countSignal()
	if err := killProcess(h.cmd.Process); err != nil {
		h.logger.Printf("Error killing service %q: %s", h.spec.Name, err)
	}
	killDeadline := time.NewTimer(killWaitTimeout)
	defer killDeadline.Stop()
	select {
	case <-h.exited:
		h.logger.Printf("Service %q killed", h.spec.Name)
	case <-killDeadline.C:
		h.logger.Printf("Service %q still had not exited %s after being killed", h.spec.Name, killWaitTimeout)
	}
}

func (h *ServiceHandle) countSignal() {
	h.lock.Lock()
	h.signalsSent++
	h.lock.Unlock()
}
