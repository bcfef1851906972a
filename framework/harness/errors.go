package harness

import (
	"fmt"
	"strings"
)

// LaunchError means that a service's command could not be spawned at all.
type LaunchError struct {
	Service string
	Command string
	Err     error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to launch service %q (%s): %s", e.Service, e.Command, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// ReadinessError means that one or more services did not answer HTTP within their startup timeout.
// Services is sorted by name.
type ReadinessError struct {
	Services []string
}

func (e *ReadinessError) Error() string {
	return fmt.Sprintf("service(s) never became ready: %s", strings.Join(e.Services, ", "))
}
