//go:build windows

package harness

import (
	"os"
	"os/exec"
)

func configureProcessGroup(*exec.Cmd) {}

// Windows has no equivalent of SIGTERM for console processes that we can rely on, so termination is
// immediate.
func terminateProcess(p *os.Process) error {
	return p.Kill()
}

func killProcess(p *os.Process) error {
	return p.Kill()
}
