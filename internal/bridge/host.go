package bridge

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"devgate/internal/gate"
)

// ShellRunner executes guarded commands on the local host shell. Every
// command is bounded by the configured timeout so a wedged command
// cannot hang the control plane.
type ShellRunner struct {
	timeout time.Duration
	logger  gate.Logger
}

// NewShellRunner creates a host runner with the given command timeout.
func NewShellRunner(timeout time.Duration, logger gate.Logger) *ShellRunner {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ShellRunner{timeout: timeout, logger: logger}
}

// Run executes command through the platform shell and captures its
// output. A timeout or spawn failure is a failed CommandResult.
func (r *ShellRunner) Run(ctx context.Context, command string) gate.CommandResult {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.CommandContext(ctx, "cmd", "/C", command)
	} else {
		cmd = exec.CommandContext(ctx, "sh", "-c", command)
	}

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := gate.CommandResult{
		OK:     err == nil,
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	switch {
	case err == nil:
	case ctx.Err() == context.DeadlineExceeded:
		result.ExitCode = -1
		result.Stderr = fmt.Sprintf("command timed out after %s", r.timeout)
	default:
		if exitErr, ok := err.(*exec.ExitError); ok {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.ExitCode = -1
			if result.Stderr == "" {
				result.Stderr = err.Error()
			}
		}
	}

	if !result.OK {
		r.logger.Debug("host command failed", "exitCode", result.ExitCode)
	}
	return result
}

// Compile-time check that ShellRunner implements gate.HostRunner
var _ gate.HostRunner = (*ShellRunner)(nil)
