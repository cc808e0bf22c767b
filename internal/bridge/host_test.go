package bridge

import (
	"context"
	"runtime"
	"strings"
	"testing"
	"time"

	"devgate/internal/gate"
)

func TestShellRunner_Run(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell command fixtures are POSIX")
	}
	ctx := context.Background()

	t.Run("captures stdout", func(t *testing.T) {
		r := NewShellRunner(10*time.Second, gate.NewNopLogger())
		result := r.Run(ctx, "echo hello")
		if !result.OK {
			t.Fatalf("Run() failed: %s", result.Stderr)
		}
		if strings.TrimSpace(result.Stdout) != "hello" {
			t.Errorf("Stdout = %q", result.Stdout)
		}
	})

	t.Run("reports a non-zero exit", func(t *testing.T) {
		r := NewShellRunner(10*time.Second, gate.NewNopLogger())
		result := r.Run(ctx, "exit 3")
		if result.OK {
			t.Fatal("Run() succeeded for failing command")
		}
		if result.ExitCode != 3 {
			t.Errorf("ExitCode = %d, want 3", result.ExitCode)
		}
	})

	t.Run("captures stderr", func(t *testing.T) {
		r := NewShellRunner(10*time.Second, gate.NewNopLogger())
		result := r.Run(ctx, "echo oops 1>&2; exit 1")
		if result.OK {
			t.Fatal("Run() succeeded for failing command")
		}
		if !strings.Contains(result.Stderr, "oops") {
			t.Errorf("Stderr = %q", result.Stderr)
		}
	})

	t.Run("times out a wedged command", func(t *testing.T) {
		r := NewShellRunner(100*time.Millisecond, gate.NewNopLogger())
		result := r.Run(ctx, "sleep 5")
		if result.OK {
			t.Fatal("Run() succeeded for timed-out command")
		}
		if result.ExitCode != -1 {
			t.Errorf("ExitCode = %d, want -1", result.ExitCode)
		}
		if !strings.Contains(result.Stderr, "timed out") {
			t.Errorf("Stderr = %q", result.Stderr)
		}
	})
}
