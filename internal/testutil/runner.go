package testutil

import (
	"context"
	"strings"
	"sync"

	"devgate/internal/gate"
)

// MockHostRunner records host commands and returns a canned result.
type MockHostRunner struct {
	mu       sync.Mutex
	Commands []string
	Result   gate.CommandResult
}

// NewMockHostRunner creates a host runner that succeeds with the given
// stdout.
func NewMockHostRunner(stdout string) *MockHostRunner {
	return &MockHostRunner{Result: gate.CommandResult{OK: true, Stdout: stdout}}
}

func (r *MockHostRunner) Run(ctx context.Context, command string) gate.CommandResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Commands = append(r.Commands, command)
	return r.Result
}

var _ gate.HostRunner = (*MockHostRunner)(nil)

// MockDeviceRunner records bridge calls and returns canned results.
// RunResults maps a space-joined argument string to its result; calls
// with no entry get DefaultResult.
type MockDeviceRunner struct {
	mu sync.Mutex

	RunCalls  [][]string
	PullCalls [][]string
	PushCalls [][]string

	RunResults    map[string]gate.CommandResult
	DefaultResult gate.CommandResult
	PullResult    gate.CommandResult
	PushResult    gate.CommandResult
	Devices       []gate.BridgeDevice
	ScanResult    gate.CommandResult
}

// NewMockDeviceRunner creates a device runner whose calls all succeed
// with empty output.
func NewMockDeviceRunner() *MockDeviceRunner {
	ok := gate.CommandResult{OK: true}
	return &MockDeviceRunner{
		RunResults:    map[string]gate.CommandResult{},
		DefaultResult: ok,
		PullResult:    ok,
		PushResult:    ok,
		ScanResult:    ok,
	}
}

func (r *MockDeviceRunner) Run(ctx context.Context, deviceID string, args ...string) gate.CommandResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.RunCalls = append(r.RunCalls, append([]string{deviceID}, args...))
	if result, ok := r.RunResults[strings.Join(args, " ")]; ok {
		return result
	}
	return r.DefaultResult
}

func (r *MockDeviceRunner) Pull(ctx context.Context, deviceID, remotePath, localDestDir string) gate.CommandResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.PullCalls = append(r.PullCalls, []string{deviceID, remotePath, localDestDir})
	return r.PullResult
}

func (r *MockDeviceRunner) Push(ctx context.Context, deviceID, localPath, remotePath string) gate.CommandResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.PushCalls = append(r.PushCalls, []string{deviceID, localPath, remotePath})
	return r.PushResult
}

func (r *MockDeviceRunner) Scan(ctx context.Context) ([]gate.BridgeDevice, gate.CommandResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Devices, r.ScanResult
}

var _ gate.DeviceRunner = (*MockDeviceRunner)(nil)
