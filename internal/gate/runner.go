package gate

import "context"

// CommandResult is the outcome of one delegated external command.
type CommandResult struct {
	OK       bool   `json:"ok"`
	ExitCode int    `json:"exitCode"`
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
}

// Diagnostic returns the most useful failure text from the result.
func (r CommandResult) Diagnostic() string {
	if r.Stderr != "" {
		return r.Stderr
	}
	return r.Stdout
}

// HostRunner executes a command on the local host shell. The runner
// enforces a bounded execution timeout; a timeout surfaces as a failed
// CommandResult, never a hang.
type HostRunner interface {
	Run(ctx context.Context, command string) CommandResult
}

// BridgeDevice is one endpoint discovered by the device bridge.
type BridgeDevice struct {
	DeviceType string `json:"deviceType"`
	DeviceID   string `json:"deviceId"`
	Name       string `json:"name"`
	Status     string `json:"status"`
	Details    string `json:"details"`
}

// DeviceRunner executes commands against a remote device through the
// bridge and copies files from it. Implementations translate transport
// failures into failed CommandResults rather than errors.
type DeviceRunner interface {
	// Run executes a bridge command against the device with the given id.
	Run(ctx context.Context, deviceID string, args ...string) CommandResult

	// Pull copies a file or tree from the device into localDestDir.
	Pull(ctx context.Context, deviceID, remotePath, localDestDir string) CommandResult

	// Push copies a local file onto the device at remotePath.
	Push(ctx context.Context, deviceID, localPath, remotePath string) CommandResult

	// Scan lists devices currently visible to the bridge.
	Scan(ctx context.Context) ([]BridgeDevice, CommandResult)
}
