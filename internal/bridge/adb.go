package bridge

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"devgate/internal/gate"
)

// ADBBridge runs device commands through the adb binary. Every
// invocation is bounded by the configured timeout; a missing or
// unreachable adb surfaces as a failed CommandResult, never an error.
type ADBBridge struct {
	adbPath string
	timeout time.Duration
	logger  gate.Logger
}

// NewADBBridge creates a bridge that invokes adbPath for device
// commands.
func NewADBBridge(adbPath string, timeout time.Duration, logger gate.Logger) *ADBBridge {
	if adbPath == "" {
		adbPath = "adb"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ADBBridge{adbPath: adbPath, timeout: timeout, logger: logger}
}

// Run executes an adb command against the device with the given serial.
func (b *ADBBridge) Run(ctx context.Context, deviceID string, args ...string) gate.CommandResult {
	full := append([]string{"-s", deviceID}, args...)
	return b.exec(ctx, full...)
}

// Pull copies a file or tree from the device into localDestDir.
func (b *ADBBridge) Pull(ctx context.Context, deviceID, remotePath, localDestDir string) gate.CommandResult {
	return b.exec(ctx, "-s", deviceID, "pull", remotePath, localDestDir)
}

// Push copies a local file onto the device at remotePath.
func (b *ADBBridge) Push(ctx context.Context, deviceID, localPath, remotePath string) gate.CommandResult {
	return b.exec(ctx, "-s", deviceID, "push", localPath, remotePath)
}

// Scan lists devices currently visible to adb.
func (b *ADBBridge) Scan(ctx context.Context) ([]gate.BridgeDevice, gate.CommandResult) {
	result := b.exec(ctx, "devices")
	if !result.OK {
		return nil, result
	}
	return ParseDeviceList(result.Stdout), result
}

// exec runs one adb invocation with the bridge timeout applied.
func (b *ADBBridge) exec(ctx context.Context, args ...string) gate.CommandResult {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, b.adbPath, args...)
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
		result.Stderr = fmt.Sprintf("adb command timed out after %s", b.timeout)
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
		b.logger.Debug("adb command failed", "args", strings.Join(args, " "), "exitCode", result.ExitCode)
	}
	return result
}

// ParseDeviceList parses `adb devices` output into bridge devices. The
// first line is the banner; each following non-empty line is
// "<serial>\t<state>".
func ParseDeviceList(output string) []gate.BridgeDevice {
	var devices []gate.BridgeDevice
	for i, line := range strings.Split(strings.ReplaceAll(output, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)
		if i == 0 || line == "" {
			// Banner line ("List of devices attached") or trailing blank.
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}

		serial, state := fields[0], fields[1]
		device := gate.BridgeDevice{
			DeviceType: "android",
			DeviceID:   serial,
			Name:       "Android (" + serial + ")",
		}
		switch state {
		case "device":
			device.Status = "available"
			device.Details = "Ready for bridge commands."
		case "unauthorized":
			device.Status = "unauthorized"
			device.Details = "Confirm the debugging prompt on the device."
		case "offline":
			device.Status = "offline"
			device.Details = "Device is attached but not responding."
		default:
			device.Status = state
			device.Details = "Unrecognized bridge state."
		}
		devices = append(devices, device)
	}
	return devices
}

// Compile-time check that ADBBridge implements gate.DeviceRunner
var _ gate.DeviceRunner = (*ADBBridge)(nil)
