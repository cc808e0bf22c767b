package gate

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// File mutation operations accepted by ApplyHostChange and
// ApplyDeviceChange.
const (
	OpCreateFolder = "create-folder"
	OpWriteText    = "write-text"
	OpDeletePath   = "delete-path"
)

// HostChange describes one mutation against the local host filesystem.
type HostChange struct {
	TargetID   string
	Operation  string
	TargetPath string
	Content    string
	AuthCode   string
}

// DeviceChange describes one mutation against a bridged device.
type DeviceChange struct {
	Serial     string
	Operation  string
	RemotePath string
	Content    string
	AuthCode   string
}

// CommandOutcome carries the output of a guarded host command.
type CommandOutcome struct {
	Result
	ExitCode int    `json:"exitCode"`
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
}

// DeviceScan lists endpoints visible to the control plane.
type DeviceScan struct {
	Result
	Devices      []BridgeDevice `json:"devices"`
	BridgeStatus string         `json:"bridgeStatus"`
}

// DeviceInfoResult carries key/value facts about one endpoint.
type DeviceInfoResult struct {
	Result
	Info map[string]string `json:"info,omitempty"`
}

// FileListing carries the entries of one listed directory.
type FileListing struct {
	Result
	Files []string `json:"files"`
}

// Executor is the single choke point for every mutating or sensitive
// read against host or device state. Each guarded operation resolves
// the owner grant, checks the required scope, applies the path
// allow-list for mutations, and validates the secret code for the
// secret-gated set before delegating to a runner. It holds no persisted
// state of its own and never panics across its boundary.
type Executor struct {
	consents *ConsentManager
	secret   *SecretGate
	paths    *PathPolicy
	host     HostRunner
	devices  DeviceRunner
	fs       FilesystemManager
	clock    Clock
	logger   Logger

	hostID     string
	tempDir    string
	exportRoot string
}

// NewExecutor creates an Executor. hostID is the consent identity of
// the local host (its hostname); tempDir stages device push payloads;
// exportRoot receives browser-data export folders.
func NewExecutor(consents *ConsentManager, secret *SecretGate, paths *PathPolicy, host HostRunner, devices DeviceRunner, fs FilesystemManager, clock Clock, logger Logger, hostID, tempDir, exportRoot string) *Executor {
	return &Executor{
		consents:   consents,
		secret:     secret,
		paths:      paths,
		host:       host,
		devices:    devices,
		fs:         fs,
		clock:      clock,
		logger:     logger,
		hostID:     hostID,
		tempDir:    tempDir,
		exportRoot: exportRoot,
	}
}

// HostID returns the consent identity of the local host.
func (e *Executor) HostID() string { return e.hostID }

// authorize resolves a live grant and checks the required scope.
func (e *Executor) authorize(deviceType, deviceID string, required Scope) (*AccessGrant, Result) {
	grant, err := e.consents.Get(deviceType, deviceID)
	if err != nil {
		return nil, storeFailure(err)
	}
	if grant == nil {
		return nil, Failf(CodeAccessDenied, "Access denied. Owner consent is not active.")
	}
	if !HasScope(grant, required) {
		return nil, Failf(CodeScopeDenied, "Access denied. Owner granted limited scope; required scope missing: %s.", required)
	}
	return grant, Result{OK: true}
}

// ApplyHostChange runs one file mutation on the local host.
func (e *Executor) ApplyHostChange(change HostChange) Result {
	targetID := strings.TrimSpace(change.TargetID)
	if targetID == "" {
		targetID = e.hostID
	}
	if !strings.EqualFold(targetID, e.hostID) {
		return Failf(CodeValidation, "Only the local host can be modified in this build.")
	}

	if _, res := e.authorize("windows", targetID, ScopeModifyFiles); !res.OK {
		return res
	}
	if !e.secret.Validate(change.AuthCode) {
		return Failf(CodeAuthFailed, "Secret code validation failed for write operation.")
	}
	targetPath := strings.TrimSpace(change.TargetPath)
	if !e.paths.HostPathAllowed(targetPath) {
		return Failf(CodePathNotAllowed, "Path is outside allowed scope. Allowed scope is your home/Documents directories.")
	}

	switch change.Operation {
	case OpCreateFolder:
		if err := e.fs.EnsureDir(targetPath); err != nil {
			return Failf(CodeBackendError, "Host operation failed: %v", err)
		}
		e.logger.Info("host folder created", "path", targetPath)
		return Okf("Folder created: %s", targetPath)
	case OpWriteText:
		if err := e.fs.WriteFile(targetPath, []byte(change.Content)); err != nil {
			return Failf(CodeBackendError, "Host operation failed: %v", err)
		}
		e.logger.Info("host file written", "path", targetPath)
		return Okf("File written: %s", targetPath)
	case OpDeletePath:
		if err := e.fs.RemovePath(targetPath); err != nil {
			return Failf(CodeBackendError, "Host operation failed: %v", err)
		}
		e.logger.Info("host path deleted", "path", targetPath)
		return Okf("Deleted path: %s", targetPath)
	default:
		return Failf(CodeValidation, "Unsupported host operation.")
	}
}

// ApplyDeviceChange runs one file mutation on a bridged device.
func (e *Executor) ApplyDeviceChange(ctx context.Context, change DeviceChange) Result {
	serial := strings.TrimSpace(change.Serial)
	if serial == "" {
		return Failf(CodeValidation, "Device serial is required.")
	}

	if _, res := e.authorize("android", serial, ScopeModifyFiles); !res.OK {
		return res
	}
	if !e.secret.Validate(change.AuthCode) {
		return Failf(CodeAuthFailed, "Secret code validation failed for write operation.")
	}
	remotePath := NormalizeDevicePath(change.RemotePath)
	if !e.paths.DevicePathAllowed(remotePath) {
		return Failf(CodePathNotAllowed, "Device path is outside allowed scope. Allowed scope is /sdcard/* or /storage/emulated/0/*.")
	}

	switch change.Operation {
	case OpCreateFolder:
		result := e.devices.Run(ctx, serial, "shell", "mkdir", "-p", remotePath)
		if !result.OK {
			return backendFailure(result, "Device create-folder failed.")
		}
		return Okf("Folder created on device: %s", remotePath)
	case OpDeletePath:
		result := e.devices.Run(ctx, serial, "shell", "rm", "-rf", remotePath)
		if !result.OK {
			return backendFailure(result, "Device delete-path failed.")
		}
		return Okf("Deleted device path: %s", remotePath)
	case OpWriteText:
		return e.writeDeviceText(ctx, serial, remotePath, change.Content)
	default:
		return Failf(CodeValidation, "Unsupported device operation.")
	}
}

// writeDeviceText stages the content in a temp file and pushes it.
func (e *Executor) writeDeviceText(ctx context.Context, serial, remotePath, content string) Result {
	remoteDir := path.Dir(remotePath)
	if mkdir := e.devices.Run(ctx, serial, "shell", "mkdir", "-p", remoteDir); !mkdir.OK {
		return backendFailure(mkdir, "Unable to create parent folder on device.")
	}

	tempPath := filepath.Join(e.tempDir, fmt.Sprintf("devgate-push-%s-%d.txt", e.clock.Now().UTC().Format("20060102150405"), len(content)))
	if err := e.fs.WriteFile(tempPath, []byte(content)); err != nil {
		return Failf(CodeBackendError, "Staging push payload failed: %v", err)
	}
	defer func() {
		if err := e.fs.RemovePath(tempPath); err != nil {
			e.logger.Warn("leaving stale push payload", "path", tempPath, "error", err)
		}
	}()

	if push := e.devices.Push(ctx, serial, tempPath, remotePath); !push.OK {
		return backendFailure(push, "Device write-text failed.")
	}
	e.logger.Info("device file written", "device", serial, "path", remotePath)
	return Okf("Text file written on device: %s", remotePath)
}

// RunHostCommand executes an arbitrary command on the host shell. The
// host shell is operator-local, so the secret gate alone protects it;
// no device consent applies.
func (e *Executor) RunHostCommand(ctx context.Context, authCode, command string) CommandOutcome {
	if !e.secret.Validate(authCode) {
		return CommandOutcome{Result: Failf(CodeAuthFailed, "Authentication failed. Command blocked.")}
	}
	if strings.TrimSpace(command) == "" {
		return CommandOutcome{Result: Failf(CodeValidation, "Command is empty.")}
	}

	e.logger.Info("host command dispatched")
	result := e.host.Run(ctx, command)
	outcome := CommandOutcome{
		ExitCode: result.ExitCode,
		Stdout:   result.Stdout,
		Stderr:   result.Stderr,
	}
	if result.OK {
		outcome.Result = Okf("Command completed.")
	} else {
		outcome.Result = Failf(CodeBackendError, "Command failed: %s", firstNonEmpty(result.Diagnostic(), "non-zero exit status"))
	}
	return outcome
}

// ListDevices scans for reachable endpoints: the local host plus
// whatever the bridge reports. Listing requires no grant; it exposes
// only device identifiers.
func (e *Executor) ListDevices(ctx context.Context) DeviceScan {
	devices := []BridgeDevice{{
		DeviceType: "windows",
		DeviceID:   e.hostID,
		Name:       e.hostID + " (this host)",
		Status:     "available",
		Details:    "Local host endpoint.",
	}}

	bridged, scanResult := e.devices.Scan(ctx)
	bridgeStatus := "Bridge scan complete."
	if !scanResult.OK {
		bridgeStatus = "Bridge unavailable: " + firstNonEmpty(scanResult.Diagnostic(), "device scan failed")
	}
	devices = append(devices, bridged...)

	return DeviceScan{
		Result:       Okf("Connected device scan complete."),
		Devices:      devices,
		BridgeStatus: bridgeStatus,
	}
}

// DeviceInfo returns identity facts about an endpoint. Requires the
// read-device-info scope.
func (e *Executor) DeviceInfo(ctx context.Context, deviceType, deviceID string) DeviceInfoResult {
	deviceType = strings.ToLower(strings.TrimSpace(deviceType))
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return DeviceInfoResult{Result: Failf(CodeValidation, "Device id is required.")}
	}

	if _, res := e.authorize(deviceType, deviceID, ScopeReadDeviceInfo); !res.OK {
		return DeviceInfoResult{Result: res}
	}

	switch deviceType {
	case "android":
		return e.androidInfo(ctx, deviceID)
	case "windows":
		return e.hostInfo(deviceID)
	default:
		return DeviceInfoResult{Result: Failf(CodeValidation, "Unsupported device type.")}
	}
}

func (e *Executor) androidInfo(ctx context.Context, serial string) DeviceInfoResult {
	model := e.devices.Run(ctx, serial, "shell", "getprop", "ro.product.model")
	if !model.OK {
		return DeviceInfoResult{Result: backendFailure(model, "Unable to query device info.")}
	}
	brand := e.devices.Run(ctx, serial, "shell", "getprop", "ro.product.brand")
	version := e.devices.Run(ctx, serial, "shell", "getprop", "ro.build.version.release")

	return DeviceInfoResult{
		Result: Okf("Device info loaded."),
		Info: map[string]string{
			"serial":         serial,
			"model":          orUnknown(model.Stdout),
			"brand":          orUnknown(brand.Stdout),
			"androidVersion": orUnknown(version.Stdout),
		},
	}
}

func (e *Executor) hostInfo(targetID string) DeviceInfoResult {
	if !strings.EqualFold(targetID, e.hostID) {
		return DeviceInfoResult{Result: Failf(CodeValidation, "Only local host info is supported in this build.")}
	}
	return DeviceInfoResult{
		Result: Okf("Host info loaded."),
		Info:   hostFacts(e.hostID),
	}
}

// ListDeviceFiles lists a directory on a bridged device. Requires the
// list-accessible-files scope.
func (e *Executor) ListDeviceFiles(ctx context.Context, serial, remotePath string) FileListing {
	serial = strings.TrimSpace(serial)
	if serial == "" {
		return FileListing{Result: Failf(CodeValidation, "Device serial is required.")}
	}
	remotePath = NormalizeDevicePath(remotePath)
	if remotePath == "" {
		remotePath = "/sdcard"
	}

	if _, res := e.authorize("android", serial, ScopeListFiles); !res.OK {
		return FileListing{Result: res}
	}

	result := e.devices.Run(ctx, serial, "shell", "ls", "-1", remotePath)
	if !result.OK {
		return FileListing{Result: backendFailure(result, "Unable to list files on device."), Files: []string{}}
	}

	files := splitLines(result.Stdout)
	return FileListing{
		Result: Okf("Loaded %d item(s) from %s.", len(files), remotePath),
		Files:  files,
	}
}

// backendFailure turns a failed CommandResult into a Result, keeping
// the raw diagnostic for the operator.
func backendFailure(result CommandResult, fallback string) Result {
	return Failf(CodeBackendError, "%s", firstNonEmpty(result.Diagnostic(), fallback))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func orUnknown(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "(unknown)"
	}
	return v
}

func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// timestampText formats a clock reading for folder names.
func timestampText(c Clock) string {
	return c.Now().UTC().Format("20060102150405")
}
