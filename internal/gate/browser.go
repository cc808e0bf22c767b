package gate

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// BrowserSource is one discoverable browser data file or location.
type BrowserSource struct {
	Browser  string `json:"browser"`
	Kind     string `json:"kind"`
	Location string `json:"location"`
}

// BrowserSourcesResult lists discoverable browser data sources.
type BrowserSourcesResult struct {
	Result
	Sources []BrowserSource `json:"sources"`
}

// BrowserExportResult reports an export run.
type BrowserExportResult struct {
	Result
	DestinationPath string   `json:"destinationPath"`
	Files           []string `json:"files"`
	Skipped         []string `json:"skipped,omitempty"`
}

// knownDeviceBrowserPackages are the Android browser packages surfaced
// during source discovery. Only owner-exported files in shared storage
// can actually be pulled.
var knownDeviceBrowserPackages = []string{
	"com.android.chrome",
	"org.mozilla.firefox",
	"com.microsoft.emmx",
	"com.brave.browser",
	"com.opera.browser",
}

// exportCandidatePattern selects owner-exported browser files in a
// device's shared storage.
var exportCandidatePattern = regexp.MustCompile(`(?i)(bookmark|history|browser|export)|\.(html|json|csv|txt)$`)

// ListBrowserSources discovers exportable browser data for an endpoint.
// Requires the browser-export scope.
func (e *Executor) ListBrowserSources(ctx context.Context, deviceType, deviceID string) BrowserSourcesResult {
	deviceType = strings.ToLower(strings.TrimSpace(deviceType))
	deviceID = strings.TrimSpace(deviceID)
	if !supportedDeviceTypes[deviceType] || deviceID == "" {
		return BrowserSourcesResult{Result: Failf(CodeValidation, "deviceType and deviceId are required."), Sources: []BrowserSource{}}
	}

	if _, res := e.authorize(deviceType, deviceID, ScopeBrowserExport); !res.OK {
		return BrowserSourcesResult{Result: res, Sources: []BrowserSource{}}
	}

	if deviceType == "windows" {
		if !strings.EqualFold(deviceID, e.hostID) {
			return BrowserSourcesResult{Result: Failf(CodeValidation, "Only local host browser sources are supported in this build."), Sources: []BrowserSource{}}
		}
		sources := e.hostBrowserSources()
		return BrowserSourcesResult{
			Result:  Okf("Found %d browser data file(s) on the host.", len(sources)),
			Sources: sources,
		}
	}

	pkgResult := e.devices.Run(ctx, deviceID, "shell", "cmd", "package", "list", "packages")
	if !pkgResult.OK {
		return BrowserSourcesResult{Result: backendFailure(pkgResult, "Unable to read device package list."), Sources: []BrowserSource{}}
	}

	installed := map[string]bool{}
	for _, line := range splitLines(pkgResult.Stdout) {
		installed[strings.TrimPrefix(line, "package:")] = true
	}

	var sources []BrowserSource
	for _, pkg := range knownDeviceBrowserPackages {
		if installed[pkg] {
			sources = append(sources, BrowserSource{
				Browser:  pkg,
				Kind:     "owner-exported-files-only",
				Location: "/sdcard/Download",
			})
		}
	}
	return BrowserSourcesResult{
		Result:  Okf("Device browser packages listed. Only owner-exported files in shared storage can be pulled."),
		Sources: sources,
	}
}

// ExportBrowserData copies browser data files into a timestamped folder
// under the export root. Requires the browser-export scope and the
// secret code.
func (e *Executor) ExportBrowserData(ctx context.Context, deviceType, deviceID, authCode, sourcePath string) BrowserExportResult {
	deviceType = strings.ToLower(strings.TrimSpace(deviceType))
	switch deviceType {
	case "windows":
		return e.exportHostBrowserData(deviceID, authCode)
	case "android":
		return e.exportDeviceBrowserData(ctx, deviceID, authCode, sourcePath)
	default:
		return BrowserExportResult{Result: Failf(CodeValidation, "Unsupported device type for browser export."), Files: []string{}}
	}
}

func (e *Executor) exportHostBrowserData(targetID, authCode string) BrowserExportResult {
	targetID = strings.TrimSpace(targetID)
	if targetID == "" {
		targetID = e.hostID
	}
	if !strings.EqualFold(targetID, e.hostID) {
		return BrowserExportResult{Result: Failf(CodeValidation, "Only local host browser export is supported in this build."), Files: []string{}}
	}

	if _, res := e.authorize("windows", targetID, ScopeBrowserExport); !res.OK {
		return BrowserExportResult{Result: res, Files: []string{}}
	}
	if !e.secret.Validate(authCode) {
		return BrowserExportResult{Result: Failf(CodeAuthFailed, "Passcode validation failed for browser export."), Files: []string{}}
	}

	sources := e.hostBrowserSources()
	if len(sources) == 0 {
		return BrowserExportResult{Result: Failf(CodeNotFound, "No supported host browser data files were found."), Files: []string{}}
	}

	destination := filepath.Join(e.exportRoot, "host-"+strings.ToLower(targetID)+"-"+timestampText(e.clock))
	if err := e.fs.EnsureDir(destination); err != nil {
		return BrowserExportResult{Result: Failf(CodeBackendError, "Creating export folder failed: %v", err), Files: []string{}}
	}

	var copied, skipped []string
	for _, source := range sources {
		name := sanitizeFileToken(source.Browser) + "-" + sanitizeFileToken(source.Kind) + filepath.Ext(source.Location)
		target := filepath.Join(destination, name)
		if err := e.fs.CopyFile(source.Location, target); err != nil {
			skipped = append(skipped, source.Browser+":"+source.Kind+" ("+err.Error()+")")
			continue
		}
		copied = append(copied, target)
	}

	if len(copied) == 0 {
		return BrowserExportResult{
			Result:          Failf(CodeBackendError, "No browser files could be exported. Close browser apps and retry."),
			DestinationPath: destination,
			Files:           []string{},
			Skipped:         skipped,
		}
	}
	e.logger.Info("host browser export complete", "destination", destination, "copied", len(copied), "skipped", len(skipped))
	return BrowserExportResult{
		Result:          Okf("Exported %d browser file(s).", len(copied)),
		DestinationPath: destination,
		Files:           copied,
		Skipped:         skipped,
	}
}

func (e *Executor) exportDeviceBrowserData(ctx context.Context, serial, authCode, sourcePath string) BrowserExportResult {
	serial = strings.TrimSpace(serial)
	if serial == "" {
		return BrowserExportResult{Result: Failf(CodeValidation, "Device id is required."), Files: []string{}}
	}

	if _, res := e.authorize("android", serial, ScopeBrowserExport); !res.OK {
		return BrowserExportResult{Result: res, Files: []string{}}
	}
	if !e.secret.Validate(authCode) {
		return BrowserExportResult{Result: Failf(CodeAuthFailed, "Passcode validation failed for browser export."), Files: []string{}}
	}

	source := NormalizeDevicePath(sourcePath)
	if source == "" {
		source = "/sdcard/Download"
	}
	if !e.paths.DevicePathAllowed(source) {
		return BrowserExportResult{Result: Failf(CodePathNotAllowed, "Device source path must be in shared storage (/sdcard/* or /storage/emulated/0/*)."), Files: []string{}}
	}

	listResult := e.devices.Run(ctx, serial, "shell", "ls", "-1", source)
	if !listResult.OK {
		return BrowserExportResult{Result: backendFailure(listResult, "Could not list device shared storage path."), Files: []string{}}
	}

	var candidates []string
	for _, name := range splitLines(listResult.Stdout) {
		if exportCandidatePattern.MatchString(name) {
			candidates = append(candidates, name)
		}
	}
	if len(candidates) == 0 {
		return BrowserExportResult{Result: Failf(CodeNotFound, "No owner-exported browser files found in shared storage. Export from the browser app first."), Files: []string{}}
	}

	destination := filepath.Join(e.exportRoot, "android-"+sanitizeFileToken(serial)+"-"+timestampText(e.clock))
	if err := e.fs.EnsureDir(destination); err != nil {
		return BrowserExportResult{Result: Failf(CodeBackendError, "Creating export folder failed: %v", err), Files: []string{}}
	}

	var pulled, skipped []string
	for _, name := range candidates {
		remoteFile := strings.TrimRight(source, "/") + "/" + name
		if pull := e.devices.Pull(ctx, serial, remoteFile, destination); !pull.OK {
			skipped = append(skipped, name+" ("+firstNonEmpty(pull.Diagnostic(), "pull failed")+")")
			continue
		}
		pulled = append(pulled, filepath.Join(destination, name))
	}

	if len(pulled) == 0 {
		return BrowserExportResult{
			Result:          Failf(CodeBackendError, "No files could be pulled from device shared storage."),
			DestinationPath: destination,
			Files:           []string{},
			Skipped:         skipped,
		}
	}
	e.logger.Info("device browser export complete", "device", serial, "destination", destination, "pulled", len(pulled))
	return BrowserExportResult{
		Result:          Okf("Pulled %d owner-exported browser file(s).", len(pulled)),
		DestinationPath: destination,
		Files:           pulled,
		Skipped:         skipped,
	}
}

// hostBrowserSources returns the browser profile files present on the
// local host. Locations are fixed per platform; only existing files are
// reported.
func (e *Executor) hostBrowserSources() []BrowserSource {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}

	var sources []BrowserSource
	for _, candidate := range browserProfileCandidates(home) {
		if strings.Contains(candidate.Location, "*") {
			// Firefox keeps per-profile folders with random names.
			matches, _ := filepath.Glob(candidate.Location)
			for _, match := range matches {
				if e.fs.Exists(match) {
					sources = append(sources, BrowserSource{Browser: candidate.Browser, Kind: candidate.Kind, Location: match})
				}
			}
			continue
		}
		if e.fs.Exists(candidate.Location) {
			sources = append(sources, candidate)
		}
	}
	return sources
}

// browserProfileCandidates lists the well-known browser data file
// locations for the current platform relative to the home directory.
func browserProfileCandidates(home string) []BrowserSource {
	chromish := func(browser string, base ...string) []BrowserSource {
		dir := filepath.Join(base...)
		return []BrowserSource{
			{Browser: browser, Kind: "bookmarks", Location: filepath.Join(dir, "Bookmarks")},
			{Browser: browser, Kind: "history", Location: filepath.Join(dir, "History")},
		}
	}

	var candidates []BrowserSource
	candidates = append(candidates, chromish("chrome", home, ".config", "google-chrome", "Default")...)
	candidates = append(candidates, chromish("chromium", home, ".config", "chromium", "Default")...)
	candidates = append(candidates, chromish("brave", home, ".config", "BraveSoftware", "Brave-Browser", "Default")...)
	candidates = append(candidates, chromish("edge", home, ".config", "microsoft-edge", "Default")...)
	candidates = append(candidates, BrowserSource{
		Browser:  "firefox",
		Kind:     "history+bookmarks",
		Location: filepath.Join(home, ".mozilla", "firefox", "*", "places.sqlite"),
	})
	return candidates
}

var fileTokenPattern = regexp.MustCompile(`[^a-z0-9-]+`)

// sanitizeFileToken lowercases a value and strips anything unsafe for a
// folder or file name component.
func sanitizeFileToken(v string) string {
	return fileTokenPattern.ReplaceAllString(strings.ToLower(v), "")
}
