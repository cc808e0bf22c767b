package gate

import (
	"bytes"
	"context"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"
)

const (
	backupIntervalDefault = 60
	backupIntervalMin     = 5
	backupIntervalMax     = 24 * 60
	backupLabelMaxLength  = 40
)

// BackupJob is one recurring copy job. The scheduler exclusively owns
// LastRunAt/LastResult: nothing else writes run state except through a
// run operation.
type BackupJob struct {
	ID              string     `json:"id"`
	DeviceType      string     `json:"deviceType"`
	DeviceID        string     `json:"deviceId"`
	SourcePath      string     `json:"sourcePath"`
	Label           string     `json:"label"`
	BackupRoot      string     `json:"backupRoot"`
	IntervalMinutes int        `json:"intervalMinutes"`
	Enabled         bool       `json:"enabled"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
	LastRunAt       *time.Time `json:"lastRunAt"`
	LastResult      string     `json:"lastResult"`
}

// backupJobsDoc is the persisted job list document.
type backupJobsDoc struct {
	Jobs []BackupJob `json:"jobs"`
}

// CreateJobInput describes a new backup job.
type CreateJobInput struct {
	DeviceType      string
	DeviceID        string
	SourcePath      string
	Label           string
	BackupRoot      string
	IntervalMinutes int
	AuthCode        string
}

// JobResult is the outcome of one job mutation or run.
type JobResult struct {
	Result
	Job *BackupJob `json:"job,omitempty"`
}

// BackupManager owns the backup job store and performs job runs. Every
// run re-validates the owner grant and the source allow-list; run state
// is recorded regardless of outcome so a broken job is visibly retried
// instead of silently wedged.
type BackupManager struct {
	store     DocumentStore
	consents  *ConsentManager
	secret    *SecretGate
	paths     *PathPolicy
	devices   DeviceRunner
	fs        FilesystemManager
	encryptor Encryptor
	mirror    Mirror
	clock     Clock
	idgen     IDGenerator
	logger    Logger

	hostID      string
	defaultRoot string

	mu sync.Mutex // serializes read-modify-write of the job document
}

// NewBackupManager creates a BackupManager. encryptor and mirror may be
// nil; archives are then stored in plaintext and kept local only.
func NewBackupManager(store DocumentStore, consents *ConsentManager, secret *SecretGate, paths *PathPolicy, devices DeviceRunner, fs FilesystemManager, encryptor Encryptor, mirror Mirror, clock Clock, idgen IDGenerator, logger Logger, hostID, defaultRoot string) *BackupManager {
	return &BackupManager{
		store:       store,
		consents:    consents,
		secret:      secret,
		paths:       paths,
		devices:     devices,
		fs:          fs,
		encryptor:   encryptor,
		mirror:      mirror,
		clock:       clock,
		idgen:       idgen,
		logger:      logger,
		hostID:      hostID,
		defaultRoot: defaultRoot,
	}
}

// Create registers a new enabled backup job. Creation requires a live
// grant with the run-backups scope, the secret code, and an
// allow-listed source path; subsequent runs re-check the grant and path
// but never the secret.
func (m *BackupManager) Create(input CreateJobInput) JobResult {
	deviceType := strings.ToLower(strings.TrimSpace(input.DeviceType))
	deviceID := strings.TrimSpace(input.DeviceID)
	sourcePath := strings.TrimSpace(input.SourcePath)

	if !supportedDeviceTypes[deviceType] || deviceID == "" || sourcePath == "" {
		return JobResult{Result: Failf(CodeValidation, "deviceType, deviceId, and sourcePath are required.")}
	}
	if !m.secret.Validate(input.AuthCode) {
		return JobResult{Result: Failf(CodeAuthFailed, "Secret code validation failed.")}
	}
	if res := m.checkGrant(deviceType, deviceID); !res.OK {
		return JobResult{Result: res}
	}
	if res := m.checkSourcePath(deviceType, sourcePath); !res.OK {
		return JobResult{Result: res}
	}

	label := strings.TrimSpace(input.Label)
	if label == "" {
		label = deviceType + "-" + deviceID
	}
	backupRoot := strings.TrimSpace(input.BackupRoot)
	if backupRoot == "" {
		backupRoot = m.defaultRoot
	}

	now := m.clock.Now()
	job := BackupJob{
		ID:              m.idgen.New(),
		DeviceType:      deviceType,
		DeviceID:        deviceID,
		SourcePath:      sourcePath,
		Label:           label,
		BackupRoot:      backupRoot,
		IntervalMinutes: clampBackupInterval(input.IntervalMinutes),
		Enabled:         true,
		CreatedAt:       now,
		UpdatedAt:       now,
		LastResult:      "Never run",
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	doc, err := m.loadJobs()
	if err != nil {
		return JobResult{Result: storeFailure(err)}
	}
	doc.Jobs = append(doc.Jobs, job)
	if err := m.store.Write(DocBackupJobs, doc); err != nil {
		return JobResult{Result: storeFailure(err)}
	}

	m.logger.Info("backup job created", "job", job.ID, "device", DeviceKey(deviceType, deviceID), "interval", job.IntervalMinutes)
	return JobResult{Result: Okf("Background backup job created."), Job: &job}
}

// SetEnabled toggles a job on or off.
func (m *BackupManager) SetEnabled(jobID string, enabled bool) JobResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, err := m.loadJobs()
	if err != nil {
		return JobResult{Result: storeFailure(err)}
	}
	job := findJob(doc, jobID)
	if job == nil {
		return JobResult{Result: Failf(CodeNotFound, "Backup job not found.")}
	}
	job.Enabled = enabled
	job.UpdatedAt = m.clock.Now()
	if err := m.store.Write(DocBackupJobs, doc); err != nil {
		return JobResult{Result: storeFailure(err)}
	}

	if enabled {
		return JobResult{Result: Okf("Backup job enabled."), Job: job}
	}
	return JobResult{Result: Okf("Backup job disabled."), Job: job}
}

// Remove deletes a job.
func (m *BackupManager) Remove(jobID string) Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, err := m.loadJobs()
	if err != nil {
		return storeFailure(err)
	}

	kept := doc.Jobs[:0]
	for _, job := range doc.Jobs {
		if job.ID != jobID {
			kept = append(kept, job)
		}
	}
	if len(kept) == len(doc.Jobs) {
		return Failf(CodeNotFound, "Backup job not found.")
	}
	doc.Jobs = kept
	if err := m.store.Write(DocBackupJobs, doc); err != nil {
		return storeFailure(err)
	}
	return Okf("Backup job removed.")
}

// List returns all jobs.
func (m *BackupManager) List() ([]BackupJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, err := m.loadJobs()
	if err != nil {
		return nil, err
	}
	return doc.Jobs, nil
}

// RunNow runs one job immediately, bypassing the interval check but not
// the grant and allow-list checks. Run state is recorded either way.
func (m *BackupManager) RunNow(ctx context.Context, jobID string) JobResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, err := m.loadJobs()
	if err != nil {
		return JobResult{Result: storeFailure(err)}
	}
	job := findJob(doc, jobID)
	if job == nil {
		return JobResult{Result: Failf(CodeNotFound, "Backup job not found.")}
	}

	result := m.runOne(ctx, job)
	m.recordRun(job, result)
	if err := m.store.Write(DocBackupJobs, doc); err != nil {
		return JobResult{Result: storeFailure(err)}
	}
	return JobResult{Result: result, Job: job}
}

// RunDue runs every enabled job whose interval has elapsed. Jobs run
// sequentially; one job's failure never stops the rest. Returns the
// number of jobs that ran.
func (m *BackupManager) RunDue(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, err := m.loadJobs()
	if err != nil {
		return 0, err
	}

	ran := 0
	now := m.clock.Now()
	for i := range doc.Jobs {
		job := &doc.Jobs[i]
		if !job.Enabled {
			continue
		}
		interval := time.Duration(clampBackupInterval(job.IntervalMinutes)) * time.Minute
		var elapsed time.Duration
		if job.LastRunAt == nil {
			elapsed = interval // never run: due immediately
		} else {
			elapsed = now.Sub(*job.LastRunAt)
		}
		if elapsed < interval {
			continue
		}

		result := m.runOne(ctx, job)
		m.recordRun(job, result)
		ran++
	}

	if ran > 0 {
		if err := m.store.Write(DocBackupJobs, doc); err != nil {
			return ran, err
		}
	}
	return ran, nil
}

// recordRun stamps the job's run state with the outcome.
func (m *BackupManager) recordRun(job *BackupJob, result Result) {
	now := m.clock.Now()
	job.LastRunAt = &now
	job.UpdatedAt = now
	job.LastResult = result.Message
	if result.OK {
		m.logger.Info("backup job ran", "job", job.ID, "result", result.Message)
	} else {
		m.logger.Warn("backup job failed", "job", job.ID, "result", result.Message)
	}
}

// runOne performs a single copy run. Grant and allow-list are
// re-validated on every run; the secret gate applies at creation only.
func (m *BackupManager) runOne(ctx context.Context, job *BackupJob) Result {
	if res := m.checkGrant(job.DeviceType, job.DeviceID); !res.OK {
		return res
	}
	if res := m.checkSourcePath(job.DeviceType, job.SourcePath); !res.OK {
		return res
	}

	backupRoot := job.BackupRoot
	if backupRoot == "" {
		backupRoot = m.defaultRoot
	}
	if err := m.fs.EnsureDir(backupRoot); err != nil {
		return Failf(CodeBackendError, "Creating backup root failed: %v", err)
	}

	label := sanitizeBackupLabel(job.Label)
	destination := filepath.Join(backupRoot, label+"-"+timestampText(m.clock))

	switch job.DeviceType {
	case "windows":
		if res := m.copyHostSource(job.SourcePath, destination); !res.OK {
			return res
		}
	case "android":
		if err := m.fs.EnsureDir(destination); err != nil {
			return Failf(CodeBackendError, "Creating backup folder failed: %v", err)
		}
		if pull := m.devices.Pull(ctx, job.DeviceID, NormalizeDevicePath(job.SourcePath), destination); !pull.OK {
			return backendFailure(pull, "Device backup failed. Ensure the bridge authorization is active.")
		}
	default:
		return Failf(CodeValidation, "Unsupported backup device type.")
	}

	note := m.sealAndMirror(ctx, label, destination)
	return Okf("Backup completed: %s%s", destination, note)
}

// copyHostSource copies a host file or tree into destination.
func (m *BackupManager) copyHostSource(sourcePath, destination string) Result {
	if !m.fs.Exists(sourcePath) {
		return Failf(CodeValidation, "Backup source path does not exist.")
	}
	if m.fs.IsDir(sourcePath) {
		if err := m.fs.CopyTree(sourcePath, destination); err != nil {
			return Failf(CodeBackendError, "Host folder backup failed: %v", err)
		}
		return Result{OK: true}
	}
	if err := m.fs.EnsureDir(destination); err != nil {
		return Failf(CodeBackendError, "Creating backup folder failed: %v", err)
	}
	if err := m.fs.CopyFile(sourcePath, filepath.Join(destination, filepath.Base(sourcePath))); err != nil {
		return Failf(CodeBackendError, "Host file backup failed: %v", err)
	}
	return Result{OK: true}
}

// sealAndMirror optionally encrypts the finished backup folder into a
// sealed archive and pushes a copy to the offsite mirror. Both steps
// are best effort: their failures are reported in the run message but
// do not fail the local backup.
func (m *BackupManager) sealAndMirror(ctx context.Context, label, destination string) string {
	sealed := m.encryptor != nil && m.encryptor.IsConfigured()
	if !sealed && m.mirror == nil {
		return ""
	}

	var archive bytes.Buffer
	if err := m.fs.Archive(destination, &archive); err != nil {
		m.logger.Warn("archiving backup failed", "destination", destination, "error", err)
		return " (archive step failed: " + err.Error() + ")"
	}

	payload := archive.Bytes()
	suffix := ".tar"
	if sealed {
		var sealedBuf bytes.Buffer
		if err := m.encryptor.Encrypt(bytes.NewReader(payload), &sealedBuf); err != nil {
			m.logger.Warn("sealing backup failed", "destination", destination, "error", err)
			return " (seal step failed: " + err.Error() + ")"
		}
		payload = sealedBuf.Bytes()
		suffix = ".tar.age"

		if err := m.fs.WriteFile(destination+suffix, payload); err != nil {
			return " (writing sealed archive failed: " + err.Error() + ")"
		}
		// The plaintext folder is replaced by the sealed archive.
		if err := m.fs.RemovePath(destination); err != nil {
			m.logger.Warn("removing plaintext backup failed", "destination", destination, "error", err)
		}
	}

	if m.mirror != nil {
		key := label + "/" + filepath.Base(destination) + suffix
		if err := m.mirror.Put(ctx, key, bytes.NewReader(payload), int64(len(payload))); err != nil {
			m.logger.Warn("mirroring backup failed", "key", key, "error", err)
			return " (mirror step failed: " + err.Error() + ")"
		}
		return " (mirrored as " + key + ")"
	}
	if sealed {
		return " (sealed)"
	}
	return ""
}

// checkGrant verifies a live grant with the run-backups scope.
func (m *BackupManager) checkGrant(deviceType, deviceID string) Result {
	grant, err := m.consents.Get(deviceType, deviceID)
	if err != nil {
		return storeFailure(err)
	}
	if grant == nil {
		return Failf(CodeAccessDenied, "Access denied. Owner consent is not active.")
	}
	if !HasScope(grant, ScopeRunBackups) {
		return Failf(CodeScopeDenied, "Access denied. Owner granted limited scope; required scope missing: %s.", ScopeRunBackups)
	}
	return Result{OK: true}
}

// checkSourcePath applies the mutation allow-list to the job source.
func (m *BackupManager) checkSourcePath(deviceType, sourcePath string) Result {
	switch deviceType {
	case "windows":
		if !m.paths.HostPathAllowed(sourcePath) {
			return Failf(CodePathNotAllowed, "Backup source path is outside allowed scope. Allowed scope is your home/Documents directories.")
		}
	case "android":
		if !m.paths.DevicePathAllowed(sourcePath) {
			return Failf(CodePathNotAllowed, "Backup source path is outside allowed scope. Allowed scope is /sdcard/* or /storage/emulated/0/*.")
		}
	}
	return Result{OK: true}
}

// loadJobs reads the job document. Callers must hold m.mu.
func (m *BackupManager) loadJobs() (*backupJobsDoc, error) {
	doc := &backupJobsDoc{Jobs: []BackupJob{}}
	if _, err := m.store.Read(DocBackupJobs, doc); err != nil {
		return nil, err
	}
	if doc.Jobs == nil {
		doc.Jobs = []BackupJob{}
	}
	return doc, nil
}

func findJob(doc *backupJobsDoc, jobID string) *BackupJob {
	for i := range doc.Jobs {
		if doc.Jobs[i].ID == jobID {
			return &doc.Jobs[i]
		}
	}
	return nil
}

func clampBackupInterval(minutes int) int {
	if minutes <= 0 {
		return backupIntervalDefault
	}
	if minutes < backupIntervalMin {
		return backupIntervalMin
	}
	if minutes > backupIntervalMax {
		return backupIntervalMax
	}
	return minutes
}

var backupLabelStrip = regexp.MustCompile(`[^a-z0-9-_ ]+`)
var backupLabelSpaces = regexp.MustCompile(`\s+`)
var backupLabelDashes = regexp.MustCompile(`-+`)

// sanitizeBackupLabel normalizes a job label into a safe folder name
// component.
func sanitizeBackupLabel(label string) string {
	clean := strings.ToLower(strings.TrimSpace(label))
	clean = backupLabelStrip.ReplaceAllString(clean, "")
	clean = backupLabelSpaces.ReplaceAllString(clean, "-")
	clean = backupLabelDashes.ReplaceAllString(clean, "-")
	if len(clean) > backupLabelMaxLength {
		clean = clean[:backupLabelMaxLength]
	}
	if clean == "" {
		return "backup"
	}
	return clean
}
