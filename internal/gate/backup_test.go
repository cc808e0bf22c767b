package gate_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"devgate/internal/gate"
	"devgate/internal/mirror"
	"devgate/internal/testutil"
)

type backupFixture struct {
	backups  *gate.BackupManager
	consents *consentFixture
	devices  *testutil.MockDeviceRunner
	fs       *testutil.MockFilesystem
	mirror   *mirror.MemoryMirror
	root     string
}

// newBackupFixture wires a BackupManager against in-memory doubles.
// sealed controls whether the encryptor and mirror are attached.
func newBackupFixture(t *testing.T, sealed bool) *backupFixture {
	t.Helper()
	store := testutil.NewTestStore(t)
	clock := testutil.FixedClock()
	consents := &consentFixture{
		manager: gate.NewConsentManager(store, clock, testutil.NewStubIDGenerator(), testutil.NewStubCodeGenerator("123456"), gate.NewNopLogger()),
		store:   store,
		clock:   clock,
	}

	secret := gate.NewSecretGate(store, clock)
	if err := secret.Initialize(); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	root := t.TempDir()
	devices := testutil.NewMockDeviceRunner()
	fs := testutil.NewMockFilesystem()

	var encryptor gate.Encryptor
	var offsite *mirror.MemoryMirror
	var offsiteIface gate.Mirror
	if sealed {
		encryptor = testutil.NewTestEncryptor()
		offsite = mirror.NewMemoryMirror("test")
		offsiteIface = offsite
	}

	backups := gate.NewBackupManager(
		store, consents.manager, secret, gate.NewPathPolicyWithRoots(root),
		devices, fs, encryptor, offsiteIface,
		clock, testutil.NewStubIDGenerator(), gate.NewNopLogger(),
		"host-1", filepath.Join(root, "backups"))

	return &backupFixture{backups: backups, consents: consents, devices: devices, fs: fs, mirror: offsite, root: root}
}

func (f *backupFixture) createJob(t *testing.T, input gate.CreateJobInput) *gate.BackupJob {
	t.Helper()
	if input.AuthCode == "" {
		input.AuthCode = "621956"
	}
	res := f.backups.Create(input)
	if !res.OK {
		t.Fatalf("Create() failed: %s", res.Message)
	}
	return res.Job
}

func TestBackupManager_Create(t *testing.T) {
	t.Run("rejects missing fields", func(t *testing.T) {
		f := newBackupFixture(t, false)
		res := f.backups.Create(gate.CreateJobInput{DeviceType: "windows", AuthCode: "621956"})
		if res.OK || res.Code != gate.CodeValidation {
			t.Errorf("Create() = %+v, want validation failure", res.Result)
		}
	})

	t.Run("requires the secret code", func(t *testing.T) {
		f := newBackupFixture(t, false)
		f.consents.grant(t, "windows", "host-1", "developer", 0, true)
		res := f.backups.Create(gate.CreateJobInput{
			DeviceType: "windows", DeviceID: "host-1",
			SourcePath: filepath.Join(f.root, "docs"), AuthCode: "000000",
		})
		if res.OK || res.Code != gate.CodeAuthFailed {
			t.Errorf("Create() = %+v, want auth-failed", res.Result)
		}
	})

	t.Run("requires the run-backups scope", func(t *testing.T) {
		f := newBackupFixture(t, false)
		f.consents.grant(t, "windows", "host-1", "standard", 0, true)
		res := f.backups.Create(gate.CreateJobInput{
			DeviceType: "windows", DeviceID: "host-1",
			SourcePath: filepath.Join(f.root, "docs"), AuthCode: "621956",
		})
		if res.OK || res.Code != gate.CodeScopeDenied {
			t.Errorf("Create() = %+v, want scope-denied", res.Result)
		}
	})

	t.Run("applies the source allow-list", func(t *testing.T) {
		f := newBackupFixture(t, false)
		f.consents.grant(t, "windows", "host-1", "developer", 0, true)
		res := f.backups.Create(gate.CreateJobInput{
			DeviceType: "windows", DeviceID: "host-1",
			SourcePath: "/etc/passwd", AuthCode: "621956",
		})
		if res.OK || res.Code != gate.CodePathNotAllowed {
			t.Errorf("Create() = %+v, want path-not-allowed", res.Result)
		}
	})

	t.Run("clamps the interval", func(t *testing.T) {
		f := newBackupFixture(t, false)
		f.consents.grant(t, "windows", "host-1", "developer", 0, true)
		tests := []struct {
			minutes int
			want    int
		}{
			{0, 60},
			{3, 5},
			{60, 60},
			{5000, 1440},
		}
		for _, tt := range tests {
			job := f.createJob(t, gate.CreateJobInput{
				DeviceType: "windows", DeviceID: "host-1",
				SourcePath: filepath.Join(f.root, "docs"), IntervalMinutes: tt.minutes,
			})
			if job.IntervalMinutes != tt.want {
				t.Errorf("Create(interval=%d).IntervalMinutes = %d, want %d", tt.minutes, job.IntervalMinutes, tt.want)
			}
		}
	})

	t.Run("defaults label and root and starts enabled", func(t *testing.T) {
		f := newBackupFixture(t, false)
		f.consents.grant(t, "android", "serial-1", "developer", 0, true)
		job := f.createJob(t, gate.CreateJobInput{
			DeviceType: "android", DeviceID: "serial-1", SourcePath: "/sdcard/DCIM",
		})
		if job.Label != "android-serial-1" {
			t.Errorf("Label = %q", job.Label)
		}
		if job.BackupRoot != filepath.Join(f.root, "backups") {
			t.Errorf("BackupRoot = %q", job.BackupRoot)
		}
		if !job.Enabled || job.LastRunAt != nil || job.LastResult != "Never run" {
			t.Errorf("new job state = %+v", job)
		}
	})
}

func TestBackupManager_RunNow(t *testing.T) {
	ctx := context.Background()

	t.Run("backs up a host folder", func(t *testing.T) {
		f := newBackupFixture(t, false)
		f.consents.grant(t, "windows", "host-1", "developer", 0, true)
		source := filepath.Join(f.root, "docs")
		f.fs.AddFile(filepath.Join(source, "a.txt"), []byte("alpha"))

		job := f.createJob(t, gate.CreateJobInput{
			DeviceType: "windows", DeviceID: "host-1", SourcePath: source, Label: "My Docs!!",
		})
		res := f.backups.RunNow(ctx, job.ID)
		if !res.OK {
			t.Fatalf("RunNow() failed: %s", res.Message)
		}

		destination := filepath.Join(f.root, "backups", "my-docs-20240115103000")
		if !f.fs.Exists(filepath.Join(destination, "a.txt")) {
			t.Errorf("backup copy missing; message was %q", res.Message)
		}
		if res.Job.LastRunAt == nil || !strings.Contains(res.Job.LastResult, "Backup completed") {
			t.Errorf("run state = %+v", res.Job)
		}
	})

	t.Run("backs up a single host file into a folder", func(t *testing.T) {
		f := newBackupFixture(t, false)
		f.consents.grant(t, "windows", "host-1", "developer", 0, true)
		source := filepath.Join(f.root, "notes.txt")
		f.fs.AddFile(source, []byte("hello"))

		job := f.createJob(t, gate.CreateJobInput{
			DeviceType: "windows", DeviceID: "host-1", SourcePath: source, Label: "notes",
		})
		if res := f.backups.RunNow(ctx, job.ID); !res.OK {
			t.Fatalf("RunNow() failed: %s", res.Message)
		}
		copied := filepath.Join(f.root, "backups", "notes-20240115103000", "notes.txt")
		if !f.fs.Exists(copied) {
			t.Error("file copy missing")
		}
	})

	t.Run("pulls a device source through the bridge", func(t *testing.T) {
		f := newBackupFixture(t, false)
		f.consents.grant(t, "android", "serial-1", "developer", 0, true)
		job := f.createJob(t, gate.CreateJobInput{
			DeviceType: "android", DeviceID: "serial-1", SourcePath: "\\sdcard\\DCIM", Label: "photos",
		})
		if res := f.backups.RunNow(ctx, job.ID); !res.OK {
			t.Fatalf("RunNow() failed: %s", res.Message)
		}
		if len(f.devices.PullCalls) != 1 {
			t.Fatalf("got %d pull calls, want 1", len(f.devices.PullCalls))
		}
		call := f.devices.PullCalls[0]
		if call[0] != "serial-1" || call[1] != "/sdcard/DCIM" {
			t.Errorf("Pull call = %v", call)
		}
	})

	t.Run("records a revoked grant as a failed run", func(t *testing.T) {
		f := newBackupFixture(t, false)
		f.consents.grant(t, "windows", "host-1", "developer", 0, true)
		source := filepath.Join(f.root, "docs")
		f.fs.AddDir(source)
		job := f.createJob(t, gate.CreateJobInput{
			DeviceType: "windows", DeviceID: "host-1", SourcePath: source,
		})

		f.consents.manager.Revoke("windows", "host-1")

		res := f.backups.RunNow(ctx, job.ID)
		if res.OK || res.Code != gate.CodeAccessDenied {
			t.Errorf("RunNow() = %+v, want access-denied", res.Result)
		}
		if res.Job.LastRunAt == nil {
			t.Error("failed run did not stamp LastRunAt")
		}
		if !strings.Contains(res.Job.LastResult, "consent is not active") {
			t.Errorf("LastResult = %q", res.Job.LastResult)
		}
	})

	t.Run("unknown job is not-found", func(t *testing.T) {
		f := newBackupFixture(t, false)
		res := f.backups.RunNow(ctx, "missing")
		if res.OK || res.Code != gate.CodeNotFound {
			t.Errorf("RunNow() = %+v, want not-found", res.Result)
		}
	})
}

func TestBackupManager_SealAndMirror(t *testing.T) {
	ctx := context.Background()
	f := newBackupFixture(t, true)
	f.consents.grant(t, "windows", "host-1", "developer", 0, true)
	source := filepath.Join(f.root, "docs")
	f.fs.AddFile(filepath.Join(source, "a.txt"), []byte("alpha"))

	job := f.createJob(t, gate.CreateJobInput{
		DeviceType: "windows", DeviceID: "host-1", SourcePath: source, Label: "docs",
	})
	res := f.backups.RunNow(ctx, job.ID)
	if !res.OK {
		t.Fatalf("RunNow() failed: %s", res.Message)
	}

	destination := filepath.Join(f.root, "backups", "docs-20240115103000")
	if f.fs.Exists(destination) {
		t.Error("plaintext backup folder survived sealing")
	}
	if !f.fs.Exists(destination + ".tar.age") {
		t.Error("sealed archive missing")
	}

	key := "docs/docs-20240115103000.tar.age"
	payload, ok := f.mirror.Get(key)
	if !ok {
		t.Fatalf("mirror is missing %s; stored keys: %v", key, f.mirror.Keys())
	}
	if !strings.HasPrefix(string(payload), "DGENC") {
		t.Error("mirrored payload is not sealed")
	}
	if !strings.Contains(res.Job.LastResult, "mirrored as "+key) {
		t.Errorf("LastResult = %q", res.Job.LastResult)
	}
}

func TestBackupManager_RunDue(t *testing.T) {
	ctx := context.Background()
	f := newBackupFixture(t, false)
	f.consents.grant(t, "windows", "host-1", "developer", 0, true)
	source := filepath.Join(f.root, "docs")
	f.fs.AddDir(source)

	// Interval 3 clamps to the 5-minute floor.
	job := f.createJob(t, gate.CreateJobInput{
		DeviceType: "windows", DeviceID: "host-1", SourcePath: source, IntervalMinutes: 3,
	})
	disabled := f.createJob(t, gate.CreateJobInput{
		DeviceType: "windows", DeviceID: "host-1", SourcePath: source, IntervalMinutes: 3,
	})
	if res := f.backups.SetEnabled(disabled.ID, false); !res.OK {
		t.Fatalf("SetEnabled() failed: %s", res.Message)
	}

	// Never-run jobs are due immediately.
	ran, err := f.backups.RunDue(ctx)
	if err != nil {
		t.Fatalf("RunDue() error = %v", err)
	}
	if ran != 1 {
		t.Fatalf("first tick ran %d jobs, want 1", ran)
	}

	// Three minutes later the clamped five-minute interval has not elapsed.
	f.consents.clock.Advance(3 * time.Minute)
	if ran, _ = f.backups.RunDue(ctx); ran != 0 {
		t.Fatalf("second tick ran %d jobs, want 0", ran)
	}

	// Six minutes after the first run the job is due again.
	f.consents.clock.Advance(3 * time.Minute)
	if ran, _ = f.backups.RunDue(ctx); ran != 1 {
		t.Fatalf("third tick ran %d jobs, want 1", ran)
	}

	jobs, err := f.backups.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	for _, j := range jobs {
		switch j.ID {
		case job.ID:
			if j.LastRunAt == nil {
				t.Error("enabled job has no run state")
			}
		case disabled.ID:
			if j.LastRunAt != nil {
				t.Error("disabled job ran")
			}
		}
	}
}

func TestBackupManager_RemoveAndToggle(t *testing.T) {
	f := newBackupFixture(t, false)
	f.consents.grant(t, "windows", "host-1", "developer", 0, true)
	source := filepath.Join(f.root, "docs")
	f.fs.AddDir(source)
	job := f.createJob(t, gate.CreateJobInput{
		DeviceType: "windows", DeviceID: "host-1", SourcePath: source,
	})

	if res := f.backups.SetEnabled(job.ID, false); !res.OK || res.Job.Enabled {
		t.Errorf("SetEnabled(false) = %+v", res)
	}
	if res := f.backups.SetEnabled("missing", true); res.OK || res.Code != gate.CodeNotFound {
		t.Errorf("SetEnabled(missing) = %+v, want not-found", res.Result)
	}

	if res := f.backups.Remove(job.ID); !res.OK {
		t.Fatalf("Remove() failed: %s", res.Message)
	}
	if res := f.backups.Remove(job.ID); res.OK || res.Code != gate.CodeNotFound {
		t.Errorf("second Remove() = %+v, want not-found", res)
	}
	jobs, err := f.backups.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(jobs) != 0 {
		t.Errorf("got %d jobs after removal, want 0", len(jobs))
	}
}
