package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"devgate/internal/bridge"
	"devgate/internal/config"
	"devgate/internal/encryption"
	"devgate/internal/fs"
	"devgate/internal/gate"
	"devgate/internal/mirror"
	"devgate/internal/store"
)

// App is the application layer between the CLI and the gate services.
// It constructs all dependencies from config and manages the store
// lifecycle on Close.
type App struct {
	cfg    *config.Config
	store  gate.DocumentStore
	logger gate.Logger

	Secret    *gate.SecretGate
	Consents  *gate.ConsentManager
	Executor  *gate.Executor
	Backups   *gate.BackupManager
	Scheduler *gate.Scheduler
	Encryptor gate.Encryptor
	Mirror    gate.Mirror

	logFile *os.File
}

// NewApp creates a fully wired App from the given config. operation
// identifies the CLI command being run (e.g. "ConsentRequest",
// "SchedulerRun") and tags every log line. The caller must call Close
// when done.
func NewApp(ctx context.Context, cfg *config.Config, operation string) (*App, error) {
	hostID := cfg.HostID
	if hostID == "" {
		name, err := os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("determining host id: %w", err)
		}
		hostID = name
	}

	opID := time.Now().UTC().Format("20060102T150405Z") + "-" + operation
	logger, logFile, err := newLogger(cfg.LogDir, opID)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	log := &slogAdapter{l: logger}

	st, err := store.NewStoreFromConfig(cfg.Store, hostID)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("creating store: %w", err)
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		st.Close()
		logFile.Close()
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}

	mir, err := mirror.NewMirrorFromConfig(ctx, cfg.Mirror)
	if err != nil {
		st.Close()
		logFile.Close()
		return nil, fmt.Errorf("creating mirror: %w", err)
	}

	paths, err := gate.NewPathPolicy(cfg.Paths.ExtraRoots...)
	if err != nil {
		st.Close()
		logFile.Close()
		return nil, fmt.Errorf("building path policy: %w", err)
	}

	timeout := time.Duration(cfg.Bridge.CommandTimeoutSeconds) * time.Second
	hostRunner := bridge.NewShellRunner(timeout, log)
	deviceRunner := bridge.NewADBBridge(cfg.Bridge.AdbPath, timeout, log)
	fsmgr := fs.NewOSFilesystemManagerWithIgnore(cfg.Backup.Ignore)

	clock := gate.RealClock{}
	idgen := gate.UUIDGenerator{}
	codes := gate.RandomCodeGenerator{}

	secret := gate.NewSecretGate(st, clock)
	if err := secret.Initialize(); err != nil {
		st.Close()
		logFile.Close()
		return nil, fmt.Errorf("initializing secret gate: %w", err)
	}

	consents := gate.NewConsentManager(st, clock, idgen, codes, log)

	tempDir := cfg.Backup.TempDir
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	exportRoot := cfg.Backup.ExportRoot

	executor := gate.NewExecutor(consents, secret, paths, hostRunner, deviceRunner, fsmgr, clock, log, hostID, tempDir, exportRoot)
	backups := gate.NewBackupManager(st, consents, secret, paths, deviceRunner, fsmgr, enc, mir, clock, idgen, log, hostID, cfg.Backup.DefaultRoot)
	scheduler := gate.NewScheduler(backups, log)

	return &App{
		cfg:       cfg,
		store:     st,
		logger:    log,
		Secret:    secret,
		Consents:  consents,
		Executor:  executor,
		Backups:   backups,
		Scheduler: scheduler,
		Encryptor: enc,
		Mirror:    mir,
		logFile:   logFile,
	}, nil
}

// HostID returns the consent identity of the local host.
func (a *App) HostID() string { return a.Executor.HostID() }

// Logger returns the app-wide structured logger.
func (a *App) Logger() gate.Logger { return a.logger }

// Close releases the store and the log file.
func (a *App) Close() error {
	var firstErr error
	if err := a.store.Close(); err != nil {
		firstErr = fmt.Errorf("closing store: %w", err)
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}
