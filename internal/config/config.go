package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the main configuration for devgate.
type Config struct {
	HostID     string           `toml:"host_id"`
	BaseDir    string           `toml:"base_dir"`
	LogDir     string           `toml:"log_dir"`
	Store      StoreConfig      `toml:"store"`
	Bridge     BridgeConfig     `toml:"bridge"`
	Backup     BackupConfig     `toml:"backup"`
	Paths      PathsConfig      `toml:"paths"`
	Encryption EncryptionConfig `toml:"encryption"`
	Mirror     MirrorConfig     `toml:"mirror"`
}

// StoreConfig represents configuration for the state document store.
// This uses a tagged union pattern - the Type field determines which
// other fields are relevant.
type StoreConfig struct {
	Type    string `toml:"type"`               // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// BridgeConfig holds settings for the device bridge and host shell.
type BridgeConfig struct {
	AdbPath               string `toml:"adb_path"`
	CommandTimeoutSeconds int    `toml:"command_timeout_seconds"`
}

// BackupConfig holds the filesystem roots used by backup jobs and
// browser exports. Ignore patterns are skipped when copying or
// archiving host trees.
type BackupConfig struct {
	DefaultRoot string   `toml:"default_root"`
	ExportRoot  string   `toml:"export_root"`
	TempDir     string   `toml:"temp_dir"`
	Ignore      []string `toml:"ignore"`
}

// PathsConfig extends the host mutation allow-list. The operator's home
// and Documents directories are always included.
type PathsConfig struct {
	ExtraRoots []string `toml:"extra_roots"`
}

// EncryptionConfig holds paths to the age key pair used to seal backup
// archives.
type EncryptionConfig struct {
	Type           string `toml:"type"` // "age" (default), "test", or "none"
	PublicKeyPath  string `toml:"public_key_path"`
	PrivateKeyPath string `toml:"private_key_path"`
}

// MirrorConfig represents configuration for the offsite archive mirror.
// This uses a tagged union pattern - the Type field determines which
// other fields are relevant.
type MirrorConfig struct {
	Type string `toml:"type"` // "none", "memory", "filesystem", or "s3"
	Name string `toml:"name"`

	// S3-specific fields (only used when Type == "s3"). Credentials may
	// be left empty to use the ambient AWS credential chain.
	S3Bucket          string `toml:"s3_bucket,omitempty"`
	S3Prefix          string `toml:"s3_prefix,omitempty"`
	S3Region          string `toml:"s3_region,omitempty"`
	S3Endpoint        string `toml:"s3_endpoint,omitempty"`
	S3AccessKeyID     string `toml:"s3_access_key_id,omitempty"`
	S3SecretAccessKey string `toml:"s3_secret_access_key,omitempty"`

	// FileSystem-specific fields (only used when Type == "filesystem")
	FSMirrorRoot string `toml:"fs_mirror_root,omitempty"`
}

// NewConfig creates a new Config with the provided values and default paths.
func NewConfig(hostID, baseDir string) *Config {
	return &Config{
		HostID:  hostID,
		BaseDir: baseDir,
		LogDir:  filepath.Join(baseDir, "log"),
		Store: StoreConfig{
			Type:    "sqlite",
			DataDir: filepath.Join(baseDir, "data"),
		},
		Bridge: BridgeConfig{
			AdbPath:               "adb",
			CommandTimeoutSeconds: 30,
		},
		Backup: BackupConfig{
			DefaultRoot: filepath.Join(baseDir, "backups"),
			ExportRoot:  filepath.Join(baseDir, "exports"),
			TempDir:     filepath.Join(baseDir, "tmp"),
		},
		Encryption: EncryptionConfig{
			PublicKeyPath:  filepath.Join(baseDir, "keys", "devgate.pub"),
			PrivateKeyPath: filepath.Join(baseDir, "keys", "devgate.key"),
		},
		Mirror: MirrorConfig{
			Type: "none",
		},
	}
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to the specified file path.
// This is an internal helper and should not be exported.
func writeToFile(path string, cfg *Config) error {
	// Ensure the directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	// Check if config already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
