package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - DEVGATE_CONFIG_PATH: config file location (default: ~/.config/devgate.toml)
//   - DEVGATE_HOME: base directory for devgate data (default: ~/.local/share/devgate)
func GetDefaults() (map[string]string, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"log_dir":     filepath.Join(baseDir, "log"),
	}, nil
}

// getConfigPath returns the config file path, checking DEVGATE_CONFIG_PATH env var first,
// then falling back to the default ~/.config/devgate.toml.
func getConfigPath() (string, error) {
	if path := os.Getenv("DEVGATE_CONFIG_PATH"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "devgate.toml"), nil
}

// getBaseDir returns the base directory for devgate data, checking DEVGATE_HOME env var first,
// then falling back to the XDG default ~/.local/share/devgate.
func getBaseDir() (string, error) {
	if path := os.Getenv("DEVGATE_HOME"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "devgate"), nil
}
