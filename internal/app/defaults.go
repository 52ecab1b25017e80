package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - BERTHPLAN_CONFIG_PATH: config file location (default: ~/.config/berthplan.toml)
//   - BERTHPLAN_HOME: base directory for planning data (default: ~/.local/share/berthplan)
func GetDefaults() (map[string]string, error) {
	configPath, err := envOrHome("BERTHPLAN_CONFIG_PATH", ".config", "berthplan.toml")
	if err != nil {
		return nil, err
	}

	baseDir, err := envOrHome("BERTHPLAN_HOME", ".local", "share", "berthplan")
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"log_dir":     filepath.Join(baseDir, "log"),
	}, nil
}

// envOrHome returns the value of key, or the given path under the user's
// home directory when it is unset.
func envOrHome(key string, elem ...string) (string, error) {
	if path := os.Getenv(key); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(append([]string{homeDir}, elem...)...), nil
}
