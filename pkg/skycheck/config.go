package skycheck

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds operator configuration consumed by the checker.
type Config struct {
	// AllowedClouds is the administrator allow-list of provider names.
	// Absent or empty means every provider is allowed.
	AllowedClouds []string `yaml:"allowed_clouds"`
}

// LoadConfig reads the configuration file at path. A missing file is not an
// error; it yields an empty configuration.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(ExpandUser(path))
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config file format: %w", err)
	}
	return &cfg, nil
}

// DefaultConfigPath returns the default path for the configuration file.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".skycheck", "config.yaml")
}
