package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines runtime settings for wifidoctor.
type Config struct {
	LogDir         string     `yaml:"logDir"`
	LogLevel       string     `yaml:"logLevel"`
	LogFormat      string     `yaml:"logFormat"`
	BackupDir      string     `yaml:"backupDir"`
	DriverProfiles string     `yaml:"driverProfiles"`
	Exec           ExecConfig `yaml:"exec"`
}

// ExecConfig bounds every external-process invocation.
type ExecConfig struct {
	Timeout   string   `yaml:"timeout"`
	MaxOutput int      `yaml:"maxOutput"`
	Blocklist []string `yaml:"blocklist"`
}

// ExecTimeout parses the configured timeout, falling back to five minutes.
func (c *Config) ExecTimeout() time.Duration {
	d, err := time.ParseDuration(c.Exec.Timeout)
	if err != nil || d <= 0 {
		return 5 * time.Minute
	}
	return d
}

// LoadConfig loads configuration from a YAML file and environment overrides.
// An empty path yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		LogDir:    "/var/log/wifidoctor",
		LogLevel:  "info",
		LogFormat: "text",
		BackupDir: "/var/backups/wifidoctor",
		Exec: ExecConfig{
			Timeout:   "5m",
			MaxOutput: 1 << 20,
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if logDir := os.Getenv("WIFIDOCTOR_LOG_DIR"); logDir != "" {
		cfg.LogDir = logDir
	}
	if logLevel := os.Getenv("WIFIDOCTOR_LOG_LEVEL"); logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if backupDir := os.Getenv("WIFIDOCTOR_BACKUP_DIR"); backupDir != "" {
		cfg.BackupDir = backupDir
	}
	if profiles := os.Getenv("WIFIDOCTOR_DRIVER_PROFILES"); profiles != "" {
		cfg.DriverProfiles = profiles
	}

	return cfg, nil
}

// DefaultConfigPath returns the default location for the CLI config file.
func DefaultConfigPath() string {
	if path := os.Getenv("WIFIDOCTOR_CONFIG"); path != "" {
		return path
	}
	candidate := "/etc/wifidoctor/config.yaml"
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".wifidoctor", "config.yaml")
}
