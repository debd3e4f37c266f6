// Package config loads and validates kvvaultd's server configuration: a
// YAML file (spec §6) overridable by command-line flags, validated with
// go-playground/validator before anything in the process starts.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the full set of server-level settings. Field names map to
// snake_case YAML keys matching the teacher/pack's convention for
// configuration structs.
type Config struct {
	BindHost         string `yaml:"bind_host" validate:"required"`
	BindPort         int    `yaml:"bind_port" validate:"required,min=1,max=65535"`
	BackupDir        string `yaml:"backup_dir" validate:"required"`
	MaxBackups       int    `yaml:"max_backups" validate:"required,min=1"`
	CleanupFrequency int    `yaml:"cleanup_frequency" validate:"required,min=1"` // seconds
	MetricsInterval  int    `yaml:"metrics_interval" validate:"required,min=1"`  // seconds
	RefreshInterval  int    `yaml:"refresh_interval" validate:"required,min=1"`  // seconds
	ManifestPath     string `yaml:"manifest_path" validate:"required"`
	WorkerPoolSize   int    `yaml:"worker_pool_size" validate:"required,min=1"`
	CollectMetrics   bool   `yaml:"collect_metrics"`
	SecretKeyEnv     string `yaml:"secret_key_env" validate:"required"`
}

// Default returns the configuration baseline spec §6 names as defaults:
// bind 127.0.0.1:6666, a 10-connection worker pool, 60s cleanup/metrics
// ticks, a 10s manifest refresh.
func Default() Config {
	return Config{
		BindHost:         "127.0.0.1",
		BindPort:         6666,
		BackupDir:        "./backups",
		MaxBackups:       10,
		CleanupFrequency: 60,
		MetricsInterval:  60,
		RefreshInterval:  10,
		ManifestPath:     "./.services",
		WorkerPoolSize:   10,
		CollectMetrics:   true,
		SecretKeyEnv:     "KVVAULT_SECRET_KEY",
	}
}

var validate = validator.New()

// Load reads and validates a YAML config file at path, starting from
// Default() so a partial file only overrides what it sets. A missing file
// is not an error — Default() is returned as-is.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, validate.Struct(cfg)
		}
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("config: invalid configuration: %w", err)
	}
	return cfg, nil
}
