package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config captures the agenda's file and environment driven settings.
type Config struct {
	// DatabasePath is where the SQLite file lives.
	DatabasePath string `yaml:"database_path"`
	// Timezone names the IANA zone used for "today" computations.
	Timezone string `yaml:"timezone"`
	// HousekeepingCron schedules the daily stale-rule extension.
	HousekeepingCron string `yaml:"housekeeping_cron"`
	// ExportDir is where ICS and XLSX exports are written.
	ExportDir string `yaml:"export_dir"`
}

// Default returns the configuration used when no file and no environment
// overrides are present.
func Default() Config {
	return Config{
		DatabasePath:     "agenda.db",
		Timezone:         "Europe/Rome",
		HousekeepingCron: "5 0 * * *",
		ExportDir:        ".",
	}
}

// Load reads the YAML config at path, writing it out with defaults on first
// run, then applies AGENDA_* environment overrides.
//
// The loader accumulates all invalid values before failing so a broken
// environment surfaces in one message.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := save(path, cfg); err != nil {
			return Config{}, fmt.Errorf("write default config %s: %w", path, err)
		}
	case err != nil:
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	invalid := make([]string, 0, 2)

	if value := strings.TrimSpace(os.Getenv("AGENDA_DATABASE_PATH")); value != "" {
		cfg.DatabasePath = value
	}
	if value := strings.TrimSpace(os.Getenv("AGENDA_TIMEZONE")); value != "" {
		cfg.Timezone = value
	}
	if value := strings.TrimSpace(os.Getenv("AGENDA_HOUSEKEEPING_CRON")); value != "" {
		cfg.HousekeepingCron = value
	}
	if value := strings.TrimSpace(os.Getenv("AGENDA_EXPORT_DIR")); value != "" {
		cfg.ExportDir = value
	}

	if strings.TrimSpace(cfg.DatabasePath) == "" {
		invalid = append(invalid, "database_path")
	}
	if strings.TrimSpace(cfg.Timezone) == "" {
		invalid = append(invalid, "timezone")
	}
	if strings.TrimSpace(cfg.HousekeepingCron) == "" {
		invalid = append(invalid, "housekeeping_cron")
	}
	if strings.TrimSpace(cfg.ExportDir) == "" {
		invalid = append(invalid, "export_dir")
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid configuration values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

// save writes the configuration as YAML, creating parent directories. The
// file carries user paths only, but 0600 keeps it private anyway.
func save(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o600)
}
