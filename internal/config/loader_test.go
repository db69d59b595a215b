package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func unsetAgendaEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"AGENDA_DATABASE_PATH",
		"AGENDA_TIMEZONE",
		"AGENDA_HOUSEKEEPING_CRON",
		"AGENDA_EXPORT_DIR",
	} {
		// t.Setenv registers the restore; the empty value behaves as unset
		// because the loader ignores blanks.
		t.Setenv(key, "")
	}
}

func TestLoad(t *testing.T) {
	t.Run("writes defaults on first run", func(t *testing.T) {
		unsetAgendaEnv(t)
		path := filepath.Join(t.TempDir(), "agenda.yaml")

		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}
		if cfg != Default() {
			t.Fatalf("expected defaults, got %+v", cfg)
		}

		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("config file was not created: %v", err)
		}
		if perm := info.Mode().Perm(); perm != 0o600 {
			t.Fatalf("expected 0600 permissions, got %o", perm)
		}

		// A second load reads the file it just wrote.
		again, err := Load(path)
		if err != nil {
			t.Fatalf("second Load returned error: %v", err)
		}
		if again != cfg {
			t.Fatalf("reload mismatch: %+v vs %+v", again, cfg)
		}
	})

	t.Run("reads values from the file", func(t *testing.T) {
		unsetAgendaEnv(t)
		path := filepath.Join(t.TempDir(), "agenda.yaml")
		content := "database_path: /srv/agenda.db\ntimezone: Europe/Rome\nhousekeeping_cron: \"0 1 * * *\"\nexport_dir: /srv/exports\n"
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}
		if cfg.DatabasePath != "/srv/agenda.db" {
			t.Fatalf("unexpected database path: %q", cfg.DatabasePath)
		}
		if cfg.HousekeepingCron != "0 1 * * *" {
			t.Fatalf("unexpected cron: %q", cfg.HousekeepingCron)
		}
	})

	t.Run("environment overrides the file", func(t *testing.T) {
		unsetAgendaEnv(t)
		path := filepath.Join(t.TempDir(), "agenda.yaml")

		t.Setenv("AGENDA_DATABASE_PATH", "/tmp/override.db")
		t.Setenv("AGENDA_EXPORT_DIR", "/tmp/exports")

		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}
		if cfg.DatabasePath != "/tmp/override.db" {
			t.Fatalf("expected override, got %q", cfg.DatabasePath)
		}
		if cfg.ExportDir != "/tmp/exports" {
			t.Fatalf("expected override, got %q", cfg.ExportDir)
		}
		if cfg.Timezone != Default().Timezone {
			t.Fatalf("untouched field changed: %q", cfg.Timezone)
		}
	})

	t.Run("accumulates invalid values in one error", func(t *testing.T) {
		unsetAgendaEnv(t)
		path := filepath.Join(t.TempDir(), "agenda.yaml")
		content := "database_path: \"\"\ntimezone: \"\"\n"
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		_, err := Load(path)
		if err == nil {
			t.Fatal("expected error for blank required values")
		}
		for _, field := range []string{"database_path", "timezone"} {
			if !strings.Contains(err.Error(), field) {
				t.Fatalf("error %q does not mention %s", err.Error(), field)
			}
		}
	})

	t.Run("rejects malformed yaml", func(t *testing.T) {
		unsetAgendaEnv(t)
		path := filepath.Join(t.TempDir(), "agenda.yaml")
		if err := os.WriteFile(path, []byte("{not yaml"), 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		if _, err := Load(path); err == nil {
			t.Fatal("expected parse error")
		}
	})
}
