package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/evcraddock/shepherd/internal/db"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"SHEP_DB_DRIVER", "SHEP_DB_DSN", "SHEP_PORT", "SHEP_DEV", "DATABASE_URL"} {
		t.Setenv(k, "")
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DBDriver != db.DriverSQLite {
		t.Errorf("driver = %q, want %q", cfg.DBDriver, db.DriverSQLite)
	}
	if filepath.Base(cfg.DBDSN) != "shepherd.db" {
		t.Errorf("dsn = %q, want default sqlite path", cfg.DBDSN)
	}
	if cfg.Port != DefaultPort || cfg.Addr() != ":8080" {
		t.Errorf("port = %d, addr = %q", cfg.Port, cfg.Addr())
	}
	if cfg.Dev {
		t.Error("dev should default to false")
	}
}

func TestFromEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("SHEP_DB_DRIVER", "postgres")
	t.Setenv("SHEP_DB_DSN", "postgres://shep@localhost/shep")
	t.Setenv("SHEP_PORT", "9090")
	t.Setenv("SHEP_DEV", "true")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Config{DBDriver: db.DriverPostgres, DBDSN: "postgres://shep@localhost/shep", Port: 9090, Dev: true}
	if cfg != want {
		t.Errorf("config = %+v, want %+v", cfg, want)
	}
}

func TestFromEnvDatabaseURLFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv("SHEP_DB_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://fallback/db")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DBDSN != "postgres://fallback/db" {
		t.Errorf("dsn = %q", cfg.DBDSN)
	}
}

func TestFromEnvErrors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"unknown driver", map[string]string{"SHEP_DB_DRIVER": "mysql"}, "SHEP_DB_DRIVER"},
		{"postgres without dsn", map[string]string{"SHEP_DB_DRIVER": "postgres"}, "DATABASE_URL"},
		{"bad port", map[string]string{"SHEP_PORT": "eighty"}, "SHEP_PORT"},
		{"port out of range", map[string]string{"SHEP_PORT": "70000"}, "SHEP_PORT"},
		{"bad dev flag", map[string]string{"SHEP_DEV": "sometimes"}, "SHEP_DEV"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("HOME", t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := FromEnv()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q should mention %s", err, tt.wantErr)
			}
		})
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())
	// godotenv never overrides a variable that is already set, even to "".
	os.Unsetenv("SHEP_PORT")
	t.Cleanup(func() { os.Unsetenv("SHEP_PORT") })

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("SHEP_PORT=7070\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != 7070 {
		t.Errorf("port = %d, want 7070 from .env", cfg.Port)
	}
}
