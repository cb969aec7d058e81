package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigSaveAndLoad(t *testing.T) {
	// Use a temp dir as home
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)

	cfg := CLIConfig{ServerURL: "http://myhost:9090"}

	if err := saveConfig(cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Verify file exists
	path := filepath.Join(tmp, ".config", "shep", "config.yaml")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not found: %v", err)
	}

	loaded, err := loadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.ServerURL != cfg.ServerURL {
		t.Errorf("server_url = %q, want %q", loaded.ServerURL, cfg.ServerURL)
	}
}

func TestConfigLoadMissing(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("load missing: %v", err)
	}
	if cfg.ServerURL != "" {
		t.Error("expected zero-value config for missing file")
	}
}

func TestConfigLoadInvalid(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)

	path := filepath.Join(tmp, ".config", "shep", "config.yaml")
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("server_url: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := loadConfig(); err == nil {
		t.Error("expected parse error")
	}
}

func TestGetServerURL(t *testing.T) {
	tests := []struct {
		name   string
		flag   string
		env    string
		config string
		want   string
	}{
		{"nothing set means local", "", "", "", ""},
		{"config", "", "", "http://config:1", "http://config:1"},
		{"env beats config", "", "http://env:2", "http://config:1", "http://env:2"},
		{"flag beats env", "http://flag:3", "http://env:2", "http://config:1", "http://flag:3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("HOME", t.TempDir())
			t.Setenv("SHEP_SERVER_URL", tt.env)
			if tt.config != "" {
				if err := saveConfig(CLIConfig{ServerURL: tt.config}); err != nil {
					t.Fatal(err)
				}
			}
			flagServer = tt.flag
			t.Cleanup(func() { flagServer = "" })

			if got := getServerURL(); got != tt.want {
				t.Errorf("url = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConfigSetServerCommand(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SHEP_SERVER_URL", "")
	t.Setenv("SHEP_DB_DRIVER", "")
	t.Setenv("SHEP_DB_DSN", "")

	out, err := executeCommand("config", "set-server", "http://church.example:8080/")
	if err != nil {
		t.Fatalf("set-server: %v", err)
	}
	if !strings.Contains(out, "http://church.example:8080") {
		t.Errorf("output = %q", out)
	}

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ServerURL != "http://church.example:8080" {
		t.Errorf("server_url = %q, want trailing slash trimmed", cfg.ServerURL)
	}

	out, err = executeCommand("config", "show")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.Contains(out, "server http://church.example:8080") {
		t.Errorf("show output = %q", out)
	}

	if _, err := executeCommand("config", "set-server", ""); err != nil {
		t.Fatalf("clear: %v", err)
	}
	out, err = executeCommand("config", "show")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.Contains(out, "local sqlite3 database") {
		t.Errorf("show output after clear = %q", out)
	}
}

func TestConfigSetServerRejectsBadURL(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if _, err := executeCommand("config", "set-server", "church.example"); err == nil {
		t.Error("expected error for URL without scheme")
	}
}
