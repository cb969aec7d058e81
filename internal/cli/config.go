package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/evcraddock/shepherd/internal/db"
)

// CLIConfig holds CLI configuration persisted to disk.
type CLIConfig struct {
	ServerURL string `yaml:"server_url,omitempty"`
}

// configPath returns the path to the CLI config file.
func configPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "shep", "config.yaml"), nil
}

// loadConfig reads the CLI config from disk.
// Returns a zero-value config if the file doesn't exist.
func loadConfig() (CLIConfig, error) {
	path, err := configPath()
	if err != nil {
		return CLIConfig{}, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return CLIConfig{}, nil
	}
	if err != nil {
		return CLIConfig{}, fmt.Errorf("reading config: %w", err)
	}

	var cfg CLIConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return CLIConfig{}, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// saveConfig writes the CLI config to disk.
func saveConfig(cfg CLIConfig) error {
	path, err := configPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// getServerURL returns the server URL from --server, env var or config.
// Empty means use the local database.
func getServerURL() string {
	if flagServer != "" {
		return flagServer
	}
	if v := os.Getenv("SHEP_SERVER_URL"); v != "" {
		return v
	}
	cfg, err := loadConfig()
	if err == nil {
		return cfg.ServerURL
	}
	return ""
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "set-server <url>",
			Short: "Send commands to a shep server instead of the local database",
			Long:  "Store the server URL in ~/.config/shep/config.yaml. Pass an empty string to go back to the local database.",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				url := strings.TrimRight(strings.TrimSpace(args[0]), "/")
				if url != "" && !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
					return fmt.Errorf("server URL must start with http:// or https://")
				}

				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				cfg.ServerURL = url
				if err := saveConfig(cfg); err != nil {
					return err
				}

				if isJSON() {
					return printJSON(cmd.OutOrStdout(), cfg)
				}
				if url == "" {
					fmt.Fprintln(cmd.OutOrStdout(), "Server cleared; using the local database.")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Server set to %s\n", url)
				return nil
			},
		},
		&cobra.Command{
			Use:   "show",
			Short: "Show where commands are sent",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				path, err := configPath()
				if err != nil {
					return err
				}
				url := getServerURL()

				if isJSON() {
					return printJSON(cmd.OutOrStdout(), map[string]string{
						"config_path": path,
						"server_url":  url,
					})
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Config:  %s\n", path)
				if url == "" {
					driver, dsn, err := localDSN()
					if err != nil {
						return err
					}
					if driver == db.DriverPostgres {
						// The DSN may carry a password.
						dsn = "(from --db or environment)"
					}
					fmt.Fprintf(out, "Backend: local %s database at %s\n", driver, dsn)
					return nil
				}
				fmt.Fprintf(out, "Backend: server %s\n", url)
				return nil
			},
		},
	)

	return cmd
}
