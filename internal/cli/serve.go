package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/evcraddock/shepherd/internal/config"
	"github.com/evcraddock/shepherd/internal/db"
	"github.com/evcraddock/shepherd/internal/followup"
	"github.com/evcraddock/shepherd/internal/logging"
	"github.com/evcraddock/shepherd/internal/member"
	"github.com/evcraddock/shepherd/internal/web"
)

func newServeCmd() *cobra.Command {
	var (
		port int
		dev  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the JSON API server",
		Long:  "Start an HTTP server exposing the follow-up and member API. Settings come from .env and SHEP_* variables; flags override them.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if cmd.Flags().Changed("dev") {
				cfg.Dev = dev
			}
			if flagDriver != "" {
				cfg.DBDriver = flagDriver
			}
			if flagDB != "" {
				cfg.DBDSN = flagDB
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg)
		},
	}

	cmd.Flags().IntVar(&port, "port", config.DefaultPort, "port to listen on")
	cmd.Flags().BoolVar(&dev, "dev", false, "human-readable debug logging")

	return cmd
}

func runServe(ctx context.Context, cfg config.Config) error {
	logging.Setup(cfg.Dev)

	database, err := db.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		if err := database.Close(); err != nil {
			warn(os.Stderr, "closing database: %v", err)
		}
	}()

	members := member.NewRepository(database)
	svc := followup.NewService(followup.NewRepository(database), members)

	return web.NewServer(svc, members).ListenAndServe(ctx, cfg.Addr())
}
