// Package cli defines the cobra command tree for shep.
package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var (
	flagFormat string
	flagDB     string
	flagDriver string
	flagServer string
)

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "shep",
		Short:         "Track pastoral follow-ups",
		Long:          "A tool for church staff to record pastoral follow-ups for members, assign them, and track them until they are done. Works on a local database or against a shep server.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format (text|json)")
	root.PersistentFlags().StringVar(&flagDB, "db", "", "database DSN or SQLite path (default: $SHEP_DB_DSN or ~/.shepherd/shepherd.db)")
	root.PersistentFlags().StringVar(&flagDriver, "driver", "", "database driver (sqlite3|postgres)")
	root.PersistentFlags().StringVar(&flagServer, "server", "", "shep server URL; overrides the local database")

	root.AddCommand(
		newAddCmd(),
		newListCmd(),
		newShowCmd(),
		newUpdateCmd(),
		newCompleteCmd(),
		newNextCmd(),
		newRemoveCmd(),
		newStatsCmd(),
		newMemberCmd(),
		newServeCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)

	return root
}

// isJSON returns true if the --format flag is set to json.
func isJSON() bool {
	return flagFormat == "json"
}

// closeBackend closes the backend, logging any error to stderr.
func closeBackend(cmd *cobra.Command, b backend) {
	if err := b.Close(); err != nil {
		warn(cmd.ErrOrStderr(), "closing database: %v", err)
	}
}

func warn(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, "warning: "+format+"\n", args...)
}
