package cmd

import (
	"context"
	"fmt"

	"github.com/julien6387/supvisors/internal/app"

	"github.com/spf13/cobra"
)

// serveDebug enables verbose logging across the application.
var serveDebug bool

// serveSilent discards log output instead of writing it to stdout, for use
// under a process supervisor that captures stdout separately.
var serveSilent bool

// newServeCmd builds the serve command: it boots one fleet node and runs
// its Listener until the process is stopped.
func newServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run this host as a fleet node",
		Long: `Starts a supvisors fleet node: it loads configuration, resolves this
host's address in the configured address_list, connects to the peer
transport, and runs the synchronization/operation/conciliation state
machine until the process is stopped.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "enable debug logging")
	serveCmd.Flags().BoolVar(&serveSilent, "silent", false, "discard log output")
	return serveCmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := &app.Config{
		ConfigPath: configPathFlag,
		Debug:      serveDebug,
		Silent:     serveSilent,
	}

	application, err := app.NewApplication(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return application.Run(ctx)
}
