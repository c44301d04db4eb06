package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/julien6387/supvisors/internal/shell"
)

// newShellCmd builds the shell command: an interactive REPL over the same
// operator RPCs status/start/stop/conciliate use one at a time.
func newShellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Open an interactive fleet operator shell",
		Args:  cobra.NoArgs,
		RunE:  runShell,
	}
}

func runShell(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	client, bus, err := newOperatorClient(ctx)
	if err != nil {
		return err
	}
	defer bus.Close()

	sh, err := shell.NewShell(client)
	if err != nil {
		return err
	}
	return sh.Run(ctx)
}
