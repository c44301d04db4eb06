package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newConciliateCmd builds the conciliate command: it resolves one
// conflicting process under the USER conciliation strategy by keeping it
// running on a chosen address and stopping every other address running it.
func newConciliateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "conciliate <application:process> <keep-address>",
		Short: "Resolve a running-on-multiple-addresses conflict",
		Long: `Under the USER conciliation strategy, a conflicting process is left
running everywhere it was reported until an operator decides which address
to keep. This command keeps the process running on keep-address and stops
every other address reporting it running.`,
		Args: cobra.ExactArgs(2),
		RunE: runConciliate,
	}
}

func runConciliate(cmd *cobra.Command, args []string) error {
	namespec, keepAddress := args[0], args[1]
	ctx := cmd.Context()
	client, bus, err := newOperatorClient(ctx)
	if err != nil {
		return err
	}
	defer bus.Close()

	if err := client.Conciliate(ctx, namespec, keepAddress); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s kept on %s, other addresses stopping\n", namespec, keepAddress)
	return nil
}
