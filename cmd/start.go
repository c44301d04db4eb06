package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var startWait bool

// newStartCmd builds the start command: it asks the target node to start every
// process of an application in start_sequence order, optionally blocking
// with a progress spinner until the application reports RUNNING.
func newStartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start <application>",
		Short: "Start an application across the fleet",
		Args:  cobra.ExactArgs(1),
		RunE:  runStart,
	}
	cmd.Flags().BoolVar(&startWait, "wait", true, "wait for the application to reach RUNNING")
	return cmd
}

func runStart(cmd *cobra.Command, args []string) error {
	name := args[0]
	ctx := cmd.Context()
	client, bus, err := newOperatorClient(ctx)
	if err != nil {
		return err
	}
	defer bus.Close()

	if err := client.StartApplication(ctx, name); err != nil {
		return err
	}

	if !startWait {
		fmt.Fprintf(cmd.OutOrStdout(), "start requested for %s\n", name)
		return nil
	}

	return waitForApplicationState(cmd, client, name, "RUNNING")
}
