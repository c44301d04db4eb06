package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var stopWait bool

// newStopCmd builds the stop command: it asks the target node to stop every
// process of an application. The stop requests are sent all at once;
// stop_sequence does not order them.
func newStopCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stop <application>",
		Short: "Stop an application across the fleet",
		Args:  cobra.ExactArgs(1),
		RunE:  runStop,
	}
	cmd.Flags().BoolVar(&stopWait, "wait", true, "wait for the application to reach STOPPED")
	return cmd
}

func runStop(cmd *cobra.Command, args []string) error {
	name := args[0]
	ctx := cmd.Context()
	client, bus, err := newOperatorClient(ctx)
	if err != nil {
		return err
	}
	defer bus.Close()

	if err := client.StopApplication(ctx, name); err != nil {
		return err
	}

	if !stopWait {
		fmt.Fprintf(cmd.OutOrStdout(), "stop requested for %s\n", name)
		return nil
	}

	return waitForApplicationState(cmd, client, name, "STOPPED")
}
