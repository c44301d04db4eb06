package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// versionCheckTimeout is the timeout for connecting to a fleet node to
// retrieve its current state.
const versionCheckTimeout = 5 * time.Second

// newVersionCmd creates the Cobra command for displaying the application
// version. The command displays both the CLI version (from build-time
// injection) and the target node's fleet state, if reachable.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the supvisors CLI version and target fleet state",
		Long: `Displays the supvisors CLI version and, if a fleet node is reachable at
--target, that node's current fleet state (INITIALIZATION, DEPLOYMENT,
OPERATION, CONCILIATION, ...).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "supvisors version %s\n", rootCmd.Version)

			state, err := fetchFleetState(cmd.Context())
			if err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "\nFleet: (not reachable: %v)\n", err)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\nFleet state: %s\n", state)
			return nil
		},
	}
}

// fetchFleetState dials the target node's transport just long enough to run
// one STATUS RPC.
func fetchFleetState(ctx context.Context) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, versionCheckTimeout)
	defer cancel()

	client, bus, err := newOperatorClient(ctx)
	if err != nil {
		return "", err
	}
	defer bus.Close()

	snapshot, err := client.Status(ctx)
	if err != nil {
		return "", err
	}
	return snapshot.FleetState, nil
}
