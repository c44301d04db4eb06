package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/julien6387/supvisors/internal/cli"
)

const (
	waitPollInterval = 500 * time.Millisecond
	waitTimeout      = 30 * time.Second
)

// waitForApplicationState polls Status every waitPollInterval, showing a
// spinner, until the named application reports wantState or waitTimeout
// elapses.
func waitForApplicationState(cmd *cobra.Command, client *cli.Client, name, wantState string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), waitTimeout)
	defer cancel()

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = fmt.Sprintf(" waiting for %s to reach %s", name, wantState)
	s.Start()
	defer s.Stop()

	ticker := time.NewTicker(waitPollInterval)
	defer ticker.Stop()

	for {
		snapshot, err := client.Status(ctx)
		if err != nil {
			return err
		}
		for _, app := range snapshot.Applications {
			if app.Name == name && app.State == wantState {
				s.Stop()
				fmt.Fprintf(cmd.OutOrStdout(), "%s is %s\n", name, wantState)
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("timed out waiting for %s to reach %s", name, wantState)
		case <-ticker.C:
		}
	}
}
