package cmd

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	sigsyaml "sigs.k8s.io/yaml"

	pkgstrings "github.com/julien6387/supvisors/pkg/strings"
)

var statusOutput string

// newStatusCmd builds the status command: a snapshot of the fleet and its
// applications as seen by --target, rendered as two tables or, with
// --output yaml, as the raw snapshot in the same YAML rendering kubectl
// uses for its own API objects.
func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show fleet and application status",
		Long:  `Queries --target for its current fleet state, address liveness, and application/process state, and renders both as tables.`,
		Args:  cobra.NoArgs,
		RunE:  runStatus,
	}
	cmd.Flags().StringVarP(&statusOutput, "output", "o", "table", `output format: "table" or "yaml"`)
	return cmd
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	client, bus, err := newOperatorClient(ctx)
	if err != nil {
		return err
	}
	defer bus.Close()

	snapshot, err := client.Status(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if statusOutput == "yaml" {
		raw, err := sigsyaml.Marshal(snapshot)
		if err != nil {
			return fmt.Errorf("marshal snapshot as yaml: %w", err)
		}
		_, err = out.Write(raw)
		return err
	}

	fmt.Fprintf(out, "fleet state: %s   master: %s\n\n", snapshot.FleetState, snapshot.Master)

	addrTable := table.NewWriter()
	addrTable.SetOutputMirror(out)
	addrTable.AppendHeader(table.Row{"ADDRESS", "STATE", "LOADING"})
	for _, a := range snapshot.Addresses {
		addrTable.AppendRow(table.Row{a.Name, a.State, a.Loading})
	}
	addrTable.Render()

	fmt.Fprintln(out)

	procTable := table.NewWriter()
	procTable.SetOutputMirror(out)
	procTable.AppendHeader(table.Row{"APPLICATION", "STATE", "PROCESS", "PROC STATE", "ADDRESSES", "DESCRIPTION"})
	for _, app := range snapshot.Applications {
		if len(app.Processes) == 0 {
			procTable.AppendRow(table.Row{app.Name, app.State, "", "", "", ""})
			continue
		}
		for i, p := range app.Processes {
			appName, appState := "", ""
			if i == 0 {
				appName, appState = app.Name, app.State
			}
			desc := pkgstrings.TruncateDescription(p.Description, pkgstrings.DefaultDescriptionMaxLen)
			procTable.AppendRow(table.Row{appName, appState, p.Namespec, p.State, p.Addresses, desc})
		}
	}
	procTable.Render()

	return nil
}
