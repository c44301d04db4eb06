package cmd

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// newAddressCmd builds the address command group.
func newAddressCmd() *cobra.Command {
	addressCmd := &cobra.Command{
		Use:   "address",
		Short: "Inspect fleet addresses",
	}
	addressCmd.AddCommand(newAddressListCmd())
	return addressCmd
}

func newAddressListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every configured address and its liveness state",
		Args:  cobra.NoArgs,
		RunE:  runAddressList,
	}
}

func runAddressList(cmd *cobra.Command, args []string) error {
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
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendHeader(table.Row{"ADDRESS", "STATE", "LOADING", "MASTER"})
	for _, a := range snapshot.Addresses {
		master := ""
		if a.Name == snapshot.Master {
			master = "*"
		}
		t.AppendRow(table.Row{a.Name, a.State, a.Loading, master})
	}
	t.Render()
	return nil
}
