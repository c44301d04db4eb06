package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments, RPC rejection).
	ExitCodeError = 1
)

// rootCmd represents the base command for the supvisors application. It is
// the entry point when the application is called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "supvisors",
	Short: "Coordinate a fleet of process supervisors",
	Long: `supvisors extends a single-host process supervisor into a distributed
fleet coordinator: peer nodes synchronize, elect a master, and cooperate to
start, stop, and reconcile a declared set of applications composed of
processes placed across the fleet.`,
	SilenceUsage: true,
}

// configPathFlag and targetFlag are shared by every subcommand that needs to
// load configuration or address an RPC at a specific node.
var (
	configPathFlag string
	targetFlag     string
)

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
// This can be used by other commands to access the build version.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application. It initializes
// and executes the root command, which in turn handles subcommands and
// flags. This function is called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "supvisors version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitCodeError)
	}
}

// init adds every subcommand to the root command and registers the shared
// persistent flags.
func init() {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newStartCmd())
	rootCmd.AddCommand(newStopCmd())
	rootCmd.AddCommand(newConciliateCmd())
	rootCmd.AddCommand(newAddressCmd())
	rootCmd.AddCommand(newShellCmd())

	rootCmd.PersistentFlags().StringVar(&configPathFlag, "config-path", "", "configuration directory (default $HOME/.config/supvisors)")
	rootCmd.PersistentFlags().StringVar(&targetFlag, "target", "", "fleet address to talk to (default: first entry of address_list)")
}
