package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/shlapolosa/idp/cmd/idp/handlers"
)

// Context returns the kubeconfig-context command group.
func Context() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "context",
		Short: "Switch between platform kubeconfig contexts",
		Long: `Manage the logical kubeconfig contexts of the platform: the physical
cluster ("main"), each virtual cluster, and "management". Switching rewrites
only the active-context pointer; kubeconfig files are never modified.`,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: idp.yaml)")

	switchCmd := &cobra.Command{
		Use:   "switch <name>",
		Short: "Make a context the active one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.ContextSwitch(cmd.Context(), configPath, args[0])
		},
	}

	current := &cobra.Command{
		Use:   "current",
		Short: "Print the active context",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.ContextCurrent(cmd.Context(), configPath, os.Stdout)
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List all declared contexts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.ContextList(cmd.Context(), configPath, os.Stdout)
		},
	}

	restore := &cobra.Command{
		Use:   "restore <name>",
		Short: "Restore a context's kubeconfig from the secret store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.ContextRestore(cmd.Context(), configPath, args[0])
		},
	}

	cmd.AddCommand(switchCmd, current, list, restore)
	return cmd
}
