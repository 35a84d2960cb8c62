package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/shlapolosa/idp/cmd/idp/handlers"
)

// Secret returns the secret-store command group.
func Secret() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Read and write the platform secret store",
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: idp.yaml)")

	get := &cobra.Command{
		Use:   "get <path>",
		Short: "Print a secret value to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.SecretGet(cmd.Context(), configPath, args[0], os.Stdout)
		},
	}

	put := &cobra.Command{
		Use:   "put <path> <value>",
		Short: "Store a secret value",
		Long: `Store a secret value. Use "-" as the value to read it from stdin,
which is required for binary data such as kubeconfigs and keys.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.SecretPut(cmd.Context(), configPath, args[0], args[1], os.Stdin)
		},
	}

	list := &cobra.Command{
		Use:   "list [prefix]",
		Short: "List secret paths under a prefix",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prefix := ""
			if len(args) == 1 {
				prefix = args[0]
			}
			return handlers.SecretList(cmd.Context(), configPath, prefix, os.Stdout)
		},
	}

	backup := &cobra.Command{
		Use:   "backup",
		Short: "Snapshot the kubeconfig directory",
		Long: `Create a timestamped snapshot of the kubeconfig directory. Snapshots
are additive and never overwrite earlier ones. When backup.s3_bucket is
configured the snapshot is also mirrored to S3.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.SecretBackup(cmd.Context(), configPath, os.Stdout)
		},
	}

	restore := &cobra.Command{
		Use:   "restore <snapshot>",
		Short: "Restore a kubeconfig directory snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.SecretRestore(cmd.Context(), configPath, args[0])
		},
	}

	cmd.AddCommand(get, put, list, backup, restore)
	return cmd
}
