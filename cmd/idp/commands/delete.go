package commands

import (
	"github.com/spf13/cobra"

	"github.com/shlapolosa/idp/cmd/idp/handlers"
)

// Delete returns the teardown command.
func Delete() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Tear down the platform and all associated resources",
		Long: `Delete removes the platform in reverse provisioning order: virtual
clusters, platform applications, the autoscaler, and finally the physical
cluster.

Teardown is best-effort: a stage that fails to delete is reported and the
remaining stages still run, so every invocation can only remove more.
Re-run delete to retry failed stages.

Example:
  idp delete -c idp.yaml

WARNING: This operation is irreversible. All workloads on the platform will
be lost.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Delete(cmd.Context(), configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: idp.yaml)")

	return cmd
}
