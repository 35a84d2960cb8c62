package commands

import (
	"github.com/spf13/cobra"

	"github.com/shlapolosa/idp/cmd/idp/handlers"
)

// Provision returns the command that creates or completes the platform.
//
// Optional flags:
//
//	--config, -c: Path to platform configuration YAML file (default: idp.yaml)
func Provision() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Create or complete the platform",
		Long: `Provision the full platform in order: the physical cluster, the
node autoscaler, the platform applications (Istio, Knative, Argo CD), and the
configured virtual clusters.

Every stage probes the live platform first and skips work that is already
done, so re-running provision after a partial failure resumes where it
stopped. Nothing is rolled back automatically on failure.

Examples:
  # Provision using idp.yaml in the current directory
  idp provision

  # Provision using a specific config file
  idp provision -c production.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Provision(cmd.Context(), configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: idp.yaml)")

	return cmd
}
