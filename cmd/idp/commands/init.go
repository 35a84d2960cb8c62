package commands

import (
	"github.com/spf13/cobra"

	"github.com/shlapolosa/idp/cmd/idp/handlers"
)

// Init returns the configuration wizard command.
func Init() *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a platform configuration interactively",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Init(cmd.Context(), outputPath)
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "idp.yaml", "Path for the generated configuration file")

	return cmd
}
