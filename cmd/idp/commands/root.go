// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument
// parsing, flag binding, and validation. Command execution is delegated to
// handler functions in the handlers package.
package commands

import "github.com/spf13/cobra"

// Root returns the root command for the idp CLI.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "idp",
		Short: "Provision an internal developer platform on AWS or Azure",
	}

	cmd.AddCommand(Init())
	cmd.AddCommand(Provision())
	cmd.AddCommand(Delete())
	cmd.AddCommand(Secret())
	cmd.AddCommand(Context())
	cmd.AddCommand(Version())

	return cmd
}
