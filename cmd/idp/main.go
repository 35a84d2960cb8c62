// Package main is the entry point for the idp CLI.
//
// idp provisions an internal developer platform: a managed Kubernetes
// cluster on AWS or Azure, an autoscaling node layer, the platform
// application catalog (Istio, Knative, Argo CD), and a set of virtual
// clusters, with all generated credentials kept in a secret store.
//
// Commands: init, provision, delete, secret, context, version.
//
// For detailed usage information, run:
//
//	idp --help
package main

import (
	"fmt"
	"os"

	"github.com/shlapolosa/idp/cmd/idp/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
