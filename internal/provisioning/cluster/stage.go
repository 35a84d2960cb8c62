// Package cluster provisions the physical Kubernetes cluster and publishes
// its admin kubeconfig to the secret store and the context directory.
package cluster

import (
	"fmt"

	"github.com/shlapolosa/idp/internal/platform"
	"github.com/shlapolosa/idp/internal/provisioning"
	"github.com/shlapolosa/idp/internal/secrets"
	"github.com/shlapolosa/idp/internal/util/naming"
)

// MainContext is the logical context name of the physical cluster.
const MainContext = "main"

// Stage provisions the managed cluster on the configured cloud.
type Stage struct{}

// New creates the cluster stage.
func New() *Stage { return &Stage{} }

// Name implements provisioning.Stage.
func (s *Stage) Name() string { return "cluster" }

// Criticality implements provisioning.Stage. Everything depends on the
// cluster, so its failure aborts the pipeline.
func (s *Stage) Criticality() provisioning.Criticality { return provisioning.Fatal }

// Check implements provisioning.Stage. When the cluster is already up the
// probe also reconnects: later stages need the kubeconfig in state whether or
// not this run created the cluster.
func (s *Stage) Check(ctx *provisioning.Context) (bool, error) {
	state, err := ctx.Provider.ClusterStatus(ctx, ctx.Config.ClusterName, ctx.Config.Region)
	if err != nil {
		return false, err
	}
	if state != platform.StatePresent {
		return false, nil
	}
	provisioning.LogResourceExists(ctx.Observer, s.Name(), "cluster", ctx.Config.ClusterName)
	return true, s.connect(ctx)
}

// Provision implements provisioning.Stage.
func (s *Stage) Provision(ctx *provisioning.Context) error {
	return s.connect(ctx)
}

// Deprovision implements provisioning.Stage.
func (s *Stage) Deprovision(ctx *provisioning.Context) error {
	return ctx.Provider.DeleteCluster(ctx, ctx.Config.ClusterName, ctx.Config.Region)
}

// Attach populates the pipeline state from an existing cluster without
// mutating anything: no create calls, no secret or context writes. Teardown
// connects this way, so running delete can never grow the set of resources.
func (s *Stage) Attach(ctx *provisioning.Context) error {
	cfg := ctx.Config

	endpoint, err := ctx.Provider.ClusterEndpoint(ctx, cfg.ClusterName, cfg.Region)
	if err != nil {
		return err
	}
	kubeconfig, err := platform.Kubeconfig(endpoint, MainContext)
	if err != nil {
		return fmt.Errorf("failed to build kubeconfig for %q: %w", cfg.ClusterName, err)
	}

	ctx.State.Endpoint = endpoint
	ctx.State.Kubeconfig = kubeconfig
	ctx.ResetClients()
	return nil
}

// connect ensures the cluster exists, derives its kubeconfig, and publishes
// it to state, the secret store, and the local context directory.
func (s *Stage) connect(ctx *provisioning.Context) error {
	cfg := ctx.Config

	endpoint, err := ctx.Provider.EnsureCluster(ctx, cfg.ClusterName, cfg.Region, cfg.Kubernetes.Version)
	if err != nil {
		return err
	}

	kubeconfig, err := platform.Kubeconfig(endpoint, MainContext)
	if err != nil {
		return fmt.Errorf("failed to build kubeconfig for %q: %w", cfg.ClusterName, err)
	}

	ctx.State.Endpoint = endpoint
	ctx.State.Kubeconfig = kubeconfig
	ctx.ResetClients()

	if ctx.Secrets != nil {
		path := naming.KubeconfigSecretPath(cfg.Secrets.KubeconfigPrefix, MainContext)
		if err := ctx.Secrets.Put(ctx, path, kubeconfig, secrets.Metadata{Source: s.Name()}); err != nil {
			return err
		}
	}
	if ctx.Contexts != nil {
		if err := ctx.Contexts.Write(MainContext, kubeconfig); err != nil {
			return err
		}
	}

	provisioning.LogResourceCreated(ctx.Observer, s.Name(), "cluster", cfg.ClusterName)
	return nil
}
