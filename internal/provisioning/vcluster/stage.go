// Package vcluster provisions virtual clusters on the physical cluster. The
// set of virtual clusters is a configuration manifest; each entry becomes one
// pipeline stage and one kubeconfig context.
package vcluster

import (
	"fmt"

	"github.com/shlapolosa/idp/internal/config"
	"github.com/shlapolosa/idp/internal/helm"
	"github.com/shlapolosa/idp/internal/provisioning"
	"github.com/shlapolosa/idp/internal/secrets"
	"github.com/shlapolosa/idp/internal/util/naming"
)

const (
	repoURL   = "https://charts.loft.sh"
	chartName = "vcluster"

	// kubeconfigKey is the key the vcluster chart writes its kubeconfig
	// under in the vc-<name> secret.
	kubeconfigKey = "config"
)

// Stage provisions one virtual cluster.
type Stage struct {
	vc config.VClusterConfig
}

// New creates a stage for one virtual cluster manifest entry.
func New(vc config.VClusterConfig) *Stage {
	if vc.Namespace == "" {
		vc.Namespace = naming.VClusterNamespace(vc.Name)
	}
	return &Stage{vc: vc}
}

// Stages creates the stages for a virtual cluster manifest, in order.
func Stages(vclusters []config.VClusterConfig) []provisioning.Stage {
	stages := make([]provisioning.Stage, 0, len(vclusters))
	for _, vc := range vclusters {
		stages = append(stages, New(vc))
	}
	return stages
}

// Name implements provisioning.Stage.
func (s *Stage) Name() string { return "vcluster-" + s.vc.Name }

// Criticality implements provisioning.Stage.
func (s *Stage) Criticality() provisioning.Criticality { return provisioning.Fatal }

// Check implements provisioning.Stage. A virtual cluster counts as
// provisioned once its kubeconfig secret exists; the secret is written by
// the vcluster control plane after it is actually serving.
func (s *Stage) Check(ctx *provisioning.Context) (bool, error) {
	client, err := ctx.K8s()
	if err != nil {
		return false, err
	}
	exists, err := client.NamespaceExists(ctx, s.vc.Namespace)
	if err != nil || !exists {
		return false, err
	}

	ready, err := client.SecretExists(ctx, s.vc.Namespace, naming.VClusterSecret(s.vc.Name))
	if err != nil || !ready {
		return false, err
	}
	provisioning.LogResourceExists(ctx.Observer, s.Name(), "vcluster", s.vc.Name)
	return true, s.publishKubeconfig(ctx)
}

// Provision implements provisioning.Stage.
func (s *Stage) Provision(ctx *provisioning.Context) error {
	client, err := ctx.K8s()
	if err != nil {
		return err
	}
	if err := client.EnsureNamespace(ctx, s.vc.Namespace); err != nil {
		return err
	}

	installer, err := ctx.Helm(s.vc.Namespace)
	if err != nil {
		return err
	}
	if err := installer.InstallOrUpgrade(ctx, s.release(ctx)); err != nil {
		return err
	}

	secretName := naming.VClusterSecret(s.vc.Name)
	if err := client.WaitForSecret(ctx, s.vc.Namespace, secretName, ctx.Timeouts.VClusterReady); err != nil {
		return fmt.Errorf("vcluster %q kubeconfig secret never appeared: %w", s.vc.Name, err)
	}

	if err := s.publishKubeconfig(ctx); err != nil {
		return err
	}
	provisioning.LogResourceCreated(ctx.Observer, s.Name(), "vcluster", s.vc.Name)
	return nil
}

// Deprovision implements provisioning.Stage. Deleting the host namespace
// removes the vcluster and everything inside it; an absent namespace means a
// previous teardown already won.
func (s *Stage) Deprovision(ctx *provisioning.Context) error {
	client, err := ctx.K8s()
	if err != nil {
		return err
	}

	exists, err := client.NamespaceExists(ctx, s.vc.Namespace)
	if err != nil {
		return err
	}
	if !exists {
		provisioning.LogResourceDeleted(ctx.Observer, s.Name(), "vcluster", s.vc.Name)
		return nil
	}

	installer, err := ctx.Helm(s.vc.Namespace)
	if err != nil {
		return err
	}
	if err := installer.Uninstall(ctx, s.vc.Name); err != nil {
		return err
	}
	if err := client.DeleteNamespace(ctx, s.vc.Namespace); err != nil {
		return err
	}

	provisioning.LogResourceDeleted(ctx.Observer, s.Name(), "vcluster", s.vc.Name)
	return nil
}

// publishKubeconfig copies the virtual cluster's kubeconfig from its host
// secret into state, the secret store, and the context directory.
func (s *Stage) publishKubeconfig(ctx *provisioning.Context) error {
	client, err := ctx.K8s()
	if err != nil {
		return err
	}
	kubeconfig, err := client.GetSecretValue(ctx, s.vc.Namespace, naming.VClusterSecret(s.vc.Name), kubeconfigKey)
	if err != nil {
		return err
	}

	ctx.State.VClusterKubeconfigs[s.vc.Name] = kubeconfig

	if ctx.Secrets != nil {
		path := naming.KubeconfigSecretPath(ctx.Config.Secrets.KubeconfigPrefix, s.vc.Name)
		if err := ctx.Secrets.Put(ctx, path, kubeconfig, secrets.Metadata{Source: s.Name()}); err != nil {
			return err
		}
	}
	if ctx.Contexts != nil {
		if err := ctx.Contexts.Write(s.vc.Name, kubeconfig); err != nil {
			return err
		}
	}
	return nil
}

func (s *Stage) release(ctx *provisioning.Context) helm.Release {
	return helm.Release{
		Name:      s.vc.Name,
		Namespace: s.vc.Namespace,
		RepoURL:   repoURL,
		Chart:     chartName,
		Version:   ctx.Config.Versions.VCluster,
		Values: map[string]interface{}{
			"sync": map[string]interface{}{
				"toHost": map[string]interface{}{
					"ingresses": map[string]interface{}{"enabled": true},
				},
			},
		},
		Timeout: ctx.Timeouts.AppInstall,
	}
}
