package apps

import (
	"github.com/shlapolosa/idp/internal/helm"
	"github.com/shlapolosa/idp/internal/provisioning"
	"github.com/shlapolosa/idp/internal/secrets"
)

// Stage installs one catalog app.
type Stage struct {
	App App
}

// Name implements provisioning.Stage.
func (s *Stage) Name() string { return s.App.Name }

// Criticality implements provisioning.Stage.
func (s *Stage) Criticality() provisioning.Criticality { return s.App.Criticality }

// Check implements provisioning.Stage.
func (s *Stage) Check(ctx *provisioning.Context) (bool, error) {
	installer, err := ctx.Helm(s.App.Namespace)
	if err != nil {
		return false, err
	}
	return installer.ReleaseExists(s.App.Name)
}

// Provision implements provisioning.Stage.
func (s *Stage) Provision(ctx *provisioning.Context) error {
	installer, err := ctx.Helm(s.App.Namespace)
	if err != nil {
		return err
	}
	if err := installer.InstallOrUpgrade(ctx, s.release(ctx)); err != nil {
		return err
	}

	client, err := ctx.K8s()
	if err != nil {
		return err
	}
	for _, deployment := range s.App.WaitDeployments {
		if err := client.WaitForDeployment(ctx, s.App.Namespace, deployment, ctx.Timeouts.AppInstall); err != nil {
			return err
		}
	}
	for _, statefulset := range s.App.WaitStatefulSets {
		if err := client.WaitForStatefulSet(ctx, s.App.Namespace, statefulset, ctx.Timeouts.AppInstall); err != nil {
			return err
		}
	}

	if s.App.PostInstall != nil {
		if err := s.App.PostInstall(ctx, s.App); err != nil {
			return err
		}
	}

	if s.App.ServiceURL != "" {
		ctx.State.URLs[s.App.Name] = s.App.ServiceURL
		if ctx.Secrets != nil {
			err := ctx.Secrets.Put(ctx, "platform/urls/"+s.App.Name, []byte(s.App.ServiceURL), secrets.Metadata{Source: s.App.Name})
			if err != nil {
				return err
			}
		}
	}

	provisioning.LogResourceCreated(ctx.Observer, s.App.Name, "release", s.App.Name)
	return nil
}

// Deprovision implements provisioning.Stage.
func (s *Stage) Deprovision(ctx *provisioning.Context) error {
	installer, err := ctx.Helm(s.App.Namespace)
	if err != nil {
		return err
	}
	if err := installer.Uninstall(ctx, s.App.Name); err != nil {
		return err
	}

	client, err := ctx.K8s()
	if err != nil {
		return err
	}
	return client.DeleteNamespace(ctx, s.App.Namespace)
}

func (s *Stage) release(ctx *provisioning.Context) helm.Release {
	return helm.Release{
		Name:      s.App.Name,
		Namespace: s.App.Namespace,
		RepoURL:   s.App.RepoURL,
		Chart:     s.App.Chart,
		Version:   s.App.Version(ctx.Config.Versions),
		Values:    s.App.Values,
		Timeout:   ctx.Timeouts.AppInstall,
	}
}
