// Package apps installs the fixed platform application catalog: Istio,
// Knative, and Argo CD. The catalog is data: each entry names its chart,
// readiness gates, and any credentials to capture after install.
package apps

import (
	"fmt"

	"github.com/shlapolosa/idp/internal/config"
	"github.com/shlapolosa/idp/internal/provisioning"
	"github.com/shlapolosa/idp/internal/secrets"
)

// App describes one catalog entry.
type App struct {
	Name      string
	Namespace string
	RepoURL   string
	Chart     string

	// Version selects the pinned chart version from configuration.
	Version func(v config.VersionsConfig) string

	Values map[string]interface{}

	// WaitDeployments are deployments that must be available before the
	// stage counts as done.
	WaitDeployments []string

	// WaitStatefulSets are statefulsets that must be ready before the stage
	// counts as done.
	WaitStatefulSets []string

	// ServiceURL is the in-cluster entry URL recorded under platform/urls.
	ServiceURL string

	Criticality provisioning.Criticality

	// PostInstall runs after the chart is up, e.g. to capture generated
	// credentials into the secret store.
	PostInstall func(ctx *provisioning.Context, app App) error
}

// Catalog returns the platform application stages in install order. Istio
// precedes Knative because Knative serving routes through the Istio gateway.
func Catalog() []provisioning.Stage {
	return []provisioning.Stage{
		&Stage{App: istio()},
		&Stage{App: knative()},
		&Stage{App: argoCD()},
	}
}

func istio() App {
	return App{
		Name:      "istio",
		Namespace: "istio-system",
		RepoURL:   "https://istio-release.storage.googleapis.com/charts",
		Chart:     "istiod",
		Version:   func(v config.VersionsConfig) string { return v.Istio },
		Values: map[string]interface{}{
			"pilot": map[string]interface{}{
				"autoscaleEnabled": true,
			},
		},
		WaitDeployments: []string{"istiod"},
		Criticality:     provisioning.Fatal,
	}
}

func knative() App {
	return App{
		Name:      "knative",
		Namespace: "knative-serving",
		RepoURL:   "https://knative.github.io/operator",
		Chart:     "knative-operator",
		Version:   func(v config.VersionsConfig) string { return v.Knative },
		WaitDeployments: []string{
			"knative-operator",
		},
		// Serverless workloads are an overlay on the platform; a broken
		// Knative install should not block Argo CD or the vclusters.
		Criticality: provisioning.BestEffort,
	}
}

func argoCD() App {
	return App{
		Name:      "argocd",
		Namespace: "argocd",
		RepoURL:   "https://argoproj.github.io/argo-helm",
		Chart:     "argo-cd",
		Version:   func(v config.VersionsConfig) string { return v.ArgoCD },
		WaitDeployments: []string{
			"argocd-server",
		},
		// The chart runs the application controller as a statefulset.
		WaitStatefulSets: []string{
			"argocd-application-controller",
		},
		ServiceURL:  "https://argocd-server.argocd.svc.cluster.local",
		Criticality: provisioning.Fatal,
		PostInstall: captureArgoCDPassword,
	}
}

// captureArgoCDPassword copies the generated initial admin password into the
// secret store. Argo CD deletes the source secret on first rotation, so the
// store is the durable copy.
func captureArgoCDPassword(ctx *provisioning.Context, app App) error {
	client, err := ctx.K8s()
	if err != nil {
		return err
	}

	if err := client.WaitForSecret(ctx, app.Namespace, "argocd-initial-admin-secret", ctx.Timeouts.AppInstall); err != nil {
		return fmt.Errorf("argocd initial admin secret never appeared: %w", err)
	}
	password, err := client.GetSecretValue(ctx, app.Namespace, "argocd-initial-admin-secret", "password")
	if err != nil {
		return err
	}

	if ctx.Secrets != nil {
		err = ctx.Secrets.Put(ctx, "platform/credentials/argocd_admin_password", password, secrets.Metadata{Source: app.Name})
		if err != nil {
			return err
		}
	}
	ctx.Observer.Printf("[argocd] admin password captured to secret store")
	return nil
}
