// Package helm installs the platform's charts programmatically through the
// Helm action API, with kubeconfigs held in memory rather than on disk.
package helm

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"helm.sh/helm/v3/pkg/action"
	"helm.sh/helm/v3/pkg/chart"
	"helm.sh/helm/v3/pkg/chart/loader"
	"helm.sh/helm/v3/pkg/cli"
	"helm.sh/helm/v3/pkg/getter"
	"helm.sh/helm/v3/pkg/repo"
)

// Release describes one chart installation.
type Release struct {
	Name      string
	Namespace string
	RepoURL   string
	Chart     string
	Version   string
	Values    map[string]interface{}

	// Timeout bounds the install or upgrade wait. Zero means 10 minutes.
	Timeout time.Duration
}

// Installer is the chart lifecycle contract the provisioning stages use.
type Installer interface {
	InstallOrUpgrade(ctx context.Context, rel Release) error
	Uninstall(ctx context.Context, name string) error
	ReleaseExists(name string) (bool, error)
}

// Client implements Installer against one cluster and namespace.
type Client struct {
	namespace    string
	actionConfig *action.Configuration
}

// NewClient creates a helm client scoped to a namespace from kubeconfig bytes.
func NewClient(kubeconfig []byte, namespace string) (*Client, error) {
	actionConfig := new(action.Configuration)
	restGetter := NewInMemoryRESTClientGetter(kubeconfig, namespace)

	// Helm's debug output goes nowhere; stage logs cover progress.
	if err := actionConfig.Init(restGetter, namespace, "secret", func(string, ...interface{}) {}); err != nil {
		return nil, fmt.Errorf("failed to initialize helm action config: %w", err)
	}

	return &Client{namespace: namespace, actionConfig: actionConfig}, nil
}

// InstallOrUpgrade installs the release, or upgrades it when a revision
// already exists. Both paths wait for the release's workloads.
func (c *Client) InstallOrUpgrade(ctx context.Context, rel Release) error {
	if rel.Timeout == 0 {
		rel.Timeout = 10 * time.Minute
	}

	exists, err := c.ReleaseExists(rel.Name)
	if err != nil {
		return err
	}
	if exists {
		log.Printf("[helm] upgrading release %s (%s %s)", rel.Name, rel.Chart, rel.Version)
		return c.upgrade(ctx, rel)
	}
	log.Printf("[helm] installing release %s (%s %s)", rel.Name, rel.Chart, rel.Version)
	return c.install(ctx, rel)
}

// Uninstall removes the release. A missing release is not an error.
func (c *Client) Uninstall(_ context.Context, name string) error {
	exists, err := c.ReleaseExists(name)
	if err != nil {
		return err
	}
	if !exists {
		log.Printf("[helm] release %s already gone", name)
		return nil
	}

	uninstall := action.NewUninstall(c.actionConfig)
	uninstall.Wait = true
	uninstall.Timeout = 5 * time.Minute
	if _, err := uninstall.Run(name); err != nil {
		return fmt.Errorf("failed to uninstall release %q: %w", name, err)
	}
	return nil
}

// ReleaseExists reports whether the release has any revision history.
func (c *Client) ReleaseExists(name string) (bool, error) {
	history := action.NewHistory(c.actionConfig)
	history.Max = 1
	if _, err := history.Run(name); err != nil {
		return false, nil
	}
	return true, nil
}

func (c *Client) install(ctx context.Context, rel Release) error {
	install := action.NewInstall(c.actionConfig)
	install.ReleaseName = rel.Name
	install.Namespace = c.namespace
	install.CreateNamespace = true
	install.Version = rel.Version
	install.Wait = true
	install.Timeout = rel.Timeout

	ch, err := c.loadChart(rel)
	if err != nil {
		return err
	}
	if _, err := install.RunWithContext(ctx, ch, rel.Values); err != nil {
		return fmt.Errorf("failed to install release %q: %w", rel.Name, err)
	}
	return nil
}

func (c *Client) upgrade(ctx context.Context, rel Release) error {
	upgrade := action.NewUpgrade(c.actionConfig)
	upgrade.Namespace = c.namespace
	upgrade.Version = rel.Version
	upgrade.Wait = true
	upgrade.Timeout = rel.Timeout
	upgrade.ReuseValues = false

	ch, err := c.loadChart(rel)
	if err != nil {
		return err
	}
	if _, err := upgrade.RunWithContext(ctx, rel.Name, ch, rel.Values); err != nil {
		return fmt.Errorf("failed to upgrade release %q: %w", rel.Name, err)
	}
	return nil
}

func (c *Client) loadChart(rel Release) (*chart.Chart, error) {
	settings := cli.New()

	chartPath, err := repo.FindChartInRepoURL(
		rel.RepoURL,
		rel.Chart,
		rel.Version,
		"", "", "",
		getter.All(settings),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find chart %s in repo %s: %w", rel.Chart, rel.RepoURL, err)
	}
	defer func() { _ = os.Remove(chartPath) }()

	return loader.Load(chartPath)
}
