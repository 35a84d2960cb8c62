package provisioning

import (
	"context"
	"errors"
	"fmt"

	"github.com/shlapolosa/idp/internal/config"
	"github.com/shlapolosa/idp/internal/helm"
	"github.com/shlapolosa/idp/internal/k8s"
	"github.com/shlapolosa/idp/internal/kubecontext"
	"github.com/shlapolosa/idp/internal/platform"
	"github.com/shlapolosa/idp/internal/secrets"
)

// State holds the shared results of pipeline stages. It is progressively
// populated as each stage completes and read by later stages. It is derived
// state only: nothing in it survives the process, the platform remains the
// single source of truth.
type State struct {
	// Endpoint is populated by the cluster stage.
	Endpoint *platform.Endpoint

	// Kubeconfig is the admin kubeconfig for the physical cluster.
	Kubeconfig []byte

	// VClusterKubeconfigs maps virtual cluster name to its kubeconfig.
	VClusterKubeconfigs map[string][]byte

	// URLs maps platform app name to its entry URL.
	URLs map[string]string
}

// NewState creates an empty pipeline state.
func NewState() *State {
	return &State{
		VClusterKubeconfigs: make(map[string][]byte),
		URLs:                make(map[string]string),
	}
}

// Context wraps the dependencies and state every stage needs.
type Context struct {
	context.Context

	Config   *config.Config
	State    *State
	Provider platform.Adapter
	Secrets  *secrets.Manager
	Contexts *kubecontext.Manager
	Observer Observer
	Timeouts *config.Timeouts

	// K8sFactory and HelmFactory build clients for the physical cluster once
	// its kubeconfig is known. Replaceable in tests.
	K8sFactory  func(kubeconfig []byte) (*k8s.Client, error)
	HelmFactory func(kubeconfig []byte, namespace string) (helm.Installer, error)

	k8sClient *k8s.Client
}

// NewContext creates a pipeline context with the default client factories.
func NewContext(
	ctx context.Context,
	cfg *config.Config,
	provider platform.Adapter,
	store *secrets.Manager,
	contexts *kubecontext.Manager,
) *Context {
	return &Context{
		Context:    ctx,
		Config:     cfg,
		State:      NewState(),
		Provider:   provider,
		Secrets:    store,
		Contexts:   contexts,
		Observer:   NewConsoleObserver(),
		Timeouts:   config.LoadTimeouts(),
		K8sFactory: k8s.NewFromKubeconfig,
		HelmFactory: func(kubeconfig []byte, namespace string) (helm.Installer, error) {
			return helm.NewClient(kubeconfig, namespace)
		},
	}
}

// K8s returns a client for the physical cluster. It requires the cluster
// stage to have populated the kubeconfig.
func (c *Context) K8s() (*k8s.Client, error) {
	if c.k8sClient != nil {
		return c.k8sClient, nil
	}
	if len(c.State.Kubeconfig) == 0 {
		return nil, errors.New("no cluster kubeconfig available yet")
	}
	client, err := c.K8sFactory(c.State.Kubeconfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create cluster client: %w", err)
	}
	c.k8sClient = client
	return client, nil
}

// Helm returns a chart installer scoped to a namespace on the physical
// cluster.
func (c *Context) Helm(namespace string) (helm.Installer, error) {
	if len(c.State.Kubeconfig) == 0 {
		return nil, errors.New("no cluster kubeconfig available yet")
	}
	return c.HelmFactory(c.State.Kubeconfig, namespace)
}

// ResetClients drops cached clients, forcing the next K8s call to rebuild
// from the current kubeconfig. Called after the cluster stage refreshes the
// endpoint.
func (c *Context) ResetClients() {
	c.k8sClient = nil
}
