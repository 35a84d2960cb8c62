// Package azure implements the platform adapter for Azure AKS.
//
// AKS creation differs from the EKS flow in two ways the adapter absorbs: the
// cluster autoscaler is a property of the managed cluster rather than a
// separately installed component, and the CNI dataplane (azure or cilium) is
// selected at creation time. AKS also hands out a complete admin kubeconfig,
// so the endpoint carries that directly.
package azure

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/containerservice/armcontainerservice/v6"

	"github.com/shlapolosa/idp/internal/config"
	"github.com/shlapolosa/idp/internal/platform"
)

// ManagedClustersAPI is the subset of the AKS client the adapter uses.
type ManagedClustersAPI interface {
	Get(ctx context.Context, resourceGroupName, resourceName string, options *armcontainerservice.ManagedClustersClientGetOptions) (armcontainerservice.ManagedClustersClientGetResponse, error)
	BeginCreateOrUpdate(ctx context.Context, resourceGroupName, resourceName string, parameters armcontainerservice.ManagedCluster, options *armcontainerservice.ManagedClustersClientBeginCreateOrUpdateOptions) (*runtime.Poller[armcontainerservice.ManagedClustersClientCreateOrUpdateResponse], error)
	BeginDelete(ctx context.Context, resourceGroupName, resourceName string, options *armcontainerservice.ManagedClustersClientBeginDeleteOptions) (*runtime.Poller[armcontainerservice.ManagedClustersClientDeleteResponse], error)
	ListClusterAdminCredentials(ctx context.Context, resourceGroupName, resourceName string, options *armcontainerservice.ManagedClustersClientListClusterAdminCredentialsOptions) (armcontainerservice.ManagedClustersClientListClusterAdminCredentialsResponse, error)
}

// Adapter drives AKS cluster lifecycle.
type Adapter struct {
	client ManagedClustersAPI
	cfg    *config.Config
}

// New creates an AKS adapter using the default Azure credential chain.
func New(_ context.Context, cfg *config.Config) (*Adapter, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to obtain Azure credential: %w", err)
	}
	client, err := armcontainerservice.NewManagedClustersClient(cfg.Azure.SubscriptionID, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create managed clusters client: %w", err)
	}
	return NewWithClient(client, cfg), nil
}

// NewWithClient creates an adapter with a custom AKS client (for testing).
func NewWithClient(client ManagedClustersAPI, cfg *config.Config) *Adapter {
	return &Adapter{client: client, cfg: cfg}
}

// Name implements platform.Adapter.
func (a *Adapter) Name() string { return config.CloudAzure }

// EnsureCluster implements platform.Adapter.
func (a *Adapter) EnsureCluster(ctx context.Context, name, region, version string) (*platform.Endpoint, error) {
	rg := a.cfg.Azure.ResourceGroup

	existing, err := a.client.Get(ctx, rg, name, nil)
	if err == nil && provisioningSucceeded(existing.ManagedCluster) {
		log.Printf("[azure] AKS cluster %s already exists", name)
		return a.endpoint(ctx, rg, name)
	}
	if err != nil && !isNotFound(err) {
		return nil, fmt.Errorf("failed to get cluster %q: %w", name, err)
	}

	log.Printf("[azure] creating AKS cluster %s (%s, k8s %s, dataplane %s)",
		name, region, version, a.cfg.Azure.NetworkDataplane)

	poller, err := a.client.BeginCreateOrUpdate(ctx, rg, name, a.managedCluster(name, region, version), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cluster %q: %w", name, err)
	}
	if _, err := poller.PollUntilDone(ctx, nil); err != nil {
		return nil, fmt.Errorf("waiting for cluster %q creation: %w", name, err)
	}

	return a.endpoint(ctx, rg, name)
}

// ClusterExists implements platform.Adapter.
func (a *Adapter) ClusterExists(ctx context.Context, name, _ string) (bool, error) {
	_, err := a.client.Get(ctx, a.cfg.Azure.ResourceGroup, name, nil)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get cluster %q: %w", name, err)
	}
	return true, nil
}

// ClusterEndpoint implements platform.Adapter. Read-only: fetches the admin
// kubeconfig of an existing cluster without touching its configuration.
func (a *Adapter) ClusterEndpoint(ctx context.Context, name, _ string) (*platform.Endpoint, error) {
	return a.endpoint(ctx, a.cfg.Azure.ResourceGroup, name)
}

// ClusterStatus implements platform.Adapter.
func (a *Adapter) ClusterStatus(ctx context.Context, name, _ string) (platform.State, error) {
	resp, err := a.client.Get(ctx, a.cfg.Azure.ResourceGroup, name, nil)
	if err != nil {
		if isNotFound(err) {
			return platform.StateAbsent, nil
		}
		return "", fmt.Errorf("failed to get cluster %q: %w", name, err)
	}
	return stateFromProvisioning(resp.ManagedCluster), nil
}

// DeleteCluster implements platform.Adapter.
func (a *Adapter) DeleteCluster(ctx context.Context, name, _ string) error {
	poller, err := a.client.BeginDelete(ctx, a.cfg.Azure.ResourceGroup, name, nil)
	if err != nil {
		if isNotFound(err) {
			log.Printf("[azure] AKS cluster %s already gone", name)
			return nil
		}
		return fmt.Errorf("failed to delete cluster %q: %w", name, err)
	}
	if _, err := poller.PollUntilDone(ctx, nil); err != nil {
		return fmt.Errorf("waiting for cluster %q deletion: %w", name, err)
	}
	log.Printf("[azure] AKS cluster %s deleted", name)
	return nil
}

// managedCluster builds the AKS creation payload: a system node pool with the
// built-in cluster autoscaler enabled and the configured CNI dataplane.
func (a *Adapter) managedCluster(name, region, version string) armcontainerservice.ManagedCluster {
	az := a.cfg.Azure

	dataplane := armcontainerservice.NetworkDataplaneAzure
	if az.NetworkDataplane == "cilium" {
		dataplane = armcontainerservice.NetworkDataplaneCilium
	}

	return armcontainerservice.ManagedCluster{
		Location: to.Ptr(region),
		Identity: &armcontainerservice.ManagedClusterIdentity{
			Type: to.Ptr(armcontainerservice.ResourceIdentityTypeSystemAssigned),
		},
		Tags: map[string]*string{"idp.io/cluster": to.Ptr(name)},
		Properties: &armcontainerservice.ManagedClusterProperties{
			KubernetesVersion: to.Ptr(version),
			DNSPrefix:         to.Ptr(name),
			AgentPoolProfiles: []*armcontainerservice.ManagedClusterAgentPoolProfile{
				{
					Name:              to.Ptr("system"),
					Mode:              to.Ptr(armcontainerservice.AgentPoolModeSystem),
					Count:             to.Ptr(int32(az.NodeCount)),
					VMSize:            to.Ptr(az.NodeVMSize),
					EnableAutoScaling: to.Ptr(true),
					MinCount:          to.Ptr(int32(az.AutoscalerMin)),
					MaxCount:          to.Ptr(int32(az.AutoscalerMax)),
				},
			},
			NetworkProfile: &armcontainerservice.NetworkProfile{
				NetworkPlugin:    to.Ptr(armcontainerservice.NetworkPluginAzure),
				NetworkDataplane: to.Ptr(dataplane),
			},
		},
	}
}

// endpoint retrieves the admin kubeconfig AKS issues for the cluster.
func (a *Adapter) endpoint(ctx context.Context, rg, name string) (*platform.Endpoint, error) {
	creds, err := a.client.ListClusterAdminCredentials(ctx, rg, name, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list admin credentials for %q: %w", name, err)
	}
	if len(creds.Kubeconfigs) == 0 || creds.Kubeconfigs[0].Value == nil {
		return nil, fmt.Errorf("cluster %q returned no admin kubeconfig", name)
	}
	return &platform.Endpoint{
		Name:       name,
		Kubeconfig: creds.Kubeconfigs[0].Value,
	}, nil
}

func provisioningSucceeded(mc armcontainerservice.ManagedCluster) bool {
	return mc.Properties != nil &&
		mc.Properties.ProvisioningState != nil &&
		*mc.Properties.ProvisioningState == "Succeeded"
}

func stateFromProvisioning(mc armcontainerservice.ManagedCluster) platform.State {
	if mc.Properties == nil || mc.Properties.ProvisioningState == nil {
		return platform.StatePresent
	}
	switch *mc.Properties.ProvisioningState {
	case "Creating":
		return platform.StateCreating
	case "Deleting":
		return platform.StateDeleting
	default:
		return platform.StatePresent
	}
}

func isNotFound(err error) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == 404
}
