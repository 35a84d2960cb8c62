// Package platform abstracts the managed-cluster control planes the
// provisioner drives. Each cloud backend implements the same narrow
// capability set: ensure, probe, and delete a managed Kubernetes cluster.
package platform

import "context"

// State is the observed lifecycle state of a managed cluster.
// It is always derived from a control-plane query, never cached.
type State string

const (
	StateAbsent   State = "Absent"
	StateCreating State = "Creating"
	StatePresent  State = "Present"
	StateDeleting State = "Deleting"
)

// ExecConfig is the provider-specific exec auth hint embedded into generated
// kubeconfigs (e.g. "aws eks get-token" or "kubelogin").
type ExecConfig struct {
	Command string
	Args    []string
	Env     map[string]string
}

// Endpoint describes how to reach a provisioned cluster.
type Endpoint struct {
	// Name is the cluster name as known to the provider.
	Name string

	// URL is the API server address.
	URL string

	// CAData is the PEM-encoded cluster certificate authority.
	CAData []byte

	// AuthExec is the exec credential plugin hint, when the provider does
	// not hand out a complete kubeconfig.
	AuthExec *ExecConfig

	// Kubeconfig is a complete admin kubeconfig when the provider issues
	// one directly (AKS does). When set it takes precedence over URL,
	// CAData, and AuthExec.
	Kubeconfig []byte
}

// Adapter is the capability set a cloud backend must provide.
//
// EnsureCluster is idempotent: when the cluster already exists it returns the
// existing endpoint without re-issuing a creation call. Creation failures are
// fatal to the caller; deletion failures are expected to be tolerated.
type Adapter interface {
	// Name identifies the backend ("aws" or "azure").
	Name() string

	// EnsureCluster creates the cluster if absent and blocks until it is
	// reachable, returning its endpoint.
	EnsureCluster(ctx context.Context, name, region, version string) (*Endpoint, error)

	// ClusterExists reports whether the named cluster exists in any
	// lifecycle state.
	ClusterExists(ctx context.Context, name, region string) (bool, error)

	// ClusterStatus returns the observed lifecycle state of the cluster.
	ClusterStatus(ctx context.Context, name, region string) (State, error)

	// ClusterEndpoint returns the endpoint of an existing cluster without
	// creating or repairing anything. Teardown connects through this so
	// that deleting can never grow the set of resources.
	ClusterEndpoint(ctx context.Context, name, region string) (*Endpoint, error)

	// DeleteCluster removes the cluster. Deleting an absent cluster is not
	// an error.
	DeleteCluster(ctx context.Context, name, region string) error
}
