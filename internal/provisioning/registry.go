package provisioning

import (
	"fmt"

	"github.com/shlapolosa/idp/internal/platform"
	"github.com/shlapolosa/idp/internal/util/naming"
)

// ResourceKind classifies what a Resource refers to.
type ResourceKind string

const (
	KindPhysicalCluster ResourceKind = "PhysicalCluster"
	KindVirtualCluster  ResourceKind = "VirtualCluster"
	KindNamespace       ResourceKind = "Namespace"
)

// Resource names something the pipeline manages on the platform.
type Resource struct {
	Name string
	Kind ResourceKind

	// Namespace qualifies KindNamespace resources. Ignored for other kinds.
	Namespace string
}

// Observe returns the current lifecycle state of a resource by querying the
// platform. State is never cached: existence is always re-derived, so the
// answer cannot drift from reality.
//
// Virtual clusters and namespaces require cluster access; observing them
// before the cluster stage has run is an error.
func (c *Context) Observe(res Resource) (platform.State, error) {
	switch res.Kind {
	case KindPhysicalCluster:
		return c.Provider.ClusterStatus(c, res.Name, c.Config.Region)

	case KindVirtualCluster:
		client, err := c.K8s()
		if err != nil {
			return "", err
		}
		exists, err := client.NamespaceExists(c, naming.VClusterNamespace(res.Name))
		if err != nil {
			return "", fmt.Errorf("failed to observe vcluster %q: %w", res.Name, err)
		}
		if exists {
			return platform.StatePresent, nil
		}
		return platform.StateAbsent, nil

	case KindNamespace:
		client, err := c.K8s()
		if err != nil {
			return "", err
		}
		name := res.Namespace
		if name == "" {
			name = res.Name
		}
		exists, err := client.NamespaceExists(c, name)
		if err != nil {
			return "", fmt.Errorf("failed to observe namespace %q: %w", name, err)
		}
		if exists {
			return platform.StatePresent, nil
		}
		return platform.StateAbsent, nil

	default:
		return "", fmt.Errorf("unknown resource kind %q", res.Kind)
	}
}
