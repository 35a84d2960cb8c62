// Package autoscaler installs Karpenter on AWS clusters and applies the
// default node pool. Azure clusters never get this stage: AKS ships its
// autoscaler as part of the managed cluster profile.
package autoscaler

import (
	"fmt"
	"strings"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"

	"github.com/shlapolosa/idp/internal/helm"
	"github.com/shlapolosa/idp/internal/provisioning"
)

const (
	releaseName = "karpenter"
	namespace   = "kube-system"
	repoURL     = "https://charts.karpenter.sh"
	chartName   = "karpenter"

	nodePoolName = "default"
)

// Stage installs Karpenter and its default NodePool.
type Stage struct{}

// New creates the autoscaler stage.
func New() *Stage { return &Stage{} }

// Name implements provisioning.Stage.
func (s *Stage) Name() string { return "autoscaler" }

// Criticality implements provisioning.Stage.
func (s *Stage) Criticality() provisioning.Criticality { return provisioning.Fatal }

// Check implements provisioning.Stage.
func (s *Stage) Check(ctx *provisioning.Context) (bool, error) {
	installer, err := ctx.Helm(namespace)
	if err != nil {
		return false, err
	}
	installed, err := installer.ReleaseExists(releaseName)
	if err != nil || !installed {
		return false, err
	}

	client, err := ctx.K8s()
	if err != nil {
		return false, err
	}
	gvr, err := s.nodePoolGVR(ctx)
	if err != nil {
		return false, err
	}
	return client.DynamicExists(ctx, gvr, "", nodePoolName)
}

// Provision implements provisioning.Stage.
func (s *Stage) Provision(ctx *provisioning.Context) error {
	installer, err := ctx.Helm(namespace)
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
	gvr, err := s.nodePoolGVR(ctx)
	if err != nil {
		return err
	}
	if err := client.ApplyDynamic(ctx, gvr, s.nodePool(ctx)); err != nil {
		return err
	}

	provisioning.LogResourceCreated(ctx.Observer, s.Name(), "node pool", nodePoolName)
	return nil
}

// Deprovision implements provisioning.Stage. The node pool goes first so
// Karpenter can drain its nodes before the controller disappears.
func (s *Stage) Deprovision(ctx *provisioning.Context) error {
	client, err := ctx.K8s()
	if err != nil {
		return err
	}
	gvr, err := s.nodePoolGVR(ctx)
	if err != nil {
		return err
	}
	if err := client.DeleteDynamic(ctx, gvr, "", nodePoolName); err != nil {
		return err
	}

	installer, err := ctx.Helm(namespace)
	if err != nil {
		return err
	}
	return installer.Uninstall(ctx, releaseName)
}

func (s *Stage) release(ctx *provisioning.Context) helm.Release {
	return helm.Release{
		Name:      releaseName,
		Namespace: namespace,
		RepoURL:   repoURL,
		Chart:     chartName,
		Version:   ctx.Config.Versions.Karpenter,
		Values: map[string]interface{}{
			"settings": map[string]interface{}{
				"clusterName": ctx.Config.ClusterName,
			},
		},
		Timeout: ctx.Timeouts.AppInstall,
	}
}

// nodePool builds the NodePool manifest. The API version comes from
// configuration because upstream moved the schema between karpenter.sh
// versions; changing it must not require a new binary.
func (s *Stage) nodePool(ctx *provisioning.Context) *unstructured.Unstructured {
	return &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": ctx.Config.AWS.NodePoolAPIVersion,
		"kind":       "NodePool",
		"metadata": map[string]interface{}{
			"name": nodePoolName,
		},
		"spec": map[string]interface{}{
			"template": map[string]interface{}{
				"spec": map[string]interface{}{
					"requirements": []interface{}{
						map[string]interface{}{
							"key":      "node.kubernetes.io/instance-type",
							"operator": "In",
							"values":   toInterfaceSlice(ctx.Config.AWS.InstanceTypes),
						},
					},
				},
			},
		},
	}}
}

func (s *Stage) nodePoolGVR(ctx *provisioning.Context) (schema.GroupVersionResource, error) {
	apiVersion := ctx.Config.AWS.NodePoolAPIVersion
	parts := strings.SplitN(apiVersion, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return schema.GroupVersionResource{}, fmt.Errorf("invalid node pool API version %q", apiVersion)
	}
	return schema.GroupVersionResource{Group: parts[0], Version: parts[1], Resource: "nodepools"}, nil
}

func toInterfaceSlice(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
