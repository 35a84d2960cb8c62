// Package naming centralizes naming conventions for platform resources.
//
// All cloud and cluster resources follow consistent naming patterns so that
// resources belonging to a platform instance are easy to identify, list,
// and clean up.
package naming

import "fmt"

// NodeGroup returns the name of the default managed node group for a cluster.
func NodeGroup(cluster string) string {
	return fmt.Sprintf("%s-default", cluster)
}

// ResourceGroup returns the Azure resource group name for a cluster.
func ResourceGroup(cluster string) string {
	return fmt.Sprintf("%s-rg", cluster)
}

// VClusterNamespace returns the host namespace backing a virtual cluster.
func VClusterNamespace(vcluster string) string {
	return fmt.Sprintf("vcluster-%s", vcluster)
}

// VClusterSecret returns the name of the secret a virtual cluster writes its
// kubeconfig into within its host namespace.
func VClusterSecret(vcluster string) string {
	return fmt.Sprintf("vc-%s", vcluster)
}

// KubeconfigSecretPath returns the secret-store path for a context's kubeconfig.
func KubeconfigSecretPath(prefix, contextName string) string {
	return fmt.Sprintf("%s/%s", prefix, contextName)
}

// KubeconfigFile returns the on-disk kubeconfig file name for a context.
func KubeconfigFile(contextName string) string {
	return fmt.Sprintf("%s.kubeconfig", contextName)
}

// BackupSnapshot returns the directory name for a timestamped backup snapshot.
// The stamp is expected in the form 20060102-150405.
func BackupSnapshot(stamp string) string {
	return fmt.Sprintf("backup-%s", stamp)
}
