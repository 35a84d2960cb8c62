package config

// Cloud provider identifiers accepted in Config.Cloud.
const (
	CloudAWS   = "aws"
	CloudAzure = "azure"
)

// Config holds the full platform configuration.
type Config struct {
	// ClusterName is the name of the physical cluster and the prefix for
	// everything the platform creates around it.
	ClusterName string `mapstructure:"cluster_name" yaml:"cluster_name"`

	// Cloud selects the provider backend ("aws" or "azure").
	Cloud string `mapstructure:"cloud" yaml:"cloud"`

	// Region is the cloud region the cluster lives in.
	Region string `mapstructure:"region" yaml:"region"`

	Kubernetes KubernetesConfig `mapstructure:"kubernetes" yaml:"kubernetes"`
	AWS        AWSConfig        `mapstructure:"aws" yaml:"aws"`
	Azure      AzureConfig      `mapstructure:"azure" yaml:"azure"`
	Versions   VersionsConfig   `mapstructure:"versions" yaml:"versions"`
	Secrets    SecretsConfig    `mapstructure:"secrets" yaml:"secrets"`
	Kubeconfig KubeconfigConfig `mapstructure:"kubeconfig" yaml:"kubeconfig"`
	Backup     BackupConfig     `mapstructure:"backup" yaml:"backup"`

	// VClusters is the ordered manifest of virtual clusters to provision.
	// Adding an entry here adds a pipeline stage and a context; no code
	// change is involved.
	VClusters []VClusterConfig `mapstructure:"vclusters" yaml:"vclusters"`

	// Contexts is the manifest of logical kubeconfig contexts. When empty it
	// is derived from the cluster and vcluster names plus "management".
	Contexts []ContextConfig `mapstructure:"contexts" yaml:"contexts"`
}

// KubernetesConfig pins the control-plane version.
type KubernetesConfig struct {
	Version string `mapstructure:"version" yaml:"version"` // e.g. 1.31
}

// AWSConfig holds EKS-specific settings.
type AWSConfig struct {
	// ClusterRoleARN is the IAM role the EKS control plane assumes.
	ClusterRoleARN string `mapstructure:"cluster_role_arn" yaml:"cluster_role_arn"`
	// NodeRoleARN is the IAM role for managed node-group instances.
	NodeRoleARN string `mapstructure:"node_role_arn" yaml:"node_role_arn"`

	SubnetIDs        []string `mapstructure:"subnet_ids" yaml:"subnet_ids"`
	SecurityGroupIDs []string `mapstructure:"security_group_ids" yaml:"security_group_ids"`
	InstanceTypes    []string `mapstructure:"instance_types" yaml:"instance_types"`

	// NodePoolAPIVersion selects the Karpenter NodePool schema to apply.
	// The upstream manifests diverge between karpenter.sh/v1beta1 and
	// karpenter.sh/v1, so the choice is configuration, not code.
	NodePoolAPIVersion string `mapstructure:"nodepool_api_version" yaml:"nodepool_api_version"`
}

// AzureConfig holds AKS-specific settings.
type AzureConfig struct {
	SubscriptionID string `mapstructure:"subscription_id" yaml:"subscription_id"`
	ResourceGroup  string `mapstructure:"resource_group" yaml:"resource_group"`

	// NetworkDataplane selects the CNI dataplane ("azure" or "cilium").
	NetworkDataplane string `mapstructure:"network_dataplane" yaml:"network_dataplane"`

	NodeCount  int    `mapstructure:"node_count" yaml:"node_count"`
	NodeVMSize string `mapstructure:"node_vm_size" yaml:"node_vm_size"`

	// AutoscalerMin/Max bound the built-in cluster autoscaler profile.
	AutoscalerMin int `mapstructure:"autoscaler_min" yaml:"autoscaler_min"`
	AutoscalerMax int `mapstructure:"autoscaler_max" yaml:"autoscaler_max"`
}

// VersionsConfig pins the chart versions of platform components.
type VersionsConfig struct {
	Karpenter string `mapstructure:"karpenter" yaml:"karpenter"`
	VCluster  string `mapstructure:"vcluster" yaml:"vcluster"`
	Istio     string `mapstructure:"istio" yaml:"istio"`
	Knative   string `mapstructure:"knative" yaml:"knative"`
	ArgoCD    string `mapstructure:"argocd" yaml:"argocd"`
}

// Secret store backend identifiers.
const (
	SecretBackendAuto       = "auto"
	SecretBackendVault      = "vault"
	SecretBackendParamStore = "paramstore"
)

// SecretsConfig selects and configures the secret store.
type SecretsConfig struct {
	// Backend is "auto" (probe vault, fall back to the parameter store),
	// "vault", or "paramstore".
	Backend string `mapstructure:"backend" yaml:"backend"`

	VaultAddr  string `mapstructure:"vault_addr" yaml:"vault_addr"`
	VaultMount string `mapstructure:"vault_mount" yaml:"vault_mount"`

	// ParameterPrefix namespaces all parameter-store keys.
	ParameterPrefix string `mapstructure:"parameter_prefix" yaml:"parameter_prefix"`

	// KubeconfigPrefix is the secret-store path prefix for kubeconfigs.
	KubeconfigPrefix string `mapstructure:"kubeconfig_prefix" yaml:"kubeconfig_prefix"`
}

// KubeconfigConfig controls where kubeconfig files live on disk.
type KubeconfigConfig struct {
	// Dir holds one kubeconfig file per logical context plus the active
	// context pointer.
	Dir string `mapstructure:"dir" yaml:"dir"`

	// BackupDir receives timestamped snapshot copies of Dir.
	BackupDir string `mapstructure:"backup_dir" yaml:"backup_dir"`
}

// BackupConfig optionally mirrors credential snapshots to S3.
type BackupConfig struct {
	S3Bucket   string `mapstructure:"s3_bucket" yaml:"s3_bucket"`
	S3Region   string `mapstructure:"s3_region" yaml:"s3_region"`
	S3Endpoint string `mapstructure:"s3_endpoint" yaml:"s3_endpoint"`
}

// VClusterConfig describes one virtual cluster.
type VClusterConfig struct {
	Name string `mapstructure:"name" yaml:"name"`
	// Namespace is the host namespace backing the virtual cluster. Defaults
	// to vcluster-<name>.
	Namespace string `mapstructure:"namespace" yaml:"namespace"`
}

// ContextConfig describes one logical kubeconfig context.
type ContextConfig struct {
	Name string `mapstructure:"name" yaml:"name"`
	// File is the kubeconfig file name inside Kubeconfig.Dir. Defaults to
	// <name>.kubeconfig.
	File string `mapstructure:"file" yaml:"file"`
}
