package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/shlapolosa/idp/internal/util/naming"
)

// DefaultConfigFile is the file LoadFile falls back to when no path is given.
const DefaultConfigFile = "idp.yaml"

// LoadFile reads and parses the configuration from a YAML file, applies
// defaults, and validates the result.
func LoadFile(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFile
	}

	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var rawConfig map[string]interface{}
	if err := yaml.Unmarshal(data, &rawConfig); err != nil {
		return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
	}

	var cfg Config
	if err := mapstructure.Decode(rawConfig, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// ApplyDefaults fills in every unset field that has a sensible default.
func (c *Config) ApplyDefaults() {
	if c.Cloud == "" {
		c.Cloud = CloudAWS
	}
	if c.Region == "" {
		switch c.Cloud {
		case CloudAzure:
			c.Region = "westeurope"
		default:
			c.Region = "eu-west-1"
		}
	}
	if c.Kubernetes.Version == "" {
		c.Kubernetes.Version = "1.31"
	}

	if c.AWS.NodePoolAPIVersion == "" {
		c.AWS.NodePoolAPIVersion = "karpenter.sh/v1beta1"
	}
	if len(c.AWS.InstanceTypes) == 0 {
		c.AWS.InstanceTypes = []string{"t3.large"}
	}

	if c.Azure.NetworkDataplane == "" {
		c.Azure.NetworkDataplane = "cilium"
	}
	if c.Azure.NodeVMSize == "" {
		c.Azure.NodeVMSize = "Standard_D2s_v5"
	}
	if c.Azure.NodeCount == 0 {
		c.Azure.NodeCount = 2
	}
	if c.Azure.AutoscalerMin == 0 {
		c.Azure.AutoscalerMin = 1
	}
	if c.Azure.AutoscalerMax == 0 {
		c.Azure.AutoscalerMax = 10
	}
	if c.Azure.ResourceGroup == "" && c.ClusterName != "" {
		c.Azure.ResourceGroup = naming.ResourceGroup(c.ClusterName)
	}

	if c.Versions.Karpenter == "" {
		c.Versions.Karpenter = "0.37.0"
	}
	if c.Versions.VCluster == "" {
		c.Versions.VCluster = "0.20.0"
	}
	if c.Versions.Istio == "" {
		c.Versions.Istio = "1.23.2"
	}
	if c.Versions.Knative == "" {
		c.Versions.Knative = "1.15.0"
	}
	if c.Versions.ArgoCD == "" {
		c.Versions.ArgoCD = "7.6.12"
	}

	if c.Secrets.Backend == "" {
		c.Secrets.Backend = SecretBackendAuto
	}
	if c.Secrets.VaultMount == "" {
		c.Secrets.VaultMount = "secret"
	}
	if c.Secrets.ParameterPrefix == "" {
		c.Secrets.ParameterPrefix = "/idp"
	}
	if c.Secrets.KubeconfigPrefix == "" {
		c.Secrets.KubeconfigPrefix = "platform/kubeconfigs"
	}

	if c.Kubeconfig.Dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		c.Kubeconfig.Dir = filepath.Join(home, ".idp", "kubeconfigs")
	}
	if c.Kubeconfig.BackupDir == "" {
		c.Kubeconfig.BackupDir = c.Kubeconfig.Dir + "-backups"
	}

	if len(c.VClusters) == 0 {
		c.VClusters = []VClusterConfig{
			{Name: "dev"},
			{Name: "staging"},
			{Name: "prod"},
		}
	}
	for i := range c.VClusters {
		if c.VClusters[i].Namespace == "" {
			c.VClusters[i].Namespace = naming.VClusterNamespace(c.VClusters[i].Name)
		}
	}

	if len(c.Contexts) == 0 {
		c.Contexts = append(c.Contexts, ContextConfig{Name: "main"})
		for _, vc := range c.VClusters {
			c.Contexts = append(c.Contexts, ContextConfig{Name: vc.Name})
		}
		c.Contexts = append(c.Contexts, ContextConfig{Name: "management"})
	}
	for i := range c.Contexts {
		if c.Contexts[i].File == "" {
			c.Contexts[i].File = naming.KubeconfigFile(c.Contexts[i].Name)
		}
	}
}
