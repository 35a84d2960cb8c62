package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := &Config{ClusterName: "platform"}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid default",
			mutate: func(*Config) {},
		},
		{
			name:    "missing cluster name",
			mutate:  func(c *Config) { c.ClusterName = "" },
			wantErr: "cluster_name is required",
		},
		{
			name:    "uppercase cluster name",
			mutate:  func(c *Config) { c.ClusterName = "Platform" },
			wantErr: "lowercase DNS label",
		},
		{
			name:    "unknown cloud",
			mutate:  func(c *Config) { c.Cloud = "gcp" },
			wantErr: "cloud must be",
		},
		{
			name:    "missing region",
			mutate:  func(c *Config) { c.Region = "" },
			wantErr: "region is required",
		},
		{
			name: "azure without subscription",
			mutate: func(c *Config) {
				c.Cloud = CloudAzure
			},
			wantErr: "azure.subscription_id is required",
		},
		{
			name: "azure bad dataplane",
			mutate: func(c *Config) {
				c.Cloud = CloudAzure
				c.Azure.SubscriptionID = "sub"
				c.Azure.NetworkDataplane = "calico"
			},
			wantErr: "network_dataplane",
		},
		{
			name: "azure inverted autoscaler bounds",
			mutate: func(c *Config) {
				c.Cloud = CloudAzure
				c.Azure.SubscriptionID = "sub"
				c.Azure.AutoscalerMin = 5
				c.Azure.AutoscalerMax = 2
			},
			wantErr: "autoscaler_min",
		},
		{
			name:    "unknown secret backend",
			mutate:  func(c *Config) { c.Secrets.Backend = "etcd" },
			wantErr: "secrets.backend",
		},
		{
			name: "vault backend requires addr",
			mutate: func(c *Config) {
				c.Secrets.Backend = SecretBackendVault
				c.Secrets.VaultAddr = ""
			},
			wantErr: "vault_addr",
		},
		{
			name: "duplicate vcluster",
			mutate: func(c *Config) {
				c.VClusters = append(c.VClusters, VClusterConfig{Name: "dev", Namespace: "x"})
			},
			wantErr: "duplicate vcluster",
		},
		{
			name: "duplicate context",
			mutate: func(c *Config) {
				c.Contexts = append(c.Contexts, ContextConfig{Name: "main", File: "x"})
			},
			wantErr: "duplicate context",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
