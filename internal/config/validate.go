package config

import (
	"fmt"
	"regexp"
)

var clusterNameRe = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)

// Validate checks the configuration for consistency. It is called by LoadFile
// after defaults are applied; calling it on a hand-built Config is fine too.
func (c *Config) Validate() error {
	if c.ClusterName == "" {
		return fmt.Errorf("cluster_name is required")
	}
	if !clusterNameRe.MatchString(c.ClusterName) {
		return fmt.Errorf("cluster_name %q must be a lowercase DNS label", c.ClusterName)
	}

	switch c.Cloud {
	case CloudAWS, CloudAzure:
	default:
		return fmt.Errorf("cloud must be %q or %q, got %q", CloudAWS, CloudAzure, c.Cloud)
	}

	if c.Region == "" {
		return fmt.Errorf("region is required")
	}

	if c.Cloud == CloudAzure {
		if c.Azure.SubscriptionID == "" {
			return fmt.Errorf("azure.subscription_id is required for cloud=azure")
		}
		switch c.Azure.NetworkDataplane {
		case "azure", "cilium":
		default:
			return fmt.Errorf("azure.network_dataplane must be \"azure\" or \"cilium\", got %q", c.Azure.NetworkDataplane)
		}
		if c.Azure.AutoscalerMin > c.Azure.AutoscalerMax {
			return fmt.Errorf("azure.autoscaler_min (%d) exceeds azure.autoscaler_max (%d)", c.Azure.AutoscalerMin, c.Azure.AutoscalerMax)
		}
	}

	switch c.Secrets.Backend {
	case SecretBackendAuto, SecretBackendVault, SecretBackendParamStore:
	default:
		return fmt.Errorf("secrets.backend must be auto, vault, or paramstore, got %q", c.Secrets.Backend)
	}
	if c.Secrets.Backend == SecretBackendVault && c.Secrets.VaultAddr == "" {
		return fmt.Errorf("secrets.vault_addr is required when secrets.backend=vault")
	}

	seen := make(map[string]bool, len(c.VClusters))
	for _, vc := range c.VClusters {
		if vc.Name == "" {
			return fmt.Errorf("vclusters entries require a name")
		}
		if !clusterNameRe.MatchString(vc.Name) {
			return fmt.Errorf("vcluster name %q must be a lowercase DNS label", vc.Name)
		}
		if seen[vc.Name] {
			return fmt.Errorf("duplicate vcluster name %q", vc.Name)
		}
		seen[vc.Name] = true
	}

	seenCtx := make(map[string]bool, len(c.Contexts))
	for _, cc := range c.Contexts {
		if cc.Name == "" {
			return fmt.Errorf("contexts entries require a name")
		}
		if seenCtx[cc.Name] {
			return fmt.Errorf("duplicate context name %q", cc.Name)
		}
		seenCtx[cc.Name] = true
	}

	return nil
}
