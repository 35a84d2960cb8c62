package config

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"gopkg.in/yaml.v3"
)

// WizardResult holds the user's choices from the init wizard.
type WizardResult struct {
	Name      string
	Cloud     string
	Region    string
	Backend   string
	VaultAddr string
}

// RunWizard collects the minimal configuration interactively. Everything not
// asked here gets a default from ApplyDefaults.
func RunWizard(ctx context.Context) (*WizardResult, error) {
	result := &WizardResult{
		Cloud:   CloudAWS,
		Backend: SecretBackendAuto,
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Cluster name").
				Description("A unique name for the platform cluster (DNS-safe, lowercase)").
				Placeholder("platform").
				Value(&result.Name).
				Validate(validateWizardName),
		),

		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Cloud provider").
				Description("Where the physical cluster lives").
				Options(
					huh.NewOption("AWS (EKS + Karpenter)", CloudAWS),
					huh.NewOption("Azure (AKS with built-in autoscaler)", CloudAzure),
				).
				Value(&result.Cloud),
		),

		huh.NewGroup(
			huh.NewInput().
				Title("Region").
				Description("Cloud region, e.g. eu-west-1 or westeurope. Leave empty for the default.").
				Value(&result.Region),
		),

		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Secret store").
				Description("auto probes Vault and falls back to the cloud parameter store").
				Options(
					huh.NewOption("Auto (Vault if reachable, else parameter store)", SecretBackendAuto),
					huh.NewOption("Vault only", SecretBackendVault),
					huh.NewOption("Parameter store only (plaintext)", SecretBackendParamStore),
				).
				Value(&result.Backend),

			huh.NewInput().
				Title("Vault address (optional)").
				Description("e.g. https://vault.internal:8200. Leave empty to use VAULT_ADDR.").
				Value(&result.VaultAddr),
		),
	)

	if err := form.RunWithContext(ctx); err != nil {
		return nil, fmt.Errorf("wizard canceled: %w", err)
	}
	return result, nil
}

// ToConfig converts the wizard result to a full Config with defaults applied.
func (r *WizardResult) ToConfig() *Config {
	cfg := &Config{
		ClusterName: r.Name,
		Cloud:       r.Cloud,
		Region:      r.Region,
		Secrets: SecretsConfig{
			Backend:   r.Backend,
			VaultAddr: r.VaultAddr,
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

// WriteYAML writes the configuration to a file.
func WriteYAML(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func validateWizardName(name string) error {
	if name == "" {
		return fmt.Errorf("cluster name is required")
	}
	if !clusterNameRe.MatchString(name) {
		return fmt.Errorf("must be a lowercase DNS label")
	}
	return nil
}
