package secrets

import (
	"context"
	"fmt"
	"log"

	vaultapi "github.com/hashicorp/vault/api"

	"github.com/shlapolosa/idp/internal/config"
)

// Factory seams for tests.
var (
	openVault = func(ctx context.Context, cfg *config.Config) (Store, error) {
		vaultCfg := vaultapi.DefaultConfig()
		if cfg.Secrets.VaultAddr != "" {
			vaultCfg.Address = cfg.Secrets.VaultAddr
		}
		client, err := vaultapi.NewClient(vaultCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create vault client: %w", err)
		}
		health, err := client.Sys().HealthWithContext(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: vault at %s: %v", ErrBackendUnavailable, vaultCfg.Address, err)
		}
		if health.Sealed {
			return nil, fmt.Errorf("%w: vault at %s is sealed", ErrBackendUnavailable, vaultCfg.Address)
		}
		return NewVaultStore(client, cfg.Secrets.VaultMount), nil
	}

	openParamStore = func(ctx context.Context, cfg *config.Config) (Store, error) {
		return NewParamStore(ctx, cfg.Region, cfg.Secrets.ParameterPrefix)
	}
)

// Open selects and connects the secret store backend.
//
// With backend "auto" the encrypted Vault backend is probed first; if it is
// unreachable or sealed the store falls back to the plaintext parameter store
// so provisioning does not stall on a missing Vault. The fallback is logged
// loudly because it changes the at-rest security of everything written.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.Secrets.Backend {
	case config.SecretBackendVault:
		return openVault(ctx, cfg)
	case config.SecretBackendParamStore:
		return openParamStore(ctx, cfg)
	case config.SecretBackendAuto, "":
		store, err := openVault(ctx, cfg)
		if err == nil {
			return store, nil
		}
		log.Printf("[secrets] vault unavailable (%v), falling back to plaintext parameter store", err)
		return openParamStore(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown secrets backend %q", cfg.Secrets.Backend)
	}
}
