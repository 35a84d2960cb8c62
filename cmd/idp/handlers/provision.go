package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/shlapolosa/idp/internal/config"
	"github.com/shlapolosa/idp/internal/kubecontext"
	"github.com/shlapolosa/idp/internal/provisioning"
	"github.com/shlapolosa/idp/internal/provisioning/apps"
	"github.com/shlapolosa/idp/internal/provisioning/autoscaler"
	"github.com/shlapolosa/idp/internal/provisioning/cluster"
	"github.com/shlapolosa/idp/internal/provisioning/vcluster"
	"github.com/shlapolosa/idp/internal/secrets"
	"github.com/shlapolosa/idp/internal/util/keygen"
)

const sshKeyPath = "platform/ssh/private_key"
const sshPubKeyPath = "platform/ssh/public_key"

// Provision creates or completes the platform described by the configuration.
func Provision(ctx context.Context, configPath string) error {
	pctx, err := newPipelineContext(ctx, configPath)
	if err != nil {
		return err
	}

	if err := ensureSSHKey(pctx); err != nil {
		return err
	}

	if err := provisioning.Run(pctx, buildStages(pctx.Config)); err != nil {
		return err
	}

	// Select the physical cluster if no context is active yet.
	if _, err := pctx.Contexts.Current(); errors.Is(err, kubecontext.ErrNotFound) {
		if err := pctx.Contexts.Switch(cluster.MainContext); err != nil {
			return err
		}
	}

	log.Printf("platform %s is ready; switch contexts with 'idp context switch <name>'", pctx.Config.ClusterName)
	return nil
}

// newPipelineContext wires the shared dependencies of provision and delete.
func newPipelineContext(ctx context.Context, configPath string) (*provisioning.Context, error) {
	cfg, err := loadConfigFile(configPath)
	if err != nil {
		return nil, err
	}
	if err := checkPrereqs(cfg); err != nil {
		return nil, err
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	provider, err := newProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return provisioning.NewContext(ctx, cfg, provider,
		secrets.NewManager(store, cfg), kubecontext.New(cfg, store)), nil
}

// buildStages assembles the pipeline in dependency order. The autoscaler
// stage only exists on AWS; AKS brings its own autoscaler.
func buildStages(cfg *config.Config) []provisioning.Stage {
	stages := []provisioning.Stage{cluster.New()}
	if cfg.Cloud == config.CloudAWS {
		stages = append(stages, autoscaler.New())
	}
	stages = append(stages, apps.Catalog()...)
	stages = append(stages, vcluster.Stages(cfg.VClusters)...)
	return stages
}

// ensureSSHKey generates the platform's operator SSH key pair on first run.
func ensureSSHKey(pctx *provisioning.Context) error {
	_, err := pctx.Secrets.Get(pctx, sshKeyPath)
	if err == nil {
		return nil
	}
	if !errors.Is(err, secrets.ErrNotFound) {
		return err
	}

	pair, err := keygen.GenerateEd25519KeyPair("idp@" + pctx.Config.ClusterName)
	if err != nil {
		return err
	}
	meta := secrets.Metadata{Source: "provision"}
	if err := pctx.Secrets.Put(pctx, sshKeyPath, pair.PrivateKey, meta); err != nil {
		return fmt.Errorf("failed to store SSH private key: %w", err)
	}
	if err := pctx.Secrets.Put(pctx, sshPubKeyPath, pair.PublicKey, meta); err != nil {
		return fmt.Errorf("failed to store SSH public key: %w", err)
	}
	log.Printf("generated platform SSH key pair under platform/ssh")
	return nil
}
