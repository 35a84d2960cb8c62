// Package handlers implements the business logic for CLI commands.
//
// Handlers are framework-agnostic and testable independently of cobra. All
// external construction goes through factory function variables so tests can
// inject fakes.
package handlers

import (
	"context"
	"fmt"

	"github.com/shlapolosa/idp/internal/config"
	"github.com/shlapolosa/idp/internal/platform"
	"github.com/shlapolosa/idp/internal/platform/aws"
	"github.com/shlapolosa/idp/internal/platform/azure"
	"github.com/shlapolosa/idp/internal/secrets"
	"github.com/shlapolosa/idp/internal/util/prerequisites"
)

// Factory function variables - replaced in tests for dependency injection.
var (
	// loadConfigFile loads and validates the platform configuration.
	loadConfigFile = config.LoadFile

	// newProvider creates the cloud adapter for the configured cloud.
	newProvider = func(ctx context.Context, cfg *config.Config) (platform.Adapter, error) {
		switch cfg.Cloud {
		case config.CloudAWS:
			return aws.New(ctx, cfg)
		case config.CloudAzure:
			return azure.New(ctx, cfg)
		default:
			return nil, fmt.Errorf("unknown cloud %q", cfg.Cloud)
		}
	}

	// openStore connects the secret store backend.
	openStore = secrets.Open

	// checkPrereqs verifies credentials before the first cloud call.
	checkPrereqs = func(cfg *config.Config) error {
		results := prerequisites.Check(
			prerequisites.ForCloud(cfg.Cloud),
			prerequisites.AuthExecTools(cfg.Cloud),
		)
		return results.Error()
	}
)
