package handlers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shlapolosa/idp/internal/config"
	"github.com/shlapolosa/idp/internal/platform"
	"github.com/shlapolosa/idp/internal/secrets"
)

func TestDelete_AbsentClusterOnlyDeletesCluster(t *testing.T) {
	cfg := testConfig(t, config.CloudAzure)
	provider := &fakeProvider{state: platform.StateAbsent}
	stubDeps(t, cfg, secrets.NewMemoryStore(), provider)

	// Best-effort teardown always succeeds, even with nothing to remove.
	require.NoError(t, Delete(context.Background(), ""))
	assert.True(t, provider.deleted)
}

func TestDelete_ExistingClusterNeverProvisions(t *testing.T) {
	cfg := testConfig(t, config.CloudAzure)
	provider := &fakeProvider{state: platform.StatePresent}
	stubDeps(t, cfg, secrets.NewMemoryStore(), provider)

	require.NoError(t, Delete(context.Background(), ""))

	// Teardown connects read-only: a partially torn-down platform must never
	// get resources recreated (node groups, kubeconfig records) on the way
	// out.
	assert.Zero(t, provider.ensureCalls)
	assert.True(t, provider.deleted)
}

func TestDelete_UnreachableClusterStillDeletesCluster(t *testing.T) {
	cfg := testConfig(t, config.CloudAzure)
	provider := &fakeProvider{
		state:       platform.StatePresent,
		endpointErr: errors.New("credentials expired"),
	}
	stubDeps(t, cfg, secrets.NewMemoryStore(), provider)

	// A failed connection degrades to cluster-only teardown, not an abort.
	require.NoError(t, Delete(context.Background(), ""))
	assert.True(t, provider.deleted)
	assert.Zero(t, provider.ensureCalls)
}
