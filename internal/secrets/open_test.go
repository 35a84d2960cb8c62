package secrets

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shlapolosa/idp/internal/config"
)

func stubBackends(t *testing.T, vault Store, vaultErr error, param Store, paramErr error) {
	t.Helper()
	origVault, origParam := openVault, openParamStore
	t.Cleanup(func() { openVault, openParamStore = origVault, origParam })
	openVault = func(context.Context, *config.Config) (Store, error) { return vault, vaultErr }
	openParamStore = func(context.Context, *config.Config) (Store, error) { return param, paramErr }
}

func TestOpen_AutoPrefersVault(t *testing.T) {
	vault := NewMemoryStore()
	stubBackends(t, vault, nil, nil, errors.New("unused"))

	store, err := Open(context.Background(), &config.Config{})
	require.NoError(t, err)
	assert.Same(t, Store(vault), store)
}

func TestOpen_AutoFallsBackWhenVaultUnavailable(t *testing.T) {
	param := NewMemoryStore()
	stubBackends(t, nil, ErrBackendUnavailable, param, nil)

	store, err := Open(context.Background(), &config.Config{
		Secrets: config.SecretsConfig{Backend: config.SecretBackendAuto},
	})
	require.NoError(t, err)
	assert.Same(t, Store(param), store)
}

func TestOpen_ExplicitVaultDoesNotFallBack(t *testing.T) {
	stubBackends(t, nil, ErrBackendUnavailable, NewMemoryStore(), nil)

	_, err := Open(context.Background(), &config.Config{
		Secrets: config.SecretsConfig{Backend: config.SecretBackendVault},
	})
	assert.ErrorIs(t, err, ErrBackendUnavailable)
}

func TestOpen_UnknownBackend(t *testing.T) {
	stubBackends(t, NewMemoryStore(), nil, NewMemoryStore(), nil)

	_, err := Open(context.Background(), &config.Config{
		Secrets: config.SecretsConfig{Backend: "etcd"},
	})
	assert.Error(t, err)
}
