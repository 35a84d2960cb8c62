package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadTimeouts_Defaults(t *testing.T) {
	t.Setenv("IDP_TIMEOUT_CLUSTER_READY", "")
	t.Setenv("IDP_RETRY_MAX_ATTEMPTS", "")

	timeouts := LoadTimeouts()

	assert.Equal(t, 30*time.Minute, timeouts.ClusterReady)
	assert.Equal(t, 10*time.Minute, timeouts.AppInstall)
	assert.Equal(t, 5, timeouts.RetryMaxAttempts)
}

func TestLoadTimeouts_EnvOverride(t *testing.T) {
	t.Setenv("IDP_TIMEOUT_CLUSTER_READY", "90s")
	t.Setenv("IDP_RETRY_MAX_ATTEMPTS", "2")

	timeouts := LoadTimeouts()

	assert.Equal(t, 90*time.Second, timeouts.ClusterReady)
	assert.Equal(t, 2, timeouts.RetryMaxAttempts)
}

func TestLoadTimeouts_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("IDP_TIMEOUT_DELETE", "soon")
	t.Setenv("IDP_RETRY_MAX_ATTEMPTS", "many")

	timeouts := LoadTimeouts()

	assert.Equal(t, 20*time.Minute, timeouts.Delete)
	assert.Equal(t, 5, timeouts.RetryMaxAttempts)
}
