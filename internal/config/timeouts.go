package config

import (
	"os"
	"strconv"
	"time"
)

// Timeouts holds all configurable timeout values.
// These values can be customized via environment variables.
type Timeouts struct {
	ClusterReady      time.Duration // Timeout for cluster creation to reach active
	NodeGroupReady    time.Duration // Timeout for node-group creation to reach active
	AppInstall        time.Duration // Timeout for a single chart install
	VClusterReady     time.Duration // Timeout for a virtual cluster to publish its kubeconfig
	Delete            time.Duration // Timeout for all delete operations
	RetryMaxAttempts  int           // Maximum number of retry attempts
	RetryInitialDelay time.Duration // Initial delay between retries
}

// LoadTimeouts loads timeout configuration from environment variables.
// If an environment variable is not set or invalid, a default value is used.
//
// Environment Variables:
//   - IDP_TIMEOUT_CLUSTER_READY (default: 30m)
//   - IDP_TIMEOUT_NODEGROUP_READY (default: 15m)
//   - IDP_TIMEOUT_APP_INSTALL (default: 10m)
//   - IDP_TIMEOUT_VCLUSTER_READY (default: 5m)
//   - IDP_TIMEOUT_DELETE (default: 20m)
//   - IDP_RETRY_MAX_ATTEMPTS (default: 5)
//   - IDP_RETRY_INITIAL_DELAY (default: 1s)
func LoadTimeouts() *Timeouts {
	return &Timeouts{
		ClusterReady:      parseDuration("IDP_TIMEOUT_CLUSTER_READY", 30*time.Minute),
		NodeGroupReady:    parseDuration("IDP_TIMEOUT_NODEGROUP_READY", 15*time.Minute),
		AppInstall:        parseDuration("IDP_TIMEOUT_APP_INSTALL", 10*time.Minute),
		VClusterReady:     parseDuration("IDP_TIMEOUT_VCLUSTER_READY", 5*time.Minute),
		Delete:            parseDuration("IDP_TIMEOUT_DELETE", 20*time.Minute),
		RetryMaxAttempts:  parseInt("IDP_RETRY_MAX_ATTEMPTS", 5),
		RetryInitialDelay: parseDuration("IDP_RETRY_INITIAL_DELAY", 1*time.Second),
	}
}

// parseDuration parses a duration from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}

	return d
}

// parseInt parses an integer from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseInt(envVar string, defaultVal int) int {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return i
}
