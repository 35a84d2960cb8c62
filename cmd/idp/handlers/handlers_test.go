package handlers

import (
	"context"
	"testing"

	"github.com/shlapolosa/idp/internal/config"
	"github.com/shlapolosa/idp/internal/platform"
	"github.com/shlapolosa/idp/internal/secrets"
)

type fakeProvider struct {
	state       platform.State
	deleted     bool
	ensureCalls int
	endpointErr error
}

func (f *fakeProvider) Name() string { return config.CloudAzure }

func (f *fakeProvider) EnsureCluster(_ context.Context, name, _, _ string) (*platform.Endpoint, error) {
	f.ensureCalls++
	f.state = platform.StatePresent
	return &platform.Endpoint{Name: name, Kubeconfig: []byte("kc-" + name)}, nil
}

func (f *fakeProvider) ClusterEndpoint(_ context.Context, name, _ string) (*platform.Endpoint, error) {
	if f.endpointErr != nil {
		return nil, f.endpointErr
	}
	return &platform.Endpoint{Name: name, Kubeconfig: []byte("kc-" + name)}, nil
}

func (f *fakeProvider) ClusterExists(context.Context, string, string) (bool, error) {
	return f.state == platform.StatePresent, nil
}

func (f *fakeProvider) ClusterStatus(context.Context, string, string) (platform.State, error) {
	return f.state, nil
}

func (f *fakeProvider) DeleteCluster(context.Context, string, string) error {
	f.deleted = true
	f.state = platform.StateAbsent
	return nil
}

// stubDeps replaces the handler factory seams for one test.
func stubDeps(t *testing.T, cfg *config.Config, store secrets.Store, provider platform.Adapter) {
	t.Helper()
	origLoad, origOpen, origProvider, origPrereqs := loadConfigFile, openStore, newProvider, checkPrereqs
	t.Cleanup(func() {
		loadConfigFile, openStore, newProvider, checkPrereqs = origLoad, origOpen, origProvider, origPrereqs
	})

	loadConfigFile = func(string) (*config.Config, error) { return cfg, nil }
	openStore = func(context.Context, *config.Config) (secrets.Store, error) { return store, nil }
	newProvider = func(context.Context, *config.Config) (platform.Adapter, error) { return provider, nil }
	checkPrereqs = func(*config.Config) error { return nil }
}

func testConfig(t *testing.T, cloud string) *config.Config {
	t.Helper()
	cfg := &config.Config{
		ClusterName: "platform",
		Cloud:       cloud,
		Kubeconfig:  config.KubeconfigConfig{Dir: t.TempDir(), BackupDir: t.TempDir()},
	}
	if cloud == config.CloudAzure {
		cfg.Azure.SubscriptionID = "sub"
	}
	cfg.ApplyDefaults()
	return cfg
}
