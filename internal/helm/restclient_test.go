package helm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKubeconfig = `apiVersion: v1
kind: Config
clusters:
- name: platform
  cluster:
    server: https://10.0.0.1:6443
contexts:
- name: platform
  context:
    cluster: platform
    user: admin
current-context: platform
users:
- name: admin
  user:
    token: t
`

func TestInMemoryRESTClientGetter(t *testing.T) {
	t.Parallel()
	getter := NewInMemoryRESTClientGetter([]byte(testKubeconfig), "argocd")

	restConfig, err := getter.ToRESTConfig()
	require.NoError(t, err)
	assert.Equal(t, "https://10.0.0.1:6443", restConfig.Host)

	// The config is built once and reused.
	again, err := getter.ToRESTConfig()
	require.NoError(t, err)
	assert.Same(t, restConfig, again)

	raw := getter.ToRawKubeConfigLoader()
	ns, _, err := raw.Namespace()
	require.NoError(t, err)
	assert.Equal(t, "default", ns)
}

func TestInMemoryRESTClientGetter_BadKubeconfig(t *testing.T) {
	t.Parallel()
	getter := NewInMemoryRESTClientGetter([]byte("{not kubeconfig"), "argocd")

	_, err := getter.ToRESTConfig()
	assert.Error(t, err)
}
