package platform

import (
	"fmt"
	"sort"

	"k8s.io/client-go/tools/clientcmd"
	clientcmdapi "k8s.io/client-go/tools/clientcmd/api"
)

// Kubeconfig renders a kubeconfig for the endpoint under the given context
// name. When the provider issued a complete kubeconfig it is returned as-is;
// otherwise one is synthesized from the endpoint's URL, CA, and exec hint.
func Kubeconfig(ep *Endpoint, contextName string) ([]byte, error) {
	if len(ep.Kubeconfig) > 0 {
		return ep.Kubeconfig, nil
	}
	if ep.URL == "" {
		return nil, fmt.Errorf("endpoint for %q has neither kubeconfig nor URL", ep.Name)
	}

	cluster := clientcmdapi.NewCluster()
	cluster.Server = ep.URL
	cluster.CertificateAuthorityData = ep.CAData

	authInfo := clientcmdapi.NewAuthInfo()
	if ep.AuthExec != nil {
		exec := &clientcmdapi.ExecConfig{
			APIVersion:      "client.authentication.k8s.io/v1beta1",
			Command:         ep.AuthExec.Command,
			Args:            ep.AuthExec.Args,
			InteractiveMode: clientcmdapi.NeverExecInteractiveMode,
		}
		keys := make([]string, 0, len(ep.AuthExec.Env))
		for k := range ep.AuthExec.Env {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			exec.Env = append(exec.Env, clientcmdapi.ExecEnvVar{Name: k, Value: ep.AuthExec.Env[k]})
		}
		authInfo.Exec = exec
	}

	cfg := clientcmdapi.NewConfig()
	cfg.Clusters[ep.Name] = cluster
	cfg.AuthInfos[ep.Name] = authInfo
	cfg.Contexts[contextName] = &clientcmdapi.Context{
		Cluster:  ep.Name,
		AuthInfo: ep.Name,
	}
	cfg.CurrentContext = contextName

	return clientcmd.Write(*cfg)
}
