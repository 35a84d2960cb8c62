// Package k8s wraps the Kubernetes API operations the platform stages need:
// namespaces, secrets, readiness waits, and applying dynamic manifests.
package k8s

import (
	"context"
	"fmt"
	"log"
	"time"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/shlapolosa/idp/internal/util/retry"
)

// Client wraps typed and dynamic Kubernetes access for one cluster.
type Client struct {
	Clientset kubernetes.Interface
	Dynamic   dynamic.Interface

	// PollInterval paces readiness waits. Zero means 5 seconds; tests
	// shorten it.
	PollInterval time.Duration
}

// NewFromKubeconfig creates a client from kubeconfig bytes.
func NewFromKubeconfig(kubeconfig []byte) (*Client, error) {
	config, err := clientcmd.RESTConfigFromKubeConfig(kubeconfig)
	if err != nil {
		return nil, fmt.Errorf("failed to build rest config from kubeconfig: %w", err)
	}

	clientset, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create clientset: %w", err)
	}
	dynamicClient, err := dynamic.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create dynamic client: %w", err)
	}

	return &Client{
		Clientset: clientset,
		Dynamic:   dynamicClient,
	}, nil
}

func (c *Client) interval() time.Duration {
	if c.PollInterval > 0 {
		return c.PollInterval
	}
	return 5 * time.Second
}

// EnsureNamespace creates the namespace if it does not exist.
func (c *Client) EnsureNamespace(ctx context.Context, name string) error {
	ns := &corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: name}}
	_, err := c.Clientset.CoreV1().Namespaces().Create(ctx, ns, metav1.CreateOptions{})
	if err != nil {
		if apierrors.IsAlreadyExists(err) {
			return nil
		}
		return fmt.Errorf("failed to create namespace %q: %w", name, err)
	}
	log.Printf("[k8s] created namespace %s", name)
	return nil
}

// NamespaceExists reports whether the namespace exists.
func (c *Client) NamespaceExists(ctx context.Context, name string) (bool, error) {
	_, err := c.Clientset.CoreV1().Namespaces().Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get namespace %q: %w", name, err)
	}
	return true, nil
}

// DeleteNamespace deletes the namespace and everything in it. Deleting an
// absent namespace is not an error.
func (c *Client) DeleteNamespace(ctx context.Context, name string) error {
	err := c.Clientset.CoreV1().Namespaces().Delete(ctx, name, metav1.DeleteOptions{})
	if err != nil && !apierrors.IsNotFound(err) {
		return fmt.Errorf("failed to delete namespace %q: %w", name, err)
	}
	return nil
}

// CreateSecret creates or updates an Opaque secret.
func (c *Client) CreateSecret(ctx context.Context, namespace, name string, data map[string][]byte) error {
	secret := &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: namespace},
		Data:       data,
		Type:       corev1.SecretTypeOpaque,
	}
	_, err := c.Clientset.CoreV1().Secrets(namespace).Create(ctx, secret, metav1.CreateOptions{})
	if err != nil {
		if !apierrors.IsAlreadyExists(err) {
			return fmt.Errorf("failed to create secret %s/%s: %w", namespace, name, err)
		}
		if _, err := c.Clientset.CoreV1().Secrets(namespace).Update(ctx, secret, metav1.UpdateOptions{}); err != nil {
			return fmt.Errorf("failed to update secret %s/%s: %w", namespace, name, err)
		}
	}
	return nil
}

// GetSecretValue returns one key of a secret.
func (c *Client) GetSecretValue(ctx context.Context, namespace, name, key string) ([]byte, error) {
	secret, err := c.Clientset.CoreV1().Secrets(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get secret %s/%s: %w", namespace, name, err)
	}
	value, ok := secret.Data[key]
	if !ok {
		return nil, fmt.Errorf("secret %s/%s has no key %q", namespace, name, key)
	}
	return value, nil
}

// SecretExists reports whether a secret exists.
func (c *Client) SecretExists(ctx context.Context, namespace, name string) (bool, error) {
	_, err := c.Clientset.CoreV1().Secrets(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get secret %s/%s: %w", namespace, name, err)
	}
	return true, nil
}

// WaitForSecret polls until a secret exists.
func (c *Client) WaitForSecret(ctx context.Context, namespace, name string, timeout time.Duration) error {
	return retry.Until(ctx, c.interval(), timeout, func() (bool, error) {
		return c.SecretExists(ctx, namespace, name)
	})
}

// WaitForDeployment polls until a deployment has all replicas available.
func (c *Client) WaitForDeployment(ctx context.Context, namespace, name string, timeout time.Duration) error {
	return retry.Until(ctx, c.interval(), timeout, func() (bool, error) {
		deployment, err := c.Clientset.AppsV1().Deployments(namespace).Get(ctx, name, metav1.GetOptions{})
		if err != nil {
			return false, nil
		}
		return isDeploymentReady(deployment), nil
	})
}

// WaitForStatefulSet polls until a statefulset has all replicas ready.
func (c *Client) WaitForStatefulSet(ctx context.Context, namespace, name string, timeout time.Duration) error {
	return retry.Until(ctx, c.interval(), timeout, func() (bool, error) {
		sts, err := c.Clientset.AppsV1().StatefulSets(namespace).Get(ctx, name, metav1.GetOptions{})
		if err != nil {
			return false, nil
		}
		if sts.Spec.Replicas == nil {
			return false, nil
		}
		return sts.Status.ReadyReplicas == *sts.Spec.Replicas, nil
	})
}

// ApplyDynamic creates or updates a cluster-scoped or namespaced resource via
// the dynamic client. The caller supplies the GVR because custom resources
// such as Karpenter node pools vary their API version by installation.
func (c *Client) ApplyDynamic(ctx context.Context, gvr schema.GroupVersionResource, obj *unstructured.Unstructured) error {
	resource := c.Dynamic.Resource(gvr)
	name := obj.GetName()

	var err error
	if ns := obj.GetNamespace(); ns != "" {
		_, err = resource.Namespace(ns).Create(ctx, obj, metav1.CreateOptions{})
		if apierrors.IsAlreadyExists(err) {
			err = c.updateDynamic(ctx, resource.Namespace(ns), obj)
		}
	} else {
		_, err = resource.Create(ctx, obj, metav1.CreateOptions{})
		if apierrors.IsAlreadyExists(err) {
			err = c.updateDynamic(ctx, resource, obj)
		}
	}
	if err != nil {
		return fmt.Errorf("failed to apply %s %q: %w", obj.GetKind(), name, err)
	}
	return nil
}

// DeleteDynamic deletes a dynamic resource. Absent resources are not an error.
func (c *Client) DeleteDynamic(ctx context.Context, gvr schema.GroupVersionResource, namespace, name string) error {
	resource := c.Dynamic.Resource(gvr)
	var err error
	if namespace != "" {
		err = resource.Namespace(namespace).Delete(ctx, name, metav1.DeleteOptions{})
	} else {
		err = resource.Delete(ctx, name, metav1.DeleteOptions{})
	}
	if err != nil && !apierrors.IsNotFound(err) {
		return fmt.Errorf("failed to delete %s %q: %w", gvr.Resource, name, err)
	}
	return nil
}

// DynamicExists reports whether a dynamic resource exists.
func (c *Client) DynamicExists(ctx context.Context, gvr schema.GroupVersionResource, namespace, name string) (bool, error) {
	resource := c.Dynamic.Resource(gvr)
	var err error
	if namespace != "" {
		_, err = resource.Namespace(namespace).Get(ctx, name, metav1.GetOptions{})
	} else {
		_, err = resource.Get(ctx, name, metav1.GetOptions{})
	}
	if err != nil {
		if apierrors.IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get %s %q: %w", gvr.Resource, name, err)
	}
	return true, nil
}

func (c *Client) updateDynamic(ctx context.Context, resource dynamic.ResourceInterface, obj *unstructured.Unstructured) error {
	existing, err := resource.Get(ctx, obj.GetName(), metav1.GetOptions{})
	if err != nil {
		return err
	}
	obj.SetResourceVersion(existing.GetResourceVersion())
	_, err = resource.Update(ctx, obj, metav1.UpdateOptions{})
	return err
}

func isDeploymentReady(deployment *appsv1.Deployment) bool {
	if deployment.Spec.Replicas == nil {
		return false
	}
	replicas := *deployment.Spec.Replicas
	if deployment.Status.UpdatedReplicas != replicas ||
		deployment.Status.AvailableReplicas != replicas {
		return false
	}
	for _, condition := range deployment.Status.Conditions {
		if condition.Type == appsv1.DeploymentAvailable && condition.Status == corev1.ConditionTrue {
			return true
		}
	}
	return false
}
