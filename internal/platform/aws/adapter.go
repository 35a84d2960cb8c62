// Package aws implements the platform adapter for Amazon EKS.
//
// Cluster creation follows the managed flow: create the control plane, wait
// for it to become active, bootstrap the default managed node group, and
// surface the OIDC issuer so identity federation (IRSA) can be wired against
// it. Node capacity beyond the bootstrap group is handled by Karpenter,
// installed as a pipeline stage.
package aws

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/eks"
	ekstypes "github.com/aws/aws-sdk-go-v2/service/eks/types"

	"github.com/shlapolosa/idp/internal/config"
	"github.com/shlapolosa/idp/internal/platform"
	"github.com/shlapolosa/idp/internal/util/naming"
	"github.com/shlapolosa/idp/internal/util/retry"
)

// EKSAPI is the subset of the EKS client the adapter uses.
type EKSAPI interface {
	CreateCluster(ctx context.Context, params *eks.CreateClusterInput, optFns ...func(*eks.Options)) (*eks.CreateClusterOutput, error)
	DescribeCluster(ctx context.Context, params *eks.DescribeClusterInput, optFns ...func(*eks.Options)) (*eks.DescribeClusterOutput, error)
	DeleteCluster(ctx context.Context, params *eks.DeleteClusterInput, optFns ...func(*eks.Options)) (*eks.DeleteClusterOutput, error)
	CreateNodegroup(ctx context.Context, params *eks.CreateNodegroupInput, optFns ...func(*eks.Options)) (*eks.CreateNodegroupOutput, error)
	DescribeNodegroup(ctx context.Context, params *eks.DescribeNodegroupInput, optFns ...func(*eks.Options)) (*eks.DescribeNodegroupOutput, error)
	DeleteNodegroup(ctx context.Context, params *eks.DeleteNodegroupInput, optFns ...func(*eks.Options)) (*eks.DeleteNodegroupOutput, error)
}

// Adapter drives EKS cluster lifecycle.
type Adapter struct {
	client       EKSAPI
	cfg          *config.Config
	timeouts     *config.Timeouts
	pollInterval time.Duration
}

// New creates an EKS adapter using the default AWS credential chain.
func New(ctx context.Context, cfg *config.Config) (*Adapter, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewWithClient(eks.NewFromConfig(awsCfg), cfg), nil
}

// NewWithClient creates an adapter with a custom EKS client (for testing).
func NewWithClient(client EKSAPI, cfg *config.Config) *Adapter {
	return &Adapter{
		client:       client,
		cfg:          cfg,
		timeouts:     config.LoadTimeouts(),
		pollInterval: 30 * time.Second,
	}
}

// Name implements platform.Adapter.
func (a *Adapter) Name() string { return config.CloudAWS }

// EnsureCluster implements platform.Adapter.
func (a *Adapter) EnsureCluster(ctx context.Context, name, region, version string) (*platform.Endpoint, error) {
	cluster, err := a.describe(ctx, name)
	if err != nil && !isNotFound(err) {
		return nil, fmt.Errorf("failed to describe cluster %q: %w", name, err)
	}

	if cluster == nil {
		log.Printf("[aws] creating EKS cluster %s (%s, k8s %s)", name, region, version)
		input := &eks.CreateClusterInput{
			Name:    awssdk.String(name),
			Version: awssdk.String(version),
			ResourcesVpcConfig: &ekstypes.VpcConfigRequest{
				SubnetIds:        a.cfg.AWS.SubnetIDs,
				SecurityGroupIds: a.cfg.AWS.SecurityGroupIDs,
			},
			Tags: map[string]string{"idp.io/cluster": name},
		}
		if a.cfg.AWS.ClusterRoleARN != "" {
			input.RoleArn = awssdk.String(a.cfg.AWS.ClusterRoleARN)
		}
		err := a.mutate(ctx, func() error {
			_, err := a.client.CreateCluster(ctx, input)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create cluster %q: %w", name, err)
		}
	} else {
		log.Printf("[aws] EKS cluster %s already exists (status %s)", name, cluster.Status)
	}

	cluster, err = a.waitClusterActive(ctx, name)
	if err != nil {
		return nil, err
	}

	if cluster.Identity != nil && cluster.Identity.Oidc != nil && cluster.Identity.Oidc.Issuer != nil {
		log.Printf("[aws] cluster %s OIDC issuer: %s", name, *cluster.Identity.Oidc.Issuer)
	}

	if err := a.ensureNodeGroup(ctx, name); err != nil {
		return nil, err
	}

	return a.endpoint(cluster, region)
}

// ClusterExists implements platform.Adapter.
func (a *Adapter) ClusterExists(ctx context.Context, name, _ string) (bool, error) {
	_, err := a.describe(ctx, name)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to describe cluster %q: %w", name, err)
	}
	return true, nil
}

// ClusterEndpoint implements platform.Adapter. It is strictly read-only: a
// single describe call, no node-group bootstrap.
func (a *Adapter) ClusterEndpoint(ctx context.Context, name, region string) (*platform.Endpoint, error) {
	cluster, err := a.describe(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to describe cluster %q: %w", name, err)
	}
	return a.endpoint(cluster, region)
}

// ClusterStatus implements platform.Adapter.
func (a *Adapter) ClusterStatus(ctx context.Context, name, _ string) (platform.State, error) {
	cluster, err := a.describe(ctx, name)
	if err != nil {
		if isNotFound(err) {
			return platform.StateAbsent, nil
		}
		return "", fmt.Errorf("failed to describe cluster %q: %w", name, err)
	}
	return stateFromStatus(cluster.Status), nil
}

// DeleteCluster implements platform.Adapter.
//
// The default node group is removed first; EKS refuses to delete a cluster
// with attached node groups.
func (a *Adapter) DeleteCluster(ctx context.Context, name, _ string) error {
	if err := a.deleteNodeGroup(ctx, name); err != nil {
		return err
	}

	err := a.mutate(ctx, func() error {
		_, err := a.client.DeleteCluster(ctx, &eks.DeleteClusterInput{Name: awssdk.String(name)})
		return err
	})
	if err != nil {
		if isNotFound(err) {
			log.Printf("[aws] EKS cluster %s already gone", name)
			return nil
		}
		return fmt.Errorf("failed to delete cluster %q: %w", name, err)
	}
	log.Printf("[aws] EKS cluster %s deletion requested", name)
	return nil
}

// mutate runs a control-plane mutation with exponential backoff on transient
// API errors (throttling, 5xx). NotFound is terminal and not retried.
func (a *Adapter) mutate(ctx context.Context, op func() error) error {
	return retry.WithExponentialBackoff(ctx, func() error {
		err := op()
		if err != nil && isNotFound(err) {
			return retry.Fatal(err)
		}
		return err
	},
		retry.WithMaxRetries(a.timeouts.RetryMaxAttempts),
		retry.WithInitialDelay(a.timeouts.RetryInitialDelay),
	)
}

func (a *Adapter) describe(ctx context.Context, name string) (*ekstypes.Cluster, error) {
	out, err := a.client.DescribeCluster(ctx, &eks.DescribeClusterInput{Name: awssdk.String(name)})
	if err != nil {
		return nil, err
	}
	return out.Cluster, nil
}

func (a *Adapter) waitClusterActive(ctx context.Context, name string) (*ekstypes.Cluster, error) {
	var cluster *ekstypes.Cluster
	err := retry.Until(ctx, a.pollInterval, a.timeouts.ClusterReady, func() (bool, error) {
		c, err := a.describe(ctx, name)
		if err != nil {
			return false, fmt.Errorf("failed to describe cluster %q: %w", name, err)
		}
		switch c.Status {
		case ekstypes.ClusterStatusActive:
			cluster = c
			return true, nil
		case ekstypes.ClusterStatusFailed:
			return false, fmt.Errorf("cluster %q entered FAILED state", name)
		default:
			return false, nil
		}
	})
	if err != nil {
		return nil, fmt.Errorf("waiting for cluster %q to become active: %w", name, err)
	}
	return cluster, nil
}

// ensureNodeGroup bootstraps the default managed node group if absent and
// waits for it to become active.
func (a *Adapter) ensureNodeGroup(ctx context.Context, clusterName string) error {
	ngName := naming.NodeGroup(clusterName)

	_, err := a.client.DescribeNodegroup(ctx, &eks.DescribeNodegroupInput{
		ClusterName:   awssdk.String(clusterName),
		NodegroupName: awssdk.String(ngName),
	})
	if err == nil {
		log.Printf("[aws] node group %s already exists", ngName)
	} else if !isNotFound(err) {
		return fmt.Errorf("failed to describe node group %q: %w", ngName, err)
	} else {
		log.Printf("[aws] creating node group %s", ngName)
		input := &eks.CreateNodegroupInput{
			ClusterName:   awssdk.String(clusterName),
			NodegroupName: awssdk.String(ngName),
			Subnets:       a.cfg.AWS.SubnetIDs,
			InstanceTypes: a.cfg.AWS.InstanceTypes,
			ScalingConfig: &ekstypes.NodegroupScalingConfig{
				DesiredSize: awssdk.Int32(2),
				MinSize:     awssdk.Int32(1),
				MaxSize:     awssdk.Int32(3),
			},
			Tags: map[string]string{"idp.io/cluster": clusterName},
		}
		if a.cfg.AWS.NodeRoleARN != "" {
			input.NodeRole = awssdk.String(a.cfg.AWS.NodeRoleARN)
		}
		err := a.mutate(ctx, func() error {
			_, err := a.client.CreateNodegroup(ctx, input)
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to create node group %q: %w", ngName, err)
		}
	}

	err = retry.Until(ctx, a.pollInterval, a.timeouts.NodeGroupReady, func() (bool, error) {
		out, err := a.client.DescribeNodegroup(ctx, &eks.DescribeNodegroupInput{
			ClusterName:   awssdk.String(clusterName),
			NodegroupName: awssdk.String(ngName),
		})
		if err != nil {
			return false, fmt.Errorf("failed to describe node group %q: %w", ngName, err)
		}
		switch out.Nodegroup.Status {
		case ekstypes.NodegroupStatusActive:
			return true, nil
		case ekstypes.NodegroupStatusCreateFailed, ekstypes.NodegroupStatusDegraded:
			return false, fmt.Errorf("node group %q entered %s state", ngName, out.Nodegroup.Status)
		default:
			return false, nil
		}
	})
	if err != nil {
		return fmt.Errorf("waiting for node group %q to become active: %w", ngName, err)
	}
	return nil
}

func (a *Adapter) deleteNodeGroup(ctx context.Context, clusterName string) error {
	ngName := naming.NodeGroup(clusterName)

	err := a.mutate(ctx, func() error {
		_, err := a.client.DeleteNodegroup(ctx, &eks.DeleteNodegroupInput{
			ClusterName:   awssdk.String(clusterName),
			NodegroupName: awssdk.String(ngName),
		})
		return err
	})
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return fmt.Errorf("failed to delete node group %q: %w", ngName, err)
	}

	// Wait for the node group to disappear so cluster deletion can proceed.
	err = retry.Until(ctx, a.pollInterval, a.timeouts.Delete, func() (bool, error) {
		_, err := a.client.DescribeNodegroup(ctx, &eks.DescribeNodegroupInput{
			ClusterName:   awssdk.String(clusterName),
			NodegroupName: awssdk.String(ngName),
		})
		if err != nil {
			if isNotFound(err) {
				return true, nil
			}
			return false, err
		}
		return false, nil
	})
	if err != nil {
		return fmt.Errorf("waiting for node group %q deletion: %w", ngName, err)
	}
	return nil
}

func (a *Adapter) endpoint(cluster *ekstypes.Cluster, region string) (*platform.Endpoint, error) {
	if cluster.Endpoint == nil {
		return nil, fmt.Errorf("cluster %q has no endpoint", awssdk.ToString(cluster.Name))
	}

	var caData []byte
	if cluster.CertificateAuthority != nil && cluster.CertificateAuthority.Data != nil {
		decoded, err := base64.StdEncoding.DecodeString(*cluster.CertificateAuthority.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode cluster CA: %w", err)
		}
		caData = decoded
	}

	name := awssdk.ToString(cluster.Name)
	return &platform.Endpoint{
		Name:   name,
		URL:    *cluster.Endpoint,
		CAData: caData,
		AuthExec: &platform.ExecConfig{
			Command: "aws",
			Args:    []string{"eks", "get-token", "--cluster-name", name, "--region", region},
		},
	}, nil
}

func stateFromStatus(status ekstypes.ClusterStatus) platform.State {
	switch status {
	case ekstypes.ClusterStatusCreating, ekstypes.ClusterStatusPending:
		return platform.StateCreating
	case ekstypes.ClusterStatusDeleting:
		return platform.StateDeleting
	default:
		return platform.StatePresent
	}
}

func isNotFound(err error) bool {
	var rnf *ekstypes.ResourceNotFoundException
	return errors.As(err, &rnf)
}
