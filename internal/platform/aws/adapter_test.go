package aws

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eks"
	ekstypes "github.com/aws/aws-sdk-go-v2/service/eks/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shlapolosa/idp/internal/config"
	"github.com/shlapolosa/idp/internal/platform"
)

// fakeEKS is an in-memory EKS control plane. Clusters and node groups become
// active on the first describe after creation, which exercises the polling
// loops without real delays.
type fakeEKS struct {
	clusters   map[string]*ekstypes.Cluster
	nodegroups map[string]*ekstypes.Nodegroup

	createClusterCalls   int
	createNodegroupCalls int
	deleteOrder          []string

	// transientCreateFailures makes the next N CreateCluster calls fail
	// with a retryable error.
	transientCreateFailures int
}

func newFakeEKS() *fakeEKS {
	return &fakeEKS{
		clusters:   make(map[string]*ekstypes.Cluster),
		nodegroups: make(map[string]*ekstypes.Nodegroup),
	}
}

func notFoundErr() error {
	return &ekstypes.ResourceNotFoundException{Message: awssdk.String("no such resource")}
}

func (f *fakeEKS) CreateCluster(_ context.Context, params *eks.CreateClusterInput, _ ...func(*eks.Options)) (*eks.CreateClusterOutput, error) {
	f.createClusterCalls++
	if f.transientCreateFailures > 0 {
		f.transientCreateFailures--
		return nil, errors.New("Throttling: rate exceeded")
	}
	name := awssdk.ToString(params.Name)
	f.clusters[name] = &ekstypes.Cluster{
		Name:     params.Name,
		Status:   ekstypes.ClusterStatusCreating,
		Endpoint: awssdk.String("https://" + name + ".eks.example.com"),
		CertificateAuthority: &ekstypes.Certificate{
			Data: awssdk.String(base64.StdEncoding.EncodeToString([]byte("ca-pem"))),
		},
	}
	return &eks.CreateClusterOutput{Cluster: f.clusters[name]}, nil
}

func (f *fakeEKS) DescribeCluster(_ context.Context, params *eks.DescribeClusterInput, _ ...func(*eks.Options)) (*eks.DescribeClusterOutput, error) {
	c, ok := f.clusters[awssdk.ToString(params.Name)]
	if !ok {
		return nil, notFoundErr()
	}
	out := &eks.DescribeClusterOutput{Cluster: c}
	if c.Status == ekstypes.ClusterStatusCreating {
		// Become active for the next poll.
		c.Status = ekstypes.ClusterStatusActive
	}
	return out, nil
}

func (f *fakeEKS) DeleteCluster(_ context.Context, params *eks.DeleteClusterInput, _ ...func(*eks.Options)) (*eks.DeleteClusterOutput, error) {
	name := awssdk.ToString(params.Name)
	if _, ok := f.clusters[name]; !ok {
		return nil, notFoundErr()
	}
	delete(f.clusters, name)
	f.deleteOrder = append(f.deleteOrder, "cluster/"+name)
	return &eks.DeleteClusterOutput{}, nil
}

func (f *fakeEKS) CreateNodegroup(_ context.Context, params *eks.CreateNodegroupInput, _ ...func(*eks.Options)) (*eks.CreateNodegroupOutput, error) {
	f.createNodegroupCalls++
	name := awssdk.ToString(params.NodegroupName)
	f.nodegroups[name] = &ekstypes.Nodegroup{
		NodegroupName: params.NodegroupName,
		Status:        ekstypes.NodegroupStatusActive,
	}
	return &eks.CreateNodegroupOutput{Nodegroup: f.nodegroups[name]}, nil
}

func (f *fakeEKS) DescribeNodegroup(_ context.Context, params *eks.DescribeNodegroupInput, _ ...func(*eks.Options)) (*eks.DescribeNodegroupOutput, error) {
	ng, ok := f.nodegroups[awssdk.ToString(params.NodegroupName)]
	if !ok {
		return nil, notFoundErr()
	}
	return &eks.DescribeNodegroupOutput{Nodegroup: ng}, nil
}

func (f *fakeEKS) DeleteNodegroup(_ context.Context, params *eks.DeleteNodegroupInput, _ ...func(*eks.Options)) (*eks.DeleteNodegroupOutput, error) {
	name := awssdk.ToString(params.NodegroupName)
	if _, ok := f.nodegroups[name]; !ok {
		return nil, notFoundErr()
	}
	delete(f.nodegroups, name)
	f.deleteOrder = append(f.deleteOrder, "nodegroup/"+name)
	return &eks.DeleteNodegroupOutput{}, nil
}

func newTestAdapter(client EKSAPI) *Adapter {
	cfg := &config.Config{ClusterName: "platform", Cloud: config.CloudAWS, Region: "eu-west-1"}
	cfg.ApplyDefaults()
	a := NewWithClient(client, cfg)
	a.pollInterval = time.Millisecond
	return a
}

func TestEnsureCluster_CreatesWhenAbsent(t *testing.T) {
	t.Parallel()
	fake := newFakeEKS()
	adapter := newTestAdapter(fake)

	ep, err := adapter.EnsureCluster(context.Background(), "platform", "eu-west-1", "1.31")
	require.NoError(t, err)

	assert.Equal(t, 1, fake.createClusterCalls)
	assert.Equal(t, "https://platform.eks.example.com", ep.URL)
	assert.Equal(t, []byte("ca-pem"), ep.CAData)
	require.NotNil(t, ep.AuthExec)
	assert.Equal(t, "aws", ep.AuthExec.Command)
	assert.Contains(t, fake.nodegroups, "platform-default")
}

func TestEnsureCluster_IdempotentWhenPresent(t *testing.T) {
	t.Parallel()
	fake := newFakeEKS()
	adapter := newTestAdapter(fake)

	_, err := adapter.EnsureCluster(context.Background(), "platform", "eu-west-1", "1.31")
	require.NoError(t, err)

	ep, err := adapter.EnsureCluster(context.Background(), "platform", "eu-west-1", "1.31")
	require.NoError(t, err)

	// No second creation call was issued.
	assert.Equal(t, 1, fake.createClusterCalls)
	assert.Equal(t, "https://platform.eks.example.com", ep.URL)
}

func TestClusterExists(t *testing.T) {
	t.Parallel()
	fake := newFakeEKS()
	adapter := newTestAdapter(fake)

	exists, err := adapter.ClusterExists(context.Background(), "platform", "eu-west-1")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = adapter.EnsureCluster(context.Background(), "platform", "eu-west-1", "1.31")
	require.NoError(t, err)

	exists, err = adapter.ClusterExists(context.Background(), "platform", "eu-west-1")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestClusterStatus(t *testing.T) {
	t.Parallel()
	fake := newFakeEKS()
	adapter := newTestAdapter(fake)

	state, err := adapter.ClusterStatus(context.Background(), "platform", "eu-west-1")
	require.NoError(t, err)
	assert.Equal(t, platform.StateAbsent, state)

	fake.clusters["platform"] = &ekstypes.Cluster{
		Name:   awssdk.String("platform"),
		Status: ekstypes.ClusterStatusDeleting,
	}
	state, err = adapter.ClusterStatus(context.Background(), "platform", "eu-west-1")
	require.NoError(t, err)
	assert.Equal(t, platform.StateDeleting, state)
}

func TestStateFromStatus(t *testing.T) {
	t.Parallel()
	assert.Equal(t, platform.StateCreating, stateFromStatus(ekstypes.ClusterStatusCreating))
	assert.Equal(t, platform.StateDeleting, stateFromStatus(ekstypes.ClusterStatusDeleting))
	assert.Equal(t, platform.StatePresent, stateFromStatus(ekstypes.ClusterStatusActive))
	assert.Equal(t, platform.StatePresent, stateFromStatus(ekstypes.ClusterStatusFailed))
}

func TestEnsureCluster_RetriesTransientCreateError(t *testing.T) {
	t.Setenv("IDP_RETRY_INITIAL_DELAY", "1ms")
	fake := newFakeEKS()
	fake.transientCreateFailures = 2
	adapter := newTestAdapter(fake)

	_, err := adapter.EnsureCluster(context.Background(), "platform", "eu-west-1", "1.31")
	require.NoError(t, err)

	// Two throttled attempts, then success.
	assert.Equal(t, 3, fake.createClusterCalls)
	assert.Contains(t, fake.clusters, "platform")
}

func TestClusterEndpoint_ReadOnly(t *testing.T) {
	t.Parallel()
	fake := newFakeEKS()
	adapter := newTestAdapter(fake)

	_, err := adapter.EnsureCluster(context.Background(), "platform", "eu-west-1", "1.31")
	require.NoError(t, err)

	// Simulate a partially torn-down platform: cluster up, node group gone.
	delete(fake.nodegroups, "platform-default")
	createCalls := fake.createNodegroupCalls

	ep, err := adapter.ClusterEndpoint(context.Background(), "platform", "eu-west-1")
	require.NoError(t, err)
	assert.Equal(t, "https://platform.eks.example.com", ep.URL)

	// The node group was not recreated.
	assert.Equal(t, createCalls, fake.createNodegroupCalls)
	assert.NotContains(t, fake.nodegroups, "platform-default")
}

func TestClusterEndpoint_AbsentCluster(t *testing.T) {
	t.Parallel()
	fake := newFakeEKS()
	adapter := newTestAdapter(fake)

	_, err := adapter.ClusterEndpoint(context.Background(), "platform", "eu-west-1")
	assert.Error(t, err)
	assert.Zero(t, fake.createClusterCalls)
}

func TestDeleteCluster_RemovesNodeGroupFirst(t *testing.T) {
	t.Parallel()
	fake := newFakeEKS()
	adapter := newTestAdapter(fake)

	_, err := adapter.EnsureCluster(context.Background(), "platform", "eu-west-1", "1.31")
	require.NoError(t, err)

	require.NoError(t, adapter.DeleteCluster(context.Background(), "platform", "eu-west-1"))
	assert.Equal(t, []string{"nodegroup/platform-default", "cluster/platform"}, fake.deleteOrder)
}

func TestDeleteCluster_AbsentIsNoError(t *testing.T) {
	t.Parallel()
	fake := newFakeEKS()
	adapter := newTestAdapter(fake)

	require.NoError(t, adapter.DeleteCluster(context.Background(), "platform", "eu-west-1"))
	assert.Empty(t, fake.deleteOrder)
}
