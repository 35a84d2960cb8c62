package secrets

import (
	"context"
	"sort"
	"strings"
	"testing"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSSM struct {
	params map[string]string
	// pageSize forces GetParametersByPath pagination when > 0.
	pageSize int
}

func newFakeSSM() *fakeSSM {
	return &fakeSSM{params: map[string]string{}}
}

func (f *fakeSSM) PutParameter(_ context.Context, in *ssm.PutParameterInput, _ ...func(*ssm.Options)) (*ssm.PutParameterOutput, error) {
	f.params[awssdk.ToString(in.Name)] = awssdk.ToString(in.Value)
	return &ssm.PutParameterOutput{}, nil
}

func (f *fakeSSM) GetParameter(_ context.Context, in *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	value, ok := f.params[awssdk.ToString(in.Name)]
	if !ok {
		return nil, &ssmtypes.ParameterNotFound{}
	}
	return &ssm.GetParameterOutput{
		Parameter: &ssmtypes.Parameter{Name: in.Name, Value: awssdk.String(value)},
	}, nil
}

func (f *fakeSSM) GetParametersByPath(_ context.Context, in *ssm.GetParametersByPathInput, _ ...func(*ssm.Options)) (*ssm.GetParametersByPathOutput, error) {
	root := awssdk.ToString(in.Path)
	var names []string
	for name := range f.params {
		if strings.HasPrefix(name, root+"/") || name == root {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	start := 0
	if in.NextToken != nil {
		for i, name := range names {
			if name == awssdk.ToString(in.NextToken) {
				start = i
				break
			}
		}
	}
	end := len(names)
	var next *string
	if f.pageSize > 0 && start+f.pageSize < len(names) {
		end = start + f.pageSize
		next = awssdk.String(names[end])
	}

	out := &ssm.GetParametersByPathOutput{NextToken: next}
	for _, name := range names[start:end] {
		out.Parameters = append(out.Parameters, ssmtypes.Parameter{
			Name:  awssdk.String(name),
			Value: awssdk.String(f.params[name]),
		})
	}
	return out, nil
}

func TestParamStore_RoundTrip(t *testing.T) {
	t.Parallel()
	fake := newFakeSSM()
	store := NewParamStoreWithClient(fake, "/idp")
	ctx := context.Background()

	value := []byte{0x00, 0xde, 0xad, '\n'}
	require.NoError(t, store.Put(ctx, "platform/kubeconfigs/main", value, Metadata{}))

	// Stored under the configured prefix as a printable JSON envelope.
	record, ok := fake.params["/idp/platform/kubeconfigs/main"]
	require.True(t, ok)
	assert.Contains(t, record, `"value"`)

	got, err := store.Get(ctx, "platform/kubeconfigs/main")
	require.NoError(t, err)
	assert.Equal(t, value, got)
}

func TestParamStore_GetMissing(t *testing.T) {
	t.Parallel()
	store := NewParamStoreWithClient(newFakeSSM(), "idp")

	_, err := store.Get(context.Background(), "platform/credentials/absent")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestParamStore_ListPaginates(t *testing.T) {
	t.Parallel()
	fake := newFakeSSM()
	fake.pageSize = 1
	store := NewParamStoreWithClient(fake, "/idp")
	ctx := context.Background()

	for _, path := range []string{
		"platform/kubeconfigs/main",
		"platform/kubeconfigs/dev",
		"platform/kubeconfigs/staging",
	} {
		require.NoError(t, store.Put(ctx, path, []byte("v"), Metadata{}))
	}

	paths, err := store.List(ctx, "platform/kubeconfigs")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"platform/kubeconfigs/dev",
		"platform/kubeconfigs/main",
		"platform/kubeconfigs/staging",
	}, paths)
}
