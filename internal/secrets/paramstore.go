package secrets

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
)

// SSMAPI is the subset of the SSM client the parameter store uses.
type SSMAPI interface {
	PutParameter(ctx context.Context, params *ssm.PutParameterInput, optFns ...func(*ssm.Options)) (*ssm.PutParameterOutput, error)
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
	GetParametersByPath(ctx context.Context, params *ssm.GetParametersByPathInput, optFns ...func(*ssm.Options)) (*ssm.GetParametersByPathOutput, error)
}

// ParamStore is the plaintext parameter-store fallback backend. Records are
// stored as JSON envelopes with base64 values, one parameter per path.
type ParamStore struct {
	client SSMAPI
	prefix string
}

// NewParamStore creates a parameter store using the default AWS credential chain.
func NewParamStore(ctx context.Context, region, prefix string) (*ParamStore, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewParamStoreWithClient(ssm.NewFromConfig(awsCfg), prefix), nil
}

// NewParamStoreWithClient creates a parameter store with a custom SSM client
// (for testing).
func NewParamStoreWithClient(client SSMAPI, prefix string) *ParamStore {
	return &ParamStore{client: client, prefix: "/" + strings.Trim(prefix, "/")}
}

// Name implements Store.
func (s *ParamStore) Name() string { return "paramstore" }

// Put implements Store.
func (s *ParamStore) Put(ctx context.Context, path string, value []byte, meta Metadata) error {
	record, err := encodeEnvelope(value, meta)
	if err != nil {
		return fmt.Errorf("failed to encode secret %q: %w", path, err)
	}
	_, err = s.client.PutParameter(ctx, &ssm.PutParameterInput{
		Name:      awssdk.String(s.parameterName(path)),
		Value:     awssdk.String(string(record)),
		Type:      ssmtypes.ParameterTypeString,
		Overwrite: awssdk.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("failed to write secret %q: %w", path, err)
	}
	return nil
}

// Get implements Store.
func (s *ParamStore) Get(ctx context.Context, path string) ([]byte, error) {
	out, err := s.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name: awssdk.String(s.parameterName(path)),
	})
	if err != nil {
		var pnf *ssmtypes.ParameterNotFound
		if errors.As(err, &pnf) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to read secret %q: %w", path, err)
	}
	value, _, err := decodeEnvelope([]byte(awssdk.ToString(out.Parameter.Value)))
	if err != nil {
		return nil, fmt.Errorf("secret %q: %w", path, err)
	}
	return value, nil
}

// List implements Store.
func (s *ParamStore) List(ctx context.Context, prefix string) ([]string, error) {
	root := s.parameterName(prefix)
	var paths []string
	var nextToken *string

	for {
		out, err := s.client.GetParametersByPath(ctx, &ssm.GetParametersByPathInput{
			Path:      awssdk.String(root),
			Recursive: awssdk.Bool(true),
			NextToken: nextToken,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list secrets under %q: %w", prefix, err)
		}
		for _, p := range out.Parameters {
			name := awssdk.ToString(p.Name)
			paths = append(paths, strings.TrimPrefix(strings.TrimPrefix(name, s.prefix), "/"))
		}
		if out.NextToken == nil {
			break
		}
		nextToken = out.NextToken
	}

	sort.Strings(paths)
	return paths, nil
}

func (s *ParamStore) parameterName(path string) string {
	path = strings.Trim(path, "/")
	if path == "" {
		return s.prefix
	}
	return s.prefix + "/" + path
}
