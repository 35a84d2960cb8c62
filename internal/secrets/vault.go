package secrets

import (
	"context"
	"encoding/base64"
	"fmt"
	"sort"
	"strings"
	"time"

	vaultapi "github.com/hashicorp/vault/api"
)

// vaultLogical is the subset of the Vault logical API the store uses.
// Implemented by *vaultapi.Logical.
type vaultLogical interface {
	ReadWithContext(ctx context.Context, path string) (*vaultapi.Secret, error)
	WriteWithContext(ctx context.Context, path string, data map[string]interface{}) (*vaultapi.Secret, error)
	ListWithContext(ctx context.Context, path string) (*vaultapi.Secret, error)
}

// VaultStore persists secrets in a Vault KV v2 mount.
type VaultStore struct {
	logical vaultLogical
	mount   string
}

// NewVaultStore creates a store backed by the given Vault client. The client
// reads VAULT_TOKEN from the environment per the usual Vault conventions.
func NewVaultStore(client *vaultapi.Client, mount string) *VaultStore {
	return &VaultStore{logical: client.Logical(), mount: mount}
}

// newVaultStoreWithLogical is a constructor seam for tests.
func newVaultStoreWithLogical(logical vaultLogical, mount string) *VaultStore {
	return &VaultStore{logical: logical, mount: mount}
}

// Name implements Store.
func (s *VaultStore) Name() string { return "vault" }

// Put implements Store.
func (s *VaultStore) Put(ctx context.Context, path string, value []byte, meta Metadata) error {
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = time.Now().UTC()
	}
	data := map[string]interface{}{
		"data": map[string]interface{}{
			"value":      base64.StdEncoding.EncodeToString(value),
			"created_at": meta.CreatedAt.Format(time.RFC3339),
			"created_by": meta.CreatedBy,
			"source":     meta.Source,
		},
	}
	if _, err := s.logical.WriteWithContext(ctx, s.dataPath(path), data); err != nil {
		return fmt.Errorf("failed to write secret %q: %w", path, err)
	}
	return nil
}

// Get implements Store.
func (s *VaultStore) Get(ctx context.Context, path string) ([]byte, error) {
	secret, err := s.logical.ReadWithContext(ctx, s.dataPath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read secret %q: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	inner, ok := secret.Data["data"].(map[string]interface{})
	if !ok || inner == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	encoded, ok := inner["value"].(string)
	if !ok {
		return nil, fmt.Errorf("secrets: record at %q has no value field", path)
	}
	value, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("secrets: malformed record value at %q: %w", path, err)
	}
	return value, nil
}

// List implements Store. Vault lists one directory level at a time, so the
// walk recurses into sub-directories (keys ending in "/").
func (s *VaultStore) List(ctx context.Context, prefix string) ([]string, error) {
	var paths []string
	if err := s.list(ctx, strings.Trim(prefix, "/"), &paths); err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

func (s *VaultStore) list(ctx context.Context, dir string, out *[]string) error {
	secret, err := s.logical.ListWithContext(ctx, s.metadataPath(dir))
	if err != nil {
		return fmt.Errorf("failed to list secrets under %q: %w", dir, err)
	}
	if secret == nil || secret.Data == nil {
		return nil
	}
	keys, ok := secret.Data["keys"].([]interface{})
	if !ok {
		return nil
	}
	for _, k := range keys {
		key, ok := k.(string)
		if !ok {
			continue
		}
		full := key
		if dir != "" {
			full = dir + "/" + key
		}
		if strings.HasSuffix(key, "/") {
			if err := s.list(ctx, strings.TrimSuffix(full, "/"), out); err != nil {
				return err
			}
			continue
		}
		*out = append(*out, full)
	}
	return nil
}

func (s *VaultStore) dataPath(path string) string {
	return s.mount + "/data/" + strings.Trim(path, "/")
}

func (s *VaultStore) metadataPath(path string) string {
	if path == "" {
		return s.mount + "/metadata"
	}
	return s.mount + "/metadata/" + path
}
