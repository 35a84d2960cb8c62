// Package secrets stores the credential artifacts provisioning produces:
// kubeconfigs, admin passwords, service URLs, and SSH keys.
//
// Two backends implement the same contract: Vault KV v2 (encrypted,
// preferred) and the AWS SSM parameter store (plaintext fallback). Callers
// never branch on which backend is active. Values are base64-encoded before
// transport so certificate and key material with control characters survives
// round-trips.
package secrets

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Common errors.
var (
	// ErrNotFound is returned by Get for a path that has never been written.
	// A missing secret is never silently mapped to an empty value.
	ErrNotFound = errors.New("secrets: secret not found")

	// ErrBackendUnavailable indicates the selected backend cannot be reached.
	ErrBackendUnavailable = errors.New("secrets: backend unavailable")
)

// Metadata records provenance for a secret.
type Metadata struct {
	CreatedAt time.Time `json:"created_at"`
	CreatedBy string    `json:"created_by,omitempty"`
	Source    string    `json:"source,omitempty"`
}

// Store is the key/value contract both backends implement.
//
// Paths are hierarchical, e.g. "platform/credentials/argocd_admin_password".
// Writing to an existing path overwrites value and metadata atomically from
// the caller's perspective.
type Store interface {
	// Name identifies the backend ("vault" or "paramstore").
	Name() string

	// Put stores value under path, overwriting any existing record.
	Put(ctx context.Context, path string, value []byte, meta Metadata) error

	// Get returns the value at path, or ErrNotFound.
	Get(ctx context.Context, path string) ([]byte, error)

	// List returns all paths under prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// envelope is the serialized form of a secret record. The value is base64 so
// the envelope itself is always printable JSON.
type envelope struct {
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"created_at"`
	CreatedBy string    `json:"created_by,omitempty"`
	Source    string    `json:"source,omitempty"`
}

func encodeEnvelope(value []byte, meta Metadata) ([]byte, error) {
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = time.Now().UTC()
	}
	return json.Marshal(envelope{
		Value:     base64.StdEncoding.EncodeToString(value),
		CreatedAt: meta.CreatedAt,
		CreatedBy: meta.CreatedBy,
		Source:    meta.Source,
	})
}

func decodeEnvelope(data []byte) ([]byte, Metadata, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, Metadata{}, fmt.Errorf("secrets: malformed record: %w", err)
	}
	value, err := base64.StdEncoding.DecodeString(env.Value)
	if err != nil {
		return nil, Metadata{}, fmt.Errorf("secrets: malformed record value: %w", err)
	}
	return value, Metadata{CreatedAt: env.CreatedAt, CreatedBy: env.CreatedBy, Source: env.Source}, nil
}
