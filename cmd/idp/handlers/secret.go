package handlers

import (
	"context"
	"fmt"
	"io"
	"os/user"

	"github.com/shlapolosa/idp/internal/secrets"
)

// newSecretManager wires the secret store for the secret subcommands.
func newSecretManager(ctx context.Context, configPath string) (*secrets.Manager, error) {
	cfg, err := loadConfigFile(configPath)
	if err != nil {
		return nil, err
	}
	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return secrets.NewManager(store, cfg), nil
}

// SecretGet writes the raw secret value to out. Values are binary-safe; no
// trailing newline is added.
func SecretGet(ctx context.Context, configPath, path string, out io.Writer) error {
	manager, err := newSecretManager(ctx, configPath)
	if err != nil {
		return err
	}
	value, err := manager.Get(ctx, path)
	if err != nil {
		return err
	}
	_, err = out.Write(value)
	return err
}

// SecretPut stores a value. A literal "-" reads the value from in, which is
// how binary data gets in without shell mangling.
func SecretPut(ctx context.Context, configPath, path, value string, in io.Reader) error {
	manager, err := newSecretManager(ctx, configPath)
	if err != nil {
		return err
	}

	data := []byte(value)
	if value == "-" {
		data, err = io.ReadAll(in)
		if err != nil {
			return fmt.Errorf("failed to read value from stdin: %w", err)
		}
	}

	meta := secrets.Metadata{Source: "cli"}
	if u, err := user.Current(); err == nil {
		meta.CreatedBy = u.Username
	}
	return manager.Put(ctx, path, data, meta)
}

// SecretList prints all secret paths under prefix, one per line.
func SecretList(ctx context.Context, configPath, prefix string, out io.Writer) error {
	manager, err := newSecretManager(ctx, configPath)
	if err != nil {
		return err
	}
	paths, err := manager.List(ctx, prefix)
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Fprintln(out, p)
	}
	return nil
}

// SecretBackup snapshots the kubeconfig directory and prints the snapshot ID.
func SecretBackup(ctx context.Context, configPath string, out io.Writer) error {
	manager, err := newSecretManager(ctx, configPath)
	if err != nil {
		return err
	}
	id, err := manager.Backup(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, id)
	return nil
}

// SecretRestore copies a snapshot back into the kubeconfig directory.
func SecretRestore(ctx context.Context, configPath, snapshotID string) error {
	manager, err := newSecretManager(ctx, configPath)
	if err != nil {
		return err
	}
	return manager.Restore(ctx, snapshotID)
}
