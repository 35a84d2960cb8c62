// Package kubecontext manages the logical kubeconfig contexts of a platform:
// one file per context (physical cluster, each virtual cluster, management)
// plus a pointer file naming the active one.
//
// Switching contexts reassigns the pointer; kubeconfig files themselves are
// never rewritten by a switch, so a bad switch can never corrupt credentials.
package kubecontext

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/shlapolosa/idp/internal/config"
	"github.com/shlapolosa/idp/internal/secrets"
	"github.com/shlapolosa/idp/internal/util/naming"
)

// ErrNotFound is returned for a context name no manifest entry declares.
var ErrNotFound = errors.New("kubecontext: context not found")

// currentFile is the pointer file naming the active context.
const currentFile = "current"

// Entry describes one logical context.
type Entry struct {
	// Name is the logical context name ("main", "dev", "management", ...).
	Name string
	// File is the kubeconfig file backing the context.
	File string
	// Active reports whether the pointer currently selects this context.
	Active bool
	// Present reports whether the kubeconfig file exists on disk.
	Present bool
}

// Manager switches between logical contexts.
type Manager struct {
	dir     string
	entries []config.ContextConfig
	store   secrets.Store
	prefix  string
}

// New creates a manager over the configured context manifest. The store is
// used to restore kubeconfig files that are missing locally; it may be nil,
// in which case Restore is unavailable.
func New(cfg *config.Config, store secrets.Store) *Manager {
	return &Manager{
		dir:     cfg.Kubeconfig.Dir,
		entries: cfg.Contexts,
		store:   store,
		prefix:  cfg.Secrets.KubeconfigPrefix,
	}
}

// List returns all declared contexts with their on-disk state.
func (m *Manager) List() ([]Entry, error) {
	active, err := m.Current()
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	entries := make([]Entry, 0, len(m.entries))
	for _, c := range m.entries {
		file := m.fileFor(c)
		_, statErr := os.Stat(filepath.Join(m.dir, file))
		entries = append(entries, Entry{
			Name:    c.Name,
			File:    file,
			Active:  c.Name == active,
			Present: statErr == nil,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// Current returns the name of the active context, or ErrNotFound when no
// context has been selected yet.
func (m *Manager) Current() (string, error) {
	data, err := os.ReadFile(filepath.Join(m.dir, currentFile))
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: no active context", ErrNotFound)
		}
		return "", fmt.Errorf("failed to read active context: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Switch makes name the active context by rewriting the pointer file. The
// name must be declared in the manifest and its kubeconfig file must exist.
func (m *Manager) Switch(name string) error {
	entry, ok := m.lookup(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	path := filepath.Join(m.dir, m.fileFor(entry))
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("context %q has no kubeconfig at %s (run provision or restore first)", name, path)
		}
		return fmt.Errorf("failed to stat kubeconfig for %q: %w", name, err)
	}

	if err := os.MkdirAll(m.dir, 0o700); err != nil {
		return fmt.Errorf("failed to create kubeconfig dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(m.dir, currentFile), []byte(name+"\n"), 0o600); err != nil {
		return fmt.Errorf("failed to switch context to %q: %w", name, err)
	}
	log.Printf("[context] switched to %s (%s)", name, path)
	return nil
}

// Path returns the kubeconfig file path for a declared context.
func (m *Manager) Path(name string) (string, error) {
	entry, ok := m.lookup(name)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return filepath.Join(m.dir, m.fileFor(entry)), nil
}

// Write stores a kubeconfig for a declared context with owner-only
// permissions.
func (m *Manager) Write(name string, kubeconfig []byte) error {
	path, err := m.Path(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(m.dir, 0o700); err != nil {
		return fmt.Errorf("failed to create kubeconfig dir: %w", err)
	}
	if err := os.WriteFile(path, kubeconfig, 0o600); err != nil {
		return fmt.Errorf("failed to write kubeconfig for %q: %w", name, err)
	}
	return nil
}

// Restore fetches a context's kubeconfig from the secret store and writes it
// locally. Used to rebuild the kubeconfig dir on a fresh machine.
func (m *Manager) Restore(ctx context.Context, name string) error {
	if m.store == nil {
		return errors.New("kubecontext: no secret store configured")
	}
	if _, ok := m.lookup(name); !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	data, err := m.store.Get(ctx, naming.KubeconfigSecretPath(m.prefix, name))
	if err != nil {
		return fmt.Errorf("failed to fetch kubeconfig for %q: %w", name, err)
	}
	if err := m.Write(name, data); err != nil {
		return err
	}
	log.Printf("[context] restored kubeconfig for %s from %s", name, m.store.Name())
	return nil
}

func (m *Manager) lookup(name string) (config.ContextConfig, bool) {
	for _, c := range m.entries {
		if c.Name == name {
			return c, true
		}
	}
	return config.ContextConfig{}, false
}

func (m *Manager) fileFor(c config.ContextConfig) string {
	if c.File != "" {
		return c.File
	}
	return naming.KubeconfigFile(c.Name)
}
