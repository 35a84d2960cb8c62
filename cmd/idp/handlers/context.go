package handlers

import (
	"context"
	"fmt"
	"io"

	"github.com/shlapolosa/idp/internal/kubecontext"
)

// newContextManager wires the context manager for the context subcommands.
func newContextManager(ctx context.Context, configPath string) (*kubecontext.Manager, error) {
	cfg, err := loadConfigFile(configPath)
	if err != nil {
		return nil, err
	}
	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return kubecontext.New(cfg, store), nil
}

// ContextSwitch makes name the active context.
func ContextSwitch(ctx context.Context, configPath, name string) error {
	manager, err := newContextManager(ctx, configPath)
	if err != nil {
		return err
	}
	return manager.Switch(name)
}

// ContextCurrent prints the active context name.
func ContextCurrent(ctx context.Context, configPath string, out io.Writer) error {
	manager, err := newContextManager(ctx, configPath)
	if err != nil {
		return err
	}
	current, err := manager.Current()
	if err != nil {
		return err
	}
	fmt.Fprintln(out, current)
	return nil
}

// ContextList prints all declared contexts, marking the active one and
// whether a kubeconfig is present locally.
func ContextList(ctx context.Context, configPath string, out io.Writer) error {
	manager, err := newContextManager(ctx, configPath)
	if err != nil {
		return err
	}
	entries, err := manager.List()
	if err != nil {
		return err
	}
	for _, entry := range entries {
		marker := " "
		if entry.Active {
			marker = "*"
		}
		status := "missing"
		if entry.Present {
			status = "present"
		}
		fmt.Fprintf(out, "%s %-16s %-24s %s\n", marker, entry.Name, entry.File, status)
	}
	return nil
}

// ContextRestore fetches a context's kubeconfig from the secret store.
func ContextRestore(ctx context.Context, configPath, name string) error {
	manager, err := newContextManager(ctx, configPath)
	if err != nil {
		return err
	}
	return manager.Restore(ctx, name)
}
