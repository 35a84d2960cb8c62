package secrets

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/shlapolosa/idp/internal/config"
	"github.com/shlapolosa/idp/internal/util/naming"
)

// S3API is the subset of the S3 client the backup mirror uses.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Manager wraps a Store with credential directory snapshots.
//
// Backups are additive: each snapshot is a new timestamped directory under
// the backup dir and never overwrites an earlier one. When an S3 bucket is
// configured, snapshots are additionally mirrored there.
type Manager struct {
	Store

	kubeconfigDir string
	backupDir     string
	backup        config.BackupConfig
	s3Client      S3API

	now func() time.Time
}

// NewManager creates a Manager over the given store.
func NewManager(store Store, cfg *config.Config) *Manager {
	return &Manager{
		Store:         store,
		kubeconfigDir: cfg.Kubeconfig.Dir,
		backupDir:     cfg.Kubeconfig.BackupDir,
		backup:        cfg.Backup,
		now:           time.Now,
	}
}

// Backup snapshots the kubeconfig directory into a new timestamped directory
// and returns the snapshot ID. The source directory is not modified.
func (m *Manager) Backup(ctx context.Context) (string, error) {
	stamp := m.now().UTC().Format("20060102-150405")
	snapshot := naming.BackupSnapshot(stamp)
	dest := filepath.Join(m.backupDir, snapshot)

	if _, err := os.Stat(dest); err == nil {
		return "", fmt.Errorf("snapshot %q already exists", snapshot)
	}

	entries, err := os.ReadDir(m.kubeconfigDir)
	if err != nil {
		return "", fmt.Errorf("failed to read kubeconfig dir %q: %w", m.kubeconfigDir, err)
	}
	if err := os.MkdirAll(dest, 0o700); err != nil {
		return "", fmt.Errorf("failed to create snapshot dir %q: %w", dest, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(m.kubeconfigDir, entry.Name()))
		if err != nil {
			return "", fmt.Errorf("failed to read %q: %w", entry.Name(), err)
		}
		if err := os.WriteFile(filepath.Join(dest, entry.Name()), data, 0o600); err != nil {
			return "", fmt.Errorf("failed to write %q: %w", entry.Name(), err)
		}
		if err := m.mirror(ctx, snapshot, entry.Name(), data); err != nil {
			return "", err
		}
	}

	log.Printf("[secrets] snapshot %s written to %s", snapshot, dest)
	return snapshot, nil
}

// Restore copies the files of an earlier snapshot back into the kubeconfig
// directory. Files present locally but absent from the snapshot are left
// alone.
func (m *Manager) Restore(_ context.Context, snapshotID string) error {
	src := filepath.Join(m.backupDir, snapshotID)
	entries, err := os.ReadDir(src)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: snapshot %s", ErrNotFound, snapshotID)
		}
		return fmt.Errorf("failed to read snapshot %q: %w", snapshotID, err)
	}

	if err := os.MkdirAll(m.kubeconfigDir, 0o700); err != nil {
		return fmt.Errorf("failed to create kubeconfig dir %q: %w", m.kubeconfigDir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(src, entry.Name()))
		if err != nil {
			return fmt.Errorf("failed to read %q: %w", entry.Name(), err)
		}
		if err := os.WriteFile(filepath.Join(m.kubeconfigDir, entry.Name()), data, 0o600); err != nil {
			return fmt.Errorf("failed to restore %q: %w", entry.Name(), err)
		}
	}

	log.Printf("[secrets] snapshot %s restored into %s", snapshotID, m.kubeconfigDir)
	return nil
}

// Snapshots lists the snapshot IDs present in the backup dir, oldest first.
func (m *Manager) Snapshots() ([]string, error) {
	entries, err := os.ReadDir(m.backupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read backup dir %q: %w", m.backupDir, err)
	}
	var ids []string
	for _, entry := range entries {
		if entry.IsDir() {
			ids = append(ids, entry.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *Manager) mirror(ctx context.Context, snapshot, name string, data []byte) error {
	if m.backup.S3Bucket == "" {
		return nil
	}
	client, err := m.s3(ctx)
	if err != nil {
		return err
	}
	key := snapshot + "/" + name
	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: awssdk.String(m.backup.S3Bucket),
		Key:    awssdk.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("failed to mirror %q to s3://%s: %w", key, m.backup.S3Bucket, err)
	}
	return nil
}

func (m *Manager) s3(ctx context.Context) (S3API, error) {
	if m.s3Client != nil {
		return m.s3Client, nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(m.backup.S3Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config for backup mirror: %w", err)
	}
	m.s3Client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if m.backup.S3Endpoint != "" {
			o.BaseEndpoint = awssdk.String(m.backup.S3Endpoint)
			o.UsePathStyle = true
		}
	})
	return m.s3Client, nil
}
