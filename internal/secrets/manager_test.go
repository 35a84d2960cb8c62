package secrets

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shlapolosa/idp/internal/config"
)

type fakeS3 struct {
	objects map[string][]byte
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	if f.objects == nil {
		f.objects = map[string][]byte{}
	}
	f.objects[awssdk.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func testManager(t *testing.T) (*Manager, string, string) {
	t.Helper()
	kubeconfigDir := t.TempDir()
	backupDir := t.TempDir()
	cfg := &config.Config{
		Kubeconfig: config.KubeconfigConfig{Dir: kubeconfigDir, BackupDir: backupDir},
	}
	m := NewManager(NewMemoryStore(), cfg)
	m.now = func() time.Time { return time.Date(2026, 8, 25, 9, 30, 0, 0, time.UTC) }
	return m, kubeconfigDir, backupDir
}

func TestManager_BackupIsAdditive(t *testing.T) {
	t.Parallel()
	m, kubeconfigDir, backupDir := testManager(t)
	ctx := context.Background()

	require.NoError(t, os.WriteFile(filepath.Join(kubeconfigDir, "main.kubeconfig"), []byte("kc-main"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(kubeconfigDir, "current"), []byte("main"), 0o600))

	id, err := m.Backup(ctx)
	require.NoError(t, err)
	assert.Equal(t, "backup-20260825-093000", id)

	data, err := os.ReadFile(filepath.Join(backupDir, id, "main.kubeconfig"))
	require.NoError(t, err)
	assert.Equal(t, []byte("kc-main"), data)

	// Originals untouched.
	data, err = os.ReadFile(filepath.Join(kubeconfigDir, "main.kubeconfig"))
	require.NoError(t, err)
	assert.Equal(t, []byte("kc-main"), data)

	// A second snapshot at the same instant must not overwrite the first.
	_, err = m.Backup(ctx)
	assert.Error(t, err)

	m.now = func() time.Time { return time.Date(2026, 8, 25, 9, 31, 0, 0, time.UTC) }
	id2, err := m.Backup(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, id, id2)

	ids, err := m.Snapshots()
	require.NoError(t, err)
	assert.Equal(t, []string{id, id2}, ids)
}

func TestManager_BackupMirrorsToS3(t *testing.T) {
	t.Parallel()
	m, kubeconfigDir, _ := testManager(t)
	fake := &fakeS3{}
	m.s3Client = fake
	m.backup = config.BackupConfig{S3Bucket: "idp-backups"}

	require.NoError(t, os.WriteFile(filepath.Join(kubeconfigDir, "dev.kubeconfig"), []byte("kc-dev"), 0o600))

	id, err := m.Backup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("kc-dev"), fake.objects[id+"/dev.kubeconfig"])
}

func TestManager_Restore(t *testing.T) {
	t.Parallel()
	m, kubeconfigDir, _ := testManager(t)
	ctx := context.Background()

	require.NoError(t, os.WriteFile(filepath.Join(kubeconfigDir, "main.kubeconfig"), []byte("good"), 0o600))
	id, err := m.Backup(ctx)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(kubeconfigDir, "main.kubeconfig"), []byte("clobbered"), 0o600))

	require.NoError(t, m.Restore(ctx, id))
	data, err := os.ReadFile(filepath.Join(kubeconfigDir, "main.kubeconfig"))
	require.NoError(t, err)
	assert.Equal(t, []byte("good"), data)
}

func TestManager_RestoreUnknownSnapshot(t *testing.T) {
	t.Parallel()
	m, _, _ := testManager(t)

	err := m.Restore(context.Background(), "backup-19700101-000000")
	assert.ErrorIs(t, err, ErrNotFound)
}
