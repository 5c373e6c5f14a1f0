package reliability

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/ratecast/internal/modules/rates"
	testingpkg "github.com/aristath/ratecast/internal/testing"
)

type recordingUploader struct {
	key         string
	body        []byte
	contentType string
	err         error
}

func (u *recordingUploader) PutObject(ctx context.Context, key string, body []byte, contentType string) error {
	if u.err != nil {
		return u.err
	}
	u.key, u.body, u.contentType = key, body, contentType
	return nil
}

func readArchive(t *testing.T, body []byte) map[string][]byte {
	t.Helper()
	gz, err := gzip.NewReader(bytes.NewReader(body))
	require.NoError(t, err)
	tr := tar.NewReader(gz)

	files := map[string][]byte{}
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		content, err := io.ReadAll(tr)
		require.NoError(t, err)
		files[hdr.Name] = content
	}
	return files
}

func TestBackupService_CreateAndUploadBackup(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, "ratecast")
	defer cleanup()

	_, err := rates.NewRepository(db.Conn(), zerolog.Nop()).Upsert(context.Background(), testingpkg.NewDailyRatesFixture())
	require.NoError(t, err)

	uploader := &recordingUploader{}
	svc := NewBackupService(db, uploader, t.TempDir(), zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2019, 6, 7, 21, 30, 5, 0, time.UTC) }

	key, err := svc.CreateAndUploadBackup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "backups/ratecast-backup-2019-06-07-213005.tar.gz", key)
	assert.Equal(t, key, uploader.key)
	assert.Equal(t, "application/gzip", uploader.contentType)

	files := readArchive(t, uploader.body)
	require.Contains(t, files, "backup-metadata.json")
	require.Contains(t, files, "ratecast.db")

	var meta BackupMetadata
	require.NoError(t, json.Unmarshal(files["backup-metadata.json"], &meta))
	assert.Equal(t, "ratecast", meta.Database.Name)
	assert.Equal(t, int64(len(files["ratecast.db"])), meta.Database.SizeBytes)
	assert.Contains(t, meta.Database.Checksum, "sha256:")
	assert.True(t, bytes.HasPrefix(files["ratecast.db"], []byte("SQLite format 3")))
}

func TestBackupService_UploadError(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, "ratecast")
	defer cleanup()

	svc := NewBackupService(db, &recordingUploader{err: errors.New("denied")}, t.TempDir(), zerolog.Nop())
	_, err := svc.CreateAndUploadBackup(context.Background())
	assert.EqualError(t, err, "denied")
}

func TestBackupJob(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, "ratecast")
	defer cleanup()

	uploader := &recordingUploader{}
	job := NewBackupJob(NewBackupService(db, uploader, t.TempDir(), zerolog.Nop()), time.Minute)
	assert.Equal(t, JobBackup, job.Name())
	require.NoError(t, job.Run())
	assert.NotEmpty(t, uploader.body)
}

func TestMaintenanceJob(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, "ratecast")
	defer cleanup()

	repo := rates.NewRepository(db.Conn(), zerolog.Nop())
	_, err := repo.Upsert(context.Background(), testingpkg.NewDailyRatesFixture())
	require.NoError(t, err)

	job := NewMaintenanceJob(db, zerolog.Nop())
	assert.Equal(t, JobMaintenance, job.Name())
	require.NoError(t, job.Run())

	n, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 36, n)
}
