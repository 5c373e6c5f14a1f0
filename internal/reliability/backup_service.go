// Package reliability keeps the ratecast database healthy and backed up.
package reliability

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/ratecast/internal/database"
)

// BackupPrefix is the object key prefix of every backup archive
const BackupPrefix = "backups/ratecast-backup-"

// ObjectUploader stores one object
type ObjectUploader interface {
	PutObject(ctx context.Context, key string, body []byte, contentType string) error
}

// BackupService copies the database into a tar.gz archive and uploads it
type BackupService struct {
	db       *database.DB
	uploader ObjectUploader
	tempDir  string
	now      func() time.Time
	log      zerolog.Logger
}

// BackupMetadata contains metadata about a backup
type BackupMetadata struct {
	Timestamp time.Time        `json:"timestamp"`
	Version   string           `json:"version"`
	Database  DatabaseMetadata `json:"database"`
}

// DatabaseMetadata describes the database file inside the archive
type DatabaseMetadata struct {
	Name      string `json:"name"`
	Filename  string `json:"filename"`
	SizeBytes int64  `json:"size_bytes"`
	Checksum  string `json:"checksum"`
}

// NewBackupService creates a backup service. Staging files go under tempDir
// (the system default when empty).
func NewBackupService(db *database.DB, uploader ObjectUploader, tempDir string, log zerolog.Logger) *BackupService {
	return &BackupService{
		db:       db,
		uploader: uploader,
		tempDir:  tempDir,
		now:      time.Now,
		log:      log.With().Str("service", "backup").Logger(),
	}
}

// CreateAndUploadBackup snapshots the database and uploads the archive,
// returning the object key.
func (s *BackupService) CreateAndUploadBackup(ctx context.Context) (string, error) {
	s.log.Info().Msg("Starting database backup")
	startTime := time.Now()

	stagingDir, err := os.MkdirTemp(s.tempDir, "ratecast-backup-")
	if err != nil {
		return "", fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(stagingDir)

	filename := s.db.Name() + ".db"
	dbPath := filepath.Join(stagingDir, filename)

	// VACUUM INTO gives a consistent copy without stopping writers
	if _, err := s.db.Conn().ExecContext(ctx, "VACUUM INTO ?", dbPath); err != nil {
		return "", fmt.Errorf("failed to copy database: %w", err)
	}

	info, err := os.Stat(dbPath)
	if err != nil {
		return "", fmt.Errorf("failed to stat database copy: %w", err)
	}
	checksum, err := calculateChecksum(dbPath)
	if err != nil {
		return "", fmt.Errorf("failed to calculate checksum: %w", err)
	}

	timestamp := s.now().UTC()
	metadata := BackupMetadata{
		Timestamp: timestamp,
		Version:   "1.0.0",
		Database: DatabaseMetadata{
			Name:      s.db.Name(),
			Filename:  filename,
			SizeBytes: info.Size(),
			Checksum:  checksum,
		},
	}

	archive, err := createArchive(dbPath, filename, metadata)
	if err != nil {
		return "", fmt.Errorf("failed to create archive: %w", err)
	}

	key := BackupPrefix + timestamp.Format("2006-01-02-150405") + ".tar.gz"
	if err := s.uploader.PutObject(ctx, key, archive, "application/gzip"); err != nil {
		return "", err
	}

	s.log.Info().
		Dur("duration_ms", time.Since(startTime)).
		Str("key", key).
		Int("size_bytes", len(archive)).
		Msg("Database backup completed successfully")

	return key, nil
}

// calculateChecksum calculates SHA256 checksum of a file
func calculateChecksum(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}

	return fmt.Sprintf("sha256:%x", hash.Sum(nil)), nil
}

// createArchive packs the database copy and its metadata into a tar.gz
func createArchive(dbPath, filename string, metadata BackupMetadata) ([]byte, error) {
	var buf bytes.Buffer
	gzipWriter := gzip.NewWriter(&buf)
	tarWriter := tar.NewWriter(gzipWriter)

	meta, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := tarWriter.WriteHeader(&tar.Header{
		Name:    "backup-metadata.json",
		Size:    int64(len(meta)),
		Mode:    0644,
		ModTime: metadata.Timestamp,
	}); err != nil {
		return nil, err
	}
	if _, err := tarWriter.Write(meta); err != nil {
		return nil, err
	}

	if err := addFileToArchive(tarWriter, dbPath, filename); err != nil {
		return nil, fmt.Errorf("failed to add %s to archive: %w", filename, err)
	}

	if err := tarWriter.Close(); err != nil {
		return nil, err
	}
	if err := gzipWriter.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// addFileToArchive adds a single file to a tar archive
func addFileToArchive(tarWriter *tar.Writer, filePath, nameInArchive string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}

	header := &tar.Header{
		Name:    nameInArchive,
		Size:    info.Size(),
		Mode:    int64(info.Mode().Perm()),
		ModTime: info.ModTime(),
	}

	if err := tarWriter.WriteHeader(header); err != nil {
		return err
	}

	_, err = io.Copy(tarWriter, file)
	return err
}
