package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/ratecast/internal/clients/exchangerate"
	"github.com/aristath/ratecast/internal/domain"
)

// Archive writes every snapshot to the local file and, when an S3 store is
// configured, to the object store under key.
type Archive struct {
	file *FileStore
	s3   *S3Store
	key  string
	log  zerolog.Logger
}

// NewArchive creates an archive. s3 may be nil.
func NewArchive(file *FileStore, s3 *S3Store, key string, log zerolog.Logger) *Archive {
	return &Archive{
		file: file,
		s3:   s3,
		key:  key,
		log:  log.With().Str("component", "snapshot_archive").Logger(),
	}
}

// HasRemote reports whether snapshots are mirrored to S3
func (a *Archive) HasRemote() bool {
	return a.s3 != nil
}

// Save stores body locally, then uploads it.
func (a *Archive) Save(ctx context.Context, body []byte) error {
	if err := a.file.Write(body); err != nil {
		return err
	}
	a.log.Info().Str("path", a.file.Path()).Int("bytes", len(body)).Msg("Wrote snapshot")

	if a.s3 == nil {
		return nil
	}
	return a.s3.Put(ctx, a.key, body)
}

// Read returns the snapshot, preferring the object store when configured.
func (a *Archive) Read(ctx context.Context) ([]byte, error) {
	if a.s3 != nil {
		return a.s3.Get(ctx, a.key)
	}
	return a.file.Read()
}

// Load parses the snapshot into daily rates.
func (a *Archive) Load(ctx context.Context) ([]domain.DailyRates, error) {
	body, err := a.Read(ctx)
	if err != nil {
		return nil, err
	}
	history, err := exchangerate.ParseHistory(body)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	return history, nil
}

// FetchRates serves the archived days within [start, end].
func (a *Archive) FetchRates(ctx context.Context, start, end time.Time) ([]domain.DailyRates, error) {
	history, err := a.Load(ctx)
	if err != nil {
		return nil, err
	}

	from, to := domain.Day(start), domain.Day(end)
	out := make([]domain.DailyRates, 0, len(history))
	for _, d := range history {
		if d.Date.Before(from) || d.Date.After(to) {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}
