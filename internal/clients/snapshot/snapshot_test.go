package snapshot

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/ratecast/internal/domain"
)

const snapshotBody = `{"base":"USD","rates":{"2019-06-06":{"EUR":0.889},"2019-06-05":{"EUR":0.887},"2019-06-04":{"EUR":0.888}}}`

// fakeBucket is an in-memory object store implementing Uploader and ObjectGetter
type fakeBucket struct {
	mu      sync.Mutex
	objects map[string][]byte
	err     error
}

func newFakeBucket() *fakeBucket {
	return &fakeBucket{objects: make(map[string][]byte)}
}

func (b *fakeBucket) Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return nil, b.err
	}
	body, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	b.objects[aws.ToString(input.Bucket)+"/"+aws.ToString(input.Key)] = body
	return &manager.UploadOutput{}, nil
}

func (b *fakeBucket) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return nil, b.err
	}
	body, ok := b.objects[aws.ToString(params.Bucket)+"/"+aws.ToString(params.Key)]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(body))}, nil
}

func day(s string) domain.DailyRates {
	d, _ := domain.ParseDay(s)
	return domain.DailyRates{Date: d}
}

func TestFileStore_WriteRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw", "rates.json")
	store := NewFileStore(path)

	require.NoError(t, store.Write([]byte(snapshotBody)))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "\n  \"base\": \"USD\"")

	body, err := store.Read()
	require.NoError(t, err)
	assert.JSONEq(t, snapshotBody, string(body))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileStore_RejectsInvalidJSON(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "rates.json"))
	assert.Error(t, store.Write([]byte("{not json")))

	assert.Error(t, NewFileStore("").Write([]byte(snapshotBody)))
}

func TestFileStore_ReadMissing(t *testing.T) {
	_, err := NewFileStore(filepath.Join(t.TempDir(), "missing.json")).Read()
	assert.Error(t, err)
}

func TestS3Store_PutGet(t *testing.T) {
	bucket := newFakeBucket()
	store := NewS3StoreWithClients("rates-bucket", bucket, bucket, zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "raw/rates.json", []byte(snapshotBody)))
	assert.Contains(t, bucket.objects, "rates-bucket/raw/rates.json")

	body, err := store.Get(ctx, "raw/rates.json")
	require.NoError(t, err)
	assert.Equal(t, snapshotBody, string(body))

	_, err = store.Get(ctx, "other.json")
	assert.Error(t, err)
}

func TestS3Store_UploadFailure(t *testing.T) {
	bucket := newFakeBucket()
	bucket.err = errors.New("access denied")
	store := NewS3StoreWithClients("rates-bucket", bucket, bucket, zerolog.Nop())

	err := store.Put(context.Background(), "raw/rates.json", []byte(snapshotBody))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3://rates-bucket/raw/rates.json")
}

func TestNewS3Store_RequiresBucket(t *testing.T) {
	_, err := NewS3Store(context.Background(), S3Config{Region: "us-east-1"}, zerolog.Nop())
	assert.Error(t, err)
}

func TestArchive_LocalOnly(t *testing.T) {
	archive := NewArchive(NewFileStore(filepath.Join(t.TempDir(), "rates.json")), nil, "raw/rates.json", zerolog.Nop())
	ctx := context.Background()

	assert.False(t, archive.HasRemote())
	require.NoError(t, archive.Save(ctx, []byte(snapshotBody)))

	history, err := archive.Load(ctx)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, day("2019-06-04").Date, history[0].Date)
	assert.Equal(t, 0.889, history[2].Rates[domain.CurrencyEUR])
}

func TestArchive_MirrorsToS3AndReadsRemote(t *testing.T) {
	bucket := newFakeBucket()
	file := NewFileStore(filepath.Join(t.TempDir(), "rates.json"))
	archive := NewArchive(file, NewS3StoreWithClients("rates-bucket", bucket, bucket, zerolog.Nop()), "raw/rates.json", zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, archive.Save(ctx, []byte(snapshotBody)))
	assert.Equal(t, snapshotBody, string(bucket.objects["rates-bucket/raw/rates.json"]))

	// remote copy wins over the local file
	require.NoError(t, os.Remove(file.Path()))
	history, err := archive.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, history, 3)
}

func TestArchive_FetchRatesFiltersWindow(t *testing.T) {
	archive := NewArchive(NewFileStore(filepath.Join(t.TempDir(), "rates.json")), nil, "raw/rates.json", zerolog.Nop())
	ctx := context.Background()
	require.NoError(t, archive.Save(ctx, []byte(snapshotBody)))

	history, err := archive.FetchRates(ctx, day("2019-06-05").Date, day("2019-06-06").Date)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, day("2019-06-05").Date, history[0].Date)
}
