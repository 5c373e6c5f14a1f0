package selection

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/ratecast/internal/domain"
)

const testSchema = `
CREATE TABLE arima_params (
    currency TEXT PRIMARY KEY,
    p INTEGER NOT NULL,
    d INTEGER NOT NULL,
    q INTEGER NOT NULL,
    mape REAL NOT NULL,
    run_id TEXT NOT NULL,
    trained_at INTEGER NOT NULL
);
`

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	// A single connection keeps every query on the same in-memory database
	db.SetMaxOpenConns(1)

	_, err = db.Exec(testSchema)
	require.NoError(t, err)

	return db
}

func TestRepository_SaveAndLoad(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	repo := NewRepository(db, zerolog.Nop())
	ctx := context.Background()

	trained := time.Date(2019, 6, 6, 12, 0, 0, 0, time.UTC)
	params := []domain.SelectedParams{
		{Currency: domain.CurrencyEUR, Config: domain.ModelConfig{P: 2, D: 1, Q: 0}, MAPE: 0.0021, RunID: "run-1", TrainedAt: trained},
		{Currency: domain.CurrencyGBP, Config: domain.ModelConfig{P: 0, D: 1, Q: 2}, MAPE: 0.0017, RunID: "run-1", TrainedAt: trained},
	}
	require.NoError(t, repo.SaveParams(ctx, params))

	loaded, err := repo.LoadParams(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, params[0], loaded[domain.CurrencyEUR])
	assert.Equal(t, params[1], loaded[domain.CurrencyGBP])
}

func TestRepository_UpsertByCurrency(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	repo := NewRepository(db, zerolog.Nop())
	ctx := context.Background()

	first := domain.SelectedParams{Currency: domain.CurrencyEUR, Config: domain.ModelConfig{P: 1, D: 1}, MAPE: 0.01, RunID: "a", TrainedAt: time.Unix(100, 0).UTC()}
	second := domain.SelectedParams{Currency: domain.CurrencyEUR, Config: domain.ModelConfig{D: 1, Q: 1}, MAPE: 0.02, RunID: "b", TrainedAt: time.Unix(200, 0).UTC()}

	require.NoError(t, repo.SaveParams(ctx, []domain.SelectedParams{first}))
	require.NoError(t, repo.SaveParams(ctx, []domain.SelectedParams{second}))
	require.NoError(t, repo.SaveParams(ctx, []domain.SelectedParams{second}))

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM arima_params").Scan(&count))
	assert.Equal(t, 1, count)

	loaded, err := repo.LoadParams(ctx)
	require.NoError(t, err)
	assert.Equal(t, second, loaded[domain.CurrencyEUR])
}

func TestRepository_LoadEmpty(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	loaded, err := NewRepository(db, zerolog.Nop()).LoadParams(context.Background())
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestRepository_SaveEmptyIsNoop(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	assert.NoError(t, NewRepository(db, zerolog.Nop()).SaveParams(context.Background(), nil))
}
