package prediction

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/ratecast/internal/domain"
	testingpkg "github.com/aristath/ratecast/internal/testing"
)

func batch(currencies []domain.Currency, horizon int, base float64) []domain.PredictionRow {
	targets := BusinessDays(day(2019, 6, 6), horizon)
	var rows []domain.PredictionRow
	for ci, c := range currencies {
		for i, target := range targets {
			rows = append(rows, domain.PredictionRow{
				Currency:      c,
				TargetDate:    target,
				PredictedRate: base + float64(ci) + float64(i)/100,
			})
		}
	}
	return rows
}

func TestRepository_ReplaceAllAndList(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, "ratecast")
	defer cleanup()
	repo := NewRepository(db.Conn(), zerolog.Nop())
	ctx := context.Background()

	rows := batch(domain.DefaultCurrencies, 7, 1)
	require.NoError(t, repo.ReplaceAll(ctx, "run-1", rows))

	listed, err := repo.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, listed, 21)

	assert.Equal(t, rows[0], listed[0].PredictionRow)
	assert.Equal(t, 1, listed[0].Step)
	assert.Equal(t, "run-1", listed[0].RunID)
	assert.Equal(t, domain.CurrencyEUR, listed[6].Currency)
	assert.Equal(t, 7, listed[6].Step)
	assert.Equal(t, domain.CurrencyGBP, listed[7].Currency)
	assert.Equal(t, 1, listed[7].Step)
}

func TestRepository_ReplaceAllClearsPreviousBatch(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, "ratecast")
	defer cleanup()
	repo := NewRepository(db.Conn(), zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, repo.ReplaceAll(ctx, "run-1", batch(domain.DefaultCurrencies, 7, 1)))
	second := batch([]domain.Currency{domain.CurrencyEUR}, 3, 2)
	require.NoError(t, repo.SavePredictions(ctx, second))
	require.NoError(t, repo.SavePredictions(ctx, second))

	listed, err := repo.List(ctx, MaxListed)
	require.NoError(t, err)
	require.Len(t, listed, 3)
	for i, p := range listed {
		assert.Equal(t, second[i], p.PredictionRow)
	}
}

func TestRepository_ListLimit(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, "ratecast")
	defer cleanup()
	repo := NewRepository(db.Conn(), zerolog.Nop())
	ctx := context.Background()

	// 3 currencies x 40 steps = 120 rows
	require.NoError(t, repo.ReplaceAll(ctx, "run-1", batch(domain.DefaultCurrencies, 40, 1)))

	listed, err := repo.List(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, listed, 5)

	listed, err = repo.List(ctx, 500)
	require.NoError(t, err)
	assert.Len(t, listed, MaxListed)
}

func TestRepository_ReplaceAllRejectsDuplicateTargets(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, "ratecast")
	defer cleanup()
	repo := NewRepository(db.Conn(), zerolog.Nop())
	ctx := context.Background()

	original := batch([]domain.Currency{domain.CurrencyEUR}, 2, 1)
	require.NoError(t, repo.ReplaceAll(ctx, "run-1", original))

	dup := append(batch([]domain.Currency{domain.CurrencyGBP}, 1, 1), batch([]domain.Currency{domain.CurrencyGBP}, 1, 1)...)
	assert.Error(t, repo.ReplaceAll(ctx, "run-2", dup))

	// the failed batch rolled back, the original survives
	listed, err := repo.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "run-1", listed[0].RunID)
}
