package selection

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/ratecast/internal/database"
	"github.com/aristath/ratecast/internal/domain"
)

// Repository stores the selected ARIMA orders, one row per currency.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new params repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "arima_params").Logger(),
	}
}

// SaveParams upserts every row by currency in a single transaction.
func (r *Repository) SaveParams(ctx context.Context, params []domain.SelectedParams) error {
	if len(params) == 0 {
		return nil
	}

	err := database.WithTransaction(ctx, r.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR REPLACE INTO arima_params (currency, p, d, q, mape, run_id, trained_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare params upsert: %w", err)
		}
		defer stmt.Close()

		for _, p := range params {
			if _, err := stmt.ExecContext(ctx,
				string(p.Currency), p.Config.P, p.Config.D, p.Config.Q,
				p.MAPE, p.RunID, p.TrainedAt.Unix(),
			); err != nil {
				return fmt.Errorf("failed to upsert params for %s: %w", p.Currency, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.log.Info().Int("count", len(params)).Msg("Saved ARIMA params")
	return nil
}

// LoadParams returns every stored row keyed by currency.
func (r *Repository) LoadParams(ctx context.Context) (map[domain.Currency]domain.SelectedParams, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT currency, p, d, q, mape, run_id, trained_at
		FROM arima_params
		ORDER BY currency
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query params: %w", err)
	}
	defer rows.Close()

	out := make(map[domain.Currency]domain.SelectedParams)
	for rows.Next() {
		var (
			p         domain.SelectedParams
			currency  string
			trainedAt int64
		)
		if err := rows.Scan(&currency, &p.Config.P, &p.Config.D, &p.Config.Q, &p.MAPE, &p.RunID, &trainedAt); err != nil {
			return nil, fmt.Errorf("failed to scan params: %w", err)
		}
		p.Currency = domain.Currency(currency)
		p.TrainedAt = time.Unix(trainedAt, 0).UTC()
		out[p.Currency] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating params: %w", err)
	}

	return out, nil
}
