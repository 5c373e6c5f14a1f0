package prediction

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/ratecast/internal/database"
	"github.com/aristath/ratecast/internal/domain"
)

// MaxListed caps the rows returned by List.
const MaxListed = 100

// StoredPrediction is a persisted prediction row with its batch metadata.
type StoredPrediction struct {
	domain.PredictionRow
	Step      int       `json:"step"`
	RunID     string    `json:"run_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Repository keeps the latest prediction batch.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new prediction repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "predictions").Logger(),
	}
}

// SavePredictions replaces every stored prediction with rows.
func (r *Repository) SavePredictions(ctx context.Context, rows []domain.PredictionRow) error {
	return r.ReplaceAll(ctx, "", rows)
}

// ReplaceAll clears the table and inserts rows in one transaction, tagging
// them with runID. Step numbers restart at 1 for every currency.
func (r *Repository) ReplaceAll(ctx context.Context, runID string, rows []domain.PredictionRow) error {
	now := time.Now().Unix()

	err := database.WithTransaction(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM predictions"); err != nil {
			return fmt.Errorf("failed to clear predictions: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO predictions (currency, target_date, predicted_rate, step, run_id, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare prediction insert: %w", err)
		}
		defer stmt.Close()

		steps := make(map[domain.Currency]int)
		for _, row := range rows {
			steps[row.Currency]++
			if _, err := stmt.ExecContext(ctx,
				string(row.Currency),
				row.TargetDate.Format(domain.DateLayout),
				row.PredictedRate,
				steps[row.Currency],
				runID,
				now,
			); err != nil {
				return fmt.Errorf("failed to insert %s prediction for %s: %w",
					row.Currency, row.TargetDate.Format(domain.DateLayout), err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.log.Info().Int("count", len(rows)).Str("run_id", runID).Msg("Replaced predictions")
	return nil
}

// List returns up to limit stored predictions ordered by currency and step.
// A limit outside (0, MaxListed] is treated as MaxListed.
func (r *Repository) List(ctx context.Context, limit int) ([]StoredPrediction, error) {
	if limit <= 0 || limit > MaxListed {
		limit = MaxListed
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT currency, target_date, predicted_rate, step, run_id, created_at
		FROM predictions
		ORDER BY currency, step
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}
	defer rows.Close()

	var out []StoredPrediction
	for rows.Next() {
		var (
			p          StoredPrediction
			currency   string
			targetDate string
			createdAt  int64
		)
		if err := rows.Scan(&currency, &targetDate, &p.PredictedRate, &p.Step, &p.RunID, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}
		date, err := domain.ParseDay(targetDate)
		if err != nil {
			return nil, err
		}
		p.Currency = domain.Currency(currency)
		p.TargetDate = date
		p.CreatedAt = time.Unix(createdAt, 0).UTC()
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating predictions: %w", err)
	}

	return out, nil
}
