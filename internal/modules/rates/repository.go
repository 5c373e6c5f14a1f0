// Package rates stores the daily rate history the models are trained on.
package rates

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/ratecast/internal/database"
	"github.com/aristath/ratecast/internal/domain"
)

// Repository persists daily rates keyed by date and currency.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new rates repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "rates").Logger(),
	}
}

// Upsert writes every quote of history, replacing existing (date, currency) rows.
// Returns the number of rows written.
func (r *Repository) Upsert(ctx context.Context, history []domain.DailyRates) (int, error) {
	written := 0
	err := database.WithTransaction(ctx, r.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR REPLACE INTO rates (date, currency, rate)
			VALUES (?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare rate upsert: %w", err)
		}
		defer stmt.Close()

		for _, day := range history {
			date := domain.Day(day.Date).Format(domain.DateLayout)
			for currency, rate := range day.Rates {
				if !(rate > 0) {
					return fmt.Errorf("%s rate on %s must be positive, got %v", currency, date, rate)
				}
				if _, err := stmt.ExecContext(ctx, date, string(currency), rate); err != nil {
					return fmt.Errorf("failed to upsert %s rate on %s: %w", currency, date, err)
				}
				written++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	r.log.Info().Int("days", len(history)).Int("rows", written).Msg("Upserted rates")
	return written, nil
}

// Load returns the series of every requested currency with from < date <= to.
// A zero bound is open. Currencies without rows get an empty series.
func (r *Repository) Load(ctx context.Context, from, to time.Time, currencies []domain.Currency) (domain.RateSet, error) {
	if len(currencies) == 0 {
		return domain.RateSet{}, nil
	}

	query := `SELECT date, currency, rate FROM rates WHERE currency IN (?` +
		strings.Repeat(",?", len(currencies)-1) + `)`
	args := make([]interface{}, 0, len(currencies)+2)
	for _, c := range currencies {
		args = append(args, string(c))
	}
	if !from.IsZero() {
		query += " AND date > ?"
		args = append(args, domain.Day(from).Format(domain.DateLayout))
	}
	if !to.IsZero() {
		query += " AND date <= ?"
		args = append(args, domain.Day(to).Format(domain.DateLayout))
	}
	query += " ORDER BY date"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query rates: %w", err)
	}
	defer rows.Close()

	observations := make(map[domain.Currency][]domain.Observation, len(currencies))
	for rows.Next() {
		var (
			dateStr  string
			currency string
			rate     float64
		)
		if err := rows.Scan(&dateStr, &currency, &rate); err != nil {
			return nil, fmt.Errorf("failed to scan rate: %w", err)
		}
		date, err := domain.ParseDay(dateStr)
		if err != nil {
			return nil, err
		}
		c := domain.Currency(currency)
		observations[c] = append(observations[c], domain.Observation{Date: date, Value: rate})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rates: %w", err)
	}

	set := make(domain.RateSet, len(currencies))
	for _, c := range currencies {
		series, err := domain.NewRateSeries(c, observations[c])
		if err != nil {
			return nil, err
		}
		set[c] = series
	}
	return set, nil
}

// Latest returns the most recent stored date. ok is false when the table is empty.
func (r *Repository) Latest(ctx context.Context) (latest time.Time, ok bool, err error) {
	var date sql.NullString
	if err := r.db.QueryRowContext(ctx, "SELECT MAX(date) FROM rates").Scan(&date); err != nil {
		return time.Time{}, false, fmt.Errorf("failed to query latest rate date: %w", err)
	}
	if !date.Valid {
		return time.Time{}, false, nil
	}
	latest, err = domain.ParseDay(date.String)
	if err != nil {
		return time.Time{}, false, err
	}
	return latest, true, nil
}

// Count returns the number of stored quotes.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM rates").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count rates: %w", err)
	}
	return n, nil
}
