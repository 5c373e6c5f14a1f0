// Package selection picks the best-scoring ARIMA configuration per currency
// and persists the winners.
package selection

import (
	"fmt"
	"math"
	"sort"

	"github.com/aristath/ratecast/internal/domain"
)

// SelectBest returns, for every currency of the table, the grid row with the
// lowest MAPE. Ties keep the earliest row in grid order. The result is sorted
// by currency code.
func SelectBest(table *domain.EvaluationTable) ([]domain.SelectedParams, error) {
	if table == nil || len(table.Rows) == 0 {
		return nil, &domain.EmptyGridError{}
	}

	currencies := append([]domain.Currency(nil), table.Currencies...)
	sort.Slice(currencies, func(i, j int) bool { return currencies[i] < currencies[j] })

	selected := make([]domain.SelectedParams, 0, len(currencies))
	for _, currency := range currencies {
		best := -1
		bestMAPE := math.Inf(1)
		for i, row := range table.Rows {
			mape, ok := row.MAPE[currency]
			if !ok {
				return nil, fmt.Errorf("evaluation row ARIMA%s has no score for %s", row.Config, currency)
			}
			// strict comparison keeps the first of equal scores
			if best < 0 || mape < bestMAPE {
				best, bestMAPE = i, mape
			}
		}
		selected = append(selected, domain.SelectedParams{
			Currency: currency,
			Config:   table.Rows[best].Config,
			MAPE:     bestMAPE,
		})
	}

	return selected, nil
}
