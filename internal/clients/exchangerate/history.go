package exchangerate

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/aristath/ratecast/internal/domain"
)

// historyResponse is the time-series document returned by the history endpoint
// and archived verbatim in snapshots.
type historyResponse struct {
	Base    string                        `json:"base"`
	StartAt string                        `json:"start_at,omitempty"`
	EndAt   string                        `json:"end_at,omitempty"`
	Rates   map[string]map[string]float64 `json:"rates"`
}

// ParseHistory decodes a history document into date-sorted daily rates.
func ParseHistory(body []byte) ([]domain.DailyRates, error) {
	var doc historyResponse
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse rate history: %w", err)
	}
	if doc.Rates == nil {
		return nil, fmt.Errorf("rate history has no rates object")
	}

	out := make([]domain.DailyRates, 0, len(doc.Rates))
	for dateStr, quotes := range doc.Rates {
		date, err := domain.ParseDay(dateStr)
		if err != nil {
			return nil, err
		}
		rates := make(map[domain.Currency]float64, len(quotes))
		for code, v := range quotes {
			rates[domain.Currency(code)] = v
		}
		out = append(out, domain.DailyRates{Date: date, Rates: rates})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}
