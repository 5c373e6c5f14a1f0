package testing

import (
	"time"

	"github.com/aristath/ratecast/internal/domain"
)

// FixtureDates are the 12 business days 2019-05-22 .. 2019-06-06.
var FixtureDates = []string{
	"2019-05-22", "2019-05-23", "2019-05-24",
	"2019-05-27", "2019-05-28", "2019-05-29", "2019-05-30", "2019-05-31",
	"2019-06-03", "2019-06-04", "2019-06-05", "2019-06-06",
}

// FixtureValues holds the USD-based rates for each fixture currency, aligned with FixtureDates.
var FixtureValues = map[domain.Currency][]float64{
	domain.CurrencyEUR: {0.8960, 0.8970, 0.8930, 0.8920, 0.8940, 0.8970, 0.8980, 0.8970, 0.8940, 0.8880, 0.8870, 0.8890},
	domain.CurrencyGBP: {0.7880, 0.7895, 0.7870, 0.7905, 0.7890, 0.7915, 0.7930, 0.7920, 0.7895, 0.7905, 0.7880, 0.7870},
	domain.CurrencyINR: {69.65, 69.72, 69.58, 69.80, 69.74, 69.90, 69.85, 69.62, 69.40, 69.35, 69.48, 69.30},
}

// FixtureDate parses one of the fixture dates, panicking on malformed input.
func FixtureDate(s string) time.Time {
	t, err := domain.ParseDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

// NewDailyRatesFixture returns the fixture in rate-source shape.
func NewDailyRatesFixture() []domain.DailyRates {
	out := make([]domain.DailyRates, len(FixtureDates))
	for i, d := range FixtureDates {
		rates := make(map[domain.Currency]float64, len(FixtureValues))
		for c, values := range FixtureValues {
			rates[c] = values[i]
		}
		out[i] = domain.DailyRates{Date: FixtureDate(d), Rates: rates}
	}
	return out
}

// NewRateSetFixture returns the fixture as one series per tracked currency.
func NewRateSetFixture() domain.RateSet {
	set, err := domain.BuildRateSet(NewDailyRatesFixture(), domain.DefaultCurrencies)
	if err != nil {
		panic(err)
	}
	return set
}

// NewParamsFixture returns stored orders for every fixture currency.
func NewParamsFixture() map[domain.Currency]domain.SelectedParams {
	trained := time.Date(2019, 6, 6, 18, 0, 0, 0, time.UTC)
	return map[domain.Currency]domain.SelectedParams{
		domain.CurrencyEUR: {Currency: domain.CurrencyEUR, Config: domain.ModelConfig{P: 2, D: 1, Q: 0}, MAPE: 0.0021, RunID: "fixture", TrainedAt: trained},
		domain.CurrencyGBP: {Currency: domain.CurrencyGBP, Config: domain.ModelConfig{P: 0, D: 1, Q: 2}, MAPE: 0.0017, RunID: "fixture", TrainedAt: trained},
		domain.CurrencyINR: {Currency: domain.CurrencyINR, Config: domain.ModelConfig{P: 2, D: 1, Q: 0}, MAPE: 0.0024, RunID: "fixture", TrainedAt: trained},
	}
}
