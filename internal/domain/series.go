package domain

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Observation is a single dated rate.
type Observation struct {
	Date  time.Time
	Value float64
}

// RateSeries is the date-ordered rate history of one currency.
// Dates are unique and ascending, values are positive.
type RateSeries struct {
	Currency     Currency
	Observations []Observation
}

// RateSet maps each tracked currency to its series.
type RateSet map[Currency]RateSeries

// Day truncates t to a UTC calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD date.
func ParseDay(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// NewRateSeries sorts the observations by date and validates them.
func NewRateSeries(currency Currency, observations []Observation) (RateSeries, error) {
	sorted := make([]Observation, len(observations))
	for i, o := range observations {
		if math.IsNaN(o.Value) || math.IsInf(o.Value, 0) || o.Value <= 0 {
			return RateSeries{}, fmt.Errorf("%s rate on %s must be positive, got %v", currency, o.Date.Format(DateLayout), o.Value)
		}
		sorted[i] = Observation{Date: Day(o.Date), Value: o.Value}
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	for i := 1; i < len(sorted); i++ {
		if sorted[i].Date.Equal(sorted[i-1].Date) {
			return RateSeries{}, fmt.Errorf("%s has duplicate observations on %s", currency, sorted[i].Date.Format(DateLayout))
		}
	}

	return RateSeries{Currency: currency, Observations: sorted}, nil
}

// Len returns the number of observations.
func (s RateSeries) Len() int {
	return len(s.Observations)
}

// Values returns the rates in date order.
func (s RateSeries) Values() []float64 {
	values := make([]float64, len(s.Observations))
	for i, o := range s.Observations {
		values[i] = o.Value
	}
	return values
}

// LastDate returns the date of the most recent observation.
func (s RateSeries) LastDate() (time.Time, bool) {
	if len(s.Observations) == 0 {
		return time.Time{}, false
	}
	return s.Observations[len(s.Observations)-1].Date, true
}

// Between returns the observations with from < date <= to. A zero bound is open.
func (s RateSeries) Between(from, to time.Time) RateSeries {
	out := RateSeries{Currency: s.Currency}
	for _, o := range s.Observations {
		if !from.IsZero() && !o.Date.After(from) {
			continue
		}
		if !to.IsZero() && o.Date.After(to) {
			continue
		}
		out.Observations = append(out.Observations, o)
	}
	return out
}

// LastDate returns the latest observation date across all series.
func (rs RateSet) LastDate() (time.Time, bool) {
	var latest time.Time
	found := false
	for _, s := range rs {
		if d, ok := s.LastDate(); ok && (!found || d.After(latest)) {
			latest = d
			found = true
		}
	}
	return latest, found
}

// Between applies RateSeries.Between to every series.
func (rs RateSet) Between(from, to time.Time) RateSet {
	out := make(RateSet, len(rs))
	for c, s := range rs {
		out[c] = s.Between(from, to)
	}
	return out
}

// BuildRateSet pivots daily quotes into one series per requested currency.
// A day missing a currency is skipped for that currency only.
func BuildRateSet(history []DailyRates, currencies []Currency) (RateSet, error) {
	set := make(RateSet, len(currencies))
	for _, c := range currencies {
		var observations []Observation
		for _, day := range history {
			if v, ok := day.Rates[c]; ok {
				observations = append(observations, Observation{Date: day.Date, Value: v})
			}
		}
		series, err := NewRateSeries(c, observations)
		if err != nil {
			return nil, err
		}
		set[c] = series
	}
	return set, nil
}
