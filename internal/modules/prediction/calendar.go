// Package prediction turns stored ARIMA orders into dated business-day forecasts.
package prediction

import (
	"time"

	"github.com/aristath/ratecast/internal/domain"
)

// IsBusinessDay reports whether t falls on Monday through Friday.
func IsBusinessDay(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// AddBusinessDays returns the n-th business day strictly after anchor.
// Holidays are not excluded.
func AddBusinessDays(anchor time.Time, n int) time.Time {
	day := domain.Day(anchor)
	for n > 0 {
		day = day.AddDate(0, 0, 1)
		if IsBusinessDay(day) {
			n--
		}
	}
	return day
}

// BusinessDays returns the first n business days after anchor in order.
func BusinessDays(anchor time.Time, n int) []time.Time {
	if n <= 0 {
		return nil
	}
	out := make([]time.Time, n)
	day := domain.Day(anchor)
	for i := range out {
		day = AddBusinessDays(day, 1)
		out[i] = day
	}
	return out
}
