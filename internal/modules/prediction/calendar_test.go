package prediction

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAddBusinessDays(t *testing.T) {
	tests := []struct {
		name   string
		anchor time.Time
		n      int
		want   time.Time
	}{
		{"thursday plus one", day(2019, 6, 6), 1, day(2019, 6, 7)},
		{"thursday plus two skips weekend", day(2019, 6, 6), 2, day(2019, 6, 10)},
		{"friday plus one", day(2019, 6, 7), 1, day(2019, 6, 10)},
		{"saturday plus one", day(2019, 6, 8), 1, day(2019, 6, 10)},
		{"saturday plus two", day(2019, 6, 8), 2, day(2019, 6, 11)},
		{"sunday plus one", day(2019, 6, 9), 1, day(2019, 6, 10)},
		{"zero steps", day(2019, 6, 6), 0, day(2019, 6, 6)},
		{"across month end", day(2019, 5, 31), 1, day(2019, 6, 3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AddBusinessDays(tt.anchor, tt.n))
		})
	}
}

func TestAddBusinessDays_IgnoresTimeOfDay(t *testing.T) {
	anchor := time.Date(2019, 6, 6, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, day(2019, 6, 7), AddBusinessDays(anchor, 1))
}

func TestBusinessDays_FromThursday(t *testing.T) {
	got := BusinessDays(day(2019, 6, 6), 7)

	assert.Equal(t, []time.Time{
		day(2019, 6, 7),
		day(2019, 6, 10), day(2019, 6, 11), day(2019, 6, 12), day(2019, 6, 13), day(2019, 6, 14),
		day(2019, 6, 17),
	}, got)
	for _, d := range got {
		assert.True(t, IsBusinessDay(d))
	}
}

func TestBusinessDays_NonPositive(t *testing.T) {
	assert.Nil(t, BusinessDays(day(2019, 6, 6), 0))
	assert.Nil(t, BusinessDays(day(2019, 6, 6), -1))
}
