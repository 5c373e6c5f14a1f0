package evaluation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMAPE_RatioOfSums(t *testing.T) {
	got, err := MAPE([]float64{10, 10, 10}, []float64{10, 11, 12})
	require.NoError(t, err)
	assert.InDelta(t, 3.0/33.0, got, 1e-12)
}

func TestMAPE_IsNotMeanOfRatios(t *testing.T) {
	// Mean of per-point ratios would be (1/1 + 0/100)/2 = 0.5
	got, err := MAPE([]float64{2, 100}, []float64{1, 100})
	require.NoError(t, err)
	assert.InDelta(t, 1.0/101.0, got, 1e-12)
}

func TestMAPE_PerfectForecast(t *testing.T) {
	got, err := MAPE([]float64{0.89, 0.9}, []float64{0.89, 0.9})
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)
}

func TestMAPE_Errors(t *testing.T) {
	_, err := MAPE([]float64{1}, []float64{1, 2})
	assert.Error(t, err)

	_, err = MAPE(nil, nil)
	assert.Error(t, err)

	_, err = MAPE([]float64{1, 1}, []float64{0, 0})
	assert.True(t, errors.Is(err, ErrDegenerateActuals))
}
