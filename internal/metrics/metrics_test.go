package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/ratecast/internal/domain"
	testingpkg "github.com/aristath/ratecast/internal/testing"
)

func TestInstrumentForecaster_CountsOutcomes(t *testing.T) {
	recorder := New()
	mock := testingpkg.NewMockForecaster(1)
	failing := domain.ModelConfig{P: 0, D: 1, Q: 1}
	mock.Fail[failing] = errors.New("boom")
	f := InstrumentForecaster(mock, recorder)

	out, err := f.Forecast([]float64{1, 2, 3}, 2, domain.ModelConfig{P: 1, D: 1})
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 5}, out)

	_, err = f.Forecast([]float64{1, 2, 3}, 2, failing)
	assert.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(recorder.fitsTotal.WithLabelValues("(1,1,0)", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(recorder.fitsTotal.WithLabelValues("(0,1,1)", "error")))
	assert.Equal(t, 5, f.MinObservations(domain.ModelConfig{P: 1, D: 1}))
}

func TestRecorder_RunsAndGauges(t *testing.T) {
	recorder := New()

	recorder.RecordRun("train", true, 1.5, 1559836800)
	recorder.RecordRun("train", false, 0.2, 1559840400)
	recorder.RecordSelectedMAPE("EUR", 0.0021)
	recorder.RecordPredictions(21)

	assert.Equal(t, 1.0, testutil.ToFloat64(recorder.runsTotal.WithLabelValues("train", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(recorder.runsTotal.WithLabelValues("train", "error")))
	// failed runs leave the last success untouched
	assert.Equal(t, 1559836800.0, testutil.ToFloat64(recorder.lastSuccess.WithLabelValues("train")))
	assert.Equal(t, 0.0021, testutil.ToFloat64(recorder.selectedMAPE.WithLabelValues("EUR")))
	assert.Equal(t, 21.0, testutil.ToFloat64(recorder.predictions))
}

func TestRecorder_Handler(t *testing.T) {
	recorder := New()
	recorder.RecordPredictions(3)

	rec := httptest.NewRecorder()
	recorder.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "ratecast_predictions_stored 3")
	assert.Contains(t, string(body), "go_goroutines")
}

func TestNew_IndependentRegistries(t *testing.T) {
	// each recorder owns its registry, so constructing twice must not panic
	assert.NotPanics(t, func() {
		_ = New()
		_ = New()
	})
}
