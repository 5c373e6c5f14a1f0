package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/ratecast/internal/domain"
	"github.com/aristath/ratecast/internal/metrics"
	"github.com/aristath/ratecast/internal/modules/prediction"
	"github.com/aristath/ratecast/internal/modules/selection"
	testingpkg "github.com/aristath/ratecast/internal/testing"
)

type failingLister struct{}

func (failingLister) List(context.Context, int) ([]prediction.StoredPrediction, error) {
	return nil, errors.New("no such table: predictions")
}

type stubJobs struct {
	names []string
	ran   chan string
}

func (s *stubJobs) JobNames() []string { return s.names }

func (s *stubJobs) RunByName(name string) error {
	s.ran <- name
	return nil
}

type envelope struct {
	Data     json.RawMessage        `json:"data"`
	Metadata map[string]interface{} `json:"metadata"`
}

func init() {
	cpuPercentFn = func(context.Context, time.Duration) ([]float64, error) { return []float64{12.5}, nil }
	memoryStatsFn = func(context.Context) (*mem.VirtualMemoryStat, error) {
		return &mem.VirtualMemoryStat{UsedPercent: 40}, nil
	}
	diskUsageFn = func(context.Context, string) (*disk.UsageStat, error) {
		return &disk.UsageStat{UsedPercent: 70}, nil
	}
}

func newSeededServer(t *testing.T) (*Server, *stubJobs) {
	t.Helper()

	db, cleanup := testingpkg.NewTestDB(t, "ratecast")
	t.Cleanup(cleanup)

	ctx := context.Background()
	params := selection.NewRepository(db.Conn(), zerolog.Nop())
	byCurrency := testingpkg.NewParamsFixture()
	list := make([]domain.SelectedParams, 0, len(byCurrency))
	for _, p := range byCurrency {
		list = append(list, p)
	}
	require.NoError(t, params.SaveParams(ctx, list))

	preds := prediction.NewRepository(db.Conn(), zerolog.Nop())
	rows := []domain.PredictionRow{
		{Currency: domain.CurrencyEUR, TargetDate: testingpkg.FixtureDate("2019-06-07"), PredictedRate: 0.8891},
		{Currency: domain.CurrencyEUR, TargetDate: testingpkg.FixtureDate("2019-06-10"), PredictedRate: 0.8893},
		{Currency: domain.CurrencyGBP, TargetDate: testingpkg.FixtureDate("2019-06-07"), PredictedRate: 0.7871},
	}
	require.NoError(t, preds.ReplaceAll(ctx, "run-1", rows))

	jobs := &stubJobs{names: []string{"score_predictions", "train_models"}, ran: make(chan string, 1)}
	srv := New(Config{
		Log:         zerolog.Nop(),
		DB:          db,
		Predictions: preds,
		Params:      params,
		Recorder:    metrics.New(),
		Jobs:        jobs,
		DevMode:     true,
	})
	return srv, jobs
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestIndex_RendersPredictionsAndParams(t *testing.T) {
	srv, _ := newSeededServer(t)

	rec := get(t, srv.Handler(), "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")

	body := rec.Body.String()
	assert.Contains(t, body, "2019-06-10")
	assert.Contains(t, body, "0.8893")
	assert.Contains(t, body, "(0,1,2)")
	// 0.0017 as a ratio is shown as a percentage
	assert.Contains(t, body, "0.170%")
	assert.Less(t, strings.Index(body, "EUR"), strings.Index(body, "INR"))
}

func TestIndex_ErrorPage(t *testing.T) {
	srv := New(Config{
		Log:         zerolog.Nop(),
		Predictions: failingLister{},
		Params:      testingpkg.NewMockParamsStore(nil),
	})

	rec := get(t, srv.Handler(), "/")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Predictions are not available")
}

func TestIndex_EmptyDatabase(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, "ratecast")
	defer cleanup()

	srv := New(Config{
		Log:         zerolog.Nop(),
		DB:          db,
		Predictions: prediction.NewRepository(db.Conn(), zerolog.Nop()),
		Params:      selection.NewRepository(db.Conn(), zerolog.Nop()),
	})

	rec := get(t, srv.Handler(), "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No predictions yet")
	assert.Contains(t, rec.Body.String(), "No trained models yet")
}

func TestAPIPredictions(t *testing.T) {
	srv, _ := newSeededServer(t)

	rec := get(t, srv.Handler(), "/api/predictions?limit=2")
	require.Equal(t, http.StatusOK, rec.Code)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Contains(t, env.Metadata, "timestamp")

	var data struct {
		Predictions []prediction.StoredPrediction `json:"predictions"`
		Count       int                           `json:"count"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Equal(t, 2, data.Count)
	assert.Equal(t, domain.CurrencyEUR, data.Predictions[0].Currency)
	assert.Equal(t, 1, data.Predictions[0].Step)
	assert.Equal(t, 2, data.Predictions[1].Step)
	assert.Equal(t, "run-1", data.Predictions[1].RunID)
}

func TestAPIPredictions_BadLimitFallsBack(t *testing.T) {
	srv, _ := newSeededServer(t)

	rec := get(t, srv.Handler(), "/api/predictions?limit=abc")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":3`)
}

func TestAPIPredictions_Error(t *testing.T) {
	srv := New(Config{Log: zerolog.Nop(), Predictions: failingLister{}})
	rec := get(t, srv.Handler(), "/api/predictions")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAPIParams(t *testing.T) {
	srv, _ := newSeededServer(t)

	rec := get(t, srv.Handler(), "/api/params")
	require.Equal(t, http.StatusOK, rec.Code)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	var data struct {
		Params []domain.SelectedParams `json:"params"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Len(t, data.Params, 3)
	assert.True(t, sort.SliceIsSorted(data.Params, func(i, j int) bool {
		return data.Params[i].Currency < data.Params[j].Currency
	}))
	assert.Equal(t, domain.ModelConfig{P: 0, D: 1, Q: 2}, data.Params[1].Config)
}

func TestHealth(t *testing.T) {
	srv, _ := newSeededServer(t)

	rec := get(t, srv.Handler(), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")

	require.NoError(t, srv.cfg.DB.Close())
	rec = get(t, srv.Handler(), "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "unhealthy")
}

func TestSystemStatus(t *testing.T) {
	srv, _ := newSeededServer(t)

	rec := get(t, srv.Handler(), "/api/system/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	var status SystemStatusResponse
	require.NoError(t, json.Unmarshal(env.Data, &status))

	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, 12.5, status.CPUPercent)
	assert.Equal(t, 40.0, status.MemoryPercent)
	assert.Equal(t, 70.0, status.DiskPercent)
	require.NotNil(t, status.Database)
	assert.Positive(t, status.Database.PageCount)
	assert.Equal(t, []string{"score_predictions", "train_models"}, status.Jobs)
}

func TestTriggerJob(t *testing.T) {
	srv, jobs := newSeededServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/jobs/train_models", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusAccepted, rec.Code)

	select {
	case name := <-jobs.ran:
		assert.Equal(t, "train_models", name)
	case <-time.After(2 * time.Second):
		t.Fatal("job was not started")
	}

	req = httptest.NewRequest(http.MethodPost, "/api/jobs/unknown", nil)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newSeededServer(t)

	rec := get(t, srv.Handler(), "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
