package testing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aristath/ratecast/internal/domain"
)

// MockForecaster forecasts last + Step*(P+1) for every horizon step and records its calls.
// Configurations listed in Fail return an error instead.
type MockForecaster struct {
	mu    sync.Mutex
	Step  float64
	Fail  map[domain.ModelConfig]error
	Calls []domain.ModelConfig
}

// NewMockForecaster creates a mock forecaster with the given per-order step
func NewMockForecaster(step float64) *MockForecaster {
	return &MockForecaster{Step: step, Fail: make(map[domain.ModelConfig]error)}
}

// Forecast returns a flat forecast offset from the last observation
func (m *MockForecaster) Forecast(series []float64, horizon int, config domain.ModelConfig) ([]float64, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, config)
	err := m.Fail[config]
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("empty series")
	}
	out := make([]float64, horizon)
	last := series[len(series)-1]
	for i := range out {
		out[i] = last + m.Step*float64(config.P+1)
	}
	return out, nil
}

// MinObservations mirrors the ARIMA requirement
func (m *MockForecaster) MinObservations(config domain.ModelConfig) int {
	return config.D + 2*config.P + config.Q + 2
}

// CallCount returns the number of Forecast calls
func (m *MockForecaster) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// MockParamsStore is an in-memory ParamsStore
type MockParamsStore struct {
	mu     sync.RWMutex
	params map[domain.Currency]domain.SelectedParams
	err    error
}

// NewMockParamsStore creates a store preloaded with params
func NewMockParamsStore(params map[domain.Currency]domain.SelectedParams) *MockParamsStore {
	copied := make(map[domain.Currency]domain.SelectedParams, len(params))
	for c, p := range params {
		copied[c] = p
	}
	return &MockParamsStore{params: copied}
}

// SetError sets the error to return
func (m *MockParamsStore) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// LoadParams returns a copy of the stored params
func (m *MockParamsStore) LoadParams(ctx context.Context) (map[domain.Currency]domain.SelectedParams, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make(map[domain.Currency]domain.SelectedParams, len(m.params))
	for c, p := range m.params {
		out[c] = p
	}
	return out, nil
}

// SaveParams upserts params by currency
func (m *MockParamsStore) SaveParams(ctx context.Context, params []domain.SelectedParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for _, p := range params {
		m.params[p.Currency] = p
	}
	return nil
}

// MockPredictionStore records the last saved batch
type MockPredictionStore struct {
	mu      sync.RWMutex
	Batches [][]domain.PredictionRow
	err     error
}

// NewMockPredictionStore creates an empty prediction store
func NewMockPredictionStore() *MockPredictionStore {
	return &MockPredictionStore{}
}

// SetError sets the error to return
func (m *MockPredictionStore) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// SavePredictions records the batch
func (m *MockPredictionStore) SavePredictions(ctx context.Context, rows []domain.PredictionRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.Batches = append(m.Batches, append([]domain.PredictionRow(nil), rows...))
	return nil
}

// Last returns the most recently saved batch
func (m *MockPredictionStore) Last() []domain.PredictionRow {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.Batches) == 0 {
		return nil
	}
	return m.Batches[len(m.Batches)-1]
}

// MockRateSource serves a fixed history filtered to the requested window
type MockRateSource struct {
	mu      sync.Mutex
	history []domain.DailyRates
	err     error
	Windows [][2]time.Time
}

// NewMockRateSource creates a rate source over history
func NewMockRateSource(history []domain.DailyRates) *MockRateSource {
	return &MockRateSource{history: history}
}

// SetError sets the error to return
func (m *MockRateSource) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// FetchRates returns the days within [start, end]
func (m *MockRateSource) FetchRates(ctx context.Context, start, end time.Time) ([]domain.DailyRates, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Windows = append(m.Windows, [2]time.Time{start, end})
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.DailyRates
	for _, d := range m.history {
		if d.Date.Before(start) || d.Date.After(end) {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}
