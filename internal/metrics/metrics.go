// Package metrics records pipeline metrics in a dedicated Prometheus registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder holds the ratecast collectors.
type Recorder struct {
	registry     *prometheus.Registry
	fitsTotal    *prometheus.CounterVec
	fitDuration  *prometheus.HistogramVec
	runsTotal    *prometheus.CounterVec
	runDuration  *prometheus.HistogramVec
	selectedMAPE *prometheus.GaugeVec
	predictions  prometheus.Gauge
	lastSuccess  *prometheus.GaugeVec
}

// New creates a recorder backed by a fresh registry with the Go and process collectors.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		fitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ratecast_model_fits_total",
				Help: "Total number of ARIMA fits by order and outcome",
			},
			[]string{"order", "outcome"},
		),
		fitDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ratecast_model_fit_duration_seconds",
				Help:    "Duration of ARIMA fit and forecast in seconds",
				Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
			},
			[]string{"order"},
		),
		runsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ratecast_pipeline_runs_total",
				Help: "Total number of pipeline stage runs by outcome",
			},
			[]string{"stage", "outcome"},
		),
		runDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ratecast_pipeline_run_duration_seconds",
				Help:    "Duration of pipeline stage runs in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		selectedMAPE: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ratecast_selected_mape_ratio",
				Help: "Backtest MAPE of the selected model per currency, as a ratio",
			},
			[]string{"currency"},
		),
		predictions: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "ratecast_predictions_stored",
				Help: "Number of rows in the latest prediction batch",
			},
		),
		lastSuccess: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ratecast_pipeline_last_success_timestamp_seconds",
				Help: "Unix time of the last successful run per stage",
			},
			[]string{"stage"},
		),
	}
}

// RecordFit records one forecaster call.
func (r *Recorder) RecordFit(order string, ok bool, seconds float64) {
	r.fitsTotal.WithLabelValues(order, outcome(ok)).Inc()
	r.fitDuration.WithLabelValues(order).Observe(seconds)
}

// RecordRun records one pipeline stage run.
func (r *Recorder) RecordRun(stage string, ok bool, seconds float64, finishedAt float64) {
	r.runsTotal.WithLabelValues(stage, outcome(ok)).Inc()
	r.runDuration.WithLabelValues(stage).Observe(seconds)
	if ok {
		r.lastSuccess.WithLabelValues(stage).Set(finishedAt)
	}
}

// RecordSelectedMAPE records the winning backtest error of a currency.
func (r *Recorder) RecordSelectedMAPE(currency string, mape float64) {
	r.selectedMAPE.WithLabelValues(currency).Set(mape)
}

// RecordPredictions records the size of the latest batch.
func (r *Recorder) RecordPredictions(n int) {
	r.predictions.Set(float64(n))
}

// Registry exposes the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "error"
}
