// Package metrics exposes Prometheus instrumentation for analysis runs.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Recorder records stage outcomes, model quality and emitted recommendations
type Recorder struct {
	stageRuns       *prometheus.CounterVec
	stageDuration   *prometheus.HistogramVec
	stageRows       *prometheus.GaugeVec
	modelAccuracy   *prometheus.GaugeVec
	recommendations *prometheus.CounterVec
	successRate     *prometheus.GaugeVec
}

// New registers the collectors with reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Recorder{
		stageRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "analyzer_stage_runs_total",
				Help: "Pipeline stage invocations by outcome",
			},
			[]string{"stage", "outcome"},
		),
		stageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "analyzer_stage_duration_seconds",
				Help:    "Duration of pipeline stages in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		stageRows: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "analyzer_stage_rows",
				Help: "Rows produced by the last successful run of a stage",
			},
			[]string{"stage"},
		),
		modelAccuracy: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "analyzer_model_accuracy",
				Help: "Held-out accuracy of the last trained model",
			},
			[]string{"model_type"},
		),
		recommendations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "analyzer_recommendations_total",
				Help: "Recommendations produced by action",
			},
			[]string{"contract", "action"},
		),
		successRate: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "analyzer_success_rate_percent",
				Help: "Success rate of the last recommendation per contract",
			},
			[]string{"contract"},
		),
	}
}

// ObserveStage records one stage invocation
func (r *Recorder) ObserveStage(stage string, success bool, took time.Duration, rows int) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	r.stageRuns.WithLabelValues(stage, outcome).Inc()
	r.stageDuration.WithLabelValues(stage).Observe(took.Seconds())
	if success {
		r.stageRows.WithLabelValues(stage).Set(float64(rows))
	}
}

// RecordAccuracy records held-out accuracy for a model type
func (r *Recorder) RecordAccuracy(modelType string, accuracy float64) {
	r.modelAccuracy.WithLabelValues(modelType).Set(accuracy)
}

// RecordRecommendation counts a recommendation and tracks its success rate
func (r *Recorder) RecordRecommendation(contract, action string, successRate float64) {
	r.recommendations.WithLabelValues(contract, action).Inc()
	r.successRate.WithLabelValues(contract).Set(successRate)
}

// Serve exposes /metrics on addr in the background. A failure to listen is logged.
func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	logger := log.With().Str("component", "metrics").Logger()
	go listen(srv, logger)
	return srv
}

// listen blocks until srv stops; a closed server is not an error
func listen(srv *http.Server, logger zerolog.Logger) error {
	err := srv.ListenAndServe()
	if err == nil || errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	logger.Error().Err(err).Str("addr", srv.Addr).Msg("Metrics server stopped")
	return err
}
