// Package observability holds the Prometheus collectors shared by the CLI
// and the HTTP server.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Analysis kinds used as label values.
const (
	KindProfile    = "profile"
	KindDecision   = "decision"
	KindPrediction = "prediction_engine"
	KindTraining   = "training"
)

//nolint:gochecknoglobals // Prometheus metrics must be global for registration
var (
	// AnalysesTotal counts dataset analyses by kind and status.
	AnalysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rulescout_analyses_total",
			Help: "Total number of dataset analyses",
		},
		[]string{"kind", "status"}, // status: success, failed
	)

	// AnalysisDuration measures analysis time in seconds.
	AnalysisDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rulescout_analysis_duration_seconds",
			Help:    "Dataset analysis duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
		},
		[]string{"kind"},
	)

	// DatasetRows observes the row count of analysed datasets.
	DatasetRows = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rulescout_dataset_rows",
			Help:    "Rows per analysed dataset",
			Buckets: prometheus.ExponentialBuckets(10, 4, 8),
		},
	)

	// ModelsTrained counts training runs by model type.
	ModelsTrained = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rulescout_models_trained_total",
			Help: "Total number of trained models",
		},
		[]string{"model_type"}, // classification, regression, none
	)

	// PredictionsTotal counts single-record predictions.
	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rulescout_predictions_total",
			Help: "Total number of record predictions",
		},
		[]string{"status"}, // success, failed, no_model
	)

	// HTTPRequests counts HTTP requests by route, method and status code.
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rulescout_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "code"},
	)

	// HTTPDuration measures request latency.
	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rulescout_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	// ErrorsTotal counts errors by component.
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rulescout_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)
)

// RecordAnalysis records one analysis run.
func RecordAnalysis(kind string, rows int, err error, seconds float64) {
	status := "success"
	if err != nil {
		status = "failed"
	}
	AnalysesTotal.WithLabelValues(kind, status).Inc()
	AnalysisDuration.WithLabelValues(kind).Observe(seconds)
	if err == nil {
		DatasetRows.Observe(float64(rows))
	}
}

// RecordTraining records a training run; an empty model type means no
// target column was found.
func RecordTraining(modelType string) {
	if modelType == "" {
		modelType = "none"
	}
	ModelsTrained.WithLabelValues(modelType).Inc()
}

// RecordPrediction records a prediction outcome.
func RecordPrediction(status string) {
	PredictionsTotal.WithLabelValues(status).Inc()
}

// RecordHTTP records a served request.
func RecordHTTP(route, method, code string, seconds float64) {
	HTTPRequests.WithLabelValues(route, method, code).Inc()
	HTTPDuration.WithLabelValues(route, method).Observe(seconds)
}

// RecordError records an error.
func RecordError(component, errorType string) {
	ErrorsTotal.WithLabelValues(component, errorType).Inc()
}

// Handler exposes the default registry.
func Handler() http.Handler { return promhttp.Handler() }
