package metrics

import (
	"errors"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// PipelineMetrics tracks export and mail pipeline health for the /metrics endpoint.
type PipelineMetrics struct {
	exports        *prometheus.CounterVec
	exportDuration *prometheus.HistogramVec
	mailAttempts   *prometheus.CounterVec
}

// NewPipelineMetrics registers the pipeline collectors on registerer.
// Collectors already registered by an earlier call are reused.
func NewPipelineMetrics(registerer prometheus.Registerer, cfg Config) (*PipelineMetrics, error) {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "invoicekit"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	exports := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "invoicekit_pdf_exports_total",
		Help:        "PDF exports by document kind and outcome.",
		ConstLabels: constLabels,
	}, []string{"kind", "outcome"})
	exportDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "invoicekit_pdf_export_duration_seconds",
		Help:        "Time spent rasterizing and assembling a PDF.",
		Buckets:     []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		ConstLabels: constLabels,
	}, []string{"kind"})
	mailAttempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "invoicekit_mail_attempts_total",
		Help:        "Mail delivery attempts by strategy and outcome.",
		ConstLabels: constLabels,
	}, []string{"strategy", "outcome"})

	var err error
	if exports, err = register(registerer, exports); err != nil {
		return nil, err
	}
	if exportDuration, err = register(registerer, exportDuration); err != nil {
		return nil, err
	}
	if mailAttempts, err = register(registerer, mailAttempts); err != nil {
		return nil, err
	}

	return &PipelineMetrics{
		exports:        exports,
		exportDuration: exportDuration,
		mailAttempts:   mailAttempts,
	}, nil
}

func register[C prometheus.Collector](registerer prometheus.Registerer, c C) (C, error) {
	if err := registerer.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// ObserveExport records one finished export.
func (m *PipelineMetrics) ObserveExport(kind string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	kind = strings.TrimSpace(kind)
	m.exports.WithLabelValues(kind, outcome(err)).Inc()
	m.exportDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// ObserveMailAttempt records one try of a delivery strategy.
func (m *PipelineMetrics) ObserveMailAttempt(strategy string, err error) {
	if m == nil {
		return
	}
	m.mailAttempts.WithLabelValues(strings.TrimSpace(strategy), outcome(err)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}
