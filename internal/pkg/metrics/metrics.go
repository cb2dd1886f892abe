// Package metrics holds the Prometheus collectors for classification,
// verification and kubectl execution.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/doeshing/kubeask/internal/domain"
	"github.com/doeshing/kubeask/internal/ports"
)

// Recorder owns a private registry so tests and multiple containers never collide.
type Recorder struct {
	registry *prometheus.Registry

	Classifications   *prometheus.CounterVec
	Verifications     *prometheus.CounterVec
	CommandExecutions *prometheus.CounterVec
	CommandDuration   prometheus.Histogram
	LLMRequests       *prometheus.CounterVec
	LLMDuration       *prometheus.HistogramVec
}

// New registers every collector on a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		Classifications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kubeask_classifications_total",
				Help: "Questions classified, by pipeline path and resulting type",
			},
			[]string{"method", "question_type"},
		),
		Verifications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kubeask_verifications_total",
				Help: "Proposed commands verified, by outcome",
			},
			[]string{"outcome"},
		),
		CommandExecutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kubeask_command_executions_total",
				Help: "kubectl invocations, by status",
			},
			[]string{"status"},
		),
		CommandDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "kubeask_command_duration_seconds",
				Help:    "kubectl invocation duration in seconds",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
			},
		),
		LLMRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kubeask_llm_requests_total",
				Help: "LLM completions, by provider, purpose and status",
			},
			[]string{"provider", "purpose", "status"},
		),
		LLMDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kubeask_llm_request_duration_seconds",
				Help:    "LLM completion duration in seconds",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~1min
			},
			[]string{"provider"},
		),
	}
}

// Registry exposes the private registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *Recorder) ObserveClassification(result domain.ClassificationResult) {
	r.Classifications.WithLabelValues(string(result.ClassificationMethod), string(result.QuestionType)).Inc()
}

func (r *Recorder) ObserveVerification(outcome domain.VerificationOutcome) {
	label := "rejected"
	if outcome.Accepted {
		label = "accepted"
	}
	r.Verifications.WithLabelValues(label).Inc()
}

func (r *Recorder) ObserveExecution(result domain.ExecutionResult) {
	status := "success"
	switch {
	case !result.KubectlAvailable:
		status = "kubectl_missing"
	case result.ReturnCode == -1:
		status = "timeout"
	case !result.Success:
		status = "failure"
	}
	r.CommandExecutions.WithLabelValues(status).Inc()
	r.CommandDuration.Observe(time.Duration(result.DurationMS * int64(time.Millisecond)).Seconds())
}

// ObserveLLM records one provider round trip.
func (r *Recorder) ObserveLLM(provider, purpose string, err error, elapsed time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
	}
	r.LLMRequests.WithLabelValues(provider, purpose, status).Inc()
	r.LLMDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
}

var _ ports.MetricsRecorder = (*Recorder)(nil)
