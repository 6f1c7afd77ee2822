package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for the authentication counters.
const (
	OutcomeSuccess       = "success"
	OutcomeFailure       = "failure"
	OutcomeRejected      = "rejected"
	OutcomeError         = "error"
	OutcomeIssued        = "issued"
	OutcomeStale         = "stale"
	OutcomeInvalid       = "invalid"
	OutcomeAuthenticated = "authenticated"
	OutcomeUnknownUser   = "unknown_user"
)

// Recorder receives authentication and HTTP measurements.
type Recorder interface {
	LoginAttempt(outcome string)
	RefreshAttempt(outcome string)
	AccessResolution(outcome string)
	ObserveHTTP(method, path string, status int, duration time.Duration)
}

type PrometheusRecorder struct {
	registry *prometheus.Registry

	loginAttempts   *prometheus.CounterVec
	refreshAttempts *prometheus.CounterVec
	accessTokens    *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// NewPrometheusRecorder registers the collectors on a fresh registry, so several
// recorders can live in one process (tests build one per server).
func NewPrometheusRecorder() (*PrometheusRecorder, error) {
	r := &PrometheusRecorder{
		registry: prometheus.NewRegistry(),
		loginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_login_attempts_total",
			Help: "Login attempts by outcome.",
		}, []string{"outcome"}),
		refreshAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_refresh_attempts_total",
			Help: "Refresh token presentations by outcome.",
		}, []string{"outcome"}),
		accessTokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_access_token_resolutions_total",
			Help: "Access token presentations by outcome.",
		}, []string{"outcome"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}

	registered := []prometheus.Collector{
		r.loginAttempts,
		r.refreshAttempts,
		r.accessTokens,
		r.httpRequests,
		r.httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}
	for _, c := range registered {
		if err := r.registry.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				continue
			}
			return nil, err
		}
	}
	return r, nil
}

func (r *PrometheusRecorder) LoginAttempt(outcome string) {
	r.loginAttempts.WithLabelValues(outcome).Inc()
}

func (r *PrometheusRecorder) RefreshAttempt(outcome string) {
	r.refreshAttempts.WithLabelValues(outcome).Inc()
}

func (r *PrometheusRecorder) AccessResolution(outcome string) {
	r.accessTokens.WithLabelValues(outcome).Inc()
}

func (r *PrometheusRecorder) ObserveHTTP(method, path string, status int, duration time.Duration) {
	r.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	r.httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (r *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *PrometheusRecorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

type noopRecorder struct{}

// NewNoop returns a Recorder that drops every measurement.
func NewNoop() Recorder {
	return noopRecorder{}
}

func (noopRecorder) LoginAttempt(string)                             {}
func (noopRecorder) RefreshAttempt(string)                           {}
func (noopRecorder) AccessResolution(string)                         {}
func (noopRecorder) ObserveHTTP(string, string, int, time.Duration) {}
