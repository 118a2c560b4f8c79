// Package metrics registers the Prometheus collectors exposed on the
// debug metrics endpoint named in SPEC_FULL.md's supplemented-features
// section. Grounded in caddy's own metrics.go (promauto registration
// pattern) and internal/metrics/metrics.go (method/status sanitization to
// bound label cardinality).
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "chimney"

// Collectors holds every metric Chimney tracks. Construct once at startup
// with NewCollectors and share across request handlers and the ACME task.
type Collectors struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	CertsIssued     *prometheus.CounterVec
	CertsFailed     *prometheus.CounterVec
}

// NewCollectors registers and returns a fresh Collectors set against reg.
// The serve command passes its own prometheus.NewRegistry(), the same
// registry it exposes at /debug/metrics; tests should likewise pass a fresh
// registry to avoid duplicate-registration panics across test cases.
func NewCollectors(reg prometheus.Registerer) *Collectors {
	factory := promauto.With(reg)
	return &Collectors{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Counter of requests served, by site, method, and status code.",
		}, []string{"site", "method", "code"}),

		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Histogram of request handling latency, by site.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"site"}),

		CertsIssued: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "acme",
			Name:      "certificates_issued_total",
			Help:      "Counter of successful ACME certificate issuances, by domain.",
		}, []string{"domain"}),

		CertsFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "acme",
			Name:      "certificate_issuance_failures_total",
			Help:      "Counter of failed ACME certificate issuance attempts, by domain.",
		}, []string{"domain"}),
	}
}

// SanitizeCode maps a status code to its metric label, collapsing the
// "handler didn't call WriteHeader" zero-value case to 200 as net/http
// itself does.
func SanitizeCode(code int) string {
	if code == 0 {
		code = http.StatusOK
	}
	return strconv.Itoa(code)
}

// SanitizeMethod restricts the method label to the standard HTTP method
// set, bounding label cardinality against junk or malicious input.
func SanitizeMethod(method string) string {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPut, http.MethodPost,
		http.MethodDelete, http.MethodConnect, http.MethodOptions,
		http.MethodTrace, http.MethodPatch:
		return method
	default:
		return "OTHER"
	}
}
