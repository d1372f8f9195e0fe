package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts vendor API traffic and account lifecycle operations.
type Metrics struct {
	registry       *prometheus.Registry
	vendorRequests *prometheus.CounterVec
	accountOps     *prometheus.CounterVec
}

// New builds a Metrics instance with its own registry.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.vendorRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dnsops",
			Name:      "vendor_requests_total",
			Help:      "HTTP requests issued to DNS vendor APIs",
		},
		[]string{"provider", "operation", "status"},
	)

	m.accountOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dnsops",
			Name:      "account_operations_total",
			Help:      "Account lifecycle operations (create, delete, import, restore)",
		},
		[]string{"operation", "status"},
	)

	m.registry.MustRegister(m.vendorRequests, m.accountOps)
	return m
}

// IncVendorRequest records one outbound vendor API request.
func (m *Metrics) IncVendorRequest(provider, operation string, success bool) {
	if m == nil || provider == "" || operation == "" {
		return
	}
	m.vendorRequests.WithLabelValues(provider, operation, boolToResult(success)).Inc()
}

// IncAccountOp records one account lifecycle operation.
func (m *Metrics) IncAccountOp(operation string, success bool) {
	if m == nil || operation == "" {
		return
	}
	m.accountOps.WithLabelValues(operation, boolToResult(success)).Inc()
}

// Gatherer exposes the registry for scraping or test inspection.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

func boolToResult(b bool) string {
	if b {
		return "success"
	}
	return "error"
}
