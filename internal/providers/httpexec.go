// Package providers contains the vendor adapters behind the
// provider.DNSProvider contract, the shared HTTP executor they send through,
// the per-vendor error mapping tables, and the registry of live instances.
//
// Only the transport pipeline (send, log, read, count) is shared. Each
// vendor's canonical-request and signature math stays in its own file: the
// algorithms are mutually incompatible and a shared signing abstraction would
// buy nothing but complexity.
package providers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/systmms/dnsops/internal/logging"
	"github.com/systmms/dnsops/internal/metrics"
	"github.com/systmms/dnsops/pkg/provider"
)

// Executor is the shared send/log/parse pipeline used by every vendor
// adapter. It never retries and never inspects status codes: status-driven
// fault classification is vendor-specific and happens in each adapter's error
// mapping.
type Executor struct {
	client  *http.Client
	logger  *logging.Logger
	metrics *metrics.Metrics
}

// NewExecutor builds an executor. logger and m may be nil.
func NewExecutor(logger *logging.Logger, m *metrics.Metrics) *Executor {
	return &Executor{
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
		metrics: m,
	}
}

// NewExecutorWithClient is used by tests to inject an httptest client.
func NewExecutorWithClient(client *http.Client, logger *logging.Logger, m *metrics.Metrics) *Executor {
	return &Executor{client: client, logger: logger, metrics: m}
}

// Do sends a fully prepared request (method, URL, headers and body already
// attached) and returns the status code and body text. providerName and label
// only feed logging and metrics. Failure to send or to read the body is a
// network fault.
func (e *Executor) Do(req *http.Request, providerName, label string) (int, string, error) {
	e.debugf("[%s] %s %s", providerName, req.Method, label)

	resp, err := e.client.Do(req)
	if err != nil {
		e.metrics.IncVendorRequest(providerName, label, false)
		return 0, "", provider.NewNetworkError(providerName, err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		e.metrics.IncVendorRequest(providerName, label, false)
		return 0, "", provider.NewNetworkError(providerName, "read response: "+err.Error())
	}

	e.debugf("[%s] %s status %d", providerName, label, resp.StatusCode)
	e.metrics.IncVendorRequest(providerName, label, true)
	return resp.StatusCode, string(body), nil
}

func (e *Executor) debugf(format string, args ...any) {
	if e.logger != nil {
		e.logger.Debug(format, args...)
	}
}

// decodeJSON deserializes a response body, surfacing failures as parse faults
// tagged with the vendor and carrying the raw text for diagnosis.
func decodeJSON(body, providerName string, out any) error {
	if err := json.Unmarshal([]byte(body), out); err != nil {
		return provider.NewParseError(providerName, err.Error(), body)
	}
	return nil
}
