package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVendorRequestCounter(t *testing.T) {
	t.Parallel()

	m := New()
	m.IncVendorRequest("cloudflare", "ListDomains", true)
	m.IncVendorRequest("cloudflare", "ListDomains", true)
	m.IncVendorRequest("aliyun", "AddDomainRecord", false)
	m.IncVendorRequest("", "ListDomains", true) // dropped

	families, err := m.Gatherer().Gather()
	require.NoError(t, err)

	var total float64
	for _, f := range families {
		if f.GetName() != "dnsops_vendor_requests_total" {
			continue
		}
		for _, metric := range f.GetMetric() {
			total += metric.GetCounter().GetValue()
		}
	}
	assert.Equal(t, float64(3), total)
}

func TestNilMetricsSafe(t *testing.T) {
	t.Parallel()

	var m *Metrics
	m.IncVendorRequest("cloudflare", "ListDomains", true)
	m.IncAccountOp("create", true)
}
