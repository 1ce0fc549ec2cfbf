package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestMetrics creates metrics on a private registry so tests do not
// collide on the default one.
func createTestMetrics(t *testing.T) *Metrics {
	t.Helper()
	return NewWithRegisterer("test", prometheus.NewRegistry())
}

func TestNewWithRegisterer(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegisterer("", reg)

	require.NotNil(t, m)
	m.RecordPoll("ok")

	families, err := reg.Gather()
	require.NoError(t, err)

	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "estateflow_checkout_polls_total")
}

func TestMetrics_RecordHTTPRequest(t *testing.T) {
	m := createTestMetrics(t)

	t.Run("records successful request", func(t *testing.T) {
		m.RecordHTTPRequest("GET", "/payment/:payment_intent_id/status", 200, 100*time.Millisecond)
		count := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/payment/:payment_intent_id/status", "2xx"))
		assert.Equal(t, float64(1), count)
	})

	t.Run("records client error", func(t *testing.T) {
		m.RecordHTTPRequest("POST", "/transaction/cancel", 422, 50*time.Millisecond)
		count := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("POST", "/transaction/cancel", "4xx"))
		assert.Equal(t, float64(1), count)
	})

	t.Run("records server error", func(t *testing.T) {
		m.RecordHTTPRequest("POST", "/payment/create-intent", 502, 200*time.Millisecond)
		count := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("POST", "/payment/create-intent", "5xx"))
		assert.Equal(t, float64(1), count)
	})
}

func TestMetrics_Checkout(t *testing.T) {
	m := createTestMetrics(t)

	m.RecordPoll("ok")
	m.RecordPoll("ok")
	m.RecordPoll("error")
	m.RecordCheckoutOutcome("succeeded", 6*time.Second)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.PaymentPollsTotal.WithLabelValues("ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.PaymentPollsTotal.WithLabelValues("error")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CheckoutOutcomesTotal.WithLabelValues("succeeded")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.CheckoutDuration))
}

func TestMetrics_CancellationAndWebhook(t *testing.T) {
	m := createTestMetrics(t)

	m.RecordCancellationTransition("pending")
	m.RecordCancellationTransition("confirmed")
	m.RecordWebhookEvent("payment_intent.succeeded", "processed")
	m.RecordWebhookEvent("payment_intent.succeeded", "duplicate")

	assert.Equal(t, float64(1), testutil.ToFloat64(m.CancellationTransitionsTotal.WithLabelValues("confirmed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.WebhookEventsTotal.WithLabelValues("payment_intent.succeeded", "duplicate")))
}

func TestMetrics_RecordGatewayRequest(t *testing.T) {
	m := createTestMetrics(t)

	m.RecordGatewayRequest("fetch_payment_status", "ok", 20*time.Millisecond)
	m.RecordGatewayRequest("fetch_payment_status", "network_error", 2*time.Second)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.GatewayRequestsTotal.WithLabelValues("fetch_payment_status", "network_error")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.GatewayRequestDuration))
}

func TestMetrics_RecordDBQuery(t *testing.T) {
	m := createTestMetrics(t)

	m.RecordDBQuery("cancellation_find", 5*time.Millisecond)
	assert.Equal(t, 1, testutil.CollectAndCount(m.DBQueryDuration))
}

func TestMetrics_RecordCache(t *testing.T) {
	m := createTestMetrics(t)

	t.Run("records cache hit", func(t *testing.T) {
		m.RecordCacheHit("payment_status")
		count := testutil.ToFloat64(m.CacheHitsTotal.WithLabelValues("payment_status"))
		assert.Equal(t, float64(1), count)
	})

	t.Run("records cache miss", func(t *testing.T) {
		m.RecordCacheMiss("payment_status")
		count := testutil.ToFloat64(m.CacheMissesTotal.WithLabelValues("payment_status"))
		assert.Equal(t, float64(1), count)
	})
}

func TestStatusCodeToString(t *testing.T) {
	tests := []struct {
		code     int
		expected string
	}{
		{200, "2xx"},
		{201, "2xx"},
		{301, "3xx"},
		{404, "4xx"},
		{422, "4xx"},
		{500, "5xx"},
		{503, "5xx"},
		{100, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, statusCodeToString(tt.code))
		})
	}
}
