package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, h http.Handler) string {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestAppMetrics_Exposed(t *testing.T) {
	reg := NewRegistry()
	m := NewAppMetrics(reg)
	m.DecodeTotal.WithLabelValues("decentlab", "ok").Inc()
	m.ForwardTotal.WithLabelValues("success").Add(2)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.DecodeTotal.WithLabelValues("decentlab", "ok")))

	body := scrape(t, Handler(reg))
	assert.Contains(t, body, `broker_decode_total{decoder="decentlab",result="ok"} 1`)
	assert.Contains(t, body, `broker_forward_total{result="success"} 2`)
}

func TestRegisterRateLimitRejected(t *testing.T) {
	reg := NewRegistry()
	m := NewAppMetrics(reg)
	var n int64 = 3
	m.RegisterRateLimitRejected(func() int64 { return n })

	assert.Contains(t, scrape(t, Handler(reg)), "broker_api_rate_limited_total 3")

	// 未注册的指标集忽略
	NewAppMetrics(nil).RegisterRateLimitRejected(func() int64 { return 1 })
}
