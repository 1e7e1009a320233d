// Package metrics Prometheus 指标，统一使用 broker_ 前缀。
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace 指标名前缀
const Namespace = "broker"

// NewRegistry 创建自定义 Registry，并注册 Go 运行时与进程采集器
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler 返回 Prometheus 指标 HTTP 处理器
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg, EnableOpenMetrics: true})
}

// AppMetrics 业务指标
type AppMetrics struct {
	DecodeTotal          *prometheus.CounterVec // labels: decoder, result=ok|error
	UplinkTotal          *prometheus.CounterVec // labels: result=ok|duplicate|unknown_device|unknown_decoder|decode_error
	UplinkDuplicateTotal prometheus.Counter
	ForwardTotal         *prometheus.CounterVec // labels: result=success|failed
	ForwardDuration      prometheus.Histogram

	reg prometheus.Registerer
}

// NewAppMetrics 注册并返回业务指标；reg 为 nil 时只创建不注册（测试用）
func NewAppMetrics(reg prometheus.Registerer) *AppMetrics {
	m := &AppMetrics{
		DecodeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "decode_total",
			Help:      "Payload decode attempts by decoder.",
		}, []string{"decoder", "result"}),
		UplinkTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "uplink_total",
			Help:      "Uplinks handled by outcome.",
		}, []string{"result"}),
		UplinkDuplicateTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "uplink_duplicate_total",
			Help:      "Uplinks dropped as duplicates.",
		}),
		ForwardTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "forward_total",
			Help:      "Observation forwards by result.",
		}, []string{"result"}),
		ForwardDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "forward_duration_seconds",
			Help:      "Duration of observation POSTs in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2.5, 9),
		}),
		reg: reg,
	}
	if reg != nil {
		reg.MustRegister(m.DecodeTotal, m.UplinkTotal, m.UplinkDuplicateTotal, m.ForwardTotal, m.ForwardDuration)
	}
	return m
}

// RegisterRateLimitRejected 以 CounterFunc 暴露限流器的拒绝计数
func (m *AppMetrics) RegisterRateLimitRejected(rejected func() int64) {
	if m == nil || m.reg == nil || rejected == nil {
		return
	}
	m.reg.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "api_rate_limited_total",
		Help:      "API requests rejected by the rate limiter.",
	}, func() float64 { return float64(rejected()) }))
}
