package app

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/thingpark-broker/internal/config"
	"github.com/taoyao-code/thingpark-broker/internal/forward"
	"github.com/taoyao-code/thingpark-broker/internal/httpserver"
	"github.com/taoyao-code/thingpark-broker/internal/metrics"
)

// NewHTTPServer 根据配置创建 HTTP 服务器
func NewHTTPServer(cfg cfgpkg.HTTPConfig, metricsPath string, metricsHandler http.Handler, readyFn func() bool, log *zap.Logger) *httpserver.Server {
	return httpserver.New(cfg, metricsPath, metricsHandler, readyFn, log.Named("http"))
}

// NewForwarder 创建 NGSI 转发器，HTTP 超时取 ingest.forwardTimeout
func NewForwarder(timeout time.Duration, appm *metrics.AppMetrics, log *zap.Logger) *forward.Forwarder {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return forward.New(&http.Client{Timeout: timeout}, log.Named("forward"), appm)
}
