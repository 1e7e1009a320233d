package app

import (
	"net/http"

	"github.com/taoyao-code/thingpark-broker/internal/metrics"
)

// NewMetrics 初始化注册表与业务指标，返回指标处理器
func NewMetrics() (*metrics.AppMetrics, http.Handler) {
	reg := metrics.NewRegistry()
	return metrics.NewAppMetrics(reg), metrics.Handler(reg)
}
