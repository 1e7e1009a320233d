package health

import (
	"context"
	"time"
)

// Lister 返回已登记项名称（解码器）
type Lister interface {
	Names() []string
}

// Counter 返回已登记项数量（设备登记表）
type Counter interface {
	Len() int
}

// DecoderChecker 没有任何解码器时服务无法工作
type DecoderChecker struct {
	decoders Lister
}

func NewDecoderChecker(decoders Lister) *DecoderChecker {
	return &DecoderChecker{decoders: decoders}
}

func (c *DecoderChecker) Name() string { return "decoders" }

func (c *DecoderChecker) Check(_ context.Context) CheckResult {
	start := time.Now()
	names := c.decoders.Names()
	if len(names) == 0 {
		return CheckResult{Status: StatusUnhealthy, Message: "no decoder registered", Latency: time.Since(start)}
	}
	return CheckResult{
		Status:  StatusHealthy,
		Message: "ok",
		Details: map[string]any{"decoders": names},
		Latency: time.Since(start),
	}
}

// DataloggerChecker 文件登记表为空时降级：所有上行都会因设备未登记被拒绝
type DataloggerChecker struct {
	store Counter
}

func NewDataloggerChecker(store Counter) *DataloggerChecker {
	return &DataloggerChecker{store: store}
}

func (c *DataloggerChecker) Name() string { return "dataloggers" }

func (c *DataloggerChecker) Check(_ context.Context) CheckResult {
	start := time.Now()
	n := c.store.Len()
	status, msg := StatusHealthy, "ok"
	if n == 0 {
		status, msg = StatusDegraded, "datalogger registry is empty"
	}
	return CheckResult{
		Status:  status,
		Message: msg,
		Details: map[string]any{"count": n},
		Latency: time.Since(start),
	}
}
