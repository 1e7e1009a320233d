// Package forward 将解码后的观测记录以 JSON POST 到 NGSI 上下文代理（如 Orion）。
package forward

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/taoyao-code/thingpark-broker/internal/metrics"
)

// Config 单个转发目标（每次调用传值，不共享可变状态）
type Config struct {
	URL string `json:"url" yaml:"url"`
}

// Forwarder 观测记录转发器。不重试：重试策略由调用方决定。
type Forwarder struct {
	client  *http.Client
	logger  *zap.Logger
	metrics *metrics.AppMetrics
}

// New 创建转发器；client 为 nil 时使用 5s 超时的默认客户端
func New(client *http.Client, logger *zap.Logger, m *metrics.AppMetrics) *Forwarder {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Forwarder{client: client, logger: logger, metrics: m}
}

// Forward POST 观测记录，2xx 返回 true，其余（含网络错误）记录日志并返回 false
func (f *Forwarder) Forward(ctx context.Context, cfg Config, obs Observation) bool {
	start := time.Now()
	ok := f.post(ctx, cfg, obs)
	if f.metrics != nil {
		f.metrics.ForwardDuration.Observe(time.Since(start).Seconds())
		result := "success"
		if !ok {
			result = "failed"
		}
		f.metrics.ForwardTotal.WithLabelValues(result).Inc()
	}
	return ok
}

func (f *Forwarder) post(ctx context.Context, cfg Config, obs Observation) bool {
	body, err := json.Marshal(obs)
	if err != nil {
		f.logger.Error("marshal observation failed", zap.String("id", obs.ID), zap.Error(err))
		return false
	}
	f.logger.Debug("forward observation", zap.String("url", cfg.URL), zap.ByteString("body", body))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.URL, bytes.NewReader(body))
	if err != nil {
		f.logger.Warn("build forward request failed", zap.String("url", cfg.URL), zap.Error(err))
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Warn("POST request failed", zap.String("url", cfg.URL), zap.Error(err))
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		f.logger.Info("POST request returned success code",
			zap.String("url", cfg.URL), zap.Int("status", resp.StatusCode))
		return true
	}
	f.logger.Warn("POST request returned error code",
		zap.String("url", cfg.URL), zap.Int("status", resp.StatusCode))
	return false
}
