// Package ingest 上行处理流程：设备查询 → 解码 → 去重 → 落库 → 转发
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/taoyao-code/thingpark-broker/internal/datalogger"
	"github.com/taoyao-code/thingpark-broker/internal/decoder"
	"github.com/taoyao-code/thingpark-broker/internal/forward"
	"github.com/taoyao-code/thingpark-broker/internal/metrics"
	pgstorage "github.com/taoyao-code/thingpark-broker/internal/storage/pg"
)

var (
	ErrUnknownDecoder = errors.New("unknown decoder")
	ErrDecode         = errors.New("decode failed")
)

// Uplink 一条设备上行
type Uplink struct {
	DevEUI     string
	FPort      int
	FCnt       int64
	Time       time.Time
	PayloadHex string
}

// Deduper 上行去重
type Deduper interface {
	Seen(ctx context.Context, devEUI string, fcnt int64, payloadHex string) (bool, error)
}

// UplinkStore 上行记录持久化
type UplinkStore interface {
	InsertUplink(ctx context.Context, u *pgstorage.Uplink) error
}

// Forwarder 观测记录转发
type Forwarder interface {
	Forward(ctx context.Context, cfg forward.Config, obs forward.Observation) bool
}

// ForwardResult 单个转发目标的结果
type ForwardResult struct {
	URL string `json:"url"`
	OK  bool   `json:"ok"`
}

// Outcome 处理结果
type Outcome struct {
	Duplicate bool            `json:"duplicate"`
	Decoder   string          `json:"decoder,omitempty"`
	Result    any             `json:"result,omitempty"`
	Data      map[string]any  `json:"data,omitempty"`
	Forwards  []ForwardResult `json:"forwards,omitempty"`
}

// Options 服务参数
type Options struct {
	DefaultDecoder string
	DefaultForward forward.Config
	EntityType     string
	ForwardTimeout time.Duration
}

// Service 上行处理服务。Dedup 与 Store 可为 nil（未启用 Redis / 数据库）。
type Service struct {
	Decoders    *decoder.Registry
	Dataloggers datalogger.Store
	Dedup       Deduper
	Store       UplinkStore
	Forwarder   Forwarder
	Metrics     *metrics.AppMetrics
	Logger      *zap.Logger
	Opts        Options
}

// Handle 处理一条上行。转发失败只体现在 Outcome.Forwards 中，不作为错误返回。
func (s *Service) Handle(ctx context.Context, up Uplink) (*Outcome, error) {
	log := s.logger().With(zap.String("dev_eui", up.DevEUI), zap.Int64("fcnt", up.FCnt))

	dl, err := s.Dataloggers.Get(ctx, up.DevEUI)
	if err != nil {
		s.countUplink("unknown_device")
		return nil, fmt.Errorf("lookup datalogger %s: %w", up.DevEUI, err)
	}

	name := dl.Decoder
	if name == "" {
		name = s.Opts.DefaultDecoder
	}
	dec, ok := s.Decoders.Lookup(name)
	if !ok {
		s.countUplink("unknown_decoder")
		return nil, fmt.Errorf("%w: %q", ErrUnknownDecoder, name)
	}

	out, err := dec.DecodePayload(up.PayloadHex)
	s.countDecode(name, err)
	if err != nil {
		log.Warn("decode payload failed", zap.String("decoder", name), zap.String("payload", up.PayloadHex), zap.Error(err))
		s.persist(ctx, log, up, name, nil, err)
		s.countUplink("decode_error")
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, name, err)
	}

	// 仅在解码成功后登记去重键，失败的帧重投时会重新处理
	if s.isDuplicate(ctx, log, up) {
		s.countUplink("duplicate")
		if s.Metrics != nil {
			s.Metrics.UplinkDuplicateTotal.Inc()
		}
		return &Outcome{Duplicate: true}, nil
	}
	s.persist(ctx, log, up, name, out.Detail, nil)

	observedAt := up.Time
	if observedAt.IsZero() {
		observedAt = time.Now()
	}
	obs := forward.BuildObservation(s.Opts.EntityType, dl.Meta(), observedAt, out.Fields)

	targets := dl.Forwards
	if len(targets) == 0 && s.Opts.DefaultForward.URL != "" {
		targets = []forward.Config{s.Opts.DefaultForward}
	}
	outcome := &Outcome{Decoder: name, Result: out.Detail, Data: out.Fields}
	for _, t := range targets {
		outcome.Forwards = append(outcome.Forwards, ForwardResult{URL: t.URL, OK: s.forward(ctx, t, obs)})
	}
	s.countUplink("ok")
	log.Info("uplink handled", zap.String("decoder", name), zap.Int("forwards", len(outcome.Forwards)))
	return outcome, nil
}

// isDuplicate 去重不可用时按未重复处理
func (s *Service) isDuplicate(ctx context.Context, log *zap.Logger, up Uplink) bool {
	if s.Dedup == nil {
		return false
	}
	dup, err := s.Dedup.Seen(ctx, up.DevEUI, up.FCnt, up.PayloadHex)
	if err != nil {
		log.Warn("dedup unavailable", zap.Error(err))
		return false
	}
	return dup
}

func (s *Service) forward(ctx context.Context, cfg forward.Config, obs forward.Observation) bool {
	if s.Forwarder == nil {
		return false
	}
	if s.Opts.ForwardTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Opts.ForwardTimeout)
		defer cancel()
	}
	return s.Forwarder.Forward(ctx, cfg, obs)
}

// persist 记录上行；失败只记日志
func (s *Service) persist(ctx context.Context, log *zap.Logger, up Uplink, decoderName string, detail any, decodeErr error) {
	if s.Store == nil {
		return
	}
	rec := &pgstorage.Uplink{
		DevEUI:     up.DevEUI,
		FPort:      up.FPort,
		FCnt:       up.FCnt,
		PayloadHex: up.PayloadHex,
		Decoder:    decoderName,
		ReceivedAt: up.Time,
	}
	if decodeErr != nil {
		rec.DecodeError = decodeErr.Error()
	} else if detail != nil {
		b, err := json.Marshal(detail)
		if err != nil {
			log.Error("marshal decoded result failed", zap.Error(err))
		} else {
			rec.Decoded = b
		}
	}
	if err := s.Store.InsertUplink(ctx, rec); err != nil {
		log.Error("store uplink failed", zap.Error(err))
	}
}

func (s *Service) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func (s *Service) countUplink(result string) {
	if s.Metrics != nil {
		s.Metrics.UplinkTotal.WithLabelValues(result).Inc()
	}
}

func (s *Service) countDecode(name string, err error) {
	if s.Metrics == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	s.Metrics.DecodeTotal.WithLabelValues(name, result).Inc()
}
