// Package logging zap 日志初始化：stdout + lumberjack 滚动文件。
package logging

import (
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	cfgpkg "github.com/taoyao-code/thingpark-broker/internal/config"
)

// 非 debug 级别下同一条消息每秒前 100 条照常输出，之后每 10 条取 1 条
const (
	sampleTick       = time.Second
	sampleFirst      = 100
	sampleThereafter = 10
)

// ParseLevel 解析日志级别，未知值回退到 info
func ParseLevel(s string) zapcore.Level {
	var lvl zapcore.Level
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "warning":
		return zapcore.WarnLevel
	case "":
		return zapcore.InfoLevel
	}
	if err := lvl.UnmarshalText([]byte(strings.ToLower(s))); err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

// InitLogger 初始化 zap 日志器。fields 作为每条日志的固定字段（如 app、env）。
func InitLogger(cfg cfgpkg.LoggingConfig, fields ...zap.Field) (*zap.Logger, error) {
	level := ParseLevel(cfg.Level)

	core := zapcore.NewCore(newEncoder(cfg.Format), newSink(cfg.File), level)
	if level > zapcore.DebugLevel {
		core = zapcore.NewSamplerWithOptions(core, sampleTick, sampleFirst, sampleThereafter)
	}
	return zap.New(core,
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.Fields(fields...),
	), nil
}

func newEncoder(format string) zapcore.Encoder {
	encoderCfg := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stack",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.RFC3339NanoTimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	if strings.EqualFold(format, "console") {
		encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zapcore.NewConsoleEncoder(encoderCfg)
	}
	return zapcore.NewJSONEncoder(encoderCfg)
}

// newSink stdout，配置了文件名时再加一份滚动文件
func newSink(file cfgpkg.LumberjackConfig) zapcore.WriteSyncer {
	stdout := zapcore.Lock(os.Stdout)
	if file.Filename == "" {
		return stdout
	}
	return zapcore.NewMultiWriteSyncer(stdout, zapcore.AddSync(&lumberjack.Logger{
		Filename:   file.Filename,
		MaxSize:    file.MaxSizeMB,
		MaxBackups: file.MaxBackups,
		MaxAge:     file.MaxAgeDays,
		Compress:   file.Compress,
	}))
}
