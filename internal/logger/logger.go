// Package logger 封装 zap，保留 printf 风格的调用方式（logger.Infof("component: ...")）。
package logger

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu    sync.RWMutex
	sugar = zap.NewNop().Sugar()
)

// Init 按级别初始化全局 logger；未调用前所有日志被丢弃（测试中保持安静）
func Init(level string) error {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(level))
	cfg.Sampling = nil

	z, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return fmt.Errorf("logger: build zap logger: %w", err)
	}

	mu.Lock()
	sugar = z.Sugar()
	mu.Unlock()
	return nil
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func current() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

func Debugf(format string, args ...any) { current().Debugf(format, args...) }

func Infof(format string, args ...any) { current().Infof(format, args...) }

func Warnf(format string, args ...any) { current().Warnf(format, args...) }

func Errorf(format string, args ...any) { current().Errorf(format, args...) }

// Fatalf 记录日志后退出进程，仅供 cmd 入口使用
func Fatalf(format string, args ...any) { current().Fatalf(format, args...) }

// Sync 刷新缓冲日志，进程退出前调用
func Sync() {
	_ = current().Sync()
}

// PrintfLogger 适配只认 Printf 的第三方组件（例如 cron 的 PrintfLogger）
type PrintfLogger struct{}

func (PrintfLogger) Printf(format string, args ...any) {
	current().Infof(format, args...)
}
