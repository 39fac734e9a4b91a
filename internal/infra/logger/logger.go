package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New 根据运行环境构建 zap.Logger：生产环境输出 JSON，其余输出彩色控制台格式。
func New(env string, debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if env != "production" {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}

// NewBootstrap 配置加载之前使用的控制台日志，构建失败时退化为 Nop
func NewBootstrap() *zap.Logger {
	l, err := New("", false)
	if err != nil {
		return zap.NewNop()
	}
	return l.Named("bootstrap")
}
