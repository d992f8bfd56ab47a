// Package logging builds the zap loggers used by the client and the tool server.
package logging

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds logging configuration.
type Config struct {
	Level      string // debug, info, warn, error
	Format     string // console, json
	OutputPath string // stderr, stdout, or a file path
}

// New builds a logger from cfg. Unknown levels fall back to warn.
func New(cfg Config) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(cfg.Level))); err != nil || cfg.Level == "" {
		level = zapcore.WarnLevel
	}

	var zc zap.Config
	if cfg.Format == "json" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zc.DisableStacktrace = true
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	out := cfg.OutputPath
	if out == "" {
		out = "stderr"
	}
	// stdout carries the tool protocol in serve mode, so logs never go there
	// unless asked for explicitly.
	zc.OutputPaths = []string{out}
	zc.ErrorOutputPaths = []string{"stderr"}

	return zc.Build()
}

// Nop returns a logger that discards everything. Tests and library callers
// that pass a nil logger get this.
func Nop() *zap.Logger {
	return zap.NewNop()
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
