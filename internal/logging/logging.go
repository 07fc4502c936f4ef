// Package logging builds the zap logger used by the chatkit CLI. The
// library itself takes any *zap.Logger; this package only decides encoders
// and sinks.
package logging

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds logger configuration.
type Config struct {
	Level   string // debug, info, warn, error
	File    string // JSON log file path; empty disables file output
	Console bool   // human-readable output on stderr
}

// DefaultConfig returns console-only logging at info level.
func DefaultConfig() Config {
	return Config{Level: "info", Console: true}
}

// LevelFromString converts a string level to zapcore.Level, defaulting to
// info for unknown values.
func LevelFromString(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// New creates a logger from cfg. With both a file and console enabled the
// two cores are teed: JSON to the file, colored human-readable to stderr.
func New(cfg Config) (*zap.Logger, error) {
	level := LevelFromString(cfg.Level)
	var cores []zapcore.Core

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, err
		}
		file, err := os.OpenFile(cfg.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		encCfg := zap.NewProductionEncoderConfig()
		encCfg.TimeKey = "timestamp"
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(encCfg),
			zapcore.AddSync(file),
			level,
		))
	}

	if cfg.Console {
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(encCfg),
			zapcore.AddSync(os.Stderr),
			level,
		))
	}

	if len(cores) == 0 {
		return zap.NewNop(), nil
	}
	return zap.New(zapcore.NewTee(cores...), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}
