// Package logger owns the process-wide zap logger shared by every
// LaporKota binary. Initialize once from config, then log through the
// package-level helpers or L() for field-heavy call sites.
package logger

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	root  *zap.Logger
	level zap.AtomicLevel
	once  sync.Once
)

// Init builds the shared logger. level is one of debug, info, warn,
// error; format is json (deployments) or console (local runs). Safe to
// call more than once; only the first call takes effect.
func Init(levelName, format string) error {
	var initErr error
	once.Do(func() {
		level = zap.NewAtomicLevel()
		if err := level.UnmarshalText([]byte(levelName)); err != nil {
			initErr = fmt.Errorf("parse log level %q: %w", levelName, err)
			return
		}

		cfg, err := configFor(format)
		if err != nil {
			initErr = err
			return
		}
		cfg.Level = level

		built, err := cfg.Build(zap.AddCallerSkip(1))
		if err != nil {
			initErr = fmt.Errorf("build logger: %w", err)
			return
		}
		root = built
	})
	return initErr
}

func configFor(format string) (zap.Config, error) {
	switch format {
	case "json":
		cfg := zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		return cfg, nil
	case "console":
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return cfg, nil
	default:
		return zap.Config{}, fmt.Errorf("unknown log format %q", format)
	}
}

// SetLevel changes the level of the running logger.
func SetLevel(name string) error {
	return level.UnmarshalText([]byte(name))
}

// GetLevel reports the current level.
func GetLevel() zapcore.Level {
	return level.Level()
}

// L returns the shared logger. Panics when Init has not run; every
// binary calls Init before anything that logs.
func L() *zap.Logger {
	if root == nil {
		panic("logger.Init must run before logger.L")
	}
	return root
}

// Debug logs at DebugLevel.
func Debug(msg string, fields ...zap.Field) { L().Debug(msg, fields...) }

// Info logs at InfoLevel.
func Info(msg string, fields ...zap.Field) { L().Info(msg, fields...) }

// Warn logs at WarnLevel.
func Warn(msg string, fields ...zap.Field) { L().Warn(msg, fields...) }

// Error logs at ErrorLevel.
func Error(msg string, fields ...zap.Field) { L().Error(msg, fields...) }

// With returns a child logger carrying fields.
func With(fields ...zap.Field) *zap.Logger {
	return L().With(fields...)
}

// Sync flushes buffered entries. A no-op before Init.
func Sync() error {
	if root == nil {
		return nil
	}
	return root.Sync()
}
