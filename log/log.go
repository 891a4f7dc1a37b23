//
// Copyright (c) 2026 Oracle and/or its affiliates.
//
// Licensed under the Universal Permissive License v 1.0 as shown at
// https://oss.oracle.com/licenses/upl.
//

// Package log provides logging utilities for the conversation engine.
package log

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log level names accepted by SetLevel.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
	LevelFatal = "fatal"
)

var level = zap.NewAtomicLevelAt(zapcore.InfoLevel)

// Default is the process-wide logger. It borrows its implementation from zap;
// replace it with any implementation of the Logger interface.
var Default Logger = zap.New(
	zapcore.NewCore(
		zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			MessageKey:     "msg",
			CallerKey:      "caller",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalLevelEncoder,
			EncodeTime:     zapcore.RFC3339TimeEncoder,
			EncodeDuration: zapcore.SecondsDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		}),
		zapcore.AddSync(os.Stderr),
		level,
	),
	zap.AddCaller(),
	zap.AddCallerSkip(1),
).Sugar()

// Logger is the minimal logging contract used throughout the engine.
type Logger interface {
	Debug(args ...any)
	Debugf(format string, args ...any)
	Info(args ...any)
	Infof(format string, args ...any)
	Warn(args ...any)
	Warnf(format string, args ...any)
	Error(args ...any)
	Errorf(format string, args ...any)
	Fatal(args ...any)
	Fatalf(format string, args ...any)
}

// SetLevel sets the level of the default logger.
// Valid levels are "debug", "info", "warn", "error" and "fatal";
// anything else falls back to info.
func SetLevel(name string) {
	switch name {
	case LevelDebug:
		level.SetLevel(zapcore.DebugLevel)
	case LevelWarn:
		level.SetLevel(zapcore.WarnLevel)
	case LevelError:
		level.SetLevel(zapcore.ErrorLevel)
	case LevelFatal:
		level.SetLevel(zapcore.FatalLevel)
	default:
		level.SetLevel(zapcore.InfoLevel)
	}
}

// Debug logs at DEBUG level in the manner of fmt.Print.
func Debug(args ...any) { Default.Debug(args...) }

// Debugf logs at DEBUG level in the manner of fmt.Printf.
func Debugf(format string, args ...any) { Default.Debugf(format, args...) }

// Info logs at INFO level in the manner of fmt.Print.
func Info(args ...any) { Default.Info(args...) }

// Infof logs at INFO level in the manner of fmt.Printf.
func Infof(format string, args ...any) { Default.Infof(format, args...) }

// Warn logs at WARN level in the manner of fmt.Print.
func Warn(args ...any) { Default.Warn(args...) }

// Warnf logs at WARN level in the manner of fmt.Printf.
func Warnf(format string, args ...any) { Default.Warnf(format, args...) }

// Error logs at ERROR level in the manner of fmt.Print.
func Error(args ...any) { Default.Error(args...) }

// Errorf logs at ERROR level in the manner of fmt.Printf.
func Errorf(format string, args ...any) { Default.Errorf(format, args...) }

// Fatal logs at FATAL level and exits in the manner of fmt.Print.
func Fatal(args ...any) { Default.Fatal(args...) }

// Fatalf logs at FATAL level and exits in the manner of fmt.Printf.
func Fatalf(format string, args ...any) { Default.Fatalf(format, args...) }
