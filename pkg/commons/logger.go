// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package commons

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the logging surface shared by every package of the recorder.
type Logger interface {
	Level() zapcore.Level
	Debug(args ...interface{})
	Debugf(template string, args ...interface{})
	Debugw(msg string, keysAndValues ...interface{})
	Info(args ...interface{})
	Infof(template string, args ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	Warn(args ...interface{})
	Warnf(template string, args ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Error(args ...interface{})
	Errorf(template string, args ...interface{})
	Errorw(msg string, keysAndValues ...interface{})
	DPanic(args ...interface{})
	DPanicf(template string, args ...interface{})
	Panic(args ...interface{})
	Panicf(template string, args ...interface{})
	Fatal(args ...interface{})
	Fatalf(template string, args ...interface{})
	Benchmark(functionName string, duration time.Duration)
	Tracef(ctx context.Context, format string, args ...interface{})
	Sync() error
}

type loggerOptions struct {
	name     string
	path     string
	level    string
	console  bool
	maxSize  int
	maxAge   int
	backups  int
	compress bool
}

type Option func(*loggerOptions)

func Name(name string) Option   { return func(o *loggerOptions) { o.name = name } }
func Path(path string) Option   { return func(o *loggerOptions) { o.path = path } }
func Level(level string) Option { return func(o *loggerOptions) { o.level = level } }

// Console mirrors log lines to stderr in addition to the rotating file.
func Console(enabled bool) Option { return func(o *loggerOptions) { o.console = enabled } }

type applicationLogger struct {
	*zap.SugaredLogger
	level zapcore.Level
}

// NewApplicationLogger builds a zap logger writing JSON lines to
// <path>/<name>.log, rotated by lumberjack.
func NewApplicationLogger(opts ...Option) (Logger, error) {
	o := &loggerOptions{
		name:     "recorder",
		path:     "logs",
		level:    "info",
		maxSize:  50,
		maxAge:   14,
		backups:  5,
		compress: true,
	}
	for _, opt := range opts {
		opt(o)
	}

	level, err := zapcore.ParseLevel(o.level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", o.level, err)
	}
	if err := os.MkdirAll(o.path, 0o755); err != nil {
		return nil, fmt.Errorf("unable to create log directory %s: %w", o.path, err)
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	fileSink := zapcore.AddSync(&lumberjack.Logger{
		Filename:   filepath.Join(o.path, o.name+".log"),
		MaxSize:    o.maxSize,
		MaxAge:     o.maxAge,
		MaxBackups: o.backups,
		Compress:   o.compress,
	})
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), fileSink, level),
	}
	if o.console {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderConfig),
			zapcore.Lock(os.Stderr),
			level,
		))
	}

	z := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1)).Named(o.name)
	return &applicationLogger{SugaredLogger: z.Sugar(), level: level}, nil
}

// NewNopLogger discards everything; handy where no log sink is configured.
func NewNopLogger() Logger {
	return &applicationLogger{SugaredLogger: zap.NewNop().Sugar(), level: zapcore.FatalLevel}
}

func (l *applicationLogger) Level() zapcore.Level { return l.level }

func (l *applicationLogger) Benchmark(functionName string, duration time.Duration) {
	l.SugaredLogger.Debugw("benchmark", "function", functionName, "took", duration.String())
}

func (l *applicationLogger) Tracef(ctx context.Context, format string, args ...interface{}) {
	if ctx != nil && ctx.Err() != nil {
		args = append(args, ctx.Err())
		format += " (ctx: %v)"
	}
	l.SugaredLogger.Debugf(format, args...)
}
