package utils

import (
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger struct {
	sugar *zap.SugaredLogger
}

// NewLogger builds a JSON logger writing to out. debug forces the debug level,
// otherwise level is one of debug, info, warn or error (info when unknown).
func NewLogger(debug bool, level string, out io.Writer) *Logger {
	zapLevel := zapcore.InfoLevel
	switch strings.ToLower(level) {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	}
	if debug {
		zapLevel = zapcore.DebugLevel
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "time"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(out), zapLevel)
	logger := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))

	return &Logger{sugar: logger.Sugar()}
}

// NewNopLogger returns a logger that discards everything.
func NewNopLogger() *Logger {
	return &Logger{sugar: zap.NewNop().Sugar()}
}

// With returns a child logger carrying the given key/value pairs on every line.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{sugar: l.sugar.With(keysAndValues...)}
}

func (l *Logger) Debug(v ...interface{}) {
	l.sugar.Debug(sprintln(v...))
}

func (l *Logger) Info(v ...interface{}) {
	l.sugar.Info(sprintln(v...))
}

func (l *Logger) Warn(v ...interface{}) {
	l.sugar.Warn(sprintln(v...))
}

func (l *Logger) Error(v ...interface{}) {
	l.sugar.Error(sprintln(v...))
}

func (l *Logger) Fatal(v ...interface{}) {
	l.sugar.Fatal(sprintln(v...))
}

// Infow logs a message with structured key/value context.
func (l *Logger) Infow(msg string, keysAndValues ...interface{}) {
	l.sugar.Infow(msg, keysAndValues...)
}

func (l *Logger) Errorw(msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, keysAndValues...)
}

func (l *Logger) Sync() error {
	return l.sugar.Sync()
}

// sprintln joins operands with spaces the way log.Println does.
func sprintln(v ...interface{}) string {
	return strings.TrimSuffix(fmt.Sprintln(v...), "\n")
}
