// Package log is the application-wide leveled logger. Calls take a message
// followed by alternating key/value pairs:
//
//	appLog.Info("next event", "date", date, "number", n)
//	appLog.Error("config load failed", err, "path", path)
package log

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

var (
	logger     *zap.SugaredLogger
	loggerOnce sync.Once
	minLevel   = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// initLogger builds the global console logger writing to stderr.
func initLogger() {
	loggerOnce.Do(func() {
		if logger == nil {
			logger = New(os.Stderr)
		}
	})
}

// New returns a console logger writing to w and filtered by the global level.
func New(w zapcore.WriteSyncer) *zap.SugaredLogger {
	encoder := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		TimeKey:          "ts",
		LevelKey:         "level",
		MessageKey:       "msg",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		EncodeTime:       zapcore.RFC3339NanoTimeEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " ",
	})
	return zap.New(zapcore.NewCore(encoder, w, minLevel)).Sugar()
}

// SetOutput replaces the global logger with one writing to w.
func SetOutput(w zapcore.WriteSyncer) {
	loggerOnce.Do(func() {})
	logger = New(w)
}

// ParseLevel converts a config/flag string ("debug", "info", ...) to a Level.
func ParseLevel(s string) (Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, true
	case "info", "":
		return LevelInfo, true
	case "warn", "warning":
		return LevelWarn, true
	case "error":
		return LevelError, true
	default:
		return LevelInfo, false
	}
}

func SetLevel(l Level) {
	switch l {
	case LevelDebug:
		minLevel.SetLevel(zapcore.DebugLevel)
	case LevelWarn:
		minLevel.SetLevel(zapcore.WarnLevel)
	case LevelError:
		minLevel.SetLevel(zapcore.ErrorLevel)
	default:
		minLevel.SetLevel(zapcore.InfoLevel)
	}
}

func Debug(msg string, kv ...any) {
	initLogger()
	logger.Debugw(msg, kv...)
}

func Info(msg string, kv ...any) {
	initLogger()
	logger.Infow(msg, kv...)
}

func Warn(msg string, kv ...any) {
	initLogger()
	logger.Warnw(msg, kv...)
}

func Error(msg string, err error, kv ...any) {
	initLogger()
	logger.Errorw(msg, append([]any{"err", err}, kv...)...)
}

// Sync flushes buffered output. Call before exit.
func Sync() {
	initLogger()
	_ = logger.Sync()
}
