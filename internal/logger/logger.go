package logger

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/Chichichkin/EventLogAgent/internal/config"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// NewLogger builds the agent's own diagnostics logger: console output on stderr
// plus, when log.file is set, a rotated file.
func NewLogger(cfg config.LogConfig) *zap.Logger {
	return newLogger(cfg, os.Stderr)
}

func newLogger(cfg config.LogConfig, console io.Writer) *zap.Logger {
	level := zap.NewAtomicLevelAt(parseLogLevel(cfg.Level))

	cores := []zapcore.Core{
		zapcore.NewCore(createEncoder(cfg.Format, true), zapcore.Lock(zapcore.AddSync(console)), level),
	}

	if cfg.File != "" {
		cores = append(cores, zapcore.NewCore(createEncoder(cfg.Format, false), createFileWriter(cfg), level))
	}

	var core zapcore.Core
	if len(cores) == 1 {
		core = cores[0]
	} else {
		core = zapcore.NewTee(cores...)
	}

	return zap.New(core)
}

func parseLogLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zap.DebugLevel
	case "warn", "warning":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

func createEncoder(format string, terminal bool) zapcore.Encoder {
	if format == FormatJSON {
		return zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	}

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	if terminal {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		// no color codes in files
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	return zapcore.NewConsoleEncoder(encoderConfig)
}

func createFileWriter(cfg config.LogConfig) zapcore.WriteSyncer {
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxAge:     cfg.MaxAgeDays,
		MaxBackups: cfg.MaxBackups,
		Compress:   cfg.Compress,
	})
}
