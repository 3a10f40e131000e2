package log

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewServiceLogger creates a logger for a long-running service.
// Messages are written to the writer, in the console or JSON format.
func NewServiceLogger(w io.Writer, format LogFormat, debug bool) Logger {
	level := InfoLevel
	if debug {
		level = DebugLevel
	}
	return loggerFromZapCore(zapcore.NewCore(newEncoder(format), zapcore.Lock(zapcore.AddSync(w)), level))
}

// NewStderrServiceLogger is used by cmd entrypoints before the configuration is loaded.
func NewStderrServiceLogger() Logger {
	return NewServiceLogger(os.Stderr, LogFormatConsole, false)
}

// NewNopLogger returns no operation logger, logs are discarded.
func NewNopLogger() Logger {
	return loggerFromZapCore(zapcore.NewNopCore())
}

// ZapLogger converts the Logger to the zap.Logger, it is used by libraries that require zap, for example the etcd client.
func ZapLogger(logger Logger) *zap.Logger {
	if v, ok := logger.(LoggerWithZapCore); ok {
		return zap.New(v.ZapCore())
	}
	return zap.NewNop()
}

func newEncoder(format LogFormat) zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "time"
	cfg.MessageKey = "message"
	cfg.LevelKey = "level"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeDuration = zapcore.StringDurationEncoder
	if format == LogFormatJSON {
		cfg.EncodeLevel = zapcore.LowercaseLevelEncoder
		return zapcore.NewJSONEncoder(cfg)
	}
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.ConsoleSeparator = " "
	return zapcore.NewConsoleEncoder(cfg)
}
