package log

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap/zapcore"
)

const (
	DebugLevel = zapcore.DebugLevel
	InfoLevel  = zapcore.InfoLevel
	WarnLevel  = zapcore.WarnLevel
	ErrorLevel = zapcore.ErrorLevel
)

const (
	componentKey = "component"
	durationKey  = "duration"
)

type Logger interface {
	contextLogger
	withAttributes
}

type LoggerWithZapCore interface {
	Logger
	ZapCore() zapcore.Core
}

type contextLogger interface {
	// Debug logs message in the debug level, you can use an attribute <placeholder> for ctxattr or Logger.With attributes.
	Debug(ctx context.Context, message string)
	// Info logs message in the info level, you can use an attribute <placeholder> for ctxattr or Logger.With attributes.
	Info(ctx context.Context, message string)
	// Warn logs message in the warning level, you can use an attribute <placeholder> for ctxattr or Logger.With attributes.
	Warn(ctx context.Context, message string)
	// Error logs message in the error level, you can use an attribute <placeholder> for ctxattr or Logger.With attributes.
	Error(ctx context.Context, message string)
	// Log logs message in the level, you can use an attribute <placeholder> for ctxattr or Logger.With attributes.
	Log(ctx context.Context, level string, message string)

	Debugf(ctx context.Context, template string, args ...any)
	Infof(ctx context.Context, template string, args ...any)
	Warnf(ctx context.Context, template string, args ...any)
	Errorf(ctx context.Context, template string, args ...any)
	Logf(ctx context.Context, level string, template string, args ...any)

	Sync() error
}

type withAttributes interface {
	With(attrs ...attribute.KeyValue) Logger
	// WithComponent appends the component name, nested components are separated by a dot.
	WithComponent(component string) Logger
	WithDuration(v time.Duration) Logger
}
