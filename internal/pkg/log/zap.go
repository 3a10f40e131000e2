package log

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/keboola/cluster-resolver/internal/pkg/ctxattr"
)

// zapLogger is the default implementation of the Logger interface.
type zapLogger struct {
	core      zapcore.Core
	component string
	attrs     []attribute.KeyValue
}

func loggerFromZapCore(core zapcore.Core) *zapLogger {
	return &zapLogger{core: core}
}

func (l *zapLogger) ZapCore() zapcore.Core {
	return l.core
}

func (l *zapLogger) With(attrs ...attribute.KeyValue) Logger {
	clone := *l
	clone.attrs = append(append([]attribute.KeyValue{}, l.attrs...), attrs...)
	return &clone
}

func (l *zapLogger) WithComponent(component string) Logger {
	clone := *l
	if clone.component == "" {
		clone.component = component
	} else {
		clone.component += "." + component
	}
	return &clone
}

func (l *zapLogger) WithDuration(v time.Duration) Logger {
	return l.With(attribute.String(durationKey, v.String()))
}

func (l *zapLogger) Debug(ctx context.Context, message string) {
	l.log(ctx, DebugLevel, message)
}

func (l *zapLogger) Info(ctx context.Context, message string) {
	l.log(ctx, InfoLevel, message)
}

func (l *zapLogger) Warn(ctx context.Context, message string) {
	l.log(ctx, WarnLevel, message)
}

func (l *zapLogger) Error(ctx context.Context, message string) {
	l.log(ctx, ErrorLevel, message)
}

func (l *zapLogger) Log(ctx context.Context, level string, message string) {
	l.log(ctx, parseLevel(level), message)
}

func (l *zapLogger) Debugf(ctx context.Context, template string, args ...any) {
	l.log(ctx, DebugLevel, fmt.Sprintf(template, args...))
}

func (l *zapLogger) Infof(ctx context.Context, template string, args ...any) {
	l.log(ctx, InfoLevel, fmt.Sprintf(template, args...))
}

func (l *zapLogger) Warnf(ctx context.Context, template string, args ...any) {
	l.log(ctx, WarnLevel, fmt.Sprintf(template, args...))
}

func (l *zapLogger) Errorf(ctx context.Context, template string, args ...any) {
	l.log(ctx, ErrorLevel, fmt.Sprintf(template, args...))
}

func (l *zapLogger) Logf(ctx context.Context, level string, template string, args ...any) {
	l.log(ctx, parseLevel(level), fmt.Sprintf(template, args...))
}

func (l *zapLogger) Sync() error {
	return l.core.Sync()
}

func (l *zapLogger) log(ctx context.Context, level zapcore.Level, message string) {
	if !l.core.Enabled(level) {
		return
	}

	// Logger attributes have priority over the context attributes
	attrs := append(ctxattr.Attributes(ctx).ToSlice(), l.attrs...)
	set := attribute.NewSet(attrs...)

	fields := make([]zap.Field, 0, set.Len()+1)
	if l.component != "" {
		fields = append(fields, zap.String(componentKey, l.component))
	}

	var replacements []string
	iter := set.Iter()
	for iter.Next() {
		kv := iter.Attribute()
		key := string(kv.Key)
		fields = append(fields, zap.Any(key, kv.Value.AsInterface()))
		replacements = append(replacements, "<"+key+">", kv.Value.Emit())
	}
	if len(replacements) > 0 {
		message = strings.NewReplacer(replacements...).Replace(message)
	}

	entry := zapcore.Entry{Level: level, Time: time.Now(), Message: message}
	if ce := l.core.Check(entry, nil); ce != nil {
		ce.Write(fields...)
	}
}

func parseLevel(level string) zapcore.Level {
	v, err := zapcore.ParseLevel(level)
	if err != nil {
		return InfoLevel
	}
	return v
}
