package log

import (
	"context"
	stdLog "log"
	"strings"

	"go.uber.org/zap/zapcore"
)

// LevelWriter writes each line as a log message with the defined level.
type LevelWriter struct {
	logger Logger
	level  zapcore.Level
}

func NewLevelWriter(logger Logger, level zapcore.Level) *LevelWriter {
	return &LevelWriter{logger: logger, level: level}
}

// NewStdErrorLogger creates the standard library logger, for libraries such as yamux, that writes to the Logger.
func NewStdErrorLogger(logger Logger) *stdLog.Logger {
	return stdLog.New(NewLevelWriter(logger, ErrorLevel), "", 0)
}

func (w *LevelWriter) Write(p []byte) (n int, err error) {
	ctx := context.Background()
	lines := strings.TrimRight(string(p), "\n")
	for _, line := range strings.Split(lines, "\n") {
		w.logger.Log(ctx, w.level.String(), line)
	}
	return len(p), nil
}
