package log

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"sync"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DebugLogger stores all messages in the memory, in the JSON format, it is used in tests.
type DebugLogger interface {
	LoggerWithZapCore
	ConnectTo(w io.Writer)
	Truncate()
	AllMessages() string
	WarnAndErrorMessages() string
	CompareJSONMessages(expected string) error
	AssertJSONMessages(t assert.TestingT, expected string, msgAndArgs ...any) bool
	AssertNoWarnOrError(t assert.TestingT) bool
}

type debugLogger struct {
	*zapLogger
	buffer *memoryBuffer
}

type memoryBuffer struct {
	lock      sync.Mutex
	buf       bytes.Buffer
	connected []io.Writer
}

func NewDebugLogger() DebugLogger {
	buffer := &memoryBuffer{}
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = ""
	cfg.MessageKey = "message"
	cfg.LevelKey = "level"
	cfg.EncodeLevel = zapcore.LowercaseLevelEncoder
	cfg.EncodeDuration = zapcore.StringDurationEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(cfg), buffer, DebugLevel)
	return &debugLogger{zapLogger: loggerFromZapCore(core), buffer: buffer}
}

// ConnectTo duplicates all next messages to the writer, for example os.Stdout in a debugged test.
func (l *debugLogger) ConnectTo(w io.Writer) {
	l.buffer.lock.Lock()
	defer l.buffer.lock.Unlock()
	l.buffer.connected = append(l.buffer.connected, w)
}

func (l *debugLogger) Truncate() {
	l.buffer.lock.Lock()
	defer l.buffer.lock.Unlock()
	l.buffer.buf.Reset()
}

func (l *debugLogger) AllMessages() string {
	l.buffer.lock.Lock()
	defer l.buffer.lock.Unlock()
	return l.buffer.buf.String()
}

func (l *debugLogger) WarnAndErrorMessages() string {
	var out strings.Builder
	scanner := bufio.NewScanner(strings.NewReader(l.AllMessages()))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.Contains(line, `"level":"warn"`) || strings.Contains(line, `"level":"error"`) {
			out.WriteString(line)
			out.WriteString("\n")
		}
	}
	return out.String()
}

func (l *debugLogger) CompareJSONMessages(expected string) error {
	return CompareJSONMessages(expected, l.AllMessages())
}

func (l *debugLogger) AssertJSONMessages(t assert.TestingT, expected string, msgAndArgs ...any) bool {
	return AssertJSONMessages(t, expected, l.AllMessages(), msgAndArgs...)
}

func (l *debugLogger) AssertNoWarnOrError(t assert.TestingT) bool {
	return assert.Empty(t, l.WarnAndErrorMessages(), "unexpected warning or error messages")
}

func (b *memoryBuffer) Write(p []byte) (int, error) {
	b.lock.Lock()
	defer b.lock.Unlock()
	for _, w := range b.connected {
		_, _ = w.Write(p)
	}
	return b.buf.Write(p)
}

func (b *memoryBuffer) Sync() error {
	return nil
}
