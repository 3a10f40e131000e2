package errors

import (
	"fmt"
	"strings"
)

const (
	Indent = "  "
	Bullet = "- "
)

type FormatOption func(c *formatConfig)

type formatConfig struct {
	withStack  bool
	withUnwrap bool
}

// FormatWithStack appends the origin "[file:line]" to each message.
func FormatWithStack() FormatOption {
	return func(c *formatConfig) {
		c.withStack = true
	}
}

// FormatWithUnwrap prints also wrapped errors hidden by Wrap and Wrapf.
func FormatWithUnwrap() FormatOption {
	return func(c *formatConfig) {
		c.withUnwrap = true
	}
}

// Format converts the error to a string.
// Multi-errors are printed as a bullet list, nested errors as "<prefix>: <sub errors>".
func Format(err error, opts ...FormatOption) string {
	cfg := formatConfig{}
	for _, o := range opts {
		o(&cfg)
	}
	w := &writer{config: cfg}
	w.writeError(0, err, nil)
	return w.out.String()
}

type writer struct {
	config formatConfig
	out    strings.Builder
}

func (w *writer) writeError(level int, err error, trace StackTrace) {
	if err == nil {
		w.write("<nil>")
		return
	}

	if v, ok := err.(stackTracer); ok && len(v.StackTrace()) > 0 { // nolint: errorlint
		trace = v.StackTrace()
	}

	switch v := err.(type) { // nolint: errorlint
	case nestedErrorGetter:
		w.writeNested(level, v.MainError(), v.WrappedErrors(), trace)
	case multiErrorGetter:
		w.writeList(level, v.WrappedErrors())
	case *withStack:
		w.writeError(level, v.error, trace)
	case *wrappedError:
		w.writeWrapped(level, err, v.msg, v.cause, trace)
	default:
		if cause := Unwrap(err); cause != nil && w.config.withUnwrap {
			w.writeWrapped(level, err, err.Error(), cause, trace)
			return
		}
		lines := strings.Split(w.formatMessage(err.Error(), trace), "\n")
		w.write(lines[0])
		for _, line := range lines[1:] {
			w.write("\n")
			w.writeIndent(level)
			w.write(line)
		}
	}
}

func (w *writer) writeWrapped(level int, err error, msg string, cause error, trace StackTrace) {
	w.write(w.formatMessage(msg, trace))
	if !w.config.withUnwrap || cause == nil {
		return
	}
	w.write(fmt.Sprintf(" (%T):\n", err))
	w.writeIndent(level)
	w.write(Bullet)
	w.writeError(level+1, cause, nil)
}

func (w *writer) writeNested(level int, main error, errs []error, trace StackTrace) {
	mainWriter := w.clone()
	mainWriter.writeError(level, main, trace)
	mainStr := mainWriter.out.String()
	if len(errs) == 0 {
		w.write(mainStr)
		return
	}

	prefix := strings.TrimRight(mainStr, ".,:") + ":"
	subWriter := w.clone()
	subWriter.writeList(level, errs)
	subStr := subWriter.out.String()

	w.write(prefix)
	switch {
	case len(errs) > 1:
		w.write("\n")
		w.writeList(level, errs)
	case len(prefix)+len(subStr) > 60 || strings.Contains(subStr, "\n"):
		w.write("\n")
		w.writeIndent(level)
		w.write(Bullet)
		w.writeError(level+1, errs[0], nil)
	default:
		w.write(" ")
		w.write(subStr)
	}
}

func (w *writer) writeList(level int, errs []error) {
	if len(errs) == 1 {
		w.writeError(level, errs[0], nil)
		return
	}
	for i, err := range errs {
		if i > 0 {
			w.write("\n")
		}
		w.writeIndent(level)
		w.write(Bullet)
		w.writeError(level+1, err, nil)
	}
}

func (w *writer) formatMessage(msg string, trace StackTrace) string {
	if w.config.withStack {
		if file, line, ok := trace.Frame(); ok {
			return fmt.Sprintf("%s [%s:%d]", msg, file, line)
		}
	}
	return msg
}

func (w *writer) writeIndent(level int) {
	w.write(strings.Repeat(Indent, level))
}

func (w *writer) write(s string) {
	_, _ = w.out.WriteString(s)
}

func (w *writer) clone() *writer {
	return &writer{config: w.config}
}
