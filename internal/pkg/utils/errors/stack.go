package errors

import (
	"runtime"
)

const stackDepth = 32

// StackTrace contains program counters of the error origin.
type StackTrace []uintptr

type stackTracer interface {
	StackTrace() StackTrace
}

// Frame returns file and line of the top-most frame.
func (t StackTrace) Frame() (file string, line int, ok bool) {
	if len(t) == 0 {
		return "", 0, false
	}
	frame, _ := runtime.CallersFrames(t[:1]).Next()
	return frame.File, frame.Line, frame.File != ""
}

// callers skips runtime.Callers, callers itself and the public constructor.
func callers() StackTrace {
	var pcs [stackDepth]uintptr
	n := runtime.Callers(3, pcs[:])
	return pcs[0:n]
}
