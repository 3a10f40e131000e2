package policy

import (
	"context"
)

// State of the cluster resolver initialization.
type State int32

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateFailed
	StateClosed
)

type initMarker struct{}

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// withInitMarker marks the ctx of the initialization sequence.
func withInitMarker(ctx context.Context) context.Context {
	return context.WithValue(ctx, initMarker{}, true)
}

// IsInitializing returns true if the ctx belongs to the initialization of the cluster resolver.
func IsInitializing(ctx context.Context) bool {
	v, _ := ctx.Value(initMarker{}).(bool)
	return v
}
