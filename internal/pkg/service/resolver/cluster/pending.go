package cluster

import (
	"context"
	"sync"

	"github.com/keboola/cluster-resolver/internal/pkg/service/resolver/artifact"
)

// Executor runs the remote fetch on the peer.
type Executor interface {
	// Submit starts the fetch and returns immediately, the fetch is cancelled with the ctx.
	Submit(ctx context.Context, peer Peer, name artifact.Name) *PendingFetch
}

// PendingFetch is the future result of a fetch bound to one name and peer.
type PendingFetch struct {
	Peer   Peer
	Name   artifact.Name
	once   *sync.Once
	done   chan struct{}
	result artifact.Bytes
	err    error
}

func NewPendingFetch(peer Peer, name artifact.Name) *PendingFetch {
	return &PendingFetch{Peer: peer, Name: name, once: &sync.Once{}, done: make(chan struct{})}
}

// Complete sets the result, only the first call has an effect.
// The err is a transport failure, a missing artifact is reported as artifact.Absent.
func (f *PendingFetch) Complete(result artifact.Bytes, err error) {
	f.once.Do(func() {
		f.result = result
		f.err = err
		close(f.done)
	})
}

// Done is closed when the result is available.
func (f *PendingFetch) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the result is available or the ctx is done.
func (f *PendingFetch) Wait(ctx context.Context) (artifact.Bytes, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		return artifact.Absent(), context.Cause(ctx)
	}
}
