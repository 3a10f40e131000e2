// Package cluster provides the best-effort search of an artifact in the cluster.
//
// The Resolver checks the shared cache first, then asks remote peers one by one (or all at once, see FanOut),
// and the first found result is written to the cache. A failure of one peer never fails the whole search.
package cluster

import (
	"context"
	"io"
	"time"

	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/keboola/cluster-resolver/internal/pkg/ctxattr"
	"github.com/keboola/cluster-resolver/internal/pkg/log"
	"github.com/keboola/cluster-resolver/internal/pkg/service/resolver/artifact"
	"github.com/keboola/cluster-resolver/internal/pkg/service/resolver/cache"
	"github.com/keboola/cluster-resolver/internal/pkg/telemetry"
	"github.com/keboola/cluster-resolver/internal/pkg/utils/errors"
)

type Resolver struct {
	clock      clockwork.Clock
	logger     log.Logger
	tracer     telemetry.Tracer
	config     Config
	cache      cache.Cache
	membership Membership
	executor   Executor
	owners     OwnerLocator
	metrics    *metrics
}

type dependencies interface {
	Clock() clockwork.Clock
	Logger() log.Logger
	Telemetry() telemetry.Telemetry
}

type Option func(r *Resolver)

// WithOwnerLocator is required by the PeerOrderOwnerFirst, without it the sorted order is used.
func WithOwnerLocator(v OwnerLocator) Option {
	return func(r *Resolver) {
		r.owners = v
	}
}

func NewResolver(d dependencies, cfg Config, c cache.Cache, membership Membership, executor Executor, opts ...Option) *Resolver {
	r := &Resolver{
		clock:      d.Clock(),
		logger:     d.Logger().WithComponent("resolver.cluster"),
		tracer:     d.Telemetry().Tracer(),
		config:     cfg,
		cache:      c,
		membership: membership,
		executor:   executor,
		metrics:    newMetrics(d.Telemetry().Meter()),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Resolve returns the artifact from the cache or from the first peer which has it.
// Not found artifact is reported as artifact.Absent, the error is returned only if the ctx is done.
func (r *Resolver) Resolve(ctx context.Context, name artifact.Name) (result artifact.Bytes, err error) {
	ctx, span := r.tracer.Start(ctx, "resolver.cluster.Resolve", trace.WithAttributes(attribute.String("artifact", name.String())))
	defer func() {
		span.SetAttributes(attribute.Bool("found", result.IsFound()))
		span.End(&err)
	}()
	return r.resolve(ctx, name)
}

func (r *Resolver) resolve(ctx context.Context, name artifact.Name) (artifact.Bytes, error) {
	startTime := r.clock.Now()
	ctx = ctxattr.ContextWith(ctx, attribute.String("artifact", name.String()))
	defer func() {
		r.metrics.resolveTimer.Record(ctx, float64(r.clock.Since(startTime))/float64(time.Millisecond))
	}()

	// Check the cache
	if result, err := r.cache.Get(ctx, name); err != nil {
		r.logger.Warnf(ctx, `cannot read artifact "<artifact>" from the cache: %s`, err)
	} else if result.IsFound() {
		r.metrics.cacheHit.Add(ctx, 1)
		r.logger.Debug(ctx, `artifact "<artifact>" found in the cache`)
		return result, nil
	}
	r.metrics.cacheMiss.Add(ctx, 1)

	// Search peers
	peers := r.peers(name)
	if len(peers) == 0 {
		r.logger.Debug(ctx, `artifact "<artifact>" not found, there is no remote peer`)
		return artifact.Absent(), nil
	}

	var result artifact.Bytes
	var from Peer
	var err error
	switch r.config.FanOut {
	case FanOutParallel:
		result, from, err = r.searchParallel(ctx, peers, name)
	default:
		result, from, err = r.searchSequential(ctx, peers, name)
	}
	if err != nil {
		return artifact.Absent(), err
	}

	if !result.IsFound() {
		r.logger.Infof(ctx, `artifact "<artifact>" not found in %d peers`, len(peers))
		return artifact.Absent(), nil
	}

	// Store the result, a cache error doesn't fail the resolve
	r.logger.Infof(ctx, `artifact "<artifact>" found on the peer "%s"`, from.NodeID)
	if err := r.cache.Put(ctx, name, result); err != nil {
		r.logger.Warnf(ctx, `cannot write artifact "<artifact>" to the cache: %s`, err)
	}
	return result, nil
}

// Close closes the executor, if it supports it.
func (r *Resolver) Close(ctx context.Context) error {
	r.logger.Debug(ctx, "closing cluster resolver")
	if closer, ok := r.executor.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// peers returns remote peers in the configured order.
func (r *Resolver) peers(name artifact.Name) []Peer {
	peers := remotePeers(r.membership.Members())
	if r.config.PeerOrder == PeerOrderOwnerFirst && r.owners != nil && len(peers) > 1 {
		if owner, err := r.owners.NodeFor(name.String()); err == nil {
			peers = ownerFirst(peers, owner)
		}
	}
	return peers
}

func (r *Resolver) searchSequential(ctx context.Context, peers []Peer, name artifact.Name) (artifact.Bytes, Peer, error) {
	for _, peer := range peers {
		if err := ctx.Err(); err != nil {
			return artifact.Absent(), Peer{}, err
		}

		result, err := r.fetch(ctx, peer, name)
		if err != nil {
			if ctx.Err() != nil {
				return artifact.Absent(), Peer{}, ctx.Err()
			}
			r.onFailure(ctx, err)
			continue
		}

		if result.IsFound() {
			return result, peer, nil
		}
	}
	return artifact.Absent(), Peer{}, nil
}

func (r *Resolver) searchParallel(ctx context.Context, peers []Peer, name artifact.Name) (artifact.Bytes, Peer, error) {
	type peerResult struct {
		peer   Peer
		result artifact.Bytes
		err    error
	}

	// Late results are ignored, their fetches are cancelled
	fetchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan peerResult, len(peers))
	for _, peer := range peers {
		go func() {
			result, err := r.fetch(fetchCtx, peer, name)
			results <- peerResult{peer: peer, result: result, err: err}
		}()
	}

	for range peers {
		select {
		case <-ctx.Done():
			return artifact.Absent(), Peer{}, ctx.Err()
		case res := <-results:
			if res.err != nil {
				if ctx.Err() != nil {
					return artifact.Absent(), Peer{}, ctx.Err()
				}
				r.onFailure(ctx, res.err)
				continue
			}
			if res.result.IsFound() {
				return res.result, res.peer, nil
			}
		}
	}
	return artifact.Absent(), Peer{}, nil
}

// fetch the artifact from the peer, the fetch is limited by the Config.FetchTimeout.
// Any error, except the parent ctx cancellation, is a *TransportError.
func (r *Resolver) fetch(ctx context.Context, peer Peer, name artifact.Name) (result artifact.Bytes, err error) {
	ctx, span := r.tracer.Start(ctx, "resolver.cluster.fetch", trace.WithAttributes(
		attribute.String("artifact", name.String()),
		attribute.String("peer", peer.NodeID),
	))
	defer func() {
		span.SetAttributes(attribute.Bool("found", result.IsFound()))
		span.End(&err)
	}()

	r.metrics.peerFetch.Add(ctx, 1, metric.WithAttributes(attribute.String("peer", peer.NodeID)))

	fetchCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	timer := r.clock.AfterFunc(r.config.FetchTimeout, func() {
		cancel(ErrFetchTimeout)
	})
	defer timer.Stop()

	defer func() {
		if panicErr := recover(); panicErr != nil {
			result, err = artifact.Absent(), errors.Errorf("panic: %v", panicErr)
		}
		if err != nil && ctx.Err() == nil {
			err = &TransportError{Peer: peer, Name: name, Err: err}
		}
	}()

	r.logger.Debugf(ctx, `fetching artifact "<artifact>" from the peer "%s"`, peer.NodeID)
	result, err = r.executor.Submit(fetchCtx, peer, name).Wait(fetchCtx)
	if err != nil && errors.Is(context.Cause(fetchCtx), ErrFetchTimeout) {
		err = ErrFetchTimeout
	}
	return result, err
}

func (r *Resolver) onFailure(ctx context.Context, err error) {
	var transportErr *TransportError
	peerID := ""
	if errors.As(err, &transportErr) {
		peerID = transportErr.Peer.NodeID
	}
	r.metrics.peerFailure.Add(ctx, 1, metric.WithAttributes(attribute.String("peer", peerID)))
	r.logger.With(attribute.String("peer", peerID)).Warnf(ctx, `peer "<peer>" failed, skipped: %s`, err)
}
