// Package policy decides how a requested artifact is resolved.
//
// For each name the Resolver:
// - Returns the already defined unit, if any.
// - Delegates names with a delegate prefix to the parent resolver, the parent failure is final.
// - Resolves other names from the local store and then from the cluster, the found bytes are defined locally.
//
// The cluster resolver is created lazily, at most once, by the ClusterFactory.
// The creation is started by the trigger artifact or by the first cluster request.
// Cluster requests issued by the creation itself are rejected with ErrRecursionGuard.
package policy

import (
	"context"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/atomic"
	"golang.org/x/sync/singleflight"

	"github.com/keboola/cluster-resolver/internal/pkg/ctxattr"
	"github.com/keboola/cluster-resolver/internal/pkg/log"
	"github.com/keboola/cluster-resolver/internal/pkg/service/resolver/artifact"
	"github.com/keboola/cluster-resolver/internal/pkg/telemetry"
	"github.com/keboola/cluster-resolver/internal/pkg/utils/errors"
)

type ParentResolver interface {
	Resolve(ctx context.Context, name artifact.Name) (artifact.Unit, error)
}

type Definer interface {
	Define(ctx context.Context, name artifact.Name, data []byte) (artifact.Unit, error)
	Defined(name artifact.Name) (artifact.Unit, bool)
}

// LocalSource is the local store of the node, see fetcher.Fetcher.
type LocalSource interface {
	Fetch(ctx context.Context, name artifact.Name) artifact.Bytes
}

// Cluster searches the artifact in the cluster, see cluster.Resolver.
type Cluster interface {
	Resolve(ctx context.Context, name artifact.Name) (artifact.Bytes, error)
	Close(ctx context.Context) error
}

// ClusterFactory creates the cluster resolver.
// Requests made with the ctx, or with a ctx derived from it, are marked as the initialization sequence.
type ClusterFactory func(ctx context.Context) (Cluster, error)

type Resolver struct {
	logger      log.Logger
	tracer      telemetry.Tracer
	config      Config
	parent      ParentResolver
	definer     Definer
	factory     ClusterFactory
	local       LocalSource
	triggerName artifact.Name

	state    *atomic.Int32
	closing  *atomic.Bool
	initLock *sync.Mutex
	cluster  Cluster
	initErr  error
	requests singleflight.Group
}

type dependencies interface {
	Logger() log.Logger
	Telemetry() telemetry.Telemetry
}

type Option func(r *Resolver)

// WithLocalSource enables lookup in the local store of the node, before the cluster search.
func WithLocalSource(v LocalSource) Option {
	return func(r *Resolver) {
		r.local = v
	}
}

// WithTriggerName sets the artifact which starts the cluster resolver initialization, when it is resolved by the parent.
func WithTriggerName(v artifact.Name) Option {
	return func(r *Resolver) {
		r.triggerName = v
	}
}

func New(d dependencies, cfg Config, parent ParentResolver, definer Definer, factory ClusterFactory, opts ...Option) *Resolver {
	r := &Resolver{
		logger:   d.Logger().WithComponent("resolver.policy"),
		tracer:   d.Telemetry().Tracer(),
		config:   cfg,
		parent:   parent,
		definer:  definer,
		factory:  factory,
		state:    atomic.NewInt32(int32(StateUninitialized)),
		closing:  atomic.NewBool(false),
		initLock: &sync.Mutex{},
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// State returns the current state of the cluster resolver initialization.
func (r *Resolver) State() State {
	return State(r.state.Load())
}

// IsDelegated returns true if the name is always resolved by the parent.
func (r *Resolver) IsDelegated(name artifact.Name) bool {
	for _, prefix := range r.config.DelegatePrefixes {
		if strings.HasPrefix(name.String(), prefix) {
			return true
		}
	}
	return false
}

// Resolve returns the unit of the artifact or an error.
// A missing artifact is reported as artifact.NotResolvableError.
func (r *Resolver) Resolve(ctx context.Context, name artifact.Name) (unit artifact.Unit, err error) {
	ctx, span := r.tracer.Start(ctx, "resolver.policy.Resolve", trace.WithAttributes(attribute.String("artifact", name.String())))
	defer func() {
		if err == nil {
			span.SetAttributes(attribute.String("source", unit.Source.String()))
		}
		span.End(&err)
	}()
	return r.resolve(ctx, name)
}

func (r *Resolver) resolve(ctx context.Context, name artifact.Name) (artifact.Unit, error) {
	if err := name.Validate(); err != nil {
		return artifact.Unit{}, err
	}

	ctx = ctxattr.ContextWith(ctx, attribute.String("artifact", name.String()))

	// Already resolved
	if unit, found := r.definer.Defined(name); found {
		unit.Source = artifact.SourceAlreadyResolved
		return unit, nil
	}

	if r.IsDelegated(name) {
		return r.resolveByParent(ctx, name)
	}

	return r.resolveByCluster(ctx, name)
}

// Shutdown releases the cluster resolver.
// It can be called multiple times, at any time. If the initialization is in progress, the resolver is closed when it ends.
func (r *Resolver) Shutdown(ctx context.Context) error {
	r.closing.Store(true)
	if !r.initLock.TryLock() {
		// The holder of the lock closes the resolver, see unlockInit
		return nil
	}
	defer r.initLock.Unlock()
	return r.closeLocked(ctx)
}

func (r *Resolver) resolveByParent(ctx context.Context, name artifact.Name) (artifact.Unit, error) {
	unit, err := r.parent.Resolve(ctx, name)
	if err != nil {
		return artifact.Unit{}, &ParentError{Name: name, Err: err}
	}
	unit.Source = artifact.SourceParent

	// The trigger starts initialization of the cluster resolver
	if r.triggerName != "" && name == r.triggerName && !IsInitializing(ctx) {
		if _, err := r.ensureInit(ctx); err != nil {
			r.logger.Warnf(ctx, `trigger "<artifact>" resolved, but the cluster resolver is not available: %s`, err)
		}
	}

	return unit, nil
}

func (r *Resolver) resolveByCluster(ctx context.Context, name artifact.Name) (artifact.Unit, error) {
	// Reject requests of the initialization sequence
	if IsInitializing(ctx) && r.State() == StateInitializing {
		r.logger.Debug(ctx, `artifact "<artifact>" rejected, the cluster resolver is initializing`)
		return artifact.Unit{}, errors.Errorf(`cannot resolve artifact "%s": %w`, name, ErrRecursionGuard)
	}

	// Concurrent requests for the same name are merged, the define operation runs once.
	// The shared operation doesn't stop if one of the callers gives up.
	resultCh := r.requests.DoChan(name.String(), func() (any, error) {
		return r.resolveByClusterOnce(context.WithoutCancel(ctx), name)
	})

	select {
	case <-ctx.Done():
		return artifact.Unit{}, ctx.Err()
	case result := <-resultCh:
		if result.Err != nil {
			return artifact.Unit{}, result.Err
		}
		return result.Val.(artifact.Unit), nil
	}
}

func (r *Resolver) resolveByClusterOnce(ctx context.Context, name artifact.Name) (artifact.Unit, error) {
	// Local store of the node
	if r.local != nil {
		if result := r.local.Fetch(ctx, name); result.IsFound() {
			return r.define(ctx, name, result.Data(), artifact.SourceLocal)
		}
	}

	cluster, err := r.ensureInit(ctx)
	if err != nil {
		return artifact.Unit{}, err
	}

	result, err := cluster.Resolve(ctx, name)
	if err != nil {
		return artifact.Unit{}, err
	}
	if !result.IsFound() {
		// The search was interrupted by Shutdown
		if r.State() == StateClosed {
			return artifact.Unit{}, ErrResolverClosed
		}
		return artifact.Unit{}, artifact.NotResolvableError{Name: name}
	}

	return r.define(ctx, name, result.Data(), artifact.SourceCluster)
}

func (r *Resolver) define(ctx context.Context, name artifact.Name, data []byte, source artifact.Source) (artifact.Unit, error) {
	unit, err := r.definer.Define(ctx, name, data)
	if err != nil {
		return artifact.Unit{}, err
	}
	unit.Source = source
	r.logger.Infof(ctx, `artifact "<artifact>" resolved from the %s source`, source)
	return unit, nil
}

// ensureInit returns the cluster resolver, it is created on the first call.
func (r *Resolver) ensureInit(ctx context.Context) (Cluster, error) {
	if cluster, done, err := r.current(); done {
		return cluster, err
	}

	// The initialization sequence cannot wait for itself
	if IsInitializing(ctx) {
		return nil, ErrRecursionGuard
	}

	r.initLock.Lock()
	defer r.unlockInit(ctx)

	// Initialized by another goroutine
	if cluster, done, err := r.current(); done {
		return cluster, err
	}

	r.state.Store(int32(StateInitializing))
	r.logger.Info(ctx, "initializing cluster resolver")

	cluster, err := r.create(withInitMarker(context.WithoutCancel(ctx)))
	if err != nil {
		r.initErr = errors.Errorf("%w: %w", ErrResolverFailed, err)
		r.state.Store(int32(StateFailed))
		r.logger.Errorf(ctx, "cannot initialize cluster resolver: %s", err)
		return nil, r.initErr
	}

	r.cluster = cluster
	r.state.Store(int32(StateReady))
	r.logger.Info(ctx, "initialized cluster resolver")

	// Shutdown was requested during the initialization
	if r.closing.Load() {
		_ = r.closeLocked(ctx)
		return nil, ErrResolverClosed
	}

	return cluster, nil
}

// current returns done=true if the initialization is finished.
func (r *Resolver) current() (cluster Cluster, done bool, err error) {
	switch r.State() {
	case StateReady:
		return r.cluster, true, nil
	case StateFailed:
		return nil, true, r.initErr
	case StateClosed:
		return nil, true, ErrResolverClosed
	default:
		return nil, false, nil
	}
}

// create calls the factory, a panic is converted to an error.
func (r *Resolver) create(ctx context.Context) (cluster Cluster, err error) {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			cluster, err = nil, errors.Errorf("panic: %v", panicErr)
		}
	}()
	cluster, err = r.factory(ctx)
	if err == nil && cluster == nil {
		err = errors.New("factory returned no cluster resolver")
	}
	return cluster, err
}

func (r *Resolver) unlockInit(ctx context.Context) {
	r.initLock.Unlock()
	if r.closing.Load() && r.State() != StateClosed {
		if err := r.Shutdown(context.WithoutCancel(ctx)); err != nil {
			r.logger.Warnf(ctx, "cannot close cluster resolver: %s", err)
		}
	}
}

func (r *Resolver) closeLocked(ctx context.Context) error {
	prev := State(r.state.Swap(int32(StateClosed)))
	if prev != StateReady || r.cluster == nil {
		return nil
	}

	r.logger.Info(ctx, "closing cluster resolver")
	if err := r.cluster.Close(ctx); err != nil {
		return errors.PrefixError(err, "cannot close cluster resolver")
	}
	r.logger.Info(ctx, "closed cluster resolver")
	return nil
}
