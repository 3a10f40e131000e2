// Package dependencies provides dependencies for the resolver node.
//
// # Dependency Containers
//
// This package extends common dependencies from [pkg/github.com/keboola/cluster-resolver/internal/pkg/service/common/dependencies].
//
// Following dependencies containers are implemented:
//   - [ServiceScope] long-lived dependencies that exist during the entire run of the node.
//
// Dependency containers creation:
//   - [ServiceScope] is created at startup in main.go.
//
// The package also provides mocked dependency implementations for tests:
//   - [NewMockedServiceScope]
package dependencies

import (
	"context"
	"net"
	"strconv"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"

	"github.com/keboola/cluster-resolver/internal/pkg/log"
	"github.com/keboola/cluster-resolver/internal/pkg/service/common/dependencies"
	"github.com/keboola/cluster-resolver/internal/pkg/service/common/distribution"
	"github.com/keboola/cluster-resolver/internal/pkg/service/common/servicectx"
	"github.com/keboola/cluster-resolver/internal/pkg/service/resolver/artifact"
	"github.com/keboola/cluster-resolver/internal/pkg/service/resolver/cache"
	"github.com/keboola/cluster-resolver/internal/pkg/service/resolver/cluster"
	"github.com/keboola/cluster-resolver/internal/pkg/service/resolver/config"
	"github.com/keboola/cluster-resolver/internal/pkg/service/resolver/definer"
	"github.com/keboola/cluster-resolver/internal/pkg/service/resolver/fetcher"
	"github.com/keboola/cluster-resolver/internal/pkg/service/resolver/localstore"
	"github.com/keboola/cluster-resolver/internal/pkg/service/resolver/network/rpc"
	"github.com/keboola/cluster-resolver/internal/pkg/service/resolver/platform"
	"github.com/keboola/cluster-resolver/internal/pkg/service/resolver/policy"
	"github.com/keboola/cluster-resolver/internal/pkg/telemetry"
	"github.com/keboola/cluster-resolver/internal/pkg/utils/errors"
)

// ServiceScope interface provides dependencies for the resolver node.
// The container exists during the entire run of the node.
type ServiceScope interface {
	dependencies.BaseScope
	dependencies.EtcdClientScope
	dependencies.DistributionScope
	Config() config.Config
	LocalStore() *localstore.Store
	Fetcher() *fetcher.Fetcher
	FetchServer() *rpc.Server
	Cache() cache.Cache
	Definer() *definer.Definer
	Parent() *platform.Parent
	Resolver() *policy.Resolver
}

// serviceScope implements ServiceScope interface.
type serviceScope struct {
	parentScopes
	dependencies.DistributionScope
	config      config.Config
	localStore  *localstore.Store
	fetcher     *fetcher.Fetcher
	fetchServer *rpc.Server
	cache       cache.Cache
	definer     *definer.Definer
	parent      *platform.Parent
	resolver    *policy.Resolver
}

type parentScopes interface {
	dependencies.BaseScope
	dependencies.EtcdClientScope
}

type parentScopesImpl struct {
	dependencies.BaseScope
	dependencies.EtcdClientScope
}

func NewServiceScope(ctx context.Context, cfg config.Config, proc *servicectx.Process, logger log.Logger, tel telemetry.Telemetry) (v ServiceScope, err error) {
	parentScp, err := newParentScopes(ctx, cfg, proc, logger, tel)
	if err != nil {
		return nil, err
	}
	return newServiceScope(ctx, parentScp, cfg)
}

func newParentScopes(ctx context.Context, cfg config.Config, proc *servicectx.Process, logger log.Logger, tel telemetry.Telemetry) (v parentScopes, err error) {
	d := &parentScopesImpl{}
	d.BaseScope = dependencies.NewBaseScope(clockwork.NewRealClock(), logger, tel, proc)
	d.EtcdClientScope, err = dependencies.NewEtcdClientScope(ctx, d.BaseScope, cfg.Etcd)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func newServiceScope(ctx context.Context, parentScp parentScopes, cfg config.Config) (v *serviceScope, err error) {
	d := &serviceScope{}
	d.parentScopes = parentScp
	d.config = cfg
	logger := parentScp.Logger()

	// Local store of the node, peers fetch artifacts from it
	if cfg.Store.Dir == "" {
		d.localStore = localstore.New(afero.NewMemMapFs(), cfg.Store.Extension)
	} else if d.localStore, err = localstore.NewDir(cfg.Store.Dir, cfg.Store.Extension); err != nil {
		return nil, errors.PrefixError(err, "cannot open local store")
	}
	d.fetcher = fetcher.New(d, d.localStore)

	// Serve fetch requests of other peers
	d.fetchServer, err = rpc.StartServer(d, cfg.Network, cfg.NodeID, d.fetcher)
	if err != nil {
		return nil, err
	}

	// Join the cluster, other peers fetch from the advertised address
	address := net.JoinHostPort(cfg.Hostname, strconv.Itoa(d.fetchServer.Port()))
	d.DistributionScope, err = dependencies.NewDistributionScope(cfg.NodeID, cfg.Distribution, d, distribution.WithAdvertisedAddress(address))
	if err != nil {
		return nil, err
	}

	// Shared cache, optionally with the in-memory near cache
	d.cache = cache.NewEtcdCache(cfg.NodeID, d)
	if cfg.Cache.Enabled {
		nearCache, err := cache.NewNearCache(d.cache, cfg.Cache)
		if err != nil {
			return nil, errors.PrefixError(err, "cannot create near cache")
		}
		d.Process().OnShutdown(func(ctx context.Context) {
			nearCache.Close()
		})
		d.cache = nearCache
	}

	d.definer = definer.New(d)

	d.parent, err = platform.New(d, cfg.Platform, cfg.Store.Extension)
	if err != nil {
		return nil, err
	}

	d.resolver = policy.New(
		d,
		cfg.Resolver.Policy,
		d.parent,
		d.definer,
		d.newClusterResolver,
		policy.WithLocalSource(d.fetcher),
		policy.WithTriggerName(artifact.Name(cfg.Platform.TriggerName)),
	)

	// Release the cluster resolver before the node leaves the cluster
	d.Process().OnShutdown(func(ctx context.Context) {
		if err := d.resolver.Shutdown(ctx); err != nil {
			logger.Errorf(ctx, "cannot shutdown resolver: %s", err)
		}
	})

	logger.Infof(ctx, `resolver node "%s" is ready, fetch address "%s"`, cfg.NodeID, address)
	return d, nil
}

// newClusterResolver is the policy.ClusterFactory.
func (v *serviceScope) newClusterResolver(_ context.Context) (policy.Cluster, error) {
	executor, err := rpc.NewExecutor(v, v.config.Network)
	if err != nil {
		return nil, err
	}
	membership := cluster.NewDistributionMembership(v.DistributionNode())
	executor.WatchMembership(v.DistributionNode().OnChangeListener(), membership)
	return cluster.NewResolver(v, v.config.Resolver.Cluster, v.cache, membership, executor, cluster.WithOwnerLocator(membership)), nil
}

func (v *serviceScope) Config() config.Config {
	return v.config
}

func (v *serviceScope) LocalStore() *localstore.Store {
	return v.localStore
}

func (v *serviceScope) Fetcher() *fetcher.Fetcher {
	return v.fetcher
}

func (v *serviceScope) FetchServer() *rpc.Server {
	return v.fetchServer
}

func (v *serviceScope) Cache() cache.Cache {
	return v.cache
}

func (v *serviceScope) Definer() *definer.Definer {
	return v.definer
}

func (v *serviceScope) Parent() *platform.Parent {
	return v.parent
}

func (v *serviceScope) Resolver() *policy.Resolver {
	return v.resolver
}
