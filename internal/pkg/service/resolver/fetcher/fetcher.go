// Package fetcher provides the lookup executed on a queried peer.
//
// The lookup is strictly local: it never queries other peers, the cache or the cluster.
package fetcher

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/keboola/cluster-resolver/internal/pkg/log"
	"github.com/keboola/cluster-resolver/internal/pkg/service/resolver/artifact"
	"github.com/keboola/cluster-resolver/internal/pkg/service/resolver/localstore"
	"github.com/keboola/cluster-resolver/internal/pkg/utils/errors"
)

// Store is the local artifact store of the node.
type Store interface {
	Read(name artifact.Name) ([]byte, error)
}

type Fetcher struct {
	logger log.Logger
	store  Store
}

type dependencies interface {
	Logger() log.Logger
}

func New(d dependencies, store Store) *Fetcher {
	return &Fetcher{logger: d.Logger().WithComponent("resolver.fetcher"), store: store}
}

// Fetch returns the artifact from the local store or artifact.Absent.
// A read error is logged and reported as absent, the caller cannot distinguish it from a miss.
func (f *Fetcher) Fetch(ctx context.Context, name artifact.Name) artifact.Bytes {
	logger := f.logger.With(attribute.String("artifact", name.String()))

	data, err := f.store.Read(name)
	switch {
	case errors.Is(err, localstore.ErrNotFound):
		logger.Debug(ctx, `artifact "<artifact>" not found locally`)
		return artifact.Absent()
	case err != nil:
		logger.Warnf(ctx, `cannot read artifact "<artifact>" locally: %s`, err)
		return artifact.Absent()
	default:
		logger.Debug(ctx, `artifact "<artifact>" found locally`)
		return artifact.Found(data)
	}
}
