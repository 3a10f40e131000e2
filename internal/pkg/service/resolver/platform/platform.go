// Package platform provides the parent resolver backed by the read-only platform store.
// The parent answers names of the platform, its standard library and the resolver itself.
package platform

import (
	"context"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"

	"github.com/keboola/cluster-resolver/internal/pkg/log"
	"github.com/keboola/cluster-resolver/internal/pkg/service/resolver/artifact"
	"github.com/keboola/cluster-resolver/internal/pkg/service/resolver/localstore"
	"github.com/keboola/cluster-resolver/internal/pkg/utils/errors"
)

type Config struct {
	Dir string `configKey:"dir" configUsage:"Directory with artifacts of the platform."`
	// TriggerName is the artifact which signals that the platform bootstrap is far enough to start the cluster resolver.
	TriggerName string `configKey:"triggerName" configUsage:"Artifact which starts the cluster resolver initialization." validate:"required"`
}

type Parent struct {
	clock  clockwork.Clock
	logger log.Logger
	store  *localstore.Store
}

type dependencies interface {
	Clock() clockwork.Clock
	Logger() log.Logger
}

func NewConfig() Config {
	return Config{TriggerName: "std.runtime"}
}

// New opens the platform directory, an empty directory means an empty in-memory platform.
func New(d dependencies, cfg Config, extension string) (*Parent, error) {
	var store *localstore.Store
	if cfg.Dir == "" {
		store = localstore.New(afero.NewReadOnlyFs(afero.NewMemMapFs()), extension)
	} else {
		var err error
		store, err = localstore.NewReadOnlyDir(cfg.Dir, extension)
		if err != nil {
			return nil, errors.PrefixError(err, "cannot open platform store")
		}
	}
	return NewFromStore(d, store), nil
}

func NewFromStore(d dependencies, store *localstore.Store) *Parent {
	return &Parent{clock: d.Clock(), logger: d.Logger().WithComponent("resolver.platform"), store: store}
}

// Resolve returns the platform unit or artifact.NotResolvableError.
func (p *Parent) Resolve(ctx context.Context, name artifact.Name) (artifact.Unit, error) {
	data, err := p.store.Read(name)
	if errors.Is(err, localstore.ErrNotFound) {
		return artifact.Unit{}, artifact.NotResolvableError{Name: name}
	} else if err != nil {
		return artifact.Unit{}, err
	}

	p.logger.Debugf(ctx, `resolved platform artifact "%s"`, name)
	return artifact.Unit{Name: name, Data: data, Source: artifact.SourceParent, DefinedAt: p.clock.Now()}, nil
}
