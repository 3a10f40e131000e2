// Package definer binds resolved artifact bytes to the local process.
//
// Each name can be defined only once, the bound units are kept in the registry of the process.
package definer

import (
	"context"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel/attribute"

	"github.com/keboola/cluster-resolver/internal/pkg/log"
	"github.com/keboola/cluster-resolver/internal/pkg/service/resolver/artifact"
	"github.com/keboola/cluster-resolver/internal/pkg/utils/errors"
)

// ErrAlreadyDefined is returned if the name is already bound with a different content.
var ErrAlreadyDefined = errors.New("artifact is already defined")

type Definer struct {
	clock  clockwork.Clock
	logger log.Logger
	lock   *sync.RWMutex
	units  map[artifact.Name]artifact.Unit
}

type dependencies interface {
	Clock() clockwork.Clock
	Logger() log.Logger
}

func New(d dependencies) *Definer {
	return &Definer{
		clock:  d.Clock(),
		logger: d.Logger().WithComponent("resolver.definer"),
		lock:   &sync.RWMutex{},
		units:  make(map[artifact.Name]artifact.Unit),
	}
}

// Define binds the bytes to the name.
// Defining the same content again returns the existing unit.
func (d *Definer) Define(ctx context.Context, name artifact.Name, data []byte) (artifact.Unit, error) {
	if err := name.Validate(); err != nil {
		return artifact.Unit{}, err
	}

	checksum := xxhash.Sum64(data)

	d.lock.Lock()
	defer d.lock.Unlock()

	if existing, found := d.units[name]; found {
		if existing.Checksum != checksum {
			return artifact.Unit{}, errors.Errorf(`cannot define artifact "%s": %w`, name, ErrAlreadyDefined)
		}
		return existing, nil
	}

	unit := artifact.Unit{
		Name:      name,
		Data:      append([]byte{}, data...),
		Checksum:  checksum,
		DefinedAt: d.clock.Now(),
	}
	d.units[name] = unit
	d.logger.With(attribute.String("artifact", name.String())).Debugf(ctx, `defined artifact "<artifact>", %d bytes`, len(data))
	return unit, nil
}

// Defined returns the bound unit, if any.
func (d *Definer) Defined(name artifact.Name) (artifact.Unit, bool) {
	d.lock.RLock()
	defer d.lock.RUnlock()
	unit, found := d.units[name]
	return unit, found
}

// Len returns count of defined units.
func (d *Definer) Len() int {
	d.lock.RLock()
	defer d.lock.RUnlock()
	return len(d.units)
}
