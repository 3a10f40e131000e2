// Package dependencies provides dependencies for other parts of the project.
//
// Each component defines a private "dependencies" interface with only the dependencies it needs.
// The scopes defined in this package are composed into a service scope which satisfies all of them.
//
//   - [BaseScope] interface provides basic dependencies (see [NewBaseScope]).
//   - [EtcdClientScope] interface provides the etcd client (see [NewEtcdClientScope]).
//   - [DistributionScope] interface provides the cluster membership of the node (see [NewDistributionScope]).
//   - [Mocked] interface provides dependencies mocked for tests (see [NewMocked]).
package dependencies

import (
	"github.com/jonboulle/clockwork"
	etcd "go.etcd.io/etcd/client/v3"

	"github.com/keboola/cluster-resolver/internal/pkg/log"
	"github.com/keboola/cluster-resolver/internal/pkg/service/common/distribution"
	"github.com/keboola/cluster-resolver/internal/pkg/service/common/servicectx"
	"github.com/keboola/cluster-resolver/internal/pkg/telemetry"
)

type BaseScope interface {
	Clock() clockwork.Clock
	Logger() log.Logger
	Telemetry() telemetry.Telemetry
	Process() *servicectx.Process
}

type EtcdClientScope interface {
	EtcdClient() *etcd.Client
}

type DistributionScope interface {
	DistributionNode() *distribution.Node
}
