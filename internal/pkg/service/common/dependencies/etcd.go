package dependencies

import (
	"context"

	etcd "go.etcd.io/etcd/client/v3"

	"github.com/keboola/cluster-resolver/internal/pkg/service/common/etcdclient"
	"github.com/keboola/cluster-resolver/internal/pkg/utils/errors"
)

// etcdClientScope implements EtcdClientScope interface.
type etcdClientScope struct {
	client *etcd.Client
}

func NewEtcdClientScope(ctx context.Context, baseScp BaseScope, cfg etcdclient.Config) (EtcdClientScope, error) {
	client, err := etcdclient.New(ctx, baseScp.Process(), baseScp.Telemetry(), baseScp.Logger(), cfg)
	if err != nil {
		return nil, errors.PrefixError(err, "cannot create etcd client")
	}
	return &etcdClientScope{client: client}, nil
}

func (v *etcdClientScope) EtcdClient() *etcd.Client {
	return v.client
}
