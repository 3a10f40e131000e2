package cache

import (
	"context"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/jonboulle/clockwork"
	etcd "go.etcd.io/etcd/client/v3"

	"github.com/keboola/cluster-resolver/internal/pkg/log"
	"github.com/keboola/cluster-resolver/internal/pkg/service/common/etcdop"
	"github.com/keboola/cluster-resolver/internal/pkg/service/resolver/artifact"
	"github.com/keboola/cluster-resolver/internal/pkg/utils/errors"
)

const etcdPrefix = "runtime/resolver/artifact/"

// MaxEntrySize is the maximum size of an artifact stored by the EtcdCache.
// The etcd server rejects requests over 1.5 MiB by default (--max-request-bytes) and the data is base64 encoded.
const MaxEntrySize = 1 * datasize.MB

var ErrEntryTooLarge = errors.New("artifact is too large for the cache")

// EtcdCache is the cluster-wide Cache, stored in etcd.
type EtcdCache struct {
	clock  clockwork.Clock
	logger log.Logger
	client *etcd.Client
	nodeID string
	prefix etcdop.PrefixT[Entry]
}

// Entry is the etcd value of a cached artifact.
type Entry struct {
	Name artifact.Name `json:"name"`
	// Data is encoded as base64 by the JSON serialization.
	Data []byte `json:"data"`
	// NodeID of the node which wrote the entry.
	NodeID    string    `json:"nodeId"`
	CreatedAt time.Time `json:"createdAt"`
}

type etcdDependencies interface {
	Clock() clockwork.Clock
	Logger() log.Logger
	EtcdClient() *etcd.Client
}

func NewEtcdCache(nodeID string, d etcdDependencies) *EtcdCache {
	return &EtcdCache{
		clock:  d.Clock(),
		logger: d.Logger().WithComponent("resolver.cache"),
		client: d.EtcdClient(),
		nodeID: nodeID,
		prefix: etcdop.NewTypedPrefix[Entry](etcdPrefix, etcdop.NewJSONSerialization(validateEntry)),
	}
}

func (c *EtcdCache) Get(ctx context.Context, name artifact.Name) (artifact.Bytes, error) {
	kv, err := c.prefix.Key(name.String()).Get(c.client).Do(ctx)
	if err != nil {
		return artifact.Absent(), err
	}
	if kv == nil {
		return artifact.Absent(), nil
	}
	return artifact.Found(kv.Value.Data), nil
}

func (c *EtcdCache) Put(ctx context.Context, name artifact.Name, data artifact.Bytes) error {
	if !data.IsFound() {
		return errors.Errorf(`cannot cache absent artifact "%s"`, name)
	}

	if size := datasize.ByteSize(len(data.Data())); size > MaxEntrySize {
		return errors.Errorf(`cannot cache artifact "%s" of size %s, the limit is %s: %w`, name, size.HumanReadable(), MaxEntrySize.HumanReadable(), ErrEntryTooLarge)
	}

	entry := Entry{Name: name, Data: data.Data(), NodeID: c.nodeID, CreatedAt: c.clock.Now().UTC()}
	ok, err := c.prefix.Key(name.String()).PutIfNotExists(c.client, entry).Do(ctx)
	if err != nil {
		return err
	}
	if !ok {
		c.logger.Debugf(ctx, `artifact "%s" is already cached by another node`, name)
	}
	return nil
}

func validateEntry(_ context.Context, value any) error {
	if e, ok := value.(*Entry); ok && e.Name == "" {
		return errors.New(`field "name" is required`)
	}
	return nil
}
