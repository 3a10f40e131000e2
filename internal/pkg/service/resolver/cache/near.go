package cache

import (
	"context"

	"github.com/c2h5oh/datasize"
	"github.com/dgraph-io/ristretto/v2"

	"github.com/keboola/cluster-resolver/internal/pkg/service/resolver/artifact"
	"github.com/keboola/cluster-resolver/internal/pkg/utils/errors"
)

type NearCacheConfig struct {
	Enabled bool `configKey:"nearCacheEnabled" configUsage:"Keep cluster cache entries also in the node memory."`
	// MaxSize is the maximum size of cached data.
	MaxSize datasize.ByteSize `configKey:"nearCacheSize" configUsage:"Maximum size of the in-memory near cache, for example 64MB." validate:"required"`
}

// NearCache keeps values of the inner Cache in the memory.
// The values are immutable, so the near cache is never stale.
type NearCache struct {
	inner Cache
	local *ristretto.Cache[string, []byte]
}

func NewNearCacheConfig() NearCacheConfig {
	return NearCacheConfig{Enabled: true, MaxSize: 64 * datasize.MB}
}

func NewNearCache(inner Cache, cfg NearCacheConfig) (*NearCache, error) {
	maxCost := int64(cfg.MaxSize.Bytes())
	local, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: 10 * (maxCost/1024 + 1),
		MaxCost:     maxCost,
		BufferItems: 64,
		Cost: func(value []byte) int64 {
			return int64(len(value)) + 1
		},
	})
	if err != nil {
		return nil, err
	}
	return &NearCache{inner: inner, local: local}, nil
}

func (c *NearCache) Get(ctx context.Context, name artifact.Name) (artifact.Bytes, error) {
	if data, found := c.local.Get(name.String()); found {
		return artifact.Found(data), nil
	}

	result, err := c.inner.Get(ctx, name)
	if err != nil || !result.IsFound() {
		return result, err
	}

	c.local.Set(name.String(), result.Data(), 0)
	return result, nil
}

func (c *NearCache) Put(ctx context.Context, name artifact.Name, data artifact.Bytes) error {
	// The local copy is filled by Get, another node may have won the write.
	err := c.inner.Put(ctx, name, data)
	if errors.Is(err, ErrEntryTooLarge) {
		// Not shared, but at least this node doesn't search the cluster again
		c.local.Set(name.String(), data.Data(), 0)
	}
	return err
}

// Wait until all pending writes to the memory are applied.
func (c *NearCache) Wait() {
	c.local.Wait()
}

func (c *NearCache) Close() {
	c.local.Close()
}
