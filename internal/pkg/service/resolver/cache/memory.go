package cache

import (
	"context"
	"sync"

	"github.com/keboola/cluster-resolver/internal/pkg/service/resolver/artifact"
	"github.com/keboola/cluster-resolver/internal/pkg/utils/errors"
)

// MemoryCache is a process-local Cache, it is used by a single node setup and in tests.
type MemoryCache struct {
	lock  *sync.RWMutex
	items map[artifact.Name][]byte
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{lock: &sync.RWMutex{}, items: make(map[artifact.Name][]byte)}
}

func (c *MemoryCache) Get(_ context.Context, name artifact.Name) (artifact.Bytes, error) {
	c.lock.RLock()
	defer c.lock.RUnlock()
	if data, found := c.items[name]; found {
		return artifact.Found(data), nil
	}
	return artifact.Absent(), nil
}

func (c *MemoryCache) Put(_ context.Context, name artifact.Name, data artifact.Bytes) error {
	if !data.IsFound() {
		return errors.Errorf(`cannot cache absent artifact "%s"`, name)
	}

	c.lock.Lock()
	defer c.lock.Unlock()
	if _, found := c.items[name]; !found {
		c.items[name] = append([]byte{}, data.Data()...)
	}
	return nil
}

// Len returns count of cached artifacts.
func (c *MemoryCache) Len() int {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return len(c.items)
}
