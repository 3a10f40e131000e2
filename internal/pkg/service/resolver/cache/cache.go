// Package cache provides the shared artifact cache used by the cluster resolver.
//
// The value stored for a name is immutable, there is no invalidation path.
// All implementations are first-writer-wins: Put of an already cached name keeps the original value.
package cache

import (
	"context"

	"github.com/keboola/cluster-resolver/internal/pkg/service/resolver/artifact"
)

type Cache interface {
	// Get returns artifact.Absent if the name is not cached.
	Get(ctx context.Context, name artifact.Name) (artifact.Bytes, error)
	// Put stores the value if the name is not cached yet.
	Put(ctx context.Context, name artifact.Name, data artifact.Bytes) error
}
