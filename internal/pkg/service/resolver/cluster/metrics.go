package cluster

import (
	"go.opentelemetry.io/otel/metric"

	"github.com/keboola/cluster-resolver/internal/pkg/telemetry"
)

type metrics struct {
	cacheHit     metric.Int64Counter
	cacheMiss    metric.Int64Counter
	peerFetch    metric.Int64Counter
	peerFailure  metric.Int64Counter
	resolveTimer metric.Float64Histogram
}

func newMetrics(meter metric.Meter) *metrics {
	return &metrics{
		cacheHit:     telemetry.Counter(meter, "resolver.cache.hit", "Artifacts found in the cache.", "1"),
		cacheMiss:    telemetry.Counter(meter, "resolver.cache.miss", "Artifacts not found in the cache.", "1"),
		peerFetch:    telemetry.Counter(meter, "resolver.peer.fetch", "Fetches sent to peers.", "1"),
		peerFailure:  telemetry.Counter(meter, "resolver.peer.failure", "Failed fetches from peers.", "1"),
		resolveTimer: telemetry.Histogram(meter, "resolver.resolve.duration", "Duration of the cluster resolve.", "ms"),
	}
}
