// Package config provides configuration of the resolver node.
package config

import (
	"github.com/keboola/cluster-resolver/internal/pkg/log"
	"github.com/keboola/cluster-resolver/internal/pkg/service/common/distribution"
	"github.com/keboola/cluster-resolver/internal/pkg/service/common/etcdclient"
	"github.com/keboola/cluster-resolver/internal/pkg/service/resolver/cache"
	"github.com/keboola/cluster-resolver/internal/pkg/service/resolver/cluster"
	"github.com/keboola/cluster-resolver/internal/pkg/service/resolver/network"
	"github.com/keboola/cluster-resolver/internal/pkg/service/resolver/platform"
	"github.com/keboola/cluster-resolver/internal/pkg/service/resolver/policy"
	"github.com/keboola/cluster-resolver/internal/pkg/utils/errors"
)

const (
	EnvPrefix        = "RESOLVER_"
	DefaultExtension = ".bin"
)

// Config of the resolver node.
// See "configmap" package for more information.
type Config struct {
	NodeID       string                `configKey:"nodeID" configUsage:"Unique ID of the node in the cluster." validate:"required"`
	Hostname     string                `configKey:"hostname" configUsage:"Hostname advertised to other nodes." validate:"required"`
	DebugLog     bool                  `configKey:"debugLog" configUsage:"Enable logging at DEBUG level."`
	LogFormat    string                `configKey:"logFormat" configUsage:"Log format: console or json." validate:"required,oneof=console json"`
	Etcd         etcdclient.Config     `configKey:"etcd"`
	Distribution distribution.Config   `configKey:"distribution"`
	Network      network.Config        `configKey:"network"`
	Store        StoreConfig           `configKey:"store"`
	Platform     platform.Config       `configKey:"platform"`
	Cache        cache.NearCacheConfig `configKey:"cache"`
	Resolver     ResolverConfig        `configKey:"resolver"`
	API          ListenConfig          `configKey:"api"`
	Metrics      ListenConfig          `configKey:"metrics"`
}

type StoreConfig struct {
	Dir       string `configKey:"dir" configUsage:"Directory with artifacts of the node, empty means an in-memory store."`
	Extension string `configKey:"extension" configUsage:"File extension of an artifact in the store." validate:"required,startswith=."`
}

type ResolverConfig struct {
	Cluster cluster.Config `configKey:",squash"`
	Policy  policy.Config  `configKey:",squash"`
}

type ListenConfig struct {
	Listen string `configKey:"listen" configUsage:"Listen address of the HTTP server." validate:"required,hostname_port"`
}

func New() Config {
	return Config{
		Hostname:     "localhost",
		LogFormat:    string(log.LogFormatConsole),
		Etcd:         etcdclient.NewConfig(),
		Distribution: distribution.NewConfig(),
		Network:      network.NewConfig(),
		Store:        StoreConfig{Extension: DefaultExtension},
		Platform:     platform.NewConfig(),
		Cache:        cache.NewNearCacheConfig(),
		Resolver: ResolverConfig{
			Cluster: cluster.NewConfig(),
			Policy:  policy.NewConfig(),
		},
		API:     ListenConfig{Listen: "0.0.0.0:8000"},
		Metrics: ListenConfig{Listen: "0.0.0.0:9000"},
	}
}

func (c *Config) Normalize() {
	c.Etcd.Normalize()
}

func (c *Config) Validate() error {
	errs := errors.NewMultiError()
	if err := c.Etcd.Validate(); err != nil {
		errs.Append(err)
	}
	if c.API.Listen == c.Metrics.Listen {
		errs.Append(errors.Errorf(`"api.listen" and "metrics.listen" must be different, found "%s"`, c.API.Listen))
	}
	return errs.ErrorOrNil()
}
