package distribution

import (
	"time"
)

type Config struct {
	// Group is the name of the cluster group, nodes in the same group see each other.
	Group string `configKey:"group" configUsage:"Name of the cluster group." validate:"required"`
	// StartupTimeout configures timeout for the node registration to the cluster.
	StartupTimeout time.Duration `configKey:"startupTimeout" configUsage:"Timeout for the node registration to the cluster." validate:"required,minDuration=1s,maxDuration=5m"`
	// ShutdownTimeout configures timeout for the node un-registration from the cluster.
	ShutdownTimeout time.Duration `configKey:"shutdownTimeout" configUsage:"Timeout for the node un-registration from the cluster." validate:"required,minDuration=1s,maxDuration=5m"`
	// TTLSeconds configures the number seconds after which the node is automatically un-registered if an outage occurs.
	TTLSeconds int `configKey:"ttlSeconds" configUsage:"Seconds after which the node is automatically un-registered if an outage occurs." validate:"required,min=1,max=30"`
}

func NewConfig() Config {
	return Config{
		Group:           "resolver",
		StartupTimeout:  60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		TTLSeconds:      15,
	}
}
