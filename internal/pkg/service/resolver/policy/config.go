package policy

type Config struct {
	// DelegatePrefixes are always resolved by the parent, never by the cluster.
	DelegatePrefixes []string `configKey:"delegatePrefixes" configUsage:"Artifact name prefixes always resolved by the parent resolver." validate:"required,min=1,dive,required"`
}

func NewConfig() Config {
	return Config{
		DelegatePrefixes: []string{"platform.", "std.", "resolver."},
	}
}
