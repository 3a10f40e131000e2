package middleware

type Config struct {
	filters          []FilterFn
	accessLogFilters []FilterFn
}

type Option func(config *Config)

// WithFilter defines ignored requests that will not be metered and logged. It disables telemetry at all.
// A Filter must return true if the request should be logged/metered.
func WithFilter(filters ...FilterFn) Option {
	return func(c *Config) {
		c.filters = append(c.filters, filters...)
	}
}

// WithFilterAccessLog defines ignored requests that will not be logged.
// A Filter must return true if the request should be logged.
func WithFilterAccessLog(filters ...FilterFn) Option {
	return func(c *Config) {
		c.accessLogFilters = append(c.accessLogFilters, filters...)
	}
}

func NewConfig(opts ...Option) Config {
	cfg := Config{}
	for _, o := range opts {
		o(&cfg)
	}
	return cfg
}
