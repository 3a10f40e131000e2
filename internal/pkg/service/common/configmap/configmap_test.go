package configmap

import (
	"net/netip"
	"net/url"
	"time"

	"github.com/keboola/cluster-resolver/internal/pkg/utils/errors"
)

type CustomStringType string

type TestConfig struct {
	Embedded         `configKey:",squash"`
	Ignored          string
	CustomString     CustomStringType `configKey:"customString"`
	SensitiveString  string           `configKey:"sensitiveString" sensitive:"true"`
	StringSlice      []string         `configKey:"stringSlice"`
	Int              int              `configKey:"int" configShorthand:"i"`
	Float            float64          `configKey:"float"`
	Bool             bool             `configKey:"bool"`
	StringWithUsage  string           `configKey:"stringWithUsage" configUsage:"An usage text."`
	Duration         time.Duration    `configKey:"duration" validate:"maxDuration=1h"`
	DurationNullable *time.Duration   `configKey:"durationNullable"`
	URL              *url.URL         `configKey:"url"`
	Addr             netip.Addr       `configKey:"address"`
	Nested           Nested           `configKey:"nested"`
	normalized       bool
}

type Embedded struct {
	EmbeddedField string `configKey:"embedded"`
}

type Nested struct {
	Ignored string
	Foo     string `configKey:"foo"`
	Bar     int    `configKey:"bar"`
}

func (c *TestConfig) Normalize() {
	c.normalized = true
}

func (c *TestConfig) Validate() error {
	if c.Nested.Foo == "invalid" {
		return errors.New(`"nested.foo" cannot be "invalid"`)
	}
	return nil
}
