package configmap

import (
	"net/netip"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keboola/cluster-resolver/internal/pkg/env"
)

func TestBind_Defaults(t *testing.T) {
	t.Parallel()

	cfg := TestConfig{Int: 10, Nested: Nested{Foo: "default"}}
	require.NoError(t, Bind(BindSpec{}, &cfg))

	assert.Equal(t, 10, cfg.Int)
	assert.Equal(t, "default", cfg.Nested.Foo)
	assert.True(t, cfg.normalized)
}

func TestBind_Priority(t *testing.T) {
	t.Parallel()

	// Config file
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte(`
embedded: from file
int: 1
float: 1.5
nested:
  foo: from file
  bar: 1
duration: 1m
`), 0o600))

	// ENVs
	envs := env.FromMap(map[string]string{
		"MY_APP_INT":          "2",
		"MY_APP_NESTED_FOO":   "from env",
		"MY_APP_STRING_SLICE": "a,b,c",
		"MY_APP_ADDRESS":      "1.2.3.4",
	})

	cfg := TestConfig{Int: 10, Bool: true}
	err := Bind(BindSpec{
		Args:                   []string{"--config-file", configFile, "--int", "3", "--url", "https://example.com/path"},
		Envs:                   envs,
		EnvNaming:              env.NewNamingConvention("MY_APP_"),
		GenerateConfigFileFlag: true,
	}, &cfg)
	require.NoError(t, err)

	assert.Equal(t, "from file", cfg.EmbeddedField)
	assert.Equal(t, 3, cfg.Int)
	assert.InDelta(t, 1.5, cfg.Float, 0.001)
	assert.True(t, cfg.Bool)
	assert.Equal(t, "from env", cfg.Nested.Foo)
	assert.Equal(t, 1, cfg.Nested.Bar)
	assert.Equal(t, []string{"a", "b", "c"}, cfg.StringSlice)
	assert.Equal(t, time.Minute, cfg.Duration)
	assert.Equal(t, netip.AddrFrom4([4]byte{1, 2, 3, 4}), cfg.Addr)
	require.NotNil(t, cfg.URL)
	assert.Equal(t, "https://example.com/path", cfg.URL.String())
}

func TestBind_Help(t *testing.T) {
	t.Parallel()

	cfg := TestConfig{}
	err := Bind(BindSpec{
		AppName:                "my-app",
		Args:                   []string{"--help"},
		Envs:                   env.Empty(),
		EnvNaming:              env.NewNamingConvention("MY_APP_"),
		GenerateHelpFlag:       true,
		GenerateConfigFileFlag: true,
		GenerateDumpConfigFlag: true,
	}, &cfg)

	var helpErr HelpError
	require.ErrorAs(t, err, &helpErr)
	assert.True(t, strings.HasPrefix(helpErr.Help, `Usage of "my-app":`))
	assert.Contains(t, helpErr.Help, "--string-with-usage string")
	assert.Contains(t, helpErr.Help, "An usage text.")
	assert.Contains(t, helpErr.Help, `the flag "--foo-bar" becomes the "MY_APP_FOO_BAR" ENV`)
}

func TestBind_Dump(t *testing.T) {
	t.Parallel()

	cfg := TestConfig{SensitiveString: "secret"}
	err := Bind(BindSpec{
		Args:                   []string{"--dump-config", "yaml", "--nested-foo", "foo", "--duration", "5s"},
		GenerateDumpConfigFlag: true,
	}, &cfg)

	var dumpErr DumpError
	require.ErrorAs(t, err, &dumpErr)
	dump := string(dumpErr.Dump)
	assert.Contains(t, dump, "*****")
	assert.Contains(t, dump, "duration: 5s")
	assert.Contains(t, dump, "nested:\n    bar: 0\n    foo: foo\n")
	assert.NotContains(t, dump, "secret")
}

func TestBind_InvalidValue(t *testing.T) {
	t.Parallel()

	cfg := TestConfig{}
	err := Bind(BindSpec{Args: []string{"--duration", "2h"}}, &cfg)
	require.Error(t, err)
	assert.Equal(t, "invalid configuration: \"duration\" must be 1h or less", err.Error())

	cfg = TestConfig{}
	err = Bind(BindSpec{Args: []string{"--nested-foo", "invalid"}}, &cfg)
	require.Error(t, err)
	assert.Equal(t, "invalid configuration: \"nested.foo\" cannot be \"invalid\"", err.Error())
}

func TestBind_UnknownFlag(t *testing.T) {
	t.Parallel()

	cfg := TestConfig{}
	err := Bind(BindSpec{Args: []string{"--unknown"}}, &cfg)
	require.Error(t, err)
	assert.Equal(t, "unknown flag: --unknown", err.Error())
}

func TestBind_NotPointer(t *testing.T) {
	t.Parallel()

	err := Bind(BindSpec{}, TestConfig{})
	require.Error(t, err)
	assert.Equal(t, `target must be a pointer, found "configmap.TestConfig"`, err.Error())
}
