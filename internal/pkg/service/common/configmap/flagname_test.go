package configmap

import (
	"testing"

	"github.com/keboola/go-utils/pkg/orderedmap"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldToFlagName(t *testing.T) {
	t.Parallel()

	cases := []struct{ FieldName, ExpectedFlagName string }{
		{FieldName: "", ExpectedFlagName: ""},
		{FieldName: "  ", ExpectedFlagName: ""},
		{FieldName: "foo", ExpectedFlagName: "foo"},
		{FieldName: "Foo", ExpectedFlagName: "foo"},
		{FieldName: "foo-bar", ExpectedFlagName: "foo-bar"},
		{FieldName: "fooBar", ExpectedFlagName: "foo-bar"},
		{FieldName: "FooBar", ExpectedFlagName: "foo-bar"},
		{FieldName: "---Foo---Bar---", ExpectedFlagName: "foo-bar"},
		{FieldName: "network.keepAliveInterval", ExpectedFlagName: "network-keep-alive-interval"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.ExpectedFlagName, fieldToFlagName(tc.FieldName))
	}
}

func TestFlagToFieldMap(t *testing.T) {
	t.Parallel()

	in := TestConfig{Float: 123.45}

	// Struct
	flagToField1 := make(map[string]orderedmap.Path)
	require.NoError(t, flagFieldMapTo(in, flagToField1))

	// Struct pointer
	flagToField2 := make(map[string]orderedmap.Path)
	require.NoError(t, flagFieldMapTo(&in, flagToField2))

	expected := map[string]orderedmap.Path{
		"address":           orderedmap.PathFromStr("address"),
		"bool":              orderedmap.PathFromStr("bool"),
		"custom-string":     orderedmap.PathFromStr("customString"),
		"duration":          orderedmap.PathFromStr("duration"),
		"duration-nullable": orderedmap.PathFromStr("durationNullable"),
		"embedded":          orderedmap.PathFromStr("embedded"),
		"float":             orderedmap.PathFromStr("float"),
		"int":               orderedmap.PathFromStr("int"),
		"nested-bar":        orderedmap.PathFromStr("nested.bar"),
		"nested-foo":        orderedmap.PathFromStr("nested.foo"),
		"sensitive-string":  orderedmap.PathFromStr("sensitiveString"),
		"string-slice":      orderedmap.PathFromStr("stringSlice"),
		"string-with-usage": orderedmap.PathFromStr("stringWithUsage"),
		"url":               orderedmap.PathFromStr("url"),
	}
	assert.Equal(t, expected, flagToField1)
	assert.Equal(t, expected, flagToField2)
}

func TestGenerateFlags(t *testing.T) {
	t.Parallel()

	in := TestConfig{
		Embedded:        Embedded{EmbeddedField: "embedded value"},
		CustomString:    "custom",
		StringSlice:     []string{"a", "b"},
		Int:             123,
		StringWithUsage: "value",
	}

	fs := pflag.NewFlagSet("", pflag.ContinueOnError)
	require.NoError(t, GenerateFlags(fs, in))

	assert.Equal(t, "embedded value", fs.Lookup("embedded").DefValue)
	assert.Equal(t, "custom", fs.Lookup("custom-string").DefValue)
	assert.Equal(t, "[a,b]", fs.Lookup("string-slice").DefValue)
	assert.Equal(t, "123", fs.Lookup("int").DefValue)
	assert.Equal(t, "i", fs.Lookup("int").Shorthand)
	assert.Equal(t, "An usage text.", fs.Lookup("string-with-usage").Usage)
	assert.Empty(t, fs.Lookup("duration").DefValue)
	assert.Nil(t, fs.Lookup("ignored"))
}

func TestGenerateFlags_NotStruct(t *testing.T) {
	t.Parallel()
	fs := pflag.NewFlagSet("", pflag.ContinueOnError)
	err := GenerateFlags(fs, "foo")
	require.Error(t, err)
	assert.Equal(t, `cannot generate flags from type "string": it is not a struct or a pointer to a struct`, err.Error())
}
