// Package configmap maps a configuration structure to flags, ENVs and config files.
//
// Each field tagged by the "configKey" tag is mapped:
//   - to a flag, for example "nested.fooBar" to "--nested-foo-bar",
//   - to an ENV, for example "--nested-foo-bar" to "MY_APP_NESTED_FOO_BAR",
//   - to a key in JSON/YAML config files.
//
// Priority of the sources: 1. flag, 2. ENV, 3. config file, 4. default value.
package configmap

const (
	configKeyTag       = "configKey"
	configUsageTag     = "configUsage"
	configShorthandTag = "configShorthand"
	sensitiveTag       = "sensitive"
	tagValuesSeparator = ","
	sensitiveMask      = "*****"
	HelpFlag           = "help"
	ConfigFileFlag     = "config-file"
	DumpConfigFlag     = "dump-config"
)

const (
	SetByUnknown SetBy = iota
	SetByDefault
	SetByConfig
	SetByEnv
	SetByFlag
)

// SetBy is the source of a configuration value.
type SetBy int

// ValueWithNormalization is called after the binding, before the validation.
type ValueWithNormalization interface {
	Normalize()
}

// ValueWithValidation is called after the tags validation.
type ValueWithValidation interface {
	Validate() error
}

func (v SetBy) String() string {
	switch v {
	case SetByDefault:
		return "default"
	case SetByConfig:
		return "config"
	case SetByEnv:
		return "env"
	case SetByFlag:
		return "flag"
	default:
		return "unknown"
	}
}
