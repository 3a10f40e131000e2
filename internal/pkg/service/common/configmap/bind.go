package configmap

import (
	"context"
	"io"
	"reflect"

	"github.com/keboola/go-utils/pkg/orderedmap"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/keboola/cluster-resolver/internal/pkg/env"
	"github.com/keboola/cluster-resolver/internal/pkg/utils/errors"
	"github.com/keboola/cluster-resolver/internal/pkg/validator"
)

type BindSpec struct {
	// AppName is used in the help text.
	AppName string
	// Args are command line arguments, without the program name.
	Args                   []string
	Envs                   env.Provider
	EnvNaming              *env.NamingConvention
	GenerateHelpFlag       bool
	GenerateConfigFileFlag bool
	GenerateDumpConfigFlag bool
}

// DumpError is returned if the dump of the configuration is requested by the flag.
type DumpError struct {
	Dump []byte
}

func (e DumpError) Error() string {
	return "dump requested"
}

// Bind flags, ENVs and config files to the target configuration structure.
// The target is normalized and validated.
func Bind(spec BindSpec, target any) error {
	if reflect.ValueOf(target).Kind() != reflect.Pointer {
		return errors.Errorf(`target must be a pointer, found "%T"`, target)
	}

	// Generate flags
	fs := pflag.NewFlagSet(spec.AppName, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	if err := GenerateFlags(fs, target); err != nil {
		return err
	}
	if spec.GenerateHelpFlag {
		fs.BoolP(HelpFlag, "h", false, "Print help message.")
	}
	if spec.GenerateConfigFileFlag {
		fs.StringSlice(ConfigFileFlag, nil, "Path to a JSON/YAML configuration file.")
	}
	if spec.GenerateDumpConfigFlag {
		fs.String(DumpConfigFlag, "", `Dump the effective configuration to STDOUT, "json" or "yaml".`)
	}

	// Parse flags
	if err := fs.Parse(spec.Args); err != nil {
		return err
	}
	if spec.GenerateHelpFlag {
		if help, _ := fs.GetBool(HelpFlag); help {
			return newHelpError(spec.AppName, fs, spec)
		}
	}

	var configFiles []string
	if spec.GenerateConfigFileFlag {
		configFiles, _ = fs.GetStringSlice(ConfigFileFlag)
	}

	// Collect values
	flagToField := make(map[string]orderedmap.Path)
	if err := flagFieldMapTo(target, flagToField); err != nil {
		return err
	}
	v := viper.New()
	if _, err := BindToViper(v, fs, flagToFieldFn(flagToField), spec.Envs, spec.EnvNaming, configFiles); err != nil {
		return err
	}

	// Decode values to the target, values which are not set keep their default
	if err := decode(v.AllSettings(), target); err != nil {
		return err
	}

	if err := normalizeAndValidate(target); err != nil {
		return err
	}

	if spec.GenerateDumpConfigFlag {
		if format, _ := fs.GetString(DumpConfigFlag); format != "" {
			dump, err := DumpAs(target, format)
			if err != nil {
				return err
			}
			return DumpError{Dump: dump}
		}
	}

	return nil
}

func decode(values map[string]any, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          configKeyTag,
		Result:           target,
		WeaklyTypedInput: true,
		ZeroFields:       true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			textUnmarshalerHook(),
			mapstructure.StringToSliceHookFunc(tagValuesSeparator),
		),
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(values); err != nil {
		return errors.PrefixError(err, "cannot decode configuration")
	}
	return nil
}

// textUnmarshalerHook converts a string to a type with a text form, for example time.Duration.
func textUnmarshalerHook() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.String {
			return data, nil
		}

		target := reflect.New(to).Elem()
		if err := UnmarshalText([]byte(reflect.ValueOf(data).String()), target); err != nil {
			if noText := (NoTextTypeError{}); errors.As(err, &noText) {
				return data, nil
			}
			return nil, err
		}
		return target.Interface(), nil
	}
}

func normalizeAndValidate(target any) error {
	if v, ok := target.(ValueWithNormalization); ok {
		v.Normalize()
	}
	if err := validator.New().Validate(context.Background(), target); err != nil {
		return errors.PrefixError(err, "invalid configuration")
	}
	if v, ok := target.(ValueWithValidation); ok {
		if err := v.Validate(); err != nil {
			return errors.PrefixError(err, "invalid configuration")
		}
	}
	return nil
}
