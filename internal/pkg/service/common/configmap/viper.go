package configmap

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/keboola/cluster-resolver/internal/pkg/env"
	"github.com/keboola/cluster-resolver/internal/pkg/utils/errors"
)

// BindToViper sets values from flags, ENVs and config files to the Viper configuration registry.
// Only the set values are stored, a flag default is not stored, it is reported as SetByDefault.
// It is recommended to use the Bind instead of the BindToViper method if you have a choice,
// as the configuration structure is easier to use, both in production code and tests.
func BindToViper(v *viper.Viper, flags *pflag.FlagSet, flagToField FlagToFieldFn, envs env.Provider, envNaming *env.NamingConvention, configFiles []string) (map[string]SetBy, error) {
	// Merge config files
	files := viper.New()
	for _, path := range configFiles {
		files.SetConfigFile(path)
		if err := files.MergeInConfig(); err != nil {
			return nil, errors.PrefixErrorf(err, `cannot read config file "%s"`, path)
		}
	}

	setBy := make(map[string]SetBy)
	flags.VisitAll(func(flag *pflag.Flag) {
		path, ok := flagToField(flag)
		if !ok {
			return
		}

		key := path.String()
		if flag.Changed {
			v.Set(key, flagValue(flag))
			setBy[key] = SetByFlag
			return
		}
		if envs != nil && envNaming != nil {
			if value, found := envs.Lookup(envNaming.FlagToEnv(flag.Name)); found {
				v.Set(key, value)
				setBy[key] = SetByEnv
				return
			}
		}
		if files.IsSet(key) {
			v.Set(key, files.Get(key))
			setBy[key] = SetByConfig
			return
		}
		setBy[key] = SetByDefault
	})

	return setBy, nil
}

func flagValue(flag *pflag.Flag) any {
	if v, ok := flag.Value.(pflag.SliceValue); ok {
		return v.GetSlice()
	}
	return flag.Value.String()
}
