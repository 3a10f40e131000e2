package configmap

import (
	"reflect"

	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"

	"github.com/keboola/go-utils/pkg/orderedmap"

	"github.com/keboola/cluster-resolver/internal/pkg/utils/errors"
)

// Dump converts the configuration structure to nested maps, sensitive values are masked.
func Dump(v any) (map[string]any, error) {
	out := make(map[string]any)
	err := Visit(reflect.ValueOf(v), VisitConfig{
		OnField: mapAndFilterField(),
		OnValue: func(vc *VisitContext) error {
			if !vc.Leaf || len(vc.MappedPath) == 0 {
				return nil
			}

			var value any
			switch {
			case vc.Sensitive:
				value = sensitiveMask
			case vc.PrimitiveValue.IsValid():
				value = vc.PrimitiveValue.Interface()
			}

			setNested(out, vc.MappedPath, value)
			return nil
		},
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DumpAs encodes the configuration structure to the "json" or "yaml" format.
func DumpAs(v any, format string) ([]byte, error) {
	values, err := Dump(v)
	if err != nil {
		return nil, err
	}

	switch format {
	case "json":
		return jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(values, "", "  ")
	case "yaml":
		return yaml.Marshal(values)
	default:
		return nil, errors.Errorf(`unexpected dump format "%s", expected "json" or "yaml"`, format)
	}
}

func setNested(out map[string]any, path orderedmap.Path, value any) {
	current := out
	for i, step := range path {
		key := string(step.(orderedmap.MapStep))
		if i == len(path)-1 {
			current[key] = value
			return
		}
		next, ok := current[key].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[key] = next
		}
		current = next
	}
}
