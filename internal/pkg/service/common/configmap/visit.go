package configmap

import (
	"reflect"
	"slices"

	"github.com/keboola/go-utils/pkg/orderedmap"

	"github.com/keboola/cluster-resolver/internal/pkg/utils/errors"
)

// OnField maps the struct field to a key, ok=false means that the field is skipped.
// An empty fieldName with ok=true means that the struct is squashed into the parent.
type OnField func(field reflect.StructField, path orderedmap.Path) (fieldName string, ok bool)

type OnValue func(vc *VisitContext) error

type VisitConfig struct {
	OnField OnField
	OnValue OnValue
}

type VisitContext struct {
	StructField reflect.StructField
	// MappedPath is composed of the mapped field names.
	MappedPath orderedmap.Path
	// Value is invalid, if a parent value is a nil pointer.
	Value reflect.Value
	// PrimitiveValue is a basic type, a slice or the text form of the value. It is set only for a leaf.
	PrimitiveValue reflect.Value
	// Leaf is a value without nested fields.
	Leaf      bool
	Sensitive bool
	Usage     string
	Shorthand string
}

var primitiveTypes = map[reflect.Kind]reflect.Type{
	reflect.Bool:    reflect.TypeOf(false),
	reflect.String:  reflect.TypeOf(""),
	reflect.Int:     reflect.TypeOf(0),
	reflect.Int8:    reflect.TypeOf(int8(0)),
	reflect.Int16:   reflect.TypeOf(int16(0)),
	reflect.Int32:   reflect.TypeOf(int32(0)),
	reflect.Int64:   reflect.TypeOf(int64(0)),
	reflect.Uint:    reflect.TypeOf(uint(0)),
	reflect.Uint8:   reflect.TypeOf(uint8(0)),
	reflect.Uint16:  reflect.TypeOf(uint16(0)),
	reflect.Uint32:  reflect.TypeOf(uint32(0)),
	reflect.Uint64:  reflect.TypeOf(uint64(0)),
	reflect.Float32: reflect.TypeOf(float32(0)),
	reflect.Float64: reflect.TypeOf(float64(0)),
}

// Visit all nested fields of the value, structs are iterated, other values are leaves.
func Visit(value reflect.Value, cfg VisitConfig) error {
	return visit(value, value.Type(), nil, reflect.StructField{}, cfg)
}

func visit(value reflect.Value, typ reflect.Type, path orderedmap.Path, field reflect.StructField, cfg VisitConfig) error {
	vc := &VisitContext{
		StructField: field,
		MappedPath:  path,
		Value:       value,
		Sensitive:   field.Tag.Get(sensitiveTag) == "true",
		Usage:       field.Tag.Get(configUsageTag),
		Shorthand:   field.Tag.Get(configShorthandTag),
	}

	// Types with a text form are leaves
	text, err := MarshalText(typ, value)
	if err == nil {
		vc.Leaf = true
		vc.PrimitiveValue = reflect.ValueOf(string(text))
		return cfg.OnValue(vc)
	} else if noText := (NoTextTypeError{}); !errors.As(err, &noText) {
		return errors.PrefixErrorf(err, `cannot marshal "%s"`, path.String())
	}

	// Dereference pointer
	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
		if value.IsValid() {
			if value.IsNil() {
				value = reflect.Value{}
			} else {
				value = value.Elem()
			}
		}
	}

	if typ.Kind() != reflect.Struct {
		vc.Leaf = true
		if !value.IsValid() {
			value = reflect.Zero(typ)
		}
		if t, ok := primitiveTypes[typ.Kind()]; ok {
			value = value.Convert(t)
		}
		vc.PrimitiveValue = value
		return cfg.OnValue(vc)
	}

	if err := cfg.OnValue(vc); err != nil {
		return err
	}

	for i := range typ.NumField() {
		structField := typ.Field(i)
		if !structField.IsExported() {
			continue
		}

		fieldName, ok := cfg.OnField(structField, path)
		if !ok {
			continue
		}

		fieldPath := path
		if fieldName != "" {
			fieldPath = append(slices.Clone(path), orderedmap.MapStep(fieldName))
		}

		var fieldValue reflect.Value
		if value.IsValid() {
			fieldValue = value.Field(i)
		}

		if err := visit(fieldValue, structField.Type, fieldPath, structField, cfg); err != nil {
			return err
		}
	}

	return nil
}
