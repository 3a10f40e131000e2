// Package validator wraps the go-playground validator with EN translations and custom rules.
package validator

import (
	"context"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslation "github.com/go-playground/validator/v10/translations/en"

	"github.com/keboola/cluster-resolver/internal/pkg/utils/errors"
)

const nestedFieldName = "__nested__"

type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

// Rule is a custom validation rule.
type Rule struct {
	Tag          string
	Func         validator.FuncCtx
	ErrorMessage string
}

func New(rules ...Rule) *Validator {
	v := &Validator{validate: validator.New(validator.WithRequiredStructEnabled())}

	// Register default EN translator
	enLocale := en.New()
	translator, found := ut.New(enLocale, enLocale).GetTranslator("en")
	if !found {
		panic(errors.New("en translator was not found"))
	}
	if err := enTranslation.RegisterDefaultTranslations(v.validate, translator); err != nil {
		panic(errors.PrefixError(err, "translator was not registered"))
	}
	v.translator = translator

	// Register custom rules
	rules = append(durationRules(), rules...)
	for _, rule := range rules {
		v.registerRule(rule)
	}

	// Use the config key, JSON or YAML name in error messages
	v.validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		if field.Anonymous || strings.HasSuffix(field.Tag.Get("configKey"), ",squash") {
			return nestedFieldName
		}
		for _, tag := range []string{"configKey", "json", "yaml"} {
			name := strings.SplitN(field.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return field.Name
	})

	return v
}

// Validate the value, a struct is validated by its tags, a slice by its items.
func (v *Validator) Validate(ctx context.Context, value any) error {
	return v.ValidateCtx(ctx, value, "dive", "")
}

// ValidateCtx validates the value by the tag, error messages are prefixed with the namespace.
func (v *Validator) ValidateCtx(ctx context.Context, value any, tag string, namespace string) error {
	if reflect.ValueOf(value).Kind() == reflect.Pointer {
		value = reflect.ValueOf(value).Elem().Interface()
	}

	var err error
	if reflect.ValueOf(value).Kind() == reflect.Struct {
		err = v.validate.StructCtx(ctx, value)
	} else {
		err = v.validate.VarCtx(ctx, value, tag)
	}
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	errs := errors.NewMultiErrorNoTrace()
	for _, e := range validationErrs {
		path := processNamespace(e.Namespace())
		if namespace != "" {
			path = strings.TrimSuffix(namespace+"."+path, ".")
		}
		msg := e.Translate(v.translator)
		msg = strings.Replace(msg, e.Field(), `"`+path+`"`, 1)
		errs.Append(errors.New(msg))
	}
	return errs.ErrorOrNil()
}

func (v *Validator) registerRule(rule Rule) {
	if err := v.validate.RegisterValidationCtx(rule.Tag, rule.Func); err != nil {
		panic(err)
	}
	if rule.ErrorMessage == "" {
		return
	}
	err := v.validate.RegisterTranslation(
		rule.Tag,
		v.translator,
		func(ut ut.Translator) error {
			return ut.Add(rule.Tag, rule.ErrorMessage, true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			t, err := ut.T(rule.Tag, fe.Field(), fe.Param())
			if err != nil {
				return fe.Error()
			}
			return t
		},
	)
	if err != nil {
		panic(err)
	}
}

func durationRules() []Rule {
	return []Rule{
		{
			Tag:          "minDuration",
			ErrorMessage: "{0} must be {1} or greater",
			Func: func(_ context.Context, fl validator.FieldLevel) bool {
				limit, err := time.ParseDuration(fl.Param())
				if err != nil {
					panic(errors.PrefixErrorf(err, `invalid "minDuration" parameter "%s"`, fl.Param()))
				}
				return time.Duration(fl.Field().Int()) >= limit
			},
		},
		{
			Tag:          "maxDuration",
			ErrorMessage: "{0} must be {1} or less",
			Func: func(_ context.Context, fl validator.FieldLevel) bool {
				limit, err := time.ParseDuration(fl.Param())
				if err != nil {
					panic(errors.PrefixErrorf(err, `invalid "maxDuration" parameter "%s"`, fl.Param()))
				}
				return time.Duration(fl.Field().Int()) <= limit
			},
		},
	}
}

// processNamespace removes the struct name and the nested parts.
func processNamespace(namespace string) string {
	namespace = strings.ReplaceAll(namespace, nestedFieldName+".", "")
	_, after, found := strings.Cut(namespace, ".")
	if !found {
		return namespace
	}
	return after
}
