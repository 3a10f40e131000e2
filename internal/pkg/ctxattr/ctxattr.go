// Package ctxattr carries log attributes in the context.Context.
package ctxattr

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
)

type ctxKey string

const attributesCtxKey = ctxKey("attributes")

// ContextWith returns a copy of the parent context with merged attributes.
// An attribute with an existing key replaces the previous value.
func ContextWith(ctx context.Context, attrs ...attribute.KeyValue) context.Context {
	if len(attrs) == 0 {
		return ctx
	}
	merged := append(Attributes(ctx).ToSlice(), attrs...)
	set := attribute.NewSet(merged...)
	return context.WithValue(ctx, attributesCtxKey, &set)
}

// Attributes returns all attributes stored in the context.
func Attributes(ctx context.Context) *attribute.Set {
	if set, ok := ctx.Value(attributesCtxKey).(*attribute.Set); ok {
		return set
	}
	return attribute.EmptySet()
}
