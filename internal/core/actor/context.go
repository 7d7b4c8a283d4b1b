// Package actor carries the acting device or staff label through context.
// It feeds the appliedBy field of the ledger and the audit trail. Identity
// is asserted by the caller (the pharmacy runs a handful of trusted
// devices); authentication itself is outside this service.
package actor

import (
	"context"
)

// Anonymous is recorded when no actor label was supplied.
const Anonymous = "anonymous"

type actorKey struct{}

type requestIDKey struct{}

// WithActor stores the actor label in the context.
func WithActor(ctx context.Context, name string) context.Context {
	if name == "" {
		return ctx
	}
	return context.WithValue(ctx, actorKey{}, name)
}

// FromContext returns the actor label, or Anonymous when absent.
func FromContext(ctx context.Context) string {
	if name, ok := ctx.Value(actorKey{}).(string); ok && name != "" {
		return name
	}
	return Anonymous
}

// WithRequestID stores the request id in the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the request id, or "" when absent.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}
