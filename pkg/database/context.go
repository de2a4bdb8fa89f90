package database

import (
	"context"
)

type contextKey string

// ScopeKey is the context key for storing the connection scope.
const ScopeKey contextKey = "connectionScope"

// GetScope retrieves the connection scope from context.
// Returns nil and false if not present.
func GetScope(ctx context.Context) (*Scope, bool) {
	scope, ok := ctx.Value(ScopeKey).(*Scope)
	return scope, ok
}

// SetScope stores the connection scope in context.
func SetScope(ctx context.Context, scope *Scope) context.Context {
	return context.WithValue(ctx, ScopeKey, scope)
}
