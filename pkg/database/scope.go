package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Scope wraps a single pooled connection for the duration of one logical
// operation. Repositories read the scope from the context, so every call
// in the operation shares the connection and, when a transaction is open
// on it, the transaction.
type Scope struct {
	Conn *pgxpool.Conn
}

// Close releases the connection back to the pool.
// It MUST be called, typically with defer, once the operation finishes.
func (s *Scope) Close() {
	if s.Conn == nil {
		return
	}
	s.Conn.Release()
}

// NewScope acquires a connection from the pool and wraps it in a Scope.
// The returned Scope MUST be closed with defer scope.Close().
func (db *DB) NewScope(ctx context.Context) (*Scope, error) {
	conn, err := db.Pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	return &Scope{Conn: conn}, nil
}

// WithScope runs fn with a context that carries a connection scope. A
// scope already present on ctx is reused, so nested service calls share
// one connection; otherwise a fresh one is acquired and released when fn
// returns.
func (db *DB) WithScope(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := GetScope(ctx); ok {
		return fn(ctx)
	}
	scope, err := db.NewScope(ctx)
	if err != nil {
		return err
	}
	defer scope.Close()
	return fn(SetScope(ctx, scope))
}
