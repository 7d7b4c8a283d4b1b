// Package tx defines the transaction boundary used by domain services.
// The decrement engine and the order lifecycle depend on this interface
// only; the pgx-backed implementation lives in infrastructure/storage.
package tx

import (
	"context"
)

// Manager runs a function inside a database transaction.
type Manager interface {
	// RunInTransaction executes fn within a transaction. If fn returns an
	// error the transaction is rolled back, otherwise it is committed.
	// Nested calls reuse the transaction already carried by ctx.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager extends Manager with read-only transactions, used by the
// reconciliation pipeline to get a consistent snapshot across stores.
type ReadOnlyManager interface {
	Manager

	// ReadOnly executes fn in a read-only transaction.
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}
