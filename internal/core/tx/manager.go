// Package tx defines the transaction contract domain services depend on.
// Implementations live in infrastructure/storage (postgres and memory).
package tx

import (
	"context"
)

// Manager runs a unit of work atomically.
//
// Every lifecycle transition of the engine is exactly one RunInTransaction
// call: either all of its ledger deltas and the aggregate write become
// visible, or none do.
type Manager interface {
	// RunInTransaction executes fn within a transaction.
	// If fn returns an error, the transaction is rolled back and the error
	// is returned unchanged. Nested calls reuse the transaction from ctx.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Func adapts a plain function to Manager. Useful in tests that need no isolation.
type Func func(ctx context.Context, fn func(ctx context.Context) error) error

// RunInTransaction implements Manager.
func (f Func) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return f(ctx, fn)
}
