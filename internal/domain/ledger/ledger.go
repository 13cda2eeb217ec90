// Package ledger owns every mutation of a product's stock counters.
//
// All changes are deltas applied by the store in a single statement
// (x = x + delta), so concurrent transitions touching the same product
// compose instead of overwriting each other.
package ledger

import (
	"context"

	"retailops/internal/core/id"
	"retailops/internal/core/types"
)

// Balance is a snapshot of one product's counters.
type Balance struct {
	ProductID id.ID          `json:"productId"`
	Total     types.Quantity `json:"totalStock"`
	Current   types.Quantity `json:"currentStock"`
}

// Movement is the before/after of one ledger mutation.
type Movement struct {
	ProductID id.ID   `json:"productId"`
	Before    Balance `json:"before"`
	After     Balance `json:"after"`
}

// TotalDelta is After.Total - Before.Total.
func (m Movement) TotalDelta() types.Quantity { return m.After.Total - m.Before.Total }

// CurrentDelta is After.Current - Before.Current.
func (m Movement) CurrentDelta() types.Quantity { return m.After.Current - m.Before.Current }

// Repository is the storage port of the ledger.
type Repository interface {
	// GetBalance returns apperror NotFound for an unknown product.
	GetBalance(ctx context.Context, productID id.ID) (Balance, error)

	// ApplyDelta adds the deltas to the stored counters atomically and
	// returns the balance after the write. Unknown product: NotFound.
	ApplyDelta(ctx context.Context, productID id.ID, totalDelta, currentDelta types.Quantity) (Balance, error)
}
