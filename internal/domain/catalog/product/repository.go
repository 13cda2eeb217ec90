package product

import (
	"context"
	"time"

	"retailops/internal/core/id"
	"retailops/internal/domain"
)

// ListFilter narrows List results.
type ListFilter struct {
	domain.Pagination

	// ActiveOnly hides retired products
	ActiveOnly bool

	// Search matches name or SKU, case-insensitive
	Search string
}

// Repository persists products. Stock counters are written only through
// the ledger repository.
type Repository interface {
	Create(ctx context.Context, p *Product) error

	// GetByID returns apperror NotFound when the product does not exist.
	GetByID(ctx context.Context, productID id.ID) (*Product, error)

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Product], error)

	// SetActive flips IsActive, bumps the version and returns the stored row.
	SetActive(ctx context.Context, productID id.ID, active bool, at time.Time) (*Product, error)
}
