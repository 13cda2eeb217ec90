package order

import (
	"context"

	"retailops/internal/core/id"
	"retailops/internal/domain"
)

// ListFilter narrows List results.
type ListFilter struct {
	domain.Pagination

	Status *Status
}

// Repository persists orders with their items.
type Repository interface {
	Create(ctx context.Context, o *Order) error

	// GetByID returns apperror NotFound for an unknown order.
	GetByID(ctx context.Context, orderID id.ID) (*Order, error)

	// Update writes o only if the stored row still has one of the statuses
	// in from and version expectedVersion, else Conflict.
	Update(ctx context.Context, o *Order, from []Status, expectedVersion int) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Order], error)
}
