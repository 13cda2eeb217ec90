package packlist

import (
	"context"
	"time"

	"retailops/internal/core/id"
	"retailops/internal/domain"
)

// ListFilter narrows List results.
type ListFilter struct {
	domain.Pagination

	Status *Status
	PosID  *id.ID

	// DateFrom and DateTo bound the business day, both inclusive.
	DateFrom *time.Time
	DateTo   *time.Time
}

// Repository persists packlists with their items.
type Repository interface {
	Create(ctx context.Context, p *Packlist) error

	// GetByID returns apperror NotFound for an unknown packlist.
	GetByID(ctx context.Context, packlistID id.ID) (*Packlist, error)

	// Update writes p only if the stored row still has status from and
	// version expectedVersion. Otherwise it returns a Conflict and writes nothing.
	Update(ctx context.Context, p *Packlist, from Status, expectedVersion int) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Packlist], error)

	// ListCompleted returns every completed packlist whose business day is
	// on or after since. A nil since returns all of them.
	ListCompleted(ctx context.Context, since *time.Time) ([]*Packlist, error)
}
