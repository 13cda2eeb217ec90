package memory

import (
	"context"
	"slices"
	"sort"
	"time"

	"retailops/internal/core/apperror"
	"retailops/internal/core/id"
	"retailops/internal/domain"
	"retailops/internal/domain/documents/order"
	"retailops/internal/domain/documents/packlist"
)

// PacklistRepo implements packlist.Repository.
type PacklistRepo struct{ store *Store }

// NewPacklistRepo creates a packlist repository over store.
func NewPacklistRepo(store *Store) *PacklistRepo { return &PacklistRepo{store: store} }

var _ packlist.Repository = (*PacklistRepo)(nil)

func (r *PacklistRepo) Create(ctx context.Context, p *packlist.Packlist) error {
	return r.store.write(ctx, func(st *state) error {
		if _, exists := st.packlists[p.ID]; exists {
			return apperror.NewDuplicate("packlist", "id", p.ID.String())
		}
		st.packlists[p.ID] = p.Clone()
		return nil
	})
}

func (r *PacklistRepo) GetByID(ctx context.Context, packlistID id.ID) (*packlist.Packlist, error) {
	var out *packlist.Packlist
	err := r.store.read(ctx, func(st *state) error {
		p, ok := st.packlists[packlistID]
		if !ok {
			return apperror.NewNotFound("packlist", packlistID)
		}
		out = p.Clone()
		return nil
	})
	return out, err
}

func (r *PacklistRepo) Update(ctx context.Context, p *packlist.Packlist, from packlist.Status, expectedVersion int) error {
	return r.store.write(ctx, func(st *state) error {
		stored, ok := st.packlists[p.ID]
		if !ok {
			return apperror.NewNotFound("packlist", p.ID)
		}
		if stored.Status != from || stored.Version != expectedVersion {
			return apperror.NewConcurrentModification("packlist", p.ID)
		}
		st.packlists[p.ID] = p.Clone()
		return nil
	})
}

func (r *PacklistRepo) List(ctx context.Context, filter packlist.ListFilter) (domain.ListResult[*packlist.Packlist], error) {
	var matched []*packlist.Packlist
	_ = r.store.read(ctx, func(st *state) error {
		for _, p := range st.packlists {
			if filter.Status != nil && p.Status != *filter.Status {
				continue
			}
			if filter.PosID != nil && p.PosID != *filter.PosID {
				continue
			}
			if filter.DateFrom != nil && p.Date.Before(packlist.BusinessDay(*filter.DateFrom)) {
				continue
			}
			if filter.DateTo != nil && p.Date.After(packlist.BusinessDay(*filter.DateTo)) {
				continue
			}
			matched = append(matched, p.Clone())
		}
		return nil
	})

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].Date.Equal(matched[j].Date) {
			return matched[i].Date.After(matched[j].Date)
		}
		return matched[i].ID.String() > matched[j].ID.String()
	})
	return page(matched, filter.Pagination), nil
}

func (r *PacklistRepo) ListCompleted(ctx context.Context, since *time.Time) ([]*packlist.Packlist, error) {
	var out []*packlist.Packlist
	_ = r.store.read(ctx, func(st *state) error {
		for _, p := range st.packlists {
			if p.Status != packlist.StatusCompleted {
				continue
			}
			if since != nil && p.Date.Before(*since) {
				continue
			}
			out = append(out, p.Clone())
		}
		return nil
	})
	return out, nil
}

// OrderRepo implements order.Repository.
type OrderRepo struct{ store *Store }

// NewOrderRepo creates an order repository over store.
func NewOrderRepo(store *Store) *OrderRepo { return &OrderRepo{store: store} }

var _ order.Repository = (*OrderRepo)(nil)

func (r *OrderRepo) Create(ctx context.Context, o *order.Order) error {
	return r.store.write(ctx, func(st *state) error {
		if _, exists := st.orders[o.ID]; exists {
			return apperror.NewDuplicate("order", "id", o.ID.String())
		}
		st.orders[o.ID] = o.Clone()
		return nil
	})
}

func (r *OrderRepo) GetByID(ctx context.Context, orderID id.ID) (*order.Order, error) {
	var out *order.Order
	err := r.store.read(ctx, func(st *state) error {
		o, ok := st.orders[orderID]
		if !ok {
			return apperror.NewNotFound("order", orderID)
		}
		out = o.Clone()
		return nil
	})
	return out, err
}

func (r *OrderRepo) Update(ctx context.Context, o *order.Order, from []order.Status, expectedVersion int) error {
	return r.store.write(ctx, func(st *state) error {
		stored, ok := st.orders[o.ID]
		if !ok {
			return apperror.NewNotFound("order", o.ID)
		}
		if !slices.Contains(from, stored.Status) || stored.Version != expectedVersion {
			return apperror.NewConcurrentModification("order", o.ID)
		}
		st.orders[o.ID] = o.Clone()
		return nil
	})
}

func (r *OrderRepo) List(ctx context.Context, filter order.ListFilter) (domain.ListResult[*order.Order], error) {
	var matched []*order.Order
	_ = r.store.read(ctx, func(st *state) error {
		for _, o := range st.orders {
			if filter.Status != nil && o.Status != *filter.Status {
				continue
			}
			matched = append(matched, o.Clone())
		}
		return nil
	})

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].ID.String() > matched[j].ID.String()
	})
	return page(matched, filter.Pagination), nil
}
