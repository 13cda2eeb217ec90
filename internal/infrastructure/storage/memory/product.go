package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"retailops/internal/core/apperror"
	"retailops/internal/core/id"
	"retailops/internal/core/types"
	"retailops/internal/domain"
	"retailops/internal/domain/catalog/product"
	"retailops/internal/domain/ledger"
)

// ProductRepo implements product.Repository.
type ProductRepo struct{ store *Store }

// NewProductRepo creates a product repository over store.
func NewProductRepo(store *Store) *ProductRepo { return &ProductRepo{store: store} }

var _ product.Repository = (*ProductRepo)(nil)

func (r *ProductRepo) Create(ctx context.Context, p *product.Product) error {
	return r.store.write(ctx, func(st *state) error {
		if _, exists := st.products[p.ID]; exists {
			return apperror.NewDuplicate("product", "id", p.ID.String())
		}
		if p.SKU != nil {
			for _, other := range st.products {
				if other.SKU != nil && strings.EqualFold(*other.SKU, *p.SKU) {
					return apperror.NewDuplicate("product", "sku", *p.SKU)
				}
			}
		}
		st.products[p.ID] = cloneProduct(p)
		return nil
	})
}

func (r *ProductRepo) GetByID(ctx context.Context, productID id.ID) (*product.Product, error) {
	var out *product.Product
	err := r.store.read(ctx, func(st *state) error {
		p, ok := st.products[productID]
		if !ok {
			return apperror.NewNotFound("product", productID)
		}
		out = cloneProduct(p)
		return nil
	})
	return out, err
}

func (r *ProductRepo) List(ctx context.Context, filter product.ListFilter) (domain.ListResult[*product.Product], error) {
	var matched []*product.Product
	search := strings.ToLower(strings.TrimSpace(filter.Search))

	_ = r.store.read(ctx, func(st *state) error {
		for _, p := range st.products {
			if filter.ActiveOnly && !p.IsActive {
				continue
			}
			if search != "" && !matchesSearch(p, search) {
				continue
			}
			matched = append(matched, cloneProduct(p))
		}
		return nil
	})

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Name != matched[j].Name {
			return matched[i].Name < matched[j].Name
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})
	return page(matched, filter.Pagination), nil
}

func (r *ProductRepo) SetActive(ctx context.Context, productID id.ID, active bool, at time.Time) (*product.Product, error) {
	var out *product.Product
	err := r.store.write(ctx, func(st *state) error {
		p, ok := st.products[productID]
		if !ok {
			return apperror.NewNotFound("product", productID)
		}
		p.IsActive = active
		p.Version++
		p.UpdatedAt = at.UTC()
		out = cloneProduct(p)
		return nil
	})
	return out, err
}

func matchesSearch(p *product.Product, search string) bool {
	if strings.Contains(strings.ToLower(p.Name), search) {
		return true
	}
	return p.SKU != nil && strings.Contains(strings.ToLower(*p.SKU), search)
}

// LedgerRepo implements ledger.Repository on the product collection.
type LedgerRepo struct{ store *Store }

// NewLedgerRepo creates a ledger repository over store.
func NewLedgerRepo(store *Store) *LedgerRepo { return &LedgerRepo{store: store} }

var _ ledger.Repository = (*LedgerRepo)(nil)

func (r *LedgerRepo) GetBalance(ctx context.Context, productID id.ID) (ledger.Balance, error) {
	var b ledger.Balance
	err := r.store.read(ctx, func(st *state) error {
		p, ok := st.products[productID]
		if !ok {
			return apperror.NewNotFound("product", productID)
		}
		b = ledger.Balance{ProductID: productID, Total: p.TotalStock, Current: p.CurrentStock}
		return nil
	})
	return b, err
}

func (r *LedgerRepo) ApplyDelta(ctx context.Context, productID id.ID, totalDelta, currentDelta types.Quantity) (ledger.Balance, error) {
	var b ledger.Balance
	err := r.store.write(ctx, func(st *state) error {
		p, ok := st.products[productID]
		if !ok {
			return apperror.NewNotFound("product", productID)
		}
		p.TotalStock += totalDelta
		p.CurrentStock += currentDelta
		p.UpdatedAt = time.Now().UTC()
		b = ledger.Balance{ProductID: productID, Total: p.TotalStock, Current: p.CurrentStock}
		return nil
	})
	return b, err
}

func page[T any](items []T, p domain.Pagination) domain.ListResult[T] {
	p = p.Normalize()
	total := len(items)
	start := min(p.Offset, total)
	end := min(start+p.Limit, total)
	out := make([]T, end-start)
	copy(out, items[start:end])
	return domain.ListResult[T]{Items: out, TotalCount: int64(total), Limit: p.Limit, Offset: p.Offset}
}
