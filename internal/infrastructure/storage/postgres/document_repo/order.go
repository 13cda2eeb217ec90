package document_repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Masterminds/squirrel"

	"retailops/internal/core/id"
	"retailops/internal/domain"
	"retailops/internal/domain/documents/order"
	"retailops/internal/infrastructure/storage/postgres"
)

// orderRow is an orders row with its JSONB items.
type orderRow struct {
	order.Order
	ItemsJSON []byte `db:"items"`
}

func (r *orderRow) toDomain() (*order.Order, error) {
	o := r.Order
	if err := json.Unmarshal(r.ItemsJSON, &o.Items); err != nil {
		return nil, fmt.Errorf("decode order %s items: %w", o.ID, err)
	}
	return &o, nil
}

var orderColumns = postgres.ExtractDBColumns[order.Order]()

// OrderRepo implements order.Repository.
type OrderRepo struct {
	table docTable[orderRow]
}

var _ order.Repository = (*OrderRepo)(nil)

// NewOrderRepo creates an order repository.
func NewOrderRepo(txm *postgres.TxManager) *OrderRepo {
	return &OrderRepo{table: docTable[orderRow]{
		name:    "orders",
		entity:  "order",
		columns: append(append([]string{}, orderColumns...), "items"),
		txm:     txm,
	}}
}

// Create inserts o with its items.
func (r *OrderRepo) Create(ctx context.Context, o *order.Order) error {
	data, err := orderData(o)
	if err != nil {
		return err
	}
	return r.table.insert(ctx, data)
}

// GetByID loads one order.
func (r *OrderRepo) GetByID(ctx context.Context, orderID id.ID) (*order.Order, error) {
	row, err := r.table.get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return row.toDomain()
}

// Update writes o guarded by status and version.
func (r *OrderRepo) Update(ctx context.Context, o *order.Order, from []order.Status, expectedVersion int) error {
	data, err := orderData(o)
	if err != nil {
		return err
	}
	statuses := make([]string, len(from))
	for i, s := range from {
		statuses[i] = string(s)
	}
	data = pickUpdatable(r.table.columns, data)
	return r.table.guardedUpdate(ctx, o.ID, data, statuses, expectedVersion)
}

// List returns orders, newest order date first.
func (r *OrderRepo) List(ctx context.Context, filter order.ListFilter) (domain.ListResult[*order.Order], error) {
	q := r.table.selectQuery()
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": string(*filter.Status)})
	}

	page, err := postgres.SelectPage[*orderRow](ctx, r.table.txm.GetQuerier(ctx), q, filter.Pagination, "order_date DESC", "id DESC")
	if err != nil {
		return domain.ListResult[*order.Order]{}, err
	}

	out := domain.ListResult[*order.Order]{
		Items:      make([]*order.Order, 0, len(page.Items)),
		TotalCount: page.TotalCount,
		Limit:      page.Limit,
		Offset:     page.Offset,
	}
	for _, row := range page.Items {
		o, err := row.toDomain()
		if err != nil {
			return domain.ListResult[*order.Order]{}, err
		}
		out.Items = append(out.Items, o)
	}
	return out, nil
}

func orderData(o *order.Order) (map[string]any, error) {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return nil, fmt.Errorf("encode order items: %w", err)
	}
	data := postgres.PickColumns(postgres.StructToMap(o), orderColumns)
	data["status"] = string(o.Status)
	data["items"] = items
	return data, nil
}
