// Package catalog_repo provides the PostgreSQL product repository.
package catalog_repo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"retailops/internal/core/apperror"
	"retailops/internal/core/id"
	"retailops/internal/domain"
	"retailops/internal/domain/catalog/product"
	"retailops/internal/infrastructure/storage/postgres"
)

const productsTable = "products"

var productColumns = postgres.ExtractDBColumns[product.Product]()

// ProductRepo implements product.Repository.
type ProductRepo struct {
	txm *postgres.TxManager
}

var _ product.Repository = (*ProductRepo)(nil)

// NewProductRepo creates a product repository.
func NewProductRepo(txm *postgres.TxManager) *ProductRepo {
	return &ProductRepo{txm: txm}
}

// Create inserts p. A duplicate SKU surfaces as apperror DUPLICATE_ENTRY.
func (r *ProductRepo) Create(ctx context.Context, p *product.Product) error {
	data := postgres.PickColumns(postgres.StructToMap(p), productColumns)
	data["total_stock"] = p.TotalStock.Int64Scaled()
	data["current_stock"] = p.CurrentStock.Int64Scaled()

	sql, args, err := postgres.Builder().Insert(productsTable).SetMap(data).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(fmt.Errorf("insert %s: %w", productsTable, err))
	}
	return nil
}

// GetByID loads one product.
func (r *ProductRepo) GetByID(ctx context.Context, productID id.ID) (*product.Product, error) {
	sql, args, err := postgres.Builder().
		Select(productColumns...).
		From(productsTable).
		Where(squirrel.Eq{"id": productID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var p product.Product
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("product", productID.String())
		}
		return nil, postgres.MapError(fmt.Errorf("get product: %w", err))
	}
	return &p, nil
}

// List returns products ordered by name.
func (r *ProductRepo) List(ctx context.Context, filter product.ListFilter) (domain.ListResult[*product.Product], error) {
	return postgres.SelectPage[*product.Product](ctx, r.txm.GetQuerier(ctx),
		r.listQuery(filter), filter.Pagination, "name", "id")
}

func (r *ProductRepo) listQuery(filter product.ListFilter) squirrel.SelectBuilder {
	q := postgres.Builder().Select(productColumns...).From(productsTable)
	if filter.ActiveOnly {
		q = q.Where(squirrel.Eq{"is_active": true})
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		pattern := "%" + s + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"name": pattern},
			squirrel.ILike{"sku": pattern},
		})
	}
	return q
}

// SetActive flips is_active and returns the updated row.
func (r *ProductRepo) SetActive(ctx context.Context, productID id.ID, active bool, at time.Time) (*product.Product, error) {
	sql, args, err := postgres.Builder().
		Update(productsTable).
		Set("is_active", active).
		Set("updated_at", at.UTC()).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": productID}).
		Suffix("RETURNING " + strings.Join(productColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update: %w", err)
	}

	var p product.Product
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("product", productID.String())
		}
		return nil, postgres.MapError(fmt.Errorf("set product active: %w", err))
	}
	return &p, nil
}
