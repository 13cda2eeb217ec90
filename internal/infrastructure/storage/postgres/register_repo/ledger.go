// Package register_repo provides the PostgreSQL stock ledger.
package register_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"retailops/internal/core/apperror"
	"retailops/internal/core/id"
	"retailops/internal/core/types"
	"retailops/internal/domain/ledger"
	"retailops/internal/infrastructure/storage/postgres"
)

const productsTable = "products"

// balanceRow scans the counters of one product.
type balanceRow struct {
	ID           id.ID `db:"id"`
	TotalStock   int64 `db:"total_stock"`
	CurrentStock int64 `db:"current_stock"`
}

func (b balanceRow) toBalance() ledger.Balance {
	return ledger.Balance{
		ProductID: b.ID,
		Total:     types.Quantity(b.TotalStock),
		Current:   types.Quantity(b.CurrentStock),
	}
}

// LedgerRepo implements ledger.Repository on the products table.
// Counters are never read-modified-written: every change is one
// UPDATE ... SET x = x + delta, so concurrent transactions compose.
type LedgerRepo struct {
	txm *postgres.TxManager
}

var _ ledger.Repository = (*LedgerRepo)(nil)

// NewLedgerRepo creates the ledger repository.
func NewLedgerRepo(txm *postgres.TxManager) *LedgerRepo {
	return &LedgerRepo{txm: txm}
}

// GetBalance returns the counters of productID.
func (r *LedgerRepo) GetBalance(ctx context.Context, productID id.ID) (ledger.Balance, error) {
	sql, args, err := postgres.Builder().
		Select("id", "total_stock", "current_stock").
		From(productsTable).
		Where(squirrel.Eq{"id": productID}).
		ToSql()
	if err != nil {
		return ledger.Balance{}, fmt.Errorf("build query: %w", err)
	}

	var row balanceRow
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return ledger.Balance{}, apperror.NewNotFound("product", productID.String())
		}
		return ledger.Balance{}, postgres.MapError(fmt.Errorf("get balance: %w", err))
	}
	return row.toBalance(), nil
}

// ApplyDelta adds the deltas in a single statement and returns the result.
func (r *LedgerRepo) ApplyDelta(ctx context.Context, productID id.ID, totalDelta, currentDelta types.Quantity) (ledger.Balance, error) {
	sql, args, err := applyDeltaQuery(productID, totalDelta, currentDelta).ToSql()
	if err != nil {
		return ledger.Balance{}, fmt.Errorf("build update: %w", err)
	}

	var row balanceRow
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return ledger.Balance{}, apperror.NewNotFound("product", productID.String())
		}
		return ledger.Balance{}, postgres.MapError(fmt.Errorf("apply stock delta: %w", err))
	}
	return row.toBalance(), nil
}

func applyDeltaQuery(productID id.ID, totalDelta, currentDelta types.Quantity) squirrel.UpdateBuilder {
	return postgres.Builder().
		Update(productsTable).
		Set("total_stock", squirrel.Expr("total_stock + ?", totalDelta.Int64Scaled())).
		Set("current_stock", squirrel.Expr("current_stock + ?", currentDelta.Int64Scaled())).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": productID}).
		Suffix("RETURNING id, total_stock, current_stock")
}
