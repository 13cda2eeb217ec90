package register_repo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailops/internal/core/id"
	"retailops/internal/core/types"
)

func TestApplyDeltaQuery_IsRelative(t *testing.T) {
	productID := id.New()

	sql, args, err := applyDeltaQuery(productID, types.NewQuantity(2), types.NewQuantity(-3)).ToSql()
	require.NoError(t, err)

	assert.Equal(t,
		"UPDATE products SET total_stock = total_stock + $1, current_stock = current_stock + $2, updated_at = NOW() WHERE id = $3 RETURNING id, total_stock, current_stock",
		sql)
	assert.Equal(t, []any{int64(20_000), int64(-30_000), productID}, args)
}

func TestBalanceRow(t *testing.T) {
	productID := id.New()

	b := balanceRow{ID: productID, TotalStock: 125_000, CurrentStock: -5_000}.toBalance()

	assert.Equal(t, productID, b.ProductID)
	assert.Equal(t, types.MustQuantity("12.5"), b.Total)
	assert.Equal(t, types.MustQuantity("-0.5"), b.Current)
}
