package catalog_repo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailops/internal/domain/catalog/product"
)

func TestProductColumns(t *testing.T) {
	for _, col := range []string{"id", "name", "sku", "base_price", "unit_type", "total_stock", "current_stock", "is_active", "version"} {
		assert.Contains(t, productColumns, col)
	}
}

func TestListQuery(t *testing.T) {
	r := &ProductRepo{}

	sql, args, err := r.listQuery(product.ListFilter{ActiveOnly: true, Search: " gou "}).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "FROM products WHERE is_active = $1 AND (name ILIKE $2 OR sku ILIKE $3)")
	assert.Equal(t, []any{true, "%gou%", "%gou%"}, args)
}

func TestListQuery_NoFilter(t *testing.T) {
	r := &ProductRepo{}

	sql, args, err := r.listQuery(product.ListFilter{}).ToSql()
	require.NoError(t, err)

	assert.NotContains(t, sql, "WHERE")
	assert.Empty(t, args)
}
