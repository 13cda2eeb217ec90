package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailops/internal/core/apperror"
	"retailops/internal/core/id"
	"retailops/internal/core/numerator"
	"retailops/internal/core/types"
	"retailops/internal/domain/catalog/product"
)

func seedProduct(t *testing.T, store *Store, stock int64) *product.Product {
	t.Helper()
	p := product.NewProduct("Apples", product.UnitWeightKg, decimal.NewFromInt(3), types.NewQuantity(stock), time.Now())
	require.NoError(t, NewProductRepo(store).Create(context.Background(), p))
	return p
}

func TestStore_RollbackDiscardsWrites(t *testing.T) {
	ctx := context.Background()
	store := New()
	p := seedProduct(t, store, 10)
	ledgerRepo := NewLedgerRepo(store)

	boom := errors.New("boom")
	err := store.RunInTransaction(ctx, func(ctx context.Context) error {
		b, err := ledgerRepo.ApplyDelta(ctx, p.ID, 0, types.NewQuantity(-4))
		require.NoError(t, err)
		assert.Equal(t, types.NewQuantity(6), b.Current)
		return boom
	})
	require.ErrorIs(t, err, boom)

	b, err := ledgerRepo.GetBalance(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantity(10), b.Current)
}

func TestStore_UncommittedInvisibleOutside(t *testing.T) {
	ctx := context.Background()
	store := New()
	p := seedProduct(t, store, 10)
	ledgerRepo := NewLedgerRepo(store)

	err := store.RunInTransaction(ctx, func(txCtx context.Context) error {
		_, err := ledgerRepo.ApplyDelta(txCtx, p.ID, types.NewQuantity(5), types.NewQuantity(5))
		require.NoError(t, err)

		outside, err := ledgerRepo.GetBalance(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, types.NewQuantity(10), outside.Total)

		// nested transaction joins the outer one
		return store.RunInTransaction(txCtx, func(nested context.Context) error {
			inside, err := ledgerRepo.GetBalance(nested, p.ID)
			require.NoError(t, err)
			assert.Equal(t, types.NewQuantity(15), inside.Total)
			return nil
		})
	})
	require.NoError(t, err)

	b, err := ledgerRepo.GetBalance(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantity(15), b.Total)
}

func TestStore_ConcurrentDeltasCompose(t *testing.T) {
	ctx := context.Background()
	store := New()
	p := seedProduct(t, store, 100)
	ledgerRepo := NewLedgerRepo(store)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledgerRepo.ApplyDelta(ctx, p.ID, 0, types.NewQuantity(-1))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	b, err := ledgerRepo.GetBalance(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantity(50), b.Current)
	assert.Equal(t, types.NewQuantity(100), b.Total)
}

func TestLedgerRepo_UnknownProduct(t *testing.T) {
	_, err := NewLedgerRepo(New()).ApplyDelta(context.Background(), id.New(), 1, 1)
	assert.True(t, apperror.IsNotFound(err))
}

func TestProductRepo_DuplicateSKU(t *testing.T) {
	ctx := context.Background()
	store := New()
	repo := NewProductRepo(store)
	sku := "APL-1"

	a := product.NewProduct("Apples", product.UnitPiece, decimal.NewFromInt(1), 0, time.Now())
	a.SKU = &sku
	require.NoError(t, repo.Create(ctx, a))

	b := product.NewProduct("Pears", product.UnitPiece, decimal.NewFromInt(1), 0, time.Now())
	other := "apl-1"
	b.SKU = &other
	err := repo.Create(ctx, b)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeDuplicate, appErr.Code)
}

func TestProductRepo_ListFilters(t *testing.T) {
	ctx := context.Background()
	store := New()
	repo := NewProductRepo(store)
	for _, name := range []string{"Cherries", "Apples", "Bananas"} {
		require.NoError(t, repo.Create(ctx, product.NewProduct(name, product.UnitPiece, decimal.NewFromInt(1), 0, time.Now())))
	}
	res, err := repo.List(ctx, product.ListFilter{})
	require.NoError(t, err)
	require.Len(t, res.Items, 3)
	assert.Equal(t, "Apples", res.Items[0].Name)

	_, err = repo.SetActive(ctx, res.Items[0].ID, false, time.Now())
	require.NoError(t, err)

	res, err = repo.List(ctx, product.ListFilter{ActiveOnly: true, Search: "an"})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "Bananas", res.Items[0].Name)
	assert.EqualValues(t, 1, res.TotalCount)
}

func TestNumerator_SequentialPerPrefixAndYear(t *testing.T) {
	ctx := context.Background()
	n := NewNumerator(New())
	at := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	first, err := n.Next(ctx, numerator.DefaultConfig(numerator.PrefixPacklist), at)
	require.NoError(t, err)
	second, err := n.Next(ctx, numerator.DefaultConfig(numerator.PrefixPacklist), at)
	require.NoError(t, err)
	other, err := n.Next(ctx, numerator.DefaultConfig(numerator.PrefixOrder), at)
	require.NoError(t, err)
	nextYear, err := n.Next(ctx, numerator.DefaultConfig(numerator.PrefixPacklist), at.AddDate(1, 0, 0))
	require.NoError(t, err)

	assert.Equal(t, "PL-2026-00001", first)
	assert.Equal(t, "PL-2026-00002", second)
	assert.Equal(t, "PO-2026-00001", other)
	assert.Equal(t, "PL-2027-00001", nextYear)
}
