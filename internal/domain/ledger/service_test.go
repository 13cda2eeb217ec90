package ledger_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailops/internal/core/apperror"
	appctx "retailops/internal/core/context"
	"retailops/internal/core/id"
	"retailops/internal/core/security"
	"retailops/internal/core/types"
	"retailops/internal/domain/audit"
	"retailops/internal/domain/catalog/product"
	"retailops/internal/domain/ledger"
	"retailops/internal/infrastructure/storage/memory"
)

func setup(t *testing.T, stock int64) (*ledger.Service, *memory.AuditLog, id.ID) {
	t.Helper()
	store := memory.New()
	authz := security.NewRoleAuthorizer(nil)
	auditLog := memory.NewAuditLog(store)

	products := product.NewService(memory.NewProductRepo(store), store, authz, auditLog)
	p, err := products.Create(admin(), product.CreateInput{
		Name:         "Bread",
		BasePrice:    decimal.NewFromInt(2),
		UnitType:     product.UnitPiece,
		InitialStock: types.NewQuantity(stock),
	})
	require.NoError(t, err)

	return ledger.NewService(memory.NewLedgerRepo(store), store, authz, auditLog), auditLog, p.ID
}

func admin() context.Context {
	return appctx.WithUser(context.Background(), &appctx.UserContext{UserID: "admin-1", IsAdmin: true})
}

func TestAdjustAvailable_OnlyMovesCurrent(t *testing.T) {
	svc, _, productID := setup(t, 10)

	m, err := svc.AdjustAvailable(context.Background(), productID, types.NewQuantity(-4))
	require.NoError(t, err)

	assert.Equal(t, types.Quantity(0), m.TotalDelta())
	assert.Equal(t, types.NewQuantity(-4), m.CurrentDelta())
	assert.Equal(t, types.NewQuantity(10), m.After.Total)
	assert.Equal(t, types.NewQuantity(6), m.After.Current)
}

func TestAdjustAvailable_MayGoNegative(t *testing.T) {
	svc, _, productID := setup(t, 1)

	m, err := svc.AdjustAvailable(context.Background(), productID, types.NewQuantity(-3))

	require.NoError(t, err)
	assert.Equal(t, types.NewQuantity(-2), m.After.Current)
}

func TestCredit(t *testing.T) {
	svc, _, productID := setup(t, 5)

	m, err := svc.Credit(context.Background(), productID, types.MustQuantity("2.5"))
	require.NoError(t, err)
	assert.Equal(t, types.MustQuantity("7.5"), m.After.Total)
	assert.Equal(t, types.MustQuantity("7.5"), m.After.Current)

	_, err = svc.Credit(context.Background(), productID, types.NewQuantity(-1))
	assert.True(t, apperror.IsValidation(err))

	_, err = svc.Credit(context.Background(), id.New(), types.NewQuantity(1))
	assert.True(t, apperror.IsNotFound(err))
}

func TestSetTotalWithRebalance_PreservesReservations(t *testing.T) {
	svc, _, productID := setup(t, 50)
	_, err := svc.AdjustAvailable(context.Background(), productID, types.NewQuantity(-20))
	require.NoError(t, err)

	m, err := svc.SetTotalWithRebalance(context.Background(), productID, types.NewQuantity(35))
	require.NoError(t, err)

	assert.Equal(t, types.NewQuantity(35), m.After.Total)
	assert.Equal(t, types.NewQuantity(15), m.After.Current)
	assert.Equal(t, m.TotalDelta(), m.CurrentDelta())
	assert.Equal(t, m.After.Total-m.After.Current, m.Before.Total-m.Before.Current)

	_, err = svc.SetTotalWithRebalance(context.Background(), productID, types.NewQuantity(-1))
	assert.True(t, apperror.IsValidation(err))
}

func TestEditStock(t *testing.T) {
	svc, auditLog, productID := setup(t, 10)

	_, err := svc.EditStock(appctx.WithUser(context.Background(), &appctx.UserContext{
		UserID: "w1", Roles: []string{appctx.RoleWorker},
	}), productID, types.NewQuantity(12))
	assert.True(t, apperror.IsForbidden(err))

	m, err := svc.EditStock(admin(), productID, types.NewQuantity(12))
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantity(12), m.After.Current)

	history, err := auditLog.History(context.Background(), audit.EntityProduct, productID, 0)
	require.NoError(t, err)
	actions := make([]audit.Action, 0, len(history))
	for _, e := range history {
		actions = append(actions, e.Action)
	}
	assert.Contains(t, actions, audit.ActionStockEdit)
}
