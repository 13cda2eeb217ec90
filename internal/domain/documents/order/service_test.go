package order_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailops/internal/core/apperror"
	appctx "retailops/internal/core/context"
	"retailops/internal/core/id"
	"retailops/internal/core/security"
	"retailops/internal/core/types"
	"retailops/internal/domain/catalog/product"
	"retailops/internal/domain/documents/order"
	"retailops/internal/domain/ledger"
	"retailops/internal/infrastructure/storage/memory"
)

var testNow = time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)

type env struct {
	store    *memory.Store
	products *product.Service
	ledger   *ledger.Service
	orders   *order.Service
}

func newEnv(t *testing.T, stock ...func(order.StockLedger) order.StockLedger) *env {
	t.Helper()
	return newEnvWithRepo(t, nil, stock...)
}

func newEnvWithRepo(t *testing.T, wrapRepo func(order.Repository) order.Repository, stock ...func(order.StockLedger) order.StockLedger) *env {
	t.Helper()
	store := memory.New()
	authz := security.NewRoleAuthorizer(nil)
	auditLog := memory.NewAuditLog(store)

	products := product.NewService(memory.NewProductRepo(store), store, authz, auditLog)
	ledgerSvc := ledger.NewService(memory.NewLedgerRepo(store), store, authz, auditLog)
	var credit order.StockLedger = ledgerSvc
	for _, wrap := range stock {
		credit = wrap(credit)
	}
	var repo order.Repository = memory.NewOrderRepo(store)
	if wrapRepo != nil {
		repo = wrapRepo(repo)
	}
	svc := order.NewService(repo, products, credit, memory.NewNumerator(store), store, authz,
		order.WithClock(func() time.Time { return testNow }),
		order.WithAudit(auditLog),
	)
	return &env{store: store, products: products, ledger: ledgerSvc, orders: svc}
}

func adminCtx() context.Context {
	return appctx.WithUser(context.Background(), &appctx.UserContext{UserID: "admin-1", IsAdmin: true})
}

func workerCtx() context.Context {
	return appctx.WithUser(context.Background(), &appctx.UserContext{UserID: "w1", Roles: []string{appctx.RoleWorker}})
}

func (e *env) addProduct(t *testing.T, name string, unit product.UnitType, stock types.Quantity) *product.Product {
	t.Helper()
	p, err := e.products.Create(adminCtx(), product.CreateInput{
		Name:         name,
		BasePrice:    decimal.NewFromInt(1),
		UnitType:     unit,
		InitialStock: stock,
	})
	require.NoError(t, err)
	return p
}

func (e *env) balance(t *testing.T, productID id.ID) ledger.Balance {
	t.Helper()
	b, err := e.ledger.GetBalance(context.Background(), productID)
	require.NoError(t, err)
	return b
}

func item(productID id.ID, qty types.Quantity) order.CreateItem {
	return order.CreateItem{ProductID: productID, OrderedQuantity: qty}
}

func input(items ...order.CreateItem) order.CreateInput {
	return order.CreateInput{SupplierName: "Farm Co", OrderDate: testNow, Items: items}
}

func TestCreate_SnapshotsUnitAndTotals(t *testing.T) {
	e := newEnv(t)
	kg := e.addProduct(t, "Cheese", product.UnitWeightKg, 0)
	g := e.addProduct(t, "Saffron", product.UnitWeightG, 0)
	pcs := e.addProduct(t, "Bread", product.UnitPiece, 0)

	o, err := e.orders.Create(adminCtx(), input(
		item(kg.ID, types.MustQuantity("1.5")),
		item(g.ID, types.NewQuantity(500)),
		item(pcs.ID, types.NewQuantity(20)),
	))
	require.NoError(t, err)

	assert.Equal(t, order.StatusOpen, o.Status)
	assert.Equal(t, "PO-2026-00001", o.Number)
	assert.Equal(t, product.UnitWeightG, o.Items[1].UnitType)
	assert.Equal(t, "2", o.TotalKg.String())
	assert.Equal(t, "20", o.TotalPieces.String())
	assert.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), o.OrderDate)

	// creating an order never touches stock
	assert.Equal(t, types.Quantity(0), e.balance(t, pcs.ID).Total)
}

func TestCreate_UnknownProduct(t *testing.T) {
	e := newEnv(t)

	_, err := e.orders.Create(adminCtx(), input(item(id.New(), types.NewQuantity(1))))

	assert.True(t, apperror.IsNotFound(err))
}

func TestCreate_RequiresAdmin(t *testing.T) {
	e := newEnv(t)
	p := e.addProduct(t, "Bread", product.UnitPiece, 0)

	_, err := e.orders.Create(workerCtx(), input(item(p.ID, types.NewQuantity(1))))

	assert.True(t, apperror.IsForbidden(err))
}

func TestConfirm_CreditsBothCounters(t *testing.T) {
	e := newEnv(t)
	p := e.addProduct(t, "Bread", product.UnitPiece, types.NewQuantity(50))
	o, err := e.orders.Create(adminCtx(), input(item(p.ID, types.NewQuantity(10))))
	require.NoError(t, err)

	o, err = e.orders.Confirm(workerCtx(), o.ID, nil)
	require.NoError(t, err)

	assert.Equal(t, order.StatusCompleted, o.Status)
	assert.Equal(t, "w1", o.ConfirmedBy)
	require.NotNil(t, o.ConfirmedAt)
	assert.Equal(t, types.NewQuantity(10), *o.Items[0].ReceivedQuantity)

	b := e.balance(t, p.ID)
	assert.Equal(t, types.NewQuantity(60), b.Total)
	assert.Equal(t, types.NewQuantity(60), b.Current)
}

func TestRequestCheckThenConfirm_UsesProposedQuantities(t *testing.T) {
	e := newEnv(t)
	a := e.addProduct(t, "Apples", product.UnitWeightKg, 0)
	b := e.addProduct(t, "Pears", product.UnitWeightKg, 0)
	o, err := e.orders.Create(adminCtx(), input(item(a.ID, types.NewQuantity(10)), item(b.ID, types.NewQuantity(4))))
	require.NoError(t, err)

	o, err = e.orders.RequestCheck(workerCtx(), o.ID, []order.ReceivedQuantity{{ProductID: a.ID, Quantity: types.NewQuantity(8)}})
	require.NoError(t, err)
	assert.Equal(t, order.StatusCheckPending, o.Status)
	assert.Equal(t, "12", o.TotalKg.String())
	assert.Equal(t, types.Quantity(0), e.balance(t, a.ID).Total)

	o, err = e.orders.Confirm(adminCtx(), o.ID, []order.ReceivedQuantity{{ProductID: b.ID, Quantity: types.NewQuantity(3)}})
	require.NoError(t, err)

	assert.Equal(t, types.NewQuantity(8), e.balance(t, a.ID).Total)
	assert.Equal(t, types.NewQuantity(3), e.balance(t, b.ID).Current)
	assert.Equal(t, "11", o.TotalKg.String())
}

func TestConfirm_ZeroReceivedCreditsNothing(t *testing.T) {
	e := newEnv(t)
	p := e.addProduct(t, "Bread", product.UnitPiece, types.NewQuantity(5))
	o, err := e.orders.Create(adminCtx(), input(item(p.ID, types.NewQuantity(10))))
	require.NoError(t, err)

	_, err = e.orders.Confirm(adminCtx(), o.ID, []order.ReceivedQuantity{{ProductID: p.ID, Quantity: 0}})
	require.NoError(t, err)

	assert.Equal(t, types.NewQuantity(5), e.balance(t, p.ID).Total)
}

func TestConfirm_ValidatesReceived(t *testing.T) {
	e := newEnv(t)
	p := e.addProduct(t, "Bread", product.UnitPiece, 0)
	o, err := e.orders.Create(adminCtx(), input(item(p.ID, types.NewQuantity(10))))
	require.NoError(t, err)

	_, err = e.orders.Confirm(adminCtx(), o.ID, []order.ReceivedQuantity{{ProductID: p.ID, Quantity: types.NewQuantity(-1)}})
	assert.True(t, apperror.IsValidation(err))

	_, err = e.orders.Confirm(adminCtx(), o.ID, []order.ReceivedQuantity{{ProductID: id.New(), Quantity: 1}})
	assert.True(t, apperror.IsValidation(err))

	got, err := e.orders.GetByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusOpen, got.Status)
	assert.Equal(t, types.Quantity(0), e.balance(t, p.ID).Total)
}

func TestTransitions_AfterCompletion(t *testing.T) {
	e := newEnv(t)
	p := e.addProduct(t, "Bread", product.UnitPiece, 0)
	o, err := e.orders.Create(adminCtx(), input(item(p.ID, types.NewQuantity(2))))
	require.NoError(t, err)
	_, err = e.orders.Confirm(adminCtx(), o.ID, nil)
	require.NoError(t, err)

	_, err = e.orders.Confirm(adminCtx(), o.ID, nil)
	assert.True(t, apperror.IsAlreadyCompleted(err))
	_, err = e.orders.RequestCheck(adminCtx(), o.ID, nil)
	assert.True(t, apperror.IsAlreadyCompleted(err))

	assert.Equal(t, types.NewQuantity(2), e.balance(t, p.ID).Total)
}

func TestRequestCheck_OnlyFromOpen(t *testing.T) {
	e := newEnv(t)
	p := e.addProduct(t, "Bread", product.UnitPiece, 0)
	o, err := e.orders.Create(adminCtx(), input(item(p.ID, types.NewQuantity(2))))
	require.NoError(t, err)
	_, err = e.orders.RequestCheck(adminCtx(), o.ID, nil)
	require.NoError(t, err)

	_, err = e.orders.RequestCheck(adminCtx(), o.ID, nil)
	assert.True(t, apperror.IsConflict(err))
}

// missingLedger reports selected products as gone, the way a deleted row would.
type missingLedger struct {
	order.StockLedger
	missing *id.ID
}

func (l missingLedger) Credit(ctx context.Context, productID id.ID, qty types.Quantity) (ledger.Movement, error) {
	if productID == *l.missing {
		return ledger.Movement{}, apperror.NewNotFound("product", productID)
	}
	return l.StockLedger.Credit(ctx, productID, qty)
}

func TestConfirm_SkipsMissingProducts(t *testing.T) {
	var gone id.ID
	e := newEnv(t, func(s order.StockLedger) order.StockLedger {
		return missingLedger{StockLedger: s, missing: &gone}
	})
	kept := e.addProduct(t, "Bread", product.UnitPiece, 0)
	removed := e.addProduct(t, "Buns", product.UnitPiece, 0)
	gone = removed.ID
	o, err := e.orders.Create(adminCtx(), input(item(removed.ID, types.NewQuantity(3)), item(kept.ID, types.NewQuantity(4))))
	require.NoError(t, err)

	o, err = e.orders.Confirm(adminCtx(), o.ID, nil)

	require.NoError(t, err)
	assert.Equal(t, order.StatusCompleted, o.Status)
	assert.Equal(t, types.NewQuantity(4), e.balance(t, kept.ID).Total)
	assert.Equal(t, types.Quantity(0), e.balance(t, removed.ID).Total)
}

// staleRepo hands out orders one version behind, as a concurrent writer would.
type staleRepo struct {
	order.Repository
}

func (r staleRepo) GetByID(ctx context.Context, orderID id.ID) (*order.Order, error) {
	o, err := r.Repository.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	o.Version--
	return o, nil
}

func TestConfirm_LostRaceIsConflict(t *testing.T) {
	e := newEnvWithRepo(t, func(r order.Repository) order.Repository { return staleRepo{r} })
	p := e.addProduct(t, "Bread", product.UnitPiece, types.NewQuantity(5))
	o, err := e.orders.Create(adminCtx(), input(item(p.ID, types.NewQuantity(10))))
	require.NoError(t, err)

	_, err = e.orders.Confirm(adminCtx(), o.ID, nil)
	assert.True(t, apperror.IsConflict(err))

	// the credit rolled back with the rejected write
	b := e.balance(t, p.ID)
	assert.Equal(t, types.NewQuantity(5), b.Total)
	assert.Equal(t, types.NewQuantity(5), b.Current)

	got, err := memory.NewOrderRepo(e.store).GetByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusOpen, got.Status)
	assert.Nil(t, got.ConfirmedAt)
}
