package packlist_test

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
	"retailops/internal/domain"
	"retailops/internal/domain/audit"
	"retailops/internal/domain/catalog/product"
	"retailops/internal/domain/documents/packlist"
	"retailops/internal/domain/ledger"
	"retailops/internal/infrastructure/storage/memory"
)

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

type env struct {
	store     *memory.Store
	repo      packlist.Repository
	products  *product.Service
	ledger    *ledger.Service
	audit     *memory.AuditLog
	packlists *packlist.Service
}

func newEnv(t *testing.T, wrap ...func(packlist.Repository) packlist.Repository) *env {
	t.Helper()
	store := memory.New()
	authz := security.NewRoleAuthorizer(nil)
	auditLog := memory.NewAuditLog(store)

	var repo packlist.Repository = memory.NewPacklistRepo(store)
	for _, w := range wrap {
		repo = w(repo)
	}

	products := product.NewService(memory.NewProductRepo(store), store, authz, auditLog)
	ledgerSvc := ledger.NewService(memory.NewLedgerRepo(store), store, authz, auditLog)
	svc := packlist.NewService(repo, products, ledgerSvc, memory.NewNumerator(store), store, authz,
		packlist.WithClock(func() time.Time { return testNow }),
		packlist.WithAudit(auditLog),
	)
	return &env{store: store, repo: repo, products: products, ledger: ledgerSvc, audit: auditLog, packlists: svc}
}

func adminCtx() context.Context {
	return appctx.WithUser(context.Background(), &appctx.UserContext{UserID: "admin-1", IsAdmin: true})
}

func workerCtx(userID string) context.Context {
	return appctx.WithUser(context.Background(), &appctx.UserContext{UserID: userID, Roles: []string{appctx.RoleWorker}})
}

func (e *env) addProduct(t *testing.T, price string, stock int64) *product.Product {
	t.Helper()
	p, err := e.products.Create(adminCtx(), product.CreateInput{
		Name:         "Product " + price,
		BasePrice:    decimal.RequireFromString(price),
		UnitType:     product.UnitPiece,
		InitialStock: types.NewQuantity(stock),
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

func createInput(workers []string, items ...packlist.CreateItem) packlist.CreateInput {
	return packlist.CreateInput{
		PosID:           id.MustParse("00000000-0000-7000-8000-000000000001"),
		Date:            testNow,
		AssignedUserIDs: workers,
		ChangeAmount:    decimal.NewFromInt(50),
		Items:           items,
	}
}

func planned(productID id.ID, qty int64) packlist.CreateItem {
	return packlist.CreateItem{ProductID: productID, PlannedQuantity: types.NewQuantity(qty)}
}

func TestLifecycle_SettlementScenario(t *testing.T) {
	e := newEnv(t)
	ctx := adminCtx()
	p := e.addProduct(t, "6", 50)

	pl, err := e.packlists.Create(ctx, createInput(nil, planned(p.ID, 20)))
	require.NoError(t, err)
	assert.Equal(t, packlist.StatusOpen, pl.Status)
	assert.Equal(t, "PL-2026-00001", pl.Number)
	assert.Equal(t, "pcs", pl.Items[0].UnitLabel)
	assert.Equal(t, "6", pl.Items[0].BasePrice.String())
	assert.Equal(t, types.NewQuantity(30), e.balance(t, p.ID).Current)
	assert.Equal(t, types.NewQuantity(50), e.balance(t, p.ID).Total)

	pl, err = e.packlists.StartSelling(ctx, pl.ID, []packlist.ItemQuantity{{ProductID: p.ID, Quantity: types.NewQuantity(20)}})
	require.NoError(t, err)
	assert.Equal(t, packlist.StatusCurrentlySelling, pl.Status)

	pl, err = e.packlists.FinishSelling(ctx, pl.ID, packlist.FinishSellingInput{
		EndQuantities: []packlist.ItemQuantity{{ProductID: p.ID, Quantity: types.NewQuantity(5)}},
		ReportedCash:  decimal.NewFromInt(140),
		WorkerNote:    "quiet day",
	})
	require.NoError(t, err)
	assert.Equal(t, packlist.StatusSold, pl.Status)
	assert.Equal(t, types.NewQuantity(15), pl.Items[0].SoldQuantity())
	assert.Equal(t, "140", pl.ExpectedCash.String())
	assert.True(t, pl.Difference.IsZero())
	assert.Equal(t, "quiet day", pl.WorkerNote)

	pl, err = e.packlists.Complete(ctx, pl.ID)
	require.NoError(t, err)
	assert.Equal(t, packlist.StatusCompleted, pl.Status)
	require.NotNil(t, pl.ClosedAt)
	assert.Equal(t, testNow, *pl.ClosedAt)

	// completion consumes the reservation, nothing comes back
	assert.Equal(t, types.NewQuantity(30), e.balance(t, p.ID).Current)
	assert.Equal(t, types.NewQuantity(50), e.balance(t, p.ID).Total)

	history, err := e.audit.History(context.Background(), audit.EntityPacklist, pl.ID, 0)
	require.NoError(t, err)
	assert.Len(t, history, 4)
}

func TestCreate_ReservationConservation(t *testing.T) {
	e := newEnv(t)
	a := e.addProduct(t, "1", 10)
	b := e.addProduct(t, "2", 10)

	_, err := e.packlists.Create(adminCtx(), createInput(nil, planned(a.ID, 3), planned(b.ID, 0)))
	require.NoError(t, err)

	assert.Equal(t, types.NewQuantity(7), e.balance(t, a.ID).Current)
	assert.Equal(t, types.NewQuantity(10), e.balance(t, a.ID).Total)
	assert.Equal(t, types.NewQuantity(10), e.balance(t, b.ID).Current)
}

func TestCreate_OverbookingIsAllowed(t *testing.T) {
	e := newEnv(t)
	p := e.addProduct(t, "1", 2)

	_, err := e.packlists.Create(adminCtx(), createInput(nil, planned(p.ID, 5)))

	require.NoError(t, err)
	assert.Equal(t, types.NewQuantity(-3), e.balance(t, p.ID).Current)
}

func TestCreate_MissingProductAbortsEverything(t *testing.T) {
	e := newEnv(t)
	p := e.addProduct(t, "1", 10)

	_, err := e.packlists.Create(adminCtx(), createInput(nil, planned(p.ID, 4), planned(id.New(), 1)))

	require.True(t, apperror.IsNotFound(err))
	assert.Equal(t, types.NewQuantity(10), e.balance(t, p.ID).Current)

	res, err := e.packlists.List(context.Background(), packlist.ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, res.Items)

	// the number was not consumed either
	pl, err := e.packlists.Create(adminCtx(), createInput(nil, planned(p.ID, 1)))
	require.NoError(t, err)
	assert.Equal(t, "PL-2026-00001", pl.Number)
}

func TestCreate_ValidationBeforeEffects(t *testing.T) {
	e := newEnv(t)
	p := e.addProduct(t, "1", 10)

	cases := map[string]packlist.CreateInput{
		"no items":          createInput(nil),
		"negative planned":  createInput(nil, planned(p.ID, -1)),
		"duplicate product": createInput(nil, planned(p.ID, 1), planned(p.ID, 2)),
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := e.packlists.Create(adminCtx(), in)
			assert.True(t, apperror.IsValidation(err))
			assert.Equal(t, types.NewQuantity(10), e.balance(t, p.ID).Current)
		})
	}

	t.Run("retired product", func(t *testing.T) {
		_, err := e.products.SetActive(adminCtx(), p.ID, false)
		require.NoError(t, err)
		_, err = e.packlists.Create(adminCtx(), createInput(nil, planned(p.ID, 1)))
		assert.True(t, apperror.IsValidation(err))
		assert.Equal(t, types.NewQuantity(10), e.balance(t, p.ID).Current)
	})
}

func TestCreate_RequiresAdmin(t *testing.T) {
	e := newEnv(t)
	p := e.addProduct(t, "1", 10)

	_, err := e.packlists.Create(workerCtx("w1"), createInput(nil, planned(p.ID, 1)))

	assert.True(t, apperror.IsForbidden(err))
}

func TestStartSelling_DefaultsAndValidation(t *testing.T) {
	e := newEnv(t)
	a := e.addProduct(t, "1", 10)
	b := e.addProduct(t, "2", 10)
	pl, err := e.packlists.Create(adminCtx(), createInput(nil, planned(a.ID, 4), planned(b.ID, 6)))
	require.NoError(t, err)

	_, err = e.packlists.StartSelling(adminCtx(), pl.ID, []packlist.ItemQuantity{{ProductID: id.New(), Quantity: 1}})
	assert.True(t, apperror.IsValidation(err))

	_, err = e.packlists.StartSelling(adminCtx(), pl.ID, []packlist.ItemQuantity{{ProductID: a.ID, Quantity: types.NewQuantity(-1)}})
	assert.True(t, apperror.IsValidation(err))

	got, err := e.packlists.GetByID(context.Background(), pl.ID)
	require.NoError(t, err)
	assert.Equal(t, packlist.StatusOpen, got.Status)

	pl, err = e.packlists.StartSelling(adminCtx(), pl.ID, []packlist.ItemQuantity{{ProductID: a.ID, Quantity: types.NewQuantity(3)}})
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantity(3), *pl.Items[0].StartQuantity)
	assert.Equal(t, types.NewQuantity(6), *pl.Items[1].StartQuantity)
}

func TestFinishSelling_DefaultsEndToZero(t *testing.T) {
	e := newEnv(t)
	p := e.addProduct(t, "2.5", 10)
	pl, err := e.packlists.Create(adminCtx(), createInput(nil, planned(p.ID, 4)))
	require.NoError(t, err)
	_, err = e.packlists.StartSelling(adminCtx(), pl.ID, nil)
	require.NoError(t, err)

	_, err = e.packlists.FinishSelling(adminCtx(), pl.ID, packlist.FinishSellingInput{ReportedCash: decimal.NewFromInt(-1)})
	assert.True(t, apperror.IsValidation(err))

	pl, err = e.packlists.FinishSelling(adminCtx(), pl.ID, packlist.FinishSellingInput{ReportedCash: decimal.NewFromInt(55)})
	require.NoError(t, err)
	assert.Equal(t, types.Quantity(0), *pl.Items[0].EndQuantity)
	assert.Equal(t, "60", pl.ExpectedCash.String())
	assert.Equal(t, "-5", pl.Difference.String())
}

func TestTransitions_WrongState(t *testing.T) {
	e := newEnv(t)
	p := e.addProduct(t, "1", 10)
	pl, err := e.packlists.Create(adminCtx(), createInput(nil, planned(p.ID, 1)))
	require.NoError(t, err)

	_, err = e.packlists.FinishSelling(adminCtx(), pl.ID, packlist.FinishSellingInput{})
	assert.True(t, apperror.IsConflict(err))
	_, err = e.packlists.Complete(adminCtx(), pl.ID)
	assert.True(t, apperror.IsConflict(err))

	_, err = e.packlists.StartSelling(adminCtx(), pl.ID, nil)
	require.NoError(t, err)
	_, err = e.packlists.StartSelling(adminCtx(), pl.ID, nil)
	assert.True(t, apperror.IsConflict(err))

	_, err = e.packlists.Complete(adminCtx(), id.New())
	assert.True(t, apperror.IsNotFound(err))
}

func TestComplete_IsIdempotentlyRejected(t *testing.T) {
	e := newEnv(t)
	p := e.addProduct(t, "1", 10)
	pl := sold(t, e, p.ID)

	_, err := e.packlists.Complete(adminCtx(), pl.ID)
	require.NoError(t, err)
	before := e.balance(t, p.ID)

	_, err = e.packlists.Complete(adminCtx(), pl.ID)
	assert.True(t, apperror.IsAlreadyCompleted(err))
	assert.Equal(t, before, e.balance(t, p.ID))
}

func TestCapabilities(t *testing.T) {
	e := newEnv(t)
	p := e.addProduct(t, "1", 10)
	pl, err := e.packlists.Create(adminCtx(), createInput([]string{"w1"}, planned(p.ID, 2)))
	require.NoError(t, err)

	_, err = e.packlists.StartSelling(workerCtx("w2"), pl.ID, nil)
	assert.True(t, apperror.IsForbidden(err))

	_, err = e.packlists.StartSelling(workerCtx("w1"), pl.ID, nil)
	require.NoError(t, err)
	_, err = e.packlists.FinishSelling(workerCtx("w1"), pl.ID, packlist.FinishSellingInput{ReportedCash: decimal.NewFromInt(52)})
	require.NoError(t, err)

	_, err = e.packlists.Complete(workerCtx("w1"), pl.ID)
	assert.True(t, apperror.IsForbidden(err))

	got, err := e.packlists.GetByID(context.Background(), pl.ID)
	require.NoError(t, err)
	assert.Equal(t, packlist.StatusSold, got.Status)
}

// staleRepo hands out packlists one version behind, as a concurrent writer would.
type staleRepo struct {
	packlist.Repository
}

func (r staleRepo) GetByID(ctx context.Context, packlistID id.ID) (*packlist.Packlist, error) {
	p, err := r.Repository.GetByID(ctx, packlistID)
	if err != nil {
		return nil, err
	}
	p.Version--
	return p, nil
}

func TestTransition_LostRaceIsConflict(t *testing.T) {
	e := newEnv(t, func(r packlist.Repository) packlist.Repository { return staleRepo{r} })
	p := e.addProduct(t, "1", 10)
	pl, err := e.packlists.Create(adminCtx(), createInput(nil, planned(p.ID, 1)))
	require.NoError(t, err)

	_, err = e.packlists.StartSelling(adminCtx(), pl.ID, nil)
	assert.True(t, apperror.IsConflict(err))

	got, err := memory.NewPacklistRepo(e.store).GetByID(context.Background(), pl.ID)
	require.NoError(t, err)
	assert.Equal(t, packlist.StatusOpen, got.Status)
}

func TestHooks_RunAfterCommit(t *testing.T) {
	e := newEnv(t)
	p := e.addProduct(t, "1", 10)
	var seen []packlist.Status
	e.packlists.Hooks().On(domain.AfterTransition, func(_ context.Context, pl *packlist.Packlist) error {
		seen = append(seen, pl.Status)
		return nil
	})

	pl := sold(t, e, p.ID)
	_, err := e.packlists.Complete(adminCtx(), pl.ID)
	require.NoError(t, err)

	assert.Equal(t, []packlist.Status{packlist.StatusCurrentlySelling, packlist.StatusSold, packlist.StatusCompleted}, seen)
}

func sold(t *testing.T, e *env, productID id.ID) *packlist.Packlist {
	t.Helper()
	pl, err := e.packlists.Create(adminCtx(), createInput(nil, planned(productID, 2)))
	require.NoError(t, err)
	_, err = e.packlists.StartSelling(adminCtx(), pl.ID, nil)
	require.NoError(t, err)
	pl, err = e.packlists.FinishSelling(adminCtx(), pl.ID, packlist.FinishSellingInput{ReportedCash: decimal.NewFromInt(52)})
	require.NoError(t, err)
	return pl
}
