// Package app assembles the domain services over a storage backend.
package app

import (
	"context"
	"fmt"

	"retailops/internal/core/numerator"
	"retailops/internal/core/security"
	"retailops/internal/core/tx"
	"retailops/internal/domain"
	"retailops/internal/domain/audit"
	"retailops/internal/domain/catalog/product"
	"retailops/internal/domain/documents/order"
	"retailops/internal/domain/documents/packlist"
	"retailops/internal/domain/ledger"
	"retailops/internal/domain/reports/revenue"
	pgnumerator "retailops/internal/infrastructure/numerator"
	"retailops/internal/infrastructure/storage/memory"
	"retailops/internal/infrastructure/storage/postgres"
	"retailops/internal/infrastructure/storage/postgres/catalog_repo"
	"retailops/internal/infrastructure/storage/postgres/document_repo"
	"retailops/internal/infrastructure/storage/postgres/register_repo"
)

// AuditLog both writes and reads the audit trail.
type AuditLog interface {
	audit.Recorder
	audit.Reader
}

// Storage is one backend: every repository shares TxManager, so a
// transition's writes commit together.
type Storage struct {
	Name      string
	TxManager tx.Manager
	Products  product.Repository
	Ledger    ledger.Repository
	Packlists packlist.Repository
	Orders    order.Repository
	Numerator numerator.Generator
	Audit     AuditLog

	// Ping backs the readiness probe.
	Ping func(ctx context.Context) error

	closers []func()
}

// Close releases backend resources. The pool itself is owned by the caller.
func (s Storage) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// NewMemoryStorage wires the in-process store.
func NewMemoryStorage(store *memory.Store) Storage {
	return Storage{
		Name:      "memory",
		TxManager: store,
		Products:  memory.NewProductRepo(store),
		Ledger:    memory.NewLedgerRepo(store),
		Packlists: memory.NewPacklistRepo(store),
		Orders:    memory.NewOrderRepo(store),
		Numerator: memory.NewNumerator(store),
		Audit:     memory.NewAuditLog(store),
		Ping:      store.Ping,
	}
}

// NewPostgresStorage wires the PostgreSQL repositories over pool.
func NewPostgresStorage(pool *postgres.Pool) (Storage, error) {
	txm := postgres.NewTxManager(pool)
	auditLog, err := postgres.NewAuditLog(txm)
	if err != nil {
		return Storage{}, fmt.Errorf("create audit log: %w", err)
	}
	return Storage{
		Name:      "postgres",
		TxManager: txm,
		Products:  catalog_repo.NewProductRepo(txm),
		Ledger:    register_repo.NewLedgerRepo(txm),
		Packlists: document_repo.NewPacklistRepo(txm),
		Orders:    document_repo.NewOrderRepo(txm),
		Numerator: pgnumerator.New(txm),
		Audit:     auditLog,
		Ping:      txm.Ping,
		closers:   []func(){auditLog.Close},
	}, nil
}

// Container holds the wired services.
type Container struct {
	Products  *product.Service
	Ledger    *ledger.Service
	Packlists *packlist.Service
	Orders    *order.Service
	Revenue   *revenue.Service
	Audit     audit.Reader
}

// Options tune NewContainer. Zero values select production behavior.
type Options struct {
	Authorizer   security.Authorizer
	RevenueCache revenue.Cache
	PacklistOpts []packlist.Option
	OrderOpts    []order.Option
}

// NewContainer builds every service over st. A completed packlist
// invalidates cached revenue reports.
func NewContainer(st Storage, opts Options) *Container {
	authz := opts.Authorizer
	if authz == nil {
		authz = security.NewRoleAuthorizer(nil)
	}

	products := product.NewService(st.Products, st.TxManager, authz, st.Audit)
	ledgerSvc := ledger.NewService(st.Ledger, st.TxManager, authz, st.Audit)

	packlists := packlist.NewService(st.Packlists, products, ledgerSvc, st.Numerator, st.TxManager, authz,
		append([]packlist.Option{packlist.WithAudit(st.Audit)}, opts.PacklistOpts...)...)
	orders := order.NewService(st.Orders, products, ledgerSvc, st.Numerator, st.TxManager, authz,
		append([]order.Option{order.WithAudit(st.Audit)}, opts.OrderOpts...)...)

	revenueSvc := revenue.NewService(st.Packlists, opts.RevenueCache)
	packlists.Hooks().On(domain.AfterTransition, revenueSvc.OnPacklistTransition)

	return &Container{
		Products:  products,
		Ledger:    ledgerSvc,
		Packlists: packlists,
		Orders:    orders,
		Revenue:   revenueSvc,
		Audit:     st.Audit,
	}
}
