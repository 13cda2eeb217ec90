// Package memory is an in-process implementation of the storage ports.
//
// Transactions are serialized by a store-wide lock. Each one works on a deep
// copy of the committed state, which replaces the committed state only when
// the transaction function returns nil, so a failed transition leaves no
// trace. Reads outside a transaction see the last committed state.
package memory

import (
	"context"
	"sync"

	"retailops/internal/core/id"
	"retailops/internal/core/tx"
	"retailops/internal/domain/audit"
	"retailops/internal/domain/catalog/product"
	"retailops/internal/domain/documents/order"
	"retailops/internal/domain/documents/packlist"
)

var _ tx.Manager = (*Store)(nil)

type state struct {
	products  map[id.ID]*product.Product
	packlists map[id.ID]*packlist.Packlist
	orders    map[id.ID]*order.Order
	sequences map[string]int64
	audit     []audit.Entry
}

func newState() *state {
	return &state{
		products:  make(map[id.ID]*product.Product),
		packlists: make(map[id.ID]*packlist.Packlist),
		orders:    make(map[id.ID]*order.Order),
		sequences: make(map[string]int64),
	}
}

func (s *state) clone() *state {
	c := &state{
		products:  make(map[id.ID]*product.Product, len(s.products)),
		packlists: make(map[id.ID]*packlist.Packlist, len(s.packlists)),
		orders:    make(map[id.ID]*order.Order, len(s.orders)),
		sequences: make(map[string]int64, len(s.sequences)),
		audit:     append([]audit.Entry(nil), s.audit...),
	}
	for k, v := range s.products {
		c.products[k] = cloneProduct(v)
	}
	for k, v := range s.packlists {
		c.packlists[k] = v.Clone()
	}
	for k, v := range s.orders {
		c.orders[k] = v.Clone()
	}
	for k, v := range s.sequences {
		c.sequences[k] = v
	}
	return c
}

// Store holds all collections and acts as tx.Manager for them.
type Store struct {
	txMu sync.Mutex // one transaction at a time

	mu        sync.RWMutex // guards committed
	committed *state
}

// New creates an empty store.
func New() *Store {
	return &Store{committed: newState()}
}

type txKey struct{}

type txState struct {
	store *Store
	st    *state
}

func (s *Store) current(ctx context.Context) *state {
	if ts, ok := ctx.Value(txKey{}).(*txState); ok && ts.store == s {
		return ts.st
	}
	return nil
}

// RunInTransaction implements tx.Manager. Nested calls join the outer transaction.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.current(ctx) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	work := s.committed.clone()
	s.mu.RUnlock()

	if err := fn(context.WithValue(ctx, txKey{}, &txState{store: s, st: work})); err != nil {
		return err
	}

	s.mu.Lock()
	s.committed = work
	s.mu.Unlock()
	return nil
}

// read runs fn against the transaction state in ctx, or the committed state.
// fn must not retain or mutate what it reads.
func (s *Store) read(ctx context.Context, fn func(st *state) error) error {
	if st := s.current(ctx); st != nil {
		return fn(st)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.committed)
}

// write runs fn inside the caller's transaction or a new one.
func (s *Store) write(ctx context.Context, fn func(st *state) error) error {
	return s.RunInTransaction(ctx, func(ctx context.Context) error {
		return fn(s.current(ctx))
	})
}

// Ping implements the readiness probe.
func (s *Store) Ping(context.Context) error { return nil }

func cloneProduct(p *product.Product) *product.Product {
	if p == nil {
		return nil
	}
	c := *p
	if p.SKU != nil {
		sku := *p.SKU
		c.SKU = &sku
	}
	return &c
}
