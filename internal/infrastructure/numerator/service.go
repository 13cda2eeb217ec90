// Package numerator provides the PostgreSQL document number generator.
// It implements core/numerator.Generator on the sys_sequences table.
package numerator

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	corenumerator "retailops/internal/core/numerator"
	"retailops/internal/infrastructure/storage/postgres"
)

// Querier interface for database operations.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// QuerierSource resolves the querier for ctx: the open transaction when
// there is one, the pool otherwise. *postgres.TxManager satisfies it.
type QuerierSource interface {
	GetQuerier(ctx context.Context) postgres.Querier
}

// Service hands out strictly sequential numbers per prefix and year.
//
// The counter row is updated inside the caller's transaction, so a rolled
// back document creation gives its number back and numbers have no gaps.
// Concurrent creators of the same prefix serialize on the row lock.
type Service struct {
	querier func(ctx context.Context) Querier
}

// Ensure compile-time interface compliance.
var _ corenumerator.Generator = (*Service)(nil)

// New creates a generator that runs in the transaction found in ctx.
func New(src QuerierSource) *Service {
	return &Service{querier: func(ctx context.Context) Querier { return src.GetQuerier(ctx) }}
}

// NewWithQuerier creates a generator bound to a fixed querier.
func NewWithQuerier(q Querier) *Service {
	return &Service{querier: func(context.Context) Querier { return q }}
}

const nextSQL = `
	INSERT INTO sys_sequences (sequence_type, year, current_val)
	VALUES ($1, $2, 1)
	ON CONFLICT (sequence_type, year) DO UPDATE SET current_val = sys_sequences.current_val + 1
	RETURNING current_val
`

// Next returns the next number, e.g. PL-2026-00001.
func (s *Service) Next(ctx context.Context, cfg corenumerator.Config, at time.Time) (string, error) {
	if s == nil || s.querier == nil {
		return "", fmt.Errorf("numerator service is not initialized")
	}

	year := at.UTC().Year()
	var n int64
	if err := s.querier(ctx).QueryRow(ctx, nextSQL, cfg.Prefix, year).Scan(&n); err != nil {
		return "", postgres.MapError(fmt.Errorf("next %s number: %w", cfg.Prefix, err))
	}
	return corenumerator.Format(cfg, year, n), nil
}

const setSQL = `
	INSERT INTO sys_sequences (sequence_type, year, current_val)
	VALUES ($1, $2, $3)
	ON CONFLICT (sequence_type, year) DO UPDATE SET current_val = $3
	RETURNING current_val
`

// SetCurrent sets the last issued value for prefix and year, for data imports.
func (s *Service) SetCurrent(ctx context.Context, prefix string, year int, value int64) error {
	if err := s.querier(ctx).QueryRow(ctx, setSQL, prefix, year, value).Scan(new(int64)); err != nil {
		return postgres.MapError(fmt.Errorf("set %s sequence: %w", prefix, err))
	}
	return nil
}
