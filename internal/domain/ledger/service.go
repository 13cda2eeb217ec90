package ledger

import (
	"context"
	"fmt"

	"retailops/internal/core/apperror"
	appctx "retailops/internal/core/context"
	"retailops/internal/core/id"
	"retailops/internal/core/security"
	"retailops/internal/core/tx"
	"retailops/internal/core/types"
	"retailops/internal/domain/audit"
	"retailops/pkg/logger"
)

// Service applies stock deltas. Every method joins the caller's transaction
// when one is present in ctx.
type Service struct {
	repo  Repository
	txm   tx.Manager
	authz security.Authorizer
	audit audit.Recorder
}

// NewService creates a ledger service.
func NewService(repo Repository, txm tx.Manager, authz security.Authorizer, recorder audit.Recorder) *Service {
	if recorder == nil {
		recorder = audit.NopRecorder{}
	}
	return &Service{repo: repo, txm: txm, authz: authz, audit: recorder}
}

// GetBalance returns the current counters of a product.
func (s *Service) GetBalance(ctx context.Context, productID id.ID) (Balance, error) {
	return s.repo.GetBalance(ctx, productID)
}

// AdjustAvailable adds delta to currentStock only. Negative deltas are
// reservations; a reservation that drives currentStock below zero is
// logged and allowed.
func (s *Service) AdjustAvailable(ctx context.Context, productID id.ID, delta types.Quantity) (Movement, error) {
	m, err := s.apply(ctx, productID, 0, delta)
	if err != nil {
		return Movement{}, err
	}
	if delta.IsNegative() && m.After.Current.IsNegative() {
		logger.Warn(ctx, "stock reserved below zero",
			"product_id", productID,
			"requested", delta.Neg().String(),
			"current_stock", m.After.Current.String(),
		)
	}
	return m, nil
}

// Credit adds qty to both counters (goods received).
func (s *Service) Credit(ctx context.Context, productID id.ID, qty types.Quantity) (Movement, error) {
	if qty.IsNegative() {
		return Movement{}, apperror.NewValidation("credit quantity cannot be negative").
			WithDetail("productId", productID).
			WithDetail("quantity", qty.String())
	}
	return s.apply(ctx, productID, qty, qty)
}

// SetTotalWithRebalance sets totalStock to newTotal and shifts currentStock
// by the same delta, so reservations are preserved.
func (s *Service) SetTotalWithRebalance(ctx context.Context, productID id.ID, newTotal types.Quantity) (Movement, error) {
	if newTotal.IsNegative() {
		return Movement{}, apperror.NewValidation("total stock cannot be negative").
			WithDetail("field", "totalStock")
	}

	var m Movement
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		before, err := s.repo.GetBalance(ctx, productID)
		if err != nil {
			return err
		}
		delta := newTotal - before.Total
		after, err := s.repo.ApplyDelta(ctx, productID, delta, delta)
		if err != nil {
			return err
		}
		m = Movement{ProductID: productID, Before: before, After: after}
		return nil
	})
	if err != nil {
		return Movement{}, err
	}

	logger.Info(ctx, "stock total set",
		"product_id", productID,
		"total_before", m.Before.Total.String(),
		"total_after", m.After.Total.String(),
		"current_after", m.After.Current.String(),
	)
	return m, nil
}

// EditStock is the manual stock edit entry point: capability check,
// rebalance and audit in one transaction.
func (s *Service) EditStock(ctx context.Context, productID id.ID, newTotal types.Quantity) (Movement, error) {
	if err := s.authz.Authorize(ctx, security.ActionStockEdit, security.Resource{}); err != nil {
		return Movement{}, err
	}
	if newTotal.IsNegative() {
		return Movement{}, apperror.NewValidation("total stock cannot be negative").
			WithDetail("field", "totalStock")
	}

	var m Movement
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		m, err = s.SetTotalWithRebalance(ctx, productID, newTotal)
		if err != nil {
			return err
		}
		return s.audit.Record(ctx, audit.Entry{
			EntityType: audit.EntityProduct,
			EntityID:   productID,
			Action:     audit.ActionStockEdit,
			ActorID:    appctx.GetUserID(ctx),
			Changes: map[string]any{
				"totalBefore":   m.Before.Total.String(),
				"totalAfter":    m.After.Total.String(),
				"currentBefore": m.Before.Current.String(),
				"currentAfter":  m.After.Current.String(),
			},
		})
	})
	return m, err
}

func (s *Service) apply(ctx context.Context, productID id.ID, totalDelta, currentDelta types.Quantity) (Movement, error) {
	var m Movement
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		after, err := s.repo.ApplyDelta(ctx, productID, totalDelta, currentDelta)
		if err != nil {
			return fmt.Errorf("apply stock delta: %w", err)
		}
		m = Movement{
			ProductID: productID,
			After:     after,
			Before: Balance{
				ProductID: productID,
				Total:     after.Total - totalDelta,
				Current:   after.Current - currentDelta,
			},
		}
		return nil
	})
	if err != nil {
		return Movement{}, err
	}

	logger.Info(ctx, "stock delta applied",
		"product_id", productID,
		"total_delta", totalDelta.String(),
		"current_delta", currentDelta.String(),
	)
	return m, nil
}
