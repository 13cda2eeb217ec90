package order

import (
	"context"
	"fmt"
	"slices"
	"time"

	"retailops/internal/core/apperror"
	appctx "retailops/internal/core/context"
	"retailops/internal/core/entity"
	"retailops/internal/core/id"
	"retailops/internal/core/numerator"
	"retailops/internal/core/security"
	"retailops/internal/core/tx"
	"retailops/internal/core/types"
	"retailops/internal/domain"
	"retailops/internal/domain/audit"
	"retailops/internal/domain/catalog/product"
	"retailops/internal/domain/ledger"
	"retailops/pkg/logger"
)

// ProductReader resolves the products an order snapshots.
type ProductReader interface {
	GetByID(ctx context.Context, productID id.ID) (*product.Product, error)
}

// StockLedger is the part of the ledger an order credits through.
type StockLedger interface {
	Credit(ctx context.Context, productID id.ID, qty types.Quantity) (ledger.Movement, error)
}

// CreateItem is one requested line of a new order.
type CreateItem struct {
	ProductID       id.ID
	OrderedQuantity types.Quantity
}

// CreateInput is the payload of Service.Create.
type CreateInput struct {
	SupplierName        string
	OrderDate           time.Time
	ExpectedArrivalDate *time.Time
	Note                string
	Items               []CreateItem
}

// ReceivedQuantity is the counted delivery of one ordered product.
type ReceivedQuantity struct {
	ProductID id.ID
	Quantity  types.Quantity
}

// Service runs the order workflow.
type Service struct {
	repo      Repository
	products  ProductReader
	ledger    StockLedger
	numerator numerator.Generator
	txm       tx.Manager
	authz     security.Authorizer
	audit     audit.Recorder
	hooks     *domain.HookRegistry[*Order]
	now       func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithAudit sets the audit recorder.
func WithAudit(r audit.Recorder) Option {
	return func(s *Service) { s.audit = r }
}

// NewService creates the order service.
func NewService(
	repo Repository,
	products ProductReader,
	stock StockLedger,
	gen numerator.Generator,
	txm tx.Manager,
	authz security.Authorizer,
	opts ...Option,
) *Service {
	s := &Service{
		repo:      repo,
		products:  products,
		ledger:    stock,
		numerator: gen,
		txm:       txm,
		authz:     authz,
		audit:     audit.NopRecorder{},
		hooks:     domain.NewHookRegistry[*Order](),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hooks returns the hook registry. Hooks run after commit.
func (s *Service) Hooks() *domain.HookRegistry[*Order] {
	return s.hooks
}

// Create stores an open order. Every product must exist; its unit type is
// snapshotted onto the item.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Order, error) {
	if err := s.authz.Authorize(ctx, security.ActionOrderCreate, security.Resource{}); err != nil {
		return nil, err
	}

	actor := appctx.GetUserID(ctx)
	o := &Order{
		BaseDocument:        entity.NewBaseDocument(s.now(), actor),
		SupplierName:        in.SupplierName,
		Status:              StatusOpen,
		ExpectedArrivalDate: in.ExpectedArrivalDate,
		Note:                in.Note,
		Items:               make([]Item, 0, len(in.Items)),
	}
	if !in.OrderDate.IsZero() {
		o.OrderDate = day(in.OrderDate)
	}
	if o.ExpectedArrivalDate != nil {
		d := day(*o.ExpectedArrivalDate)
		o.ExpectedArrivalDate = &d
	}
	for _, ci := range in.Items {
		o.Items = append(o.Items, Item{ProductID: ci.ProductID, OrderedQuantity: ci.OrderedQuantity})
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		for i := range o.Items {
			prod, err := s.products.GetByID(ctx, o.Items[i].ProductID)
			if err != nil {
				return err
			}
			o.Items[i].UnitType = prod.UnitType
		}
		o.RecalculateTotals()

		number, err := s.numerator.Next(ctx, numerator.DefaultConfig(numerator.PrefixOrder), o.OrderDate)
		if err != nil {
			return fmt.Errorf("generate order number: %w", err)
		}
		o.Number = number

		if err := s.repo.Create(ctx, o); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		return s.audit.Record(ctx, audit.Entry{
			EntityType: audit.EntityOrder,
			EntityID:   o.ID,
			Action:     audit.ActionCreate,
			ActorID:    actor,
			Changes:    map[string]any{"number": o.Number, "supplier": o.SupplierName, "items": len(o.Items)},
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "order created", "order_id", o.ID, "number", o.Number, "items", len(o.Items))
	s.runHooks(ctx, domain.AfterCreate, o)
	return o, nil
}

// RequestCheck records the proposed received quantities and moves
// open → check_pending. The ledger is not touched.
func (s *Service) RequestCheck(ctx context.Context, orderID id.ID, received []ReceivedQuantity) (*Order, error) {
	if err := validateReceived(received); err != nil {
		return nil, err
	}

	return s.transition(ctx, orderID, []Status{StatusOpen}, StatusCheckPending,
		security.ActionOrderRequestCheck, audit.ActionRequestCheck,
		func(ctx context.Context, o *Order, actor string) (map[string]any, error) {
			if err := applyReceived(o, received); err != nil {
				return nil, err
			}
			return map[string]any{"proposed": len(received)}, nil
		})
}

// Confirm fixes the received quantities, credits them to the ledger and
// completes the order. Each item receives, in order of preference, the
// caller's quantity, the quantity proposed by RequestCheck, or the ordered
// quantity. Products that no longer exist are skipped.
func (s *Service) Confirm(ctx context.Context, orderID id.ID, received []ReceivedQuantity) (*Order, error) {
	if err := validateReceived(received); err != nil {
		return nil, err
	}

	return s.transition(ctx, orderID, []Status{StatusOpen, StatusCheckPending}, StatusCompleted,
		security.ActionOrderConfirm, audit.ActionConfirm,
		func(ctx context.Context, o *Order, actor string) (map[string]any, error) {
			if err := applyReceived(o, received); err != nil {
				return nil, err
			}

			credited := 0
			var skipped []string
			for i := range o.Items {
				it := &o.Items[i]
				qty := it.EffectiveQuantity()
				it.ReceivedQuantity = qty.Ptr()
				if !qty.IsPositive() {
					continue
				}

				_, err := s.ledger.Credit(ctx, it.ProductID, qty)
				switch {
				case err == nil:
					credited++
				case apperror.IsNotFound(err):
					skipped = append(skipped, it.ProductID.String())
					logger.Warn(ctx, "order item product missing, credit skipped",
						"order_id", o.ID,
						"product_id", it.ProductID,
						"quantity", qty.String(),
					)
				default:
					return nil, err
				}
			}

			confirmedAt := s.now().UTC()
			o.ConfirmedAt = &confirmedAt
			o.ConfirmedBy = actor
			return map[string]any{"credited": credited, "skipped": skipped}, nil
		})
}

// GetByID returns one order.
func (s *Service) GetByID(ctx context.Context, orderID id.ID) (*Order, error) {
	return s.repo.GetByID(ctx, orderID)
}

// List returns a page of orders.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Order], error) {
	filter.Pagination = filter.Pagination.Normalize()
	return s.repo.List(ctx, filter)
}

type mutation func(ctx context.Context, o *Order, actor string) (map[string]any, error)

func (s *Service) transition(
	ctx context.Context,
	orderID id.ID,
	from []Status,
	to Status,
	action security.Action,
	auditAction audit.Action,
	mutate mutation,
) (*Order, error) {
	actor := appctx.GetUserID(ctx)
	var out *Order
	var prev Status

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		o, err := s.repo.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if err := s.authz.Authorize(ctx, action, security.Resource{}); err != nil {
			return err
		}
		if o.Status == StatusCompleted {
			return apperror.NewAlreadyCompleted("order", o.ID)
		}
		if !slices.Contains(from, o.Status) {
			return apperror.NewStatusConflict("order", o.ID, string(o.Status), string(from[0]))
		}

		prev = o.Status
		readVersion := o.Version
		changes, err := mutate(ctx, o, actor)
		if err != nil {
			return err
		}
		o.Status = to
		o.RecalculateTotals()
		o.Touch(s.now(), actor)

		if err := s.repo.Update(ctx, o, []Status{prev}, readVersion); err != nil {
			return err
		}

		changes["from"] = prev
		changes["to"] = to
		if err := s.audit.Record(ctx, audit.Entry{
			EntityType: audit.EntityOrder,
			EntityID:   o.ID,
			Action:     auditAction,
			ActorID:    actor,
			Changes:    changes,
		}); err != nil {
			return err
		}
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "order transitioned", "order_id", out.ID, "from", prev, "to", to)
	s.runHooks(ctx, domain.AfterTransition, out)
	return out, nil
}

func (s *Service) runHooks(ctx context.Context, event domain.HookEvent, o *Order) {
	if err := s.hooks.Run(ctx, event, o); err != nil {
		logger.Error(ctx, "order hook failed", "event", event, "order_id", o.ID, "error", err)
	}
}

func validateReceived(received []ReceivedQuantity) error {
	seen := make(map[id.ID]struct{}, len(received))
	for _, r := range received {
		if r.Quantity.IsNegative() {
			return apperror.NewValidation("received quantity cannot be negative").
				WithDetail("field", "receivedQuantities").
				WithDetail("productId", r.ProductID)
		}
		if _, dup := seen[r.ProductID]; dup {
			return apperror.NewValidation("product appears more than once").
				WithDetail("field", "receivedQuantities").
				WithDetail("productId", r.ProductID)
		}
		seen[r.ProductID] = struct{}{}
	}
	return nil
}

func applyReceived(o *Order, received []ReceivedQuantity) error {
	for _, r := range received {
		idx := o.ItemIndex(r.ProductID)
		if idx < 0 {
			return apperror.NewValidation("product is not on this order").
				WithDetail("productId", r.ProductID)
		}
		o.Items[idx].ReceivedQuantity = r.Quantity.Ptr()
	}
	return nil
}

func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
