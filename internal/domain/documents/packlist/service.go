package packlist

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

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

// ProductReader resolves the products a packlist snapshots.
type ProductReader interface {
	GetByID(ctx context.Context, productID id.ID) (*product.Product, error)
}

// StockLedger is the part of the ledger a packlist reserves through.
type StockLedger interface {
	AdjustAvailable(ctx context.Context, productID id.ID, delta types.Quantity) (ledger.Movement, error)
}

// CreateItem is one requested line of a new packlist.
type CreateItem struct {
	ProductID       id.ID
	PlannedQuantity types.Quantity
	SpecialPrice    *decimal.Decimal
}

// CreateInput is the payload of Service.Create.
type CreateInput struct {
	PosID           id.ID
	Date            time.Time
	AssignedUserIDs []string
	ChangeAmount    decimal.Decimal
	Note            string
	Items           []CreateItem
}

// ItemQuantity is a counted quantity for one product of the packlist.
type ItemQuantity struct {
	ProductID id.ID
	Quantity  types.Quantity
}

// FinishSellingInput is the payload of Service.FinishSelling.
type FinishSellingInput struct {
	EndQuantities []ItemQuantity
	ReportedCash  decimal.Decimal
	WorkerNote    string
}

// Service runs the packlist lifecycle.
type Service struct {
	repo      Repository
	products  ProductReader
	ledger    StockLedger
	numerator numerator.Generator
	txm       tx.Manager
	authz     security.Authorizer
	audit     audit.Recorder
	hooks     *domain.HookRegistry[*Packlist]
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

// NewService creates the packlist lifecycle service.
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
		hooks:     domain.NewHookRegistry[*Packlist](),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hooks returns the hook registry. Hooks run after commit.
func (s *Service) Hooks() *domain.HookRegistry[*Packlist] {
	return s.hooks
}

// Create snapshots the products, reserves the planned quantities and stores
// the packlist in status open, all in one transaction.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Packlist, error) {
	if err := s.authz.Authorize(ctx, security.ActionPacklistCreate, security.Resource{}); err != nil {
		return nil, err
	}

	actor := appctx.GetUserID(ctx)
	p := &Packlist{
		BaseDocument:    entity.NewBaseDocument(s.now(), actor),
		PosID:           in.PosID,
		Status:          StatusOpen,
		AssignedUserIDs: append([]string{}, in.AssignedUserIDs...),
		ChangeAmount:    in.ChangeAmount,
		Note:            in.Note,
		Items:           make([]Item, 0, len(in.Items)),
	}
	if !in.Date.IsZero() {
		p.Date = BusinessDay(in.Date)
	}
	for _, ci := range in.Items {
		p.Items = append(p.Items, Item{
			ProductID:       ci.ProductID,
			PlannedQuantity: ci.PlannedQuantity,
			SpecialPrice:    cloneDecimal(ci.SpecialPrice),
		})
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		for i := range p.Items {
			it := &p.Items[i]
			prod, err := s.products.GetByID(ctx, it.ProductID)
			if err != nil {
				return err
			}
			if !prod.IsActive {
				return apperror.NewValidation("product is retired").
					WithDetail("field", "items").
					WithDetail("productId", it.ProductID)
			}
			it.UnitLabel = prod.UnitType.Label()
			it.BasePrice = prod.BasePrice
		}

		number, err := s.numerator.Next(ctx, numerator.DefaultConfig(numerator.PrefixPacklist), p.Date)
		if err != nil {
			return fmt.Errorf("generate packlist number: %w", err)
		}
		p.Number = number

		if err := s.repo.Create(ctx, p); err != nil {
			return fmt.Errorf("create packlist: %w", err)
		}

		for _, it := range p.Items {
			if _, err := s.ledger.AdjustAvailable(ctx, it.ProductID, it.PlannedQuantity.Neg()); err != nil {
				return err
			}
		}

		return s.audit.Record(ctx, audit.Entry{
			EntityType: audit.EntityPacklist,
			EntityID:   p.ID,
			Action:     audit.ActionCreate,
			ActorID:    actor,
			Changes:    map[string]any{"number": p.Number, "items": len(p.Items), "posId": p.PosID},
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "packlist created",
		"packlist_id", p.ID,
		"number", p.Number,
		"pos_id", p.PosID,
		"items", len(p.Items),
	)
	s.runHooks(ctx, domain.AfterCreate, p)
	return p, nil
}

// StartSelling records the opening counts and moves open → currently_selling.
// Products without a count keep their planned quantity as the start.
func (s *Service) StartSelling(ctx context.Context, packlistID id.ID, starts []ItemQuantity) (*Packlist, error) {
	if err := validateQuantities(starts, "startQuantities"); err != nil {
		return nil, err
	}

	return s.transition(ctx, packlistID, TransitionStartSelling, security.ActionPacklistStartSelling,
		func(ctx context.Context, p *Packlist) (map[string]any, error) {
			if err := applyQuantities(p, starts, func(it *Item, q types.Quantity) { it.StartQuantity = q.Ptr() }); err != nil {
				return nil, err
			}
			for i := range p.Items {
				if p.Items[i].StartQuantity == nil {
					p.Items[i].StartQuantity = p.Items[i].PlannedQuantity.Ptr()
				}
			}
			return map[string]any{"counted": len(starts)}, nil
		})
}

// FinishSelling records closing counts and reported cash, settles the
// expected cash and moves currently_selling → sold.
func (s *Service) FinishSelling(ctx context.Context, packlistID id.ID, in FinishSellingInput) (*Packlist, error) {
	if err := validateQuantities(in.EndQuantities, "endQuantities"); err != nil {
		return nil, err
	}
	if in.ReportedCash.IsNegative() {
		return nil, apperror.NewValidation("reported cash cannot be negative").
			WithDetail("field", "reportedCash")
	}

	return s.transition(ctx, packlistID, TransitionFinishSelling, security.ActionPacklistFinishSelling,
		func(ctx context.Context, p *Packlist) (map[string]any, error) {
			if err := applyQuantities(p, in.EndQuantities, func(it *Item, q types.Quantity) { it.EndQuantity = q.Ptr() }); err != nil {
				return nil, err
			}
			for i := range p.Items {
				if p.Items[i].EndQuantity == nil {
					zero := types.Quantity(0)
					p.Items[i].EndQuantity = &zero
				}
			}
			if in.WorkerNote != "" {
				p.WorkerNote = in.WorkerNote
			}
			p.Settle(in.ReportedCash)

			if !p.Difference.IsZero() {
				logger.Warn(ctx, "packlist cash difference",
					"packlist_id", p.ID,
					"expected", p.ExpectedCash.String(),
					"reported", p.ReportedCash.String(),
					"difference", p.Difference.String(),
				)
			}
			return map[string]any{
				"expectedCash": p.ExpectedCash.String(),
				"reportedCash": p.ReportedCash.String(),
				"difference":   p.Difference.String(),
			}, nil
		})
}

// Complete closes a sold packlist. Reserved stock is consumed: nothing is
// returned to currentStock.
func (s *Service) Complete(ctx context.Context, packlistID id.ID) (*Packlist, error) {
	return s.transition(ctx, packlistID, TransitionComplete, security.ActionPacklistComplete,
		func(ctx context.Context, p *Packlist) (map[string]any, error) {
			closed := s.now().UTC()
			p.ClosedAt = &closed
			return map[string]any{"closedAt": closed}, nil
		})
}

// GetByID returns one packlist.
func (s *Service) GetByID(ctx context.Context, packlistID id.ID) (*Packlist, error) {
	return s.repo.GetByID(ctx, packlistID)
}

// List returns a page of packlists.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Packlist], error) {
	filter.Pagination = filter.Pagination.Normalize()
	return s.repo.List(ctx, filter)
}

type mutation func(ctx context.Context, p *Packlist) (map[string]any, error)

// transition loads the packlist, checks capability and source status, applies
// mutate and writes the result guarded by status and version.
func (s *Service) transition(ctx context.Context, packlistID id.ID, t Transition, action security.Action, mutate mutation) (*Packlist, error) {
	actor := appctx.GetUserID(ctx)
	var out *Packlist

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := s.repo.GetByID(ctx, packlistID)
		if err != nil {
			return err
		}
		if err := s.authz.Authorize(ctx, action, security.Resource{AssignedUserIDs: p.AssignedUserIDs}); err != nil {
			return err
		}
		if err := p.CheckTransition(t); err != nil {
			return err
		}

		readVersion := p.Version
		changes, err := mutate(ctx, p)
		if err != nil {
			return err
		}
		p.Status = t.To
		p.Touch(s.now(), actor)

		if err := s.repo.Update(ctx, p, t.From, readVersion); err != nil {
			return err
		}

		if changes == nil {
			changes = map[string]any{}
		}
		changes["from"] = t.From
		changes["to"] = t.To
		if err := s.audit.Record(ctx, audit.Entry{
			EntityType: audit.EntityPacklist,
			EntityID:   p.ID,
			Action:     audit.Action(t.Name),
			ActorID:    actor,
			Changes:    changes,
		}); err != nil {
			return err
		}

		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "packlist transitioned",
		"packlist_id", out.ID,
		"from", t.From,
		"to", t.To,
	)
	s.runHooks(ctx, domain.AfterTransition, out)
	return out, nil
}

func (s *Service) runHooks(ctx context.Context, event domain.HookEvent, p *Packlist) {
	if err := s.hooks.Run(ctx, event, p); err != nil {
		logger.Error(ctx, "packlist hook failed", "event", event, "packlist_id", p.ID, "error", err)
	}
}

func validateQuantities(qs []ItemQuantity, field string) error {
	seen := make(map[id.ID]struct{}, len(qs))
	for _, q := range qs {
		if q.Quantity.IsNegative() {
			return apperror.NewValidation("quantity cannot be negative").
				WithDetail("field", field).
				WithDetail("productId", q.ProductID)
		}
		if _, dup := seen[q.ProductID]; dup {
			return apperror.NewValidation("product appears more than once").
				WithDetail("field", field).
				WithDetail("productId", q.ProductID)
		}
		seen[q.ProductID] = struct{}{}
	}
	return nil
}

func applyQuantities(p *Packlist, qs []ItemQuantity, set func(it *Item, q types.Quantity)) error {
	for _, q := range qs {
		idx := p.ItemIndex(q.ProductID)
		if idx < 0 {
			return apperror.NewValidation("product is not on this packlist").
				WithDetail("productId", q.ProductID)
		}
		set(&p.Items[idx], q.Quantity)
	}
	return nil
}
