package product

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"retailops/internal/core/apperror"
	appctx "retailops/internal/core/context"
	"retailops/internal/core/id"
	"retailops/internal/core/security"
	"retailops/internal/core/tx"
	"retailops/internal/core/types"
	"retailops/internal/domain"
	"retailops/internal/domain/audit"
	"retailops/pkg/logger"
)

// CreateInput is the payload of Service.Create.
type CreateInput struct {
	Name         string
	SKU          string
	BasePrice    decimal.Decimal
	UnitType     UnitType
	InitialStock types.Quantity
}

// Service provides the product catalog operations.
type Service struct {
	repo  Repository
	txm   tx.Manager
	authz security.Authorizer
	audit audit.Recorder
	now   func() time.Time
}

// NewService creates a product catalog service.
func NewService(repo Repository, txm tx.Manager, authz security.Authorizer, recorder audit.Recorder) *Service {
	if recorder == nil {
		recorder = audit.NopRecorder{}
	}
	return &Service{repo: repo, txm: txm, authz: authz, audit: recorder, now: time.Now}
}

// Create registers a product with its initial stock.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Product, error) {
	if err := s.authz.Authorize(ctx, security.ActionProductManage, security.Resource{}); err != nil {
		return nil, err
	}

	p := NewProduct(in.Name, in.UnitType, in.BasePrice, in.InitialStock, s.now())
	if sku := strings.TrimSpace(in.SKU); sku != "" {
		p.SKU = &sku
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, p); err != nil {
			return fmt.Errorf("create product: %w", err)
		}
		return s.audit.Record(ctx, audit.Entry{
			EntityType: audit.EntityProduct,
			EntityID:   p.ID,
			Action:     audit.ActionCreate,
			ActorID:    appctx.GetUserID(ctx),
			Changes: map[string]any{
				"name":         p.Name,
				"unitType":     p.UnitType,
				"basePrice":    p.BasePrice.String(),
				"initialStock": p.TotalStock.String(),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "product created", "product_id", p.ID, "name", p.Name, "stock", p.TotalStock.String())
	return p, nil
}

// GetByID returns one product.
func (s *Service) GetByID(ctx context.Context, productID id.ID) (*Product, error) {
	return s.repo.GetByID(ctx, productID)
}

// List returns a page of products.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Product], error) {
	filter.Pagination = filter.Pagination.Normalize()
	return s.repo.List(ctx, filter)
}

// SetActive retires or re-activates a product. Stock counters are untouched.
func (s *Service) SetActive(ctx context.Context, productID id.ID, active bool) (*Product, error) {
	if err := s.authz.Authorize(ctx, security.ActionProductManage, security.Resource{}); err != nil {
		return nil, err
	}

	var out *Product
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := s.repo.SetActive(ctx, productID, active, s.now())
		if err != nil {
			return err
		}
		out = p
		return s.audit.Record(ctx, audit.Entry{
			EntityType: audit.EntityProduct,
			EntityID:   p.ID,
			Action:     audit.ActionSetActive,
			ActorID:    appctx.GetUserID(ctx),
			Changes:    map[string]any{"isActive": active},
		})
	})
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("product", productID)
		}
		return nil, err
	}

	logger.Info(ctx, "product activity changed", "product_id", productID, "active", active)
	return out, nil
}
