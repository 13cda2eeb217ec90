package dto

import (
	"github.com/shopspring/decimal"

	"retailops/internal/core/types"
	"retailops/internal/domain/catalog/product"
	"retailops/internal/domain/ledger"
)

// CreateProductRequest represents a request to create a product.
type CreateProductRequest struct {
	Name         string          `json:"name" binding:"required,max=200"`
	SKU          string          `json:"sku,omitempty" binding:"max=64"`
	BasePrice    decimal.Decimal `json:"basePrice"`
	UnitType     string          `json:"unitType" binding:"required,oneof=piece weight_kg weight_g"`
	InitialStock types.Quantity  `json:"initialStock"`
}

// ToInput converts request to the service payload.
func (r *CreateProductRequest) ToInput() product.CreateInput {
	return product.CreateInput{
		Name:         r.Name,
		SKU:          r.SKU,
		BasePrice:    r.BasePrice,
		UnitType:     product.UnitType(r.UnitType),
		InitialStock: r.InitialStock,
	}
}

// ListProductsQuery holds GET /products filters.
type ListProductsQuery struct {
	PaginationQuery
	ActiveOnly bool   `form:"activeOnly"`
	Search     string `form:"search" binding:"max=100"`
}

// ToFilter converts the query into a repository filter.
func (q ListProductsQuery) ToFilter() product.ListFilter {
	return product.ListFilter{
		Pagination: q.ToDomain(),
		ActiveOnly: q.ActiveOnly,
		Search:     q.Search,
	}
}

// SetStockRequest sets total stock, rebalancing current stock by the same delta.
type SetStockRequest struct {
	TotalStock *types.Quantity `json:"totalStock" binding:"required"`
}

// SetActiveRequest activates or retires a product.
type SetActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// MovementResponse reports a stock change.
type MovementResponse struct {
	ProductID string         `json:"productId"`
	Before    ledger.Balance `json:"before"`
	After     ledger.Balance `json:"after"`
	Delta     types.Quantity `json:"delta"`
}

// FromMovement converts a ledger movement.
func FromMovement(m ledger.Movement) MovementResponse {
	return MovementResponse{
		ProductID: m.ProductID.String(),
		Before:    m.Before,
		After:     m.After,
		Delta:     m.TotalDelta(),
	}
}
