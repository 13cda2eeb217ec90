// Package product provides the Product catalog. A product row is also the
// stock ledger entry: it owns the totalStock and currentStock counters that
// packlists and orders adjust.
package product

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"retailops/internal/core/apperror"
	"retailops/internal/core/id"
	"retailops/internal/core/types"
)

// UnitType defines how a product is counted.
type UnitType string

const (
	UnitPiece    UnitType = "piece"
	UnitWeightKg UnitType = "weight_kg"
	UnitWeightG  UnitType = "weight_g"
)

// Valid reports whether u is a known unit type.
func (u UnitType) Valid() bool {
	switch u {
	case UnitPiece, UnitWeightKg, UnitWeightG:
		return true
	}
	return false
}

// Label is the short display unit snapshotted onto packlist items.
func (u UnitType) Label() string {
	switch u {
	case UnitWeightKg:
		return "kg"
	case UnitWeightG:
		return "g"
	default:
		return "pcs"
	}
}

// Product is a sellable item and its stock counters.
type Product struct {
	ID        id.ID           `db:"id" json:"id"`
	Name      string          `db:"name" json:"name"`
	SKU       *string         `db:"sku" json:"sku,omitempty"`
	BasePrice decimal.Decimal `db:"base_price" json:"basePrice"`
	UnitType  UnitType        `db:"unit_type" json:"unitType"`

	// TotalStock is durable owned inventory.
	TotalStock types.Quantity `db:"total_stock" json:"totalStock"`

	// CurrentStock is inventory neither reserved by a packlist nor sold.
	// It may go negative when reservations exceed availability.
	CurrentStock types.Quantity `db:"current_stock" json:"currentStock"`

	IsActive  bool      `db:"is_active" json:"isActive"`
	Version   int       `db:"version" json:"version"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewProduct creates an active product with both counters at initialStock.
func NewProduct(name string, unit UnitType, basePrice decimal.Decimal, initialStock types.Quantity, now time.Time) *Product {
	now = now.UTC()
	return &Product{
		ID:           id.New(),
		Name:         strings.TrimSpace(name),
		BasePrice:    basePrice,
		UnitType:     unit,
		TotalStock:   initialStock,
		CurrentStock: initialStock,
		IsActive:     true,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Validate checks invariants that need no storage access.
func (p *Product) Validate() error {
	if p.Name == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	if !p.UnitType.Valid() {
		return apperror.NewValidation("invalid unit type").
			WithDetail("field", "unitType").
			WithDetail("value", string(p.UnitType))
	}
	if p.BasePrice.IsNegative() {
		return apperror.NewValidation("base price cannot be negative").
			WithDetail("field", "basePrice")
	}
	if p.TotalStock.IsNegative() {
		return apperror.NewValidation("stock cannot be negative").
			WithDetail("field", "totalStock")
	}
	return nil
}
