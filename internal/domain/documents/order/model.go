// Package order provides the supplier Order document. Confirming an order
// credits the received goods to the stock ledger.
package order

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"retailops/internal/core/apperror"
	"retailops/internal/core/entity"
	"retailops/internal/core/id"
	"retailops/internal/core/types"
	"retailops/internal/domain/catalog/product"
)

// Status is the lifecycle state of an order.
type Status string

const (
	StatusOpen         Status = "open"
	StatusCheckPending Status = "check_pending"
	StatusCompleted    Status = "completed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusCheckPending, StatusCompleted:
		return true
	}
	return false
}

// Order is a purchase from a supplier.
type Order struct {
	entity.BaseDocument

	SupplierName        string     `db:"supplier_name" json:"supplierName"`
	Status              Status     `db:"status" json:"status"`
	OrderDate           time.Time  `db:"order_date" json:"orderDate"`
	ExpectedArrivalDate *time.Time `db:"expected_arrival_date" json:"expectedArrivalDate,omitempty"`
	Note                string     `db:"note" json:"note,omitempty"`

	Items []Item `db:"-" json:"items"`

	// Totals over the effective quantity of each item.
	TotalKg     decimal.Decimal `db:"total_kg" json:"totalKg"`
	TotalPieces decimal.Decimal `db:"total_pieces" json:"totalPieces"`

	ConfirmedBy string     `db:"confirmed_by" json:"confirmedBy,omitempty"`
	ConfirmedAt *time.Time `db:"confirmed_at" json:"confirmedAt,omitempty"`
}

// Item is one ordered product. UnitType is snapshotted at creation.
type Item struct {
	ProductID        id.ID            `json:"productId"`
	UnitType         product.UnitType `json:"unitType"`
	OrderedQuantity  types.Quantity   `json:"orderedQuantity"`
	ReceivedQuantity *types.Quantity  `json:"receivedQuantity,omitempty"`
}

// EffectiveQuantity is the received quantity once recorded, otherwise
// the ordered one.
func (it Item) EffectiveQuantity() types.Quantity {
	if it.ReceivedQuantity != nil {
		return *it.ReceivedQuantity
	}
	return it.OrderedQuantity
}

var thousand = decimal.NewFromInt(1000)

// RecalculateTotals derives TotalKg and TotalPieces from the items.
func (o *Order) RecalculateTotals() {
	kg := decimal.Zero
	pieces := decimal.Zero
	for _, it := range o.Items {
		q := it.EffectiveQuantity().Decimal()
		switch it.UnitType {
		case product.UnitWeightKg:
			kg = kg.Add(q)
		case product.UnitWeightG:
			kg = kg.Add(q.Div(thousand))
		default:
			pieces = pieces.Add(q)
		}
	}
	o.TotalKg = kg
	o.TotalPieces = pieces
}

// ItemIndex returns the position of productID in Items, or -1.
func (o *Order) ItemIndex(productID id.ID) int {
	for i := range o.Items {
		if o.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// Validate checks the invariants of a new order.
func (o *Order) Validate() error {
	if strings.TrimSpace(o.SupplierName) == "" {
		return apperror.NewValidation("supplier name is required").
			WithDetail("field", "supplierName")
	}
	if o.OrderDate.IsZero() {
		return apperror.NewValidation("order date is required").
			WithDetail("field", "orderDate")
	}
	if o.ExpectedArrivalDate != nil && o.ExpectedArrivalDate.Before(o.OrderDate) {
		return apperror.NewValidation("expected arrival is before the order date").
			WithDetail("field", "expectedArrivalDate")
	}
	if len(o.Items) == 0 {
		return apperror.NewValidation("at least one item is required").
			WithDetail("field", "items")
	}

	seen := make(map[id.ID]struct{}, len(o.Items))
	for i, it := range o.Items {
		if id.IsNil(it.ProductID) {
			return apperror.NewValidation("product is required").
				WithDetail("field", "items").
				WithDetail("index", i)
		}
		if _, dup := seen[it.ProductID]; dup {
			return apperror.NewValidation("product appears more than once").
				WithDetail("field", "items").
				WithDetail("productId", it.ProductID)
		}
		seen[it.ProductID] = struct{}{}
		if !it.OrderedQuantity.IsPositive() {
			return apperror.NewValidation("ordered quantity must be positive").
				WithDetail("field", "items").
				WithDetail("productId", it.ProductID)
		}
	}
	return nil
}

// Clone returns a deep copy of o.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	c := *o
	c.Items = make([]Item, len(o.Items))
	for i, it := range o.Items {
		c.Items[i] = it
		if it.ReceivedQuantity != nil {
			c.Items[i].ReceivedQuantity = it.ReceivedQuantity.Ptr()
		}
	}
	if o.ExpectedArrivalDate != nil {
		t := *o.ExpectedArrivalDate
		c.ExpectedArrivalDate = &t
	}
	if o.ConfirmedAt != nil {
		t := *o.ConfirmedAt
		c.ConfirmedAt = &t
	}
	return &c
}
