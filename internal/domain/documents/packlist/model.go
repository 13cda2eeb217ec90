// Package packlist provides the Packlist document: stock checked out to a
// point of sale, sold during the day and settled against reported cash.
package packlist

import (
	"time"

	"github.com/shopspring/decimal"

	"retailops/internal/core/apperror"
	"retailops/internal/core/entity"
	"retailops/internal/core/id"
	"retailops/internal/core/types"
)

// Packlist is the selling-day aggregate.
type Packlist struct {
	entity.BaseDocument

	PosID  id.ID  `db:"pos_id" json:"posId"`
	Status Status `db:"status" json:"status"`

	// Date is the business day, stored at UTC midnight.
	Date time.Time `db:"date" json:"date"`

	// AssignedUserIDs are the workers allowed to run the selling steps.
	AssignedUserIDs []string `db:"assigned_user_ids" json:"assignedUserIds"`

	// ChangeAmount is the float handed to the POS in the morning.
	ChangeAmount decimal.Decimal `db:"change_amount" json:"changeAmount"`

	Note       string `db:"note" json:"note,omitempty"`
	WorkerNote string `db:"worker_note" json:"workerNote,omitempty"`

	Items []Item `db:"-" json:"items"`

	// Settlement, set when the packlist reaches sold.
	ExpectedCash *decimal.Decimal `db:"expected_cash" json:"expectedCash,omitempty"`
	ReportedCash *decimal.Decimal `db:"reported_cash" json:"reportedCash,omitempty"`
	Difference   *decimal.Decimal `db:"difference" json:"difference,omitempty"`

	ClosedAt *time.Time `db:"closed_at" json:"closedAt,omitempty"`
}

// Item is one product line. ProductID, UnitLabel and BasePrice are
// snapshotted at creation and never change afterwards.
type Item struct {
	ProductID    id.ID            `json:"productId"`
	UnitLabel    string           `json:"unitLabel"`
	BasePrice    decimal.Decimal  `json:"basePrice"`
	SpecialPrice *decimal.Decimal `json:"specialPrice,omitempty"`

	PlannedQuantity types.Quantity  `json:"plannedQuantity"`
	StartQuantity   *types.Quantity `json:"startQuantity,omitempty"`
	EndQuantity     *types.Quantity `json:"endQuantity,omitempty"`
}

// EffectiveStart is the counted opening quantity, or the planned one when
// no count was recorded.
func (it Item) EffectiveStart() types.Quantity {
	if it.StartQuantity != nil {
		return *it.StartQuantity
	}
	return it.PlannedQuantity
}

// EffectiveEnd is the counted closing quantity, zero when not recorded.
func (it Item) EffectiveEnd() types.Quantity {
	if it.EndQuantity != nil {
		return *it.EndQuantity
	}
	return 0
}

// SoldQuantity is max(0, start - end).
func (it Item) SoldQuantity() types.Quantity {
	return (it.EffectiveStart() - it.EffectiveEnd()).FloorZero()
}

// EffectivePrice is the special price when set, otherwise the base price.
func (it Item) EffectivePrice() decimal.Decimal {
	if it.SpecialPrice != nil {
		return *it.SpecialPrice
	}
	return it.BasePrice
}

// LineRevenue is SoldQuantity × EffectivePrice, exact.
func (it Item) LineRevenue() decimal.Decimal {
	return it.SoldQuantity().Decimal().Mul(it.EffectivePrice())
}

// BusinessDay truncates t to its calendar day in UTC terms, keeping the
// caller's year, month and day.
func BusinessDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ItemIndex returns the position of productID in Items, or -1.
func (p *Packlist) ItemIndex(productID id.ID) int {
	for i := range p.Items {
		if p.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// SalesTotal is the sum of line revenues.
func (p *Packlist) SalesTotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range p.Items {
		total = total.Add(it.LineRevenue())
	}
	return total
}

// CalculateExpectedCash is changeAmount plus the sales total.
func (p *Packlist) CalculateExpectedCash() decimal.Decimal {
	return p.ChangeAmount.Add(p.SalesTotal())
}

// Settle fixes expected cash, reported cash and their difference.
func (p *Packlist) Settle(reported decimal.Decimal) {
	expected := p.CalculateExpectedCash()
	diff := reported.Sub(expected)
	p.ExpectedCash = &expected
	p.ReportedCash = &reported
	p.Difference = &diff
}

// Validate checks the invariants of a new packlist.
func (p *Packlist) Validate() error {
	if id.IsNil(p.PosID) {
		return apperror.NewValidation("point of sale is required").
			WithDetail("field", "posId")
	}
	if p.Date.IsZero() {
		return apperror.NewValidation("date is required").
			WithDetail("field", "date")
	}
	if p.ChangeAmount.IsNegative() {
		return apperror.NewValidation("change amount cannot be negative").
			WithDetail("field", "changeAmount")
	}
	if len(p.Items) == 0 {
		return apperror.NewValidation("at least one item is required").
			WithDetail("field", "items")
	}

	seen := make(map[id.ID]struct{}, len(p.Items))
	for i, it := range p.Items {
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

		if it.PlannedQuantity.IsNegative() {
			return apperror.NewValidation("planned quantity cannot be negative").
				WithDetail("field", "items").
				WithDetail("productId", it.ProductID)
		}
		if it.SpecialPrice != nil && it.SpecialPrice.IsNegative() {
			return apperror.NewValidation("special price cannot be negative").
				WithDetail("field", "items").
				WithDetail("productId", it.ProductID)
		}
	}
	return nil
}

// Clone returns a deep copy of p.
func (p *Packlist) Clone() *Packlist {
	if p == nil {
		return nil
	}
	c := *p
	c.AssignedUserIDs = append([]string(nil), p.AssignedUserIDs...)
	c.Items = make([]Item, len(p.Items))
	for i, it := range p.Items {
		c.Items[i] = it.clone()
	}
	c.ExpectedCash = cloneDecimal(p.ExpectedCash)
	c.ReportedCash = cloneDecimal(p.ReportedCash)
	c.Difference = cloneDecimal(p.Difference)
	if p.ClosedAt != nil {
		t := *p.ClosedAt
		c.ClosedAt = &t
	}
	return &c
}

func (it Item) clone() Item {
	c := it
	c.SpecialPrice = cloneDecimal(it.SpecialPrice)
	if it.StartQuantity != nil {
		c.StartQuantity = it.StartQuantity.Ptr()
	}
	if it.EndQuantity != nil {
		c.EndQuantity = it.EndQuantity.Ptr()
	}
	return c
}

func cloneDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}
