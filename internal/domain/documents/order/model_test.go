package order

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"retailops/internal/core/apperror"
	"retailops/internal/core/id"
	"retailops/internal/core/types"
	"retailops/internal/domain/catalog/product"
)

func TestRecalculateTotals(t *testing.T) {
	o := &Order{Items: []Item{
		{ProductID: id.New(), UnitType: product.UnitWeightKg, OrderedQuantity: types.MustQuantity("2.5")},
		{ProductID: id.New(), UnitType: product.UnitWeightG, OrderedQuantity: types.NewQuantity(750)},
		{ProductID: id.New(), UnitType: product.UnitPiece, OrderedQuantity: types.NewQuantity(12)},
		{ProductID: id.New(), UnitType: product.UnitPiece, OrderedQuantity: types.NewQuantity(5), ReceivedQuantity: types.NewQuantity(3).Ptr()},
	}}

	o.RecalculateTotals()

	assert.Equal(t, "3.25", o.TotalKg.String())
	assert.Equal(t, "15", o.TotalPieces.String())
}

func TestEffectiveQuantity(t *testing.T) {
	it := Item{OrderedQuantity: types.NewQuantity(4)}
	assert.Equal(t, types.NewQuantity(4), it.EffectiveQuantity())

	it.ReceivedQuantity = types.Quantity(0).Ptr()
	assert.Equal(t, types.Quantity(0), it.EffectiveQuantity())
}

func TestValidate(t *testing.T) {
	orderDate := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	before := orderDate.AddDate(0, 0, -1)
	productID := id.New()

	valid := func() *Order {
		return &Order{
			SupplierName: "Farm Co",
			OrderDate:    orderDate,
			Items:        []Item{{ProductID: productID, OrderedQuantity: types.NewQuantity(1)}},
		}
	}

	tests := []struct {
		name   string
		modify func(o *Order)
	}{
		{"blank supplier", func(o *Order) { o.SupplierName = "  " }},
		{"missing date", func(o *Order) { o.OrderDate = time.Time{} }},
		{"arrival before order", func(o *Order) { o.ExpectedArrivalDate = &before }},
		{"no items", func(o *Order) { o.Items = nil }},
		{"nil product", func(o *Order) { o.Items[0].ProductID = id.ID{} }},
		{"zero quantity", func(o *Order) { o.Items[0].OrderedQuantity = 0 }},
		{"duplicate product", func(o *Order) { o.Items = append(o.Items, o.Items[0]) }},
	}

	assert.NoError(t, valid().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := valid()
			tt.modify(o)
			assert.True(t, apperror.IsValidation(o.Validate()))
		})
	}
}

func TestClone(t *testing.T) {
	o := &Order{Items: []Item{{ProductID: id.New(), ReceivedQuantity: types.NewQuantity(1).Ptr()}}}

	c := o.Clone()
	*c.Items[0].ReceivedQuantity = types.NewQuantity(9)

	assert.Equal(t, types.NewQuantity(1), *o.Items[0].ReceivedQuantity)
}
