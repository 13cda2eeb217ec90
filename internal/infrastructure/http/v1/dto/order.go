package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"retailops/internal/core/types"
	"retailops/internal/domain/catalog/product"
	"retailops/internal/domain/documents/order"
)

// --- Request DTOs ---

// CreateOrderRequest represents a request to create a supplier order.
type CreateOrderRequest struct {
	SupplierName        string             `json:"supplierName" binding:"required,max=200"`
	OrderDate           string             `json:"orderDate" binding:"required,datetime=2006-01-02"`
	ExpectedArrivalDate *string            `json:"expectedArrivalDate,omitempty" binding:"omitempty,datetime=2006-01-02"`
	Note                string             `json:"note,omitempty" binding:"max=2000"`
	Items               []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

// OrderItemRequest represents a line in create request.
type OrderItemRequest struct {
	ProductID       string         `json:"productId" binding:"required,uuid"`
	OrderedQuantity types.Quantity `json:"orderedQuantity"`
}

// ToInput converts request to the service payload.
func (r *CreateOrderRequest) ToInput() (order.CreateInput, error) {
	orderDate, err := parseDate("orderDate", r.OrderDate)
	if err != nil {
		return order.CreateInput{}, err
	}
	arrival, err := parseOptionalDate("expectedArrivalDate", r.ExpectedArrivalDate)
	if err != nil {
		return order.CreateInput{}, err
	}

	in := order.CreateInput{
		SupplierName:        r.SupplierName,
		OrderDate:           orderDate,
		ExpectedArrivalDate: arrival,
		Note:                r.Note,
		Items:               make([]order.CreateItem, 0, len(r.Items)),
	}
	for _, line := range r.Items {
		productID, err := parseID("items.productId", line.ProductID)
		if err != nil {
			return order.CreateInput{}, err
		}
		in.Items = append(in.Items, order.CreateItem{
			ProductID:       productID,
			OrderedQuantity: line.OrderedQuantity,
		})
	}
	return in, nil
}

// ReceivedQuantitiesRequest is the body of request-check and confirm.
// Both accept an empty body.
type ReceivedQuantitiesRequest struct {
	ReceivedQuantities []ItemQuantityRequest `json:"receivedQuantities" binding:"dive"`
}

// ToInput converts request to the service payload.
func (r *ReceivedQuantitiesRequest) ToInput() ([]order.ReceivedQuantity, error) {
	out := make([]order.ReceivedQuantity, 0, len(r.ReceivedQuantities))
	for _, q := range r.ReceivedQuantities {
		productID, err := parseID("receivedQuantities.productId", q.ProductID)
		if err != nil {
			return nil, err
		}
		out = append(out, order.ReceivedQuantity{ProductID: productID, Quantity: q.Quantity})
	}
	return out, nil
}

// ListOrdersQuery holds GET /orders filters.
type ListOrdersQuery struct {
	PaginationQuery
	Status string `form:"status" binding:"omitempty,oneof=open check_pending completed"`
}

// ToFilter converts the query into a repository filter.
func (q ListOrdersQuery) ToFilter() order.ListFilter {
	filter := order.ListFilter{Pagination: q.ToDomain()}
	if q.Status != "" {
		st := order.Status(q.Status)
		filter.Status = &st
	}
	return filter
}

// --- Response DTOs ---

// OrderResponse is the API representation of an order.
type OrderResponse struct {
	ID                  string              `json:"id"`
	Number              string              `json:"number"`
	SupplierName        string              `json:"supplierName"`
	Status              order.Status        `json:"status"`
	OrderDate           string              `json:"orderDate"`
	ExpectedArrivalDate *string             `json:"expectedArrivalDate,omitempty"`
	Note                string              `json:"note,omitempty"`
	Items               []OrderItemResponse `json:"items"`
	TotalKg             decimal.Decimal     `json:"totalKg"`
	TotalPieces         decimal.Decimal     `json:"totalPieces"`
	ConfirmedBy         string              `json:"confirmedBy,omitempty"`
	ConfirmedAt         *time.Time          `json:"confirmedAt,omitempty"`
	Version             int                 `json:"version"`
	CreatedAt           time.Time           `json:"createdAt"`
	UpdatedAt           time.Time           `json:"updatedAt"`
}

// OrderItemResponse is one order line.
type OrderItemResponse struct {
	ProductID        string           `json:"productId"`
	UnitType         product.UnitType `json:"unitType"`
	OrderedQuantity  types.Quantity   `json:"orderedQuantity"`
	ReceivedQuantity *types.Quantity  `json:"receivedQuantity,omitempty"`
}

// FromOrder converts an order to its response.
func FromOrder(o *order.Order) OrderResponse {
	resp := OrderResponse{
		ID:                  o.ID.String(),
		Number:              o.Number,
		SupplierName:        o.SupplierName,
		Status:              o.Status,
		OrderDate:           o.OrderDate.UTC().Format(DateLayout),
		ExpectedArrivalDate: formatOptionalDate(o.ExpectedArrivalDate),
		Note:                o.Note,
		Items:               make([]OrderItemResponse, 0, len(o.Items)),
		TotalKg:             o.TotalKg,
		TotalPieces:         o.TotalPieces,
		ConfirmedBy:         o.ConfirmedBy,
		ConfirmedAt:         o.ConfirmedAt,
		Version:             o.Version,
		CreatedAt:           o.CreatedAt,
		UpdatedAt:           o.UpdatedAt,
	}
	for _, it := range o.Items {
		resp.Items = append(resp.Items, OrderItemResponse{
			ProductID:        it.ProductID.String(),
			UnitType:         it.UnitType,
			OrderedQuantity:  it.OrderedQuantity,
			ReceivedQuantity: it.ReceivedQuantity,
		})
	}
	return resp
}
