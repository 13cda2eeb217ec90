package dto

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"retailops/internal/core/types"
	"retailops/internal/domain/documents/packlist"
)

// --- Request DTOs ---

// CreatePacklistRequest represents a request to create a packlist.
type CreatePacklistRequest struct {
	PosID           string                `json:"posId" binding:"required,uuid"`
	Date            string                `json:"date" binding:"required,datetime=2006-01-02"`
	AssignedUserIDs []string              `json:"assignedUserIds" binding:"dive,required"`
	ChangeAmount    decimal.Decimal       `json:"changeAmount"`
	Note            string                `json:"note,omitempty" binding:"max=2000"`
	Items           []PacklistItemRequest `json:"items" binding:"required,min=1,dive"`
}

// PacklistItemRequest represents a line in create request.
type PacklistItemRequest struct {
	ProductID       string           `json:"productId" binding:"required,uuid"`
	PlannedQuantity types.Quantity   `json:"plannedQuantity"`
	SpecialPrice    *decimal.Decimal `json:"specialPrice,omitempty"`
}

// ToInput converts request to the service payload.
func (r *CreatePacklistRequest) ToInput() (packlist.CreateInput, error) {
	posID, err := parseID("posId", r.PosID)
	if err != nil {
		return packlist.CreateInput{}, err
	}
	date, err := parseDate("date", r.Date)
	if err != nil {
		return packlist.CreateInput{}, err
	}

	in := packlist.CreateInput{
		PosID:           posID,
		Date:            date,
		AssignedUserIDs: r.AssignedUserIDs,
		ChangeAmount:    r.ChangeAmount,
		Note:            r.Note,
		Items:           make([]packlist.CreateItem, 0, len(r.Items)),
	}
	for _, line := range r.Items {
		productID, err := parseID("items.productId", line.ProductID)
		if err != nil {
			return packlist.CreateInput{}, err
		}
		in.Items = append(in.Items, packlist.CreateItem{
			ProductID:       productID,
			PlannedQuantity: line.PlannedQuantity,
			SpecialPrice:    line.SpecialPrice,
		})
	}
	return in, nil
}

// ItemQuantityRequest is a counted quantity for one product.
type ItemQuantityRequest struct {
	ProductID string         `json:"productId" binding:"required,uuid"`
	Quantity  types.Quantity `json:"quantity"`
}

func toItemQuantities(field string, reqs []ItemQuantityRequest) ([]packlist.ItemQuantity, error) {
	out := make([]packlist.ItemQuantity, 0, len(reqs))
	for _, q := range reqs {
		productID, err := parseID(field+".productId", q.ProductID)
		if err != nil {
			return nil, err
		}
		out = append(out, packlist.ItemQuantity{ProductID: productID, Quantity: q.Quantity})
	}
	return out, nil
}

// StartSellingRequest carries the opening counts. Omitted products start at
// their planned quantity.
type StartSellingRequest struct {
	StartQuantities []ItemQuantityRequest `json:"startQuantities" binding:"dive"`
}

// ToInput converts request to the service payload.
func (r *StartSellingRequest) ToInput() ([]packlist.ItemQuantity, error) {
	return toItemQuantities("startQuantities", r.StartQuantities)
}

// FinishSellingRequest carries closing counts and the cash handed in.
type FinishSellingRequest struct {
	EndQuantities []ItemQuantityRequest `json:"endQuantities" binding:"dive"`
	ReportedCash  decimal.Decimal       `json:"reportedCash"`
	WorkerNote    string                `json:"workerNote,omitempty" binding:"max=2000"`
}

// ToInput converts request to the service payload.
func (r *FinishSellingRequest) ToInput() (packlist.FinishSellingInput, error) {
	ends, err := toItemQuantities("endQuantities", r.EndQuantities)
	if err != nil {
		return packlist.FinishSellingInput{}, err
	}
	return packlist.FinishSellingInput{
		EndQuantities: ends,
		ReportedCash:  r.ReportedCash,
		WorkerNote:    r.WorkerNote,
	}, nil
}

// ListPacklistsQuery holds GET /packlists filters.
type ListPacklistsQuery struct {
	PaginationQuery
	Status   string  `form:"status" binding:"omitempty,oneof=open currently_selling sold completed"`
	PosID    string  `form:"posId" binding:"omitempty,uuid"`
	DateFrom *string `form:"dateFrom" binding:"omitempty,datetime=2006-01-02"`
	DateTo   *string `form:"dateTo" binding:"omitempty,datetime=2006-01-02"`
}

// ToFilter converts the query into a repository filter.
func (q ListPacklistsQuery) ToFilter() (packlist.ListFilter, error) {
	filter := packlist.ListFilter{Pagination: q.ToDomain()}
	if q.Status != "" {
		st := packlist.Status(q.Status)
		filter.Status = &st
	}
	if q.PosID != "" {
		posID, err := parseID("posId", q.PosID)
		if err != nil {
			return filter, err
		}
		filter.PosID = &posID
	}
	var err error
	if filter.DateFrom, err = parseOptionalDate("dateFrom", q.DateFrom); err != nil {
		return filter, err
	}
	if filter.DateTo, err = parseOptionalDate("dateTo", q.DateTo); err != nil {
		return filter, err
	}
	return filter, nil
}

// --- Response DTOs ---

// PacklistResponse is the API representation of a packlist.
type PacklistResponse struct {
	ID              string                 `json:"id"`
	Number          string                 `json:"number"`
	PosID           string                 `json:"posId"`
	Status          packlist.Status        `json:"status"`
	Date            string                 `json:"date"`
	AssignedUserIDs []string               `json:"assignedUserIds"`
	ChangeAmount    decimal.Decimal        `json:"changeAmount"`
	Note            string                 `json:"note,omitempty"`
	WorkerNote      string                 `json:"workerNote,omitempty"`
	Items           []PacklistItemResponse `json:"items"`
	SalesTotal      decimal.Decimal        `json:"salesTotal"`
	ExpectedCash    *decimal.Decimal       `json:"expectedCash,omitempty"`
	ReportedCash    *decimal.Decimal       `json:"reportedCash,omitempty"`
	Difference      *decimal.Decimal       `json:"difference,omitempty"`
	ClosedAt        *time.Time             `json:"closedAt,omitempty"`
	Version         int                    `json:"version"`
	CreatedAt       time.Time              `json:"createdAt"`
	UpdatedAt       time.Time              `json:"updatedAt"`
	CreatedBy       string                 `json:"createdBy,omitempty"`
}

// PacklistItemResponse adds the derived sold quantity and line revenue.
type PacklistItemResponse struct {
	ProductID       string           `json:"productId"`
	UnitLabel       string           `json:"unitLabel"`
	BasePrice       decimal.Decimal  `json:"basePrice"`
	SpecialPrice    *decimal.Decimal `json:"specialPrice,omitempty"`
	PlannedQuantity types.Quantity   `json:"plannedQuantity"`
	StartQuantity   *types.Quantity  `json:"startQuantity,omitempty"`
	EndQuantity     *types.Quantity  `json:"endQuantity,omitempty"`
	SoldQuantity    types.Quantity   `json:"soldQuantity"`
	LineRevenue     decimal.Decimal  `json:"lineRevenue"`
}

// FromPacklist converts a packlist to its response.
func FromPacklist(p *packlist.Packlist) PacklistResponse {
	resp := PacklistResponse{
		ID:              p.ID.String(),
		Number:          p.Number,
		PosID:           p.PosID.String(),
		Status:          p.Status,
		Date:            p.Date.UTC().Format(DateLayout),
		AssignedUserIDs: slices.Clone(p.AssignedUserIDs),
		ChangeAmount:    p.ChangeAmount,
		Note:            p.Note,
		WorkerNote:      p.WorkerNote,
		Items:           make([]PacklistItemResponse, 0, len(p.Items)),
		SalesTotal:      p.SalesTotal(),
		ExpectedCash:    p.ExpectedCash,
		ReportedCash:    p.ReportedCash,
		Difference:      p.Difference,
		ClosedAt:        p.ClosedAt,
		Version:         p.Version,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
		CreatedBy:       p.CreatedBy,
	}
	if resp.AssignedUserIDs == nil {
		resp.AssignedUserIDs = []string{}
	}
	for _, it := range p.Items {
		resp.Items = append(resp.Items, PacklistItemResponse{
			ProductID:       it.ProductID.String(),
			UnitLabel:       it.UnitLabel,
			BasePrice:       it.BasePrice,
			SpecialPrice:    it.SpecialPrice,
			PlannedQuantity: it.PlannedQuantity,
			StartQuantity:   it.StartQuantity,
			EndQuantity:     it.EndQuantity,
			SoldQuantity:    it.SoldQuantity(),
			LineRevenue:     it.LineRevenue(),
		})
	}
	return resp
}
