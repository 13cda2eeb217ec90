// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"fmt"
	"time"

	"retailops/internal/core/apperror"
	"retailops/internal/core/id"
	"retailops/internal/domain"
)

// DateLayout is the wire format of business days.
const DateLayout = "2006-01-02"

// PaginationQuery contains pagination parameters.
type PaginationQuery struct {
	Limit  int `form:"limit" binding:"omitempty,min=1,max=500"`
	Offset int `form:"offset" binding:"omitempty,min=0"`
}

// ToDomain converts the query into domain pagination.
func (q PaginationQuery) ToDomain() domain.Pagination {
	return domain.Pagination{Limit: q.Limit, Offset: q.Offset}
}

// ListResponse wraps list results with pagination.
type ListResponse[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// NewListResponse maps a domain page through conv.
func NewListResponse[E, T any](res domain.ListResult[E], conv func(E) T) ListResponse[T] {
	items := make([]T, 0, len(res.Items))
	for _, e := range res.Items {
		items = append(items, conv(e))
	}
	return ListResponse[T]{
		Items:      items,
		TotalCount: res.TotalCount,
		Limit:      res.Limit,
		Offset:     res.Offset,
	}
}

// ErrorResponse is the body rendered by middleware.ErrorHandler.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func parseID(field, raw string) (id.ID, error) {
	v, err := id.Parse(raw)
	if err != nil {
		return id.ID{}, apperror.NewValidation(fmt.Sprintf("invalid %s", field)).
			WithDetail("field", field).
			WithDetail("value", raw)
	}
	return v, nil
}

func parseDate(field, raw string) (time.Time, error) {
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return time.Time{}, apperror.NewValidation(fmt.Sprintf("invalid %s", field)).
			WithDetail("field", field).
			WithDetail("value", raw)
	}
	return t, nil
}

func parseOptionalDate(field string, raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	t, err := parseDate(field, *raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formatOptionalDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(DateLayout)
	return &s
}
