// Package revenue aggregates settled packlists into revenue time series
// per point of sale and per product.
package revenue

import (
	"time"

	"github.com/shopspring/decimal"

	"retailops/internal/core/apperror"
	"retailops/internal/core/id"
)

// TimeRange selects the reporting window.
type TimeRange string

const (
	Range30Days  TimeRange = "30"
	Range90Days  TimeRange = "90"
	Range180Days TimeRange = "180"
	RangeAll     TimeRange = "all"
)

// DayLayout keys the per-day buckets.
const DayLayout = "2006-01-02"

// ParseTimeRange accepts "30", "90", "180" and "all". Empty means 30.
func ParseTimeRange(s string) (TimeRange, error) {
	switch TimeRange(s) {
	case "":
		return Range30Days, nil
	case Range30Days, Range90Days, Range180Days, RangeAll:
		return TimeRange(s), nil
	}
	return "", apperror.NewValidation("invalid time range").
		WithDetail("field", "range").
		WithDetail("value", s).
		WithDetail("allowed", []string{"30", "90", "180", "all"})
}

// Days returns the window length, false for RangeAll.
func (r TimeRange) Days() (int, bool) {
	switch r {
	case Range30Days:
		return 30, true
	case Range90Days:
		return 90, true
	case Range180Days:
		return 180, true
	}
	return 0, false
}

// Since is the first business day inside the window: the UTC start of
// now's day minus the window length. Nil for RangeAll.
func (r TimeRange) Since(now time.Time) *time.Time {
	n, ok := r.Days()
	if !ok {
		return nil
	}
	u := now.UTC()
	start := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -n)
	return &start
}

// Point is the revenue of one entity on one day.
type Point struct {
	Date    string          `json:"date"`
	Revenue decimal.Decimal `json:"revenue"`
}

// Series is the revenue history of one point of sale or product.
type Series struct {
	ID           id.ID           `json:"id"`
	TotalRevenue decimal.Decimal `json:"totalRevenue"`
	Points       []Point         `json:"points"`
}

// Report is the result of ComputeRevenue.
type Report struct {
	Range        TimeRange       `json:"range"`
	Since        *time.Time      `json:"since,omitempty"`
	TotalRevenue decimal.Decimal `json:"totalRevenue"`
	ByPos        []Series        `json:"byPos"`
	ByProduct    []Series        `json:"byProduct"`
}
