package handlers

import (
	"github.com/gin-gonic/gin"

	"retailops/internal/domain/reports/revenue"
)

// ReportsHandler serves aggregated reports.
type ReportsHandler struct {
	*BaseHandler
	revenue *revenue.Service
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(base *BaseHandler, revenueSvc *revenue.Service) *ReportsHandler {
	return &ReportsHandler{BaseHandler: base, revenue: revenueSvc}
}

// Revenue handles GET /reports/revenue?range=30|90|180|all.
func (h *ReportsHandler) Revenue(c *gin.Context) {
	r, err := revenue.ParseTimeRange(c.Query("range"))
	if err != nil {
		h.Error(c, err)
		return
	}

	report, err := h.revenue.Compute(c.Request.Context(), r)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, report)
}
