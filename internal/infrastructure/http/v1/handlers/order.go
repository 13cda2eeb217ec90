package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"retailops/internal/core/id"
	"retailops/internal/domain/documents/order"
	"retailops/internal/infrastructure/http/v1/dto"
)

// OrderHandler handles HTTP requests for supplier orders.
type OrderHandler struct {
	*BaseHandler
	service *order.Service
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(base *BaseHandler, service *order.Service) *OrderHandler {
	return &OrderHandler{BaseHandler: base, service: service}
}

// Create handles POST /orders.
func (h *OrderHandler) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	o, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromOrder(o))
}

// List handles GET /orders.
func (h *OrderHandler) List(c *gin.Context) {
	var q dto.ListOrdersQuery
	if !h.BindQuery(c, &q) {
		return
	}

	res, err := h.service.List(c.Request.Context(), q.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(res, dto.FromOrder))
}

// Get handles GET /orders/:id.
func (h *OrderHandler) Get(c *gin.Context) {
	orderID, ok := h.ParseID(c)
	if !ok {
		return
	}

	o, err := h.service.GetByID(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromOrder(o))
}

// RequestCheck handles POST /orders/:id/request-check.
func (h *OrderHandler) RequestCheck(c *gin.Context) {
	h.receive(c, h.service.RequestCheck)
}

// Confirm handles POST /orders/:id/confirm.
func (h *OrderHandler) Confirm(c *gin.Context) {
	h.receive(c, h.service.Confirm)
}

type receiveFunc func(ctx context.Context, orderID id.ID, received []order.ReceivedQuantity) (*order.Order, error)

func (h *OrderHandler) receive(c *gin.Context, fn receiveFunc) {
	orderID, ok := h.ParseID(c)
	if !ok {
		return
	}
	var req dto.ReceivedQuantitiesRequest
	if !h.BindOptionalJSON(c, &req) {
		return
	}
	received, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	o, err := fn(c.Request.Context(), orderID, received)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromOrder(o))
}
