package handlers

import (
	"github.com/gin-gonic/gin"

	"retailops/internal/domain/catalog/product"
	"retailops/internal/domain/ledger"
	"retailops/internal/infrastructure/http/v1/dto"
)

// ProductHandler handles HTTP requests for products and their stock.
type ProductHandler struct {
	*BaseHandler
	products *product.Service
	ledger   *ledger.Service
}

// NewProductHandler creates a new product handler.
func NewProductHandler(base *BaseHandler, products *product.Service, ledgerSvc *ledger.Service) *ProductHandler {
	return &ProductHandler{BaseHandler: base, products: products, ledger: ledgerSvc}
}

// Create handles POST /products.
func (h *ProductHandler) Create(c *gin.Context) {
	var req dto.CreateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p, err := h.products.Create(c.Request.Context(), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, p)
}

// List handles GET /products.
func (h *ProductHandler) List(c *gin.Context) {
	var q dto.ListProductsQuery
	if !h.BindQuery(c, &q) {
		return
	}

	res, err := h.products.List(c.Request.Context(), q.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, res)
}

// Get handles GET /products/:id.
func (h *ProductHandler) Get(c *gin.Context) {
	productID, ok := h.ParseID(c)
	if !ok {
		return
	}

	p, err := h.products.GetByID(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, p)
}

// SetStock handles PUT /products/:id/stock.
func (h *ProductHandler) SetStock(c *gin.Context) {
	productID, ok := h.ParseID(c)
	if !ok {
		return
	}
	var req dto.SetStockRequest
	if !h.BindJSON(c, &req) {
		return
	}

	m, err := h.ledger.EditStock(c.Request.Context(), productID, *req.TotalStock)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromMovement(m))
}

// SetActive handles PUT /products/:id/active.
func (h *ProductHandler) SetActive(c *gin.Context) {
	productID, ok := h.ParseID(c)
	if !ok {
		return
	}
	var req dto.SetActiveRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p, err := h.products.SetActive(c.Request.Context(), productID, *req.Active)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, p)
}
