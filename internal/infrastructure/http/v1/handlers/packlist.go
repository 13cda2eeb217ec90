package handlers

import (
	"github.com/gin-gonic/gin"

	"retailops/internal/domain/documents/packlist"
	"retailops/internal/infrastructure/http/v1/dto"
)

// PacklistHandler handles HTTP requests for packlists.
type PacklistHandler struct {
	*BaseHandler
	service *packlist.Service
}

// NewPacklistHandler creates a new packlist handler.
func NewPacklistHandler(base *BaseHandler, service *packlist.Service) *PacklistHandler {
	return &PacklistHandler{BaseHandler: base, service: service}
}

// Create handles POST /packlists.
func (h *PacklistHandler) Create(c *gin.Context) {
	var req dto.CreatePacklistRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	p, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromPacklist(p))
}

// List handles GET /packlists.
func (h *PacklistHandler) List(c *gin.Context) {
	var q dto.ListPacklistsQuery
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	res, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(res, dto.FromPacklist))
}

// Get handles GET /packlists/:id.
func (h *PacklistHandler) Get(c *gin.Context) {
	packlistID, ok := h.ParseID(c)
	if !ok {
		return
	}

	p, err := h.service.GetByID(c.Request.Context(), packlistID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromPacklist(p))
}

// StartSelling handles POST /packlists/:id/start-selling.
func (h *PacklistHandler) StartSelling(c *gin.Context) {
	packlistID, ok := h.ParseID(c)
	if !ok {
		return
	}
	var req dto.StartSellingRequest
	if !h.BindOptionalJSON(c, &req) {
		return
	}
	starts, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	p, err := h.service.StartSelling(c.Request.Context(), packlistID, starts)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromPacklist(p))
}

// FinishSelling handles POST /packlists/:id/finish-selling.
func (h *PacklistHandler) FinishSelling(c *gin.Context) {
	packlistID, ok := h.ParseID(c)
	if !ok {
		return
	}
	var req dto.FinishSellingRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	p, err := h.service.FinishSelling(c.Request.Context(), packlistID, in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromPacklist(p))
}

// Complete handles POST /packlists/:id/complete.
func (h *PacklistHandler) Complete(c *gin.Context) {
	packlistID, ok := h.ParseID(c)
	if !ok {
		return
	}

	p, err := h.service.Complete(c.Request.Context(), packlistID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromPacklist(p))
}
