package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"retailops/internal/core/apperror"
	"retailops/internal/domain/audit"
)

var auditEntities = map[string]string{
	"products":  audit.EntityProduct,
	"packlists": audit.EntityPacklist,
	"orders":    audit.EntityOrder,
}

// AuditHandler exposes the history of one aggregate.
type AuditHandler struct {
	*BaseHandler
	reader audit.Reader
}

// NewAuditHandler creates a new audit handler.
func NewAuditHandler(base *BaseHandler, reader audit.Reader) *AuditHandler {
	return &AuditHandler{BaseHandler: base, reader: reader}
}

// History handles GET /audit/:entity/:id?limit=N.
func (h *AuditHandler) History(c *gin.Context) {
	entityType, ok := auditEntities[c.Param("entity")]
	if !ok {
		h.Error(c, apperror.NewValidation("unknown entity type").
			WithDetail("entity", c.Param("entity")))
		return
	}
	entityID, ok := h.ParseID(c)
	if !ok {
		return
	}
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 1000 {
			h.Error(c, apperror.NewValidation("limit must be between 1 and 1000").
				WithDetail("field", "limit"))
			return
		}
		limit = n
	}

	entries, err := h.reader.History(c.Request.Context(), entityType, entityID, limit)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": entries})
}
