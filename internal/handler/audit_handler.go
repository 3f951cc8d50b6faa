package handler

import (
	"net/http"

	"freightflow/internal/repository"
	"freightflow/pkg/pagination"
	"freightflow/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	auditRepo repository.AuditRepository
}

func NewAuditHandler(auditRepo repository.AuditRepository) *AuditHandler {
	return &AuditHandler{auditRepo: auditRepo}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/api/audit-logs", h.ListAuditLogs)
}

// ListAuditLogs returns a paginated audit trail
// @Summary      List audit logs
// @Description  Retrieves the organization's audit trail, optionally filtered by action
// @Tags         audit
// @Security     BearerAuth
// @Produce      json
// @Param        action  query     string  false  "Filter by action code"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Success      200     {object}  response.Response{data=object}
// @Failure      500     {object}  response.Response
// @Router       /api/audit-logs [get]
func (h *AuditHandler) ListAuditLogs(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}

	params := pagination.Parse(c)

	entries, total, err := h.auditRepo.List(c.Request.Context(), rc.OrganizationID, c.Query("action"), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"audit_logs": entries,
		"total":      total,
		"page":       params.Page,
		"limit":      params.Limit,
	}))
}
