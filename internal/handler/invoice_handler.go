package handler

import (
	"fmt"
	"net/http"

	"freightflow/internal/middleware"
	"freightflow/internal/model"
	"freightflow/internal/repository"
	"freightflow/internal/service"
	"freightflow/pkg/pagination"
	"freightflow/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type InvoiceHandler struct {
	invoiceService service.InvoiceService
}

func NewInvoiceHandler(invoiceService service.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService}
}

func (h *InvoiceHandler) RegisterRoutes(router *gin.RouterGroup) {
	billing := middleware.RequireRole(model.RoleAdmin, model.RoleManager)

	invoices := router.Group("/api/invoices")
	{
		invoices.POST("/preview", h.PreviewInvoice)
		invoices.POST("/generate", billing, h.GenerateInvoice)
		invoices.GET("", h.ListInvoices)
		invoices.GET("/:id", h.GetInvoice)
		invoices.GET("/:id/pdf", h.DownloadInvoicePDF)
		invoices.PATCH("/:id/status", billing, h.UpdateInvoiceStatus)
	}
}

// PreviewInvoice dry-runs invoice compilation
// @Summary      Preview invoice
// @Description  Computes the figures an invoice would carry without persisting anything
// @Tags         invoices
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.GenerateInvoiceRequest  true  "Invoice Period Payload"
// @Success      200      {object}  response.Response{data=service.InvoicePreview}
// @Failure      404      {object}  response.Response
// @Router       /api/invoices/preview [post]
func (h *InvoiceHandler) PreviewInvoice(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}

	var req service.GenerateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	preview, err := h.invoiceService.Preview(c.Request.Context(), rc, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, preview))
}

// GenerateInvoice compiles and persists an invoice
// @Summary      Generate invoice
// @Description  Compiles one invoice over the customer's eligible bookings in the period and assigns the next sequential invoice number
// @Tags         invoices
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.GenerateInvoiceRequest  true  "Invoice Period Payload"
// @Success      200      {object}  response.Response{data=model.Invoice}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/invoices/generate [post]
func (h *InvoiceHandler) GenerateInvoice(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}

	var req service.GenerateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	invoice, err := h.invoiceService.Generate(c.Request.Context(), rc, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoice))
}

// ListInvoices returns a paginated list of invoices
// @Summary      List invoices
// @Description  Retrieves a paginated list of invoices with optional filters
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        status       query     string  false  "Filter by status (GENERATED, SENT, PAID)"
// @Param        customer_id  query     string  false  "Filter by customer"
// @Param        page         query     int     false  "Page number (default 1)"
// @Param        limit        query     int     false  "Number of items per page (default 20)"
// @Success      200          {object}  response.Response{data=object}
// @Failure      500          {object}  response.Response
// @Router       /api/invoices [get]
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}

	params := pagination.Parse(c)

	filter := repository.InvoiceListFilter{
		Status: c.Query("status"),
		Page:   params.Page,
		Limit:  params.Limit,
	}
	if raw := c.Query("customer_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid customer_id"))
			return
		}
		filter.CustomerID = &id
	}

	invoices, total, err := h.invoiceService.List(c.Request.Context(), rc, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"invoices": invoices,
		"total":    total,
		"page":     params.Page,
		"limit":    params.Limit,
	}))
}

// GetInvoice returns one invoice with line items
// @Summary      Get invoice
// @Description  Retrieves one invoice by ID including line items
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response{data=model.Invoice}
// @Failure      404  {object}  response.Response
// @Router       /api/invoices/{id} [get]
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}

	invoice, err := h.invoiceService.Get(c.Request.Context(), rc, c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoice))
}

// DownloadInvoicePDF renders the invoice as PDF
// @Summary      Download invoice PDF
// @Description  Renders the tax invoice to PDF
// @Tags         invoices
// @Security     BearerAuth
// @Produce      application/pdf
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {file}    file
// @Failure      404  {object}  response.Response
// @Router       /api/invoices/{id}/pdf [get]
func (h *InvoiceHandler) DownloadInvoicePDF(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}

	data, filename, err := h.invoiceService.RenderPDF(c.Request.Context(), rc, c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", data)
}

// UpdateInvoiceStatus moves the invoice along its status flow
// @Summary      Update invoice status
// @Description  Marks the invoice SENT or PAID; backward moves are rejected
// @Tags         invoices
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                        true  "Invoice ID"
// @Param        payload  body      service.InvoiceStatusRequest  true  "Status Payload"
// @Success      200      {object}  response.Response{data=model.Invoice}
// @Failure      400      {object}  response.Response
// @Router       /api/invoices/{id}/status [patch]
func (h *InvoiceHandler) UpdateInvoiceStatus(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}

	var req service.InvoiceStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	invoice, err := h.invoiceService.UpdateStatus(c.Request.Context(), rc, c.Param("id"), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoice))
}
