package handler

import (
	"net/http"

	"freightflow/internal/service"
	"freightflow/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CustomerHandler struct {
	creditService service.CreditService
}

func NewCustomerHandler(creditService service.CreditService) *CustomerHandler {
	return &CustomerHandler{creditService: creditService}
}

func (h *CustomerHandler) RegisterRoutes(router *gin.RouterGroup) {
	customers := router.Group("/api/customers")
	{
		customers.GET("/:id/credit", h.CheckCredit)
		customers.POST("/:id/payments", h.RecordPayment)
	}
}

// CheckCredit evaluates the credit gate for a hypothetical charge
// @Summary      Check credit
// @Description  Evaluates whether a charge of the given amount would pass the customer's credit gate
// @Tags         customers
// @Security     BearerAuth
// @Produce      json
// @Param        id      path      string  true   "Customer ID"
// @Param        amount  query     string  false  "Proposed charge amount (default 0)"
// @Success      200     {object}  response.Response{data=service.CreditDecision}
// @Failure      404     {object}  response.Response
// @Router       /api/customers/{id}/credit [get]
func (h *CustomerHandler) CheckCredit(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}

	customerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid customer id"))
		return
	}

	amount := decimal.Zero
	if raw := c.Query("amount"); raw != "" {
		amount, err = decimal.NewFromString(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid amount"))
			return
		}
	}

	decision, err := h.creditService.Check(c.Request.Context(), rc, customerID, amount)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, decision))
}

// RecordPayment records a payment against the customer's balance
// @Summary      Record payment
// @Description  Records a received payment and reduces the customer's outstanding balance
// @Tags         customers
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                        true  "Customer ID"
// @Param        payload  body      service.RecordPaymentRequest  true  "Payment Payload"
// @Success      201      {object}  response.Response{data=model.Payment}
// @Failure      400      {object}  response.Response
// @Router       /api/customers/{id}/payments [post]
func (h *CustomerHandler) RecordPayment(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}

	var req service.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	payment, err := h.creditService.RecordPayment(c.Request.Context(), rc, c.Param("id"), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, payment))
}
