package handler

import (
	"net/http"
	"time"

	"freightflow/internal/service"
	"freightflow/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type RateHandler struct {
	rateService service.RateService
}

func NewRateHandler(rateService service.RateService) *RateHandler {
	return &RateHandler{rateService: rateService}
}

func (h *RateHandler) RegisterRoutes(router *gin.RouterGroup) {
	rates := router.Group("/api/rates")
	{
		rates.POST("/calculate-price", h.CalculatePrice)
	}
}

// CalculatePrice resolves a price breakdown without creating a booking
// @Summary      Calculate price
// @Description  Resolves the freight charge for a prospective booking from the customer's active rate contracts
// @Tags         rates
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CalculatePriceRequest  true  "Price Calculation Payload"
// @Success      200      {object}  response.Response{data=service.PriceBreakdown}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/rates/calculate-price [post]
func (h *RateHandler) CalculatePrice(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}

	var req service.CalculatePriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	input, err := priceInputFromRequest(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	breakdown, err := h.rateService.ResolvePrice(c.Request.Context(), rc, input)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, breakdown))
}

func priceInputFromRequest(req service.CalculatePriceRequest) (service.PriceInput, error) {
	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		return service.PriceInput{}, err
	}
	fromBranch, err := uuid.Parse(req.FromBranchID)
	if err != nil {
		return service.PriceInput{}, err
	}
	toBranch, err := uuid.Parse(req.ToBranchID)
	if err != nil {
		return service.PriceInput{}, err
	}
	weight, err := decimal.NewFromString(req.Weight)
	if err != nil {
		return service.PriceInput{}, err
	}

	input := service.PriceInput{
		CustomerID:   customerID,
		FromBranchID: fromBranch,
		ToBranchID:   toBranch,
		Weight:       weight,
		Quantity:     req.Quantity,
		BookingDate:  time.Now(),
	}
	if req.ArticleID != "" {
		articleID, err := uuid.Parse(req.ArticleID)
		if err != nil {
			return service.PriceInput{}, err
		}
		input.ArticleID = &articleID
	}
	if req.BookingDate != "" {
		date, err := time.Parse("2006-01-02", req.BookingDate)
		if err != nil {
			return service.PriceInput{}, err
		}
		input.BookingDate = date
	}
	return input, nil
}
