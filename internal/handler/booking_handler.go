package handler

import (
	"net/http"
	"time"

	"freightflow/internal/middleware"
	"freightflow/internal/model"
	"freightflow/internal/repository"
	"freightflow/internal/service"
	"freightflow/pkg/pagination"
	"freightflow/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type BookingHandler struct {
	bookingService service.BookingService
}

func NewBookingHandler(bookingService service.BookingService) *BookingHandler {
	return &BookingHandler{bookingService: bookingService}
}

func (h *BookingHandler) RegisterRoutes(router *gin.RouterGroup) {
	bookings := router.Group("/api/bookings")
	{
		bookings.POST("", h.CreateBooking)
		bookings.GET("", h.ListBookings)
		bookings.GET("/:id", h.GetBooking)
		bookings.GET("/:id/history", h.GetBookingHistory)
		bookings.PATCH("/:id/status", h.UpdateBookingStatus)
		bookings.POST("/:id/pod", h.RecordPOD)
	}
}

// CreateBooking creates a new booking with a resolved charge breakdown
// @Summary      Create booking
// @Description  Creates a booking, resolving the freight charge from the sender's rate contract and passing the credit gate
// @Tags         bookings
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateBookingRequest  true  "Create Booking Payload"
// @Success      201      {object}  response.Response{data=model.Booking}
// @Failure      400      {object}  response.Response
// @Router       /api/bookings [post]
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}

	var req service.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.bookingService.Create(c.Request.Context(), rc, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	if result.CreditWarning != "" {
		c.JSON(http.StatusCreated, response.SuccessWithWarning(http.StatusCreated, result.Booking, result.CreditWarning))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, result.Booking))
}

// ListBookings returns a paginated list of bookings
// @Summary      List bookings
// @Description  Retrieves a paginated list of bookings with optional filters
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Param        status       query     string  false  "Filter by status"
// @Param        customer_id  query     string  false  "Filter by sender or receiver"
// @Param        from_date    query     string  false  "Booking date lower bound (YYYY-MM-DD)"
// @Param        to_date      query     string  false  "Booking date upper bound (YYYY-MM-DD)"
// @Param        page         query     int     false  "Page number (default 1)"
// @Param        limit        query     int     false  "Number of items per page (default 20)"
// @Success      200          {object}  response.Response{data=object}
// @Failure      500          {object}  response.Response
// @Router       /api/bookings [get]
func (h *BookingHandler) ListBookings(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}

	params := pagination.Parse(c)

	filter := repository.BookingListFilter{
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
	if raw := c.Query("from_date"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid from_date, expected YYYY-MM-DD"))
			return
		}
		filter.FromDate = &t
	}
	if raw := c.Query("to_date"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid to_date, expected YYYY-MM-DD"))
			return
		}
		filter.ToDate = &t
	}

	bookings, total, err := h.bookingService.List(c.Request.Context(), rc, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"bookings": bookings,
		"total":    total,
		"page":     params.Page,
		"limit":    params.Limit,
	}))
}

// GetBooking returns a single booking with articles and POD
// @Summary      Get booking
// @Description  Retrieves one booking by ID including articles and proof of delivery
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Booking ID"
// @Success      200  {object}  response.Response{data=model.Booking}
// @Failure      404  {object}  response.Response
// @Router       /api/bookings/{id} [get]
func (h *BookingHandler) GetBooking(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}

	booking, err := h.bookingService.Get(c.Request.Context(), rc, c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, booking))
}

// GetBookingHistory returns the booking's status event trail
// @Summary      Get booking history
// @Description  Retrieves the chronological status event trail for a booking
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Booking ID"
// @Success      200  {object}  response.Response{data=[]model.BookingStatusEvent}
// @Failure      404  {object}  response.Response
// @Router       /api/bookings/{id}/history [get]
func (h *BookingHandler) GetBookingHistory(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}

	events, err := h.bookingService.History(c.Request.Context(), rc, c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, events))
}

// UpdateBookingStatus moves a booking along the status state machine
// @Summary      Update booking status
// @Description  Applies one status transition; same-status requests are no-ops and rejected moves list the allowed transitions
// @Tags         bookings
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                     true  "Booking ID"
// @Param        payload  body      service.TransitionRequest  true  "Transition Payload"
// @Success      200      {object}  response.Response{data=service.TransitionResult}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/bookings/{id}/status [patch]
func (h *BookingHandler) UpdateBookingStatus(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}

	var req service.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.bookingService.Transition(c.Request.Context(), rc, c.Param("id"), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// RecordPOD records proof of delivery for a booking
// @Summary      Record proof of delivery
// @Description  Records the signed proof of delivery that unblocks the DELIVERED transition
// @Tags         bookings
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                    true  "Booking ID"
// @Param        payload  body      service.RecordPODRequest  true  "POD Payload"
// @Success      200      {object}  response.Response{data=model.ProofOfDelivery}
// @Failure      400      {object}  response.Response
// @Router       /api/bookings/{id}/pod [post]
func (h *BookingHandler) RecordPOD(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}

	var req service.RecordPODRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	pod, err := h.bookingService.RecordPOD(c.Request.Context(), rc, c.Param("id"), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, pod))
}

// requestContext is a small helper other handlers in this package share.
func requestContext(c *gin.Context) (model.RequestContext, bool) {
	rc, ok := middleware.GetRequestContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
	}
	return rc, ok
}
