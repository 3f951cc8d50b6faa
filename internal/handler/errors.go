package handler

import (
	"errors"
	"net/http"

	"freightflow/internal/service"
	"freightflow/pkg/response"

	"github.com/gin-gonic/gin"
)

// writeServiceError maps service-layer errors onto the response envelope.
// Validation and policy rejections are 400s, absent entities 404s,
// concurrency conflicts 409s, and mid-batch failures 500s.
func writeServiceError(c *gin.Context, err error) {
	// Checked before the unwrapping matches below: a partial failure wraps
	// its cause, and the batch outcome is what the caller must see.
	var partial *service.PartialFailureError
	if errors.As(err, &partial) {
		c.JSON(http.StatusInternalServerError, response.Response{
			Status:     "error",
			StatusCode: http.StatusInternalServerError,
			Error:      partial.Error(),
			Data: gin.H{
				"processed":    partial.Processed,
				"failed_id":    partial.FailedID,
				"compensation": partial.Compensation,
			},
		})
		return
	}

	var notFound *service.NotFoundError
	if errors.As(err, &notFound) {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, notFound.Error()))
		return
	}

	var transition *service.InvalidTransitionError
	if errors.As(err, &transition) {
		c.JSON(http.StatusBadRequest, response.Response{
			Status:     "error",
			StatusCode: http.StatusBadRequest,
			Error:      transition.Error(),
			Data: gin.H{
				"current_status":      transition.Current,
				"allowed_transitions": transition.Allowed,
			},
		})
		return
	}

	var policy *service.PolicyError
	if errors.As(err, &policy) {
		body := response.Response{
			Status:     "error",
			StatusCode: http.StatusBadRequest,
			Error:      policy.Error(),
		}
		if policy.Shortfall.Sign() > 0 {
			body.Data = gin.H{"shortfall": policy.Shortfall.StringFixed(2)}
		}
		c.JSON(http.StatusBadRequest, body)
		return
	}

	switch {
	case errors.Is(err, service.ErrConcurrentModification):
		c.JSON(http.StatusConflict, response.Error(http.StatusConflict, err.Error()))
	case errors.Is(err, service.ErrNoRateContract),
		errors.Is(err, service.ErrNoEligibleBookings):
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
	default:
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
	}
}
