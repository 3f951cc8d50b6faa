package handler

import (
	"fmt"
	"net/http"

	"freightflow/internal/excel"
	"freightflow/internal/repository"
	"freightflow/internal/service"
	"freightflow/pkg/pagination"
	"freightflow/pkg/response"

	"github.com/gin-gonic/gin"
)

type ManifestHandler struct {
	manifestService service.ManifestService
	tripSheets      *excel.TripSheetGenerator
}

func NewManifestHandler(manifestService service.ManifestService, tripSheets *excel.TripSheetGenerator) *ManifestHandler {
	return &ManifestHandler{
		manifestService: manifestService,
		tripSheets:      tripSheets,
	}
}

func (h *ManifestHandler) RegisterRoutes(router *gin.RouterGroup) {
	manifests := router.Group("/api/manifests")
	{
		manifests.POST("", h.CreateManifest)
		manifests.GET("", h.ListManifests)
		manifests.GET("/:id", h.GetManifest)
		manifests.GET("/:id/export", h.ExportTripSheet)
		manifests.PATCH("/:id/status", h.UpdateManifestStatus)
		manifests.POST("/:id/bookings", h.LoadBookings)
		manifests.DELETE("/:id/bookings", h.RemoveBookings)
		manifests.POST("/:id/unload", h.UnloadManifest)
		manifests.POST("/:id/unload-bookings", h.UnloadBookings)
	}
}

// CreateManifest creates a new trip manifest
// @Summary      Create manifest
// @Description  Creates a manifest for a vehicle trip between two branches
// @Tags         manifests
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateManifestRequest  true  "Create Manifest Payload"
// @Success      201      {object}  response.Response{data=model.Manifest}
// @Failure      400      {object}  response.Response
// @Router       /api/manifests [post]
func (h *ManifestHandler) CreateManifest(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}

	var req service.CreateManifestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	manifest, err := h.manifestService.Create(c.Request.Context(), rc, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, manifest))
}

// ListManifests returns a paginated list of manifests
// @Summary      List manifests
// @Description  Retrieves a paginated list of manifests, optionally filtered by status
// @Tags         manifests
// @Security     BearerAuth
// @Produce      json
// @Param        status  query     string  false  "Filter by status (CREATED, IN_TRANSIT, COMPLETED, CANCELLED)"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Success      200     {object}  response.Response{data=object}
// @Failure      500     {object}  response.Response
// @Router       /api/manifests [get]
func (h *ManifestHandler) ListManifests(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}

	params := pagination.Parse(c)

	filter := repository.ManifestListFilter{
		Status: c.Query("status"),
		Page:   params.Page,
		Limit:  params.Limit,
	}

	manifests, total, err := h.manifestService.List(c.Request.Context(), rc, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"manifests": manifests,
		"total":     total,
		"page":      params.Page,
		"limit":     params.Limit,
	}))
}

// GetManifest returns a manifest with its loading records
// @Summary      Get manifest
// @Description  Retrieves one manifest by ID including its loaded bookings
// @Tags         manifests
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Manifest ID"
// @Success      200  {object}  response.Response{data=model.Manifest}
// @Failure      404  {object}  response.Response
// @Router       /api/manifests/{id} [get]
func (h *ManifestHandler) GetManifest(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}

	manifest, err := h.manifestService.Get(c.Request.Context(), rc, c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, manifest))
}

// ExportTripSheet downloads the manifest as an Excel trip sheet
// @Summary      Export trip sheet
// @Description  Renders the manifest with its loaded bookings as an xlsx workbook
// @Tags         manifests
// @Security     BearerAuth
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        id   path      string  true  "Manifest ID"
// @Success      200  {file}    file
// @Failure      404  {object}  response.Response
// @Router       /api/manifests/{id}/export [get]
func (h *ManifestHandler) ExportTripSheet(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}

	manifest, err := h.manifestService.Get(c.Request.Context(), rc, c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	data, err := h.tripSheets.Generate(manifest)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to render trip sheet: "+err.Error()))
		return
	}

	filename := manifest.ManifestNo + ".xlsx"
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// UpdateManifestStatus moves the manifest along its status graph
// @Summary      Update manifest status
// @Description  Starts, completes, or cancels a trip; concurrent updates are rejected with 409
// @Tags         manifests
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                         true  "Manifest ID"
// @Param        payload  body      service.ManifestStatusRequest  true  "Status Payload"
// @Success      200      {object}  response.Response{data=model.Manifest}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/manifests/{id}/status [patch]
func (h *ManifestHandler) UpdateManifestStatus(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}

	var req service.ManifestStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	manifest, err := h.manifestService.UpdateStatus(c.Request.Context(), rc, c.Param("id"), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, manifest))
}

// LoadBookings loads bookings onto the manifest as one atomic batch
// @Summary      Load bookings
// @Description  Adds bookings to the manifest and moves each BOOKED booking to IN_TRANSIT; on any failure the whole batch rolls back
// @Tags         manifests
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                           true  "Manifest ID"
// @Param        payload  body      service.ManifestBookingsRequest  true  "Booking IDs Payload"
// @Success      201      {object}  response.Response{data=[]model.LoadingRecord}
// @Failure      400      {object}  response.Response
// @Failure      500      {object}  response.Response
// @Router       /api/manifests/{id}/bookings [post]
func (h *ManifestHandler) LoadBookings(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}

	var req service.ManifestBookingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	records, err := h.manifestService.LoadBookings(c.Request.Context(), rc, c.Param("id"), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, records))
}

// RemoveBookings takes bookings back off the manifest
// @Summary      Remove bookings
// @Description  Deletes the loading records and reverts each booking to BOOKED in the same transaction
// @Tags         manifests
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                           true  "Manifest ID"
// @Param        payload  body      service.ManifestBookingsRequest  true  "Booking IDs Payload"
// @Success      204      "No Content"
// @Failure      400      {object}  response.Response
// @Router       /api/manifests/{id}/bookings [delete]
func (h *ManifestHandler) RemoveBookings(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}

	var req service.ManifestBookingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	if err := h.manifestService.RemoveBookings(c.Request.Context(), rc, c.Param("id"), req); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UnloadManifest unloads every booking and completes the trip
// @Summary      Unload manifest
// @Description  Records the arrival condition per booking, moves each to UNLOADED, and completes the manifest; bookings processed before a failure stay unloaded
// @Tags         manifests
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                         true  "Manifest ID"
// @Param        payload  body      service.UnloadManifestRequest  true  "Unloading Conditions Payload"
// @Success      200      {object}  response.Response{data=service.UnloadResult}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Failure      500      {object}  response.Response
// @Router       /api/manifests/{id}/unload [post]
func (h *ManifestHandler) UnloadManifest(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}

	var req service.UnloadManifestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.manifestService.Unload(c.Request.Context(), rc, c.Param("id"), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// UnloadBookings unloads a subset of the manifest's bookings
// @Summary      Partially unload manifest
// @Description  Unloads only the listed bookings and leaves the manifest in transit
// @Tags         manifests
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                         true  "Manifest ID"
// @Param        payload  body      service.UnloadBookingsRequest  true  "Partial Unload Payload"
// @Success      200      {object}  response.Response{data=service.UnloadResult}
// @Failure      400      {object}  response.Response
// @Failure      500      {object}  response.Response
// @Router       /api/manifests/{id}/unload-bookings [post]
func (h *ManifestHandler) UnloadBookings(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}

	var req service.UnloadBookingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.manifestService.UnloadBookings(c.Request.Context(), rc, c.Param("id"), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}
