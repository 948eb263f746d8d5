package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ridebook/internal/domain"
	"ridebook/internal/service"
)

// OperatorHandler handles requests from the ride operator.
type OperatorHandler struct {
	rideService *service.RideService
}

// NewOperatorHandler creates a new OperatorHandler.
func NewOperatorHandler(rideService *service.RideService) *OperatorHandler {
	return &OperatorHandler{rideService: rideService}
}

// SetStatusRequest is the HTTP request body for a status change.
type SetStatusRequest struct {
	Status string `json:"status"`
}

// SetStatus handles PATCH /operator/rides/:id/status
func (h *OperatorHandler) SetStatus(c *gin.Context) {
	var req SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	status, err := domain.ParseRideStatus(req.Status)
	if err != nil {
		badRequest(c, "status: "+err.Error())
		return
	}

	ride, err := h.rideService.SetStatus(c.Request.Context(), c.Param("id"), status)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, newRideResponse(ride))
}
