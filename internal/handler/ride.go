package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ridebook/internal/auth"
	"ridebook/internal/domain"
	"ridebook/internal/service"
)

// RideHandler handles HTTP requests for rides.
type RideHandler struct {
	rideService *service.RideService
}

// NewRideHandler creates a new RideHandler.
func NewRideHandler(rideService *service.RideService) *RideHandler {
	return &RideHandler{rideService: rideService}
}

// SubmitRideRequest is the HTTP request body for a new ride. Numbers and
// booleans may arrive as strings.
type SubmitRideRequest struct {
	CustomerID             string   `json:"customerId"`
	CustomerName           string   `json:"customerName"` // legacy alias of customerId
	PickupLocation         string   `json:"pickupLocation"`
	DropoffLocation        string   `json:"dropoffLocation"`
	ExactPickupLocation    string   `json:"exactPickupLocation"`
	ExactPickupLocationBox string   `json:"exactPickupLocationBox"` // legacy alias of exactPickupLocation
	ExactDropoffLocation   string   `json:"exactDropoffLocation"`
	ContactNumber          string   `json:"contactNumber"`
	PickupDate             string   `json:"pickupDate"`
	PickupTime             string   `json:"pickupTime"`
	NumberOfPassengers     FlexInt  `json:"numberOfPassengers"`
	OpenToSharing          FlexBool `json:"openToSharing"`
	OkToSplitGroup         FlexBool `json:"okToSplitGroup"`
}

func (r SubmitRideRequest) toService() service.SubmitRideRequest {
	customerID := r.CustomerID
	if customerID == "" {
		customerID = r.CustomerName
	}
	exactPickup := r.ExactPickupLocation
	if exactPickup == "" {
		exactPickup = r.ExactPickupLocationBox
	}
	return service.SubmitRideRequest{
		CustomerID:           customerID,
		PickupLocation:       r.PickupLocation,
		DropoffLocation:      r.DropoffLocation,
		ExactPickupLocation:  exactPickup,
		ExactDropoffLocation: r.ExactDropoffLocation,
		ContactNumber:        r.ContactNumber,
		PickupDate:           r.PickupDate,
		PickupTime:           r.PickupTime,
		NumberOfPassengers:   int(r.NumberOfPassengers),
		OpenToSharing:        bool(r.OpenToSharing),
		OkToSplitGroup:       bool(r.OkToSplitGroup),
	}
}

// RideResponse is the HTTP representation of a ride.
type RideResponse struct {
	ID                   string `json:"id"`
	CustomerID           string `json:"customerId"`
	PickupLocation       string `json:"pickupLocation"`
	DropoffLocation      string `json:"dropoffLocation"`
	ExactPickupLocation  string `json:"exactPickupLocation"`
	ExactDropoffLocation string `json:"exactDropoffLocation"`
	ContactNumber        string `json:"contactNumber"`
	PickupDate           string `json:"pickupDate"`
	PickupTime           string `json:"pickupTime"`
	NumberOfPassengers   int    `json:"numberOfPassengers"`
	OpenToSharing        bool   `json:"openToSharing"`
	OkToSplitGroup       bool   `json:"okToSplitGroup"`
	CurrentStatus        string `json:"currentStatus"`
	CreatedAt            string `json:"createdAt"`
	UpdatedAt            string `json:"updatedAt"`
}

func newRideResponse(r *domain.Ride) RideResponse {
	return RideResponse{
		ID:                   r.ID,
		CustomerID:           r.CustomerID,
		PickupLocation:       r.PickupLocation,
		DropoffLocation:      r.DropoffLocation,
		ExactPickupLocation:  r.ExactPickupLocation,
		ExactDropoffLocation: r.ExactDropoffLocation,
		ContactNumber:        r.ContactNumber,
		PickupDate:           r.PickupDate,
		PickupTime:           r.PickupTime,
		NumberOfPassengers:   r.NumberOfPassengers,
		OpenToSharing:        r.OpenToSharing,
		OkToSplitGroup:       r.OkToSplitGroup,
		CurrentStatus:        string(r.Status),
		CreatedAt:            r.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:            r.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// SubmitRideRequest handles POST /createRideRequest
func (h *RideHandler) SubmitRideRequest(c *gin.Context) {
	var req SubmitRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	ctx := c.Request.Context()
	ride, err := h.rideService.SubmitRideRequest(ctx, auth.FromContext(ctx), req.toService())
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, StatusResponse{Status: "created", RideID: ride.ID})
}

// ListRides handles GET /user/:id/allRides where id is the customer uid.
// Each element of the response array is a JSON-encoded ride string.
func (h *RideHandler) ListRides(c *gin.Context) {
	filter, err := domain.ParseStatusFilter(c.Query("currentStatus"))
	if err != nil {
		badRequest(c, "currentStatus: "+err.Error())
		return
	}

	ctx := c.Request.Context()
	rides, err := h.rideService.ListRides(ctx, auth.FromContext(ctx), c.Param("id"), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	response := []string{}
	for ride, err := range rides {
		if err != nil {
			respondError(c, err)
			return
		}
		encoded, err := json.Marshal(newRideResponse(ride))
		if err != nil {
			respondError(c, err)
			return
		}
		response = append(response, string(encoded))
	}

	respondJSON(c, http.StatusOK, response)
}

// GetRide handles GET /rides/:id
func (h *RideHandler) GetRide(c *gin.Context) {
	ctx := c.Request.Context()
	ride, err := h.rideService.GetRide(ctx, auth.FromContext(ctx), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, newRideResponse(ride))
}

// CancelRide handles POST /rides/:id/cancel
func (h *RideHandler) CancelRide(c *gin.Context) {
	ctx := c.Request.Context()
	ride, err := h.rideService.CancelRide(ctx, auth.FromContext(ctx), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, newRideResponse(ride))
}
