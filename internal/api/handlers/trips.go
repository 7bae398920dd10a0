package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"smartfleet-backend/internal/services"
	"smartfleet-backend/pkg/utils"
)

type TripHandler struct {
	tripService *services.TripService
	validator   *validator.Validate
}

func NewTripHandler(tripService *services.TripService) *TripHandler {
	return &TripHandler{
		tripService: tripService,
		validator:   validator.New(),
	}
}

// GetTrips retrieves trips, optionally filtered by driver or vehicle
func (h *TripHandler) GetTrips(c *gin.Context) {
	var err error
	var trips interface{}

	switch {
	case c.Query("driverId") != "":
		trips, err = h.tripService.GetTripsByDriver(c.Query("driverId"))
	case c.Query("vehicleId") != "":
		trips, err = h.tripService.GetTripsByVehicle(c.Query("vehicleId"))
	default:
		trips, err = h.tripService.GetAllTrips()
	}
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve trips", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Trips retrieved successfully", trips)
}

// GetTrip retrieves a specific trip by ID
func (h *TripHandler) GetTrip(c *gin.Context) {
	tripID := c.Param("id")
	if tripID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Trip ID is required", nil)
		return
	}

	trip, err := h.tripService.GetTripByID(tripID)
	if err != nil {
		utils.DomainErrorResponse(c, "Failed to retrieve trip", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Trip retrieved successfully", trip)
}

// GetCurrentTripForDriver returns the driver's trip still in flight
func (h *TripHandler) GetCurrentTripForDriver(c *gin.Context) {
	driverID := c.Param("id")
	if driverID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Driver ID is required", nil)
		return
	}

	trip, err := h.tripService.GetCurrentTripForDriver(driverID)
	if err != nil {
		utils.DomainErrorResponse(c, "No current trip for driver", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Current trip retrieved successfully", trip)
}

// CreateTrip assigns a new trip to a driver
func (h *TripHandler) CreateTrip(c *gin.Context) {
	var cmd services.CreateTripCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&cmd); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	trip, err := h.tripService.Create(cmd)
	if err != nil {
		utils.DomainErrorResponse(c, "Failed to create trip", err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Trip created successfully", trip)
}

// StartTrip moves the trip to ON_TRIP
func (h *TripHandler) StartTrip(c *gin.Context) {
	tripID := c.Param("id")
	if tripID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Trip ID is required", nil)
		return
	}

	trip, err := h.tripService.Start(tripID)
	if err != nil {
		utils.DomainErrorResponse(c, "Failed to start trip", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Trip started successfully", trip)
}

// CompleteTrip moves the trip to COMPLETED
func (h *TripHandler) CompleteTrip(c *gin.Context) {
	tripID := c.Param("id")
	if tripID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Trip ID is required", nil)
		return
	}

	trip, err := h.tripService.Complete(tripID)
	if err != nil {
		utils.DomainErrorResponse(c, "Failed to complete trip", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Trip completed successfully", trip)
}

// CancelTrip moves the trip to CANCELLED
func (h *TripHandler) CancelTrip(c *gin.Context) {
	tripID := c.Param("id")
	if tripID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Trip ID is required", nil)
		return
	}

	trip, err := h.tripService.Cancel(tripID)
	if err != nil {
		utils.DomainErrorResponse(c, "Failed to cancel trip", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Trip cancelled successfully", trip)
}

// DeleteTrip deletes a trip record
func (h *TripHandler) DeleteTrip(c *gin.Context) {
	tripID := c.Param("id")
	if tripID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Trip ID is required", nil)
		return
	}

	if err := h.tripService.DeleteTrip(tripID); err != nil {
		utils.DomainErrorResponse(c, "Failed to delete trip", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Trip deleted successfully", nil)
}
