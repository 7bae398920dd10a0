package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"smartfleet-backend/internal/services"
	"smartfleet-backend/pkg/utils"
)

type DriverHandler struct {
	driverService     *services.DriverService
	assignmentService *services.AssignmentService
	validator         *validator.Validate
}

func NewDriverHandler(driverService *services.DriverService, assignmentService *services.AssignmentService) *DriverHandler {
	return &DriverHandler{
		driverService:     driverService,
		assignmentService: assignmentService,
		validator:         validator.New(),
	}
}

// GetDrivers retrieves all drivers
func (h *DriverHandler) GetDrivers(c *gin.Context) {
	status := c.Query("status")

	var err error
	var drivers interface{}
	if status != "" {
		drivers, err = h.driverService.GetDriversByStatus(status)
	} else {
		drivers, err = h.driverService.GetAllDrivers()
	}
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve drivers", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Drivers retrieved successfully", drivers)
}

// GetMyDriverProfile retrieves the driver profile linked to the caller's
// user account.
func (h *DriverHandler) GetMyDriverProfile(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		utils.ErrorResponse(c, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}

	driver, err := h.driverService.GetDriverByUserID(userID)
	if err != nil {
		utils.DomainErrorResponse(c, "Failed to retrieve driver profile", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Driver profile retrieved successfully", driver)
}

// GetDriver retrieves a specific driver by ID
func (h *DriverHandler) GetDriver(c *gin.Context) {
	driverID := c.Param("id")
	if driverID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Driver ID is required", nil)
		return
	}

	driver, err := h.driverService.GetDriverByID(driverID)
	if err != nil {
		utils.DomainErrorResponse(c, "Failed to retrieve driver", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Driver retrieved successfully", driver)
}

// CreateDriver creates a new driver
func (h *DriverHandler) CreateDriver(c *gin.Context) {
	var req services.CreateDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	driver, err := h.driverService.CreateDriver(&req)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to create driver", err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Driver created successfully", driver)
}

// UpdateDriver updates an existing driver
func (h *DriverHandler) UpdateDriver(c *gin.Context) {
	driverID := c.Param("id")
	if driverID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Driver ID is required", nil)
		return
	}

	var req services.UpdateDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	driver, err := h.driverService.UpdateDriver(driverID, &req)
	if err != nil {
		utils.DomainErrorResponse(c, "Failed to update driver", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Driver updated successfully", driver)
}

// AssignVehicle assigns a vehicle to the driver
func (h *DriverHandler) AssignVehicle(c *gin.Context) {
	driverID := c.Param("id")
	if driverID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Driver ID is required", nil)
		return
	}

	var body struct {
		VehicleID string `json:"vehicleId" validate:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&body); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	driver, err := h.assignmentService.Assign(services.AssignVehicleCommand{
		DriverID:  driverID,
		VehicleID: body.VehicleID,
	})
	if err != nil {
		utils.DomainErrorResponse(c, "Failed to assign vehicle", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Vehicle assigned successfully", driver)
}

// UnassignVehicle releases the driver's vehicle
func (h *DriverHandler) UnassignVehicle(c *gin.Context) {
	driverID := c.Param("id")
	if driverID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Driver ID is required", nil)
		return
	}

	driver, err := h.assignmentService.Unassign(driverID)
	if err != nil {
		utils.DomainErrorResponse(c, "Failed to unassign vehicle", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Vehicle unassigned successfully", driver)
}

// UpdateDriverStatus sets the driver's duty status
func (h *DriverHandler) UpdateDriverStatus(c *gin.Context) {
	driverID := c.Param("id")
	if driverID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Driver ID is required", nil)
		return
	}

	var body struct {
		Status string `json:"status" validate:"required,oneof=AVAILABLE ON_TRIP OFF_DUTY SUSPENDED ON_LEAVE"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&body); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	driver, err := h.driverService.UpdateStatus(driverID, body.Status)
	if err != nil {
		utils.DomainErrorResponse(c, "Failed to update driver status", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Driver status updated successfully", driver)
}

// DeleteDriver deletes a driver
func (h *DriverHandler) DeleteDriver(c *gin.Context) {
	driverID := c.Param("id")
	if driverID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Driver ID is required", nil)
		return
	}

	if err := h.driverService.DeleteDriver(driverID); err != nil {
		utils.DomainErrorResponse(c, "Failed to delete driver", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Driver deleted successfully", nil)
}
