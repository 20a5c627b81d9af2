package machine

import (
	"fmt"

	"agrirent-booking/logger"
	machineModel "agrirent-booking/models/machine"
	"agrirent-booking/types"
	machineTypes "agrirent-booking/types/machine"
	"agrirent-booking/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MachineController handles machine registry HTTP requests
type MachineController struct {
	DB     *gorm.DB
	Logger *logger.AsyncLogger
}

// NewMachineController creates a new machine controller
func NewMachineController(db *gorm.DB, asyncLogger *logger.AsyncLogger) *MachineController {
	return &MachineController{
		DB:     db,
		Logger: asyncLogger,
	}
}

// Store registers a new machine under the requesting owner
func (mc *MachineController) Store(c *fiber.Ctx) error {
	mc.Logger.Log(utils.CreateSanitizedLogEntry(c))

	var req machineTypes.MachineCreateRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: err.Error(),
		})
	}

	rate, err := decimal.NewFromString(req.Rate)
	if err != nil || rate.IsNegative() || rate.IsZero() {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "rate must be a positive decimal number",
		})
	}

	owner, err := utils.CurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
			Status:  fiber.StatusUnauthorized,
			Message: "Invalid user claims",
		})
	}

	machine := machineModel.Machine{
		Uuid:          uuid.NewString(),
		OwnerID:       owner.ID,
		Name:          req.Name,
		Category:      req.Category,
		BillingScheme: req.BillingScheme,
		Rate:          rate,
		Unit:          defaultUnit(req.BillingScheme, req.Unit),
		Location:      req.Location,
		HorsePower:    req.HorsePower,
		IsActive:      true,
	}

	if err := mc.DB.Create(&machine).Error; err != nil {
		logger.Error("Failed to create machine", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to register machine",
		})
	}

	logger.Success(fmt.Sprintf("Machine registered successfully with ID: %d", machine.ID))

	return c.Status(fiber.StatusCreated).JSON(types.ApiResponse{
		Status:  fiber.StatusCreated,
		Message: "Machine registered successfully",
		Data:    machine,
	})
}

// List returns active machines available for booking. Supports optional
// category filtering for browse screens.
func (mc *MachineController) List(c *fiber.Ctx) error {
	query := mc.DB.Preload("Owner").Where("is_active = ?", true)

	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}

	var machines []machineModel.Machine
	if err := query.Order("created_at DESC").Find(&machines).Error; err != nil {
		logger.Error("Failed to list machines", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to list machines",
		})
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Machines retrieved",
		Data:    machines,
	})
}

// MyMachines returns the requesting owner's fleet, inactive listings included
func (mc *MachineController) MyMachines(c *fiber.Ctx) error {
	owner, err := utils.CurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
			Status:  fiber.StatusUnauthorized,
			Message: "Invalid user claims",
		})
	}

	var machines []machineModel.Machine
	err = mc.DB.Where("owner_id = ?", owner.ID).Order("created_at DESC").Find(&machines).Error
	if err != nil {
		logger.Error("Failed to list owner machines", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to list machines",
		})
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Machines retrieved",
		Data:    machines,
	})
}

// SetActive toggles whether a machine accepts new bookings. In-flight bookings
// are unaffected because billing terms were copied at creation.
func (mc *MachineController) SetActive(c *fiber.Ctx) error {
	mc.Logger.Log(utils.CreateSanitizedLogEntry(c))

	var req struct {
		IsActive bool `json:"is_active"`
	}
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	owner, err := utils.CurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
			Status:  fiber.StatusUnauthorized,
			Message: "Invalid user claims",
		})
	}

	result := mc.DB.Model(&machineModel.Machine{}).
		Where("uuid = ? AND owner_id = ?", c.Params("uuid"), owner.ID).
		Update("is_active", req.IsActive)
	if result.Error != nil {
		logger.Error("Failed to update machine", result.Error)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to update machine",
		})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(types.ApiResponse{
			Status:  fiber.StatusNotFound,
			Message: "Machine not found",
		})
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Machine updated",
	})
}

func defaultUnit(scheme, unit string) string {
	if unit != "" {
		return unit
	}
	switch scheme {
	case "time":
		return "hour"
	case "area":
		return "bigha"
	case "daily":
		return "day"
	}
	return unit
}
