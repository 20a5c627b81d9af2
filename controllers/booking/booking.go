package booking

import (
	"fmt"
	"time"

	"agrirent-booking/apperrors"
	"agrirent-booking/logger"
	userModel "agrirent-booking/models/user"
	"agrirent-booking/realtime"
	bookingEngine "agrirent-booking/services/booking"
	otpService "agrirent-booking/services/otp"
	"agrirent-booking/types"
	bookingTypes "agrirent-booking/types/booking"
	"agrirent-booking/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// BookingController handles booking-related HTTP requests
type BookingController struct {
	DB     *gorm.DB
	Logger *logger.AsyncLogger
	Engine *bookingEngine.Engine
}

// NewBookingController creates a new booking controller
func NewBookingController(db *gorm.DB, asyncLogger *logger.AsyncLogger, notifier realtime.Notifier) *BookingController {
	return &BookingController{
		DB:     db,
		Logger: asyncLogger,
		Engine: bookingEngine.NewEngine(db, otpService.NewOTPService(db), notifier),
	}
}

// Store creates a new booking request (farmer action)
func (bc *BookingController) Store(c *fiber.Ctx) error {
	bc.Logger.Log(utils.CreateSanitizedLogEntry(c))

	var req bookingTypes.BookingCreateRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return badRequest(c, "Invalid request body")
	}
	if err := req.Validate(); err != nil {
		return badRequest(c, err.Error())
	}

	actor, err := currentUser(c)
	if err != nil {
		return unauthorized(c)
	}

	startAt, err := time.Parse(time.RFC3339, req.RequestedStartAt)
	if err != nil {
		return badRequest(c, "requestedStartAt must be an RFC3339 timestamp")
	}

	var areaBigha *float64
	if req.AreaBigha > 0 {
		areaBigha = &req.AreaBigha
	}

	created, err := bc.Engine.Create(actor, req.MachineUUID, startAt, areaBigha, req.Note)
	if err != nil {
		return bc.respondError(c, err, "Failed to create booking")
	}

	logger.Success(fmt.Sprintf("Booking created successfully with ID: %d", created.ID))

	return c.Status(fiber.StatusCreated).JSON(types.ApiResponse{
		Status:  fiber.StatusCreated,
		Message: "Booking created successfully",
		Data:    created,
	})
}

// ListForUser returns the requesting farmer's bookings
func (bc *BookingController) ListForUser(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return unauthorized(c)
	}

	bookings, err := bc.Engine.ListForFarmer(actor, c.QueryBool("today"))
	if err != nil {
		return bc.respondError(c, err, "Failed to list bookings")
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Bookings retrieved",
		Data:    bookings,
	})
}

// ListForOwner returns bookings on the requesting owner's machines
func (bc *BookingController) ListForOwner(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return unauthorized(c)
	}

	bookings, err := bc.Engine.ListForOwner(actor, c.QueryBool("today"))
	if err != nil {
		return bc.respondError(c, err, "Failed to list bookings")
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Bookings retrieved",
		Data:    bookings,
	})
}

// Show returns one booking; this is the reconciliation path for clients that
// missed realtime events.
func (bc *BookingController) Show(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return unauthorized(c)
	}

	found, err := bc.Engine.GetByUuid(actor, c.Params("uuid"))
	if err != nil {
		return bc.respondError(c, err, "Failed to load booking")
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Booking retrieved",
		Data:    found,
	})
}

// History returns the event trail of a booking
func (bc *BookingController) History(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return unauthorized(c)
	}

	events, err := bc.Engine.History(actor, c.Params("uuid"))
	if err != nil {
		return bc.respondError(c, err, "Failed to load booking history")
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Booking history retrieved",
		Data:    events,
	})
}

// Confirm is the owner's accept/reject decision
func (bc *BookingController) Confirm(c *fiber.Ctx) error {
	bc.Logger.Log(utils.CreateSanitizedLogEntry(c))

	var req bookingTypes.ConfirmRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return badRequest(c, "Invalid request body")
	}
	if err := req.Validate(); err != nil {
		return badRequest(c, err.Error())
	}

	actor, err := currentUser(c)
	if err != nil {
		return unauthorized(c)
	}

	updated, err := bc.Engine.Confirm(actor, c.Params("uuid"), req.Accept, req.ArrivalDeadlineMinutes, req.Reason)
	if err != nil {
		return bc.respondError(c, err, "Failed to confirm booking")
	}

	message := "Booking confirmed"
	if !req.Accept {
		message = "Booking rejected"
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: message,
		Data:    updated,
	})
}

// Cancel ends a not-yet-started booking
func (bc *BookingController) Cancel(c *fiber.Ctx) error {
	bc.Logger.Log(utils.CreateSanitizedLogEntry(c))

	var req bookingTypes.CancelRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return badRequest(c, "Invalid request body")
	}
	if err := req.Validate(); err != nil {
		return badRequest(c, err.Error())
	}

	actor, err := currentUser(c)
	if err != nil {
		return unauthorized(c)
	}

	updated, err := bc.Engine.Cancel(actor, c.Params("uuid"), req.Reason)
	if err != nil {
		return bc.respondError(c, err, "Failed to cancel booking")
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Booking cancelled",
		Data:    updated,
	})
}

// VerifyArrival consumes the arrival OTP and starts the billing timer
func (bc *BookingController) VerifyArrival(c *fiber.Ctx) error {
	bc.Logger.Log(utils.CreateSanitizedLogEntry(c))

	var req bookingTypes.VerifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return badRequest(c, "Invalid request body")
	}
	if err := req.Validate(); err != nil {
		return badRequest(c, err.Error())
	}

	actor, err := currentUser(c)
	if err != nil {
		return unauthorized(c)
	}

	updated, err := bc.Engine.VerifyArrival(actor, c.Params("uuid"), req.OTP)
	if err != nil {
		return bc.respondError(c, err, "Failed to verify arrival")
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Arrival verified; timer started",
		Data:    updated,
	})
}

// VerifyCompletion consumes the completion OTP, stops the timer and freezes the bill
func (bc *BookingController) VerifyCompletion(c *fiber.Ctx) error {
	bc.Logger.Log(utils.CreateSanitizedLogEntry(c))

	var req bookingTypes.VerifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return badRequest(c, "Invalid request body")
	}
	if err := req.Validate(); err != nil {
		return badRequest(c, err.Error())
	}

	actor, err := currentUser(c)
	if err != nil {
		return unauthorized(c)
	}

	updated, err := bc.Engine.VerifyCompletion(actor, c.Params("uuid"), req.OTP)
	if err != nil {
		return bc.respondError(c, err, "Failed to verify completion")
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Completion verified; bill frozen",
		Data:    updated,
	})
}

// ResendOTP reissues the pending arrival or completion code
func (bc *BookingController) ResendOTP(c *fiber.Ctx) error {
	bc.Logger.Log(utils.CreateSanitizedLogEntry(c))

	var req bookingTypes.ResendOTPRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return badRequest(c, "Invalid request body")
	}
	if err := req.Validate(); err != nil {
		return badRequest(c, err.Error())
	}

	actor, err := currentUser(c)
	if err != nil {
		return unauthorized(c)
	}

	otpRecord, err := bc.Engine.ResendOTP(actor, c.Params("uuid"), req.Type)
	if err != nil {
		return bc.respondError(c, err, "Failed to resend OTP")
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "OTP resent successfully",
		Data: fiber.Map{
			"expires_at": otpRecord.ExpiresAt,
		},
	})
}

// Dispute records dispute metadata on a completed or paid booking
func (bc *BookingController) Dispute(c *fiber.Ctx) error {
	bc.Logger.Log(utils.CreateSanitizedLogEntry(c))

	var req bookingTypes.DisputeRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return badRequest(c, "Invalid request body")
	}
	if err := req.Validate(); err != nil {
		return badRequest(c, err.Error())
	}

	actor, err := currentUser(c)
	if err != nil {
		return unauthorized(c)
	}

	updated, err := bc.Engine.Dispute(actor, c.Params("uuid"), req.Reason, req.Details)
	if err != nil {
		return bc.respondError(c, err, "Failed to raise dispute")
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Dispute raised",
		Data:    updated,
	})
}

// ConfirmPayment marks a completed booking paid
func (bc *BookingController) ConfirmPayment(c *fiber.Ctx) error {
	bc.Logger.Log(utils.CreateSanitizedLogEntry(c))

	var req bookingTypes.PaymentConfirmRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return badRequest(c, "Invalid request body")
	}
	if err := req.Validate(); err != nil {
		return badRequest(c, err.Error())
	}

	actor, err := currentUser(c)
	if err != nil {
		return unauthorized(c)
	}

	updated, err := bc.Engine.ConfirmPayment(actor, c.Params("uuid"), req.PaymentReference)
	if err != nil {
		return bc.respondError(c, err, "Failed to confirm payment")
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Payment confirmed",
		Data:    updated,
	})
}

// LiveCost returns the current running cost of an in-progress job, computed
// with the same formula that freezes the final bill.
func (bc *BookingController) LiveCost(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return unauthorized(c)
	}

	estimate, err := bc.Engine.LiveCost(actor, c.Params("uuid"), time.Now())
	if err != nil {
		return bc.respondError(c, err, "Failed to compute live cost")
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Live cost computed",
		Data:    estimate,
	})
}

// respondError maps domain errors to their HTTP status; anything untyped is a 500.
func (bc *BookingController) respondError(c *fiber.Ctx, err error, fallback string) error {
	if appErr, ok := apperrors.AsError(err); ok {
		return c.Status(appErr.HTTPStatus()).JSON(types.ApiResponse{
			Status:  appErr.HTTPStatus(),
			Message: appErr.Message,
			Kind:    string(appErr.Kind),
		})
	}

	logger.Error(fallback, err)
	return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
		Status:  fiber.StatusInternalServerError,
		Message: fallback,
	})
}

func currentUser(c *fiber.Ctx) (*userModel.User, error) {
	return utils.CurrentUser(c)
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
		Status:  fiber.StatusBadRequest,
		Message: message,
	})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
		Status:  fiber.StatusUnauthorized,
		Message: "Invalid user claims",
	})
}
