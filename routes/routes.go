package routes

import (
	"agrirent-booking/constants"
	"agrirent-booking/controllers/auth"
	"agrirent-booking/controllers/booking"
	"agrirent-booking/controllers/machine"
	"agrirent-booking/controllers/ws"
	"agrirent-booking/logger"
	"agrirent-booking/middleware"
	"agrirent-booking/realtime"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, hub *realtime.Hub, notifier realtime.Notifier) {
	asyncLogger := logger.NewAsyncLogger(db)
	authController := auth.NewAuthController(db, asyncLogger)
	machineController := machine.NewMachineController(db, asyncLogger)
	bookingController := booking.NewBookingController(db, asyncLogger, notifier)
	wsController := ws.NewWSController(db, hub)

	// Start the async logger processing goroutine
	go asyncLogger.ProcessLog()

	// Index route
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service": "agrirent-booking",
			"status":  "ok",
		})
	})

	/*=============================================================================
	| Public Routes
	===============================================================================*/
	api := app.Group("/api")
	api.Post("/auth/register", authController.Register)
	api.Post("/auth/request-otp", authController.RequestOTP)
	api.Post("/auth/login", authController.Login)
	api.Get("/machines", machineController.List)

	/*=============================================================================
	| Authenticated Routes
	===============================================================================*/
	authGroup := api.Group("/auth").Use(middleware.RequireAnyPermission())
	authGroup.Get("/profile", authController.Profile)

	/*=============================================================================
	| Machine Registry Routes (owner)
	===============================================================================*/
	machineGroup := api.Group("/machines")

	machineGroup.Post("/", middleware.RequirePermissions(
		constants.PermOwnerFull,
	), machineController.Store)

	machineGroup.Get("/my-machines", middleware.RequirePermissions(
		constants.PermOwnerFull,
	), machineController.MyMachines)

	machineGroup.Patch("/:uuid/active", middleware.RequirePermissions(
		constants.PermOwnerFull,
	), machineController.SetActive)

	/*=============================================================================
	| Booking Lifecycle Routes
	===============================================================================*/
	bookingGroup := api.Group("/bookings")

	// Farmer side
	bookingGroup.Post("/", middleware.RequirePermissions(
		constants.PermFarmerFull,
	), bookingController.Store)

	bookingGroup.Get("/user", middleware.RequirePermissions(
		constants.PermFarmerFull,
	), bookingController.ListForUser)

	bookingGroup.Put("/:uuid/cancel", middleware.RequireAnyPermission(
		constants.PermFarmerFull,
		constants.PermOwnerFull,
	), bookingController.Cancel)

	bookingGroup.Put("/:uuid/verify-completion", middleware.RequirePermissions(
		constants.PermFarmerFull,
	), bookingController.VerifyCompletion)

	bookingGroup.Put("/:uuid/confirm-payment", middleware.RequirePermissions(
		constants.PermFarmerFull,
	), bookingController.ConfirmPayment)

	bookingGroup.Post("/:uuid/dispute", middleware.RequirePermissions(
		constants.PermFarmerFull,
	), bookingController.Dispute)

	// Owner side
	bookingGroup.Get("/owner/my-bookings", middleware.RequirePermissions(
		constants.PermOwnerFull,
	), bookingController.ListForOwner)

	bookingGroup.Put("/:uuid/confirm", middleware.RequirePermissions(
		constants.PermOwnerFull,
	), bookingController.Confirm)

	bookingGroup.Put("/:uuid/verify-arrival", middleware.RequirePermissions(
		constants.PermOwnerFull,
	), bookingController.VerifyArrival)

	// Either party
	bookingGroup.Get("/:uuid", middleware.RequireAnyPermission(
		constants.PermFarmerFull,
		constants.PermOwnerFull,
		constants.PermAdminFull,
	), bookingController.Show)

	bookingGroup.Get("/:uuid/history", middleware.RequireAnyPermission(
		constants.PermFarmerFull,
		constants.PermOwnerFull,
		constants.PermAdminFull,
	), bookingController.History)

	bookingGroup.Get("/:uuid/live-cost", middleware.RequireAnyPermission(
		constants.PermFarmerFull,
		constants.PermOwnerFull,
		constants.PermAdminFull,
	), bookingController.LiveCost)

	bookingGroup.Post("/:uuid/resend-otp", middleware.RequireAnyPermission(
		constants.PermFarmerFull,
		constants.PermOwnerFull,
	), bookingController.ResendOTP)

	/*=============================================================================
	| Realtime Routes
	===============================================================================*/
	wsGroup := app.Group("/ws")
	wsGroup.Get("/bookings/:uuid", wsController.Upgrade, wsController.Serve())
	wsGroup.Get("/owner", wsController.Upgrade, wsController.Serve())
}
