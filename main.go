package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"agrirent-booking/database"
	"agrirent-booking/logger"
	"agrirent-booking/realtime"
	"agrirent-booking/routes"
	bookingEngine "agrirent-booking/services/booking"
	otpService "agrirent-booking/services/otp"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
)

func main() {
	app := fiber.New(fiber.Config{
		ReadBufferSize:  32768, // 32KB read buffer
		WriteBufferSize: 32768, // 32KB write buffer
		ReadTimeout:     time.Second * 30,
		WriteTimeout:    time.Second * 30,
		BodyLimit:       10 * 1024 * 1024, // 10MB body limit
	})
	env := godotenv.Load()
	if env != nil {
		logger.Error("Error loading .env file", env)
		fmt.Println("Error loading .env file", env)
	}

	logger.Success("Server is running on ip: " + os.Getenv("APP_HOST") + " port: " + os.Getenv("APP_PORT") +
		"\n\t\t\t\t\t\t******************************************************************************************\n")

	db, err := database.InitDB()
	if err != nil {
		logger.Error("Failed to connect to the database", err)
		return
	}

	redisClient, err := database.InitRedis()
	if err != nil {
		logger.Error("Failed to connect to Redis; realtime events disabled", err)
	}

	ctx := context.Background()

	// Realtime fan-out: booking events go Redis pub/sub -> hub -> WebSocket rooms
	hub := realtime.NewHub()
	var notifier realtime.Notifier = realtime.NopNotifier{}
	if redisClient != nil {
		notifier = realtime.NewRedisNotifier(redisClient)
		go hub.SubscribeLoop(ctx, redisClient)
	}

	// Cancel bookings whose machine never arrived before the deadline
	sweeper := bookingEngine.NewEngine(db, otpService.NewOTPService(db), notifier)
	go sweeper.RunDeadlineSweeper(ctx)

	app.Use(cors.New(cors.Config{
		AllowOrigins:     os.Getenv("FRONTEND_URL"),
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
	}))

	routes.SetupRoutes(app, db, hub, notifier)

	app_host := os.Getenv("APP_HOST")
	app_port := os.Getenv("APP_PORT")
	app.Listen(app_host + ":" + app_port)
}
