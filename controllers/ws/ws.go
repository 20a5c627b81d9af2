package ws

import (
	"agrirent-booking/logger"
	"agrirent-booking/middleware"
	bookingModel "agrirent-booking/models/booking"
	"agrirent-booking/realtime"
	"agrirent-booking/types"
	"agrirent-booking/utils"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// WSController upgrades authenticated connections into hub rooms
type WSController struct {
	DB  *gorm.DB
	Hub *realtime.Hub
}

func NewWSController(db *gorm.DB, hub *realtime.Hub) *WSController {
	return &WSController{DB: db, Hub: hub}
}

// Upgrade authenticates the request before the WebSocket handshake. Browsers
// cannot set headers on WebSocket requests, so the token also travels as a
// query parameter. The resolved room name is stashed in Locals for the
// post-upgrade handler.
func (wc *WSController) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return c.Status(fiber.StatusUpgradeRequired).JSON(types.ApiResponse{
			Status:  fiber.StatusUpgradeRequired,
			Message: "WebSocket upgrade required",
		})
	}

	token := c.Query("token")
	if token == "" {
		token = c.Get("Authorization")
		if len(token) > 7 && token[:7] == "Bearer " {
			token = token[7:]
		}
	}

	claims, err := middleware.VerifyJWT(token)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
			Status:  fiber.StatusUnauthorized,
			Message: "Invalid or expired token",
		})
	}
	c.Locals("user", claims)

	actor, err := utils.CurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
			Status:  fiber.StatusUnauthorized,
			Message: "Invalid user claims",
		})
	}

	// Ctx.JSON returns nil on success, so the rejection responses below
	// cannot double as the failure signal; ok carries it instead. On !ok the
	// response has already been written and the handshake must not proceed.
	room, ok := wc.resolveRoom(c, actor.ID, actor.Uuid, actor.Role)
	if !ok {
		return nil
	}
	c.Locals("room", room)

	return c.Next()
}

// resolveRoom maps the request path to a hub room, enforcing that only a
// booking's parties may listen on its channel. On rejection it writes the
// error response and returns ok=false.
func (wc *WSController) resolveRoom(c *fiber.Ctx, userID uint, userUuid, role string) (string, bool) {
	bookingUuid := c.Params("uuid")
	if bookingUuid == "" {
		// Owner feed: every event on the owner's machines
		return realtime.OwnerChannel(userUuid), true
	}

	var b bookingModel.Booking
	err := wc.DB.Where("uuid = ?", bookingUuid).First(&b).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			_ = c.Status(fiber.StatusNotFound).JSON(types.ApiResponse{
				Status:  fiber.StatusNotFound,
				Message: "Booking not found",
			})
			return "", false
		}
		logger.Error("Failed to load booking for websocket", err)
		_ = c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to load booking",
		})
		return "", false
	}

	if b.FarmerID != userID && b.OwnerID != userID && role != "admin" {
		_ = c.Status(fiber.StatusForbidden).JSON(types.ApiResponse{
			Status:  fiber.StatusForbidden,
			Message: "You are not a party to this booking",
		})
		return "", false
	}

	return realtime.BookingChannel(bookingUuid), true
}

// Serve is the post-upgrade handler; it blocks until the peer disconnects.
func (wc *WSController) Serve() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		room, ok := conn.Locals("room").(string)
		if !ok || room == "" {
			conn.Close()
			return
		}
		wc.Hub.ServeClient(room, conn)
	})
}
