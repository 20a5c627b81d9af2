package utils

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"agrirent-booking/database"
	"agrirent-booking/models/user"
	"agrirent-booking/types"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

// GetClaims returns the JWT claims attached by the auth middleware.
func GetClaims(c *fiber.Ctx) (jwt.MapClaims, bool) {
	claims, ok := c.Locals("user").(jwt.MapClaims)
	return claims, ok
}

// GetUserUUID extracts the user uuid from request claims.
func GetUserUUID(c *fiber.Ctx) (string, error) {
	claims, ok := GetClaims(c)
	if !ok {
		return "", fmt.Errorf("user claims missing from request context")
	}
	uid, ok := claims["uuid"].(string)
	if !ok || uid == "" {
		return "", fmt.Errorf("uuid not found in token")
	}
	return uid, nil
}

// GetUserByUUID retrieves a user by their UUID from the database
func GetUserByUUID(uuid string) (*user.User, error) {
	if uuid == "" {
		return nil, errors.New("UUID cannot be empty")
	}

	var userModel user.User
	if err := database.DB.Where("uuid = ?", uuid).First(&userModel).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("user not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	return &userModel, nil
}

// CurrentUser resolves the requesting user from JWT claims.
func CurrentUser(c *fiber.Ctx) (*user.User, error) {
	uid, err := GetUserUUID(c)
	if err != nil {
		return nil, err
	}
	return GetUserByUUID(uid)
}

// ValidatePhoneNumber validates phone number
// Pattern: /^(?:\+91)?[6-9][0-9]{9}$/
// Allows: 10-digit Indian mobile numbers with optional +91 prefix
func ValidatePhoneNumber(phone string) bool {
	phone = strings.TrimSpace(phone)

	pattern := `^(?:\+91)?[6-9][0-9]{9}$`

	re := regexp.MustCompile(pattern)

	return re.MatchString(phone)
}

// CreateSanitizedLogEntry creates a deep copied log entry for the async
// request logger.
func CreateSanitizedLogEntry(c *fiber.Ctx) types.LogEntry {
	// Deep copies prevent fasthttp buffer reuse from corrupting logged data
	method := string([]byte(c.Method()))
	url := string([]byte(c.OriginalURL()))
	requestBody := string(append([]byte(nil), c.Body()...))
	responseBody := string(append([]byte(nil), c.Response().Body()...))

	requestHeaders := make([]byte, len(c.Request().Header.Header()))
	copy(requestHeaders, c.Request().Header.Header())

	responseHeaders := make([]byte, len(c.Response().Header.Header()))
	copy(responseHeaders, c.Response().Header.Header())

	return types.LogEntry{
		Method:          method,
		URL:             url,
		RequestBody:     sanitizeBody(requestBody),
		ResponseBody:    responseBody,
		RequestHeaders:  string(requestHeaders),
		ResponseHeaders: string(responseHeaders),
		StatusCode:      c.Response().StatusCode(),
		CreatedAt:       time.Now(),
	}
}

// sanitizeBody strips OTP codes from logged request bodies.
func sanitizeBody(body string) string {
	if strings.Contains(body, "otp") || strings.Contains(body, "otp_code") {
		re := regexp.MustCompile(`"otp(_code)?"\s*:\s*"[0-9]{4,8}"`)
		return re.ReplaceAllString(body, `"otp${1}":"[REDACTED]"`)
	}
	return body
}
