package auth

import (
	"fmt"
	"os"
	"time"

	"agrirent-booking/apperrors"
	"agrirent-booking/constants"
	"agrirent-booking/logger"
	userModel "agrirent-booking/models/user"
	otpService "agrirent-booking/services/otp"
	"agrirent-booking/types"
	otpTypes "agrirent-booking/types/otp"
	"agrirent-booking/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const tokenLifetime = 24 * time.Hour

// AuthController handles registration and phone-OTP login.
type AuthController struct {
	DB         *gorm.DB
	Logger     *logger.AsyncLogger
	OTPService *otpService.Service
}

func NewAuthController(db *gorm.DB, asyncLogger *logger.AsyncLogger) *AuthController {
	return &AuthController{
		DB:         db,
		Logger:     asyncLogger,
		OTPService: otpService.NewOTPService(db),
	}
}

// RegisterRequest is the payload for creating an account.
type RegisterRequest struct {
	Name  string `json:"name" validate:"required,max=255"`
	Phone string `json:"phone" validate:"required"`
	Role  string `json:"role" validate:"required,oneof=farmer owner"`
}

// Register creates a farmer or owner account. The phone stays unverified
// until the first OTP login.
func (ac *AuthController) Register(c *fiber.Ctx) error {
	ac.Logger.Log(utils.CreateSanitizedLogEntry(c))

	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	if req.Name == "" || req.Phone == "" {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Name and phone are required",
		})
	}

	if !utils.ValidatePhoneNumber(req.Phone) {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid phone number format",
		})
	}

	permissions, ok := constants.RolePermissions[req.Role]
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Role must be either 'farmer' or 'owner'",
		})
	}

	var existing userModel.User
	err := ac.DB.Where("phone = ?", req.Phone).First(&existing).Error
	if err == nil {
		return c.Status(fiber.StatusConflict).JSON(types.ApiResponse{
			Status:  fiber.StatusConflict,
			Message: "An account with this phone already exists",
		})
	} else if err != gorm.ErrRecordNotFound {
		logger.Error("Database error while checking existing user", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Database error",
		})
	}

	newUser := userModel.User{
		Uuid:        uuid.NewString(),
		Name:        req.Name,
		Phone:       req.Phone,
		Role:        req.Role,
		Permissions: permissions,
	}

	if err := ac.DB.Create(&newUser).Error; err != nil {
		logger.Error("Failed to create user", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to create account",
		})
	}

	logger.Success(fmt.Sprintf("User registered: %s (%s)", newUser.Uuid, newUser.Role))

	return c.Status(fiber.StatusCreated).JSON(types.ApiResponse{
		Status:  fiber.StatusCreated,
		Message: "Account created successfully",
		Data:    newUser,
	})
}

// RequestOTP sends a login OTP to a registered phone.
func (ac *AuthController) RequestOTP(c *fiber.Ctx) error {
	ac.Logger.Log(utils.CreateSanitizedLogEntry(c))

	var req otpTypes.RequestOTPRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	var account userModel.User
	if err := ac.DB.Where("phone = ?", req.Phone).First(&account).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(types.ApiResponse{
				Status:  fiber.StatusNotFound,
				Message: "No account found for this phone",
			})
		}
		logger.Error("Database error while finding user", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Database error",
		})
	}

	otpRecord, err := ac.OTPService.IssueLogin(req.Phone)
	if err != nil {
		if appErr, ok := apperrors.AsError(err); ok {
			return c.Status(appErr.HTTPStatus()).JSON(types.ApiResponse{
				Status:  appErr.HTTPStatus(),
				Message: appErr.Message,
				Kind:    string(appErr.Kind),
			})
		}
		logger.Error("Failed to issue login OTP", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to send OTP",
		})
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "OTP sent successfully",
		Data: otpTypes.OTPResponse{
			Message:   "OTP sent to your phone number",
			ExpiresAt: otpRecord.ExpiresAt.Format("2006-01-02 15:04:05"),
			Success:   true,
		},
	})
}

// Login verifies the login OTP and issues a JWT carrying the account's
// role permissions.
func (ac *AuthController) Login(c *fiber.Ctx) error {
	ac.Logger.Log(utils.CreateSanitizedLogEntry(c))

	var req otpTypes.VerifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	var account userModel.User
	if err := ac.DB.Where("phone = ?", req.Phone).First(&account).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(types.ApiResponse{
				Status:  fiber.StatusNotFound,
				Message: "No account found for this phone",
			})
		}
		logger.Error("Database error while finding user", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Database error",
		})
	}

	if err := ac.OTPService.VerifyLogin(req.Phone, req.OTPCode); err != nil {
		if appErr, ok := apperrors.AsError(err); ok {
			return c.Status(appErr.HTTPStatus()).JSON(types.ApiResponse{
				Status:  appErr.HTTPStatus(),
				Message: appErr.Message,
				Kind:    string(appErr.Kind),
			})
		}
		logger.Error("Failed to verify login OTP", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to verify OTP",
		})
	}

	if !account.PhoneVerified {
		if err := ac.DB.Model(&account).Update("phone_verified", true).Error; err != nil {
			logger.Error("Failed to mark phone verified", err)
		}
	}

	token, err := generateToken(&account)
	if err != nil {
		logger.Error("Failed to generate token", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to generate session token",
		})
	}

	logger.Success(fmt.Sprintf("User logged in: %s", account.Uuid))

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Login successful",
		Token:   token,
		Data:    account,
	})
}

// Profile returns the authenticated account.
func (ac *AuthController) Profile(c *fiber.Ctx) error {
	account, err := utils.CurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
			Status:  fiber.StatusUnauthorized,
			Message: "User not found",
		})
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Profile retrieved",
		Data:    account,
	})
}

func generateToken(account *userModel.User) (string, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return "", fmt.Errorf("JWT_SECRET is not set")
	}

	claims := jwt.MapClaims{
		"uuid":        account.Uuid,
		"name":        account.Name,
		"phone":       account.Phone,
		"role":        account.Role,
		"permissions": []string(account.Permissions),
		"exp":         time.Now().Add(tokenLifetime).Unix(),
		"iat":         time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
