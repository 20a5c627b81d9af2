package otp

// RequestOTPRequest represents the request payload for a login OTP
type RequestOTPRequest struct {
	Phone string `json:"phone" validate:"required,min=10,max=20"`
}

// VerifyOTPRequest represents the request payload for verifying a login OTP
type VerifyOTPRequest struct {
	Phone   string `json:"phone" validate:"required,min=10,max=20"`
	OTPCode string `json:"otp_code" validate:"required,len=6"`
}

// OTPResponse represents the response for OTP operations
type OTPResponse struct {
	Message   string `json:"message"`
	ExpiresAt string `json:"expires_at,omitempty"`
	Success   bool   `json:"success"`
}
