package otp

import (
	"time"
)

// OTPPurpose represents the purpose of the OTP
type OTPPurpose string

const (
	// OTPPurposeArrival gates timer start: proves the machine physically
	// arrived at the farmer's location.
	OTPPurposeArrival OTPPurpose = "arrival_verification"
	// OTPPurposeCompletion gates timer stop and bill freeze.
	OTPPurposeCompletion OTPPurpose = "completion_verification"
	// OTPPurposeLogin is used by the phone-based login flow; such codes are
	// keyed by phone with booking ID 0.
	OTPPurposeLogin OTPPurpose = "login_verification"
)

// OTP is a single-use short code keyed by (booking, purpose), with TTL expiry
// and a retry/block budget for failed attempts.
type OTP struct {
	ID            uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	BookingID     uint       `gorm:"not null;index" json:"booking_id"`
	Phone         string     `gorm:"type:varchar(20);not null;index" json:"phone"`
	OTPCode       string     `gorm:"column:otp_code;type:varchar(6);not null" json:"otp_code"`
	Purpose       OTPPurpose `gorm:"type:varchar(50);not null" json:"purpose"`
	IsUsed        bool       `gorm:"default:false" json:"is_used"`
	RetryCount    int        `gorm:"default:0" json:"retry_count"`
	MaxRetries    int        `gorm:"default:3" json:"max_retries"`
	IsBlocked     bool       `gorm:"default:false" json:"is_blocked"`
	BlockedUntil  *time.Time `gorm:"index" json:"blocked_until,omitempty"`
	LastAttemptAt *time.Time `gorm:"index" json:"last_attempt_at,omitempty"`
	ExpiresAt     time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsExpired checks if the OTP has expired
func (o *OTP) IsExpired() bool {
	return time.Now().After(o.ExpiresAt)
}

// IsValid checks if the OTP is valid (not used, not expired, not blocked)
func (o *OTP) IsValid() bool {
	return !o.IsUsed && !o.IsExpired() && !o.IsBlocked
}

// IsCurrentlyBlocked checks if the OTP is blocked due to too many retry attempts
func (o *OTP) IsCurrentlyBlocked() bool {
	if !o.IsBlocked {
		return false
	}

	// If BlockedUntil is nil, it's permanently blocked
	if o.BlockedUntil == nil {
		return true
	}

	// Check if the block period has expired
	if time.Now().After(*o.BlockedUntil) {
		return false
	}

	return true
}

// CanRetry checks if the OTP can be retried
func (o *OTP) CanRetry() bool {
	return !o.IsUsed && !o.IsExpired() && !o.IsCurrentlyBlocked() && o.RetryCount < o.MaxRetries
}

// IncrementRetry increments the retry count and blocks if max retries exceeded
func (o *OTP) IncrementRetry() {
	now := time.Now()
	o.RetryCount++
	o.LastAttemptAt = &now

	// Block if max retries exceeded
	if o.RetryCount >= o.MaxRetries {
		o.IsBlocked = true
		// Block for 15 minutes after max retries
		blockUntil := now.Add(15 * time.Minute)
		o.BlockedUntil = &blockUntil
	}
}

// Reset resets the OTP retry state (used when unblocking)
func (o *OTP) Reset() {
	o.RetryCount = 0
	o.IsBlocked = false
	o.BlockedUntil = nil
	o.LastAttemptAt = nil
}
