package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"agrirent-booking/apperrors"
	"agrirent-booking/httpServices/sms"
	"agrirent-booking/logger"
	"agrirent-booking/models/otp"
	otpEvent "agrirent-booking/services/otp_event"

	"gorm.io/gorm"
)

const (
	defaultTTL        = 5 * time.Minute
	defaultMaxRetries = 3
)

// Service handles OTP operations. Codes are keyed by (booking, purpose) and
// are single-use: verification consumes the stored code.
type Service struct {
	DB         *gorm.DB
	SMSService *sms.SMSService
}

// NewOTPService creates a new OTP service
func NewOTPService(db *gorm.DB) *Service {
	return &Service{
		DB:         db,
		SMSService: sms.NewSMSService(),
	}
}

// GenerateCode generates a random 6-digit OTP
func (s *Service) GenerateCode() (string, error) {
	max := big.NewInt(999999)
	min := big.NewInt(100000)

	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}

	// Ensure the number is at least 6 digits
	n.Add(n, min)
	if n.Cmp(max) > 0 {
		n.Sub(n, max)
		n.Add(n, min)
	}

	return fmt.Sprintf("%06d", n.Int64()), nil
}

// Issue creates and stores an OTP for the given booking and purpose,
// invalidating any prior unexpired code for the same key, and sends it to the
// given phone. Works inside the caller's transaction when tx is non-nil.
func (s *Service) Issue(tx *gorm.DB, bookingID uint, purpose otp.OTPPurpose, phone string) (*otp.OTP, error) {
	db := s.db(tx)

	// A still-active code short-circuits reissue; this is the resend throttle.
	existing, err := s.activeOTP(db, bookingID, purpose)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing OTP: %w", err)
	}

	if existing != nil && existing.IsCurrentlyBlocked() {
		return nil, apperrors.Newf(apperrors.KindOTPBlocked,
			"OTP requests are blocked until %s due to too many failed attempts",
			blockedUntilLabel(existing))
	}

	if existing != nil && existing.IsValid() {
		return nil, apperrors.New(apperrors.KindConflict,
			"an active OTP already exists for this booking; wait for it to expire before requesting a new one")
	}

	code, err := s.GenerateCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate OTP: %w", err)
	}

	// Invalidate any unused codes for this key before storing the new one
	err = db.Model(&otp.OTP{}).
		Where("booking_id = ? AND purpose = ? AND is_used = false", bookingID, purpose).
		Update("is_used", true).Error
	if err != nil {
		return nil, fmt.Errorf("failed to invalidate existing OTPs: %w", err)
	}

	newOTP := &otp.OTP{
		BookingID:  bookingID,
		Phone:      phone,
		OTPCode:    code,
		Purpose:    purpose,
		IsUsed:     false,
		RetryCount: 0,
		MaxRetries: defaultMaxRetries,
		IsBlocked:  false,
		ExpiresAt:  time.Now().Add(defaultTTL),
	}

	if err := db.Create(newOTP).Error; err != nil {
		return nil, fmt.Errorf("failed to create OTP record: %w", err)
	}

	if err := otpEvent.SnapshotOTPToEvent(db, newOTP, "created"); err != nil {
		logger.Error("Failed to snapshot OTP event", err)
	}

	s.deliver(newOTP)

	return newOTP, nil
}

// Resend reissues a code for an existing key. Equivalent to Issue; the active
// code short-circuit and the failed-attempt block provide the throttling.
func (s *Service) Resend(bookingID uint, purpose otp.OTPPurpose, phone string) (*otp.OTP, error) {
	return s.Issue(nil, bookingID, purpose, phone)
}

// Verify checks the candidate code for (booking, purpose). On success the
// stored code is consumed; replaying it later fails with OTPNotFound. Failures
// are typed so callers can render "wrong code" vs "expired" vs "blocked".
func (s *Service) Verify(tx *gorm.DB, bookingID uint, purpose otp.OTPPurpose, candidate string) (*otp.OTP, error) {
	db := s.db(tx)

	var record otp.OTP
	err := db.Where("booking_id = ? AND purpose = ? AND is_used = false",
		bookingID, purpose).
		Order("created_at DESC").
		First(&record).Error

	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.New(apperrors.KindOTPNotFound, "no active OTP found; request a resend")
		}
		return nil, fmt.Errorf("failed to find OTP record: %w", err)
	}

	if record.IsCurrentlyBlocked() {
		return nil, apperrors.Newf(apperrors.KindOTPBlocked,
			"OTP verification is blocked until %s due to too many failed attempts",
			blockedUntilLabel(&record))
	}

	if record.IsExpired() {
		return nil, apperrors.New(apperrors.KindOTPExpired, "OTP has expired, please resend")
	}

	if record.OTPCode != candidate {
		record.IncrementRetry()
		if err := db.Save(&record).Error; err != nil {
			return nil, fmt.Errorf("failed to update retry count: %w", err)
		}

		remaining := record.MaxRetries - record.RetryCount
		if remaining <= 0 {
			return nil, apperrors.New(apperrors.KindOTPBlocked,
				"invalid OTP; maximum attempts exceeded and verification is now blocked")
		}
		return nil, apperrors.Newf(apperrors.KindOTPMismatch, "invalid OTP; %d attempts remaining", remaining)
	}

	// Consume: single-use
	record.IsUsed = true
	if err := db.Save(&record).Error; err != nil {
		return nil, fmt.Errorf("failed to mark OTP as used: %w", err)
	}

	if err := otpEvent.SnapshotOTPToEvent(db, &record, "verified"); err != nil {
		logger.Error("Failed to snapshot OTP event", err)
	}

	return &record, nil
}

// Invalidate marks every unused code for (booking, purpose) as used, so a
// cancelled booking leaves no live code behind. Works inside the caller's
// transaction when tx is non-nil.
func (s *Service) Invalidate(tx *gorm.DB, bookingID uint, purpose otp.OTPPurpose) error {
	return s.db(tx).Model(&otp.OTP{}).
		Where("booking_id = ? AND purpose = ? AND is_used = false", bookingID, purpose).
		Update("is_used", true).Error
}

// CleanupExpired removes expired OTP records from the database
func (s *Service) CleanupExpired() error {
	return s.DB.Where("expires_at < ?", time.Now()).Delete(&otp.OTP{}).Error
}

// Unblock manually unblocks an OTP key (admin function)
func (s *Service) Unblock(bookingID uint, purpose otp.OTPPurpose) error {
	var record otp.OTP

	err := s.DB.Where("booking_id = ? AND purpose = ? AND is_blocked = true", bookingID, purpose).
		Order("created_at DESC").
		First(&record).Error

	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return apperrors.NotFound("blocked OTP")
		}
		return fmt.Errorf("failed to find blocked OTP: %w", err)
	}

	record.Reset()

	if err := s.DB.Save(&record).Error; err != nil {
		return fmt.Errorf("failed to unblock OTP: %w", err)
	}

	return nil
}

// activeOTP returns the newest unused, unexpired record for the key, or nil.
func (s *Service) activeOTP(db *gorm.DB, bookingID uint, purpose otp.OTPPurpose) (*otp.OTP, error) {
	var record otp.OTP

	err := db.Where("booking_id = ? AND purpose = ? AND is_used = false",
		bookingID, purpose).
		Order("created_at DESC").
		First(&record).Error

	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}

	return &record, nil
}

// deliver hands the code to the SMS gateway. Delivery failure is logged but
// never fails issuance; the code stays valid for retry or manual relay.
func (s *Service) deliver(record *otp.OTP) {
	if err := s.SMSService.SendOTP(record.Phone, record.OTPCode); err != nil {
		logger.Error(fmt.Sprintf("Failed to send OTP SMS to %s (purpose: %s)", record.Phone, record.Purpose), err)
		return
	}
	logger.Info(fmt.Sprintf("OTP sent via SMS to %s (purpose: %s)", record.Phone, record.Purpose))
}

func blockedUntilLabel(record *otp.OTP) string {
	if record.BlockedUntil == nil {
		return "manually unblocked"
	}
	return record.BlockedUntil.Format("15:04:05")
}

func (s *Service) db(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.DB
}
