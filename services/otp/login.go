package otp

import (
	"fmt"
	"time"

	"agrirent-booking/apperrors"
	"agrirent-booking/models/otp"

	"gorm.io/gorm"
)

// Login codes are keyed by phone rather than booking (booking ID 0); the
// retry/block budget works the same as booking-scoped codes.

// IssueLogin creates and sends a login OTP for the given phone.
func (s *Service) IssueLogin(phone string) (*otp.OTP, error) {
	existing, err := s.activeLoginOTP(phone)
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
			"an active OTP already exists for this phone; wait for it to expire before requesting a new one")
	}

	code, err := s.GenerateCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate OTP: %w", err)
	}

	err = s.DB.Model(&otp.OTP{}).
		Where("phone = ? AND purpose = ? AND is_used = false", phone, otp.OTPPurposeLogin).
		Update("is_used", true).Error
	if err != nil {
		return nil, fmt.Errorf("failed to invalidate existing OTPs: %w", err)
	}

	newOTP := &otp.OTP{
		BookingID:  0,
		Phone:      phone,
		OTPCode:    code,
		Purpose:    otp.OTPPurposeLogin,
		MaxRetries: defaultMaxRetries,
		ExpiresAt:  time.Now().Add(defaultTTL),
	}

	if err := s.DB.Create(newOTP).Error; err != nil {
		return nil, fmt.Errorf("failed to create OTP record: %w", err)
	}

	s.deliver(newOTP)

	return newOTP, nil
}

// VerifyLogin checks and consumes a login OTP for the given phone.
func (s *Service) VerifyLogin(phone, candidate string) error {
	var record otp.OTP
	err := s.DB.Where("phone = ? AND purpose = ? AND is_used = false",
		phone, otp.OTPPurposeLogin).
		Order("created_at DESC").
		First(&record).Error

	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return apperrors.New(apperrors.KindOTPNotFound, "no active OTP found; request a new one")
		}
		return fmt.Errorf("failed to find OTP record: %w", err)
	}

	if record.IsCurrentlyBlocked() {
		return apperrors.Newf(apperrors.KindOTPBlocked,
			"OTP verification is blocked until %s due to too many failed attempts",
			blockedUntilLabel(&record))
	}

	if record.IsExpired() {
		return apperrors.New(apperrors.KindOTPExpired, "OTP has expired, please request a new one")
	}

	if record.OTPCode != candidate {
		record.IncrementRetry()
		if err := s.DB.Save(&record).Error; err != nil {
			return fmt.Errorf("failed to update retry count: %w", err)
		}

		remaining := record.MaxRetries - record.RetryCount
		if remaining <= 0 {
			return apperrors.New(apperrors.KindOTPBlocked,
				"invalid OTP; maximum attempts exceeded and verification is now blocked")
		}
		return apperrors.Newf(apperrors.KindOTPMismatch, "invalid OTP; %d attempts remaining", remaining)
	}

	record.IsUsed = true
	if err := s.DB.Save(&record).Error; err != nil {
		return fmt.Errorf("failed to mark OTP as used: %w", err)
	}

	return nil
}

func (s *Service) activeLoginOTP(phone string) (*otp.OTP, error) {
	var record otp.OTP
	err := s.DB.Where("phone = ? AND purpose = ? AND is_used = false",
		phone, otp.OTPPurposeLogin).
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
