package otp_event

import (
	"agrirent-booking/models/otp"

	"gorm.io/gorm"
)

// SnapshotOTPToEvent writes a full snapshot of an OTP row into OTPEvent with the given event type.
func SnapshotOTPToEvent(tx *gorm.DB, o *otp.OTP, eventType string) error {
	ev := otp.OTPEvent{
		BookingID:     o.BookingID,
		Phone:         o.Phone,
		OTPCode:       o.OTPCode,
		Purpose:       o.Purpose,
		IsUsed:        o.IsUsed,
		RetryCount:    o.RetryCount,
		MaxRetries:    o.MaxRetries,
		IsBlocked:     o.IsBlocked,
		BlockedUntil:  o.BlockedUntil,
		LastAttemptAt: o.LastAttemptAt,
		ExpiresAt:     o.ExpiresAt,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
		EventType:     eventType,
	}

	return tx.Create(&ev).Error
}
