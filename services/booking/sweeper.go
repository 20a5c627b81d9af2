package booking

import (
	"context"
	"fmt"
	"time"

	"agrirent-booking/logger"
	bookingModel "agrirent-booking/models/booking"
	otpModel "agrirent-booking/models/otp"
	"agrirent-booking/realtime"
	bookingEvent "agrirent-booking/services/booking_event"

	"gorm.io/gorm"
)

const (
	sweepInterval        = time.Minute
	expiredArrivalReason = "Machine did not arrive before the deadline"
	sweeperActor         = "system:deadline-sweeper"
	sweepBatchSize       = 100
)

// RunDeadlineSweeper cancels owner_confirmed bookings whose arrival deadline
// has passed without arrival verification. Run as a goroutine; returns when
// ctx is cancelled.
func (e *Engine) RunDeadlineSweeper(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	logger.Info("Arrival deadline sweeper started")

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := e.sweepExpiredArrivals(); err != nil {
				logger.Error("Deadline sweep failed", err)
			}
		}
	}
}

func (e *Engine) sweepExpiredArrivals() error {
	var expired []bookingModel.Booking
	err := e.DB.Preload("Machine").Preload("Farmer").Preload("Owner").
		Where("status = ? AND arrival_deadline_at IS NOT NULL AND arrival_deadline_at < ?",
			bookingModel.BookingStatusOwnerConfirmed, time.Now()).
		Limit(sweepBatchSize).
		Find(&expired).Error
	if err != nil {
		return fmt.Errorf("failed to find expired bookings: %w", err)
	}

	for i := range expired {
		b := &expired[i]
		if err := e.cancelExpired(b); err != nil {
			// A version conflict just means the owner arrived in the nick of
			// time; skip and move on.
			logger.Warning(fmt.Sprintf("Skipped expired booking %s: %v", b.Uuid, err))
			continue
		}
		logger.Info(fmt.Sprintf("Auto-cancelled booking %s: arrival deadline passed", b.Uuid))
		e.publish(b, realtime.EventBookingUpdated)
	}

	return nil
}

func (e *Engine) cancelExpired(b *bookingModel.Booking) error {
	return e.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&bookingModel.Booking{}).
			Where("id = ? AND version = ?", b.ID, b.Version).
			Updates(map[string]interface{}{
				"status":                bookingModel.BookingStatusCancelled,
				"version":               b.Version + 1,
				"cancellation_reason":   expiredArrivalReason,
				"arrival_otp_encrypted": nil,
				"updated_by":            sweeperActor,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("booking moved concurrently")
		}

		if err := e.OTP.Invalidate(tx, b.ID, otpModel.OTPPurposeArrival); err != nil {
			return err
		}

		if err := tx.First(b, b.ID).Error; err != nil {
			return err
		}
		return bookingEvent.SnapshotBookingToEvent(tx, b, "deadline_expired", sweeperActor)
	})
}
