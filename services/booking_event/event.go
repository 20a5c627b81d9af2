package booking_event

import (
	bookingModel "agrirent-booking/models/booking"

	"gorm.io/gorm"
)

// SnapshotBookingToEvent writes a full snapshot of a Booking row into BookingEvent with the given event type.
func SnapshotBookingToEvent(tx *gorm.DB, b *bookingModel.Booking, eventType string, updatedBy string) error {
	ev := bookingModel.BookingEvent{
		BookingID:   b.ID,
		BookingUuid: b.Uuid,

		MachineID: b.MachineID,
		FarmerID:  b.FarmerID,
		OwnerID:   b.OwnerID,

		Status:  b.Status,
		Version: b.Version,

		RequestedStartAt:  b.RequestedStartAt,
		ArrivalDeadlineAt: b.ArrivalDeadlineAt,

		ArrivalOTPEncrypted:    b.ArrivalOTPEncrypted,
		CompletionOTPEncrypted: b.CompletionOTPEncrypted,

		TimerStartedAt:  b.TimerStartedAt,
		TimerStoppedAt:  b.TimerStoppedAt,
		DurationMinutes: b.DurationMinutes,

		BillingScheme:    b.BillingScheme,
		Rate:             b.Rate,
		Unit:             b.Unit,
		AreaBigha:        b.AreaBigha,
		CalculatedAmount: b.CalculatedAmount,

		CancellationReason: b.CancellationReason,
		DisputeReason:      b.DisputeReason,
		PaymentReference:   b.PaymentReference,

		EventType: eventType,
		CreatedBy: updatedBy,
	}

	return tx.Create(&ev).Error
}
