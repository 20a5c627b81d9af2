package booking

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingStatusRequested               BookingStatus = "requested"
	BookingStatusOwnerConfirmed          BookingStatus = "owner_confirmed"
	BookingStatusArrivedOTPVerified      BookingStatus = "arrived_otp_verified"
	BookingStatusCompletedPendingPayment BookingStatus = "completed_pending_payment"
	BookingStatusPaid                    BookingStatus = "paid"
	BookingStatusCancelled               BookingStatus = "cancelled"
	BookingStatusDisputed                BookingStatus = "disputed"
)

// BillingScheme selects how a booking is priced.
type BillingScheme string

const (
	BillingSchemeTime  BillingScheme = "time"
	BillingSchemeArea  BillingScheme = "area"
	BillingSchemeDaily BillingScheme = "daily"
)

func (bs BookingStatus) String() string {
	return string(bs)
}

func (bs BookingStatus) IsValid() bool {
	switch bs {
	case BookingStatusRequested, BookingStatusOwnerConfirmed, BookingStatusArrivedOTPVerified,
		BookingStatusCompletedPendingPayment, BookingStatusPaid, BookingStatusCancelled, BookingStatusDisputed:
		return true
	default:
		return false
	}
}

// IsTerminal returns true if no further transitions are allowed out of this
// status (disputed resolution is an admin concern outside this engine).
func (bs BookingStatus) IsTerminal() bool {
	return bs == BookingStatusCancelled || bs == BookingStatusDisputed
}

// CanCancel returns true if a cancel action is allowed from this status.
// Work in progress and settled bookings cannot be cancelled.
func (bs BookingStatus) CanCancel() bool {
	return bs == BookingStatusRequested || bs == BookingStatusOwnerConfirmed
}

// CanDispute returns true if the farmer may raise a dispute from this status.
func (bs BookingStatus) CanDispute() bool {
	return bs == BookingStatusCompletedPendingPayment || bs == BookingStatusPaid
}

// CanTransitionTo reports whether the edge bs -> next exists in the lifecycle
// graph. Cancel and dispute edges are included; guards (actor, OTP) are
// enforced by the engine on top of this predicate.
func (bs BookingStatus) CanTransitionTo(next BookingStatus) bool {
	switch bs {
	case BookingStatusRequested:
		return next == BookingStatusOwnerConfirmed || next == BookingStatusCancelled
	case BookingStatusOwnerConfirmed:
		return next == BookingStatusArrivedOTPVerified || next == BookingStatusCancelled
	case BookingStatusArrivedOTPVerified:
		return next == BookingStatusCompletedPendingPayment
	case BookingStatusCompletedPendingPayment:
		return next == BookingStatusPaid || next == BookingStatusDisputed
	case BookingStatusPaid:
		return next == BookingStatusDisputed
	default:
		return false
	}
}

// GetAllBookingStatuses returns all valid booking statuses
func GetAllBookingStatuses() []BookingStatus {
	return []BookingStatus{
		BookingStatusRequested,
		BookingStatusOwnerConfirmed,
		BookingStatusArrivedOTPVerified,
		BookingStatusCompletedPendingPayment,
		BookingStatusPaid,
		BookingStatusCancelled,
		BookingStatusDisputed,
	}
}
