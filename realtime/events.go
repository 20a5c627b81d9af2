package realtime

import (
	"time"
)

// Event types published on booking transitions. Payloads are self-describing
// full projections, so clients apply last-event-wins without ordering.
const (
	EventBookingRequest   = "booking_request"
	EventBookingConfirmed = "booking_confirmed"
	EventBookingRejected  = "booking_rejected"
	EventTimerStarted     = "timer_started"
	EventTimerStopped     = "timer_stopped"
	EventBookingUpdated   = "booking_updated"
)

// Event is the wire format for realtime booking notifications.
type Event struct {
	BookingUuid string      `json:"booking_uuid"`
	Type        string      `json:"type"`
	Version     uint        `json:"version"`
	EmittedAt   time.Time   `json:"emitted_at"`
	Payload     interface{} `json:"payload"`
}

// BookingChannel is the Redis channel and hub room for a booking's two
// parties (farmer and owner).
func BookingChannel(bookingUuid string) string {
	return "booking:" + bookingUuid
}

// OwnerChannel carries owner-only events such as new incoming requests.
func OwnerChannel(ownerUuid string) string {
	return "owner:" + ownerUuid
}
