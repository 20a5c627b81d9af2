package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionTo(t *testing.T) {
	validEdges := map[BookingStatus][]BookingStatus{
		BookingStatusRequested:               {BookingStatusOwnerConfirmed, BookingStatusCancelled},
		BookingStatusOwnerConfirmed:          {BookingStatusArrivedOTPVerified, BookingStatusCancelled},
		BookingStatusArrivedOTPVerified:      {BookingStatusCompletedPendingPayment},
		BookingStatusCompletedPendingPayment: {BookingStatusPaid, BookingStatusDisputed},
		BookingStatusPaid:                    {BookingStatusDisputed},
		BookingStatusCancelled:               {},
		BookingStatusDisputed:                {},
	}

	for _, from := range GetAllBookingStatuses() {
		allowed := make(map[BookingStatus]bool)
		for _, next := range validEdges[from] {
			allowed[next] = true
		}
		for _, to := range GetAllBookingStatuses() {
			assert.Equal(t, allowed[to], from.CanTransitionTo(to),
				"edge %s -> %s", from, to)
		}
	}
}

func TestCanTransitionToRejectsSkippedStates(t *testing.T) {
	// The lifecycle has no shortcuts: payment requires a completed job and
	// work cannot start before the owner confirms.
	assert.False(t, BookingStatusRequested.CanTransitionTo(BookingStatusArrivedOTPVerified))
	assert.False(t, BookingStatusRequested.CanTransitionTo(BookingStatusPaid))
	assert.False(t, BookingStatusOwnerConfirmed.CanTransitionTo(BookingStatusCompletedPendingPayment))
	assert.False(t, BookingStatusArrivedOTPVerified.CanTransitionTo(BookingStatusPaid))
}

func TestCanTransitionToRejectsSelfLoops(t *testing.T) {
	for _, s := range GetAllBookingStatuses() {
		assert.False(t, s.CanTransitionTo(s), "self loop on %s", s)
	}
}

func TestTerminalStatesHaveNoOutgoingEdges(t *testing.T) {
	for _, from := range []BookingStatus{BookingStatusCancelled, BookingStatusDisputed} {
		assert.True(t, from.IsTerminal())
		for _, to := range GetAllBookingStatuses() {
			assert.False(t, from.CanTransitionTo(to), "terminal %s -> %s", from, to)
		}
	}
}

func TestCancelWindow(t *testing.T) {
	assert.True(t, BookingStatusRequested.CanCancel())
	assert.True(t, BookingStatusOwnerConfirmed.CanCancel())

	// Once the machine has arrived the job must run to completion or dispute.
	assert.False(t, BookingStatusArrivedOTPVerified.CanCancel())
	assert.False(t, BookingStatusCompletedPendingPayment.CanCancel())
	assert.False(t, BookingStatusPaid.CanCancel())
	assert.False(t, BookingStatusCancelled.CanCancel())
	assert.False(t, BookingStatusDisputed.CanCancel())
}

func TestDisputeWindow(t *testing.T) {
	assert.True(t, BookingStatusCompletedPendingPayment.CanDispute())
	assert.True(t, BookingStatusPaid.CanDispute())

	assert.False(t, BookingStatusRequested.CanDispute())
	assert.False(t, BookingStatusOwnerConfirmed.CanDispute())
	assert.False(t, BookingStatusArrivedOTPVerified.CanDispute())
	assert.False(t, BookingStatusCancelled.CanDispute())
	assert.False(t, BookingStatusDisputed.CanDispute())
}

func TestIsValid(t *testing.T) {
	for _, s := range GetAllBookingStatuses() {
		assert.True(t, s.IsValid())
	}
	assert.False(t, BookingStatus("pending").IsValid())
	assert.False(t, BookingStatus("").IsValid())
}
