package booking

import (
	"fmt"
	"time"

	"agrirent-booking/apperrors"
	bookingModel "agrirent-booking/models/booking"
	userModel "agrirent-booking/models/user"
	"agrirent-booking/services/billing"

	"github.com/jinzhu/now"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GetByUuid returns the full booking projection for one of its parties. This
// is the reconciliation path for clients that missed realtime events.
func (e *Engine) GetByUuid(actor *userModel.User, bookingUuid string) (*bookingModel.Booking, error) {
	return e.loadForActor(bookingUuid, actor)
}

// ListForFarmer returns the farmer's bookings, newest first. With todayOnly,
// only bookings whose requested start falls within the current day.
func (e *Engine) ListForFarmer(farmer *userModel.User, todayOnly bool) ([]bookingModel.Booking, error) {
	return e.list("farmer_id = ?", farmer.ID, todayOnly)
}

// ListForOwner returns bookings on the owner's machines, newest first.
func (e *Engine) ListForOwner(owner *userModel.User, todayOnly bool) ([]bookingModel.Booking, error) {
	return e.list("owner_id = ?", owner.ID, todayOnly)
}

func (e *Engine) list(cond string, id uint, todayOnly bool) ([]bookingModel.Booking, error) {
	query := e.DB.Preload("Machine").Preload("Farmer").Preload("Owner").
		Where(cond, id)

	if todayOnly {
		day := now.With(time.Now())
		query = query.Where("requested_start_at BETWEEN ? AND ?", day.BeginningOfDay(), day.EndOfDay())
	}

	var bookings []bookingModel.Booking
	if err := query.Order("created_at DESC").Find(&bookings).Error; err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

// CostEstimate is the server-side view of a running (or frozen) bill.
type CostEstimate struct {
	Status         bookingModel.BookingStatus `json:"status"`
	BillingScheme  bookingModel.BillingScheme `json:"billing_scheme"`
	Rate           decimal.Decimal            `json:"rate"`
	ElapsedMinutes int64                      `json:"elapsed_minutes"`
	Amount         decimal.Decimal            `json:"amount"`
	Frozen         bool                       `json:"frozen"`
	ComputedAt     time.Time                  `json:"computed_at"`
}

// LiveCost computes the running cost of an in-progress job with the same
// formula that later freezes the final bill. On completed bookings it returns
// the frozen amount instead of recomputing.
func (e *Engine) LiveCost(actor *userModel.User, bookingUuid string, at time.Time) (*CostEstimate, error) {
	b, err := e.loadForActor(bookingUuid, actor)
	if err != nil {
		return nil, err
	}

	if b.CalculatedAmount != nil {
		return &CostEstimate{
			Status:         b.Status,
			BillingScheme:  b.BillingScheme,
			Rate:           b.Rate,
			ElapsedMinutes: billing.ElapsedMinutes(b.ElapsedMs()),
			Amount:         *b.CalculatedAmount,
			Frozen:         true,
			ComputedAt:     at,
		}, nil
	}

	if b.Status != bookingModel.BookingStatusArrivedOTPVerified {
		return nil, apperrors.New(apperrors.KindInvalidTransition, "booking has no running timer")
	}

	elapsedMs := b.LiveElapsedMs(at)
	amount, err := billing.Compute(b.BillingScheme, b.Rate, billing.Context{
		ElapsedMs: elapsedMs,
		AreaBigha: b.AreaBigha,
	})
	if err != nil {
		return nil, err
	}

	return &CostEstimate{
		Status:         b.Status,
		BillingScheme:  b.BillingScheme,
		Rate:           b.Rate,
		ElapsedMinutes: billing.ElapsedMinutes(elapsedMs),
		Amount:         amount,
		Frozen:         false,
		ComputedAt:     at,
	}, nil
}

// History returns the event trail of a booking for one of its parties.
func (e *Engine) History(actor *userModel.User, bookingUuid string) ([]bookingModel.BookingEvent, error) {
	b, err := e.loadForActor(bookingUuid, actor)
	if err != nil {
		return nil, err
	}

	var events []bookingModel.BookingEvent
	err = e.DB.Where("booking_id = ?", b.ID).Order("created_at ASC").Find(&events).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NotFound("booking events")
		}
		return nil, fmt.Errorf("failed to load booking events: %w", err)
	}
	return events, nil
}
