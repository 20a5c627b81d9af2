package billing

import (
	"fmt"

	bookingModel "agrirent-booking/models/booking"

	"github.com/shopspring/decimal"
)

// minimumCharge is the floor for time-billed jobs, in rupees.
var minimumCharge = decimal.NewFromInt(10)

const (
	minutesPerHour = 60
	minutesPerDay  = 1440
)

// Context carries the scheme-dependent inputs of a billing computation.
type Context struct {
	ElapsedMs int64
	AreaBigha *float64
}

// Compute maps (scheme, rate, context) to a monetary amount. It is pure and
// deterministic: the live per-second display and the authoritative freeze at
// completion call this same function, so the displayed and billed amounts can
// never diverge.
//
// Rules:
//   - time:  totalMinutes = ceil(elapsedMs/60000); amount = max(10, ceil(totalMinutes*rate/60))
//   - area:  amount = rate * areaBigha (areaBigha defaults to 1)
//   - daily: days = ceil(totalMinutes/1440); amount = max(rate, rate*days)
func Compute(scheme bookingModel.BillingScheme, rate decimal.Decimal, ctx Context) (decimal.Decimal, error) {
	switch scheme {
	case bookingModel.BillingSchemeTime:
		return computeTime(rate, ctx.ElapsedMs), nil
	case bookingModel.BillingSchemeArea:
		return computeArea(rate, ctx.AreaBigha), nil
	case bookingModel.BillingSchemeDaily:
		return computeDaily(rate, ctx.ElapsedMs), nil
	default:
		return decimal.Zero, fmt.Errorf("unknown billing scheme %q", scheme)
	}
}

// ElapsedMinutes rounds elapsed milliseconds up to whole billable minutes.
func ElapsedMinutes(elapsedMs int64) int64 {
	if elapsedMs <= 0 {
		return 0
	}
	return (elapsedMs + 59999) / 60000
}

func computeTime(rate decimal.Decimal, elapsedMs int64) decimal.Decimal {
	totalMinutes := ElapsedMinutes(elapsedMs)
	raw := decimal.NewFromInt(totalMinutes).
		Mul(rate).
		Div(decimal.NewFromInt(minutesPerHour)).
		Ceil()
	if raw.LessThan(minimumCharge) {
		return minimumCharge
	}
	return raw
}

func computeArea(rate decimal.Decimal, areaBigha *float64) decimal.Decimal {
	area := decimal.NewFromInt(1)
	if areaBigha != nil && *areaBigha > 0 {
		area = decimal.NewFromFloat(*areaBigha)
	}
	return rate.Mul(area)
}

func computeDaily(rate decimal.Decimal, elapsedMs int64) decimal.Decimal {
	totalMinutes := ElapsedMinutes(elapsedMs)
	days := (totalMinutes + minutesPerDay - 1) / minutesPerDay
	amount := rate.Mul(decimal.NewFromInt(days))
	// Minimum one day's charge even for partial days
	if amount.LessThan(rate) {
		return rate
	}
	return amount
}
