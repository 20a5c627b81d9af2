package booking

import (
	"fmt"
)

// BookingCreateRequest represents the request payload for creating a booking
type BookingCreateRequest struct {
	MachineUUID      string  `json:"machine_uuid" validate:"required,uuid"`
	RequestedStartAt string  `json:"requested_start_at" validate:"required"`
	AreaBigha        float64 `json:"area_bigha" validate:"omitempty,gt=0"`
	Note             string  `json:"note" validate:"omitempty,max=500"`
}

func (b BookingCreateRequest) Validate() error {
	if b.MachineUUID == "" {
		return fmt.Errorf("machineUuid is required")
	}
	if b.RequestedStartAt == "" {
		return fmt.Errorf("requestedStartAt is required")
	}
	if b.AreaBigha < 0 {
		return fmt.Errorf("areaBigha must be positive")
	}
	return nil
}

// ConfirmRequest is the owner's accept/reject decision on a requested booking
type ConfirmRequest struct {
	Accept                 bool   `json:"accept"`
	ArrivalDeadlineMinutes int    `json:"arrival_deadline_minutes" validate:"omitempty,gt=0"`
	Reason                 string `json:"reason" validate:"omitempty,max=500"`
}

func (r ConfirmRequest) Validate() error {
	if !r.Accept && r.Reason == "" {
		return fmt.Errorf("reason is required when rejecting")
	}
	return nil
}

type CancelRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

func (r CancelRequest) Validate() error {
	if r.Reason == "" {
		return fmt.Errorf("reason is required")
	}
	return nil
}

// VerifyOTPRequest carries the candidate code for arrival or completion
type VerifyOTPRequest struct {
	OTP string `json:"otp" validate:"required,len=6"`
}

func (r VerifyOTPRequest) Validate() error {
	if len(r.OTP) != 6 {
		return fmt.Errorf("otp must be 6 digits")
	}
	return nil
}

// ResendOTPRequest selects which pending code to reissue
type ResendOTPRequest struct {
	Type string `json:"type" validate:"required,oneof=arrival completion"`
}

func (r ResendOTPRequest) Validate() error {
	if r.Type != "arrival" && r.Type != "completion" {
		return fmt.Errorf("type must be either 'arrival' or 'completion'")
	}
	return nil
}

type DisputeRequest struct {
	Reason  string `json:"reason" validate:"required,max=1000"`
	Details string `json:"details" validate:"omitempty,max=5000"`
}

func (r DisputeRequest) Validate() error {
	if r.Reason == "" {
		return fmt.Errorf("reason is required")
	}
	return nil
}

// PaymentConfirmRequest is posted once the external payment system has
// verified the farmer's payment.
type PaymentConfirmRequest struct {
	PaymentReference string `json:"payment_reference" validate:"required,max=255"`
}

func (r PaymentConfirmRequest) Validate() error {
	if r.PaymentReference == "" {
		return fmt.Errorf("paymentReference is required")
	}
	return nil
}
