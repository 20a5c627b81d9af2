package machine

import "fmt"

// MachineCreateRequest represents the request payload for registering a machine
type MachineCreateRequest struct {
	Name          string  `json:"name" validate:"required,max=255"`
	Category      string  `json:"category" validate:"required,max=100"`
	BillingScheme string  `json:"billing_scheme" validate:"required,oneof=time area daily"`
	Rate          string  `json:"rate" validate:"required"`
	Unit          string  `json:"unit" validate:"omitempty,max=50"`
	Location      string  `json:"location" validate:"omitempty,max=500"`
	HorsePower    float64 `json:"horse_power" validate:"omitempty,gt=0"`
}

func (m MachineCreateRequest) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("name is required")
	}
	if m.BillingScheme != "time" && m.BillingScheme != "area" && m.BillingScheme != "daily" {
		return fmt.Errorf("billingScheme must be one of 'time', 'area', 'daily'")
	}
	if m.Rate == "" {
		return fmt.Errorf("rate is required")
	}
	return nil
}
