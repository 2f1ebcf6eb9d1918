package service

import (
	"time"

	ierr "github.com/balu-dk/go-purifier-cms/internal/errors"
)

// CreatePlanRequest creates a plan. ID defaults to the slug of Name.
type CreatePlanRequest struct {
	ID                  string  `json:"id,omitempty" validate:"omitempty,max=64"`
	Name                string  `json:"name" validate:"required,max=128"`
	DurationDays        int     `json:"durationDays" validate:"min=0"`
	DailyLiterAllowance float64 `json:"dailyLiterAllowance" validate:"min=0"`
	CycleHourAllowance  float64 `json:"cycleHourAllowance,omitempty" validate:"min=0"`
	Price               float64 `json:"price" validate:"min=0"`
	IsActive            *bool   `json:"isActive,omitempty"`
}

// UpdatePlanRequest replaces the terms of a plan
type UpdatePlanRequest struct {
	Name                string  `json:"name" validate:"required,max=128"`
	DurationDays        int     `json:"durationDays" validate:"min=0"`
	DailyLiterAllowance float64 `json:"dailyLiterAllowance" validate:"min=0"`
	CycleHourAllowance  float64 `json:"cycleHourAllowance,omitempty" validate:"min=0"`
	Price               float64 `json:"price" validate:"min=0"`
	IsActive            bool    `json:"isActive"`
}

// RegisterCustomerRequest registers a customer and starts the first cycle at
// the installation date
type RegisterCustomerRequest struct {
	Name             string   `json:"name" validate:"required,max=128"`
	Phone            string   `json:"phone" validate:"required,max=32"`
	Address          string   `json:"address,omitempty" validate:"max=512"`
	DeviceID         string   `json:"deviceId,omitempty" validate:"max=64"`
	PlanID           string   `json:"planId" validate:"required"`
	InstallationDate string   `json:"installationDate,omitempty"`
	PricePaid        *float64 `json:"pricePaid,omitempty" validate:"omitempty,min=0"`
	PaymentMethod    string   `json:"paymentMethod,omitempty" validate:"max=32"`
}

// RechargeRequest starts a new cycle for an existing customer
type RechargeRequest struct {
	PlanID        string   `json:"planId" validate:"required"`
	Mode          string   `json:"mode,omitempty" validate:"omitempty,oneof=replace add"`
	PricePaid     *float64 `json:"pricePaid,omitempty" validate:"omitempty,min=0"`
	PaymentMethod string   `json:"paymentMethod,omitempty" validate:"max=32"`
}

// UsageRequest is a device usage report. It must carry the daily and cycle
// value of at least one unit.
type UsageRequest struct {
	ReportedAt  *time.Time `json:"reportedAt,omitempty"`
	DailyLiters *float64   `json:"dailyLiters,omitempty" validate:"omitempty,min=0"`
	CycleLiters *float64   `json:"cycleLiters,omitempty" validate:"omitempty,min=0"`
	DailyHours  *float64   `json:"dailyHours,omitempty" validate:"omitempty,min=0"`
	CycleHours  *float64   `json:"cycleHours,omitempty" validate:"omitempty,min=0"`
}

func (r UsageRequest) checkPairs() error {
	liters := r.DailyLiters != nil && r.CycleLiters != nil
	hours := r.DailyHours != nil && r.CycleHours != nil
	if liters || hours {
		return nil
	}
	return ierr.NewError("usage report has no complete liter or hour pair").
		WithHint("Report dailyLiters and cycleLiters, or dailyHours and cycleHours").
		Mark(ierr.ErrValidation)
}

// OpenTicketRequest opens a service ticket for a customer
type OpenTicketRequest struct {
	CustomerID  string `json:"customerId" validate:"required"`
	Subject     string `json:"subject" validate:"required,max=256"`
	Description string `json:"description,omitempty" validate:"max=4096"`
}

// UpdateTicketRequest moves a ticket to a new status
type UpdateTicketRequest struct {
	Status string `json:"status" validate:"required,oneof=open in_progress resolved closed"`
}

var dateLayouts = []string{time.RFC3339, "2006-01-02"}

func parseDate(field, value string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ierr.NewError("invalid date").
		WithHintf("%s must be YYYY-MM-DD or RFC 3339", field).
		WithReportableDetails(map[string]any{field: value}).
		Mark(ierr.ErrValidation)
}
