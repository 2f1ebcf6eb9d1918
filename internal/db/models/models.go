package models

import (
	"time"
)

// Recharge modes
const (
	ModeReplace = "replace"
	ModeAdd     = "add"
)

// Usage entry provenance
const (
	SourceDirect     = "direct"
	SourceCalculated = "calculated"
)

// Ticket statuses
const (
	TicketOpen       = "open"
	TicketInProgress = "in_progress"
	TicketResolved   = "resolved"
	TicketClosed     = "closed"
)

// Plan is a rental plan, administered by staff
type Plan struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	DurationDays        int       `json:"durationDays"`
	DailyLiterAllowance float64   `json:"dailyLiterAllowance"`
	CycleHourAllowance  float64   `json:"cycleHourAllowance,omitempty"` // 0 = derive from liters
	Price               float64   `json:"price"`
	IsActive            bool      `json:"isActive"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// CycleState is the plan snapshot and counters of a customer's current cycle
type CycleState struct {
	CurrentPlanID        string    `json:"currentPlanId"`
	CurrentPlanName      string    `json:"currentPlanName"`
	PricePaid            float64   `json:"pricePaid"`
	CycleStartDate       Timestamp `json:"cycleStartDate"`
	CycleEndDate         Timestamp `json:"cycleEndDate"`
	DailyLiterAllowance  float64   `json:"dailyLiterAllowance"`
	CycleHourAllowance   float64   `json:"cycleHourAllowance"`
	CycleDurationDays    int       `json:"cycleDurationDays"`
	CycleTotalHoursUsed  float64   `json:"cycleTotalHoursUsed"`
	CycleTotalLitersUsed float64   `json:"cycleTotalLitersUsed"`
	RechargeCount        int       `json:"rechargeCount"`
	LastRechargeAt       time.Time `json:"lastRechargeAt"`
}

// UsageEntry is one device report as kept in the customer's bounded history
type UsageEntry struct {
	ReportedAt  time.Time `json:"reportedAt"`
	DailyLiters float64   `json:"dailyLiters"`
	CycleLiters float64   `json:"cycleLiters"`
	DailyHours  *float64  `json:"dailyHours,omitempty"`
	CycleHours  *float64  `json:"cycleHours,omitempty"`
	Source      string    `json:"source"` // direct or calculated
}

// Customer is the per-customer document
type Customer struct {
	ID               string       `json:"id"`
	Name             string       `json:"name"`
	Phone            string       `json:"phone"`
	Address          string       `json:"address,omitempty"`
	DeviceID         string       `json:"deviceId,omitempty"`
	InstallationDate time.Time    `json:"installationDate"`
	CycleState
	LastUsage     []UsageEntry `json:"lastUsage"`
	LastContactAt *time.Time   `json:"lastContactAt,omitempty"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

// RechargeRecord is the immutable audit row of a cycle-establishing event
type RechargeRecord struct {
	ID               string    `json:"id"`
	CustomerID       string    `json:"customerId"`
	PreviousPlanID   string    `json:"previousPlanId,omitempty"`
	PreviousPlanName string    `json:"previousPlanName,omitempty"`
	PlanID           string    `json:"planId"`
	PlanName         string    `json:"planName"`
	Price            float64   `json:"price"`
	CycleStartDate   time.Time `json:"cycleStartDate"`
	CycleEndDate     time.Time `json:"cycleEndDate"`
	Mode             string    `json:"mode"` // replace or add
	PaymentMethod    string    `json:"paymentMethod,omitempty"`
	RechargedAt      time.Time `json:"rechargedAt"`
}

// ServiceTicket tracks a field service request
type ServiceTicket struct {
	ID          string    `json:"id"`
	CustomerID  string    `json:"customerId"`
	Subject     string    `json:"subject"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// DeviceMessage is a raw inbound device payload
type DeviceMessage struct {
	ID         int       `json:"id"`
	DeviceID   string    `json:"deviceId,omitempty"`
	CustomerID string    `json:"customerId,omitempty"`
	Action     string    `json:"action"`
	Payload    string    `json:"payload"`
	Timestamp  time.Time `json:"timestamp"`
}
