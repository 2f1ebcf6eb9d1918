package accounting

import (
	"math"
	"time"

	"github.com/balu-dk/go-purifier-cms/internal/db/models"
)

// CycleStatus is the read-side view of a customer's current cycle
type CycleStatus struct {
	CustomerID      string    `json:"customerId"`
	PlanID          string    `json:"planId"`
	PlanName        string    `json:"planName"`
	CycleStartDate  time.Time `json:"cycleStartDate"`
	CycleEndDate    time.Time `json:"cycleEndDate"`
	DaysRemaining   int       `json:"daysRemaining"`
	LiterAllowance  float64   `json:"literAllowance"`
	LitersUsed      float64   `json:"litersUsed"`
	LitersRemaining float64   `json:"litersRemaining"`
	HourAllowance   float64   `json:"hourAllowance"`
	HoursUsed       float64   `json:"hoursUsed"`
	HoursRemaining  float64   `json:"hoursRemaining"`
	Expired         bool      `json:"expired"`
	ExpiringSoon    bool      `json:"expiringSoon"`
	OverAllowance   bool      `json:"overAllowance"`
}

// Status computes remaining days and allowances. A malformed end date
// counts as expired.
func Status(c *models.Customer, now time.Time, warningDays int) CycleStatus {
	st := CycleStatus{
		CustomerID:     c.ID,
		PlanID:         c.CurrentPlanID,
		PlanName:       c.CurrentPlanName,
		CycleStartDate: c.CycleStartDate.Time,
		CycleEndDate:   c.CycleEndDate.Time,
		LiterAllowance: round2(float64(c.CycleDurationDays) * c.DailyLiterAllowance),
		LitersUsed:     c.CycleTotalLitersUsed,
		HourAllowance:  c.CycleHourAllowance,
		HoursUsed:      c.CycleTotalHoursUsed,
	}

	if c.CycleEndDate.Malformed() || !c.CycleEndDate.After(now) {
		st.Expired = true
	} else {
		st.DaysRemaining = int(math.Ceil(c.CycleEndDate.Sub(now).Hours() / 24))
		st.ExpiringSoon = st.DaysRemaining <= warningDays
	}

	st.LitersRemaining = round2(math.Max(0, st.LiterAllowance-st.LitersUsed))
	st.HoursRemaining = round2(math.Max(0, st.HourAllowance-st.HoursUsed))
	st.OverAllowance = st.LiterAllowance > 0 && st.LitersUsed > st.LiterAllowance

	return st
}

// EndsWithin reports whether the cycle ends before now+days. Expired cycles
// are included.
func EndsWithin(c *models.Customer, now time.Time, days int) bool {
	if c.CycleEndDate.Malformed() {
		return true
	}
	return c.CycleEndDate.Before(now.AddDate(0, 0, days))
}
