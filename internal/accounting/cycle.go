package accounting

import (
	"time"

	"github.com/balu-dk/go-purifier-cms/internal/db/models"
	ierr "github.com/balu-dk/go-purifier-cms/internal/errors"
)

// Event is a cycle-establishing event: a registration or a recharge
type Event struct {
	CustomerID    string
	Mode          string
	At            time.Time
	PaymentMethod string
	// PricePaid overrides the plan price when set
	PricePaid *float64
}

// Establishment is the outcome of EstablishCycle
type Establishment struct {
	State  models.CycleState
	Record models.RechargeRecord
	// Extended is set when an add-mode recharge was appended after an active cycle
	Extended bool
	// MalformedEndDate is set when add mode fell back to "now" because the
	// stored end date could not be read
	MalformedEndDate bool
}

// EstablishCycle computes the next cycle for a customer. prior is nil for a
// first registration, which always behaves as replace anchored at ev.At.
// prior is never modified. The returned record has no ID yet.
func EstablishCycle(prior *models.CycleState, terms PlanTerms, ev Event) (*Establishment, error) {
	if ev.At.IsZero() {
		return nil, ierr.NewError("event time is required").
			WithReportableDetails(map[string]any{"customer_id": ev.CustomerID}).
			Mark(ierr.ErrValidation)
	}
	if ev.Mode != models.ModeReplace && ev.Mode != models.ModeAdd {
		return nil, ierr.NewError("invalid recharge mode").
			WithHintf("Mode must be %q or %q", models.ModeReplace, models.ModeAdd).
			WithReportableDetails(map[string]any{"customer_id": ev.CustomerID, "mode": ev.Mode}).
			Mark(ierr.ErrValidation)
	}
	if terms.DurationDays < 0 {
		return nil, ierr.NewError("plan duration must not be negative").
			WithReportableDetails(map[string]any{"plan_id": terms.PlanID}).
			Mark(ierr.ErrValidation)
	}
	if !terms.Active {
		return nil, ierr.NewError("plan is not active").
			WithHint("Plan unavailable").
			WithReportableDetails(map[string]any{"customer_id": ev.CustomerID, "plan_id": terms.PlanID}).
			Mark(ierr.ErrInactive)
	}

	mode := ev.Mode
	if prior == nil {
		mode = models.ModeReplace
	}

	out := &Establishment{}
	start := ev.At
	if mode == models.ModeAdd {
		switch {
		case prior.CycleEndDate.Malformed():
			out.MalformedEndDate = true
		case prior.CycleEndDate.After(ev.At):
			start = prior.CycleEndDate.Time
			out.Extended = true
		}
	}
	// Calendar-day addition keeps wall-clock time across DST and leap days.
	end := start.AddDate(0, 0, terms.DurationDays)

	price := terms.Price
	if ev.PricePaid != nil {
		price = *ev.PricePaid
	}

	rechargeCount := 1
	if prior != nil {
		rechargeCount = prior.RechargeCount + 1
	}

	out.State = models.CycleState{
		CurrentPlanID:        terms.PlanID,
		CurrentPlanName:      terms.PlanName,
		PricePaid:            price,
		CycleStartDate:       models.NewTimestamp(start),
		CycleEndDate:         models.NewTimestamp(end),
		DailyLiterAllowance:  terms.DailyLiterAllowance,
		CycleHourAllowance:   terms.CycleHourAllowance,
		CycleDurationDays:    terms.DurationDays,
		CycleTotalHoursUsed:  0,
		CycleTotalLitersUsed: 0,
		RechargeCount:        rechargeCount,
		LastRechargeAt:       ev.At,
	}

	out.Record = models.RechargeRecord{
		CustomerID:     ev.CustomerID,
		PlanID:         terms.PlanID,
		PlanName:       terms.PlanName,
		Price:          price,
		CycleStartDate: start,
		CycleEndDate:   end,
		Mode:           mode,
		PaymentMethod:  ev.PaymentMethod,
		RechargedAt:    ev.At,
	}
	if prior != nil {
		out.Record.PreviousPlanID = prior.CurrentPlanID
		out.Record.PreviousPlanName = prior.CurrentPlanName
	}

	return out, nil
}
