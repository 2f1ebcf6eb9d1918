package accounting

import (
	"context"

	"github.com/balu-dk/go-purifier-cms/internal/db/models"
	ierr "github.com/balu-dk/go-purifier-cms/internal/errors"
	"github.com/shopspring/decimal"
)

// LitersPerHour converts purifier runtime to dispensed water.
const LitersPerHour = 15

// PlanTerms are the resolved terms of a plan, ready to snapshot onto a cycle
type PlanTerms struct {
	PlanID              string
	PlanName            string
	DurationDays        int
	DailyLiterAllowance float64
	CycleHourAllowance  float64
	Price               float64
	Active              bool
}

// CycleLiterAllowance is the total liters a full cycle allows
func (t PlanTerms) CycleLiterAllowance() float64 {
	return round2(float64(t.DurationDays) * t.DailyLiterAllowance)
}

// PlanStore is the read side of the plan collection
type PlanStore interface {
	GetPlan(ctx context.Context, id string) (*models.Plan, error)
}

// Catalog resolves plan ids to terms
type Catalog struct {
	plans PlanStore
}

// NewCatalog creates a plan catalog over the given store
func NewCatalog(plans PlanStore) *Catalog {
	return &Catalog{plans: plans}
}

// Resolve looks up a plan and returns its terms. Missing plans fail with
// ErrNotFound and inactive ones with ErrInactive.
func (c *Catalog) Resolve(ctx context.Context, planID string) (PlanTerms, error) {
	if planID == "" {
		return PlanTerms{}, ierr.NewError("plan id is required").
			WithHint("A plan must be selected").
			Mark(ierr.ErrValidation)
	}

	plan, err := c.plans.GetPlan(ctx, planID)
	if err != nil {
		if ierr.IsNotFound(err) {
			return PlanTerms{}, ierr.NewError("plan not found").
				WithHint("Plan unavailable").
				WithReportableDetails(map[string]any{"plan_id": planID}).
				Mark(ierr.ErrNotFound)
		}
		return PlanTerms{}, err
	}

	if !plan.IsActive {
		return PlanTerms{}, ierr.NewError("plan is not active").
			WithHint("Plan unavailable").
			WithReportableDetails(map[string]any{"plan_id": planID}).
			Mark(ierr.ErrInactive)
	}

	return Terms(plan), nil
}

// Terms derives plan terms without any lookup. The result is the same at
// every call site (registration, recharge, display).
func Terms(p *models.Plan) PlanTerms {
	return PlanTerms{
		PlanID:              p.ID,
		PlanName:            p.Name,
		DurationDays:        p.DurationDays,
		DailyLiterAllowance: p.DailyLiterAllowance,
		CycleHourAllowance:  CycleHourAllowance(p.DurationDays, p.DailyLiterAllowance, p.CycleHourAllowance),
		Price:               p.Price,
		Active:              p.IsActive,
	}
}

// CycleHourAllowance returns explicit when set, otherwise the runtime that
// dispenses durationDays*dailyLiters at LitersPerHour. Rounded to 2 dp.
func CycleHourAllowance(durationDays int, dailyLiters, explicit float64) float64 {
	if explicit > 0 {
		return round2(explicit)
	}
	return decimal.NewFromInt(int64(durationDays)).
		Mul(decimal.NewFromFloat(dailyLiters)).
		Div(decimal.NewFromInt(LitersPerHour)).
		Round(2).
		InexactFloat64()
}

// LitersFromHours converts reported runtime to liters, rounded to 2 dp
func LitersFromHours(hours float64) float64 {
	return decimal.NewFromFloat(hours).Mul(decimal.NewFromInt(LitersPerHour)).Round(2).InexactFloat64()
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
