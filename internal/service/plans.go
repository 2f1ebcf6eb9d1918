package service

import (
	"context"

	"github.com/balu-dk/go-purifier-cms/internal/accounting"
	"github.com/balu-dk/go-purifier-cms/internal/db/models"
	ierr "github.com/balu-dk/go-purifier-cms/internal/errors"
	"github.com/balu-dk/go-purifier-cms/internal/validator"
	"github.com/gosimple/slug"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// PlanView is a stored plan together with its resolved allowances
type PlanView struct {
	*models.Plan
	ResolvedHourAllowance float64 `json:"resolvedHourAllowance"`
	CycleLiterAllowance   float64 `json:"cycleLiterAllowance"`
}

func planView(p *models.Plan) *PlanView {
	terms := accounting.Terms(p)
	return &PlanView{
		Plan:                  p,
		ResolvedHourAllowance: terms.CycleHourAllowance,
		CycleLiterAllowance:   terms.CycleLiterAllowance(),
	}
}

// CreatePlan creates a plan; plans are active unless stated otherwise
func (s *Service) CreatePlan(ctx context.Context, req CreatePlanRequest) (*PlanView, error) {
	if err := validator.ValidateRequest(req); err != nil {
		return nil, s.fail("create_plan", err)
	}

	id := req.ID
	if id == "" {
		id = slug.Make(req.Name)
	}
	if id == "" {
		return nil, s.fail("create_plan", ierr.NewError("plan id is empty").
			WithHint("Plan name must contain letters or digits").
			Mark(ierr.ErrValidation))
	}

	now := s.clock.Now()
	plan := &models.Plan{
		ID:                  id,
		Name:                req.Name,
		DurationDays:        req.DurationDays,
		DailyLiterAllowance: req.DailyLiterAllowance,
		CycleHourAllowance:  req.CycleHourAllowance,
		Price:               req.Price,
		IsActive:            lo.FromPtrOr(req.IsActive, true),
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.store.CreatePlan(ctx, plan); err != nil {
		return nil, s.fail("create_plan", err)
	}

	logrus.WithFields(logrus.Fields{
		"planID":   plan.ID,
		"duration": plan.DurationDays,
		"active":   plan.IsActive,
	}).Info("Plan created")
	return planView(plan), nil
}

// UpdatePlan replaces a plan's terms. Customers keep the snapshot of the
// cycle they are on.
func (s *Service) UpdatePlan(ctx context.Context, id string, req UpdatePlanRequest) (*PlanView, error) {
	if err := validator.ValidateRequest(req); err != nil {
		return nil, s.fail("update_plan", err)
	}

	plan, err := s.store.GetPlan(ctx, id)
	if err != nil {
		return nil, s.fail("update_plan", err)
	}

	plan.Name = req.Name
	plan.DurationDays = req.DurationDays
	plan.DailyLiterAllowance = req.DailyLiterAllowance
	plan.CycleHourAllowance = req.CycleHourAllowance
	plan.Price = req.Price
	plan.IsActive = req.IsActive
	plan.UpdatedAt = s.clock.Now()

	if err := s.store.UpdatePlan(ctx, plan); err != nil {
		return nil, s.fail("update_plan", err)
	}

	logrus.WithFields(logrus.Fields{
		"planID": plan.ID,
		"active": plan.IsActive,
	}).Info("Plan updated")
	return planView(plan), nil
}

// GetPlan returns a specific plan
func (s *Service) GetPlan(ctx context.Context, id string) (*PlanView, error) {
	plan, err := s.store.GetPlan(ctx, id)
	if err != nil {
		return nil, err
	}
	return planView(plan), nil
}

// ListPlans returns all plans, or only the active ones
func (s *Service) ListPlans(ctx context.Context, activeOnly bool) ([]*PlanView, error) {
	plans, err := s.store.ListPlans(ctx)
	if err != nil {
		return nil, err
	}
	if activeOnly {
		plans = lo.Filter(plans, func(p *models.Plan, _ int) bool { return p.IsActive })
	}
	return lo.Map(plans, func(p *models.Plan, _ int) *PlanView { return planView(p) }), nil
}
