package accounting

import (
	"context"
	"testing"

	"github.com/balu-dk/go-purifier-cms/internal/db/models"
	ierr "github.com/balu-dk/go-purifier-cms/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type planMap map[string]*models.Plan

func (m planMap) GetPlan(_ context.Context, id string) (*models.Plan, error) {
	p, ok := m[id]
	if !ok {
		return nil, ierr.NewError("plan not found").WithHint("Plan not found").Mark(ierr.ErrNotFound)
	}
	return p, nil
}

func TestCycleHourAllowance(t *testing.T) {
	tests := []struct {
		name     string
		days     int
		daily    float64
		explicit float64
		want     float64
	}{
		{"derived", 30, 25, 0, 50},
		{"derived rounds", 7, 10, 0, 4.67},
		{"explicit wins", 30, 25, 12.345, 12.35},
		{"zero duration", 0, 25, 0, 0},
		{"unset daily", 30, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CycleHourAllowance(tt.days, tt.daily, tt.explicit))
		})
	}
}

func TestCatalogResolve(t *testing.T) {
	catalog := NewCatalog(planMap{
		"monthly": {ID: "monthly", Name: "Monthly", DurationDays: 30, DailyLiterAllowance: 25, Price: 499, IsActive: true},
		"retired": {ID: "retired", Name: "Retired", DurationDays: 30, DailyLiterAllowance: 20, IsActive: false},
	})
	ctx := context.Background()

	terms, err := catalog.Resolve(ctx, "monthly")
	require.NoError(t, err)
	assert.Equal(t, 50.0, terms.CycleHourAllowance)
	assert.Equal(t, 750.0, terms.CycleLiterAllowance())
	assert.True(t, terms.Active)

	again, err := catalog.Resolve(ctx, "monthly")
	require.NoError(t, err)
	assert.Equal(t, terms, again)

	_, err = catalog.Resolve(ctx, "retired")
	require.Error(t, err)
	assert.True(t, ierr.IsInactive(err))
	assert.True(t, ierr.IsPlanUnavailable(err))
	assert.False(t, ierr.IsNotFound(err))
	inactiveHint := ierr.Hint(err)

	_, err = catalog.Resolve(ctx, "missing")
	require.Error(t, err)
	assert.True(t, ierr.IsNotFound(err))
	assert.True(t, ierr.IsPlanUnavailable(err))
	assert.Equal(t, "missing", ierr.Details(err)["plan_id"])
	assert.Equal(t, "Plan unavailable", ierr.Hint(err))
	assert.Equal(t, inactiveHint, ierr.Hint(err))

	_, err = catalog.Resolve(ctx, "")
	assert.True(t, ierr.IsValidation(err))
}

func TestLitersFromHours(t *testing.T) {
	assert.Equal(t, 30.0, LitersFromHours(2))
	assert.Equal(t, 18.75, LitersFromHours(1.25))
	assert.Equal(t, 0.0, LitersFromHours(0))
}
