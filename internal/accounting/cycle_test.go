package accounting

import (
	"encoding/json"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/balu-dk/go-purifier-cms/internal/db/models"
	ierr "github.com/balu-dk/go-purifier-cms/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func monthlyTerms() PlanTerms {
	return PlanTerms{
		PlanID:              "monthly",
		PlanName:            "Monthly",
		DurationDays:        30,
		DailyLiterAllowance: 25,
		CycleHourAllowance:  50,
		Price:               499,
		Active:              true,
	}
}

func activeCycle(end time.Time) *models.CycleState {
	return &models.CycleState{
		CurrentPlanID:        "basic",
		CurrentPlanName:      "Basic",
		CycleStartDate:       models.NewTimestamp(end.AddDate(0, 0, -30)),
		CycleEndDate:         models.NewTimestamp(end),
		CycleTotalHoursUsed:  12.5,
		CycleTotalLitersUsed: 187.5,
		RechargeCount:        3,
	}
}

func TestEstablishCycleReplaceAnchorsNow(t *testing.T) {
	at := date(2024, time.January, 15)
	priors := map[string]*models.CycleState{
		"absent":  nil,
		"expired": activeCycle(date(2024, time.January, 1)),
		"active":  activeCycle(date(2024, time.January, 31)),
	}
	for name, prior := range priors {
		t.Run(name, func(t *testing.T) {
			out, err := EstablishCycle(prior, monthlyTerms(), Event{CustomerID: "c1", Mode: models.ModeReplace, At: at})
			require.NoError(t, err)
			assert.True(t, out.State.CycleStartDate.Equal(at))
			assert.True(t, out.State.CycleEndDate.Equal(date(2024, time.February, 14)))
			assert.False(t, out.Extended)
			assert.Equal(t, models.ModeReplace, out.Record.Mode)
		})
	}
}

func TestEstablishCycleAddExtendsActiveCycle(t *testing.T) {
	prior := activeCycle(date(2024, time.January, 31))

	out, err := EstablishCycle(prior, monthlyTerms(), Event{CustomerID: "c1", Mode: models.ModeAdd, At: date(2024, time.January, 15)})
	require.NoError(t, err)

	assert.True(t, out.Extended)
	assert.True(t, out.State.CycleStartDate.Equal(date(2024, time.January, 31)))
	// 2024 is a leap year: Jan 31 + 30 days lands on Mar 1.
	assert.True(t, out.State.CycleEndDate.Equal(date(2024, time.March, 1)))
	assert.True(t, out.Record.CycleStartDate.Equal(date(2024, time.January, 31)))
	assert.Equal(t, models.ModeAdd, out.Record.Mode)
}

func TestEstablishCycleAddOnExpiredBehavesLikeReplace(t *testing.T) {
	at := date(2024, time.February, 10)
	for name, end := range map[string]time.Time{
		"expired":      date(2024, time.January, 31),
		"ends exactly": at,
	} {
		t.Run(name, func(t *testing.T) {
			add, err := EstablishCycle(activeCycle(end), monthlyTerms(), Event{Mode: models.ModeAdd, At: at})
			require.NoError(t, err)
			replace, err := EstablishCycle(activeCycle(end), monthlyTerms(), Event{Mode: models.ModeReplace, At: at})
			require.NoError(t, err)

			assert.Equal(t, replace.State, add.State)
			assert.False(t, add.Extended)
		})
	}
}

func TestEstablishCycleMalformedEndDate(t *testing.T) {
	prior := activeCycle(date(2024, time.January, 31))
	require.NoError(t, json.Unmarshal([]byte(`"31/01/2024"`), &prior.CycleEndDate))
	at := date(2024, time.January, 15)

	out, err := EstablishCycle(prior, monthlyTerms(), Event{Mode: models.ModeAdd, At: at})
	require.NoError(t, err)
	assert.True(t, out.MalformedEndDate)
	assert.True(t, out.State.CycleStartDate.Equal(at))
	assert.True(t, out.State.CycleEndDate.Equal(date(2024, time.February, 14)))
}

func TestEstablishCycleResetsCountersAndSnapshotsTerms(t *testing.T) {
	for _, mode := range []string{models.ModeReplace, models.ModeAdd} {
		t.Run(mode, func(t *testing.T) {
			prior := activeCycle(date(2024, time.January, 31))
			out, err := EstablishCycle(prior, monthlyTerms(), Event{Mode: mode, At: date(2024, time.January, 15), PaymentMethod: "cash"})
			require.NoError(t, err)

			st := out.State
			assert.Zero(t, st.CycleTotalHoursUsed)
			assert.Zero(t, st.CycleTotalLitersUsed)
			assert.Equal(t, 4, st.RechargeCount)
			assert.Equal(t, "monthly", st.CurrentPlanID)
			assert.Equal(t, 25.0, st.DailyLiterAllowance)
			assert.Equal(t, 50.0, st.CycleHourAllowance)
			assert.Equal(t, 30, st.CycleDurationDays)
			assert.Equal(t, 499.0, st.PricePaid)
			assert.True(t, st.LastRechargeAt.Equal(date(2024, time.January, 15)))

			assert.Equal(t, "basic", out.Record.PreviousPlanID)
			assert.Equal(t, "cash", out.Record.PaymentMethod)

			// prior is untouched
			assert.Equal(t, 187.5, prior.CycleTotalLitersUsed)
			assert.Equal(t, 3, prior.RechargeCount)
		})
	}
}

func TestEstablishCycleRegistration(t *testing.T) {
	installed := date(2024, time.January, 1)
	price := 0.0

	out, err := EstablishCycle(nil, monthlyTerms(), Event{CustomerID: "c1", Mode: models.ModeAdd, At: installed, PricePaid: &price})
	require.NoError(t, err)
	assert.Equal(t, 1, out.State.RechargeCount)
	assert.Equal(t, models.ModeReplace, out.Record.Mode)
	assert.True(t, out.State.CycleEndDate.Equal(date(2024, time.January, 31)))
	assert.Zero(t, out.State.PricePaid)
	assert.Empty(t, out.Record.PreviousPlanID)
}

func TestEstablishCycleZeroDuration(t *testing.T) {
	terms := monthlyTerms()
	terms.DurationDays = 0
	at := date(2024, time.May, 5)

	out, err := EstablishCycle(nil, terms, Event{Mode: models.ModeReplace, At: at})
	require.NoError(t, err)
	assert.True(t, out.State.CycleEndDate.Equal(at))
}

func TestEstablishCycleCalendarDays(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	terms := monthlyTerms()
	terms.DurationDays = 1

	// DST starts on 2024-03-10 in New York.
	at := time.Date(2024, time.March, 9, 12, 0, 0, 0, ny)
	out, err := EstablishCycle(nil, terms, Event{Mode: models.ModeReplace, At: at})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.March, 10, 12, 0, 0, 0, ny), out.State.CycleEndDate.Time)
	assert.Equal(t, 23*time.Hour, out.State.CycleEndDate.Sub(at))
}

func TestEstablishCycleRejects(t *testing.T) {
	inactive := monthlyTerms()
	inactive.Active = false
	negative := monthlyTerms()
	negative.DurationDays = -1
	at := date(2024, time.January, 1)

	tests := []struct {
		name  string
		terms PlanTerms
		ev    Event
		check func(error) bool
	}{
		{"inactive plan", inactive, Event{Mode: models.ModeReplace, At: at}, ierr.IsInactive},
		{"unknown mode", monthlyTerms(), Event{Mode: "extend", At: at}, ierr.IsValidation},
		{"missing time", monthlyTerms(), Event{Mode: models.ModeReplace}, ierr.IsValidation},
		{"negative duration", negative, Event{Mode: models.ModeReplace, At: at}, ierr.IsValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := EstablishCycle(nil, tt.terms, tt.ev)
			require.Error(t, err)
			assert.Nil(t, out)
			assert.True(t, tt.check(err))
		})
	}
}
