package accounting

import (
	"testing"
	"time"

	"github.com/balu-dk/go-purifier-cms/internal/db/models"
	ierr "github.com/balu-dk/go-purifier-cms/internal/errors"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyReadingDirect(t *testing.T) {
	now := date(2024, time.January, 10)
	c := models.Customer{ID: "c1"}
	c.CycleTotalHoursUsed = 1

	out, err := ApplyReading(c, Reading{CycleLiters: lo.ToPtr(42.345), DailyLiters: lo.ToPtr(12.5)}, now)
	require.NoError(t, err)

	assert.Equal(t, 42.35, out.CycleTotalLitersUsed)
	assert.Equal(t, 1.0, out.CycleTotalHoursUsed, "hours are only taken from the device")
	require.Len(t, out.LastUsage, 1)
	assert.Equal(t, models.SourceDirect, out.LastUsage[0].Source)
	assert.Equal(t, 12.5, out.LastUsage[0].DailyLiters)
	assert.True(t, out.LastUsage[0].ReportedAt.Equal(now))
	require.NotNil(t, out.LastContactAt)
	assert.True(t, out.LastContactAt.Equal(now))
	assert.Empty(t, c.LastUsage)
}

func TestApplyReadingDirectKeepsDeviceHours(t *testing.T) {
	out, err := ApplyReading(models.Customer{ID: "c1"}, Reading{
		CycleLiters: lo.ToPtr(100.0),
		CycleHours:  lo.ToPtr(3.0),
	}, date(2024, time.January, 10))
	require.NoError(t, err)

	assert.Equal(t, 100.0, out.CycleTotalLitersUsed, "liters stay authoritative")
	assert.Equal(t, 3.0, out.CycleTotalHoursUsed)
	assert.Equal(t, models.SourceDirect, out.LastUsage[0].Source)
	assert.Equal(t, 3.0, *out.LastUsage[0].CycleHours)
}

func TestApplyReadingCalculated(t *testing.T) {
	reported := date(2024, time.January, 9)
	out, err := ApplyReading(models.Customer{ID: "c1"}, Reading{
		ReportedAt: reported,
		CycleHours: lo.ToPtr(2.0),
		DailyHours: lo.ToPtr(0.5),
	}, date(2024, time.January, 10))
	require.NoError(t, err)

	assert.Equal(t, 30.0, out.CycleTotalLitersUsed)
	assert.Equal(t, 2.0, out.CycleTotalHoursUsed)
	entry := out.LastUsage[0]
	assert.Equal(t, models.SourceCalculated, entry.Source)
	assert.Equal(t, 7.5, entry.DailyLiters)
	assert.Equal(t, 30.0, entry.CycleLiters)
	assert.True(t, entry.ReportedAt.Equal(reported))
}

func TestApplyReadingNeverEnforcesAllowance(t *testing.T) {
	c := models.Customer{ID: "c1"}
	c.DailyLiterAllowance = 1
	c.CycleDurationDays = 1

	out, err := ApplyReading(c, Reading{CycleLiters: lo.ToPtr(10000.0)}, date(2024, time.January, 10))
	require.NoError(t, err)
	assert.Equal(t, 10000.0, out.CycleTotalLitersUsed)
}

func TestApplyReadingHistoryEviction(t *testing.T) {
	c := models.Customer{ID: "c1"}
	start := date(2024, time.January, 1)

	for i := 1; i <= 55; i++ {
		var err error
		c, err = ApplyReading(c, Reading{
			ReportedAt:  start.Add(time.Duration(i) * time.Hour),
			CycleLiters: lo.ToPtr(float64(i)),
		}, start.Add(time.Duration(i)*time.Hour))
		require.NoError(t, err)
	}

	require.Len(t, c.LastUsage, MaxUsageHistory)
	for i, entry := range c.LastUsage {
		assert.Equal(t, float64(i+6), entry.CycleLiters)
	}
	assert.Equal(t, 55.0, c.CycleTotalLitersUsed)
}

func TestApplyReadingRejects(t *testing.T) {
	now := date(2024, time.January, 10)

	_, err := ApplyReading(models.Customer{ID: "c1"}, Reading{DailyLiters: lo.ToPtr(3.0)}, now)
	assert.True(t, ierr.IsValidation(err))

	_, err = ApplyReading(models.Customer{ID: "c1"}, Reading{CycleLiters: lo.ToPtr(-1.0)}, now)
	assert.True(t, ierr.IsValidation(err))
}
