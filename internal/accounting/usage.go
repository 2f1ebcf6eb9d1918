package accounting

import (
	"time"

	"github.com/balu-dk/go-purifier-cms/internal/db/models"
	ierr "github.com/balu-dk/go-purifier-cms/internal/errors"
	"github.com/samber/lo"
)

// MaxUsageHistory bounds Customer.LastUsage
const MaxUsageHistory = 50

// Reading is a device usage report. A meter report sets CycleLiters, a
// runtime-only report sets CycleHours. Daily values are optional.
type Reading struct {
	ReportedAt  time.Time
	DailyLiters *float64
	CycleLiters *float64
	DailyHours  *float64
	CycleHours  *float64
}

// Direct reports whether the device sent its own liter counter
func (r Reading) Direct() bool {
	return r.CycleLiters != nil
}

// ApplyReading merges a reading into a copy of c and returns it. Device
// cumulative liters are authoritative; hours are converted only when no
// liters were sent. Allowances are never enforced here.
func ApplyReading(c models.Customer, r Reading, now time.Time) (models.Customer, error) {
	if r.CycleLiters == nil && r.CycleHours == nil {
		return c, ierr.NewError("reading carries neither liters nor hours").
			WithHint("Usage report must include cycle liters or cycle hours").
			WithReportableDetails(map[string]any{"customer_id": c.ID}).
			Mark(ierr.ErrValidation)
	}
	for _, v := range []*float64{r.DailyLiters, r.CycleLiters, r.DailyHours, r.CycleHours} {
		if v != nil && *v < 0 {
			return c, ierr.NewError("reading values must not be negative").
				WithReportableDetails(map[string]any{"customer_id": c.ID}).
				Mark(ierr.ErrValidation)
		}
	}

	reportedAt := r.ReportedAt
	if reportedAt.IsZero() {
		reportedAt = now
	}

	entry := models.UsageEntry{
		ReportedAt: reportedAt,
		DailyHours: copyFloat(r.DailyHours),
		CycleHours: copyFloat(r.CycleHours),
	}

	if r.Direct() {
		entry.Source = models.SourceDirect
		entry.CycleLiters = round2(*r.CycleLiters)
		entry.DailyLiters = round2(lo.FromPtr(r.DailyLiters))
	} else {
		entry.Source = models.SourceCalculated
		entry.CycleLiters = LitersFromHours(*r.CycleHours)
		entry.DailyLiters = LitersFromHours(lo.FromPtr(r.DailyHours))
	}

	c.CycleTotalLitersUsed = entry.CycleLiters
	if r.CycleHours != nil {
		c.CycleTotalHoursUsed = *r.CycleHours
	}

	history := make([]models.UsageEntry, 0, len(c.LastUsage)+1)
	history = append(history, c.LastUsage...)
	history = append(history, entry)
	if len(history) > MaxUsageHistory {
		history = lo.Drop(history, len(history)-MaxUsageHistory)
	}
	c.LastUsage = history
	c.LastContactAt = lo.ToPtr(now)

	return c, nil
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return lo.ToPtr(*v)
}
