package db

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/balu-dk/go-purifier-cms/internal/db/models"
	ierr "github.com/balu-dk/go-purifier-cms/internal/errors"
)

func marshalDoc(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", ierr.WithError(err).WithMessage("encode document").Mark(ierr.ErrSystem)
	}
	return string(raw), nil
}

func notFound(kind, key string) error {
	return ierr.NewError(kind+" not found").
		WithHintf("%s not found", strings.ToUpper(kind[:1])+kind[1:]).
		WithReportableDetails(map[string]any{kind + "_id": key}).
		Mark(ierr.ErrNotFound)
}

// cyclePatch holds every plan and cycle field, so merging it into a
// customer document fully replaces the previous cycle.
func cyclePatch(state models.CycleState, now time.Time) (string, error) {
	raw, err := json.Marshal(state)
	if err != nil {
		return "", ierr.WithError(err).WithMessage("encode cycle").Mark(ierr.ErrSystem)
	}
	patch := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &patch); err != nil {
		return "", ierr.WithError(err).WithMessage("encode cycle").Mark(ierr.ErrSystem)
	}
	patch["updatedAt"], _ = json.Marshal(now)
	return marshalDoc(patch)
}

func usagePatch(c *models.Customer, now time.Time) (string, error) {
	return marshalDoc(map[string]any{
		"cycleTotalLitersUsed": c.CycleTotalLitersUsed,
		"cycleTotalHoursUsed":  c.CycleTotalHoursUsed,
		"lastUsage":            c.LastUsage,
		"lastContactAt":        c.LastContactAt,
		"updatedAt":            now,
	})
}

// mergeDoc applies a top-level merge, like jsonb ||
func mergeDoc(doc []byte, patch string) ([]byte, error) {
	base := map[string]json.RawMessage{}
	if err := json.Unmarshal(doc, &base); err != nil {
		return nil, err
	}
	over := map[string]json.RawMessage{}
	if err := json.Unmarshal([]byte(patch), &over); err != nil {
		return nil, err
	}
	for k, v := range over {
		base[k] = v
	}
	return json.Marshal(base)
}
