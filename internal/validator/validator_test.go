package validator

import (
	"testing"

	ierr "github.com/balu-dk/go-purifier-cms/internal/errors"
	"github.com/stretchr/testify/assert"
)

type sample struct {
	Name  string   `json:"name" validate:"required"`
	Liter *float64 `json:"liters" validate:"omitempty,min=0"`
}

func TestValidateRequest(t *testing.T) {
	assert.NoError(t, ValidateRequest(sample{Name: "x"}))

	neg := -1.0
	err := ValidateRequest(sample{Liter: &neg})
	assert.True(t, ierr.IsValidation(err))
	details := ierr.Details(err)
	assert.Equal(t, "required", details["name"])
	assert.Equal(t, "min", details["liters"])
}
