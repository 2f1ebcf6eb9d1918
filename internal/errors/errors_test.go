package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarkedErrors(t *testing.T) {
	err := NewError("customer not found").
		WithHint("Customer not found").
		WithReportableDetails(map[string]any{"customer_id": "cust_1"}).
		Mark(ErrNotFound)

	assert.True(t, IsNotFound(err))
	assert.False(t, IsValidation(err))
	assert.Equal(t, http.StatusNotFound, HTTPStatusFromErr(err))
	assert.Equal(t, "Customer not found", Hint(err))
	assert.Equal(t, "cust_1", Details(err)["customer_id"])

	wrapped := fmt.Errorf("recharge: %w", err)
	assert.True(t, IsNotFound(wrapped))
}

func TestHTTPStatusFromErr(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{NewError("x").Mark(ErrValidation), http.StatusBadRequest},
		{NewError("x").Mark(ErrInactive), http.StatusNotFound},
		{NewError("x").Mark(ErrStorage), http.StatusInternalServerError},
		{fmt.Errorf("plain"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatusFromErr(tt.err))
	}
}

func TestPlanUnavailable(t *testing.T) {
	assert.True(t, IsPlanUnavailable(NewError("gone").Mark(ErrNotFound)))
	assert.True(t, IsPlanUnavailable(NewError("off").Mark(ErrInactive)))
	assert.False(t, IsPlanUnavailable(NewError("bad").Mark(ErrValidation)))
}
