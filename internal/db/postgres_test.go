package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNullString(t *testing.T) {
	assert.Nil(t, nullString(""))

	v := nullString("PUR-1")
	require.NotNil(t, v)
	assert.Equal(t, "PUR-1", *v)
}
