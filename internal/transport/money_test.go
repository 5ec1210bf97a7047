package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatMinor(t *testing.T) {
	assert.Equal(t, "12.50", FormatMinor(1250, "usd"))
	assert.Equal(t, "0.05", FormatMinor(5, "EUR"))
	assert.Equal(t, "15000", FormatMinor(15000, "idr"))
	assert.Equal(t, "0.00", FormatMinor(0, "usd"))
}
