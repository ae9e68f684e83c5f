package woocommerce

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeOrderNumber(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"WC-00123", "123"},
		{"MAN-123", "123"},
		{strconv.Itoa(123), "123"},
		{"#775", "775"},
		{"  774 ", "774"},
		{"no digits", ""},
		{"000", ""},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, NormalizeOrderNumber(tc.in), "input %q", tc.in)
	}
}

func TestSameOrderNumber(t *testing.T) {
	assert.True(t, SameOrderNumber("WC-00123", "123"))
	assert.True(t, SameOrderNumber("MAN-123", "#123"))
	assert.False(t, SameOrderNumber("774", "775"))
	assert.False(t, SameOrderNumber("no digits", "also none"))
}
