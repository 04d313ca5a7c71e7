package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidNumber(t *testing.T) {
	req := require.New(t)

	tests := []struct {
		number string
		valid  bool
	}{
		{"+33612345678", true},
		{"+1234567", true},
		{"+123456789012345", true},
		{"33612345678", false},     // missing plus
		{"+123456", false},         // too short
		{"+1234567890123456", false}, // too long
		{"+33 61 23 45 67", false}, // spaces
		{"+33a12345678", false},    // letter
		{"", false},
		{"+", false},
	}

	for _, tt := range tests {
		req.Equal(tt.valid, ValidNumber(tt.number), "number=%s", tt.number)
	}
}
