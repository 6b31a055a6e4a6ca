package executor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		expression string
		expected   float64
	}{
		{"1 + 2", 3},
		{"2 * 3 + 4", 10},
		{"2 + 3 * 4", 14},
		{"(2 + 3) * 4", 20},
		{"10 / 4", 2.5},
		{"-5 + 3", -2},
		{"-(2 + 3)", -5},
		{"10 % 3", 1},
		{"1.5 * 2", 3},
		{"((1 + 2) * (3 + 4))", 21},
		{"  7  ", 7},
	}
	for _, tt := range tests {
		t.Run(tt.expression, func(t *testing.T) {
			value, err := Evaluate(tt.expression)
			require.NoError(t, err)
			require.InDelta(t, tt.expected, value, 1e-9)
		})
	}
}

func TestEvaluateErrors(t *testing.T) {
	tests := []string{
		"",
		"1 +",
		"(1 + 2",
		"1 / 0",
		"two + 2",
		"1 2",
		"1..2 + 3",
	}
	for _, expression := range tests {
		t.Run(expression, func(t *testing.T) {
			_, err := Evaluate(expression)
			require.Error(t, err)
		})
	}
}

func TestFormatNumber(t *testing.T) {
	require.Equal(t, "3", formatNumber(3))
	require.Equal(t, "2.5", formatNumber(2.5))
}
