package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRound2_HalfUp(t *testing.T) {
	cases := map[string]string{
		"199.995":  "200.00",
		"199.9949": "199.99",
		"1000":     "1000.00",
		"0.005":    "0.01",
		"12.3":     "12.30",
		"12.345":   "12.35",
		" 45.00 ":  "45.00",
		".5":       "0.50",
	}
	for in, want := range cases {
		got, err := Round2(in)
		require.NoError(t, err, "input %q", in)
		assert.Equal(t, want, got, "input %q", in)
	}
}

func TestRound2_Invalid(t *testing.T) {
	for _, in := range []string{"", "abc", "12.3a", "-5.00", "1,000.00"} {
		_, err := Round2(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestNegativeZeroIntegerPartRejected(t *testing.T) {
	// "-0" parses to zero as an integer, so the sign must be caught on
	// the raw string before the amount is accepted.
	for _, in := range []string{"-0.50", "-0", "-0.005", "-.5"} {
		_, err := Round2(in)
		assert.Error(t, err, "input %q", in)
		_, err = Half(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestHalf(t *testing.T) {
	cases := map[string]string{
		"1000.00": "500.00",
		"1000":    "500.00",
		"999.99":  "500.00",
		"0.01":    "0.01",
		"0.00":    "0.00",
	}
	for in, want := range cases {
		got, err := Half(in)
		require.NoError(t, err, "input %q", in)
		assert.Equal(t, want, got, "input %q", in)
	}
}
