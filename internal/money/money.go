// Package money does text-level decimal arithmetic on amount strings.
// Amounts stay strings end to end: parsing them through float64 cannot
// guarantee exact round-half-up (e.g. "199.995" is below 199.995 as a
// float), and the webhook contract fixes the rounding mode.
package money

import (
	"fmt"
	"strconv"
	"strings"
)

// Round2 rounds a non-negative decimal string to two places using
// round-half-up and returns it with exactly two fraction digits.
func Round2(s string) (string, error) {
	cents, err := parseCents(s)
	if err != nil {
		return "", err
	}
	return formatCents(cents), nil
}

// Half returns half of the given amount, rounded half-up to two places.
// Used for the fixed 50% deposit policy on payment links.
func Half(s string) (string, error) {
	cents, err := parseCents(s)
	if err != nil {
		return "", err
	}
	return formatCents((cents + 1) / 2), nil
}

// parseCents converts a decimal string to integer hundredths, applying
// round-half-up on any digits beyond the second fraction place.
func parseCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("money: empty amount")
	}
	// ParseInt maps "-0" to zero, so a sign check on the string is the
	// only way to reject amounts like "-0.50".
	if s[0] == '-' {
		return 0, fmt.Errorf("money: negative amount %q", s)
	}
	intPart := s
	fracPart := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i+1:]
	}
	if intPart == "" {
		intPart = "0"
	}
	whole, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil || whole < 0 {
		return 0, fmt.Errorf("money: invalid amount %q", s)
	}
	for _, r := range fracPart {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("money: invalid amount %q", s)
		}
	}

	cents := whole * 100
	switch {
	case len(fracPart) == 1:
		cents += int64(fracPart[0]-'0') * 10
	case len(fracPart) >= 2:
		cents += int64(fracPart[0]-'0')*10 + int64(fracPart[1]-'0')
		// Round-half-up: any remainder of at least half a cent bumps up.
		if len(fracPart) > 2 && fracPart[2] >= '5' {
			cents++
		}
	}
	return cents, nil
}

func formatCents(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}
