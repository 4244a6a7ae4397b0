package merger

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrBadPrice is returned when a price string cannot be parsed as a
// decimal amount.
var ErrBadPrice = errors.New("unparseable price")

const centsPerUnit = 100

// ParseCents converts a decimal price string to integer minor-currency
// units without going through binary floating point, so exact inputs
// like "6.61" always yield 661. A third fractional digit rounds the
// cent value to nearest.
func ParseCents(price string) (int64, error) {
	s := strings.TrimSpace(price)
	if s == "" {
		return 0, fmt.Errorf("%w: empty string", ErrBadPrice)
	}

	negative := false
	if s[0] == '+' || s[0] == '-' {
		negative = s[0] == '-'
		s = s[1:]
	}

	intPart, fracPart, hasFrac := strings.Cut(s, ".")
	if intPart == "" && fracPart == "" {
		return 0, fmt.Errorf("%w: %q", ErrBadPrice, price)
	}
	if intPart == "" {
		intPart = "0"
	}

	units, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadPrice, price)
	}

	cents := units * centsPerUnit
	if hasFrac && fracPart != "" {
		fracCents, fracErr := parseFraction(fracPart)
		if fracErr != nil {
			return 0, fmt.Errorf("%w: %q", ErrBadPrice, price)
		}
		cents += fracCents
	}

	if negative {
		cents = -cents
	}
	return cents, nil
}

// parseFraction converts the fractional digits of a price to cents,
// rounding a third digit to nearest.
func parseFraction(frac string) (int64, error) {
	for _, r := range frac {
		if r < '0' || r > '9' {
			return 0, ErrBadPrice
		}
	}

	switch {
	case len(frac) == 1:
		frac += "0"
	case len(frac) > 2:
		carry := frac[2] >= '5'
		frac = frac[:2]
		if carry {
			n, _ := strconv.ParseInt(frac, 10, 64)
			return n + 1, nil
		}
	}

	return strconv.ParseInt(frac, 10, 64)
}
