package mokka

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// Decimal is an exact NUMERIC/DECIMAL column value: a coefficient scaled by
// 10^Exp. Trailing zeros of the coefficient are significant, so a
// DECIMAL(10,3) column holding 2.5 keeps Exp -3 and prints as 2.500.
type Decimal struct {
	neg    bool
	digits string // coefficient without sign or leading zeros, "0" for zero
	exp    int
	nan    bool
	inf    bool
}

// NewDecimal returns the decimal coefficient * 10^exp.
func NewDecimal(coefficient *big.Int, exp int) Decimal {
	if coefficient == nil {
		return Decimal{digits: "0", exp: exp}
	}
	return Decimal{
		neg:    coefficient.Sign() < 0,
		digits: new(big.Int).Abs(coefficient).String(),
		exp:    exp,
	}
}

// DecimalNaN returns the NaN decimal.
func DecimalNaN() Decimal {
	return Decimal{nan: true}
}

// DecimalInfinity returns positive or negative infinity.
func DecimalInfinity(negative bool) Decimal {
	return Decimal{neg: negative, inf: true}
}

// ParseDecimal parses the text form servers send for DECIMAL columns:
// an optional sign, digits with an optional fraction and an optional
// exponent, or NaN / Infinity.
func ParseDecimal(s string) (Decimal, error) {
	text := strings.TrimSpace(s)
	var d Decimal
	switch {
	case strings.HasPrefix(text, "-"):
		d.neg = true
		text = text[1:]
	case strings.HasPrefix(text, "+"):
		text = text[1:]
	}

	switch strings.ToLower(text) {
	case "nan":
		return DecimalNaN(), nil
	case "inf", "infinity":
		return DecimalInfinity(d.neg), nil
	}

	mantissa := text
	if i := strings.IndexAny(text, "eE"); i >= 0 {
		e, err := strconv.Atoi(text[i+1:])
		if err != nil {
			return Decimal{}, fmt.Errorf("invalid decimal %q", s)
		}
		d.exp = e
		mantissa = text[:i]
	}

	intPart, fracPart, _ := strings.Cut(mantissa, ".")
	if intPart == "" && fracPart == "" {
		return Decimal{}, fmt.Errorf("invalid decimal %q", s)
	}
	digits := intPart + fracPart
	for _, c := range digits {
		if c < '0' || c > '9' {
			return Decimal{}, fmt.Errorf("invalid decimal %q", s)
		}
	}

	d.exp -= len(fracPart)
	d.digits = strings.TrimLeft(digits, "0")
	if d.digits == "" {
		d.digits = "0"
	}
	return d, nil
}

// IsZero reports whether d is zero of any scale or sign.
func (d Decimal) IsZero() bool {
	return !d.nan && !d.inf && (d.digits == "0" || d.digits == "")
}

// String keeps the scale (0.000, 2.500) and switches to scientific
// notation only for positive exponents or magnitudes below 1e-6 (1E+3, 1E-7).
func (d Decimal) String() string {
	sign := ""
	if d.neg {
		sign = "-"
	}
	switch {
	case d.nan:
		return "NaN"
	case d.inf:
		return sign + "Infinity"
	}

	digits := d.digits
	if digits == "" {
		digits = "0"
	}
	leftDigits := d.exp + len(digits)

	dotPlace := 1
	if d.exp <= 0 && leftDigits > -6 {
		dotPlace = leftDigits
	}

	var intPart, fracPart string
	switch {
	case dotPlace <= 0:
		intPart = "0"
		fracPart = "." + strings.Repeat("0", -dotPlace) + digits
	case dotPlace >= len(digits):
		intPart = digits + strings.Repeat("0", dotPlace-len(digits))
	default:
		intPart = digits[:dotPlace]
		fracPart = "." + digits[dotPlace:]
	}

	exp := ""
	if leftDigits != dotPlace {
		exp = fmt.Sprintf("E%+d", leftDigits-dotPlace)
	}
	return sign + intPart + fracPart + exp
}

// DecimalValue returns a Value holding d.
func DecimalValue(d Decimal) Value {
	return Value{raw: d}
}
