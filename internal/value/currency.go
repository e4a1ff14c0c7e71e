package value

import (
	"fmt"
	"math/big"
)

// Currency is a fixed-precision decimal amount tagged with an ISO-4217 code.
//
// No arbitrary-precision decimal library appears in the reference corpus
// (checked across every example repo's go.mod), so Amount is hand-rolled on
// math/big: an unscaled integer plus a base-10 scale, the same
// representation decimal libraries use internally. This keeps arithmetic
// exact — no float64 rounding — without adopting a library nothing in the
// corpus imports.
type Currency struct {
	Amount Decimal
	Code   string
}

// Decimal is unscaled * 10^-scale, scale >= MinScale.
type Decimal struct {
	unscaled *big.Int
	scale    int32
}

// MinScale is the minimum number of fractional digits §4.1 requires for
// Currency amounts.
const MinScale = 4

// NewDecimal builds a Decimal from an unscaled integer and a scale, padding
// the scale up to MinScale if a caller supplies fewer fractional digits.
func NewDecimal(unscaled int64, scale int32) Decimal {
	d := Decimal{unscaled: big.NewInt(unscaled), scale: scale}
	return d.withMinScale()
}

// ParseDecimal parses a literal like "-12.3400" into a Decimal.
func ParseDecimal(s string) (Decimal, error) {
	neg := false
	i := 0
	if len(s) > 0 && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		i = 1
	}
	intPart := ""
	fracPart := ""
	seenDot := false
	for ; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '.' && !seenDot:
			seenDot = true
		case c >= '0' && c <= '9':
			if seenDot {
				fracPart += string(c)
			} else {
				intPart += string(c)
			}
		default:
			return Decimal{}, fmt.Errorf("invalid decimal literal %q", s)
		}
	}
	if intPart == "" && fracPart == "" {
		return Decimal{}, fmt.Errorf("invalid decimal literal %q", s)
	}
	digits := intPart + fracPart
	u, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return Decimal{}, fmt.Errorf("invalid decimal literal %q", s)
	}
	if neg {
		u.Neg(u)
	}
	d := Decimal{unscaled: u, scale: int32(len(fracPart))}
	return d.withMinScale(), nil
}

func (d Decimal) withMinScale() Decimal {
	if d.scale >= MinScale {
		return d
	}
	factor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(MinScale-d.scale)), nil)
	return Decimal{unscaled: new(big.Int).Mul(d.unscaled, factor), scale: MinScale}
}

// align rescales the smaller-scale operand up to match the larger, so both
// big.Ints share the same scale before arithmetic.
func align(a, b Decimal) (*big.Int, *big.Int, int32) {
	if a.scale == b.scale {
		return a.unscaled, b.unscaled, a.scale
	}
	if a.scale < b.scale {
		factor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(b.scale-a.scale)), nil)
		return new(big.Int).Mul(a.unscaled, factor), b.unscaled, b.scale
	}
	factor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(a.scale-b.scale)), nil)
	return a.unscaled, new(big.Int).Mul(b.unscaled, factor), a.scale
}

func (d Decimal) Equal(o Decimal) bool {
	au, bu, _ := align(d, o)
	return au.Cmp(bu) == 0
}

func (d Decimal) Less(o Decimal) bool {
	au, bu, _ := align(d, o)
	return au.Cmp(bu) < 0
}

// Add returns the exact sum of two decimals, scaled to the larger operand's
// scale.
func (d Decimal) Add(o Decimal) Decimal {
	au, bu, scale := align(d, o)
	return Decimal{unscaled: new(big.Int).Add(au, bu), scale: scale}
}

// DivInt64 divides by a small positive integer count, used by `average`; the
// result keeps at least MinScale fractional digits of precision.
func (d Decimal) DivInt64(n int64) Decimal {
	extraScale := int32(MinScale)
	factor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(extraScale)), nil)
	scaled := new(big.Int).Mul(d.unscaled, factor)
	q := new(big.Int).Div(scaled, big.NewInt(n))
	return Decimal{unscaled: q, scale: d.scale + extraScale}.withMinScale()
}

// String renders the canonical "<int>.<frac>" form.
func (d Decimal) String() string {
	neg := d.unscaled.Sign() < 0
	abs := new(big.Int).Abs(d.unscaled)
	s := abs.String()
	for int32(len(s)) <= d.scale {
		s = "0" + s
	}
	cut := len(s) - int(d.scale)
	intPart, fracPart := s[:cut], s[cut:]
	out := intPart
	if d.scale > 0 {
		out += "." + fracPart
	}
	if neg {
		out = "-" + out
	}
	return out
}

// Float64 returns the nearest float64, for contexts that need an
// approximation (never used for comparisons or storage).
func (d Decimal) Float64() float64 {
	f := new(big.Float).SetInt(d.unscaled)
	scale := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(d.scale)), nil))
	f.Quo(f, scale)
	out, _ := f.Float64()
	return out
}
