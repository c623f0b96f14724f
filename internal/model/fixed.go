package model

import (
	"math"
	"strconv"

	"main/pkg/exception"
)

// MaxPrecision is the largest number of fractional digits a fixed-point
// value can carry without overflowing its int64 mantissa for realistic
// market prices.
const MaxPrecision uint8 = 9

// Price is an exact fixed-point decimal: Mantissa scaled by 10^-Precision.
// Two prices are equal only when both mantissa and precision match;
// arithmetic between different precisions is rejected instead of being
// normalized silently.
type Price struct {
	Mantissa  int64
	Precision uint8
}

// Size is an exact fixed-point decimal quantity with the same semantics
// as Price.
type Size struct {
	Mantissa  int64
	Precision uint8
}

// NewPrice builds a price from a raw mantissa and precision.
func NewPrice(mantissa int64, precision uint8) (Price, error) {
	if precision > MaxPrecision {
		return Price{}, exception.ErrInvalidPrecision
	}
	return Price{Mantissa: mantissa, Precision: precision}, nil
}

// NewSize builds a size from a raw mantissa and precision.
func NewSize(mantissa int64, precision uint8) (Size, error) {
	if precision > MaxPrecision {
		return Size{}, exception.ErrInvalidPrecision
	}
	return Size{Mantissa: mantissa, Precision: precision}, nil
}

// PriceFromString parses a decimal literal. The precision is inferred
// from the fractional digits, so "10.0" and "10" are distinct values.
func PriceFromString(s string) (Price, error) {
	mantissa, precision, err := parseFixed(s)
	if err != nil {
		return Price{}, err
	}
	return Price{Mantissa: mantissa, Precision: precision}, nil
}

// SizeFromString parses a decimal literal, inferring precision.
func SizeFromString(s string) (Size, error) {
	mantissa, precision, err := parseFixed(s)
	if err != nil {
		return Size{}, err
	}
	return Size{Mantissa: mantissa, Precision: precision}, nil
}

func (p Price) IsZero() bool { return p.Mantissa == 0 }

// Add returns p+o. Both operands must share a precision.
func (p Price) Add(o Price) (Price, error) {
	if p.Precision != o.Precision {
		return Price{}, exception.ErrPrecisionMismatch
	}
	return Price{Mantissa: p.Mantissa + o.Mantissa, Precision: p.Precision}, nil
}

// Sub returns p-o. Both operands must share a precision.
func (p Price) Sub(o Price) (Price, error) {
	if p.Precision != o.Precision {
		return Price{}, exception.ErrPrecisionMismatch
	}
	return Price{Mantissa: p.Mantissa - o.Mantissa, Precision: p.Precision}, nil
}

// Cmp returns -1, 0 or 1. Both operands must share a precision.
func (p Price) Cmp(o Price) (int, error) {
	if p.Precision != o.Precision {
		return 0, exception.ErrPrecisionMismatch
	}
	switch {
	case p.Mantissa < o.Mantissa:
		return -1, nil
	case p.Mantissa > o.Mantissa:
		return 1, nil
	default:
		return 0, nil
	}
}

// Midpoint returns (p+o)/2 exactly, at one extra fractional digit.
func (p Price) Midpoint(o Price) (Price, error) {
	if p.Precision != o.Precision {
		return Price{}, exception.ErrPrecisionMismatch
	}
	if p.Precision+1 > MaxPrecision {
		return Price{}, exception.ErrInvalidPrecision
	}
	return Price{Mantissa: (p.Mantissa + o.Mantissa) * 5, Precision: p.Precision + 1}, nil
}

func (p Price) String() string {
	return string(p.AppendBytes(nil))
}

func (p Price) AppendBytes(buf []byte) []byte {
	return appendFixed(buf, p.Mantissa, int(p.Precision))
}

func (s Size) IsZero() bool { return s.Mantissa == 0 }

// Add returns s+o. Both operands must share a precision.
func (s Size) Add(o Size) (Size, error) {
	if s.Precision != o.Precision {
		return Size{}, exception.ErrPrecisionMismatch
	}
	return Size{Mantissa: s.Mantissa + o.Mantissa, Precision: s.Precision}, nil
}

// Sub returns s-o. Both operands must share a precision.
func (s Size) Sub(o Size) (Size, error) {
	if s.Precision != o.Precision {
		return Size{}, exception.ErrPrecisionMismatch
	}
	return Size{Mantissa: s.Mantissa - o.Mantissa, Precision: s.Precision}, nil
}

// Cmp returns -1, 0 or 1. Both operands must share a precision.
func (s Size) Cmp(o Size) (int, error) {
	if s.Precision != o.Precision {
		return 0, exception.ErrPrecisionMismatch
	}
	switch {
	case s.Mantissa < o.Mantissa:
		return -1, nil
	case s.Mantissa > o.Mantissa:
		return 1, nil
	default:
		return 0, nil
	}
}

func (s Size) String() string {
	return string(s.AppendBytes(nil))
}

func (s Size) AppendBytes(buf []byte) []byte {
	return appendFixed(buf, s.Mantissa, int(s.Precision))
}

func appendFixed(buf []byte, value int64, scale int) []byte {
	if scale <= 0 {
		return strconv.AppendInt(buf, value, 10)
	}

	neg := value < 0
	u := uint64(value)
	if neg {
		u = uint64(^value) + 1
	}

	var tmp [32]byte
	digits := strconv.AppendUint(tmp[:0], u, 10)

	if neg {
		buf = append(buf, '-')
	}

	if len(digits) <= scale {
		buf = append(buf, '0', '.')
		for i := 0; i < scale-len(digits); i++ {
			buf = append(buf, '0')
		}
		buf = append(buf, digits...)
		return buf
	}

	idx := len(digits) - scale
	buf = append(buf, digits[:idx]...)
	buf = append(buf, '.')
	buf = append(buf, digits[idx:]...)
	return buf
}

func parseFixed(s string) (int64, uint8, error) {
	if len(s) == 0 {
		return 0, 0, exception.ErrInvalidDecimal
	}

	neg := false
	i := 0
	switch s[0] {
	case '-':
		neg = true
		i = 1
	case '+':
		i = 1
	}
	if i >= len(s) {
		return 0, 0, exception.ErrInvalidDecimal
	}

	var (
		mantissa  int64
		precision int
		dot       = false
		digits    = 0
	)
	for ; i < len(s); i++ {
		c := s[i]
		if c == '.' {
			if dot {
				return 0, 0, exception.ErrInvalidDecimal
			}
			dot = true
			continue
		}
		if c < '0' || c > '9' {
			return 0, 0, exception.ErrInvalidDecimal
		}
		digit := int64(c - '0')
		if mantissa > (math.MaxInt64-digit)/10 {
			return 0, 0, exception.ErrInvalidDecimal
		}
		mantissa = mantissa*10 + digit
		digits++
		if dot {
			precision++
		}
	}
	if digits == 0 || (dot && precision == 0) {
		return 0, 0, exception.ErrInvalidDecimal
	}
	if precision > int(MaxPrecision) {
		return 0, 0, exception.ErrInvalidPrecision
	}
	if neg {
		mantissa = -mantissa
	}
	return mantissa, uint8(precision), nil
}
