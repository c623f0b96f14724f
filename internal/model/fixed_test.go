package model

import (
	"testing"

	"main/pkg/exception"
)

func TestParseFixedInfersPrecision(t *testing.T) {
	cases := []struct {
		in        string
		mantissa  int64
		precision uint8
	}{
		{"10", 10, 0},
		{"10.0", 100, 1},
		{"1010.25", 101025, 2},
		{"0.00000001", 1, 8},
		{"-3.5", -35, 1},
		{"+7.25", 725, 2},
		{"0", 0, 0},
	}
	for _, c := range cases {
		p, err := PriceFromString(c.in)
		if err != nil {
			t.Fatalf("parse %q: %v", c.in, err)
		}
		if p.Mantissa != c.mantissa || p.Precision != c.precision {
			t.Fatalf("parse %q: got (%d, %d) want (%d, %d)",
				c.in, p.Mantissa, p.Precision, c.mantissa, c.precision)
		}
		if p.String() != trimSign(c.in) {
			t.Fatalf("round trip %q: got %q", c.in, p.String())
		}
	}
}

// trimSign drops an explicit leading plus, which rendering never emits.
func trimSign(s string) string {
	if len(s) > 0 && s[0] == '+' {
		return s[1:]
	}
	return s
}

func TestParseFixedRejectsMalformed(t *testing.T) {
	for _, in := range []string{"", ".", "1.", "1..2", "1.2.3", "abc", "-", "1e5", " 1"} {
		if _, err := PriceFromString(in); err == nil {
			t.Fatalf("parse %q: expected error", in)
		}
	}
}

func TestParseFixedRejectsOverflow(t *testing.T) {
	// The largest mantissa an int64 carries parses exactly.
	p, err := PriceFromString("9223372036854775807")
	if err != nil {
		t.Fatalf("parse max mantissa: %v", err)
	}
	if p.Mantissa != 9223372036854775807 || p.Precision != 0 {
		t.Fatalf("parse max mantissa: got (%d, %d)", p.Mantissa, p.Precision)
	}
	if p, err = PriceFromString("922337203.685477580"); err != nil {
		t.Fatalf("parse max fractional mantissa: %v", err)
	}
	if p.Mantissa != 922337203685477580 || p.Precision != 9 {
		t.Fatalf("parse max fractional mantissa: got (%d, %d)", p.Mantissa, p.Precision)
	}

	// One past the mantissa range must error, never wrap.
	for _, in := range []string{
		"9223372036854775808",
		"92233720368547758080",
		"99999999999999999999",
		"-9223372036854775808",
	} {
		if _, err := PriceFromString(in); err == nil {
			t.Fatalf("parse %q: expected overflow rejection", in)
		}
		if _, err := SizeFromString(in); err == nil {
			t.Fatalf("parse size %q: expected overflow rejection", in)
		}
	}
}

func TestFixedRendering(t *testing.T) {
	cases := []struct {
		mantissa  int64
		precision uint8
		want      string
	}{
		{101025, 2, "1010.25"},
		{5, 2, "0.05"},
		{5, 0, "5"},
		{-5, 2, "-0.05"},
		{-101025, 2, "-1010.25"},
		{0, 3, "0.000"},
	}
	for _, c := range cases {
		p := Price{Mantissa: c.mantissa, Precision: c.precision}
		if got := p.String(); got != c.want {
			t.Fatalf("render (%d, %d): got %q want %q", c.mantissa, c.precision, got, c.want)
		}
	}
}

func TestPriceArithmeticSharedPrecision(t *testing.T) {
	a := Price{Mantissa: 10200, Precision: 1}
	b := Price{Mantissa: 10100, Precision: 1}

	sum, err := a.Add(b)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Mantissa != 20300 || sum.Precision != 1 {
		t.Fatalf("add: got %+v", sum)
	}

	diff, err := a.Sub(b)
	if err != nil {
		t.Fatal(err)
	}
	if diff.String() != "10.0" {
		t.Fatalf("sub: got %s", diff)
	}

	cmp, err := a.Cmp(b)
	if err != nil || cmp != 1 {
		t.Fatalf("cmp: got %d, %v", cmp, err)
	}

	mid, err := b.Midpoint(a)
	if err != nil {
		t.Fatal(err)
	}
	if mid.String() != "1015.00" {
		t.Fatalf("midpoint: got %s", mid)
	}
}

func TestPrecisionMismatchRejected(t *testing.T) {
	a := Price{Mantissa: 100, Precision: 1}
	b := Price{Mantissa: 100, Precision: 2}

	if _, err := a.Add(b); err != exception.ErrPrecisionMismatch {
		t.Fatalf("add: got %v", err)
	}
	if _, err := a.Sub(b); err != exception.ErrPrecisionMismatch {
		t.Fatalf("sub: got %v", err)
	}
	if _, err := a.Cmp(b); err != exception.ErrPrecisionMismatch {
		t.Fatalf("cmp: got %v", err)
	}
	if _, err := a.Midpoint(b); err != exception.ErrPrecisionMismatch {
		t.Fatalf("midpoint: got %v", err)
	}

	// Same mantissa, different precision: distinct values.
	if a == b {
		t.Fatal("10.0 and 1.00 must not be equal")
	}
}

func TestNewPriceRejectsExcessPrecision(t *testing.T) {
	if _, err := NewPrice(1, MaxPrecision+1); err != exception.ErrInvalidPrecision {
		t.Fatalf("got %v", err)
	}
	if _, err := NewSize(1, MaxPrecision+1); err != exception.ErrInvalidPrecision {
		t.Fatalf("got %v", err)
	}
}
