package core

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{"12.344", 1234, true},
		{" 2.50 ", 250, true},
		{"-1", 0, false},
		{"0", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestParseMoneyAcceptsZero(t *testing.T) {
	m, err := ParseMoney("0")
	if err != nil || m.Cents != 0 {
		t.Fatalf("expected zero money, got %v err=%v", m, err)
	}
	if _, err := ParseMoney("-0.50"); !errors.Is(err, ErrNegativeAmount) {
		t.Fatalf("expected ErrNegativeAmount, got %v", err)
	}
}

func TestMoneyUpperBound(t *testing.T) {
	cases := []struct {
		in      string
		cents   int64
		wantErr error
	}{
		{"100000000000", MaxCents, nil},
		{"99999999999.999", MaxCents, nil}, // rounds up onto the bound
		{"100000000000.01", 0, ErrAmountTooLarge},
		{"92233720368547758", 0, ErrAmountTooLarge},
	}
	for _, tc := range cases {
		m, err := ParseMoney(tc.in)
		if tc.wantErr != nil {
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("ParseMoney(%q) err = %v, want %v", tc.in, err, tc.wantErr)
			}
			continue
		}
		if err != nil || m.Cents != tc.cents {
			t.Errorf("ParseMoney(%q) = %d, %v; want %d", tc.in, m.Cents, err, tc.cents)
		}
	}

	if err := Cents(MaxCents).Validate(); err != nil {
		t.Errorf("Validate(MaxCents) = %v", err)
	}
	if err := Cents(MaxCents + 1).Validate(); !errors.Is(err, ErrAmountTooLarge) {
		t.Errorf("Validate(MaxCents+1) = %v, want ErrAmountTooLarge", err)
	}

	var m Money
	if err := json.Unmarshal([]byte(`92233720368547758`), &m); !errors.Is(err, ErrAmountTooLarge) {
		t.Errorf("unmarshal oversized amount err = %v", err)
	}
}

func TestMoneyFormatting(t *testing.T) {
	cases := []struct {
		cents   int64
		str     string
		display string
	}{
		{0, "0.00", "$0.00"},
		{5, "0.05", "$0.05"},
		{1250, "12.50", "$12.50"},
		{123456, "1234.56", "$1,234.56"},
	}
	for _, tc := range cases {
		m := Cents(tc.cents)
		if got := m.String(); got != tc.str {
			t.Errorf("String(%d) = %q, want %q", tc.cents, got, tc.str)
		}
		if got := m.Display(); got != tc.display {
			t.Errorf("Display(%d) = %q, want %q", tc.cents, got, tc.display)
		}
	}
}

func TestMoneyDivRound(t *testing.T) {
	cases := []struct {
		cents int64
		n     int
		want  int64
	}{
		{9000, 3, 3000},
		{10000, 3, 3333},
		{200, 3, 67},
		{100, 0, 0},
	}
	for _, tc := range cases {
		if got := Cents(tc.cents).DivRound(tc.n); got.Cents != tc.want {
			t.Errorf("DivRound(%d, %d) = %d, want %d", tc.cents, tc.n, got.Cents, tc.want)
		}
	}
}

func TestMoneyJSON(t *testing.T) {
	b, err := json.Marshal(Cents(1999))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != "19.99" {
		t.Fatalf("expected 19.99, got %s", b)
	}

	for _, in := range []string{`19.99`, `"19.99"`, `19.985`} {
		var m Money
		if err := json.Unmarshal([]byte(in), &m); err != nil {
			t.Fatalf("unmarshal %s: %v", in, err)
		}
		if m.Cents != 1999 {
			t.Fatalf("unmarshal %s: expected 1999 cents, got %d", in, m.Cents)
		}
	}
}
