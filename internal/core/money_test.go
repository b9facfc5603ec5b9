package core

import "testing"

func TestNormalizeMilliunits(t *testing.T) {
	cases := []struct {
		raw   int64
		cents int64
	}{
		{0, 0},
		{1000, 100},
		{-1000, -100},
		{12340, 1234},
		{12345, 1235}, // half rounds away from zero
		{12344, 1234},
		{-12345, -1235},
		{-12344, -1234},
		{5, 1},
		{-5, -1},
		{4, 0},
	}
	for _, tc := range cases {
		if got := NormalizeMilliunits(tc.raw); got.Cents != tc.cents {
			t.Errorf("NormalizeMilliunits(%d) = %d cents, want %d", tc.raw, got.Cents, tc.cents)
		}
	}
}

func TestMilliunitsRoundTrip(t *testing.T) {
	// Every two-decimal value survives normalize(denormalize(x)) == x.
	for _, cents := range []int64{0, 1, -1, 99, 100, -12345, 987654321} {
		m := Money{Cents: cents}
		if got := NormalizeMilliunits(m.Milliunits()); got != m {
			t.Errorf("round trip of %d cents gave %d", cents, got.Cents)
		}
	}
}

func TestMoneyString(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{0, "0.00"},
		{5, "0.05"},
		{1234, "12.34"},
		{-1205, "-12.05"},
		{100000, "1000.00"},
	}
	for _, tc := range cases {
		if got := (Money{Cents: tc.cents}).String(); got != tc.want {
			t.Errorf("Money{%d}.String() = %q, want %q", tc.cents, got, tc.want)
		}
	}
}

func TestParseUnits(t *testing.T) {
	cases := []struct {
		in    string
		cents int64
		ok    bool
	}{
		{"1", 100, true},
		{"1.23", 123, true},
		{"-1.23", -123, true},
		{"0", 0, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{"+2.50", 250, true},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseUnits(tc.in)
		if tc.ok {
			if err != nil || got.Cents != tc.cents {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.cents, got.Cents, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestMoneyJSONRoundTrip(t *testing.T) {
	m := Money{Cents: -1205}
	data, err := m.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != "-12.05" {
		t.Fatalf("marshal = %s, want -12.05", data)
	}
	var back Money
	if err := back.UnmarshalJSON(data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back != m {
		t.Fatalf("round trip gave %d cents, want %d", back.Cents, m.Cents)
	}
}
