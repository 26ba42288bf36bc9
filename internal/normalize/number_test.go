package normalize

import "testing"

func TestNumberSeparators(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"1.234,56", 1234.56},
		{"1,234.56", 1234.56},
		{"1,234", 1234},
		{"12,5", 12.5},
		{"1,234,567", 1234567},
		{"1.234.567,8", 1234567.8},
		{"42", 42},
		{" 7.5 ", 7.5},
		{"1 234,5", 1234.5},
		{"1 000", 1000},
		{"€ 3,50", 3.5},
		{"0", 0},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, ok := Number(tc.in)
			if !ok {
				t.Fatalf("Number(%q) not ok", tc.in)
			}
			if got != tc.want {
				t.Fatalf("Number(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestNumberNegativeClampsToZero(t *testing.T) {
	for _, in := range []string{"-3", "(12.5)", "( 1.234,00 )", "5-"} {
		got, ok := Number(in)
		if !ok {
			t.Fatalf("Number(%q) not ok", in)
		}
		if got != 0 {
			t.Fatalf("Number(%q) = %v, want 0", in, got)
		}
	}
}

func TestNumberUnparsable(t *testing.T) {
	for _, in := range []string{"", "   ", "abc", ".", ",", "--", "n/a"} {
		if got, ok := Number(in); ok {
			t.Fatalf("Number(%q) = %v, want not ok", in, got)
		}
	}
}

func TestNumberNeverNegative(t *testing.T) {
	inputs := []string{"-0,5", "(0)", "-1.234,56", "1,2,3", "-.5", "12-34", "(((", "3.", "-1e5"}
	for _, in := range inputs {
		if got, ok := Number(in); ok && got < 0 {
			t.Fatalf("Number(%q) = %v, negative", in, got)
		}
	}
}

func TestNumberValue(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want float64
		ok   bool
	}{
		{"nil", nil, 0, false},
		{"int", 12, 12, true},
		{"int64", int64(7), 7, true},
		{"float", 2.5, 2.5, true},
		{"negative float", -4.0, 0, true},
		{"string", "1.234,5", 1234.5, true},
		{"bytes", []byte("9"), 9, true},
		{"bad string", "x", 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := NumberValue(tc.in)
			if ok != tc.ok || got != tc.want {
				t.Fatalf("NumberValue(%v) = (%v, %v), want (%v, %v)", tc.in, got, ok, tc.want, tc.ok)
			}
		})
	}
}
