package util

import "testing"

func TestParseIntDefault(t *testing.T) {
	cases := map[string]int{"": 7, "12": 12, "x": 7, "-3": -3}
	for in, want := range cases {
		if got := ParseIntDefault(in, 7); got != want {
			t.Fatalf("ParseIntDefault(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestClampInt(t *testing.T) {
	if got := ClampInt(500, 1, 100); got != 100 {
		t.Fatalf("got %d", got)
	}
	if got := ClampInt(0, 1, 100); got != 1 {
		t.Fatalf("got %d", got)
	}
}

func TestParsePrice(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"$24.99", 24.99, true},
		{"$1,299.00", 1299, true},
		{"USD 7", 7, true},
		{"free", 0, false},
		{"1.2.3", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParsePrice(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("ParsePrice(%q) = %v, %v; want %v, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestSlugKey(t *testing.T) {
	if got := SlugKey(" Soy Candle ", "Home"); got != "soy candle-home" {
		t.Fatalf("got %q", got)
	}
}
