package navtrack

import "testing"

func TestParseDecimal(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"32.763", "32.763"},
		{"32,763", "32.763"},
		{"87,06 €", "87.06"},
		{"EUR 32.76", "32.76"},
		{"1 234,56", "1234.56"},
		{"-1,5", "-1.5"},
		{"  42  ", "42"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseDecimal(tc.in)
			if err != nil {
				t.Fatalf("ParseDecimal(%q): %v", tc.in, err)
			}
			if !got.Equal(dec(tc.want)) {
				t.Errorf("ParseDecimal(%q) = %s, want %s", tc.in, got, tc.want)
			}
		})
	}
}

func TestParseDecimalErrors(t *testing.T) {
	for _, in := range []string{"", "n/a", "€"} {
		t.Run(in, func(t *testing.T) {
			if _, err := ParseDecimal(in); err == nil {
				t.Errorf("ParseDecimal(%q) = nil error, want error", in)
			}
		})
	}
}
