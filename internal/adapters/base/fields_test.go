package base

import "testing"

func TestStripLeadingZeros(t *testing.T) {
	cases := map[string]string{
		"007":   "7",
		"0":     "0",
		"000":   "0",
		"":      "",
		"  042": "42",
		"42":    "42",
	}
	for in, want := range cases {
		if got := StripLeadingZeros(in); got != want {
			t.Errorf("StripLeadingZeros(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParsePositivePrice(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantOK  bool
	}{
		{"6.90", 6.90, true},
		{"0", 0, false},
		{"-1.50", 0, false},
		{"", 0, false},
		{"not-a-number", 0, false},
		{"  12.34  ", 12.34, true},
	}
	for _, tt := range tests {
		got, ok := ParsePositivePrice(tt.in)
		if ok != tt.wantOK {
			t.Errorf("ParsePositivePrice(%q) ok = %v, want %v", tt.in, ok, tt.wantOK)
			continue
		}
		if ok && got != tt.want {
			t.Errorf("ParsePositivePrice(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
