package region

import "testing"

func TestSanitize(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantOK  bool
	}{
		{"IL", "IL", true},
		{"US", "US", true},
		{"il", "", false},
		{"ISR", "", false},
		{"", "", false},
		{"I1", "", false},
	}
	for _, tc := range cases {
		got, ok := Sanitize(tc.in)
		if ok != tc.wantOK || got != tc.want {
			t.Fatalf("Sanitize(%q) = (%q, %v), want (%q, %v)", tc.in, got, ok, tc.want, tc.wantOK)
		}
	}
}
