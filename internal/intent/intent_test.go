package intent

import "testing"

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want Label
	}{
		{"pricing", Pricing},
		{"  Reservation\n", Reservation},
		{"요금_문의", Pricing},
		{"분류: 예약_문의", Reservation},
		{"intent: thanks", Thanks},
		{"분류：요금_문의", Pricing},
		{"intent：pricing", Pricing},
		{"분류：", Other},
		{"\"greeting\"", Greeting},
		{"something else", Other},
		{"", Other},
		{"감사", Thanks},
	}
	for _, c := range cases {
		if got := Parse(c.in); got != c.want {
			t.Fatalf("Parse(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestValid(t *testing.T) {
	for _, l := range All {
		if !l.Valid() {
			t.Fatalf("%q should be valid", l)
		}
	}
	if Label("refund").Valid() {
		t.Fatalf("unexpected valid label")
	}
}
