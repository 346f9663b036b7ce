package board

import "testing"

func TestSANRoundTrip(t *testing.T) {
	tests := []struct {
		fen  string
		move string
		san  string
	}{
		{StartFEN, "g1f3", "Nf3"},
		{StartFEN, "e2e4", "e4"},
		{"r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1", "e1g1", "O-O"},
		{"r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1", "e1c1", "O-O-O"},
		{"4k3/8/8/8/8/8/4K3/R6R w - - 0 1", "a1d1", "Rad1"},
		{"4k3/P7/8/8/8/8/8/4K3 w - - 0 1", "a7a8q", "a8=Q+"},
		{"7k/8/8/8/8/8/8/K7 w - - 0 1", "a1b2", "Kb2"},
		{"6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1", "a1a8", "Ra8#"},
		{"8/8/8/2k5/3Pp3/8/8/4K3 b - d3 0 1", "e4d3", "exd3"},
	}

	for _, tc := range tests {
		t.Run(tc.san, func(t *testing.T) {
			pos := mustParse(t, tc.fen)
			m := mustMove(t, pos, tc.move)
			if got := m.ToSAN(pos); got != tc.san {
				t.Errorf("ToSAN = %q, want %q", got, tc.san)
			}
			parsed, err := ParseSAN(tc.san, pos)
			if err != nil {
				t.Fatalf("ParseSAN(%q): %v", tc.san, err)
			}
			if parsed != m {
				t.Errorf("ParseSAN(%q) = %v, want %v", tc.san, parsed, m)
			}
		})
	}
}
