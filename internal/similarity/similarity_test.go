package similarity

import "testing"

func TestTokenOrderInsensitive(t *testing.T) {
	if got := TokenSortRatio("velvet underground", "underground velvet"); got != 100 {
		t.Errorf("TokenSortRatio = %d, want 100", got)
	}
}

func TestIdenticalStrings(t *testing.T) {
	if got := TokenSortRatio("bowery ballroom", "bowery ballroom"); got != 100 {
		t.Errorf("TokenSortRatio = %d, want 100", got)
	}
	if got := TokenSortRatio("", ""); got != 100 {
		t.Errorf("TokenSortRatio on empty = %d, want 100", got)
	}
}

func TestSymmetry(t *testing.T) {
	pairs := [][2]string{
		{"bowery ballroom", "bowery ballrom"},
		{"strokes", "the strokes"},
		{"japanese breakfast", "breakfast japanese"},
		{"warsaw", "elsewhere"},
		{"", "mercury lounge"},
	}
	for _, p := range pairs {
		ab := TokenSortRatio(p[0], p[1])
		ba := TokenSortRatio(p[1], p[0])
		if ab != ba {
			t.Errorf("TokenSortRatio(%q, %q) = %d but reversed = %d", p[0], p[1], ab, ba)
		}
	}
}

func TestKnownRatios(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		// one edit over ten runes: exactly 90
		{"golden oak", "golden oat", 90},
		// one edit over nine runes: rounds to 89
		{"parachute", "parachufe", 89},
		// single-character typo in a venue name
		{"bowery ballroom", "bowery ballrom", 93},
		// fully disjoint strings of equal length
		{"abcd", "wxyz", 0},
	}
	for _, tt := range tests {
		if got := TokenSortRatio(tt.a, tt.b); got != tt.want {
			t.Errorf("TokenSortRatio(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestUnrelatedNamesScoreLow(t *testing.T) {
	if got := TokenSortRatio("warsaw", "terminal 5"); got >= 50 {
		t.Errorf("TokenSortRatio = %d, want < 50", got)
	}
}

func TestEmptyVersusNonEmpty(t *testing.T) {
	if got := TokenSortRatio("", "warsaw"); got != 0 {
		t.Errorf("TokenSortRatio(\"\", \"warsaw\") = %d, want 0", got)
	}
}
