package diag

import "testing"

func TestLevenshteinDistance(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"counter", "counter", 0},
		{"Counter", "counter", 0},
		{"conter", "counter", 1},
		{"", "abc", 3},
		{"abc", "", 3},
		{"", "", 0},
		{"ab", "ba", 2},
	}
	for _, c := range cases {
		if got := levenshteinDistance(c.a, c.b); got != c.want {
			t.Errorf("levenshteinDistance(%q, %q) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestFindClosestMatch(t *testing.T) {
	candidates := []string{"counter", "timer", "flag"}
	got, ok := FindClosestMatch("conter", candidates)
	if !ok || got != "counter" {
		t.Fatalf("FindClosestMatch = %q, %v, want counter, true", got, ok)
	}
}

func TestFindClosestMatchNoneWithinThreshold(t *testing.T) {
	_, ok := FindClosestMatch("counter", []string{"completely", "different", "names"})
	if ok {
		t.Fatalf("expected no match")
	}
}

func TestFindClosestMatchSkipsExactMatch(t *testing.T) {
	_, ok := FindClosestMatch("counter", []string{"counter"})
	if ok {
		t.Fatalf("expected exact match (distance 0) to be skipped")
	}
	_, ok = FindClosestMatch("counter", []string{"Counter"})
	if ok {
		t.Fatalf("expected case-insensitive exact match to be skipped")
	}
}

func TestFindClosestMatchPicksClosest(t *testing.T) {
	got, ok := FindClosestMatch("countr", []string{"countr", "conter", "counter"})
	if !ok || got != "counter" {
		t.Fatalf("FindClosestMatch = %q, %v, want counter, true", got, ok)
	}
}

func TestFindClosestMatchShortNameThreshold(t *testing.T) {
	got, ok := FindClosestMatch("ab", []string{"ac"})
	if !ok || got != "ac" {
		t.Fatalf("FindClosestMatch = %q, %v, want ac, true", got, ok)
	}
	_, ok = FindClosestMatch("ab", []string{"xy"})
	if ok {
		t.Fatalf("expected distance 2 to exceed threshold 1 for short name")
	}
}

func TestFindClosestMatchEmptyCandidates(t *testing.T) {
	_, ok := FindClosestMatch("counter", nil)
	if ok {
		t.Fatalf("expected no match for empty candidates")
	}
}
