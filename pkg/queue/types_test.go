package queue

import "testing"

func TestDeterministicIDIsStableAndDedupes(t *testing.T) {
	a := DeterministicID("t1", "w1", SourceRSS, "ext-1")
	b := DeterministicID("t1", "w1", SourceRSS, "ext-1")
	if a != b {
		t.Fatalf("expected deterministic id to be stable across calls, got %q vs %q", a, b)
	}
}

func TestDeterministicIDDistinguishesInputs(t *testing.T) {
	base := DeterministicID("t1", "w1", SourceRSS, "ext-1")
	variants := []string{
		DeterministicID("t2", "w1", SourceRSS, "ext-1"),
		DeterministicID("t1", "w2", SourceRSS, "ext-1"),
		DeterministicID("t1", "w1", SourceYouTube, "ext-1"),
		DeterministicID("t1", "w1", SourceRSS, "ext-2"),
	}
	for _, v := range variants {
		if v == base {
			t.Fatalf("expected distinct inputs to produce distinct ids, got collision %q", v)
		}
	}
}
