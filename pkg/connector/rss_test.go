package connector

import "testing"

func TestParseRSSPubDateHandlesRFC1123Z(t *testing.T) {
	got := parseRSSPubDate("Mon, 02 Jan 2006 15:04:05 -0700")
	if got == nil {
		t.Fatalf("expected a parsed time")
	}
}

func TestParseRSSPubDateReturnsNilForEmpty(t *testing.T) {
	if got := parseRSSPubDate(""); got != nil {
		t.Fatalf("expected nil for empty input, got %v", got)
	}
}

func TestParseRSSPubDateReturnsNilForGarbage(t *testing.T) {
	if got := parseRSSPubDate("not a date"); got != nil {
		t.Fatalf("expected nil for unparseable input, got %v", got)
	}
}
