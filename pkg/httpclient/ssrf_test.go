package httpclient

import "testing"

func TestValidateURLRejectsLoopback(t *testing.T) {
	if err := validateURL("http://127.0.0.1:8080/admin", nil); err == nil {
		t.Fatal("expected loopback target to be rejected")
	}
}

func TestValidateURLRejectsNonHTTPScheme(t *testing.T) {
	if err := validateURL("file:///etc/passwd", nil); err == nil {
		t.Fatal("expected non-http scheme to be rejected")
	}
}

func TestValidateURLAllowsAllowlistedHost(t *testing.T) {
	if err := validateURL("http://internal.example.com/feed", []string{"internal.example.com"}); err != nil {
		t.Fatalf("expected allowlisted host to pass without DNS lookup, got %v", err)
	}
}

func TestHostOfStripsPath(t *testing.T) {
	if got := hostOf("https://example.com/path?q=1"); got != "example.com" {
		t.Fatalf("expected example.com, got %q", got)
	}
}
