package clientip

import (
	"net/http/httptest"
	"testing"
)

func TestRealClientIPIgnoresHeaders(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.7:51234"
	r.Header.Set("X-Forwarded-For", "203.0.113.9")
	if got := RealClientIP(r); got != "10.0.0.7" {
		t.Fatalf("got %q", got)
	}
}

func TestForwardedClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.7:51234"
	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	if got := ForwardedClientIP(r); got != "203.0.113.9" {
		t.Fatalf("got %q", got)
	}

	r.Header.Set("X-Forwarded-For", "not-an-ip")
	r.Header.Set("X-Real-IP", "198.51.100.4")
	if got := ForwardedClientIP(r); got != "198.51.100.4" {
		t.Fatalf("got %q", got)
	}

	r.Header.Del("X-Real-IP")
	if got := Resolver(true)(r); got != "10.0.0.7" {
		t.Fatalf("got %q", got)
	}
}
