package clientip

import (
	"net/http/httptest"
	"testing"
)

func TestFromRequest(t *testing.T) {
	cases := []struct {
		name       string
		remote     string
		forwarded  string
		realIP     string
		trustProxy bool
		want       string
	}{
		{name: "peer only", remote: "10.0.0.1:5555", want: "10.0.0.1"},
		{name: "forwarded ignored without trust", remote: "10.0.0.1:5555", forwarded: "1.2.3.4", want: "10.0.0.1"},
		{name: "forwarded first entry", remote: "10.0.0.1:5555", forwarded: "1.2.3.4, 10.0.0.2", trustProxy: true, want: "1.2.3.4"},
		{name: "garbage forwarded falls back to real ip", remote: "10.0.0.1:5555", forwarded: "nope", realIP: "5.6.7.8", trustProxy: true, want: "5.6.7.8"},
		{name: "no port", remote: "192.168.1.9", want: "192.168.1.9"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tc.remote
			if tc.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tc.forwarded)
			}
			if tc.realIP != "" {
				req.Header.Set("X-Real-IP", tc.realIP)
			}
			if got := FromRequest(req, tc.trustProxy); got != tc.want {
				t.Fatalf("FromRequest() = %q, want %q", got, tc.want)
			}
		})
	}
}
