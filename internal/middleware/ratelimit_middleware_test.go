package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitMiddleware_Limited(t *testing.T) {
	handler := NewRateLimitMiddleware(2).Handler(okHandler())

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
		if rec.Code == http.StatusTooManyRequests {
			assert.Equal(t, "60", rec.Header().Get("Retry-After"))
		}
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimitMiddleware_PerClient(t *testing.T) {
	handler := NewRateLimitMiddleware(1).Handler(okHandler())

	for _, ip := range []string{"10.0.0.1:1", "10.0.0.2:1"} {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = ip
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, ip)
	}
}

func TestRateLimitMiddleware_Configuration(t *testing.T) {
	assert.Equal(t, 10, NewRateLimitMiddleware(0).rpm)
	assert.Equal(t, 10, NewRateLimitMiddleware(-3).rpm)
	assert.Equal(t, 5, NewRateLimitMiddleware(5).rpm)
}

func TestRateLimitMiddleware_IgnoresSpoofedForwardingHeaders(t *testing.T) {
	handler := NewRateLimitMiddleware(2).Handler(okHandler())

	throttled := 0
	for i := 0; i < 20; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "203.0.113.9:40000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i))
		req.Header.Set("X-Real-IP", fmt.Sprintf("192.0.2.%d", i))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code == http.StatusTooManyRequests {
			throttled++
		}
	}

	assert.Equal(t, 18, throttled)
}

func TestRateLimitMiddleware_TrustedProxy(t *testing.T) {
	handler := NewRateLimitMiddleware(1, netip.MustParsePrefix("10.0.0.0/8")).Handler(okHandler())

	send := func(forwardedFor string) int {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.1.2.3:8080"
		req.Header.Set("X-Forwarded-For", forwardedFor)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send("198.51.100.1"))
	assert.Equal(t, http.StatusOK, send("198.51.100.2"))
	assert.Equal(t, http.StatusTooManyRequests, send("198.51.100.1"))
}

func TestClientIP(t *testing.T) {
	trusted := []netip.Prefix{
		netip.MustParsePrefix("10.0.0.0/8"),
		netip.MustParsePrefix("192.168.0.1/32"),
	}

	tests := []struct {
		name    string
		trusted []netip.Prefix
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "untrusted peer ignores forwarded for", headers: map[string]string{"X-Forwarded-For": "1.1.1.1"}, remote: "3.3.3.3:80", want: "3.3.3.3"},
		{name: "untrusted peer ignores real ip", headers: map[string]string{"X-Real-IP": "4.4.4.4"}, remote: "3.3.3.3:80", want: "3.3.3.3"},
		{name: "no trusted proxies configured", headers: map[string]string{"X-Forwarded-For": "1.1.1.1"}, remote: "10.0.0.5:80", want: "10.0.0.5"},
		{name: "trusted peer forwarded for", trusted: trusted, headers: map[string]string{"X-Forwarded-For": "1.1.1.1"}, remote: "10.0.0.5:80", want: "1.1.1.1"},
		{name: "spoofed left hop skipped", trusted: trusted, headers: map[string]string{"X-Forwarded-For": "9.9.9.9, 1.1.1.1, 192.168.0.1"}, remote: "10.0.0.5:80", want: "1.1.1.1"},
		{name: "garbage hop falls back to peer", trusted: trusted, headers: map[string]string{"X-Forwarded-For": "not-an-ip"}, remote: "10.0.0.5:80", want: "10.0.0.5"},
		{name: "trusted peer real ip", trusted: trusted, headers: map[string]string{"X-Real-IP": "4.4.4.4"}, remote: "10.0.0.5:80", want: "4.4.4.4"},
		{name: "remote addr", remote: "3.3.3.3:80", want: "3.3.3.3"},
		{name: "remote without port", remote: "3.3.3.3", want: "3.3.3.3"},
		{name: "empty", remote: "", want: "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewRateLimitMiddleware(10, tt.trusted...)
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, m.clientIP(req))
		})
	}
}
