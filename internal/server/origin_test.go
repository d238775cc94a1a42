package server

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOriginCheckerAllowsConfiguredOrigins(t *testing.T) {
	checker := newOriginChecker([]string{"http://localhost:8080", "HTTPS://Example.COM"}, testLogger())

	tests := []struct {
		name   string
		origin string
		want   bool
	}{
		{name: "exact match", origin: "http://localhost:8080", want: true},
		{name: "case-insensitive match", origin: "https://example.com", want: true},
		{name: "different port", origin: "http://localhost:9090", want: false},
		{name: "unknown host", origin: "http://evil.example", want: false},
		{name: "missing origin header", origin: "", want: false},
		{name: "malformed origin", origin: "not a url", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/ws", nil)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			require.Equal(t, tt.want, checker.check(r))
		})
	}
}

func TestOriginCheckerWildcardAllowsEverything(t *testing.T) {
	checker := newOriginChecker([]string{"*"}, testLogger())

	r := httptest.NewRequest("GET", "/ws", nil)
	r.Header.Set("Origin", "http://anything.example")
	require.True(t, checker.check(r))

	// Even with the wildcard, a missing Origin header is rejected.
	r = httptest.NewRequest("GET", "/ws", nil)
	require.False(t, checker.check(r))
}

func TestOriginCheckerSkipsInvalidConfiguredEntries(t *testing.T) {
	checker := newOriginChecker([]string{"", "   ", "not a url", "http://ok.example"}, testLogger())

	require.Len(t, checker.allowed, 1)
	r := httptest.NewRequest("GET", "/ws", nil)
	r.Header.Set("Origin", "http://ok.example")
	require.True(t, checker.check(r))
}
