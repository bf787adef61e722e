package server

import (
	"io"
	"log/slog"
	"net/http"
	"testing"
)

func newIPTestServer(trusted []string) *Server {
	return &Server{
		proxies: newProxyMatcher(trusted, slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		trusted    []string
		want       string
	}{
		{
			name:       "no proxies configured ignores XFF",
			remoteAddr: "203.0.113.5:4312",
			xff:        "10.0.0.1",
			want:       "203.0.113.5",
		},
		{
			name:       "untrusted peer ignores XFF",
			remoteAddr: "198.51.100.7:80",
			xff:        "10.0.0.1",
			trusted:    []string{"10.0.0.0/8"},
			want:       "198.51.100.7",
		},
		{
			name:       "trusted peer uses rightmost untrusted hop",
			remoteAddr: "10.0.0.1:80",
			xff:        "203.0.113.5, 10.0.0.2",
			trusted:    []string{"10.0.0.0/8"},
			want:       "203.0.113.5",
		},
		{
			name:       "all hops trusted falls back to leftmost",
			remoteAddr: "10.0.0.1:80",
			xff:        "10.0.0.5, 10.0.0.2",
			trusted:    []string{"10.0.0.0/8"},
			want:       "10.0.0.5",
		},
		{
			name:       "trusted peer with empty XFF uses peer",
			remoteAddr: "10.0.0.1:80",
			trusted:    []string{"10.0.0.0/8"},
			want:       "10.0.0.1",
		},
		{
			name:       "single trusted IP entry",
			remoteAddr: "192.0.2.1:443",
			xff:        "203.0.113.9",
			trusted:    []string{"192.0.2.1"},
			want:       "203.0.113.9",
		},
		{
			name:       "garbage hops are skipped",
			remoteAddr: "10.0.0.1:80",
			xff:        "not-an-ip, 203.0.113.5",
			trusted:    []string{"10.0.0.0/8"},
			want:       "203.0.113.5",
		},
		{
			name:       "ipv6 remote",
			remoteAddr: "[2001:db8::1]:443",
			want:       "2001:db8::1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newIPTestServer(tt.trusted)
			r := &http.Request{RemoteAddr: tt.remoteAddr, Header: http.Header{}}
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if got := s.clientIP(r); got != tt.want {
				t.Errorf("clientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestProxyMatcherInvalidEntries(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	if m := newProxyMatcher(nil, logger); m != nil {
		t.Error("empty list should produce nil matcher")
	}
	if m := newProxyMatcher([]string{"bogus", "300.1.1.1/8"}, logger); m != nil {
		t.Error("all-invalid list should produce nil matcher")
	}

	m := newProxyMatcher([]string{"bogus", "10.0.0.0/8"}, logger)
	if m == nil {
		t.Fatal("valid CIDR among invalid entries should produce a matcher")
	}
	if m.isTrusted(parseHostIP("203.0.113.1")) {
		t.Error("203.0.113.1 should not be trusted")
	}
	if !m.isTrusted(parseHostIP("10.1.2.3")) {
		t.Error("10.1.2.3 should be trusted")
	}
}

func TestParseHostIP(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"192.0.2.1:80", "192.0.2.1"},
		{"192.0.2.1", "192.0.2.1"},
		{"[::1]:8080", "::1"},
		{"fe80::1%eth0", "fe80::1"},
		{"  192.0.2.1  ", "192.0.2.1"},
		{"", ""},
		{"nonsense", ""},
	}
	for _, tt := range tests {
		ip := parseHostIP(tt.in)
		got := ""
		if ip != nil {
			got = ip.String()
		}
		if got != tt.want {
			t.Errorf("parseHostIP(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
