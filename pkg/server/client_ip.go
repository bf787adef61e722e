package server

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
)

// clientIP derives the client address for per-IP session limiting.
// X-Forwarded-For is honored only when the direct peer is a trusted proxy;
// the rightmost untrusted hop wins.
func (s *Server) clientIP(r *http.Request) string {
	remote := remoteIP(r)
	if remote == nil {
		return ""
	}
	if !s.proxies.isTrusted(remote) {
		return remote.String()
	}

	var hops []net.IP
	for _, part := range strings.Split(r.Header.Get("X-Forwarded-For"), ",") {
		if ip := parseHostIP(part); ip != nil {
			hops = append(hops, ip)
		}
	}
	if len(hops) == 0 {
		return remote.String()
	}

	for i := len(hops) - 1; i >= 0; i-- {
		if !s.proxies.isTrusted(hops[i]) {
			return hops[i].String()
		}
	}
	return hops[0].String()
}

func remoteIP(r *http.Request) net.IP {
	return parseHostIP(r.RemoteAddr)
}

func parseHostIP(value string) net.IP {
	host := strings.TrimSpace(value)
	if host == "" {
		return nil
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.Trim(host, "[]")
	if zone := strings.Index(host, "%"); zone != -1 {
		host = host[:zone]
	}
	return net.ParseIP(host)
}

// proxyMatcher matches addresses against the trusted proxy list.
// A nil matcher trusts nothing.
type proxyMatcher struct {
	ips  map[string]struct{}
	nets []*net.IPNet
}

func newProxyMatcher(entries []string, logger *slog.Logger) *proxyMatcher {
	if len(entries) == 0 {
		return nil
	}

	ips := make(map[string]struct{})
	var nets []*net.IPNet

	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if strings.Contains(entry, "/") {
			_, network, err := net.ParseCIDR(entry)
			if err != nil {
				logger.Warn("invalid trusted proxy CIDR", "entry", entry, "error", err)
				continue
			}
			nets = append(nets, network)
			continue
		}
		ip := net.ParseIP(entry)
		if ip == nil {
			logger.Warn("invalid trusted proxy IP", "entry", entry)
			continue
		}
		ips[ip.String()] = struct{}{}
	}

	if len(ips) == 0 && len(nets) == 0 {
		return nil
	}
	return &proxyMatcher{ips: ips, nets: nets}
}

func (m *proxyMatcher) isTrusted(ip net.IP) bool {
	if m == nil || ip == nil {
		return false
	}
	if _, ok := m.ips[ip.String()]; ok {
		return true
	}
	for _, network := range m.nets {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}
