package http

import (
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// IPExtractor resolves the client address used as the rate limit key.
type IPExtractor interface {
	ExtractIP(r *http.Request) string
}

// RemoteAddrExtractor keys on the TCP peer. Forwarding headers are ignored,
// so a client cannot change its key by rotating them.
type RemoteAddrExtractor struct{}

// ExtractIP returns the host part of r.RemoteAddr.
func (RemoteAddrExtractor) ExtractIP(r *http.Request) string {
	return hostOf(r.RemoteAddr)
}

// TrustedProxyExtractor reads X-Forwarded-For, then X-Real-IP, but only
// when the peer is one of the trusted proxies. Any other peer is keyed by
// its RemoteAddr.
type TrustedProxyExtractor struct {
	proxies []netip.Prefix
	logger  *slog.Logger
}

// NewTrustedProxyExtractor trusts forwarding headers from peers inside
// proxies. With no proxies it behaves like RemoteAddrExtractor.
func NewTrustedProxyExtractor(proxies []netip.Prefix, logger *slog.Logger) *TrustedProxyExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &TrustedProxyExtractor{proxies: proxies, logger: logger}
}

// ExtractIP returns the forwarded client address for trusted peers and the
// peer address otherwise.
func (e *TrustedProxyExtractor) ExtractIP(r *http.Request) string {
	peer := hostOf(r.RemoteAddr)
	if !e.trusted(peer) {
		if r.Header.Get("X-Forwarded-For") != "" || r.Header.Get("X-Real-IP") != "" {
			e.logger.Debug("ignoring forwarding headers from untrusted peer",
				slog.String("remote_addr", peer))
		}
		return peer
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
			return ip.String()
		}
	}
	if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
		return ip.String()
	}
	return peer
}

func (e *TrustedProxyExtractor) trusted(peer string) bool {
	addr, err := netip.ParseAddr(peer)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range e.proxies {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

func hostOf(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
