package http

import (
	"net"
	stdhttp "net/http"
	"net/netip"
	"strings"

	"github.com/rotisserie/eris"
)

// parseTrustedProxies accepts CIDR ranges and bare addresses.
func parseTrustedProxies(entries []string) ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if strings.Contains(entry, "/") {
			prefix, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, eris.Wrapf(err, "invalid trusted proxy range %q", entry)
			}
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, eris.Wrapf(err, "invalid trusted proxy address %q", entry)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

func isTrustedProxy(addr netip.Addr, trusted []netip.Prefix) bool {
	if !addr.IsValid() {
		return false
	}
	addr = addr.Unmap()
	for _, prefix := range trusted {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// clientIPFromRequest keys a request by its peer address. Forwarding headers
// count only when the peer is a trusted proxy; X-Forwarded-For is read right
// to left and the first hop outside the trusted ranges wins.
func clientIPFromRequest(req *stdhttp.Request, trusted []netip.Prefix) string {
	if req == nil {
		return ""
	}

	peer := remoteHost(req.RemoteAddr)
	peerAddr, err := netip.ParseAddr(peer)
	if err != nil || !isTrustedProxy(peerAddr, trusted) {
		return peer
	}

	if forwarded := strings.TrimSpace(req.Header.Get("X-Forwarded-For")); forwarded != "" {
		hops := strings.Split(forwarded, ",")
		client := ""
		for i := len(hops) - 1; i >= 0; i-- {
			hop, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
			if err != nil {
				break
			}
			client = hop.Unmap().String()
			if !isTrustedProxy(hop, trusted) {
				break
			}
		}
		if client != "" {
			return client
		}
	}

	if realIP, err := netip.ParseAddr(strings.TrimSpace(req.Header.Get("X-Real-IP"))); err == nil {
		return realIP.Unmap().String()
	}

	return peer
}

func remoteHost(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return strings.TrimSpace(remoteAddr)
	}
	return host
}
