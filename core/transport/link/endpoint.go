package link

import (
	"strings"

	"zenoh-go/core/zerr"
)

// Endpoint is a parsed locator string: "tcp/host:port",
// "udp/host:port", or "udp/host:port#iface=name" for a multicast
// group bound to a specific interface.
type Endpoint struct {
	Protocol  string // "tcp" or "udp"
	Address   string // "host:port"
	Interface string // set only for "#iface=" multicast locators
}

// ParseEndpoint parses one connect/listen locator (spec §4.7
// external interface: connect/listen lists of "tcp/host:port",
// "udp/host:port", "udp/host:port#iface=…").
func ParseEndpoint(locator string) (Endpoint, error) {
	proto, rest, ok := strings.Cut(locator, "/")
	if !ok {
		return Endpoint{}, zerr.Newf(zerr.InvalidArgument, "locator %q missing protocol prefix", locator)
	}
	switch proto {
	case "tcp", "udp":
	default:
		return Endpoint{}, zerr.Newf(zerr.InvalidArgument, "unsupported locator protocol %q", proto)
	}

	addr, iface := rest, ""
	if i := strings.Index(rest, "#iface="); i >= 0 {
		addr = rest[:i]
		iface = rest[i+len("#iface="):]
	}
	if addr == "" {
		return Endpoint{}, zerr.Newf(zerr.InvalidArgument, "locator %q missing address", locator)
	}
	if iface != "" && proto != "udp" {
		return Endpoint{}, zerr.Newf(zerr.InvalidArgument, "locator %q: #iface= only valid for udp", locator)
	}
	return Endpoint{Protocol: proto, Address: addr, Interface: iface}, nil
}

// IsMulticast reports whether the endpoint names a multicast group
// address rather than a point-to-point UDP peer.
func (e Endpoint) IsMulticast() bool {
	if e.Protocol != "udp" {
		return false
	}
	host, _, ok := strings.Cut(e.Address, ":")
	if !ok {
		host = e.Address
	}
	return strings.HasPrefix(host, "224.") || strings.HasPrefix(host, "239.") || strings.HasPrefix(host, "ff")
}
