package link

import (
	"net"
	"time"

	"zenoh-go/core/zerr"
)

// UDPLink is an unreliable, datagram link, used either point-to-point
// (client scouting) or bound to a multicast group (peer mode).
type UDPLink struct {
	conn      *net.UDPConn
	mtu       int
	multicast bool
	readDL    time.Duration
}

var _ Link = (*UDPLink)(nil)

// DialUDP opens a point-to-point UDP link to addr.
func DialUDP(addr string) (*UDPLink, error) {
	raddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, zerr.Wrapf(zerr.InvalidArgument, err, "resolve udp addr %s", addr)
	}
	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return nil, zerr.Wrapf(zerr.IoError, err, "dial udp %s", addr)
	}
	return &UDPLink{conn: conn, mtu: DefaultMTU}, nil
}

// JoinMulticast opens a UDP socket bound to a multicast group,
// optionally restricted to a named network interface (the
// "#iface=" locator suffix).
func JoinMulticast(ep Endpoint) (*UDPLink, error) {
	gaddr, err := net.ResolveUDPAddr("udp", ep.Address)
	if err != nil {
		return nil, zerr.Wrapf(zerr.InvalidArgument, err, "resolve multicast addr %s", ep.Address)
	}
	var iface *net.Interface
	if ep.Interface != "" {
		iface, err = net.InterfaceByName(ep.Interface)
		if err != nil {
			return nil, zerr.Wrapf(zerr.InvalidArgument, err, "interface %s", ep.Interface)
		}
	}
	conn, err := net.ListenMulticastUDP("udp", iface, gaddr)
	if err != nil {
		return nil, zerr.Wrapf(zerr.IoError, err, "join multicast %s", ep.Address)
	}
	return &UDPLink{conn: conn, mtu: DefaultMTU, multicast: true}, nil
}

func (l *UDPLink) Write(msg []byte) error {
	if len(msg) > l.mtu {
		return zerr.Newf(zerr.InvalidArgument, "datagram of %d bytes exceeds mtu %d", len(msg), l.mtu)
	}
	if _, err := l.conn.Write(msg); err != nil {
		return zerr.Wrap(zerr.IoError, "write datagram", err)
	}
	return nil
}

// WriteTo sends a datagram to one specific address instead of the
// link's connected destination.
func (l *UDPLink) WriteTo(msg []byte, addr *net.UDPAddr) error {
	if _, err := l.conn.WriteToUDP(msg, addr); err != nil {
		return zerr.Wrap(zerr.IoError, "write datagram to peer", err)
	}
	return nil
}

func (l *UDPLink) Read() ([]byte, error) {
	setReadDeadline(l.conn, l.readDL)
	buf := make([]byte, l.mtu)
	n, err := l.conn.Read(buf)
	if err != nil {
		return nil, zerr.Wrap(zerr.IoError, "read datagram", err)
	}
	return buf[:n], nil
}

// ReadFrom receives a datagram and the address it came from, needed
// by the multicast transport to attribute a Join to a peer.
func (l *UDPLink) ReadFrom() ([]byte, *net.UDPAddr, error) {
	setReadDeadline(l.conn, l.readDL)
	buf := make([]byte, l.mtu)
	n, from, err := l.conn.ReadFromUDP(buf)
	if err != nil {
		return nil, nil, zerr.Wrap(zerr.IoError, "read datagram", err)
	}
	return buf[:n], from, nil
}

// SetReadTimeout bounds each subsequent Read/ReadFrom call to d from
// its start (Scout uses it to end its collection window); with a zero
// or negative d, no new deadline is set.
func (l *UDPLink) SetReadTimeout(d time.Duration) {
	l.readDL = d
}

func (l *UDPLink) Close() error {
	return l.conn.Close()
}

func (l *UDPLink) Remote() string {
	return l.conn.RemoteAddr().String()
}

func (l *UDPLink) MTU() int { return l.mtu }

func (l *UDPLink) Reliable() bool  { return false }
func (l *UDPLink) Streamed() bool  { return false }
func (l *UDPLink) Multicast() bool { return l.multicast }
