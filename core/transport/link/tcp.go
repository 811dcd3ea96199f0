package link

import (
	"context"
	"net"
	"time"

	"zenoh-go/core/zerr"
)

// TCPLink is a reliable, streamed, unicast link.
type TCPLink struct {
	conn    net.Conn
	mtu     int
	readDL  time.Duration
}

var _ Link = (*TCPLink)(nil)

// Dialer opens outbound TCP links, mirroring the timeout/keepalive
// knobs a net.Dialer exposes.
type Dialer struct {
	Timeout   time.Duration
	KeepAlive time.Duration
}

// NewDialer builds a Dialer with the given connect timeout and TCP
// keepalive interval.
func NewDialer(timeout, keepAlive time.Duration) *Dialer {
	return &Dialer{Timeout: timeout, KeepAlive: keepAlive}
}

// Dial opens a TCP link to addr ("host:port").
func (d *Dialer) Dial(ctx context.Context, addr string) (*TCPLink, error) {
	nd := &net.Dialer{Timeout: d.Timeout, KeepAlive: d.KeepAlive}
	conn, err := nd.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, zerr.Wrapf(zerr.IoError, err, "dial tcp %s", addr)
	}
	return NewTCPLink(conn, DefaultMTU), nil
}

// NewTCPLink wraps an already-established net.Conn.
func NewTCPLink(conn net.Conn, mtu int) *TCPLink {
	return &TCPLink{conn: conn, mtu: mtu}
}

// ListenTCP opens a listening socket for accepting unicast clients.
func ListenTCP(addr string) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, zerr.Wrapf(zerr.IoError, err, "listen tcp %s", addr)
	}
	return ln, nil
}

func (l *TCPLink) Write(msg []byte) error {
	return writeFramed(l.conn, msg)
}

func (l *TCPLink) Read() ([]byte, error) {
	setReadDeadline(l.conn, l.readDL)
	return readFramed(l.conn)
}

// SetReadTimeout bounds each subsequent Read call to d from its start;
// with a zero or negative d, Read sets no new deadline.
func (l *TCPLink) SetReadTimeout(d time.Duration) {
	l.readDL = d
}

func (l *TCPLink) Close() error {
	return l.conn.Close()
}

func (l *TCPLink) Remote() string {
	return l.conn.RemoteAddr().String()
}

func (l *TCPLink) MTU() int { return l.mtu }

func (l *TCPLink) Reliable() bool  { return true }
func (l *TCPLink) Streamed() bool  { return true }
func (l *TCPLink) Multicast() bool { return false }

// RawConn exposes the underlying net.Conn for link-stats sampling.
func (l *TCPLink) RawConn() net.Conn { return l.conn }
