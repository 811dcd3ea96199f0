package link

import (
	"github.com/mikioh/tcp"
	"github.com/mikioh/tcpinfo"

	"zenoh-go/core/zerr"
)

// TCPLinkStats is an optional, best-effort sample of kernel-level TCP
// statistics for a link. The session metrics do not read it.
type TCPLinkStats struct {
	RTT           int64 // nanoseconds
	RTTVar        int64 // nanoseconds
	SndCwnd       uint32
	BytesSent     uint64
	BytesReceived uint64
	SegsRetrans   uint32
}

// Stats samples the link's underlying TCP_INFO socket option. It
// returns NotAvailable if the connection has no OS-level TCP_INFO
// support (e.g. the platform does not expose it).
func (l *TCPLink) Stats() (TCPLinkStats, error) {
	tc, err := tcp.NewConn(l.conn)
	if err != nil {
		return TCPLinkStats{}, zerr.Wrap(zerr.NotAvailable, "wrap tcp conn for stats", err)
	}
	var o tcpinfo.Info
	var b [256]byte
	raw, err := tc.Option(o.Level(), o.Name(), b[:])
	if err != nil {
		return TCPLinkStats{}, zerr.Wrap(zerr.NotAvailable, "read TCP_INFO", err)
	}
	info, ok := raw.(*tcpinfo.Info)
	if !ok {
		return TCPLinkStats{}, zerr.New(zerr.NotAvailable, "unexpected TCP_INFO result type")
	}
	return TCPLinkStats{
		RTT:           int64(info.RTT),
		RTTVar:        int64(info.RTTVar),
		SndCwnd:       uint32(info.SndCWnd),
		BytesSent:     info.BytesSent,
		BytesReceived: info.BytesReceived,
		SegsRetrans:   uint32(info.SegsRetrans),
	}, nil
}
