// Package link implements the byte-stream/datagram transport surface
// (spec §4.2): TCP and UDP links with a shared capability triple and
// no knowledge of message semantics — framing and message decoding
// live one layer up, in core/transport.
package link

import (
	"encoding/binary"
	"io"
	"net"
	"time"

	"zenoh-go/core/zerr"
)

// Link is a byte-stream or datagram endpoint. Streamed links frame
// messages with a 16-bit little-endian length prefix; datagram links
// rely on the underlying datagram boundary instead.
type Link interface {
	// Write sends one logical message, framing it if the link is
	// streamed.
	Write(msg []byte) error
	// Read receives one logical message, blocking until one arrives,
	// the link closes, or the deadline (if any) elapses.
	Read() ([]byte, error)
	// Close releases the underlying socket.
	Close() error
	// Remote identifies the peer this link talks to, for logging.
	Remote() string
	// MTU is the maximum message size this link can carry unfragmented.
	MTU() int
	// Reliable reports whether the underlying transport guarantees
	// delivery (TCP) or not (UDP).
	Reliable() bool
	// Streamed reports whether Write/Read must length-prefix frames.
	Streamed() bool
	// Multicast reports whether this link fans out to a group.
	Multicast() bool
}

// DefaultMTU bounds a single link message absent fragmentation.
const DefaultMTU = 65535

// deadlineSetter is the optional SetReadDeadline capability that
// setReadDeadline uses to bound a link's next blocking read.
type deadlineSetter interface {
	SetReadDeadline(t time.Time) error
}

func setReadDeadline(c net.Conn, d time.Duration) {
	if d <= 0 {
		return
	}
	if ds, ok := c.(deadlineSetter); ok {
		_ = ds.SetReadDeadline(time.Now().Add(d))
	}
}

func writeFramed(w io.Writer, msg []byte) error {
	if len(msg) > 0xffff {
		return zerr.Newf(zerr.InvalidArgument, "message of %d bytes exceeds streamed link frame limit", len(msg))
	}
	var hdr [2]byte
	binary.LittleEndian.PutUint16(hdr[:], uint16(len(msg)))
	if _, err := w.Write(hdr[:]); err != nil {
		return zerr.Wrap(zerr.IoError, "write frame header", err)
	}
	if _, err := w.Write(msg); err != nil {
		return zerr.Wrap(zerr.IoError, "write frame body", err)
	}
	return nil
}

func readFramed(r io.Reader) ([]byte, error) {
	var hdr [2]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, zerr.Wrap(zerr.IoError, "read frame header", err)
	}
	n := binary.LittleEndian.Uint16(hdr[:])
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, zerr.Wrap(zerr.IoError, "read frame body", err)
	}
	return buf, nil
}
