package wire

import (
	"bytes"

	"zenoh-go/core/zerr"
)

// WBuf is a growable write buffer with a cursor, the collections-layer
// primitive spec §2 calls for beneath the codec. It wraps bytes.Buffer
// because the codec only ever appends; no mid-stream rewrite is needed
// for any message in the catalogue.
type WBuf struct {
	buf bytes.Buffer
}

// NewWBuf returns an empty write buffer with cap bytes pre-reserved.
func NewWBuf(cap int) *WBuf {
	w := &WBuf{}
	w.buf.Grow(cap)
	return w
}

func (w *WBuf) WriteByte(b byte) error {
	return w.buf.WriteByte(b)
}

func (w *WBuf) Write(p []byte) (int, error) {
	return w.buf.Write(p)
}

// Bytes returns the accumulated bytes. The slice aliases the buffer's
// internal storage and must not be retained past further writes.
func (w *WBuf) Bytes() []byte { return w.buf.Bytes() }

// Len returns the number of bytes written so far.
func (w *WBuf) Len() int { return w.buf.Len() }

// RBuf is a read cursor over a byte slice. View aliases the slice;
// ReadN returns a copy.
type RBuf struct {
	data []byte
	pos  int
}

// NewRBuf wraps data for sequential decoding starting at offset 0.
func NewRBuf(data []byte) *RBuf {
	return &RBuf{data: data}
}

// Remaining returns the number of unread bytes.
func (r *RBuf) Remaining() int { return len(r.data) - r.pos }

// Pos returns the current read offset.
func (r *RBuf) Pos() int { return r.pos }

// ReadByte consumes and returns the next byte.
func (r *RBuf) ReadByte() (byte, error) {
	if r.Remaining() < 1 {
		return 0, zerr.New(zerr.ProtocolError, "truncated message: expected 1 byte")
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

// PeekByte returns the next byte without consuming it.
func (r *RBuf) PeekByte() (byte, error) {
	if r.Remaining() < 1 {
		return 0, zerr.New(zerr.ProtocolError, "truncated message: expected 1 byte")
	}
	return r.data[r.pos], nil
}

// ReadN consumes and returns the next n bytes as a fresh copy (safe to
// retain, unlike the aliasing View).
func (r *RBuf) ReadN(n int) ([]byte, error) {
	if n < 0 || r.Remaining() < n {
		return nil, zerr.Newf(zerr.ProtocolError, "truncated message: expected %d bytes, have %d", n, r.Remaining())
	}
	out := make([]byte, n)
	copy(out, r.data[r.pos:r.pos+n])
	r.pos += n
	return out, nil
}

// View returns an aliasing slice view of the next n bytes without
// copying; it is only safe to use before the underlying buffer is
// reused or mutated.
func (r *RBuf) View(n int) ([]byte, error) {
	if n < 0 || r.Remaining() < n {
		return nil, zerr.Newf(zerr.ProtocolError, "truncated message: expected %d bytes, have %d", n, r.Remaining())
	}
	v := r.data[r.pos : r.pos+n]
	r.pos += n
	return v, nil
}
