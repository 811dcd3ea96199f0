package wire

import "zenoh-go/core/zerr"

// maxVarintBytes is the most bytes a 64-bit LEB128 varint can occupy,
// per spec §4.1.
const maxVarintBytes = 10

// PutUvarint LEB128-encodes v into w: seven payload bits per byte, MSB
// set while more bytes follow.
func PutUvarint(w *WBuf, v uint64) {
	for v >= 0x80 {
		_ = w.WriteByte(byte(v) | 0x80)
		v >>= 7
	}
	_ = w.WriteByte(byte(v))
}

// GetUvarint decodes a LEB128 varint from r. It fails with
// ProtocolError (spec's MalformedMessage) on truncation or an
// encoding that would overflow 64 bits / exceed maxVarintBytes.
func GetUvarint(r *RBuf) (uint64, error) {
	var result uint64
	for i := 0; i < maxVarintBytes; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, zerr.Wrap(zerr.ProtocolError, "truncated varint", err)
		}
		payload := uint64(b & 0x7f)
		shift := uint(i) * 7
		if shift >= 64 || (shift == 63 && payload > 1) {
			return 0, zerr.New(zerr.ProtocolError, "varint overflow")
		}
		result |= payload << shift
		if b&0x80 == 0 {
			return result, nil
		}
	}
	return 0, zerr.New(zerr.ProtocolError, "varint exceeds 10 bytes")
}

// UvarintLen returns the number of bytes PutUvarint would emit for v,
// used by the codec to pre-size buffers and compute fragment budgets.
func UvarintLen(v uint64) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}
