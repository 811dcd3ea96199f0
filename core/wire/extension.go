package wire

import "zenoh-go/core/zerr"

// extMore and extMandatory are the two flag bits of an extension
// header; the remaining 5 bits name the extension.
const (
	extMore      = 1 << 7
	extMandatory = 1 << 6
	extIDMask    = 0x1f
)

// Extension is one link of a TLV extension chain following a message
// body, per spec §4.1. Decoders must skip unknown extensions whose
// Mandatory flag is clear and fail MalformedMessage (ProtocolError)
// otherwise.
type Extension struct {
	ID        byte
	Mandatory bool
	Body      []byte
}

func encodeExtensions(w *WBuf, exts []Extension) {
	for i, e := range exts {
		h := e.ID & extIDMask
		if e.Mandatory {
			h |= extMandatory
		}
		if i < len(exts)-1 {
			h |= extMore
		}
		_ = w.WriteByte(h)
		PutUvarint(w, uint64(len(e.Body)))
		_, _ = w.Write(e.Body)
	}
}

// decodeExtensions reads extensions until one with the "more" flag
// clear is found (or none at all, if hasExtensions is false).
func decodeExtensions(r *RBuf, hasExtensions bool) ([]Extension, error) {
	if !hasExtensions {
		return nil, nil
	}
	var exts []Extension
	for {
		h, err := r.ReadByte()
		if err != nil {
			return nil, zerr.Wrap(zerr.ProtocolError, "truncated extension header", err)
		}
		n, err := GetUvarint(r)
		if err != nil {
			return nil, zerr.Wrap(zerr.ProtocolError, "truncated extension length", err)
		}
		body, err := r.ReadN(int(n))
		if err != nil {
			return nil, zerr.Wrap(zerr.ProtocolError, "truncated extension body", err)
		}
		mandatory := h&extMandatory != 0
		id := h & extIDMask
		if !knownExtension(id) {
			if mandatory {
				return nil, zerr.Newf(zerr.ProtocolError, "unknown mandatory extension %d", id)
			}
			// Unknown, non-mandatory: skip (already consumed above).
		} else {
			exts = append(exts, Extension{ID: id, Mandatory: mandatory, Body: body})
		}
		if h&extMore == 0 {
			break
		}
	}
	return exts, nil
}

// knownExtension reports whether id is recognized by this decoder. This
// implementation recognizes none by default (the spec's core carries no
// mandatory extensions of its own); it exists as a single extension
// point for future additions without touching the TLV walk itself.
func knownExtension(id byte) bool {
	_ = id
	return false
}
