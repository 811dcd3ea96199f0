// Package wire implements the deterministic, length-prefixed binary
// message grammar of spec §4.1: varints, the message catalogue, TLV
// extensions and fragmentation.
package wire

import "zenoh-go/core/zerr"

// Encode serializes msg (with optional trailing extensions) into a
// freshly allocated byte slice. Identical logical inputs always produce
// byte-identical output, per spec §4.1's determinism requirement.
func Encode(msg Message, exts []Extension) []byte {
	w := NewWBuf(64)
	flags := msg.msgFlags()
	if len(exts) > 0 {
		flags |= flagZ
	}
	_ = w.WriteByte(makeHeader(msg.msgID(), flags))
	msg.encodeBody(w)
	encodeExtensions(w, exts)
	out := make([]byte, w.Len())
	copy(out, w.Bytes())
	return out
}

// Decode reads one message from the front of data and returns it along
// with the number of bytes consumed. A random byte sequence either
// decodes successfully or fails with a ProtocolError (spec's
// MalformedMessage), never panics. Decoding accepts non-minimal
// varints, ignores header flag bits a message does not use and drops
// unknown optional extensions, so re-encoding a decoded message does
// not always reproduce a prefix of the input.
func Decode(data []byte) (Message, []Extension, int, error) {
	r := NewRBuf(data)
	h, err := r.ReadByte()
	if err != nil {
		return nil, nil, 0, zerr.Wrap(zerr.ProtocolError, "truncated header", err)
	}
	id, flags := splitHeader(h)
	hasExts := flags&flagZ != 0

	var msg Message
	switch id {
	case IDScout:
		msg, err = decodeScout(r)
	case IDHello:
		msg, err = decodeHello(r)
	case IDInitSyn:
		msg, err = decodeInitSyn(r)
	case IDInitAck:
		msg, err = decodeInitAck(r)
	case IDOpenSyn:
		msg, err = decodeOpenSyn(r)
	case IDOpenAck:
		msg, err = decodeOpenAck(r)
	case IDClose:
		msg, err = decodeClose(r, flags)
	case IDKeepAlive:
		msg, err = decodeKeepAlive(r)
	case IDFrame:
		msg, err = decodeFrame(r, flags)
	case IDFragment:
		msg, err = decodeFragment(r, flags)
	case IDJoin:
		msg, err = decodeJoin(r)
	case IDPush:
		msg, err = decodePush(r, flags)
	case IDRequest:
		msg, err = decodeRequest(r)
	case IDResponse:
		msg, err = decodeResponse(r)
	case IDResponseFinal:
		msg, err = decodeResponseFinal(r)
	case IDDeclare:
		msg, err = decodeDeclare(r)
	case IDOAM:
		msg, err = decodeOAM(r)
	default:
		return nil, nil, 0, zerr.Newf(zerr.ProtocolError, "unknown message id %d", id)
	}
	if err != nil {
		return nil, nil, 0, zerr.Wrap(zerr.ProtocolError, "decode message body", err)
	}

	exts, err := decodeExtensions(r, hasExts)
	if err != nil {
		return nil, nil, 0, err
	}
	return msg, exts, r.Pos(), nil
}
