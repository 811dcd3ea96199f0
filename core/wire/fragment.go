package wire

import "zenoh-go/core/zerr"

// FragMaxSize bounds a defrag buffer, mirroring Z_FRAG_MAX_SIZE: a
// fragmented message whose reassembled size would exceed this aborts
// the chain rather than growing without limit.
const FragMaxSize = 64 * 1024 * 1024

// FragmentChain splits an already-encoded network message into a chain
// of Fragment messages, each at most payloadBudget bytes, sharing sn.
// payloadBudget should already account for batch_size minus header, per
// spec §4.1.
func FragmentChain(encoded []byte, sn uint64, reliable bool, payloadBudget int) []Fragment {
	if payloadBudget <= 0 {
		payloadBudget = 1
	}
	var frags []Fragment
	for off := 0; off < len(encoded); off += payloadBudget {
		end := off + payloadBudget
		if end > len(encoded) {
			end = len(encoded)
		}
		frags = append(frags, Fragment{
			Reliable: reliable,
			More:     end < len(encoded),
			SN:       sn,
			Payload:  encoded[off:end],
		})
	}
	if len(frags) == 0 {
		frags = []Fragment{{Reliable: reliable, SN: sn, Payload: nil}}
	}
	return frags
}

// Defragmenter reassembles a chain of Fragment messages sharing one SN
// into the original encoded network message, bounded by FragMaxSize.
// The transports in this module hold no Defragmenter, so Fragment
// messages they receive are not reassembled.
type Defragmenter struct {
	sn      uint64
	started bool
	buf     []byte
}

// Reset discards any in-progress reassembly, used when a reliable SN
// gap or a size overrun makes the chain unrecoverable.
func (d *Defragmenter) Reset() {
	d.started = false
	d.buf = nil
}

// Push feeds one fragment into the reassembly buffer. It returns the
// reassembled message and true once the chain's final fragment (More
// == false) has been consumed; otherwise it returns (nil, false).
func (d *Defragmenter) Push(f Fragment) ([]byte, bool, error) {
	if !d.started {
		d.started = true
		d.sn = f.SN
		d.buf = d.buf[:0]
	} else if f.SN != d.sn {
		d.Reset()
		return nil, false, zerr.New(zerr.ProtocolError, "fragment sn mismatch mid-chain")
	}
	if len(d.buf)+len(f.Payload) > FragMaxSize {
		d.Reset()
		return nil, false, zerr.New(zerr.ProtocolError, "defrag buffer overrun")
	}
	d.buf = append(d.buf, f.Payload...)
	if f.More {
		return nil, false, nil
	}
	out := make([]byte, len(d.buf))
	copy(out, d.buf)
	d.Reset()
	return out, true, nil
}
