// Package transport implements the unicast and multicast transport
// state machines (spec §4.3/§4.4): handshake, sequence-numbered
// frames, and the background read/lease tasks. Reliable frames are
// held in a bounded queue that any reception clears; they are never
// resent. Fragment messages are not reassembled here.
package transport

import (
	"sync"

	"zenoh-go/core/zerr"
)

// LeaseExpireFactor is how many keepalive ticks fit in one lease
// period (Z_TRANSPORT_LEASE_EXPIRE_FACTOR): the lease task wakes every
// lease/LeaseExpireFactor ms to send a keepalive if idle.
const LeaseExpireFactor = 3

// conduit tracks the send/receive sequence-number windows for one
// reliability class (reliable or best-effort) on one transport.
type conduit struct {
	mu           sync.Mutex
	txNext       uint64
	rxNext       uint64
	snResolution uint64
}

func newConduit(snResolution uint64) *conduit {
	return &conduit{snResolution: snResolution}
}

// nextTx returns the SN to stamp on the next outbound frame and
// advances the send counter.
func (c *conduit) nextTx() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	sn := c.txNext
	c.txNext = (c.txNext + 1) % c.snResolution
	return sn
}

// acceptReliable enforces spec §4.3's reliable-receive rule: accept
// iff sn == rxNext, then advance. Any other SN is a protocol
// violation that must close the session. rxNext starts at zero,
// matching the peer's own sn_tx_reliable counter.
func (c *conduit) acceptReliable(sn uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if sn != c.rxNext {
		return zerr.Newf(zerr.ProtocolError, "reliable sn gap: got %d, want %d", sn, c.rxNext)
	}
	c.rxNext = (sn + 1) % c.snResolution
	return nil
}

// acceptBestEffort accepts any sn >= the last accepted one (modulo
// wraparound is treated permissively: best-effort frames never close
// the session on disorder) and advances the window forward.
func (c *conduit) acceptBestEffort(sn uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if sn >= c.rxNext {
		c.rxNext = sn
	}
}
