package transport

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"zenoh-go/core/transport/link"
	"zenoh-go/core/wire"
)

// JoinInterval is the default period between announced Join messages
// (Z_JOIN_INTERVAL), overridable via config.
const JoinInterval = 2500 * time.Millisecond

// peerState is one discovered multicast participant (spec §4.4): its
// own advertised lease, a local countdown to expiry, and whether
// anything has been received from it since the last lease tick.
type peerState struct {
	zid         wire.ZenohID
	addr        *net.UDPAddr
	lease       time.Duration
	nextLease   time.Duration
	received    bool
	reliable    *conduit
	bestEffort  *conduit
	resources   map[uint64]wire.WireKeyExpr // per-peer remote RID table (spec §4.4)
}

// MulticastTransport is a peer-mode session over a shared multicast
// group: no handshake, periodic Join announces presence, and a single
// lease task tracks every discovered peer's liveness independently
// (spec §4.4, ported from the reference client's multicast lease
// task).
type MulticastTransport struct {
	link         *link.UDPLink
	localZID     wire.ZenohID
	lease        time.Duration
	snResolution uint64
	joinInterval time.Duration

	reliable   *conduit
	bestEffort *conduit

	mu    sync.Mutex
	peers map[string]*peerState // keyed by ZenohID.Slice() as string

	dispatch           func(from wire.ZenohID, msg wire.Message)
	onPeerDisconnected func(zid wire.ZenohID)
	onTimeoutTick      func()

	runMu   sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	transmitted bool
	transMu     sync.Mutex
}

// MulticastParams configures a MulticastTransport.
type MulticastParams struct {
	ZID          wire.ZenohID
	Lease        time.Duration
	SnResolution uint64
	JoinInterval time.Duration
}

// OpenMulticast joins the multicast group l is bound to and starts the
// Join-announce and lease tasks.
func OpenMulticast(l *link.UDPLink, p MulticastParams, dispatch func(wire.ZenohID, wire.Message), onPeerDisconnected func(wire.ZenohID), onTimeoutTick func()) *MulticastTransport {
	if p.JoinInterval <= 0 {
		p.JoinInterval = JoinInterval
	}
	t := &MulticastTransport{
		link:               l,
		localZID:           p.ZID,
		lease:              p.Lease,
		snResolution:       p.SnResolution,
		joinInterval:       p.JoinInterval,
		reliable:           newConduit(p.SnResolution),
		bestEffort:         newConduit(p.SnResolution),
		peers:              make(map[string]*peerState),
		dispatch:           dispatch,
		onPeerDisconnected: onPeerDisconnected,
		onTimeoutTick:      onTimeoutTick,
	}
	t.start()
	return t
}

func (t *MulticastTransport) start() {
	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	t.running = true
	t.wg.Add(2)
	go t.readTask(ctx)
	go t.leaseTask(ctx)
}

// Close stops the background tasks and leaves the group.
func (t *MulticastTransport) Close() error {
	t.runMu.Lock()
	if !t.running {
		t.runMu.Unlock()
		return nil
	}
	t.running = false
	t.runMu.Unlock()
	t.cancel()
	err := t.link.Close()
	t.wg.Wait()
	return err
}

// sendJoin announces this peer's presence: ZID, whatami=peer, lease,
// and per-conduit next-SN state.
func (t *MulticastTransport) sendJoin() error {
	msg := wire.Join{
		Whatami:        wire.WhatPeer,
		ZID:            t.localZID,
		Lease:          uint64(t.lease / time.Millisecond),
		SnResolution:   t.snResolution,
		NextSNReliable: t.reliable.txNext,
		NextSNBestEff:  t.bestEffort.txNext,
	}
	if err := t.link.Write(wire.Encode(msg, nil)); err != nil {
		return err
	}
	t.markTransmitted()
	return nil
}

func (t *MulticastTransport) sendKeepAlive() error {
	if err := t.link.Write(wire.Encode(wire.KeepAlive{}, nil)); err != nil {
		return err
	}
	t.markTransmitted()
	return nil
}

// SendReliable broadcasts payload to the whole group on the reliable
// conduit, stamped with this peer's own sn_tx_reliable.
func (t *MulticastTransport) SendReliable(payload []byte) error {
	sn := t.reliable.nextTx()
	return t.sendFrame(wire.Frame{Reliable: true, SN: sn, Payload: payload})
}

// SendBestEffort broadcasts payload to the whole group on the
// best-effort conduit.
func (t *MulticastTransport) SendBestEffort(payload []byte) error {
	sn := t.bestEffort.nextTx()
	return t.sendFrame(wire.Frame{Reliable: false, SN: sn, Payload: payload})
}

func (t *MulticastTransport) sendFrame(f wire.Frame) error {
	if err := t.link.Write(wire.Encode(f, nil)); err != nil {
		return err
	}
	t.markTransmitted()
	return nil
}

func (t *MulticastTransport) markTransmitted() {
	t.transMu.Lock()
	t.transmitted = true
	t.transMu.Unlock()
}

func (t *MulticastTransport) peekTransmitted() bool {
	t.transMu.Lock()
	defer t.transMu.Unlock()
	return t.transmitted
}

func (t *MulticastTransport) resetTransmitted() {
	t.transMu.Lock()
	t.transmitted = false
	t.transMu.Unlock()
}

func (t *MulticastTransport) readTask(ctx context.Context) {
	defer t.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		raw, from, err := t.link.ReadFrom()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			continue // datagram read errors are not fatal to the group
		}
		msg, _, _, err := wire.Decode(raw)
		if err != nil {
			logrus.WithError(err).Debug("multicast transport: dropping malformed datagram")
			continue
		}
		t.handle(msg, from)
	}
}

func (t *MulticastTransport) handle(msg wire.Message, from *net.UDPAddr) {
	join, isJoin := msg.(wire.Join)
	var zid wire.ZenohID
	if isJoin {
		zid = join.ZID
	}

	if isJoin {
		t.mu.Lock()
		key := string(join.ZID.Slice())
		p, known := t.peers[key]
		if !known {
			p = &peerState{
				zid:        join.ZID,
				addr:       from,
				reliable:   newConduit(join.SnResolution),
				bestEffort: newConduit(join.SnResolution),
				resources:  make(map[uint64]wire.WireKeyExpr),
			}
			t.peers[key] = p
			logrus.WithField("zid", join.ZID.Slice()).Info("multicast transport: new peer")
		}
		p.lease = time.Duration(join.Lease) * time.Millisecond
		p.nextLease = p.lease
		p.received = true
		t.mu.Unlock()
		return
	}

	if frame, ok := msg.(wire.Frame); ok {
		t.mu.Lock()
		var p *peerState
		for _, cand := range t.peers {
			if cand.addr != nil && from != nil && cand.addr.String() == from.String() {
				p = cand
				break
			}
		}
		if p != nil {
			p.received = true
			zid = p.zid
		}
		t.mu.Unlock()
		if p == nil {
			return // frame from an unannounced peer; ignore until Join arrives
		}
		inner, _, _, err := wire.Decode(frame.Payload)
		if err != nil {
			return
		}
		if frame.Reliable {
			if err := p.reliable.acceptReliable(frame.SN); err != nil {
				logrus.WithError(err).Warn("multicast transport: reliable sn violation from peer")
				return
			}
		} else {
			p.bestEffort.acceptBestEffort(frame.SN)
		}
		if t.dispatch != nil {
			t.dispatch(zid, inner)
		}
		return
	}

	if _, ok := msg.(wire.KeepAlive); ok {
		t.mu.Lock()
		for _, cand := range t.peers {
			if cand.addr != nil && from != nil && cand.addr.String() == from.String() {
				cand.received = true
				break
			}
		}
		t.mu.Unlock()
	}
}

// leaseTask is the structural port of the reference client's
// _zp_multicast_lease_task: sleep the minimum of (next per-peer lease,
// next keepalive, next join); on each wakeup, drop expired peers,
// send Join/KeepAlive as their counters elapse, process pending-query
// timeouts, then decrement every counter by the elapsed interval.
func (t *MulticastTransport) leaseTask(ctx context.Context) {
	defer t.wg.Done()

	nextLease := t.minimumLease()
	nextKeepAlive := nextLease / LeaseExpireFactor
	nextJoin := t.joinInterval

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if nextLease <= 0 {
			t.dropExpiredPeers()
		}

		if nextJoin <= 0 {
			if err := t.sendJoin(); err != nil {
				logrus.WithError(err).Warn("multicast transport: send join failed")
			}
			nextJoin = t.joinInterval
		}

		if nextKeepAlive <= 0 {
			if !t.peekTransmitted() {
				if err := t.sendKeepAlive(); err != nil {
					logrus.WithError(err).Warn("multicast transport: send keepalive failed")
				}
			}
			t.resetTransmitted()
			nextKeepAlive = t.minimumLease() / LeaseExpireFactor
		}

		if t.onTimeoutTick != nil {
			t.onTimeoutTick()
		}

		interval := nextKeepAlive
		if nextLease > 0 && nextLease < interval {
			interval = nextLease
		}
		if nextJoin < interval {
			interval = nextJoin
		}
		if interval <= 0 {
			interval = time.Millisecond
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		t.decrementPeerLeases(interval)
		nextLease = t.nextLease()
		nextKeepAlive -= interval
		nextJoin -= interval
	}
}

func (t *MulticastTransport) minimumLease() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	min := t.lease
	for _, p := range t.peers {
		if p.lease < min {
			min = p.lease
		}
	}
	return min
}

func (t *MulticastTransport) nextLease() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	min := time.Duration(1<<63 - 1)
	found := false
	for _, p := range t.peers {
		if p.nextLease < min {
			min = p.nextLease
			found = true
		}
	}
	if !found {
		return t.lease
	}
	return min
}

func (t *MulticastTransport) decrementPeerLeases(elapsed time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, p := range t.peers {
		p.nextLease -= elapsed
		if p.nextLease < 0 {
			p.nextLease = 0
		}
	}
}

// dropExpiredPeers resets the lease countdown for peers that received
// something since the last tick, and drops the rest, invoking
// onPeerDisconnected exactly once per dropped peer.
func (t *MulticastTransport) dropExpiredPeers() {
	var dropped []wire.ZenohID
	t.mu.Lock()
	for key, p := range t.peers {
		if p.received {
			p.received = false
			p.nextLease = p.lease
			continue
		}
		logrus.WithField("zid", p.zid.Slice()).Info("multicast transport: peer expired")
		dropped = append(dropped, p.zid)
		delete(t.peers, key)
	}
	t.mu.Unlock()

	for _, zid := range dropped {
		if t.onPeerDisconnected != nil {
			t.onPeerDisconnected(zid)
		}
	}
}

// Peers returns the ZenohIDs of every currently known peer.
func (t *MulticastTransport) Peers() []wire.ZenohID {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]wire.ZenohID, 0, len(t.peers))
	for _, p := range t.peers {
		out = append(out, p.zid)
	}
	return out
}
