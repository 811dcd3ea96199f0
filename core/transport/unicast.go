package transport

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"zenoh-go/core/transport/link"
	"zenoh-go/core/wire"
	"zenoh-go/core/zerr"
)

// State is the unicast handshake state machine of spec §4.3.
type State int

const (
	StateClosed State = iota
	StateInitSent
	StateOpenSent
	StateEstablished
)

// DispatchFunc receives one decoded network-layer message (Push,
// Request, Response, ResponseFinal, Declare, OAM) as it arrives on a
// transport's reliable or best-effort conduit.
type DispatchFunc func(msg wire.Message)

// pendingFrame is one reliable frame awaiting implicit cumulative ack.
type pendingFrame struct {
	sn      uint64
	payload []byte
}

// UnicastTransport is a client-mode session toward a single router:
// InitSyn/InitAck/OpenSyn/OpenAck handshake, SN-sequenced reliable and
// best-effort conduits, and the background read/lease tasks (spec §5).
type UnicastTransport struct {
	link    link.Link
	localZID wire.ZenohID
	remoteZID wire.ZenohID

	state State

	lease        uint64 // ms
	snResolution uint64
	batchSize    uint64

	reliable   *conduit
	bestEffort *conduit

	sendMu sync.Mutex // spec §5: lock order (d) send path first

	retransMu sync.Mutex
	retrans   []pendingFrame
	retransCap int

	transmitted atomic.Bool
	received    atomic.Bool

	dispatch DispatchFunc
	onDisconnect func(reason string)

	runMu   sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// HandshakeParams carries the local side's proposed handshake values;
// the smaller of each side's proposal wins (spec §4.3).
type HandshakeParams struct {
	ZID          wire.ZenohID
	Whatami      wire.Whatami
	SnResolution uint64
	BatchSize    uint64
	Lease        uint64
}

// OpenClient performs the initiator handshake
// (CLOSED -> InitSent -> OpenSent -> Established) over an already
// connected link.
func OpenClient(l link.Link, p HandshakeParams, dispatch DispatchFunc, onDisconnect func(string)) (*UnicastTransport, error) {
	t := &UnicastTransport{
		link:       l,
		localZID:   p.ZID,
		state:      StateClosed,
		dispatch:   dispatch,
		onDisconnect: onDisconnect,
		retransCap: 256,
	}

	if err := l.Write(wire.Encode(wire.InitSyn{
		Version:      wire.ProtocolVersion,
		Whatami:      p.Whatami,
		ZID:          p.ZID,
		SnResolution: p.SnResolution,
		BatchSize:    p.BatchSize,
	}, nil)); err != nil {
		return nil, zerr.Wrap(zerr.IoError, "send InitSyn", err)
	}
	t.state = StateInitSent

	ack, err := readOne(l)
	if err != nil {
		return nil, err
	}
	initAck, ok := ack.(wire.InitAck)
	if !ok {
		return nil, zerr.Newf(zerr.ProtocolError, "expected InitAck, got %T", ack)
	}
	t.remoteZID = initAck.ZID
	t.snResolution = minU64(p.SnResolution, initAck.SnResolution)
	t.batchSize = minU64(p.BatchSize, initAck.BatchSize)

	if err := l.Write(wire.Encode(wire.OpenSyn{Lease: p.Lease, Cookie: initAck.Cookie}, nil)); err != nil {
		return nil, zerr.Wrap(zerr.IoError, "send OpenSyn", err)
	}
	t.state = StateOpenSent

	ack2, err := readOne(l)
	if err != nil {
		return nil, err
	}
	openAck, ok := ack2.(wire.OpenAck)
	if !ok {
		return nil, zerr.Newf(zerr.ProtocolError, "expected OpenAck, got %T", ack2)
	}
	t.lease = openAck.Lease
	t.state = StateEstablished
	t.reliable = newConduit(t.snResolution)
	t.bestEffort = newConduit(t.snResolution)

	t.start()
	return t, nil
}

// AcceptServer performs the responder handshake for a peer that
// listens for incoming unicast connections.
func AcceptServer(l link.Link, p HandshakeParams, cookie []byte, dispatch DispatchFunc, onDisconnect func(string)) (*UnicastTransport, error) {
	t := &UnicastTransport{
		link:       l,
		localZID:   p.ZID,
		dispatch:   dispatch,
		onDisconnect: onDisconnect,
		retransCap: 256,
	}

	syn, err := readOne(l)
	if err != nil {
		return nil, err
	}
	initSyn, ok := syn.(wire.InitSyn)
	if !ok {
		return nil, zerr.Newf(zerr.ProtocolError, "expected InitSyn, got %T", syn)
	}
	t.remoteZID = initSyn.ZID
	t.snResolution = minU64(p.SnResolution, initSyn.SnResolution)
	t.batchSize = minU64(p.BatchSize, initSyn.BatchSize)

	if err := l.Write(wire.Encode(wire.InitAck{
		Version:      wire.ProtocolVersion,
		Whatami:      p.Whatami,
		ZID:          p.ZID,
		SnResolution: t.snResolution,
		BatchSize:    t.batchSize,
		Cookie:       cookie,
	}, nil)); err != nil {
		return nil, zerr.Wrap(zerr.IoError, "send InitAck", err)
	}

	opn, err := readOne(l)
	if err != nil {
		return nil, err
	}
	openSyn, ok := opn.(wire.OpenSyn)
	if !ok {
		return nil, zerr.Newf(zerr.ProtocolError, "expected OpenSyn, got %T", opn)
	}
	t.lease = openSyn.Lease

	if err := l.Write(wire.Encode(wire.OpenAck{Lease: t.lease}, nil)); err != nil {
		return nil, zerr.Wrap(zerr.IoError, "send OpenAck", err)
	}
	t.state = StateEstablished
	t.reliable = newConduit(t.snResolution)
	t.bestEffort = newConduit(t.snResolution)

	t.start()
	return t, nil
}

func readOne(l link.Link) (wire.Message, error) {
	raw, err := l.Read()
	if err != nil {
		return nil, zerr.Wrap(zerr.IoError, "read handshake message", err)
	}
	msg, _, _, err := wire.Decode(raw)
	if err != nil {
		return nil, err
	}
	return msg, nil
}

func minU64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}

// SendReliable wraps payload in a Frame on the reliable conduit,
// stamping sn_tx_reliable++, and retains it in the retransmission
// queue until cumulative progress is observed.
func (t *UnicastTransport) SendReliable(payload []byte) error {
	sn := t.reliable.nextTx()
	return t.sendFrame(wire.Frame{Reliable: true, SN: sn, Payload: payload}, sn)
}

// SendBestEffort wraps payload in a Frame on the best-effort conduit;
// best-effort frames are never retransmitted.
func (t *UnicastTransport) SendBestEffort(payload []byte) error {
	sn := t.bestEffort.nextTx()
	return t.sendFrame(wire.Frame{Reliable: false, SN: sn, Payload: payload}, 0)
}

func (t *UnicastTransport) sendFrame(f wire.Frame, retransSN uint64) error {
	t.sendMu.Lock()
	defer t.sendMu.Unlock()
	if err := t.link.Write(wire.Encode(f, nil)); err != nil {
		return zerr.Wrap(zerr.IoError, "write frame", err)
	}
	t.transmitted.Store(true)
	if f.Reliable {
		t.retransMu.Lock()
		t.retrans = append(t.retrans, pendingFrame{sn: retransSN, payload: f.Payload})
		if len(t.retrans) > t.retransCap {
			t.retrans = t.retrans[len(t.retrans)-t.retransCap:]
		}
		t.retransMu.Unlock()
	}
	return nil
}

// clearRetransOnProgress drops the whole retransmission queue: any
// reception from the peer is read as cumulative implicit ack of
// everything sent before it, since this client does not track
// selective per-frame acknowledgement.
func (t *UnicastTransport) clearRetransOnProgress() {
	t.retransMu.Lock()
	t.retrans = t.retrans[:0]
	t.retransMu.Unlock()
}

func (t *UnicastTransport) retransPending() int {
	t.retransMu.Lock()
	defer t.retransMu.Unlock()
	return len(t.retrans)
}

func (t *UnicastTransport) start() {
	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	t.running = true
	t.wg.Add(2)
	go t.readTask(ctx)
	go t.leaseTask(ctx)
}

// Close tears down the transport and joins its background tasks, per
// spec §5's "closing the session closes every transport, which joins
// its tasks" rule.
func (t *UnicastTransport) Close() error {
	t.runMu.Lock()
	if !t.running {
		t.runMu.Unlock()
		return nil
	}
	t.running = false
	t.runMu.Unlock()

	_ = t.link.Write(wire.Encode(wire.Close{Reason: 0}, nil))
	t.cancel()
	err := t.link.Close()
	t.wg.Wait()
	return err
}

func (t *UnicastTransport) readTask(ctx context.Context) {
	defer t.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		raw, err := t.link.Read()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logrus.WithError(err).Warn("unicast transport: read failed, closing")
			t.fail("read error")
			return
		}
		msg, _, _, err := wire.Decode(raw)
		if err != nil {
			logrus.WithError(err).Warn("unicast transport: malformed message, closing")
			t.fail("malformed message")
			return
		}
		t.received.Store(true)
		t.clearRetransOnProgress()
		t.handle(msg)
	}
}

func (t *UnicastTransport) handle(msg wire.Message) {
	switch m := msg.(type) {
	case wire.KeepAlive:
		// liveness only; no dispatch.
	case wire.Close:
		t.fail("peer closed")
	case wire.Frame:
		if m.Reliable {
			if err := t.reliable.acceptReliable(m.SN); err != nil {
				logrus.WithError(err).Warn("unicast transport: reliable sn violation, closing")
				t.fail("reliable sn violation")
				return
			}
		} else {
			t.bestEffort.acceptBestEffort(m.SN)
		}
		inner, _, _, err := wire.Decode(m.Payload)
		if err != nil {
			logrus.WithError(err).Warn("unicast transport: malformed frame payload")
			return
		}
		if t.dispatch != nil {
			t.dispatch(inner)
		}
	default:
		if t.dispatch != nil {
			t.dispatch(msg)
		}
	}
}

func (t *UnicastTransport) fail(reason string) {
	t.runMu.Lock()
	wasRunning := t.running
	t.running = false
	t.runMu.Unlock()
	if !wasRunning {
		return
	}
	if t.cancel != nil {
		t.cancel()
	}
	_ = t.link.Close()
	if t.onDisconnect != nil {
		t.onDisconnect(reason)
	}
}

// leaseTask wakes every lease/LeaseExpireFactor ms: sends a KeepAlive
// if nothing was transmitted since the last tick, and fails the
// session if nothing was received for a full lease period (spec §4.3).
func (t *UnicastTransport) leaseTask(ctx context.Context) {
	defer t.wg.Done()
	interval := time.Duration(t.lease/LeaseExpireFactor) * time.Millisecond
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sinceReceived := time.Duration(0)
	leaseWindow := time.Duration(t.lease) * time.Millisecond

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !t.transmitted.Swap(false) {
				if err := t.link.Write(wire.Encode(wire.KeepAlive{}, nil)); err != nil {
					logrus.WithError(err).Warn("unicast transport: keepalive failed, closing")
					t.fail("keepalive failed")
					return
				}
			}
			if t.received.Swap(false) {
				sinceReceived = 0
			} else {
				sinceReceived += interval
				if sinceReceived >= leaseWindow {
					logrus.Warn("unicast transport: lease expired without reception, closing")
					t.fail("lease expired")
					return
				}
			}
		}
	}
}

// Remote returns the peer's advertised ZenohID.
func (t *UnicastTransport) Remote() wire.ZenohID { return t.remoteZID }

// CurrentState reports the handshake state.
func (t *UnicastTransport) CurrentState() State { return t.state }
