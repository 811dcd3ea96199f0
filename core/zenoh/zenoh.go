// Package zenoh is the public surface of this client (spec §6 API
// table): Open a session against a configured router or multicast
// group, then Put/Delete/Get/Declare on it.
package zenoh

import (
	"context"
	"crypto/rand"
	"time"

	"zenoh-go/core/platform/hostlog"
	"zenoh-go/core/session"
	"zenoh-go/core/transport"
	"zenoh-go/core/transport/link"
	"zenoh-go/core/wire"
	"zenoh-go/core/zerr"
	"zenoh-go/pkg/config"
)

var log = hostlog.Default()

// Re-exported so callers only need to import this one package for the
// common surface, the way the teacher's cmd layer imports a single
// core facade package.
type (
	Session          = session.Session
	Sample           = session.Sample
	Reply            = session.Reply
	Query            = session.Query
	GetOptions       = session.GetOptions
	SubscriberHandle = session.SubscriberHandle
	QueryableHandle  = session.QueryableHandle
)

const (
	ConsolidationNone      = wire.ConsolidationNone
	ConsolidationMonotonic = wire.ConsolidationMonotonic
	ConsolidationLatest    = wire.ConsolidationLatest

	TargetBestMatching = wire.TargetBestMatching
	TargetAll          = wire.TargetAll
	TargetAllComplete  = wire.TargetAllComplete
)

func newLocalZID() (wire.ZenohID, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return wire.ZenohID{}, zerr.Wrap(zerr.IoError, "generate local zenoh id", err)
	}
	return wire.NewZenohID(b)
}

// Open establishes a session per cfg.Mode (spec §6): ModeClient dials
// the first cfg.Connect locator over TCP and performs the unicast
// handshake; ModePeer joins the configured multicast group and, for
// every cfg.Connect locator, also dials a unicast peer.
func Open(cfg config.Config) (*Session, error) {
	zid, err := newLocalZID()
	if err != nil {
		return nil, err
	}
	sess := session.New(zid)

	switch cfg.Mode {
	case config.ModeClient:
		if len(cfg.Connect) == 0 {
			return nil, zerr.New(zerr.InvalidArgument, "client mode requires at least one connect locator")
		}
		if err := dialUnicast(sess, zid, cfg.Connect[0], cfg); err != nil {
			return nil, err
		}
	case config.ModePeer:
		if cfg.Scouting.Multicast.Enabled {
			if err := joinMulticast(sess, zid, cfg); err != nil {
				return nil, err
			}
		}
		for _, locator := range cfg.Connect {
			if err := dialUnicast(sess, zid, locator, cfg); err != nil {
				return nil, err
			}
		}
	default:
		return nil, zerr.Newf(zerr.InvalidArgument, "unknown mode %q", cfg.Mode)
	}

	return sess, nil
}

func dialUnicast(sess *Session, zid wire.ZenohID, locator string, cfg config.Config) error {
	ep, err := link.ParseEndpoint(locator)
	if err != nil {
		return err
	}
	if ep.Protocol != "tcp" {
		return zerr.Newf(zerr.InvalidArgument, "unicast connect requires a tcp locator, got %q", locator)
	}
	dialer := link.NewDialer(5*time.Second, 0)
	l, err := dialer.Dial(context.Background(), ep.Address)
	if err != nil {
		return zerr.Wrapf(zerr.IoError, err, "dial %s", locator)
	}

	params := transport.HandshakeParams{
		ZID:          zid,
		Whatami:      wire.WhatClient,
		SnResolution: uint64(cfg.Transport.SnResolution),
		BatchSize:    uint64(cfg.Transport.BatchSize),
		Lease:        uint64(cfg.Transport.LeaseMs),
	}

	// remoteZID is filled in once transport.OpenClient returns, but the
	// read task it starts may dispatch before then, so the closure
	// waits on ready, which is closed after remoteZID is set.
	remoteZID := new(wire.ZenohID)
	ready := make(chan struct{})
	dispatch := func(msg wire.Message) {
		<-ready
		sess.Dispatch(*remoteZID, msg)
	}
	t, err := transport.OpenClient(l, params, dispatch, func(reason string) {
		log.Warn("zenoh: unicast peer disconnected", map[string]any{"reason": reason})
	})
	if err != nil {
		return zerr.Wrapf(zerr.IoError, err, "handshake with %s", locator)
	}
	*remoteZID = t.Remote()
	close(ready)
	sess.Attach(t)
	return nil
}

// Scout broadcasts a Scout message on the configured multicast group
// and collects every distinct Hello heard back within timeout (spec
// glossary: scouting).
func Scout(cfg config.Config, timeout time.Duration) ([]wire.Hello, error) {
	ep, err := link.ParseEndpoint("udp/" + cfg.Scouting.Multicast.Address)
	if err != nil {
		return nil, err
	}
	if cfg.Scouting.Multicast.Interface != "" {
		ep.Interface = cfg.Scouting.Multicast.Interface
	}
	l, err := link.JoinMulticast(ep)
	if err != nil {
		return nil, zerr.Wrapf(zerr.IoError, err, "join multicast %s", cfg.Scouting.Multicast.Address)
	}
	defer l.Close()

	if err := l.Write(wire.Encode(wire.Scout{Version: wire.ProtocolVersion, What: wire.WhatRouter | wire.WhatPeer}, nil)); err != nil {
		return nil, zerr.Wrap(zerr.IoError, "send scout", err)
	}

	l.SetReadTimeout(timeout)
	deadline := time.Now().Add(timeout)
	seen := make(map[string]wire.Hello)
	for time.Now().Before(deadline) {
		data, err := l.Read()
		if err != nil {
			break // timeout or closed: stop collecting
		}
		msg, _, _, err := wire.Decode(data)
		if err != nil {
			continue
		}
		hello, ok := msg.(wire.Hello)
		if !ok {
			continue
		}
		seen[string(hello.ZID.Slice())] = hello
	}

	out := make([]wire.Hello, 0, len(seen))
	for _, h := range seen {
		out = append(out, h)
	}
	return out, nil
}

func joinMulticast(sess *Session, zid wire.ZenohID, cfg config.Config) error {
	ep, err := link.ParseEndpoint("udp/" + cfg.Scouting.Multicast.Address)
	if err != nil {
		return err
	}
	if cfg.Scouting.Multicast.Interface != "" {
		ep.Interface = cfg.Scouting.Multicast.Interface
	}
	l, err := link.JoinMulticast(ep)
	if err != nil {
		return zerr.Wrapf(zerr.IoError, err, "join multicast %s", cfg.Scouting.Multicast.Address)
	}
	t := transport.OpenMulticast(l, transport.MulticastParams{
		ZID:          zid,
		Lease:        time.Duration(cfg.Transport.LeaseMs) * time.Millisecond,
		SnResolution: uint64(cfg.Transport.SnResolution),
		JoinInterval: time.Duration(cfg.Transport.JoinIntervalMs) * time.Millisecond,
	}, sess.Dispatch, func(zid wire.ZenohID) {
		log.Info("zenoh: multicast peer expired", map[string]any{"peer": zid.Slice()})
	}, nil)
	sess.Attach(t)
	return nil
}
