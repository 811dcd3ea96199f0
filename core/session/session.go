// Package session implements the session layer of spec §4.5: resource
// registration, subscription/queryable tables with match caches, the
// pending-query registry with reply consolidation, and dispatch of
// inbound Push/Request/Response/Declare messages onto them.
package session

import (
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"zenoh-go/core/keyexpr"
	"zenoh-go/core/wire"
)

// Sender is the subset of transport.UnicastTransport/MulticastTransport
// a session needs in order to propagate declarations and payloads; the
// session owns its tables exclusively and only ever reaches into a
// transport through this narrow interface (spec §3 ownership summary).
type Sender interface {
	SendReliable(payload []byte) error
	SendBestEffort(payload []byte) error
	Close() error
}

// GetOptions configures a Session.Get/GetCollect call.
type GetOptions struct {
	Target        wire.Target
	Consolidation wire.Consolidation
	Timeout       time.Duration
	Payload       []byte
}

// Session is the client's view of the overlay: one local resource
// table, one remote resource table per peer, local subscription and
// queryable tables with match caches, a pending-query registry, and a
// handle on every attached transport (spec §4.5).
type Session struct {
	localZID wire.ZenohID

	localResources *ResourceTable

	remoteMu  sync.Mutex
	remoteRes map[string]*ResourceTable // keyed by ZenohID.Slice() as string

	subs       *SubscriberTable
	queryables *QueryableTable
	pending    *PendingRegistry
	metrics    *Metrics

	sendersMu sync.Mutex
	senders   []Sender

	entityMu     sync.Mutex
	nextEntityID uint64

	closeOnce sync.Once
}

// New builds a session for localZID with no attached transports yet;
// call Attach once each transport has completed its handshake.
func New(localZID wire.ZenohID) *Session {
	return &Session{
		localZID:       localZID,
		localResources: NewResourceTable(ScopeLocal),
		remoteRes:      make(map[string]*ResourceTable),
		subs:           newSubscriberTable(),
		queryables:     newQueryableTable(),
		pending:        newPendingRegistry(),
		metrics:        newMetrics(),
		nextEntityID:   1,
	}
}

// Metrics returns the session's metric set for an embedding app to
// scrape (spec SPEC_FULL.md DOMAIN STACK: VictoriaMetrics/metrics).
func (s *Session) Metrics() *Metrics { return s.metrics }

// Attach registers a transport so its inbound messages reach Dispatch
// and outbound sends reach it. Callers are expected to have wired the
// transport's dispatch callback to s.Dispatch at construction time:
// directly for a multicast transport, or through a closure that
// supplies the remote ZenohID for a unicast one.
func (s *Session) Attach(t Sender) {
	s.sendersMu.Lock()
	s.senders = append(s.senders, t)
	s.sendersMu.Unlock()
}

func (s *Session) remoteResourceTable(zid wire.ZenohID) *ResourceTable {
	key := string(zid.Slice())
	s.remoteMu.Lock()
	defer s.remoteMu.Unlock()
	t, ok := s.remoteRes[key]
	if !ok {
		t = NewResourceTable(ScopeRemote)
		s.remoteRes[key] = t
	}
	return t
}

func (s *Session) nextEntity() uint64 {
	s.entityMu.Lock()
	defer s.entityMu.Unlock()
	id := s.nextEntityID
	s.nextEntityID++
	return id
}

func (s *Session) broadcastReliable(payload []byte) error {
	s.sendersMu.Lock()
	senders := append([]Sender(nil), s.senders...)
	s.sendersMu.Unlock()
	var firstErr error
	for _, snd := range senders {
		if err := snd.SendReliable(payload); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Dispatch handles msg as having arrived from remote. A multicast
// transport takes it as its dispatch callback directly; a unicast
// transport's callback calls it with that transport's remote peer.
func (s *Session) Dispatch(remote wire.ZenohID, msg wire.Message) {
	s.handle(remote, msg)
}

func (s *Session) handle(from wire.ZenohID, msg wire.Message) {
	start := time.Now()
	defer func() { s.metrics.observeDispatch(time.Since(start).Seconds()) }()

	switch m := msg.(type) {
	case wire.Push:
		s.handlePush(from, m)
	case wire.Request:
		s.handleRequest(from, m)
	case wire.Response:
		s.handleResponse(m)
	case wire.ResponseFinal:
		s.pending.finalize(m.QID)
	case wire.Declare:
		s.handleDeclare(from, m)
	case wire.OAM:
		logrus.WithField("id", m.ID).Debug("session: received OAM, ignoring")
	default:
		logrus.WithField("type", msg).Debug("session: unhandled message type in dispatch")
	}
}

func (s *Session) handlePush(from wire.ZenohID, m wire.Push) {
	table := s.remoteResourceTable(from)
	expanded, err := table.ExpandKey(m.Key)
	if err != nil {
		logrus.WithError(err).Warn("session: dropping push with unresolvable key")
		return
	}
	sample := Sample{
		KeyExpr:    expanded,
		IsPut:      m.IsPut,
		Payload:    m.Payload,
		Encoding:   m.Encoding.Suffix,
		Attachment: m.Attachment,
		Timestamp:  m.Timestamp,
	}
	for _, sub := range s.subs.matching(expanded) {
		invokeBestEffort(func() { sub.callback(sample) })
	}
}

func (s *Session) handleRequest(from wire.ZenohID, m wire.Request) {
	table := s.remoteResourceTable(from)
	expanded, err := table.ExpandKey(m.Key)
	if err != nil {
		logrus.WithError(err).Warn("session: dropping request with unresolvable key")
		return
	}
	matches := s.queryables.matching(expanded)
	for _, q := range matches {
		query := &Query{
			qid:        m.QID,
			keyexpr:    expanded,
			selector:   m.Selector,
			payload:    m.Payload,
			replierZID: s.localZID,
			session:    s,
		}
		invokeBestEffort(func() { q.callback(query) })
		_ = query.Finish()
	}
}

func (s *Session) handleResponse(m wire.Response) {
	s.pending.onResponse(m.QID, Reply{
		KeyExpr:    m.Key.Suffix, // responses carry the literal resolved key (spec §4.5 reply)
		Payload:    m.Payload,
		Encoding:   m.Encoding.Suffix,
		Timestamp:  m.Timestamp,
		ReplierZID: m.ReplierZID,
	})
}

func (s *Session) handleDeclare(from wire.ZenohID, m wire.Declare) {
	table := s.remoteResourceTable(from)
	for _, body := range m.Bodies {
		switch b := body.(type) {
		case wire.DeclareKeyExpr:
			if _, err := table.RegisterResource(b.Key, b.ID); err != nil {
				logrus.WithError(err).Warn("session: remote DeclareKeyExpr failed")
			}
		case wire.UndeclareKeyExpr:
			_ = table.UnregisterResource(b.ID)
		case wire.DeclareSubscriber, wire.UndeclareSubscriber,
			wire.DeclareQueryable, wire.UndeclareQueryable,
			wire.DeclareToken, wire.UndeclareToken, wire.DeclareFinal:
			// Informational: this client does not maintain a remote
			// interest table, since routing decisions are made by the
			// addressed keyexpr alone (spec §4.5 dispatch).
		}
	}
}

func invokeBestEffort(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logrus.WithField("panic", r).Warn("session: callback panicked, ignoring")
		}
	}()
	fn()
}

// DeclareSubscriber registers a local subscription and announces it to
// every attached transport (spec §4.5 declaration propagation).
func (s *Session) DeclareSubscriber(key string, cb func(Sample)) (*SubscriberHandle, error) {
	canonical, err := canonicalizeOrErr(key)
	if err != nil {
		return nil, err
	}
	eid := s.nextEntity()
	s.subs.declare(eid, canonical, cb)
	decl := wire.Declare{Bodies: []wire.DeclareBody{wire.DeclareSubscriber{EntityID: eid, Key: wire.WireKeyExpr{Suffix: canonical}}}}
	if err := s.broadcastReliable(wire.Encode(decl, nil)); err != nil {
		logrus.WithError(err).Warn("session: failed to announce subscriber to some peers")
	}
	return &SubscriberHandle{entityID: eid, key: canonical, session: s}, nil
}

func (s *Session) undeclareSubscriber(h *SubscriberHandle) error {
	s.subs.undeclare(h.entityID)
	decl := wire.Declare{Bodies: []wire.DeclareBody{wire.UndeclareSubscriber{EntityID: h.entityID}}}
	return s.broadcastReliable(wire.Encode(decl, nil))
}

// DeclareQueryable registers a local queryable and announces it to
// every attached transport.
func (s *Session) DeclareQueryable(key string, complete bool, cb func(*Query)) (*QueryableHandle, error) {
	canonical, err := canonicalizeOrErr(key)
	if err != nil {
		return nil, err
	}
	eid := s.nextEntity()
	s.queryables.declare(eid, canonical, complete, cb)
	decl := wire.Declare{Bodies: []wire.DeclareBody{wire.DeclareQueryable{EntityID: eid, Key: wire.WireKeyExpr{Suffix: canonical}, Complete: complete}}}
	if err := s.broadcastReliable(wire.Encode(decl, nil)); err != nil {
		logrus.WithError(err).Warn("session: failed to announce queryable to some peers")
	}
	return &QueryableHandle{entityID: eid, key: canonical, session: s}, nil
}

func (s *Session) undeclareQueryable(h *QueryableHandle) error {
	s.queryables.undeclare(h.entityID)
	decl := wire.Declare{Bodies: []wire.DeclareBody{wire.UndeclareQueryable{EntityID: h.entityID}}}
	return s.broadcastReliable(wire.Encode(decl, nil))
}

// DeclareKeyExpr registers key in the session's local resource table
// and announces the RID to every attached transport so future
// Put/Get/Declare traffic can reference it by id instead of the full
// string (spec §4.5 resource registration).
func (s *Session) DeclareKeyExpr(key string) (uint64, error) {
	canonical, err := canonicalizeOrErr(key)
	if err != nil {
		return 0, err
	}
	rid, err := s.localResources.RegisterResource(wire.WireKeyExpr{Suffix: canonical}, 0)
	if err != nil {
		return 0, err
	}
	decl := wire.Declare{Bodies: []wire.DeclareBody{wire.DeclareKeyExpr{ID: rid, Key: wire.WireKeyExpr{Suffix: canonical}}}}
	if err := s.broadcastReliable(wire.Encode(decl, nil)); err != nil {
		logrus.WithError(err).Warn("session: failed to announce key expression to some peers")
	}
	return rid, nil
}

// UndeclareKeyExpr drops the local registration for rid and announces
// the removal.
func (s *Session) UndeclareKeyExpr(rid uint64) error {
	if err := s.localResources.UnregisterResource(rid); err != nil {
		return err
	}
	decl := wire.Declare{Bodies: []wire.DeclareBody{wire.UndeclareKeyExpr{ID: rid}}}
	return s.broadcastReliable(wire.Encode(decl, nil))
}

// Put sends a Push(IsPut=true) carrying payload toward matching
// subscribers on every attached transport.
func (s *Session) Put(key string, payload []byte, encoding string) error {
	canonical, err := canonicalizeOrErr(key)
	if err != nil {
		return err
	}
	s.metrics.incPuts()
	push := wire.Push{
		IsPut:     true,
		Key:       wire.WireKeyExpr{Suffix: canonical},
		Payload:   payload,
		Encoding:  wire.Encoding{Suffix: encoding},
		Timestamp: uint64(time.Now().UnixNano()),
	}
	return s.broadcastReliable(wire.Encode(push, nil))
}

// Delete sends a Push(IsPut=false) tombstone toward matching subscribers.
func (s *Session) Delete(key string) error {
	canonical, err := canonicalizeOrErr(key)
	if err != nil {
		return err
	}
	push := wire.Push{
		IsPut:     false,
		Key:       wire.WireKeyExpr{Suffix: canonical},
		Timestamp: uint64(time.Now().UnixNano()),
	}
	return s.broadcastReliable(wire.Encode(push, nil))
}

// Get issues an asynchronous query: replyCb is invoked per consolidated
// reply and dropCb fires exactly once when the query terminates (final
// reply or deadline), per spec §4.5 query lifecycle.
func (s *Session) Get(selector string, opts GetOptions, replyCb func(Reply), dropCb func()) error {
	key, query, err := splitSelector(selector)
	if err != nil {
		return err
	}
	s.metrics.incGets()
	s.metrics.pendingDelta(1)
	wrapped := func() {
		s.metrics.pendingDelta(-1)
		if dropCb != nil {
			dropCb()
		}
	}
	qid := s.pending.create(opts.Consolidation, opts.Timeout, replyCb, wrapped)
	req := wire.Request{
		QID:           qid,
		Key:           wire.WireKeyExpr{Suffix: key},
		Selector:      query,
		Target:        opts.Target,
		Consolidation: opts.Consolidation,
		Payload:       opts.Payload,
	}
	if err := s.broadcastReliable(wire.Encode(req, nil)); err != nil {
		s.pending.cancel(qid)
		return err
	}
	return nil
}

// GetCollect blocks until the query terminates and returns every reply
// observed, applying the configured consolidation policy, per the
// z_query_collect semantics this client supplements from original_source.
func (s *Session) GetCollect(selector string, opts GetOptions) ([]Reply, error) {
	var mu sync.Mutex
	var replies []Reply
	done := make(chan struct{})
	err := s.Get(selector, opts, func(r Reply) {
		mu.Lock()
		replies = append(replies, r)
		mu.Unlock()
	}, func() { close(done) })
	if err != nil {
		return nil, err
	}
	<-done
	mu.Lock()
	defer mu.Unlock()
	return replies, nil
}

func (s *Session) sendResponse(q *Query, keyExpr string, payload []byte, encoding string) error {
	resp := wire.Response{
		QID:        q.qid,
		Key:        wire.WireKeyExpr{Suffix: keyExpr},
		Payload:    payload,
		Encoding:   wire.Encoding{Suffix: encoding},
		Timestamp:  uint64(time.Now().UnixNano()),
		ReplierZID: q.replierZID,
	}
	return s.broadcastReliable(wire.Encode(resp, nil))
}

func (s *Session) sendResponseFinal(q *Query) error {
	return s.broadcastReliable(wire.Encode(wire.ResponseFinal{QID: q.qid}, nil))
}

// UnicastDispatchFunc builds the DispatchFunc to hand a unicast
// transport at construction time, binding every inbound message to the
// known remote peer id (spec §4.5 dispatch): unicast links imply a
// single remote, unlike the per-message sender a multicast transport
// supplies.
func (s *Session) UnicastDispatchFunc(remote wire.ZenohID) func(wire.Message) {
	return func(msg wire.Message) { s.Dispatch(remote, msg) }
}

func canonicalizeOrErr(key string) (string, error) {
	return keyexpr.Canonical(key)
}

// splitSelector separates a selector's key expression from its trailing
// "?params" query-string (spec glossary: Selector = keyexpr + "?params").
func splitSelector(selector string) (key string, params string, err error) {
	key, params, _ = strings.Cut(selector, "?")
	key, err = keyexpr.Canonical(key)
	return key, params, err
}

// Close tears down every attached transport and cancels any pending
// query (spec §5 cancellation & timeouts).
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.pending.closeAll()
		s.sendersMu.Lock()
		senders := append([]Sender(nil), s.senders...)
		s.sendersMu.Unlock()
		for _, snd := range senders {
			if e := snd.Close(); e != nil && err == nil {
				err = e
			}
		}
		s.localResources.FlushLocalResources()
	})
	return err
}
