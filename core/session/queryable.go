package session

import (
	"sync"

	"zenoh-go/core/keyexpr"
	"zenoh-go/core/wire"
)

// QueryableHandle is returned by DeclareQueryable; dropping it
// undeclares the queryable toward every peer.
type QueryableHandle struct {
	entityID uint64
	key      string
	session  *Session
}

func (h *QueryableHandle) Undeclare() error {
	return h.session.undeclareQueryable(h)
}

type queryable struct {
	entityID uint64
	key      string
	complete bool
	callback func(*Query)
}

// QueryableTable holds the session's own declared queryables and a
// match cache keyed by incoming request key (spec §4.5 queryable serve).
type QueryableTable struct {
	mu    sync.RWMutex
	byID  map[uint64]*queryable
	cache map[string][]*queryable
}

func newQueryableTable() *QueryableTable {
	return &QueryableTable{
		byID:  make(map[uint64]*queryable),
		cache: make(map[string][]*queryable),
	}
}

func (t *QueryableTable) declare(entityID uint64, key string, complete bool, cb func(*Query)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.byID[entityID] = &queryable{entityID: entityID, key: key, complete: complete, callback: cb}
	t.cache = make(map[string][]*queryable)
}

func (t *QueryableTable) undeclare(entityID uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.byID, entityID)
	t.cache = make(map[string][]*queryable)
}

func (t *QueryableTable) matching(key string) []*queryable {
	t.mu.RLock()
	if hit, ok := t.cache[key]; ok {
		t.mu.RUnlock()
		return hit
	}
	t.mu.RUnlock()

	t.mu.Lock()
	defer t.mu.Unlock()
	if hit, ok := t.cache[key]; ok {
		return hit
	}
	var hits []*queryable
	for _, q := range t.byID {
		if keyexpr.Intersects(q.key, key) {
			hits = append(hits, q)
		}
	}
	t.cache[key] = hits
	return hits
}

// Query is handed to a queryable's callback for one inbound Request. It
// exposes Reply and is finalized on scope exit (spec §4.5 queryable
// serve), emitting a single ResponseFinal with the originating QID.
type Query struct {
	qid        uint64
	keyexpr    string
	selector   string
	payload    []byte
	replierZID wire.ZenohID

	session *Session

	mu       sync.Mutex
	finished bool
}

// KeyExpr is the resolved key expression the request was addressed to.
func (q *Query) KeyExpr() string { return q.keyexpr }

// Selector returns the request's trailing "?params" string, if any.
func (q *Query) Selector() string { return q.selector }

// Payload returns the optional value attached to the query.
func (q *Query) Payload() []byte { return q.payload }

// Reply sends one Response carrying keyexpr/payload back to the
// requester on the transport the Request arrived on.
func (q *Query) Reply(keyExpr string, payload []byte, encoding string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.finished {
		return nil
	}
	return q.session.sendResponse(q, keyExpr, payload, encoding)
}

// Finish sends ResponseFinal for this query's QID, idempotently.
func (q *Query) Finish() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.finished {
		return nil
	}
	q.finished = true
	return q.session.sendResponseFinal(q)
}
