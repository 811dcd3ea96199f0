package session

import (
	"sync"

	"zenoh-go/core/keyexpr"
)

// Sample is one inbound Put/Delete payload dispatched to a matching
// subscriber callback (spec §4.5 dispatch).
type Sample struct {
	KeyExpr    string
	IsPut      bool
	Payload    []byte
	Encoding   string
	Attachment []byte
	Timestamp  uint64
}

// SubscriberHandle is returned by DeclareSubscriber; dropping it
// undeclares the subscription both locally and toward every peer.
type SubscriberHandle struct {
	entityID uint64
	key      string
	session  *Session
}

// Undeclare removes the subscription and sends UndeclareSubscriber to
// every transport (spec §4.5 declaration propagation).
func (h *SubscriberHandle) Undeclare() error {
	return h.session.undeclareSubscriber(h)
}

type subscriber struct {
	entityID uint64
	key      string // canonical pattern
	callback func(Sample)
}

// SubscriberTable holds the session's own declared subscriptions and a
// match cache keyed by concrete sample key (spec §4.5 step 2).
type SubscriberTable struct {
	mu    sync.RWMutex
	byID  map[uint64]*subscriber
	cache map[string][]*subscriber
}

func newSubscriberTable() *SubscriberTable {
	return &SubscriberTable{
		byID:  make(map[uint64]*subscriber),
		cache: make(map[string][]*subscriber),
	}
}

func (t *SubscriberTable) declare(entityID uint64, key string, cb func(Sample)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.byID[entityID] = &subscriber{entityID: entityID, key: key, callback: cb}
	t.cache = make(map[string][]*subscriber) // invalidate: a new pattern may match cached keys
}

func (t *SubscriberTable) undeclare(entityID uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.byID, entityID)
	t.cache = make(map[string][]*subscriber)
}

// matching returns every subscriber whose pattern intersects concrete
// key, building and caching the entry on a miss.
func (t *SubscriberTable) matching(key string) []*subscriber {
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
	var hits []*subscriber
	for _, s := range t.byID {
		if keyexpr.Intersects(s.key, key) {
			hits = append(hits, s)
		}
	}
	t.cache[key] = hits
	return hits
}
