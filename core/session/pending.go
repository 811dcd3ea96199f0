package session

import (
	"sort"
	"sync"
	"time"

	"zenoh-go/core/wire"
)

// Reply is one inbound Response to a pending get (spec §3 "pending
// query").
type Reply struct {
	KeyExpr    string
	Payload    []byte
	Encoding   string
	Timestamp  uint64
	ReplierZID wire.ZenohID
}

type pendingQuery struct {
	qid           uint64
	consolidation wire.Consolidation
	replyCb       func(Reply)
	dropCb        func()
	timer         *time.Timer

	mu       sync.Mutex
	seen     map[string]uint64 // replierZID|keyexpr -> max timestamp seen (Monotonic)
	buffered map[string]Reply  // keyexpr -> latest reply (Latest)
	done     bool
}

// PendingRegistry is the session's outstanding-query table (spec §3/§4.5):
// one entry per in-flight get, terminated by a final reply or deadline.
type PendingRegistry struct {
	mu      sync.Mutex
	byQID   map[uint64]*pendingQuery
	nextQID uint64
}

func newPendingRegistry() *PendingRegistry {
	return &PendingRegistry{byQID: make(map[uint64]*pendingQuery), nextQID: 1}
}

// create allocates a QID and registers a pending query with a timeout
// that drops it if no ResponseFinal arrives in time.
func (r *PendingRegistry) create(consolidation wire.Consolidation, timeout time.Duration, replyCb func(Reply), dropCb func()) uint64 {
	r.mu.Lock()
	qid := r.nextQID
	r.nextQID++
	pq := &pendingQuery{
		qid:           qid,
		consolidation: consolidation,
		replyCb:       replyCb,
		dropCb:        dropCb,
		seen:          make(map[string]uint64),
		buffered:      make(map[string]Reply),
	}
	r.byQID[qid] = pq
	r.mu.Unlock()

	if timeout > 0 {
		pq.timer = time.AfterFunc(timeout, func() { r.finalize(qid) })
	}
	return qid
}

// onResponse applies the pending query's consolidation policy to one
// inbound Response (spec §4.5 query lifecycle).
func (r *PendingRegistry) onResponse(qid uint64, reply Reply) {
	r.mu.Lock()
	pq, ok := r.byQID[qid]
	r.mu.Unlock()
	if !ok {
		return
	}

	pq.mu.Lock()
	if pq.done {
		pq.mu.Unlock()
		return
	}
	var forward *Reply
	switch pq.consolidation {
	case wire.ConsolidationNone:
		rc := reply
		forward = &rc
	case wire.ConsolidationMonotonic:
		key := string(reply.ReplierZID.Slice()) + "|" + reply.KeyExpr
		if last, seen := pq.seen[key]; seen && last >= reply.Timestamp {
			pq.mu.Unlock()
			return
		}
		pq.seen[key] = reply.Timestamp
		rc := reply
		forward = &rc
	case wire.ConsolidationLatest:
		if prior, ok := pq.buffered[reply.KeyExpr]; !ok || prior.Timestamp <= reply.Timestamp {
			pq.buffered[reply.KeyExpr] = reply
		}
	}
	cb := pq.replyCb
	pq.mu.Unlock()

	if forward != nil && cb != nil {
		cb(*forward)
	}
}

// finalize flushes any buffered (Latest-policy) replies in keyexpr
// order, then invokes the drop callback exactly once and removes the
// record (spec §4.5, §5 cancellation & timeouts).
func (r *PendingRegistry) finalize(qid uint64) {
	r.mu.Lock()
	pq, ok := r.byQID[qid]
	if ok {
		delete(r.byQID, qid)
	}
	r.mu.Unlock()
	if !ok {
		return
	}

	pq.mu.Lock()
	if pq.done {
		pq.mu.Unlock()
		return
	}
	pq.done = true
	if pq.timer != nil {
		pq.timer.Stop()
	}
	keys := make([]string, 0, len(pq.buffered))
	for k := range pq.buffered {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	replyCb := pq.replyCb
	dropCb := pq.dropCb
	buffered := pq.buffered
	pq.mu.Unlock()

	if replyCb != nil {
		for _, k := range keys {
			replyCb(buffered[k])
		}
	}
	if dropCb != nil {
		dropCb()
	}
}

// cancel drops a pending query early (explicit session-side drop),
// without flushing any buffered replies, per spec §5's "drop callback
// runs exactly once" on explicit drop.
func (r *PendingRegistry) cancel(qid uint64) {
	r.mu.Lock()
	pq, ok := r.byQID[qid]
	if ok {
		delete(r.byQID, qid)
	}
	r.mu.Unlock()
	if !ok {
		return
	}
	pq.mu.Lock()
	if pq.done {
		pq.mu.Unlock()
		return
	}
	pq.done = true
	if pq.timer != nil {
		pq.timer.Stop()
	}
	dropCb := pq.dropCb
	pq.mu.Unlock()
	if dropCb != nil {
		dropCb()
	}
}

// closeAll cancels every pending query, for use on session close.
func (r *PendingRegistry) closeAll() {
	r.mu.Lock()
	qids := make([]uint64, 0, len(r.byQID))
	for qid := range r.byQID {
		qids = append(qids, qid)
	}
	r.mu.Unlock()
	for _, qid := range qids {
		r.cancel(qid)
	}
}
