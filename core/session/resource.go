package session

import (
	"sync"

	"zenoh-go/core/keyexpr"
	"zenoh-go/core/wire"
	"zenoh-go/core/zerr"
)

// Scope identifies which table a resource entry belongs to (spec §3):
// a session owns one local table, one remote table for its unicast
// peer, and one remote table per peer on a multicast transport.
type Scope int

const (
	ScopeLocal Scope = iota
	ScopeRemote
	ScopePerPeerRemote
)

type resourceEntry struct {
	id       uint64
	wire     wire.WireKeyExpr
	expanded string
	refs     int
}

// ResourceTable maps RID -> (key expression, reference count), per
// spec §3/§4.5's resource.h surface. One instance is owned per scope:
// the session's own local declarations, plus one remote instance per
// peer (the unicast peer, or each multicast peer).
type ResourceTable struct {
	scope Scope

	mu      sync.RWMutex
	byID    map[uint64]*resourceEntry
	byKey   map[string]uint64
	nextID  uint64
}

// NewResourceTable builds an empty table for the given scope. RIDs are
// issued starting at 1; 0 is reserved to mean "no resource, literal key
// carried inline" on the wire (spec §3).
func NewResourceTable(scope Scope) *ResourceTable {
	return &ResourceTable{
		scope:  scope,
		byID:   make(map[uint64]*resourceEntry),
		byKey:  make(map[string]uint64),
		nextID: 1,
	}
}

// ExpandKey resolves a wire key expression against this table: if RID
// is zero the Suffix is the whole (canonicalized) key; otherwise the
// base entry for RID is looked up and Suffix is appended to it.
func (t *ResourceTable) ExpandKey(k wire.WireKeyExpr) (string, error) {
	if k.RID == 0 {
		return keyexpr.Canonical(k.Suffix)
	}
	t.mu.RLock()
	base, ok := t.byID[k.RID]
	t.mu.RUnlock()
	if !ok {
		return "", zerr.Newf(zerr.NotAvailable, "resource id %d not registered", k.RID)
	}
	if k.Suffix == "" {
		return base.expanded, nil
	}
	return keyexpr.Canonical(base.expanded + "/" + k.Suffix)
}

// RegisterResource resolves k to a canonical key, then either reuses
// the RID of an identical already-registered plain key, or allocates a
// fresh RID. Referencing an existing base RID with a non-empty suffix
// bumps the base's reference count (spec §4.5 register semantics).
func (t *ResourceTable) RegisterResource(k wire.WireKeyExpr, suggestedID uint64) (uint64, error) {
	expanded, err := t.ExpandKey(k)
	if err != nil {
		return 0, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if k.RID == 0 {
		if id, ok := t.byKey[expanded]; ok {
			t.byID[id].refs++
			return id, nil
		}
		id := suggestedID
		if id == 0 || t.byID[id] != nil {
			id = t.nextID
		}
		if id >= t.nextID {
			t.nextID = id + 1
		}
		t.byID[id] = &resourceEntry{id: id, wire: k, expanded: expanded, refs: 1}
		t.byKey[expanded] = id
		return id, nil
	}

	base, ok := t.byID[k.RID]
	if !ok {
		return 0, zerr.Newf(zerr.NotAvailable, "resource id %d not registered", k.RID)
	}
	id := suggestedID
	if id == 0 || t.byID[id] != nil {
		id = t.nextID
	}
	if id >= t.nextID {
		t.nextID = id + 1
	}
	base.refs++
	t.byID[id] = &resourceEntry{id: id, wire: k, expanded: expanded, refs: 1}
	t.byKey[expanded] = id
	return id, nil
}

// UnregisterResource drops one reference from rid, removing the entry
// (and cascading into its base, if any) at zero.
func (t *ResourceTable) UnregisterResource(rid uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.unregisterLocked(rid)
}

func (t *ResourceTable) unregisterLocked(rid uint64) error {
	e, ok := t.byID[rid]
	if !ok {
		return zerr.Newf(zerr.NotAvailable, "resource id %d not registered", rid)
	}
	e.refs--
	if e.refs > 0 {
		return nil
	}
	delete(t.byID, rid)
	delete(t.byKey, e.expanded)
	if e.wire.RID != 0 {
		return t.unregisterLocked(e.wire.RID)
	}
	return nil
}

// GetResourceByID returns the fully expanded key for rid.
func (t *ResourceTable) GetResourceByID(rid uint64) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.byID[rid]
	if !ok {
		return "", false
	}
	return e.expanded, true
}

// GetResourceByKey returns the RID registered for an exact expanded key.
func (t *ResourceTable) GetResourceByKey(key string) (uint64, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	id, ok := t.byKey[key]
	return id, ok
}

// FlushLocalResources clears every entry, for use on transport teardown
// (spec §4.5's resource.h FlushLocalResources).
func (t *ResourceTable) FlushLocalResources() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.byID = make(map[uint64]*resourceEntry)
	t.byKey = make(map[string]uint64)
	t.nextID = 1
}
