package session

import (
	"testing"

	"zenoh-go/core/wire"
)

func TestResourceTableRegisterReusesIdenticalKey(t *testing.T) {
	tbl := NewResourceTable(ScopeLocal)
	id1, err := tbl.RegisterResource(wire.WireKeyExpr{Suffix: "a/b"}, 0)
	if err != nil {
		t.Fatal(err)
	}
	id2, err := tbl.RegisterResource(wire.WireKeyExpr{Suffix: "a/b"}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if id1 != id2 {
		t.Fatalf("expected same rid for identical key, got %d and %d", id1, id2)
	}
}

func TestResourceTableRegisterSuffixBumpsBaseRefs(t *testing.T) {
	tbl := NewResourceTable(ScopeLocal)
	base, err := tbl.RegisterResource(wire.WireKeyExpr{Suffix: "a"}, 0)
	if err != nil {
		t.Fatal(err)
	}
	compound, err := tbl.RegisterResource(wire.WireKeyExpr{RID: base, Suffix: "b"}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if compound == base {
		t.Fatalf("expected a new rid for the compound key, got base rid %d reused", base)
	}
	expanded, ok := tbl.GetResourceByID(compound)
	if !ok || expanded != "a/b" {
		t.Fatalf("expanded key = %q, %v, want \"a/b\", true", expanded, ok)
	}

	// Unregistering the compound entry should cascade one ref off the base.
	if err := tbl.UnregisterResource(compound); err != nil {
		t.Fatal(err)
	}
	if err := tbl.UnregisterResource(base); err != nil {
		t.Fatal(err)
	}
	if _, ok := tbl.GetResourceByID(base); ok {
		t.Fatal("base rid should be gone after its refcount cascaded to zero")
	}
}

func TestResourceTableExpandKeyUnknownRID(t *testing.T) {
	tbl := NewResourceTable(ScopeRemote)
	if _, err := tbl.ExpandKey(wire.WireKeyExpr{RID: 42}); err == nil {
		t.Fatal("expected error expanding an unregistered rid")
	}
}

func TestResourceTableFlushLocalResources(t *testing.T) {
	tbl := NewResourceTable(ScopeLocal)
	id, err := tbl.RegisterResource(wire.WireKeyExpr{Suffix: "a"}, 0)
	if err != nil {
		t.Fatal(err)
	}
	tbl.FlushLocalResources()
	if _, ok := tbl.GetResourceByID(id); ok {
		t.Fatal("expected resource table to be empty after flush")
	}
	// Fresh registration after flush should not collide with stale ids.
	newID, err := tbl.RegisterResource(wire.WireKeyExpr{Suffix: "a"}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if newID != 1 {
		t.Fatalf("rid after flush = %d, want 1", newID)
	}
}

func TestResourceTableUnregisterUnknownRID(t *testing.T) {
	tbl := NewResourceTable(ScopeLocal)
	if err := tbl.UnregisterResource(99); err == nil {
		t.Fatal("expected error unregistering an unknown rid")
	}
}
