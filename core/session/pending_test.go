package session

import (
	"testing"
	"time"

	"zenoh-go/core/wire"
)

func zidOf(t *testing.T, b byte) wire.ZenohID {
	t.Helper()
	zid, err := wire.NewZenohID([]byte{b})
	if err != nil {
		t.Fatal(err)
	}
	return zid
}

func TestPendingRegistryConsolidationNoneForwardsEveryReply(t *testing.T) {
	r := newPendingRegistry()
	var got []Reply
	qid := r.create(wire.ConsolidationNone, 0, func(rep Reply) { got = append(got, rep) }, func() {})
	r.onResponse(qid, Reply{KeyExpr: "a", Timestamp: 1})
	r.onResponse(qid, Reply{KeyExpr: "a", Timestamp: 1})
	if len(got) != 2 {
		t.Fatalf("expected 2 forwarded replies under None, got %d", len(got))
	}
}

func TestPendingRegistryConsolidationMonotonicDropsStaleDuplicate(t *testing.T) {
	r := newPendingRegistry()
	zid := zidOf(t, 1)
	var got []Reply
	qid := r.create(wire.ConsolidationMonotonic, 0, func(rep Reply) { got = append(got, rep) }, func() {})
	r.onResponse(qid, Reply{KeyExpr: "a", Timestamp: 5, ReplierZID: zid})
	r.onResponse(qid, Reply{KeyExpr: "a", Timestamp: 3, ReplierZID: zid}) // stale, dropped
	r.onResponse(qid, Reply{KeyExpr: "a", Timestamp: 7, ReplierZID: zid}) // newer, forwarded
	if len(got) != 2 {
		t.Fatalf("expected 2 forwarded replies under Monotonic, got %d", len(got))
	}
}

func TestPendingRegistryConsolidationLatestFlushesSortedOnFinalize(t *testing.T) {
	r := newPendingRegistry()
	var got []Reply
	var dropped int
	qid := r.create(wire.ConsolidationLatest, 0, func(rep Reply) { got = append(got, rep) }, func() { dropped++ })

	r.onResponse(qid, Reply{KeyExpr: "z", Timestamp: 1})
	r.onResponse(qid, Reply{KeyExpr: "a", Timestamp: 1})
	r.onResponse(qid, Reply{KeyExpr: "a", Timestamp: 2}) // replaces the first "a"
	if len(got) != 0 {
		t.Fatalf("expected no replies forwarded before finalize under Latest, got %d", len(got))
	}

	r.finalize(qid)
	if len(got) != 2 {
		t.Fatalf("expected 2 replies flushed at finalize, got %d", len(got))
	}
	if got[0].KeyExpr != "a" || got[1].KeyExpr != "z" {
		t.Fatalf("expected replies flushed in sorted keyexpr order, got %v", got)
	}
	if got[0].Timestamp != 2 {
		t.Fatalf("expected the newer \"a\" reply to win, got timestamp %d", got[0].Timestamp)
	}
	if dropped != 1 {
		t.Fatalf("expected drop callback exactly once, got %d", dropped)
	}

	// finalize is idempotent: a second call must not re-flush or re-drop.
	r.finalize(qid)
	if dropped != 1 {
		t.Fatal("expected drop callback not to fire again on repeated finalize")
	}
}

func TestPendingRegistryTimeoutFinalizes(t *testing.T) {
	r := newPendingRegistry()
	done := make(chan struct{})
	r.create(wire.ConsolidationNone, 10*time.Millisecond, func(Reply) {}, func() { close(done) })
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected drop callback to fire on timeout")
	}
}

func TestPendingRegistryCancelSkipsFlushAndDropsOnce(t *testing.T) {
	r := newPendingRegistry()
	var got []Reply
	var dropped int
	qid := r.create(wire.ConsolidationLatest, 0, func(rep Reply) { got = append(got, rep) }, func() { dropped++ })
	r.onResponse(qid, Reply{KeyExpr: "a", Timestamp: 1})
	r.cancel(qid)
	if len(got) != 0 {
		t.Fatal("expected cancel to skip flushing buffered replies")
	}
	if dropped != 1 {
		t.Fatalf("expected drop callback exactly once on cancel, got %d", dropped)
	}
	r.finalize(qid) // already removed; must be a no-op
	if dropped != 1 {
		t.Fatal("expected finalize after cancel to be a no-op")
	}
}
