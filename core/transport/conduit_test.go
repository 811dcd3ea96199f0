package transport

import "testing"

func TestConduitNextTxIncrements(t *testing.T) {
	c := newConduit(1 << 28)
	if sn := c.nextTx(); sn != 0 {
		t.Fatalf("first sn = %d, want 0", sn)
	}
	if sn := c.nextTx(); sn != 1 {
		t.Fatalf("second sn = %d, want 1", sn)
	}
}

func TestConduitAcceptReliableInOrder(t *testing.T) {
	c := newConduit(1 << 28)
	for sn := uint64(0); sn < 5; sn++ {
		if err := c.acceptReliable(sn); err != nil {
			t.Fatalf("sn %d: %v", sn, err)
		}
	}
}

func TestConduitAcceptReliableRejectsGap(t *testing.T) {
	c := newConduit(1 << 28)
	if err := c.acceptReliable(0); err != nil {
		t.Fatal(err)
	}
	if err := c.acceptReliable(2); err == nil {
		t.Fatal("expected protocol error on sn gap")
	}
}

func TestConduitAcceptReliableRejectsReplay(t *testing.T) {
	c := newConduit(1 << 28)
	if err := c.acceptReliable(0); err != nil {
		t.Fatal(err)
	}
	if err := c.acceptReliable(1); err != nil {
		t.Fatal(err)
	}
	if err := c.acceptReliable(0); err == nil {
		t.Fatal("expected protocol error on replayed sn")
	}
}

func TestConduitAcceptBestEffortPermissive(t *testing.T) {
	c := newConduit(1 << 28)
	c.acceptBestEffort(0)
	c.acceptBestEffort(5) // gap is fine for best-effort
	c.acceptBestEffort(3) // out of order is fine, just doesn't advance
	if c.rxNext != 5 {
		t.Fatalf("rxNext = %d, want 5", c.rxNext)
	}
}
