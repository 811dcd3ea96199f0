package wire

import (
	"bytes"
	"reflect"
	"testing"
)

func roundTrip(t *testing.T, msg Message, exts []Extension) {
	t.Helper()
	encoded := Encode(msg, exts)
	got, gotExts, n, err := Decode(encoded)
	if err != nil {
		t.Fatalf("decode(%T): %v", msg, err)
	}
	if n != len(encoded) {
		t.Fatalf("decode(%T) consumed %d of %d bytes", msg, n, len(encoded))
	}
	if !reflect.DeepEqual(got, msg) {
		t.Fatalf("decode(%T) = %#v, want %#v", msg, got, msg)
	}
	if len(exts) == 0 {
		if len(gotExts) != 0 {
			t.Fatalf("expected no extensions, got %v", gotExts)
		}
	}
	reEncoded := Encode(got, gotExts)
	if !bytes.Equal(reEncoded, encoded) {
		t.Fatalf("re-encode(%T) not byte-identical", msg)
	}
}

func TestCodecRoundTripCatalogue(t *testing.T) {
	zid, err := NewZenohID([]byte{1, 2, 3, 4})
	if err != nil {
		t.Fatal(err)
	}

	msgs := []Message{
		Scout{Version: ProtocolVersion, What: WhatPeer | WhatClient},
		Hello{Version: ProtocolVersion, What: WhatRouter, ZID: zid, Locators: []string{"tcp/127.0.0.1:7447"}},
		InitSyn{Version: ProtocolVersion, Whatami: WhatClient, ZID: zid, SnResolution: 1 << 28, BatchSize: 2048},
		InitAck{Version: ProtocolVersion, Whatami: WhatRouter, ZID: zid, SnResolution: 1 << 28, BatchSize: 2048, Cookie: []byte("cookie")},
		OpenSyn{Lease: 10000, Cookie: []byte("cookie")},
		OpenAck{Lease: 10000},
		Close{Reason: 1, LinkOnly: false},
		Close{Reason: 2, LinkOnly: true},
		KeepAlive{},
		Join{Whatami: WhatPeer, ZID: zid, Lease: 10000, SnResolution: 1 << 28, NextSNReliable: 0, NextSNBestEff: 0},
		Frame{Reliable: true, SN: 42, Payload: []byte("hello")},
		Fragment{Reliable: true, More: true, SN: 7, Payload: []byte("part1")},
		Fragment{Reliable: false, More: false, SN: 7, Payload: []byte("part2")},
		Push{IsPut: true, Key: WireKeyExpr{RID: 1, Suffix: "/baz"}, Payload: []byte("x"), Encoding: Encoding{Suffix: "text/plain"}},
		Push{IsPut: false, Key: WireKeyExpr{RID: 0, Suffix: "demo/example/a"}},
		Request{QID: 1, Key: WireKeyExpr{RID: 0, Suffix: "demo/**"}, Selector: "a=1;bee=string", Target: TargetAll, Consolidation: ConsolidationLatest, Payload: []byte("q")},
		Response{QID: 1, Key: WireKeyExpr{RID: 0, Suffix: "demo/example/a"}, Payload: []byte("v"), Encoding: Encoding{Suffix: "text/plain"}, Timestamp: 123, ReplierZID: zid},
		ResponseFinal{QID: 1},
		OAM{ID: 9, Payload: []byte("oam")},
		Declare{Bodies: []DeclareBody{
			DeclareKeyExpr{ID: 1, Key: WireKeyExpr{Suffix: "foo/bar"}},
			UndeclareKeyExpr{ID: 1},
			DeclareSubscriber{EntityID: 2, Key: WireKeyExpr{Suffix: "demo/**"}},
			UndeclareSubscriber{EntityID: 2},
			DeclareQueryable{EntityID: 3, Key: WireKeyExpr{Suffix: "demo/**"}, Complete: true, Distance: 0},
			UndeclareQueryable{EntityID: 3},
			DeclareToken{EntityID: 4, Key: WireKeyExpr{Suffix: "demo/liveliness"}},
			UndeclareToken{EntityID: 4},
			DeclareFinal{},
		}},
	}

	for _, m := range msgs {
		roundTrip(t, m, nil)
	}
}

func TestCodecResourceRegisterExpandScenario(t *testing.T) {
	// Scenario 2 of spec §8: register key foo/bar -> RID 1; encode and
	// decode Push(rid=1, suffix="/baz", payload="x"); resolve remote
	// side -> foo/bar/baz is the session layer's job, but the codec
	// must round-trip the wire shape that makes that resolution
	// possible.
	push := Push{IsPut: true, Key: WireKeyExpr{RID: 1, Suffix: "/baz"}, Payload: []byte("x"), Encoding: Encoding{Suffix: "application/octet-stream"}}
	encoded := Encode(push, nil)
	got, _, _, err := Decode(encoded)
	if err != nil {
		t.Fatal(err)
	}
	gp := got.(Push)
	if gp.Key.RID != 1 || gp.Key.Suffix != "/baz" || string(gp.Payload) != "x" {
		t.Fatalf("unexpected decode: %#v", gp)
	}
}

func TestDecodeMalformedNeverPanics(t *testing.T) {
	inputs := [][]byte{
		nil,
		{0xff},
		{byte(IDPush)},
		{byte(IDDeclare), 0xff},
		{0x1f}, // unknown id within 5 bits but unused
	}
	for _, in := range inputs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Fatalf("Decode panicked on %v: %v", in, r)
				}
			}()
			if _, _, _, err := Decode(in); err == nil && len(in) < 2 {
				t.Fatalf("expected error decoding short input %v", in)
			}
		}()
	}
}

func TestExtensionChainMandatoryUnknownFails(t *testing.T) {
	msg := KeepAlive{}
	exts := []Extension{{ID: 30, Mandatory: true, Body: []byte("x")}}
	encoded := Encode(msg, exts)
	if _, _, _, err := Decode(encoded); err == nil {
		t.Fatal("expected MalformedMessage on unknown mandatory extension")
	}
}

func TestExtensionChainUnknownOptionalSkipped(t *testing.T) {
	msg := KeepAlive{}
	exts := []Extension{{ID: 30, Mandatory: false, Body: []byte("x")}}
	encoded := Encode(msg, exts)
	got, gotExts, _, err := Decode(encoded)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := got.(KeepAlive); !ok {
		t.Fatalf("expected KeepAlive, got %T", got)
	}
	if len(gotExts) != 0 {
		t.Fatalf("expected unknown optional extension to be dropped, got %v", gotExts)
	}
}

func TestFragmentChainAndDefragment(t *testing.T) {
	original := bytes.Repeat([]byte("zenoh-go fragmentation "), 100)
	frags := FragmentChain(original, 5, true, 37)
	if len(frags) < 2 {
		t.Fatalf("expected multiple fragments, got %d", len(frags))
	}

	var d Defragmenter
	var reassembled []byte
	for i, f := range frags {
		out, done, err := d.Push(f)
		if err != nil {
			t.Fatal(err)
		}
		if i < len(frags)-1 {
			if done {
				t.Fatalf("fragment %d should not complete the chain", i)
			}
			continue
		}
		if !done {
			t.Fatal("last fragment should complete the chain")
		}
		reassembled = out
	}
	if !bytes.Equal(reassembled, original) {
		t.Fatal("reassembled payload does not match original")
	}
}

func TestDefragmenterSNMismatchResets(t *testing.T) {
	var d Defragmenter
	if _, _, err := d.Push(Fragment{SN: 1, More: true, Payload: []byte("a")}); err != nil {
		t.Fatal(err)
	}
	if _, _, err := d.Push(Fragment{SN: 2, More: false, Payload: []byte("b")}); err == nil {
		t.Fatal("expected sn mismatch error")
	}
}
