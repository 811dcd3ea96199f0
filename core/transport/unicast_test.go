package transport

import (
	"net"
	"testing"
	"time"

	tlink "zenoh-go/core/transport/link"
	"zenoh-go/core/wire"
)

func handshakeLinks(t *testing.T) (*tlink.TCPLink, *tlink.TCPLink) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	serverCh := make(chan *tlink.TCPLink, 1)
	go func() {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		serverCh <- tlink.NewTCPLink(c, tlink.DefaultMTU)
	}()

	clientConn, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	client := tlink.NewTCPLink(clientConn, tlink.DefaultMTU)
	server := <-serverCh
	return client, server
}

func TestUnicastHandshakeEstablishes(t *testing.T) {
	clientLink, serverLink := handshakeLinks(t)

	clientZID, _ := wire.NewZenohID([]byte{1})
	serverZID, _ := wire.NewZenohID([]byte{2})

	serverDone := make(chan *UnicastTransport, 1)
	go func() {
		srv, err := AcceptServer(serverLink, HandshakeParams{
			ZID: serverZID, Whatami: wire.WhatRouter,
			SnResolution: 1 << 28, BatchSize: 2048, Lease: 1000,
		}, []byte("cookie"), nil, nil)
		if err != nil {
			t.Errorf("AcceptServer: %v", err)
			return
		}
		serverDone <- srv
	}()

	client, err := OpenClient(clientLink, HandshakeParams{
		ZID: clientZID, Whatami: wire.WhatClient,
		SnResolution: 1 << 28, BatchSize: 2048, Lease: 1000,
	}, nil, nil)
	if err != nil {
		t.Fatalf("OpenClient: %v", err)
	}
	defer client.Close()

	server := <-serverDone
	defer server.Close()

	if client.CurrentState() != StateEstablished {
		t.Fatalf("client state = %v, want Established", client.CurrentState())
	}
	if !client.Remote().Equal(serverZID) {
		t.Fatalf("client remote zid = %v, want %v", client.Remote(), serverZID)
	}
}

func TestUnicastSendReliableDispatches(t *testing.T) {
	clientLink, serverLink := handshakeLinks(t)
	clientZID, _ := wire.NewZenohID([]byte{1})
	serverZID, _ := wire.NewZenohID([]byte{2})

	received := make(chan wire.Message, 1)
	serverDone := make(chan *UnicastTransport, 1)
	go func() {
		srv, err := AcceptServer(serverLink, HandshakeParams{
			ZID: serverZID, Whatami: wire.WhatRouter,
			SnResolution: 1 << 28, BatchSize: 2048, Lease: 5000,
		}, []byte("cookie"), func(m wire.Message) { received <- m }, nil)
		if err != nil {
			t.Errorf("AcceptServer: %v", err)
			return
		}
		serverDone <- srv
	}()

	client, err := OpenClient(clientLink, HandshakeParams{
		ZID: clientZID, Whatami: wire.WhatClient,
		SnResolution: 1 << 28, BatchSize: 2048, Lease: 5000,
	}, nil, nil)
	if err != nil {
		t.Fatalf("OpenClient: %v", err)
	}
	defer client.Close()
	server := <-serverDone
	defer server.Close()

	push := wire.Push{IsPut: true, Key: wire.WireKeyExpr{Suffix: "demo/example/a"}, Payload: []byte("x")}
	if err := client.SendReliable(wire.Encode(push, nil)); err != nil {
		t.Fatalf("SendReliable: %v", err)
	}

	select {
	case msg := <-received:
		got, ok := msg.(wire.Push)
		if !ok {
			t.Fatalf("expected Push, got %T", msg)
		}
		if string(got.Payload) != "x" {
			t.Fatalf("unexpected payload %q", got.Payload)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for dispatch")
	}
}

func TestUnicastReliableSNViolationClosesSession(t *testing.T) {
	clientLink, serverLink := handshakeLinks(t)
	clientZID, _ := wire.NewZenohID([]byte{1})
	serverZID, _ := wire.NewZenohID([]byte{2})

	disconnected := make(chan string, 1)
	serverDone := make(chan *UnicastTransport, 1)
	go func() {
		srv, err := AcceptServer(serverLink, HandshakeParams{
			ZID: serverZID, Whatami: wire.WhatRouter,
			SnResolution: 1 << 28, BatchSize: 2048, Lease: 5000,
		}, []byte("cookie"), func(wire.Message) {}, func(reason string) { disconnected <- reason })
		if err != nil {
			t.Errorf("AcceptServer: %v", err)
			return
		}
		serverDone <- srv
	}()

	client, err := OpenClient(clientLink, HandshakeParams{
		ZID: clientZID, Whatami: wire.WhatClient,
		SnResolution: 1 << 28, BatchSize: 2048, Lease: 5000,
	}, nil, nil)
	if err != nil {
		t.Fatalf("OpenClient: %v", err)
	}
	defer client.Close()
	server := <-serverDone
	defer server.Close()

	// Fabricate a reliable frame with sn=5 directly on the wire,
	// skipping the conduit's own counter, to trigger the protocol
	// violation path on the server's read task.
	bad := wire.Frame{Reliable: true, SN: 5, Payload: wire.Encode(wire.KeepAlive{}, nil)}
	if err := clientLink.Write(wire.Encode(bad, nil)); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case reason := <-disconnected:
		if reason != "reliable sn violation" {
			t.Fatalf("unexpected disconnect reason %q", reason)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for disconnect")
	}
}
