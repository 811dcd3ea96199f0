package link

import (
	"bytes"
	"context"
	"net"
	"testing"
	"time"
)

func startEchoListener(t *testing.T) (net.Listener, chan *TCPLink) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	accepted := make(chan *TCPLink, 1)
	go func() {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		accepted <- NewTCPLink(c, DefaultMTU)
	}()
	return ln, accepted
}

func TestTCPLinkWriteReadRoundTrip(t *testing.T) {
	ln, accepted := startEchoListener(t)
	defer ln.Close()

	d := NewDialer(time.Second, 0)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	client, err := d.Dial(ctx, ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	server := <-accepted
	defer server.Close()

	payload := []byte("InitSyn")
	if err := client.Write(payload); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := server.Read()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("got %q, want %q", got, payload)
	}
	if !client.Reliable() || !client.Streamed() || client.Multicast() {
		t.Fatal("unexpected capability triple for TCP link")
	}
}

func TestTCPLinkReadTimeoutWakesLeaseTask(t *testing.T) {
	ln, accepted := startEchoListener(t)
	defer ln.Close()

	d := NewDialer(time.Second, 0)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	client, err := d.Dial(ctx, ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()
	server := <-accepted
	defer server.Close()

	server.SetReadTimeout(20 * time.Millisecond)
	if _, err := server.Read(); err == nil {
		t.Fatal("expected read timeout error with nothing written")
	}
}
