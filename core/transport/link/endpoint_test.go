package link

import "testing"

func TestParseEndpointTCP(t *testing.T) {
	ep, err := ParseEndpoint("tcp/127.0.0.1:7447")
	if err != nil {
		t.Fatal(err)
	}
	if ep.Protocol != "tcp" || ep.Address != "127.0.0.1:7447" || ep.Interface != "" {
		t.Fatalf("unexpected endpoint: %+v", ep)
	}
}

func TestParseEndpointUDPWithInterface(t *testing.T) {
	ep, err := ParseEndpoint("udp/224.0.0.224:7447#iface=eth0")
	if err != nil {
		t.Fatal(err)
	}
	if ep.Protocol != "udp" || ep.Address != "224.0.0.224:7447" || ep.Interface != "eth0" {
		t.Fatalf("unexpected endpoint: %+v", ep)
	}
	if !ep.IsMulticast() {
		t.Fatal("expected multicast address to be detected")
	}
}

func TestParseEndpointRejectsMalformed(t *testing.T) {
	for _, in := range []string{"", "127.0.0.1:7447", "sctp/127.0.0.1:7447", "tcp/", "tcp/127.0.0.1:7447#iface=eth0"} {
		if _, err := ParseEndpoint(in); err == nil {
			t.Fatalf("ParseEndpoint(%q): expected error", in)
		}
	}
}

func TestEndpointIsMulticastUnicastAddr(t *testing.T) {
	ep, err := ParseEndpoint("udp/10.0.0.5:7447")
	if err != nil {
		t.Fatal(err)
	}
	if ep.IsMulticast() {
		t.Fatal("expected unicast address not to be flagged multicast")
	}
}
