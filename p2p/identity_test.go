package p2p

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadOrCreateIdentityRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "node_key.json")

	created, err := LoadOrCreateIdentity(path)
	if err != nil {
		t.Fatalf("create identity: %v", err)
	}
	if !strings.HasPrefix(created.PeerID, "0x") || len(created.PeerID) != 66 {
		t.Fatalf("expected 32-byte hex peer ID, got %q", created.PeerID)
	}

	loaded, err := LoadOrCreateIdentity(path)
	if err != nil {
		t.Fatalf("reload identity: %v", err)
	}
	if loaded.PeerID != created.PeerID {
		t.Fatalf("expected stable peer ID across reloads")
	}
}

func TestLoadOrCreateIdentityRequiresPath(t *testing.T) {
	if _, err := LoadOrCreateIdentity("  "); err == nil {
		t.Fatalf("expected empty path to be rejected")
	}
}

func TestSelfAddress(t *testing.T) {
	path := filepath.Join(t.TempDir(), "node_key.json")
	id, err := LoadOrCreateIdentity(path)
	if err != nil {
		t.Fatalf("create identity: %v", err)
	}
	self := id.SelfAddress(ProtocolWS, "203.0.113.9:7331", ServiceRelay, 1_700_000_000_000)
	if self.PeerID != id.PeerID {
		t.Fatalf("expected self address to carry the identity")
	}
	if self.Protocol != ProtocolWS || self.NetAddr != "203.0.113.9:7331" {
		t.Fatalf("unexpected self address %v", self)
	}
}
