package p2p

import (
	"fmt"
	"strings"
	"time"
)

// Protocol identifies the transport a peer is reachable over. Values are bit
// flags so queries can match several transports with a single mask.
type Protocol uint8

const (
	ProtocolNone Protocol = 0
	ProtocolWS   Protocol = 1 << 0
	ProtocolRTC  Protocol = 1 << 1
	ProtocolDumb Protocol = 1 << 2
)

func (p Protocol) String() string {
	switch p {
	case ProtocolWS:
		return "ws"
	case ProtocolRTC:
		return "rtc"
	case ProtocolDumb:
		return "dumb"
	default:
		return fmt.Sprintf("protocol(%d)", uint8(p))
	}
}

// ServiceFlag is a bitmask advertising the services a peer offers.
type ServiceFlag uint32

const (
	ServiceNone    ServiceFlag = 0
	ServiceRelay   ServiceFlag = 1 << 0
	ServiceArchive ServiceFlag = 1 << 1
	ServiceLight   ServiceFlag = 1 << 2
)

// Provides reports whether every service bit in mask is advertised.
func (s ServiceFlag) Provides(mask ServiceFlag) bool {
	return s&mask == mask
}

// Maximum tolerated address age per transport. Dumb clients cannot accept
// inbound connections, so their addresses go stale almost immediately.
const (
	maxAgeWS   = 30 * time.Minute
	maxAgeRTC  = 10 * time.Minute
	maxAgeDumb = time.Minute
)

// PeerAddress identifies a remote peer and how to reach it. Two addresses are
// considered the same peer iff their PeerIDs match. A zero Timestamp marks a
// seed: a bootstrap entry configured at startup that is never evicted.
type PeerAddress struct {
	Protocol Protocol
	// PeerID is the hex-encoded hash of the peer public key.
	PeerID string
	// NetAddr is the host:port the peer listens on, when known.
	NetAddr string
	// Timestamp is the advertised freshness in milliseconds since epoch.
	Timestamp int64
	Services  ServiceFlag

	// SignalID names the peer on the signaling overlay. RTC only.
	SignalID string
	// Distance counts signaling hops from the local node. RTC only.
	Distance int
}

// Equal reports whether both addresses name the same peer.
func (a *PeerAddress) Equal(other *PeerAddress) bool {
	if a == nil || other == nil {
		return a == other
	}
	return a.PeerID == other.PeerID
}

// IsSeed reports whether the address is a configured bootstrap entry.
func (a *PeerAddress) IsSeed() bool {
	return a.Timestamp == 0
}

// MaxAge returns the staleness bound for the address transport.
func (a *PeerAddress) MaxAge() time.Duration {
	switch a.Protocol {
	case ProtocolRTC:
		return maxAgeRTC
	case ProtocolDumb:
		return maxAgeDumb
	default:
		return maxAgeWS
	}
}

// ExceedsAge reports whether the advertised timestamp is older than the
// transport allows. Seeds carry a pinned zero timestamp and never age out.
func (a *PeerAddress) ExceedsAge(now time.Time) bool {
	if a.IsSeed() {
		return false
	}
	return now.UnixMilli()-a.Timestamp > a.MaxAge().Milliseconds()
}

// Copy returns an independent copy of the address.
func (a *PeerAddress) Copy() *PeerAddress {
	if a == nil {
		return nil
	}
	dup := *a
	return &dup
}

func (a *PeerAddress) String() string {
	var b strings.Builder
	b.WriteString(a.Protocol.String())
	b.WriteString("://")
	if a.NetAddr != "" {
		b.WriteString(a.NetAddr)
		b.WriteString("/")
	}
	b.WriteString(shortID(a.PeerID))
	return b.String()
}

func shortID(id string) string {
	const max = 12
	trimmed := strings.TrimPrefix(id, "0x")
	if len(trimmed) <= max {
		return trimmed
	}
	return trimmed[:max]
}
