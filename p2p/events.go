package p2p

import "time"

// eventKind tags the lifecycle events the connection layer feeds into the
// book. Transitions dispatch on the tag, never on the calling method.
type eventKind uint8

const (
	eventConnecting eventKind = iota
	eventConnected
	eventDisconnected
	eventFailure
	eventUnroutable
	eventBan
)

func (k eventKind) String() string {
	switch k {
	case eventConnecting:
		return "connecting"
	case eventConnected:
		return "connected"
	case eventDisconnected:
		return "disconnected"
	case eventFailure:
		return "failure"
	case eventUnroutable:
		return "unroutable"
	case eventBan:
		return "ban"
	default:
		return "unknown"
	}
}

// lifecycleEvent is the tagged payload handed to the transition function.
// Only the fields relevant to the tag are set.
type lifecycleEvent struct {
	kind           eventKind
	channel        *Channel
	closedByRemote bool
	duration       time.Duration
}

// AddedFunc receives the batch of addresses that just became queryable, either
// through admission or through a housekeeping unban.
type AddedFunc func(addresses []*PeerAddress)

// Subscribe registers a listener for newly queryable addresses. Callbacks run
// outside the book lock, one batch per admission call or housekeeping pass.
func (b *AddressBook) Subscribe(fn AddedFunc) {
	if fn == nil {
		return
	}
	b.mu.Lock()
	b.subscribers = append(b.subscribers, fn)
	b.mu.Unlock()
}

func (b *AddressBook) notifyAdded(addresses []*PeerAddress) {
	if len(addresses) == 0 {
		return
	}
	b.mu.Lock()
	subs := make([]AddedFunc, len(b.subscribers))
	copy(subs, b.subscribers)
	b.mu.Unlock()
	for _, fn := range subs {
		fn(addresses)
	}
}
