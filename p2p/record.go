package p2p

import "time"

type recordState uint8

const (
	stateNew recordState = iota
	stateConnecting
	stateConnected
	stateTried
	stateFailed
	stateBanned
)

func (s recordState) String() string {
	switch s {
	case stateNew:
		return "new"
	case stateConnecting:
		return "connecting"
	case stateConnected:
		return "connected"
	case stateTried:
		return "tried"
	case stateFailed:
		return "failed"
	case stateBanned:
		return "banned"
	default:
		return "unknown"
	}
}

// Failure budget per transport before a record self-bans. Dumb clients have no
// budget: a single failure bans them.
const (
	maxFailedAttemptsWS  = 3
	maxFailedAttemptsRTC = 2
)

const (
	initialFailedBackoff = 15 * time.Second
	maxFailedBackoff     = 10 * time.Minute
)

// route is one path to an RTC peer: an open connection that relays signaling
// traffic, the hop count through it, and the freshness of that information.
type route struct {
	channel   *Channel
	distance  int
	timestamp int64
}

// addressRecord is the authoritative per-peer entry. All fields are guarded by
// the book mutex; records are never handed out of the book, callers only see
// address copies.
type addressRecord struct {
	address *PeerAddress
	state   recordState

	routes []*route
	best   *route

	failedAttempts int
	bannedUntil    time.Time
	banBackoff     time.Duration

	addedAt        time.Time
	lastSeen       time.Time
	stateChangedAt time.Time
}

func newAddressRecord(addr *PeerAddress, now time.Time) *addressRecord {
	return &addressRecord{
		address:        addr,
		state:          stateNew,
		banBackoff:     initialFailedBackoff,
		addedAt:        now,
		lastSeen:       now,
		stateChangedAt: now,
	}
}

func (r *addressRecord) maxFailedAttempts() int {
	switch r.address.Protocol {
	case ProtocolWS:
		return maxFailedAttemptsWS
	case ProtocolRTC:
		return maxFailedAttemptsRTC
	default:
		return 0
	}
}

// addRoute merges a signaling path into the route set. A second observation
// through the same channel refreshes the existing entry instead of growing the
// set.
func (r *addressRecord) addRoute(ch *Channel, distance int, timestamp int64) {
	if ch == nil {
		return
	}
	for _, rt := range r.routes {
		if rt.channel.Equal(ch) {
			rt.distance = distance
			rt.timestamp = timestamp
			r.updateBestRoute()
			return
		}
	}
	r.routes = append(r.routes, &route{channel: ch, distance: distance, timestamp: timestamp})
	r.updateBestRoute()
}

// removeRoute drops the path through the given channel, if any.
func (r *addressRecord) removeRoute(ch *Channel) {
	for i, rt := range r.routes {
		if rt.channel.Equal(ch) {
			r.routes = append(r.routes[:i], r.routes[i+1:]...)
			r.updateBestRoute()
			return
		}
	}
}

func (r *addressRecord) clearRoutes() {
	r.routes = nil
	r.best = nil
}

func (r *addressRecord) hasRoute(ch *Channel) bool {
	for _, rt := range r.routes {
		if rt.channel.Equal(ch) {
			return true
		}
	}
	return false
}

// updateBestRoute recomputes the cached best route: lowest distance wins, ties
// broken by the most recent timestamp.
func (r *addressRecord) updateBestRoute() {
	var best *route
	for _, rt := range r.routes {
		if best == nil || rt.distance < best.distance ||
			(rt.distance == best.distance && rt.timestamp > best.timestamp) {
			best = rt
		}
	}
	r.best = best
	if best != nil {
		r.address.Distance = best.distance
	}
}

// nextBanBackoff returns the current self-ban duration and doubles the stored
// backoff up to its cap.
func (r *addressRecord) nextBanBackoff() time.Duration {
	current := r.banBackoff
	doubled := current * 2
	if doubled > maxFailedBackoff {
		doubled = maxFailedBackoff
	}
	r.banBackoff = doubled
	return current
}
