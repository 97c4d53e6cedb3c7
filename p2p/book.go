package p2p

import (
	"log/slog"
	"sync"
	"time"

	"driftnet/observability/logging"
)

const (
	maxDistance          = 4
	maxTimestampDrift    = 10 * time.Minute
	housekeepingInterval = time.Minute
	defaultBanTime       = 10 * time.Minute
	defaultMaxQueryCount = 1000

	// Dial attempts that never resolve to connected or failure are swept
	// after this long so the connecting counter cannot leak.
	connectingTimeout = 3 * housekeepingInterval
)

// BookConfig carries the collaborators and tunables of an AddressBook. Zero
// values pick the defaults above.
type BookConfig struct {
	// Self is the local node address; admissions matching it are dropped.
	Self *PeerAddress
	// Seeds are admitted at construction with a pinned zero timestamp.
	Seeds []*PeerAddress
	// IsOnline reports platform connectivity. Influences whether a
	// remote-initiated disconnect evicts the record.
	IsOnline func() bool
	// Now supplies the clock. Tests inject a manual one.
	Now func() time.Time

	Logger *slog.Logger

	MaxDistance          int
	MaxTimestampDrift    time.Duration
	HousekeepingInterval time.Duration
	ConnectingTimeout    time.Duration
	DefaultBanTime       time.Duration
}

// AddressBook tracks every peer address the node has learned about, scores
// them, and drives their lifecycle through connection attempts. All state is
// guarded by a single mutex; event handlers run to completion under it.
type AddressBook struct {
	cfg      BookConfig
	logger   *slog.Logger
	now      func() time.Time
	isOnline func() bool
	metrics  *bookMetrics

	mu          sync.Mutex
	store       *addressStore
	subscribers []AddedFunc

	quit     chan struct{}
	stopOnce sync.Once
}

// NewAddressBook builds a book and admits the configured seeds.
func NewAddressBook(cfg BookConfig) *AddressBook {
	if cfg.MaxDistance <= 0 {
		cfg.MaxDistance = maxDistance
	}
	if cfg.MaxTimestampDrift <= 0 {
		cfg.MaxTimestampDrift = maxTimestampDrift
	}
	if cfg.HousekeepingInterval <= 0 {
		cfg.HousekeepingInterval = housekeepingInterval
	}
	if cfg.ConnectingTimeout <= 0 {
		cfg.ConnectingTimeout = connectingTimeout
	}
	if cfg.DefaultBanTime <= 0 {
		cfg.DefaultBanTime = defaultBanTime
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	book := &AddressBook{
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "addressbook")),
		now:      cfg.Now,
		isOnline: cfg.IsOnline,
		metrics:  newBookMetrics(),
		store:    newAddressStore(),
		quit:     make(chan struct{}),
	}
	if book.now == nil {
		book.now = time.Now
	}
	if book.isOnline == nil {
		book.isOnline = func() bool { return true }
	}
	for _, seed := range cfg.Seeds {
		if seed == nil {
			continue
		}
		pinned := seed.Copy()
		pinned.Timestamp = 0
		book.Add(nil, pinned)
	}
	return book
}

// Start launches the periodic housekeeping pass.
func (b *AddressBook) Start() {
	go b.housekeepingLoop()
}

// Stop terminates housekeeping. The book stays usable afterwards.
func (b *AddressBook) Stop() {
	b.stopOnce.Do(func() { close(b.quit) })
}

func (b *AddressBook) housekeepingLoop() {
	ticker := time.NewTicker(b.cfg.HousekeepingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			b.Housekeep()
		case <-b.quit:
			return
		}
	}
}

// Add admits one or more gossiped addresses. A nil channel marks a locally
// configured source (seeds) and bypasses the age guard. Returns the addresses
// that were genuinely new; observers receive the same batch exactly once.
func (b *AddressBook) Add(channel *Channel, addresses ...*PeerAddress) []*PeerAddress {
	now := b.now()
	var added []*PeerAddress
	b.mu.Lock()
	for _, addr := range addresses {
		if addr == nil {
			continue
		}
		if b.addLocked(channel, addr.Copy(), now) {
			b.metrics.recordAdmission("new")
			added = append(added, b.store.get(addr).address.Copy())
		}
	}
	b.updateGaugesLocked()
	b.mu.Unlock()
	b.notifyAdded(added)
	return added
}

// addLocked applies the admission rules in order and reports whether the
// address was new to the book.
func (b *AddressBook) addLocked(channel *Channel, addr *PeerAddress, now time.Time) bool {
	// The local node never books itself.
	if b.cfg.Self != nil && addr.Equal(b.cfg.Self) {
		b.rejectLocked(addr, "self")
		return false
	}

	// Gossiped addresses must be fresh. Locally sourced ones (channel nil,
	// i.e. seeds) skip the check.
	if channel != nil && addr.ExceedsAge(now) {
		b.rejectLocked(addr, "stale")
		return false
	}

	// Timestamps from the future hint at clock games; drop them.
	if addr.Timestamp > now.UnixMilli()+b.cfg.MaxTimestampDrift.Milliseconds() {
		b.rejectLocked(addr, "future-timestamp")
		return false
	}

	// Every relay hop adds one to the signaling distance. Addresses beyond
	// the horizon are loops or dead weight; cut the offending route too.
	if addr.Protocol == ProtocolRTC {
		addr.Distance++
		if addr.Distance > b.cfg.MaxDistance {
			if rec := b.store.get(addr); rec != nil && channel != nil {
				rec.removeRoute(channel)
				if len(rec.routes) == 0 {
					b.removeLocked(rec, now, "unroutable")
				}
			}
			b.rejectLocked(addr, "distance")
			return false
		}
	}

	rec := b.store.get(addr)
	if rec != nil {
		if rec.state == stateBanned {
			b.rejectLocked(addr, "banned")
			return false
		}
		// Seed identity survives any gossip about the peer.
		if rec.address.IsSeed() {
			addr.Timestamp = 0
		}
		// Never erase a known endpoint.
		if addr.NetAddr == "" {
			addr.NetAddr = rec.address.NetAddr
		}
		// Older or same-age WS info adds nothing.
		if addr.Protocol == ProtocolWS && rec.address.Timestamp >= addr.Timestamp {
			b.rejectLocked(addr, "outdated")
			return false
		}
	}

	if rec == nil {
		rec = newAddressRecord(addr, now)
		b.store.add(rec)
		if addr.Protocol == ProtocolRTC {
			rec.addRoute(channel, addr.Distance, addr.Timestamp)
		}
		return true
	}

	if addr.Protocol == ProtocolRTC {
		rec.addRoute(channel, addr.Distance, addr.Timestamp)
	}

	// A live connection owns the stored address; gossip may only fill in a
	// missing endpoint.
	if rec.state == stateConnected {
		if rec.address.NetAddr == "" && addr.NetAddr != "" {
			rec.address.NetAddr = addr.NetAddr
		}
		b.metrics.recordAdmission("locked")
		return false
	}

	rec.address = addr
	b.metrics.recordAdmission("updated")
	return false
}

func (b *AddressBook) rejectLocked(addr *PeerAddress, reason string) {
	b.metrics.recordAdmission("rejected")
	b.logger.Debug("Dropping address",
		logging.PeerField("peer_id", addr.PeerID),
		slog.String("protocol", addr.Protocol.String()),
		slog.String("reason", reason))
}

// Connecting records an outbound dial attempt for a known address.
func (b *AddressBook) Connecting(addr *PeerAddress) {
	b.dispatch(addr, lifecycleEvent{kind: eventConnecting})
}

// Connected records an established connection. Unknown peers are booked on the
// spot; inbound connections reference peers the book has never gossiped.
func (b *AddressBook) Connected(channel *Channel, addr *PeerAddress) {
	b.dispatch(addr, lifecycleEvent{kind: eventConnected, channel: channel})
}

// Disconnected records connection teardown. closedByRemote distinguishes the
// remote hanging up from a local close.
func (b *AddressBook) Disconnected(channel *Channel, addr *PeerAddress, closedByRemote bool) {
	b.dispatch(addr, lifecycleEvent{kind: eventDisconnected, channel: channel, closedByRemote: closedByRemote})
}

// Failure records a failed dial or a connection error.
func (b *AddressBook) Failure(addr *PeerAddress) {
	b.dispatch(addr, lifecycleEvent{kind: eventFailure})
}

// Unroutable records that signaling traffic for the peer bounced on the given
// channel.
func (b *AddressBook) Unroutable(channel *Channel, addr *PeerAddress) {
	b.dispatch(addr, lifecycleEvent{kind: eventUnroutable, channel: channel})
}

// Ban excludes a peer for the given duration; non-positive durations pick the
// default ban time.
func (b *AddressBook) Ban(addr *PeerAddress, duration time.Duration) {
	b.dispatch(addr, lifecycleEvent{kind: eventBan, duration: duration})
}

// dispatch resolves the record for an event and hands both to the transition
// function under the lock. Events for unknown records are dropped unless the
// event kind books peers on first contact.
func (b *AddressBook) dispatch(addr *PeerAddress, ev lifecycleEvent) {
	if addr == nil {
		return
	}
	now := b.now()
	b.mu.Lock()
	defer b.mu.Unlock()

	rec := b.store.get(addr)
	if rec == nil {
		switch ev.kind {
		case eventConnected, eventBan:
			rec = newAddressRecord(addr.Copy(), now)
			b.store.add(rec)
		case eventDisconnected:
			// The record may be gone, but the closed channel still
			// invalidates every route through it.
			if ev.channel != nil {
				b.revokeRoutesLocked(ev.channel, now)
				b.updateGaugesLocked()
			}
			return
		default:
			b.logger.Debug("Ignoring event for unknown peer",
				logging.PeerField("peer_id", addr.PeerID),
				slog.String("reason", ev.kind.String()))
			return
		}
	}
	b.applyEventLocked(rec, ev, now)
	b.updateGaugesLocked()
}

// applyEventLocked is the transition function. Mismatched events are silently
// dropped; the network is best-effort.
func (b *AddressBook) applyEventLocked(rec *addressRecord, ev lifecycleEvent, now time.Time) {
	switch ev.kind {
	case eventConnecting:
		switch rec.state {
		case stateNew, stateTried, stateFailed:
			b.setStateLocked(rec, stateConnecting, now)
		}

	case eventConnected:
		if rec.state == stateBanned {
			return
		}
		b.setStateLocked(rec, stateConnected, now)
		rec.failedAttempts = 0
		rec.bannedUntil = time.Time{}
		rec.banBackoff = initialFailedBackoff
		rec.lastSeen = now

	case eventDisconnected:
		if ev.channel != nil {
			b.revokeRoutesLocked(ev.channel, now)
		}
		if rec.state != stateConnected {
			return
		}
		b.setStateLocked(rec, stateTried, now)
		rec.lastSeen = now
		if (ev.closedByRemote && b.isOnline()) || rec.address.Protocol == ProtocolDumb {
			b.removeLocked(rec, now, "disconnect")
		}

	case eventFailure:
		if rec.state == stateBanned {
			return
		}
		rec.failedAttempts++
		b.setStateLocked(rec, stateFailed, now)
		if rec.failedAttempts >= rec.maxFailedAttempts() {
			b.banLocked(rec, rec.nextBanBackoff(), now)
		}

	case eventUnroutable:
		if rec.best == nil || !rec.best.channel.Equal(ev.channel) {
			b.logger.Warn("Unroutable signal on non-best route",
				logging.PeerField("peer_id", rec.address.PeerID))
			return
		}
		rec.removeRoute(rec.best.channel)
		if len(rec.routes) == 0 {
			b.removeLocked(rec, now, "unroutable")
		}

	case eventBan:
		duration := ev.duration
		if duration <= 0 {
			duration = b.cfg.DefaultBanTime
		}
		b.banLocked(rec, duration, now)
	}
}

func (b *AddressBook) setStateLocked(rec *addressRecord, state recordState, now time.Time) {
	if rec.state == state {
		return
	}
	b.store.setState(rec, state)
	rec.stateChangedAt = now
}

// banLocked moves a record into the banned state. Banned records keep their
// store slot so the ban is honored; their routes are useless and dropped.
func (b *AddressBook) banLocked(rec *addressRecord, duration time.Duration, now time.Time) {
	b.setStateLocked(rec, stateBanned, now)
	rec.bannedUntil = now.Add(duration)
	rec.clearRoutes()
	b.metrics.recordBan()
}

// removeLocked evicts a record. Seeds are never deleted: they are banned for
// the current backoff instead, which keeps their identity while taking them
// out of selection.
func (b *AddressBook) removeLocked(rec *addressRecord, now time.Time, cause string) {
	if rec.address.IsSeed() {
		b.banLocked(rec, rec.banBackoff, now)
		return
	}
	if rec.state == stateBanned {
		return
	}
	b.store.remove(rec)
	b.metrics.recordEviction(cause)
}

// revokeRoutesLocked drops every route through the given channel. RTC records
// left without a path are evicted.
func (b *AddressBook) revokeRoutesLocked(channel *Channel, now time.Time) {
	var orphaned []*addressRecord
	for _, rec := range b.store.byID {
		if rec.address.Protocol != ProtocolRTC || !rec.hasRoute(channel) {
			continue
		}
		rec.removeRoute(channel)
		if len(rec.routes) == 0 {
			orphaned = append(orphaned, rec)
		}
	}
	for _, rec := range orphaned {
		b.removeLocked(rec, now, "unroutable")
	}
}

// IsConnected reports whether the peer currently holds a live connection.
func (b *AddressBook) IsConnected(addr *PeerAddress) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	rec := b.store.get(addr)
	return rec != nil && rec.state == stateConnected
}

// IsBanned reports whether the peer is excluded from selection. Seeds always
// report false: their bans are internal retry throttles, not exclusions.
func (b *AddressBook) IsBanned(addr *PeerAddress) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	rec := b.store.get(addr)
	if rec == nil || rec.address.IsSeed() {
		return false
	}
	return rec.state == stateBanned
}

// FindBySignalID resolves the booked address for a signaling overlay name.
func (b *AddressBook) FindBySignalID(signalID string) *PeerAddress {
	b.mu.Lock()
	defer b.mu.Unlock()
	rec := b.store.getBySignalID(signalID)
	if rec == nil {
		return nil
	}
	return rec.address.Copy()
}

// ConnectingCount returns the number of dial attempts in flight.
func (b *AddressBook) ConnectingCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.store.connectingCount()
}

// Size returns the number of booked addresses.
func (b *AddressBook) Size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.store.size()
}

func (b *AddressBook) updateGaugesLocked() {
	counts := make(map[Protocol]int, 3)
	for _, rec := range b.store.byID {
		counts[rec.address.Protocol]++
	}
	for _, proto := range []Protocol{ProtocolWS, ProtocolRTC, ProtocolDumb} {
		b.metrics.setKnown(proto, counts[proto])
	}
	b.metrics.setConnecting(b.store.connectingCount())
}
