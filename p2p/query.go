package p2p

import "sort"

// Query returns up to max addresses suitable for dialing or gossip: peers that
// are not banned, not failed, not seeds, match the protocol and service masks,
// and have not aged out. Connected peers vouch for themselves, so their
// timestamps are refreshed rather than letting them filter out as stale.
//
// The result is ordered deterministically: fewest failed attempts first, then
// most recently seen, then shortest signaling distance.
func (b *AddressBook) Query(protocolMask Protocol, serviceMask ServiceFlag, max int) []*PeerAddress {
	if max <= 0 {
		max = defaultMaxQueryCount
	}
	now := b.now()

	b.mu.Lock()
	eligible := make([]*addressRecord, 0, b.store.size())
	for _, rec := range b.store.byID {
		if rec.state == stateBanned || rec.state == stateFailed {
			continue
		}
		addr := rec.address
		if addr.IsSeed() {
			continue
		}
		if addr.Protocol&protocolMask == 0 {
			continue
		}
		if !addr.Services.Provides(serviceMask) {
			continue
		}
		if rec.state == stateConnected && addr.ExceedsAge(now) {
			addr.Timestamp = now.UnixMilli()
		}
		if addr.ExceedsAge(now) {
			continue
		}
		eligible = append(eligible, rec)
	}

	sort.Slice(eligible, func(i, j int) bool {
		ri, rj := eligible[i], eligible[j]
		if ri.failedAttempts != rj.failedAttempts {
			return ri.failedAttempts < rj.failedAttempts
		}
		if !ri.lastSeen.Equal(rj.lastSeen) {
			return ri.lastSeen.After(rj.lastSeen)
		}
		if ri.address.Distance != rj.address.Distance {
			return ri.address.Distance < rj.address.Distance
		}
		return ri.address.PeerID < rj.address.PeerID
	})

	if len(eligible) > max {
		eligible = eligible[:max]
	}
	out := make([]*PeerAddress, len(eligible))
	for i, rec := range eligible {
		out[i] = rec.address.Copy()
	}
	b.mu.Unlock()
	return out
}

// BookStats is an operator-facing snapshot of the book contents.
type BookStats struct {
	Total      int
	Connecting int
	Connected  int
	Banned     int
	Failed     int
	Seeds      int
}

// Stats counts booked records by state.
func (b *AddressBook) Stats() BookStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	stats := BookStats{Total: b.store.size(), Connecting: b.store.connectingCount()}
	for _, rec := range b.store.byID {
		switch rec.state {
		case stateConnected:
			stats.Connected++
		case stateBanned:
			stats.Banned++
		case stateFailed:
			stats.Failed++
		}
		if rec.address.IsSeed() {
			stats.Seeds++
		}
	}
	return stats
}
