package p2p

import "time"

// Housekeep runs one garbage-collection and refresh pass over the book. The
// ticker started by Start calls this every housekeeping interval; tests call
// it directly with an injected clock.
func (b *AddressBook) Housekeep() {
	now := b.now()
	var unbanned []*PeerAddress

	b.mu.Lock()
	var aged, expired, stuck []*addressRecord
	for _, rec := range b.store.byID {
		switch rec.state {
		case stateNew, stateTried, stateFailed:
			if rec.address.ExceedsAge(now) {
				aged = append(aged, rec)
			}

		case stateBanned:
			if rec.bannedUntil.After(now) {
				continue
			}
			if rec.address.IsSeed() || rec.failedAttempts >= rec.maxFailedAttempts() {
				// Worth another try: back to the pool with a clean
				// failure slate.
				b.setStateLocked(rec, stateNew, now)
				rec.failedAttempts = 0
				rec.bannedUntil = time.Time{}
				if !rec.address.IsSeed() {
					unbanned = append(unbanned, rec.address.Copy())
				}
			} else {
				expired = append(expired, rec)
			}

		case stateConnected:
			// Live peers vouch for themselves.
			rec.address.Timestamp = now.UnixMilli()
			rec.lastSeen = now
			if rec.best != nil {
				rec.best.timestamp = now.UnixMilli()
			}

		case stateConnecting:
			if now.Sub(rec.stateChangedAt) > b.cfg.ConnectingTimeout {
				stuck = append(stuck, rec)
			}
		}
	}
	for _, rec := range aged {
		b.removeLocked(rec, now, "aged")
	}
	for _, rec := range expired {
		b.store.remove(rec)
		b.metrics.recordEviction("ban-expired")
	}
	for _, rec := range stuck {
		// A dial that neither connected nor failed is a failure; routing
		// it through the normal transition keeps the counter honest.
		b.applyEventLocked(rec, lifecycleEvent{kind: eventFailure}, now)
	}
	b.updateGaugesLocked()
	b.mu.Unlock()

	b.notifyAdded(unbanned)
}
