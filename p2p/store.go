package p2p

// addressStore is the indexed container behind the book. The primary index
// maps PeerID to record; RTC records are additionally reachable through their
// signaling ID. The store also maintains the count of records currently in
// the connecting state so dial scheduling can read it in O(1).
type addressStore struct {
	byID       map[string]*addressRecord
	bySignalID map[string]*addressRecord
	connecting int
}

func newAddressStore() *addressStore {
	return &addressStore{
		byID:       make(map[string]*addressRecord),
		bySignalID: make(map[string]*addressRecord),
	}
}

func (s *addressStore) get(addr *PeerAddress) *addressRecord {
	if addr == nil {
		return nil
	}
	return s.byID[addr.PeerID]
}

func (s *addressStore) getBySignalID(signalID string) *addressRecord {
	if signalID == "" {
		return nil
	}
	return s.bySignalID[signalID]
}

// add inserts a record, rejecting duplicates. RTC records are indexed by
// signaling ID as well.
func (s *addressStore) add(rec *addressRecord) bool {
	if rec == nil || rec.address == nil {
		return false
	}
	if _, ok := s.byID[rec.address.PeerID]; ok {
		return false
	}
	s.byID[rec.address.PeerID] = rec
	if rec.address.Protocol == ProtocolRTC && rec.address.SignalID != "" {
		s.bySignalID[rec.address.SignalID] = rec
	}
	if rec.state == stateConnecting {
		s.connecting++
	}
	return true
}

// remove deletes a record and keeps both secondary bookkeeping structures in
// sync: the signaling index entry is dropped and the connecting counter is
// decremented when the record was mid-dial.
func (s *addressStore) remove(rec *addressRecord) {
	if rec == nil || rec.address == nil {
		return
	}
	stored, ok := s.byID[rec.address.PeerID]
	if !ok || stored != rec {
		return
	}
	delete(s.byID, rec.address.PeerID)
	if rec.address.Protocol == ProtocolRTC && rec.address.SignalID != "" {
		delete(s.bySignalID, rec.address.SignalID)
	}
	if rec.state == stateConnecting {
		s.connecting--
	}
}

// setState is the single mutation point for record states so the connecting
// counter can never drift from the store contents.
func (s *addressStore) setState(rec *addressRecord, state recordState) {
	if rec.state == state {
		return
	}
	if rec.state == stateConnecting {
		s.connecting--
	}
	if state == stateConnecting {
		s.connecting++
	}
	rec.state = state
}

func (s *addressStore) size() int {
	return len(s.byID)
}

func (s *addressStore) connectingCount() int {
	return s.connecting
}
