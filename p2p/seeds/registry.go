// Package seeds models the static seed registry payload: the operator-managed
// list of bootstrap endpoints a node may dial before it has learned any peers.
// Entries can carry activity windows so registries can be rotated ahead of
// time without redeploying nodes.
package seeds

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

const supportedRegistryVersion = 1

var errEmptyRegistry = errors.New("seed registry payload must not be empty")

// Registry is the decoded seed registry document.
type Registry struct {
	Version int      `json:"version"`
	Seeds   []Record `json:"seeds"`
}

// Record is one seed entry. NotBefore/NotAfter bound the window (unix seconds)
// during which the entry may be used; zero means unbounded.
type Record struct {
	PeerID    string `json:"peerId"`
	Address   string `json:"address"`
	Source    string `json:"source,omitempty"`
	NotBefore int64  `json:"notBefore,omitempty"`
	NotAfter  int64  `json:"notAfter,omitempty"`
}

// Active reports whether the record is currently live.
func (r Record) Active(now time.Time) bool {
	if r.NotBefore > 0 && now.Unix() < r.NotBefore {
		return false
	}
	if r.NotAfter > 0 && now.Unix() > r.NotAfter {
		return false
	}
	return true
}

// Parse builds a Registry from a JSON payload.
func Parse(raw []byte) (*Registry, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return nil, errEmptyRegistry
	}
	var reg Registry
	if err := json.Unmarshal([]byte(trimmed), &reg); err != nil {
		return nil, fmt.Errorf("seed registry: invalid JSON payload: %w", err)
	}
	if reg.Version == 0 {
		reg.Version = supportedRegistryVersion
	}
	if reg.Version != supportedRegistryVersion {
		return nil, fmt.Errorf("seed registry: unsupported version %d", reg.Version)
	}
	if err := reg.validate(); err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *Registry) validate() error {
	for i, rec := range r.Seeds {
		if strings.TrimSpace(rec.PeerID) == "" {
			return fmt.Errorf("seed registry: entry %d missing peer ID", i)
		}
		addr := strings.TrimSpace(rec.Address)
		if addr == "" {
			return fmt.Errorf("seed registry: entry %d missing address", i)
		}
		if _, _, err := net.SplitHostPort(addr); err != nil {
			return fmt.Errorf("seed registry: entry %d invalid address: %w", i, err)
		}
		if rec.NotBefore > 0 && rec.NotAfter > 0 && rec.NotAfter < rec.NotBefore {
			return fmt.Errorf("seed registry: entry %d window ends before it starts", i)
		}
	}
	return nil
}

// Entries returns the deduplicated seed endpoints that are live at the given
// time, formatted as "peerID@host:port" strings ready for the address book.
func (r *Registry) Entries(now time.Time) []string {
	if r == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(r.Seeds))
	out := make([]string, 0, len(r.Seeds))
	for _, rec := range r.Seeds {
		if !rec.Active(now) {
			continue
		}
		entry := strings.TrimSpace(rec.PeerID) + "@" + strings.TrimSpace(rec.Address)
		if _, ok := seen[entry]; ok {
			continue
		}
		seen[entry] = struct{}{}
		out = append(out, entry)
	}
	return out
}
