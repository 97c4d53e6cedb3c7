package p2p

import (
	"log/slog"
	"net"
	"strings"

	"driftnet/observability/logging"
)

// ParseSeedAddresses turns configured "peerID@host:port" entries into seed
// peer addresses. Malformed entries are logged and skipped; duplicates are
// collapsed. Seeds carry a pinned zero timestamp and enter over WebSocket.
func ParseSeedAddresses(values []string, logger *slog.Logger) []*PeerAddress {
	if logger == nil {
		logger = slog.Default().With(slog.String("component", "addressbook"))
	}
	seeds := make([]*PeerAddress, 0, len(values))
	seen := make(map[string]struct{})
	for _, raw := range values {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}
		idPart, addrPart, found := strings.Cut(trimmed, "@")
		if !found {
			logger.Warn("Ignoring seed: missing peer ID",
				logging.PeerField("seed", trimmed))
			continue
		}
		peerID := normalizeHexID(idPart)
		if peerID == "" {
			logger.Warn("Ignoring seed: invalid peer ID",
				logging.PeerField("seed", trimmed))
			continue
		}
		netAddr := strings.TrimSpace(addrPart)
		if _, _, err := net.SplitHostPort(netAddr); err != nil {
			logger.Warn("Ignoring seed: invalid address",
				logging.PeerField("seed", trimmed),
				slog.Any("error", err))
			continue
		}
		if _, ok := seen[peerID]; ok {
			continue
		}
		seen[peerID] = struct{}{}
		seeds = append(seeds, &PeerAddress{
			Protocol: ProtocolWS,
			PeerID:   peerID,
			NetAddr:  netAddr,
			Services: ServiceRelay,
		})
	}
	return seeds
}

func normalizeHexID(value string) string {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	trimmed = strings.TrimPrefix(trimmed, "0x")
	if trimmed == "" {
		return ""
	}
	for _, r := range trimmed {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return ""
		}
	}
	return "0x" + trimmed
}
