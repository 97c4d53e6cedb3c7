package logging

import (
	"log/slog"
	"net"
	"strings"
)

// Peer identifiers are pseudonymous but linkable across log lines. Log output
// keeps a short prefix of each identifier so operators can correlate events
// for one peer without the full value ending up in shipped logs, and hides
// the host part of network endpoints entirely.

const (
	idPrefixLen = 8
	maskedHost  = "*"
)

// identifierKeys are the log fields that carry peer or signaling identifiers.
var identifierKeys = map[string]bool{
	"peer_id":   true,
	"signal_id": true,
	"seed":      true,
}

// endpointKeys are the log fields that carry host:port endpoints.
var endpointKeys = map[string]bool{
	"net_addr": true,
	"listen":   true,
}

// AbbreviateID shortens a hex identifier to its first few characters. Values
// already short enough pass through unchanged.
func AbbreviateID(value string) string {
	trimmed := strings.TrimSpace(value)
	body := strings.TrimPrefix(trimmed, "0x")
	if len(body) <= idPrefixLen {
		return trimmed
	}
	prefix := ""
	if body != trimmed {
		prefix = "0x"
	}
	return prefix + body[:idPrefixLen] + "…"
}

// MaskEndpoint hides the host of a host:port endpoint, keeping the port for
// debugging. Values that do not parse as an endpoint are masked whole.
func MaskEndpoint(value string) string {
	if strings.TrimSpace(value) == "" {
		return value
	}
	_, port, err := net.SplitHostPort(strings.TrimSpace(value))
	if err != nil {
		return maskedHost
	}
	return maskedHost + ":" + port
}

// PeerField builds a slog.Attr for a peer-related field, applying the policy
// for its key: identifiers are abbreviated, endpoints masked, and seed
// entries ("peerID@host:port") get both halves treated. Keys outside the
// policy pass through untouched.
func PeerField(key, value string) slog.Attr {
	switch {
	case strings.TrimSpace(value) == "":
		return slog.String(key, value)
	case identifierKeys[key]:
		if id, endpoint, ok := strings.Cut(value, "@"); ok {
			return slog.String(key, AbbreviateID(id)+"@"+MaskEndpoint(endpoint))
		}
		return slog.String(key, AbbreviateID(value))
	case endpointKeys[key]:
		return slog.String(key, MaskEndpoint(value))
	default:
		return slog.String(key, value)
	}
}
