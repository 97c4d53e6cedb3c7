package p2p

import (
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// Identity is the node's long-lived key pair. The address book needs only the
// derived PeerID for its self-guard; the connection layer signs handshakes
// with the key itself.
type Identity struct {
	PrivateKey *ecdsa.PrivateKey
	// PeerID is the keccak256 hash of the uncompressed public key, encoded
	// as a 0x-prefixed hex string.
	PeerID string
}

// LoadOrCreateIdentity returns the node identity stored at path, minting and
// persisting a fresh secp256k1 key when no file exists yet. The key file
// holds a single hex-encoded line.
func LoadOrCreateIdentity(path string) (*Identity, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("node key path is empty")
	}
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		return identityFromHex(string(raw))
	case os.IsNotExist(err):
		return generateIdentity(path)
	default:
		return nil, fmt.Errorf("load node key: %w", err)
	}
}

func generateIdentity(path string) (*Identity, error) {
	key, err := ethcrypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generate node key: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("prepare key directory: %w", err)
	}
	line := hex.EncodeToString(ethcrypto.FromECDSA(key)) + "\n"
	if err := os.WriteFile(path, []byte(line), 0o600); err != nil {
		return nil, fmt.Errorf("write node key: %w", err)
	}
	return newIdentity(key), nil
}

func identityFromHex(raw string) (*Identity, error) {
	cleaned := strings.TrimPrefix(strings.TrimSpace(raw), "0x")
	key, err := ethcrypto.HexToECDSA(cleaned)
	if err != nil {
		return nil, fmt.Errorf("parse node key: %w", err)
	}
	return newIdentity(key), nil
}

func newIdentity(key *ecdsa.PrivateKey) *Identity {
	pub := ethcrypto.FromECDSAPub(&key.PublicKey)
	return &Identity{
		PrivateKey: key,
		PeerID:     "0x" + hex.EncodeToString(ethcrypto.Keccak256(pub[1:])),
	}
}

// SelfAddress builds the local node's own peer address from its identity.
func (id *Identity) SelfAddress(protocol Protocol, netAddr string, services ServiceFlag, now int64) *PeerAddress {
	if id == nil {
		return nil
	}
	return &PeerAddress{
		Protocol:  protocol,
		PeerID:    id.PeerID,
		NetAddr:   netAddr,
		Timestamp: now,
		Services:  services,
	}
}
