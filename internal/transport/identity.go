package transport

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"golang.org/x/crypto/sha3"
)

// NormalizeWalletKey accepts a 32 byte hex key with or without the 0x prefix
// and returns it lower-cased with the prefix.
func NormalizeWalletKey(key string) (string, error) {
	k := strings.ToLower(strings.TrimSpace(key))
	k = strings.TrimPrefix(k, "0x")
	if len(k) != 64 {
		return "", fmt.Errorf("wallet key must be 32 bytes of hex, got %d characters", len(k))
	}
	if _, err := hex.DecodeString(k); err != nil {
		return "", fmt.Errorf("wallet key is not hex: %w", err)
	}
	return "0x" + k, nil
}

// Address returns the wallet (EOA) address for a secp256k1 private key:
// the last 20 bytes of keccak256 over the uncompressed public key, without
// its 0x04 prefix. The result is lower-case hex with the 0x prefix.
func Address(walletKey string) (string, error) {
	k, err := NormalizeWalletKey(walletKey)
	if err != nil {
		return "", err
	}
	raw, _ := hex.DecodeString(k[2:])

	var scalar secp256k1.ModNScalar
	if overflow := scalar.SetByteSlice(raw); overflow || scalar.IsZero() {
		return "", errors.New("wallet key is not a valid secp256k1 private key")
	}
	priv := secp256k1.NewPrivateKey(&scalar)
	pub := priv.PubKey().SerializeUncompressed()

	h := sha3.NewLegacyKeccak256()
	h.Write(pub[1:])
	sum := h.Sum(nil)
	return "0x" + hex.EncodeToString(sum[len(sum)-20:]), nil
}

// DefaultDBPath names the local store for an env and inbox.
func DefaultDBPath(env, inboxID string) string {
	return fmt.Sprintf("magic8ball-%s-%s.db3", env, inboxID)
}

// ChatURL is the web link users open to message the agent.
func ChatURL(address string) string {
	return "http://xmtp.chat/dm/" + address
}
