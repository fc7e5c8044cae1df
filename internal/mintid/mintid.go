// Package mintid validates token identifiers and derives deterministic placeholder mints.
package mintid

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
)

// Chain families an identifier can belong to.
const (
	ChainSolana  = "solana"
	ChainEVM     = "evm"
	ChainUnknown = ""
)

// solanaAddressLen is the decoded length of an ed25519 public key.
const solanaAddressLen = 32

// IsSolanaAddress reports whether id is a base58 string that decodes to 32 bytes.
func IsSolanaAddress(id string) bool {
	id = strings.TrimSpace(id)
	if id == "" {
		return false
	}
	decoded, err := base58.Decode(id)
	if err != nil {
		return false
	}
	return len(decoded) == solanaAddressLen
}

// IsEVMAddress reports whether id looks like a 0x-prefixed 20-byte hex address.
func IsEVMAddress(id string) bool {
	id = strings.TrimSpace(id)
	if len(id) != 42 || !strings.HasPrefix(strings.ToLower(id), "0x") {
		return false
	}
	_, err := hex.DecodeString(id[2:])
	return err == nil
}

// Chain classifies an identifier by address format.
func Chain(id string) string {
	switch {
	case IsSolanaAddress(id):
		return ChainSolana
	case IsEVMAddress(id):
		return ChainEVM
	default:
		return ChainUnknown
	}
}

// Synthetic derives a deterministic, Solana-shaped placeholder mint.
// Formula: base58(SHA256("synthetic|seed|index")).
func Synthetic(seed string, index int) string {
	data := fmt.Sprintf("synthetic|%s|%d", seed, index)
	hash := sha256.Sum256([]byte(data))
	return base58.Encode(hash[:])
}
