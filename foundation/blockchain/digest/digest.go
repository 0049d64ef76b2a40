// Package digest provides the hashing support for the blockchain. Every hash
// produced by the ledger is a SHA-256 digest encoded as a 0x prefixed hex string.
package digest

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Size is the number of bytes in a digest.
const Size = sha256.Size

// =============================================================================

// Sum returns the hex encoded SHA-256 digest of the specified data.
func Sum(data []byte) string {
	hash := sha256.Sum256(data)
	return hexutil.Encode(hash[:])
}

// Encode hex encodes an already computed digest.
func Encode(hash []byte) string {
	return hexutil.Encode(hash)
}

// SumString returns the hex encoded SHA-256 digest of the specified string.
func SumString(s string) string {
	return Sum([]byte(s))
}

// Hash returns the hex encoded SHA-256 digest of the JSON representation
// of the value.
func Hash(value any) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("marshal value for hashing: %w", err)
	}

	return Sum(data), nil
}

// Decode converts a hex encoded digest back into its raw bytes.
func Decode(hash string) ([Size]byte, error) {
	var out [Size]byte

	b, err := hexutil.Decode(hash)
	if err != nil {
		return out, fmt.Errorf("decode digest %q: %w", hash, err)
	}

	if len(b) != Size {
		return out, fmt.Errorf("decode digest %q: invalid length %d", hash, len(b))
	}

	copy(out[:], b)
	return out, nil
}
