// Package bytesutil holds the byte/bigint/hex conversion glue shared by the
// tree packages and the CLI. The tree core treats leaves as opaque 32-byte
// values; everything that interprets or formats those bytes lives here.
package bytesutil

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/railgun-reloaded/merkletree-manager/pkg/hash"
)

// BigToBytes32 encodes v as a fixed 32-byte big-endian value, reducing it
// into the BN254 scalar field first.
func BigToBytes32(v *big.Int) [hash.Size]byte {
	var e fr.Element
	e.SetBigInt(v)
	return e.Bytes()
}

// Bytes32ToBig interprets b as a big-endian unsigned integer.
func Bytes32ToBig(b [hash.Size]byte) *big.Int {
	return new(big.Int).SetBytes(b[:])
}

// HexToLeaf parses a 0x-optional hex string into a 32-byte leaf,
// left-padding short values with zeros.
func HexToLeaf(s string) ([hash.Size]byte, error) {
	var leaf [hash.Size]byte

	trimmed := strings.TrimPrefix(strings.TrimSpace(s), "0x")
	if len(trimmed)%2 == 1 {
		trimmed = "0" + trimmed
	}

	raw, err := hex.DecodeString(trimmed)
	if err != nil {
		return leaf, fmt.Errorf("invalid hex leaf %q: %w", s, err)
	}
	if len(raw) > hash.Size {
		return leaf, fmt.Errorf("leaf %q is %d bytes, maximum is %d", s, len(raw), hash.Size)
	}

	copy(leaf[hash.Size-len(raw):], raw)
	return leaf, nil
}

// LeafToHex formats a leaf as a 0x-prefixed, fixed-width hex string.
func LeafToHex(leaf [hash.Size]byte) string {
	return "0x" + hex.EncodeToString(leaf[:])
}

// ValidLeaf reports whether b is a canonical leaf encoding: exactly 32 bytes
// and numerically below the BN254 scalar field modulus.
func ValidLeaf(b []byte) bool {
	if len(b) != hash.Size {
		return false
	}
	return new(big.Int).SetBytes(b).Cmp(fr.Modulus()) < 0
}
