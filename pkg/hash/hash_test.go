package hash

import (
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/stretchr/testify/require"
)

// bigToHash encodes a big.Int as a 32-byte big-endian hash for test inputs.
func bigToHash(t *testing.T, v *big.Int) [Size]byte {
	t.Helper()
	var h [Size]byte
	v.FillBytes(h[:])
	return h
}

// TestZeroLeaf checks the domain zero leaf against the published Railgun
// constant: keccak256("Railgun") mod the BN254 scalar field.
func TestZeroLeaf(t *testing.T) {
	expected, ok := new(big.Int).SetString("0488f89b25bc7011eaf6a5edce71aeafb9fe706faa3c0a5cd9cbe868ae3b9ffc", 16)
	require.True(t, ok)

	leaf := ZeroLeaf()
	require.Equal(t, expected, new(big.Int).SetBytes(leaf[:]))

	// Deterministic across calls.
	require.Equal(t, leaf, ZeroLeaf())
}

// TestCombineKnownVector checks Combine against the canonical circomlib
// poseidon([1, 2]) test vector.
func TestCombineKnownVector(t *testing.T) {
	expected, ok := new(big.Int).SetString("7853200120776062878684798364095072458815029376092732009249414926327459813530", 10)
	require.True(t, ok)

	out := Combine(bigToHash(t, big.NewInt(1)), bigToHash(t, big.NewInt(2)))
	require.Equal(t, expected, new(big.Int).SetBytes(out[:]))
}

func TestCombineOrderMatters(t *testing.T) {
	a := bigToHash(t, big.NewInt(1))
	b := bigToHash(t, big.NewInt(2))

	require.NotEqual(t, Combine(a, b), Combine(b, a))
	require.Equal(t, Combine(a, b), Combine(a, b))
}

// TestCombineReducesInputs checks that out-of-field inputs are reduced
// rather than rejected: p+1 hashes identically to 1.
func TestCombineReducesInputs(t *testing.T) {
	overflowed := bigToHash(t, new(big.Int).Add(fr.Modulus(), big.NewInt(1)))
	one := bigToHash(t, big.NewInt(1))
	other := bigToHash(t, big.NewInt(7))

	require.Equal(t, Combine(one, other), Combine(overflowed, other))
}

// TestCombineOutputInField checks results are canonical field encodings.
func TestCombineOutputInField(t *testing.T) {
	out := Combine(ZeroLeaf(), ZeroLeaf())
	require.Less(t, new(big.Int).SetBytes(out[:]).Cmp(fr.Modulus()), 0)
}
