// Package hash provides the two-input Poseidon combine primitive and the
// domain-separated zero leaf used by the Railgun merkle accumulators.
//
// Leaves and nodes are 32-byte big-endian encodings of elements of the BN254
// scalar field (the SNARK field Railgun circuits operate over). The combine
// primitive is the circomlib-compatible Poseidon hash, so roots computed here
// match the on-circuit tree arithmetic.
package hash

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/iden3/go-iden3-crypto/poseidon"
)

// Size is the byte width of a node hash / leaf.
const Size = 32

// zeroLeafDomain is the domain string hashed to derive the zero leaf.
const zeroLeafDomain = "Railgun"

var zeroLeaf [Size]byte

func init() {
	// keccak256("Railgun") reduced into the BN254 scalar field.
	var e fr.Element
	e.SetBigInt(new(big.Int).SetBytes(crypto.Keccak256([]byte(zeroLeafDomain))))
	zeroLeaf = e.Bytes()
}

// ZeroLeaf returns the canonical "no value" leaf: keccak256("Railgun")
// reduced modulo the BN254 scalar field modulus.
func ZeroLeaf() [Size]byte {
	return zeroLeaf
}

// Combine hashes a (left, right) node pair into their parent node using
// circomlib-compatible Poseidon. Inputs are reduced into the scalar field
// before hashing, so Combine is total over arbitrary 32-byte values.
func Combine(left, right [Size]byte) [Size]byte {
	var l, r fr.Element
	l.SetBigInt(new(big.Int).SetBytes(left[:]))
	r.SetBigInt(new(big.Int).SetBytes(right[:]))

	var lBig, rBig big.Int
	l.BigInt(&lBig)
	r.BigInt(&rBig)

	out, err := poseidon.Hash([]*big.Int{&lBig, &rBig})
	if err != nil {
		// Unreachable: both inputs are reduced field elements.
		panic(fmt.Sprintf("poseidon hash of reduced field elements failed: %v", err))
	}

	var o fr.Element
	o.SetBigInt(out)
	return o.Bytes()
}
