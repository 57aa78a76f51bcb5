package merkletree

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/railgun-reloaded/merkletree-manager/pkg/hash"
)

// Proof is a compact inclusion proof, the only structure in this module
// intended for transmission or storage.
//
// Elements holds the sibling hash at each level in leaf-to-root order; its
// length always equals the tree depth. Indices is the leaf's original
// position at generation time, reinterpreted bitwise during validation: bit i
// (least significant first) records whether the path node at level i was a
// right child.
type Proof struct {
	Element  [hash.Size]byte
	Elements [][hash.Size]byte
	Indices  uint64
	Root     [hash.Size]byte
}

// ValidateProof checks a proof against its captured root. It is a pure
// function requiring no tree state: starting from the element, the running
// hash is combined with each sibling, placed on the right when the
// corresponding Indices bit is set and on the left otherwise. The proof is
// valid iff the final hash equals the root byte for byte.
func ValidateProof(proof *Proof) bool {
	if proof == nil || len(proof.Elements) == 0 {
		return false
	}

	current := proof.Element
	for i, sibling := range proof.Elements {
		if proof.Indices>>i&1 == 1 {
			current = hash.Combine(sibling, current)
		} else {
			current = hash.Combine(current, sibling)
		}
	}

	return current == proof.Root
}

// Bytes serializes the proof as element || elements || indices (8 bytes
// big-endian) || root.
func (p *Proof) Bytes() []byte {
	out := make([]byte, 0, hash.Size*(len(p.Elements)+2)+8)
	out = append(out, p.Element[:]...)
	for _, el := range p.Elements {
		out = append(out, el[:]...)
	}
	out = binary.BigEndian.AppendUint64(out, p.Indices)
	out = append(out, p.Root[:]...)
	return out
}

// proofJSON is the wire form of Proof: fixed-width 0x-prefixed hex strings
// plus the numeric index field.
type proofJSON struct {
	Element  string   `json:"element"`
	Elements []string `json:"elements"`
	Indices  uint64   `json:"indices"`
	Root     string   `json:"root"`
}

func encodeHash(h [hash.Size]byte) string {
	return "0x" + hex.EncodeToString(h[:])
}

func decodeHash(s string) ([hash.Size]byte, error) {
	var h [hash.Size]byte
	if len(s) != 2+2*hash.Size || s[:2] != "0x" {
		return h, fmt.Errorf("invalid hash encoding %q", s)
	}
	raw, err := hex.DecodeString(s[2:])
	if err != nil {
		return h, fmt.Errorf("invalid hash encoding %q: %w", s, err)
	}
	copy(h[:], raw)
	return h, nil
}

// MarshalJSON implements json.Marshaler.
func (p *Proof) MarshalJSON() ([]byte, error) {
	elements := make([]string, len(p.Elements))
	for i, el := range p.Elements {
		elements[i] = encodeHash(el)
	}
	return json.Marshal(&proofJSON{
		Element:  encodeHash(p.Element),
		Elements: elements,
		Indices:  p.Indices,
		Root:     encodeHash(p.Root),
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Proof) UnmarshalJSON(data []byte) error {
	var wire proofJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	element, err := decodeHash(wire.Element)
	if err != nil {
		return fmt.Errorf("proof element: %w", err)
	}
	root, err := decodeHash(wire.Root)
	if err != nil {
		return fmt.Errorf("proof root: %w", err)
	}
	elements := make([][hash.Size]byte, len(wire.Elements))
	for i, s := range wire.Elements {
		if elements[i], err = decodeHash(s); err != nil {
			return fmt.Errorf("proof elements[%d]: %w", i, err)
		}
	}

	p.Element = element
	p.Elements = elements
	p.Indices = wire.Indices
	p.Root = root
	return nil
}
