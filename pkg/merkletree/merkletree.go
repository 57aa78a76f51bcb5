// Package merkletree implements a fixed-depth sparse merkle tree over
// 32-byte Poseidon field elements.
//
// Leaves are appended contiguously at level 0 and interior levels are only
// recomputed by an explicit Rebuild (finalize) call. Between an insertion and
// the next Rebuild the interior, including the root, is stale: Root and
// GenerateProof intentionally serve the last-finalized state. Callers that
// need fresh proofs must finalize first; Dirty reports whether a finalize is
// pending.
package merkletree

import (
	"errors"
	"fmt"

	"github.com/railgun-reloaded/merkletree-manager/pkg/hash"
)

var (
	// ErrLeafNotFound indicates a proof was requested for a leaf value that
	// is not present in the searched tree(s).
	ErrLeafNotFound = errors.New("leaf not found")

	// ErrStartPositionOutOfRange indicates an insertion offset outside
	// [0, capacity).
	ErrStartPositionOutOfRange = errors.New("start position out of range")

	// ErrNonContiguousInsertion indicates an insertion offset that does not
	// equal the current leaf count. Leaves must be appended without gaps,
	// overwrites or reordering.
	ErrNonContiguousInsertion = errors.New("non-contiguous insertion")
)

// Tree is a single fixed-depth sparse merkle tree.
//
// levels[0] holds the leaves in insertion order and may be shorter than
// 2^depth; levels[depth] holds exactly one hash, the root. A Tree is
// exclusively owned by the pool that created it and assumes a single writer.
type Tree struct {
	treeNumber int
	depth      int

	// zeros[i] is the hash standing in for "no value" at level i.
	zeros [][hash.Size]byte

	// levels[level][index] node storage, levels 0..depth inclusive.
	levels [][][hash.Size]byte

	// leafIndex maps a leaf value to its first insertion position,
	// accelerating GenerateProof without changing first-match semantics.
	leafIndex map[[hash.Size]byte]int

	// dirty is set by InsertLeaves and cleared by Rebuild.
	dirty bool
}

// ZeroLevels computes the per-level zero hashes for the given depth:
// index 0 is the domain zero leaf, index i the self-combine of index i-1.
// The chain is deterministic for a given depth.
func ZeroLevels(depth int) [][hash.Size]byte {
	zeros := make([][hash.Size]byte, depth)
	zeros[0] = hash.ZeroLeaf()
	for i := 1; i < depth; i++ {
		zeros[i] = hash.Combine(zeros[i-1], zeros[i-1])
	}
	return zeros
}

// New creates an empty tree. The initial root is the self-combine of the
// deepest zero level, i.e. the root of a fully empty tree of this depth.
func New(treeNumber, depth int) (*Tree, error) {
	return newTree(treeNumber, depth, nil)
}

// NewFrom creates an empty successor tree whose root is pinned to the
// predecessor's current root. The pool uses this when spilling into a fresh
// tree: until the successor accumulates and finalizes its own leaves, its
// root deliberately repeats the predecessor's finalized root so that root
// verifiers can distinguish empty successors per predecessor instead of
// colliding on a depth-only zero root.
func NewFrom(treeNumber, depth int, predecessor *Tree) (*Tree, error) {
	if predecessor == nil {
		return nil, fmt.Errorf("predecessor tree is required")
	}
	return newTree(treeNumber, depth, predecessor)
}

func newTree(treeNumber, depth int, predecessor *Tree) (*Tree, error) {
	if depth < 1 || depth > 32 {
		return nil, fmt.Errorf("tree depth %d outside supported range [1, 32]", depth)
	}

	zeros := ZeroLevels(depth)

	levels := make([][][hash.Size]byte, depth+1)
	for i := range levels {
		levels[i] = [][hash.Size]byte{}
	}

	var root [hash.Size]byte
	if predecessor != nil {
		root = predecessor.Root()
	} else {
		root = hash.Combine(zeros[depth-1], zeros[depth-1])
	}
	levels[depth] = [][hash.Size]byte{root}

	return &Tree{
		treeNumber: treeNumber,
		depth:      depth,
		zeros:      zeros,
		levels:     levels,
		leafIndex:  make(map[[hash.Size]byte]int),
	}, nil
}

// TreeNumber returns the tree's immutable identity within its pool.
func (t *Tree) TreeNumber() int {
	return t.treeNumber
}

// Depth returns the fixed tree depth.
func (t *Tree) Depth() int {
	return t.depth
}

// Capacity returns the maximum leaf count, 2^depth.
func (t *Tree) Capacity() int {
	return 1 << t.depth
}

// LeafCount returns the number of leaves inserted so far.
func (t *Tree) LeafCount() int {
	return len(t.levels[0])
}

// Root returns the root as of the last finalize. If insertions are pending
// (Dirty), the returned root does not reflect them yet.
func (t *Tree) Root() [hash.Size]byte {
	return t.levels[t.depth][0]
}

// Dirty reports whether leaves have been inserted since the last Rebuild.
func (t *Tree) Dirty() bool {
	return t.dirty
}

// Zeros returns the tree's zero-level chain. The caller must not mutate it.
func (t *Tree) Zeros() [][hash.Size]byte {
	return t.zeros
}

// InsertLeaves writes leaves[i] to levels[0][startPosition+i]. The write must
// be contiguous: startPosition must equal the current leaf count and the
// batch must fit within capacity. Interior levels are not recomputed; the
// caller must Rebuild before relying on Root or GenerateProof reflecting the
// new leaves. Inserting an empty batch is a no-op.
func (t *Tree) InsertLeaves(leaves [][hash.Size]byte, startPosition int) error {
	if len(leaves) == 0 {
		return nil
	}
	if startPosition < 0 || startPosition >= t.Capacity() {
		return fmt.Errorf("%w: start position %d, capacity %d", ErrStartPositionOutOfRange, startPosition, t.Capacity())
	}
	if startPosition != t.LeafCount() {
		return fmt.Errorf("%w: start position %d, current leaf count %d", ErrNonContiguousInsertion, startPosition, t.LeafCount())
	}
	if startPosition+len(leaves) > t.Capacity() {
		return fmt.Errorf("%w: %d leaves at position %d exceed capacity %d", ErrStartPositionOutOfRange, len(leaves), startPosition, t.Capacity())
	}

	for i, leaf := range leaves {
		t.levels[0] = append(t.levels[0], leaf)
		if _, seen := t.leafIndex[leaf]; !seen {
			t.leafIndex[leaf] = startPosition + i
		}
	}
	t.dirty = true
	return nil
}

// Rebuild recomputes every interior level from the current leaves, combining
// consecutive pairs per level and padding a missing right sibling with that
// level's zero hash. This is the "finalize" step: after Rebuild the root and
// all proofs reflect every inserted leaf.
//
// Rebuilding a tree with no leaves preserves the existing root (which is
// either the empty-tree root or a predecessor's pinned root).
func (t *Tree) Rebuild() {
	if t.LeafCount() == 0 {
		t.dirty = false
		return
	}

	for level := 0; level < t.depth; level++ {
		current := t.levels[level]
		next := make([][hash.Size]byte, 0, (len(current)+1)/2)

		for i := 0; i < len(current); i += 2 {
			left := current[i]
			right := t.zeros[level]
			if i+1 < len(current) {
				right = current[i+1]
			}
			next = append(next, hash.Combine(left, right))
		}

		t.levels[level+1] = next
	}

	t.dirty = false
}

// GenerateProof builds an inclusion proof for the given leaf value. The leaf
// position is the value's first insertion position. Siblings are collected
// leaf to root, substituting the level's zero hash wherever the sibling
// position exceeds the populated range. The captured root is the root as of
// the last finalize; proofs generated while Dirty reflect the stale interior
// by the staleness contract above.
func (t *Tree) GenerateProof(element [hash.Size]byte) (*Proof, error) {
	position, ok := t.leafIndex[element]
	if !ok {
		return nil, fmt.Errorf("%w: leaf %x in tree %d", ErrLeafNotFound, element, t.treeNumber)
	}

	elements := make([][hash.Size]byte, 0, t.depth)
	index := position
	for level := 0; level < t.depth; level++ {
		sibling := index ^ 1
		if sibling < len(t.levels[level]) {
			elements = append(elements, t.levels[level][sibling])
		} else {
			elements = append(elements, t.zeros[level])
		}
		index >>= 1
	}

	return &Proof{
		Element:  element,
		Elements: elements,
		Indices:  uint64(position),
		Root:     t.Root(),
	}, nil
}
