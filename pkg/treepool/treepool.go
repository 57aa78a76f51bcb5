// Package treepool manages a rolling, append-only sequence of fixed-depth
// sparse merkle trees sharing one depth.
//
// Insertions always target the current (newest) tree. When a batch would
// exceed the current tree's remaining capacity the pool spills: the fitting
// prefix is inserted, the full tree is finalized, a successor tree is created
// with its root pinned to the finalized root, and the remaining suffix
// continues at position 0 of the successor. Trees never close except by
// becoming non-current after a spill.
//
// The pool assumes at most one writer; the contiguity check on the insertion
// offset is the only ordering guard and is not atomic with the write.
package treepool

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/railgun-reloaded/merkletree-manager/pkg/hash"
	"github.com/railgun-reloaded/merkletree-manager/pkg/merkletree"
)

// ErrNoActiveTree indicates the pool's current-tree index is out of range.
// This is an internal-consistency fault, not a recoverable condition.
var ErrNoActiveTree = errors.New("no active tree")

// Pool owns an ordered, append-only sequence of trees of one fixed depth.
type Pool struct {
	depth        int
	capacity     int
	trees        []*merkletree.Tree
	currentIndex int
	logger       *zap.Logger
}

// NewPool creates a pool with a single empty tree of the given depth.
// A nil logger disables logging.
func NewPool(depth int, logger *zap.Logger) (*Pool, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	first, err := merkletree.New(0, depth)
	if err != nil {
		return nil, fmt.Errorf("failed to create initial tree: %w", err)
	}

	return &Pool{
		depth:        depth,
		capacity:     1 << depth,
		trees:        []*merkletree.Tree{first},
		currentIndex: 0,
		logger:       logger,
	}, nil
}

// Depth returns the fixed depth shared by every tree in the pool.
func (p *Pool) Depth() int {
	return p.depth
}

// Capacity returns the per-tree leaf capacity, 2^depth.
func (p *Pool) Capacity() int {
	return p.capacity
}

// TreeCount returns the number of trees in the pool.
func (p *Pool) TreeCount() int {
	return len(p.trees)
}

// CurrentTreeIndex returns the index of the current (newest) tree.
func (p *Pool) CurrentTreeIndex() int {
	return p.currentIndex
}

// Roots returns the root of every tree in pool order. Note that a freshly
// spilled tree repeats its predecessor's finalized root until it finalizes
// leaves of its own.
func (p *Pool) Roots() [][hash.Size]byte {
	roots := make([][hash.Size]byte, len(p.trees))
	for i, tree := range p.trees {
		roots[i] = tree.Root()
	}
	return roots
}

// Root returns the current tree's root as of its last finalize.
func (p *Pool) Root() ([hash.Size]byte, error) {
	tree, err := p.currentTree()
	if err != nil {
		return [hash.Size]byte{}, err
	}
	return tree.Root(), nil
}

// LeafCount returns the current tree's populated leaf count, which is also
// the next valid insertion offset.
func (p *Pool) LeafCount() (int, error) {
	tree, err := p.currentTree()
	if err != nil {
		return 0, err
	}
	return tree.LeafCount(), nil
}

func (p *Pool) currentTree() (*merkletree.Tree, error) {
	if p.currentIndex < 0 || p.currentIndex >= len(p.trees) {
		return nil, fmt.Errorf("%w: current index %d, tree count %d", ErrNoActiveTree, p.currentIndex, len(p.trees))
	}
	return p.trees[p.currentIndex], nil
}

// InsertLeaves appends leaves to the current tree at the given offset,
// spilling into a freshly created successor tree if the batch exceeds the
// remaining capacity. startPosition must lie in [0, capacity) and equal the
// current tree's leaf count. Validation precedes all mutation: a failed
// insert leaves every tree untouched.
//
// Returns the index of the tree holding the most recently inserted leaf
// (the successor's index if a spill occurred).
func (p *Pool) InsertLeaves(leaves [][hash.Size]byte, startPosition int) (int, error) {
	tree, err := p.currentTree()
	if err != nil {
		return 0, err
	}

	if startPosition < 0 || startPosition >= p.capacity {
		return 0, fmt.Errorf("%w: start position %d, capacity %d", merkletree.ErrStartPositionOutOfRange, startPosition, p.capacity)
	}
	if startPosition != tree.LeafCount() {
		return 0, fmt.Errorf("%w: start position %d, current leaf count %d", merkletree.ErrNonContiguousInsertion, startPosition, tree.LeafCount())
	}
	if len(leaves) == 0 {
		return p.currentIndex, nil
	}

	remaining := p.capacity - startPosition
	if len(leaves) <= remaining {
		if err := tree.InsertLeaves(leaves, startPosition); err != nil {
			return 0, err
		}
		p.logger.Sugar().Debugw("Inserted leaves",
			"tree", p.currentIndex, "count", len(leaves), "start_position", startPosition)
		return p.currentIndex, nil
	}

	// Spill: fill the current tree, finalize it, then continue in a
	// successor seeded from the finalized root.
	prefix := leaves[:remaining]
	suffix := leaves[remaining:]

	if err := tree.InsertLeaves(prefix, startPosition); err != nil {
		return 0, err
	}
	tree.Rebuild()

	successor, err := merkletree.NewFrom(len(p.trees), p.depth, tree)
	if err != nil {
		return 0, fmt.Errorf("failed to create successor tree: %w", err)
	}
	p.trees = append(p.trees, successor)
	p.currentIndex = len(p.trees) - 1

	p.logger.Sugar().Infow("Tree capacity reached, spilled into new tree",
		"finalized_tree", tree.TreeNumber(),
		"new_tree", successor.TreeNumber(),
		"overflow_leaves", len(suffix))

	// A suffix longer than a whole tree spills again.
	return p.InsertLeaves(suffix, 0)
}

// FinalizeTree finalizes the current tree only, recomputing its interior
// levels so the root reflects every inserted leaf.
func (p *Pool) FinalizeTree() error {
	tree, err := p.currentTree()
	if err != nil {
		return err
	}
	tree.Rebuild()
	p.logger.Sugar().Debugw("Finalized tree", "tree", p.currentIndex, "leaf_count", tree.LeafCount())
	return nil
}

// GenerateProof scans the pool's trees oldest to newest and returns the
// first successful proof together with the index of the tree that produced
// it. Per-tree misses are absorbed while scanning; ErrLeafNotFound is
// returned only when no tree contains the element.
func (p *Pool) GenerateProof(element [hash.Size]byte) (*merkletree.Proof, int, error) {
	for i, tree := range p.trees {
		proof, err := tree.GenerateProof(element)
		if err == nil {
			return proof, i, nil
		}
		if !errors.Is(err, merkletree.ErrLeafNotFound) {
			return nil, 0, err
		}
	}
	return nil, 0, fmt.Errorf("%w: leaf %x in any of %d trees", merkletree.ErrLeafNotFound, element, len(p.trees))
}

// GenerateProofInTree generates a proof from one specific tree, propagating
// that tree's not-found failure.
func (p *Pool) GenerateProofInTree(element [hash.Size]byte, treeIndex int) (*merkletree.Proof, error) {
	if treeIndex < 0 || treeIndex >= len(p.trees) {
		return nil, fmt.Errorf("tree index %d out of range, pool has %d trees", treeIndex, len(p.trees))
	}
	return p.trees[treeIndex].GenerateProof(element)
}
