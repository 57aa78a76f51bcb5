// Package forest composes two independent tree pools, one accumulating UTXO
// commitment leaves and one accumulating transaction identifier leaves, with
// a nullifier uniqueness registry.
//
// The forest is a single-process, in-memory accumulator. It owns its pools
// exclusively and performs no internal synchronization: callers must
// serialize writers, typically by having one ordering authority assign
// insertion offsets.
package forest

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/railgun-reloaded/merkletree-manager/pkg/config"
	"github.com/railgun-reloaded/merkletree-manager/pkg/hash"
	"github.com/railgun-reloaded/merkletree-manager/pkg/merkletree"
	"github.com/railgun-reloaded/merkletree-manager/pkg/treepool"
)

// ErrDuplicateNullifier indicates insertion of a nullifier identifier that
// is already present. Duplicates are rejected, never silently ignored.
var ErrDuplicateNullifier = errors.New("duplicate nullifier")

// DualForest pairs a commitment pool and a transaction identifier pool under
// one shared tree depth, plus the set of seen nullifiers.
type DualForest struct {
	commitments  *treepool.Pool
	transactions *treepool.Pool
	nullifiers   map[string]struct{}
	logger       *zap.Logger
}

// New creates a forest whose pools share the given tree depth.
func New(depth int, logger *zap.Logger) (*DualForest, error) {
	return NewWithConfig(&config.Config{TreeDepth: depth}, logger)
}

// NewWithConfig creates a forest from a validated configuration. A nil
// config uses the defaults (depth 16); a nil logger disables logging.
func NewWithConfig(cfg *config.Config, logger *zap.Logger) (*DualForest, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid forest config: %w", errs.ToAggregate())
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	commitments, err := treepool.NewPool(cfg.TreeDepth, logger.Named("commitments"))
	if err != nil {
		return nil, fmt.Errorf("failed to create commitment pool: %w", err)
	}
	transactions, err := treepool.NewPool(cfg.TreeDepth, logger.Named("transactions"))
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction pool: %w", err)
	}

	return &DualForest{
		commitments:  commitments,
		transactions: transactions,
		nullifiers:   make(map[string]struct{}),
		logger:       logger,
	}, nil
}

// Depth returns the tree depth shared by both pools.
func (f *DualForest) Depth() int {
	return f.commitments.Depth()
}

// InsertCommitmentLeaves appends commitment leaves to the commitment pool,
// returning the index of the tree holding the most recent leaf.
func (f *DualForest) InsertCommitmentLeaves(leaves [][hash.Size]byte, startPosition int) (int, error) {
	return f.commitments.InsertLeaves(leaves, startPosition)
}

// InsertTransactionLeaves appends transaction identifier leaves to the
// transaction pool, returning the index of the tree holding the most recent
// leaf.
func (f *DualForest) InsertTransactionLeaves(leaves [][hash.Size]byte, startPosition int) (int, error) {
	return f.transactions.InsertLeaves(leaves, startPosition)
}

// FinalizeCommitmentTree finalizes the commitment pool's current tree.
func (f *DualForest) FinalizeCommitmentTree() error {
	return f.commitments.FinalizeTree()
}

// FinalizeTransactionTree finalizes the transaction pool's current tree.
func (f *DualForest) FinalizeTransactionTree() error {
	return f.transactions.FinalizeTree()
}

// GenerateCommitmentProof proves inclusion of a commitment leaf, scanning
// the commitment pool oldest to newest.
func (f *DualForest) GenerateCommitmentProof(element [hash.Size]byte) (*merkletree.Proof, int, error) {
	return f.commitments.GenerateProof(element)
}

// GenerateTransactionProof proves inclusion of a transaction identifier
// leaf, scanning the transaction pool oldest to newest.
func (f *DualForest) GenerateTransactionProof(element [hash.Size]byte) (*merkletree.Proof, int, error) {
	return f.transactions.GenerateProof(element)
}

// CommitmentRoots returns the root of every commitment tree in pool order.
func (f *DualForest) CommitmentRoots() [][hash.Size]byte {
	return f.commitments.Roots()
}

// TransactionRoots returns the root of every transaction tree in pool order.
func (f *DualForest) TransactionRoots() [][hash.Size]byte {
	return f.transactions.Roots()
}

// InsertNullifier records a spent-note identifier. Inserting an identifier
// that is already present fails with ErrDuplicateNullifier and leaves the
// registry unchanged.
func (f *DualForest) InsertNullifier(id string) error {
	if _, exists := f.nullifiers[id]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateNullifier, id)
	}
	f.nullifiers[id] = struct{}{}
	f.logger.Sugar().Debugw("Inserted nullifier", "nullifier", id, "total", len(f.nullifiers))
	return nil
}

// CheckNullifier reports whether the identifier has been recorded. It has no
// side effects.
func (f *DualForest) CheckNullifier(id string) bool {
	_, exists := f.nullifiers[id]
	return exists
}

// NullifierCount returns the number of recorded nullifiers.
func (f *DualForest) NullifierCount() int {
	return len(f.nullifiers)
}
