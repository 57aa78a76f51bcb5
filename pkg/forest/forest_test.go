package forest

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/railgun-reloaded/merkletree-manager/pkg/config"
	"github.com/railgun-reloaded/merkletree-manager/pkg/hash"
	"github.com/railgun-reloaded/merkletree-manager/pkg/merkletree"
)

func leaf(v byte) [hash.Size]byte {
	var l [hash.Size]byte
	l[hash.Size-1] = v
	return l
}

func TestNewWithConfig(t *testing.T) {
	t.Run("Nil config uses defaults", func(t *testing.T) {
		f, err := NewWithConfig(nil, zap.NewNop())
		require.NoError(t, err)
		require.Equal(t, config.DefaultTreeDepth, f.Depth())
	})

	t.Run("Invalid depth rejected", func(t *testing.T) {
		_, err := NewWithConfig(&config.Config{TreeDepth: 0}, nil)
		require.Error(t, err)

		_, err = NewWithConfig(&config.Config{TreeDepth: 33}, nil)
		require.Error(t, err)
	})

	t.Run("Nil logger allowed", func(t *testing.T) {
		f, err := New(4, nil)
		require.NoError(t, err)
		require.NotNil(t, f)
	})
}

func TestPoolsAreIndependent(t *testing.T) {
	f, err := New(4, nil)
	require.NoError(t, err)

	_, err = f.InsertCommitmentLeaves([][hash.Size]byte{leaf(1), leaf(2)}, 0)
	require.NoError(t, err)
	require.NoError(t, f.FinalizeCommitmentTree())

	// The transaction pool is untouched by commitment inserts: proving the
	// same value there misses, and its root is still the empty-tree root.
	_, _, err = f.GenerateTransactionProof(leaf(1))
	require.ErrorIs(t, err, merkletree.ErrLeafNotFound)
	require.NotEqual(t, f.CommitmentRoots()[0], f.TransactionRoots()[0])

	_, err = f.InsertTransactionLeaves([][hash.Size]byte{leaf(1)}, 0)
	require.NoError(t, err)
	require.NoError(t, f.FinalizeTransactionTree())

	// Same leaf, different leaf sets, different roots.
	require.NotEqual(t, f.CommitmentRoots()[0], f.TransactionRoots()[0])
}

func TestProofRoundTripThroughForest(t *testing.T) {
	f, err := New(4, nil)
	require.NoError(t, err)

	_, err = f.InsertCommitmentLeaves([][hash.Size]byte{leaf(1), leaf(2), leaf(3)}, 0)
	require.NoError(t, err)
	require.NoError(t, f.FinalizeCommitmentTree())

	proof, treeIndex, err := f.GenerateCommitmentProof(leaf(2))
	require.NoError(t, err)
	require.Equal(t, 0, treeIndex)
	require.True(t, merkletree.ValidateProof(proof))

	_, err = f.InsertTransactionLeaves([][hash.Size]byte{leaf(9)}, 0)
	require.NoError(t, err)
	require.NoError(t, f.FinalizeTransactionTree())

	proof, treeIndex, err = f.GenerateTransactionProof(leaf(9))
	require.NoError(t, err)
	require.Equal(t, 0, treeIndex)
	require.True(t, merkletree.ValidateProof(proof))
}

func TestNullifierUniqueness(t *testing.T) {
	f, err := New(4, nil)
	require.NoError(t, err)

	require.False(t, f.CheckNullifier("n1"))
	require.Equal(t, 0, f.NullifierCount())

	require.NoError(t, f.InsertNullifier("n1"))
	require.True(t, f.CheckNullifier("n1"))
	require.Equal(t, 1, f.NullifierCount())

	// Duplicates are rejected, never silently ignored.
	err = f.InsertNullifier("n1")
	require.ErrorIs(t, err, ErrDuplicateNullifier)
	require.Equal(t, 1, f.NullifierCount())

	// CheckNullifier has no side effects.
	require.False(t, f.CheckNullifier("n2"))
	require.False(t, f.CheckNullifier("n2"))
	require.NoError(t, f.InsertNullifier("n2"))
	require.Equal(t, 2, f.NullifierCount())
}

func TestCommitmentSpillThroughForest(t *testing.T) {
	f, err := New(2, nil)
	require.NoError(t, err)

	treeIndex, err := f.InsertCommitmentLeaves([][hash.Size]byte{leaf(1), leaf(2), leaf(3), leaf(4), leaf(5)}, 0)
	require.NoError(t, err)
	require.Equal(t, 1, treeIndex)

	roots := f.CommitmentRoots()
	require.Len(t, roots, 2)
	// Spilled successor carries the predecessor's root until finalized.
	require.Equal(t, roots[0], roots[1])

	require.NoError(t, f.FinalizeCommitmentTree())
	roots = f.CommitmentRoots()
	require.NotEqual(t, roots[0], roots[1])
}
