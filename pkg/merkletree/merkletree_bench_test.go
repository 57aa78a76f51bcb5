package merkletree

import (
	"fmt"
	"testing"
)

// BenchmarkRebuild benchmarks finalization with various leaf counts.
func BenchmarkRebuild(b *testing.B) {
	sizes := []int{16, 64, 256}

	for _, size := range sizes {
		b.Run(fmt.Sprintf("Leaves_%d", size), func(b *testing.B) {
			leaves := make([][32]byte, size)
			for i := range leaves {
				leaves[i][31] = byte(i)
				leaves[i][30] = byte(i >> 8)
			}
			tree, _ := New(0, 10)
			_ = tree.InsertLeaves(leaves, 0)
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				tree.Rebuild()
			}
		})
	}
}

// BenchmarkGenerateProof benchmarks proof generation from a finalized tree.
func BenchmarkGenerateProof(b *testing.B) {
	leaves := make([][32]byte, 256)
	for i := range leaves {
		leaves[i][31] = byte(i)
		leaves[i][30] = byte(i >> 8)
	}
	tree, _ := New(0, 10)
	_ = tree.InsertLeaves(leaves, 0)
	tree.Rebuild()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_, _ = tree.GenerateProof(leaves[i%len(leaves)])
	}
}

// BenchmarkValidateProof benchmarks the stateless validation path.
func BenchmarkValidateProof(b *testing.B) {
	leaves := make([][32]byte, 64)
	for i := range leaves {
		leaves[i][31] = byte(i)
	}
	tree, _ := New(0, 10)
	_ = tree.InsertLeaves(leaves, 0)
	tree.Rebuild()
	proof, _ := tree.GenerateProof(leaves[7])
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = ValidateProof(proof)
	}
}
