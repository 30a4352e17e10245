// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package votetree

import (
	"math/big"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func powers(v ...int64) []*big.Int {
	p := make([]*big.Int, len(v))
	for i := range v {
		p[i] = big.NewInt(v[i])
	}
	return p
}

func sums(nodes []Node) []int64 {
	s := make([]int64, len(nodes))
	for i := range nodes {
		s[i] = nodes[i].Sum.Int64()
	}
	return s
}

func TestDepth(t *testing.T) {
	require := require.New(t)

	require.Equal(uint64(0), Depth(1))
	require.Equal(uint64(1), Depth(2))
	require.Equal(uint64(1), Depth(3))
	require.Equal(uint64(2), Depth(4))
	require.Equal(uint64(3), Depth(15))

	for _, c := range []struct {
		leaves int
		depth  uint64
	}{{1, 1}, {2, 1}, {3, 2}, {4, 2}, {5, 3}, {8, 3}, {9, 4}} {
		require.Equal(c.depth, Phase1Depth(c.leaves), "leaves %d", c.leaves)
	}

	require.Equal(uint64(1), RoundCount(4, 1))
	require.Equal(uint64(3), RoundCount(16, 1))
	require.Equal(uint64(1), RoundCount(16, 2))
	require.Equal(uint64(2), RoundCount(64, 2))
}

func TestLayout(t *testing.T) {
	require := require.New(t)

	// p1 = 3, p2 = 6, commitments at 0, 2, 3, 5, 6
	l := NewLayout(5, 2)
	require.Equal(uint64(3), l.Phase1Depth())
	require.Equal(uint64(6), l.Phase2Depth())
	var commits []uint64
	for d := uint64(0); d <= 7; d++ {
		if l.IsCommitmentDepth(d) {
			commits = append(commits, d)
		}
	}
	require.Equal([]uint64{0, 2, 3, 5, 6}, commits)
	require.Equal(uint64(0), l.PreviousCommitmentDepth(2))
	require.Equal(uint64(2), l.PreviousCommitmentDepth(3))
	require.Equal(uint64(3), l.PreviousCommitmentDepth(5))
	require.Equal(uint64(5), l.PreviousCommitmentDepth(6))
	require.Equal(uint64(3), l.NextCommitmentDepth(2))
	require.Equal(uint64(5), l.NextCommitmentDepth(3))
	require.Equal(uint64(6), l.NextCommitmentDepth(6))
	require.Equal(uint64(4), l.RootPollardSize())
	require.Equal(uint64(2), l.PollardSize(2))
	require.Equal(uint64(1), l.PollardSize(6))
	require.Equal(uint64(9), l.SubRootIndex(1))

	// global index 9<<2|3 = 39 is at depth 5, two levels below sub-root 9
	require.Equal(uint64(7), l.SubIndex(39))
	require.Equal(uint64(1), GetSubIndex(9, 3))
	require.Equal(uint64(3), GetSubIndex(5, 1))
}

func TestNodeHashing(t *testing.T) {
	require := require.New(t)

	a, b := NewLeaf(big.NewInt(100)), NewLeaf(big.NewInt(200))
	require.True(a.Valid())
	require.NotEqual(a.Hash, b.Hash)
	require.Equal(LeafHash(big.NewInt(100)), a.Hash)

	ab := Combine(a, b)
	require.Equal(int64(300), ab.Sum.Int64())
	// order matters
	require.NotEqual(ab.Hash, Combine(b, a).Hash)
	// hash commits to the sums of the children
	forged := Node{Sum: big.NewInt(150), Hash: a.Hash}
	require.NotEqual(ab.Hash, Combine(forged, b).Hash)

	require.False(Node{Sum: big.NewInt(-1)}.Valid())
	require.False(Node{}.Valid())
	require.False(Node{Sum: new(big.Int).Lsh(big.NewInt(1), 256)}.Valid())

	c := ab.Clone()
	c.Sum.SetInt64(1)
	require.Equal(int64(300), ab.Sum.Int64())
}

func TestTree(t *testing.T) {
	require := require.New(t)

	leaves := ConstructTreeLeaves(powers(100, 200, 300))
	tree, err := NewTree(leaves)
	require.NoError(err)
	require.Equal(uint64(2), tree.Depth())
	require.Equal(int64(600), tree.Root().Sum.Int64())

	pad, err := tree.Node(7)
	require.NoError(err)
	require.True(ZeroLeaf().Equal(pad))

	// conservation at every internal node
	for index := uint64(1); index < 4; index++ {
		n, err := tree.Node(index)
		require.NoError(err)
		children, err := tree.Descendants(index, 1)
		require.NoError(err)
		require.True(Combine(children[0], children[1]).Equal(n))
	}

	_, err = tree.Node(8)
	require.Equal(ErrInvalidIndex, errors.Cause(err))
	_, err = tree.Descendants(2, 2)
	require.Equal(ErrInvalidIndex, errors.Cause(err))
	_, err = NewTree(nil)
	require.Equal(ErrInvalidNodeCount, errors.Cause(err))
}

func TestGeneratePollard(t *testing.T) {
	require := require.New(t)

	leaves := ConstructTreeLeaves(powers(100, 200, 300))
	pollard, err := GeneratePollard(leaves, 1, 1)
	require.NoError(err)
	require.Equal([]int64{300, 300}, sums(pollard))

	pollard, err = GeneratePollard(leaves, 1, 3)
	require.NoError(err)
	require.Equal([]int64{300, 0}, sums(pollard))

	// deeper rounds stop at the leaves
	pollard, err = GeneratePollard(leaves, 4, 1)
	require.NoError(err)
	require.Equal([]int64{100, 200, 300, 0}, sums(pollard))
	pollard, err = GeneratePollard(leaves, 2, 5)
	require.NoError(err)
	require.Equal([]int64{200}, sums(pollard))

	root, err := ComputeRoot(pollard)
	require.NoError(err)
	require.Equal(leaves[1].Hash, root.Hash)

	tree, err := NewTree(leaves)
	require.NoError(err)
	full, err := GeneratePollard(leaves, 2, 1)
	require.NoError(err)
	root, err = ComputeRoot(full)
	require.NoError(err)
	require.True(tree.Root().Equal(root))

	_, err = ComputeRoot(full[:3])
	require.Equal(ErrInvalidNodeCount, errors.Cause(err))
	_, err = GeneratePollard(leaves, 1, 8)
	require.Equal(ErrInvalidIndex, errors.Cause(err))
}

func TestChallengeProof(t *testing.T) {
	require := require.New(t)

	leaves := ConstructTreeLeaves(powers(1, 2, 3, 4, 5, 6, 7, 8, 9))
	tree, err := NewTree(leaves)
	require.NoError(err)
	require.Equal(uint64(4), tree.Depth())

	// depth 4 with 3 levels per round proves up to depth 3
	node, proof, err := GenerateChallengeProof(leaves, 3, 16+2)
	require.NoError(err)
	require.Len(proof, 1)
	parent, err := tree.Node(9)
	require.NoError(err)
	require.True(FoldProof(node, 18, proof).Equal(parent))

	// depth 3 with 3 levels per round proves up to the root
	node, proof, err = GenerateChallengeProof(leaves, 3, 13)
	require.NoError(err)
	require.Len(proof, 3)
	require.True(FoldProof(node, 13, proof).Equal(tree.Root()))

	// tampering with any node of the proof breaks the fold
	proof[1].Sum = new(big.Int).Add(proof[1].Sum, big.NewInt(1))
	require.False(FoldProof(node, 13, proof).Equal(tree.Root()))
}

func TestVoteProof(t *testing.T) {
	require := require.New(t)

	leaves := ConstructTreeLeaves(powers(10, 20, 30, 40, 50))
	tree, err := NewTree(leaves)
	require.NoError(err)
	for i := range leaves {
		leaf, witness, err := GenerateVoteProof(leaves, uint64(i))
		require.NoError(err)
		require.Len(witness, int(tree.Depth()))
		require.True(leaf.Equal(leaves[i]))
		require.True(FoldProof(leaf, 1<<tree.Depth()+uint64(i), witness).Equal(tree.Root()))
	}
	_, _, err = GenerateVoteProof(leaves, 5)
	require.Equal(ErrInvalidIndex, errors.Cause(err))
}
