// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package agent

import (
	"context"

	"github.com/pkg/errors"

	"github.com/iotexproject/pdao-governance/action/protocol"
	"github.com/iotexproject/pdao-governance/pkg/votetree"
)

// LocalTree is the full two phase voting power tree of a block, held in memory
type LocalTree struct {
	layout votetree.Layout
	leaves []votetree.Node
	phase1 *votetree.Tree
	phase2 [][]votetree.Node
	sub    map[uint64]*votetree.Tree
}

// BuildLocalTree builds the tree of block from the node registry
func BuildLocalTree(ctx context.Context, b *TreeBuilder, sr protocol.StateReader, block uint64, depthPerRound uint64) (*LocalTree, error) {
	leaves, err := b.ConstructTreeLeaves(ctx, sr, block)
	if err != nil {
		return nil, err
	}
	phase2, err := b.AllPhase2Leaves(ctx, sr, block)
	if err != nil {
		return nil, err
	}
	return NewLocalTree(leaves, phase2, depthPerRound)
}

// NewLocalTree creates a tree from phase 1 leaves and the phase 2 leaves of every node
func NewLocalTree(leaves []votetree.Node, phase2 [][]votetree.Node, depthPerRound uint64) (*LocalTree, error) {
	if len(phase2) != len(leaves) {
		return nil, errors.Wrapf(votetree.ErrInvalidNodeCount, "%d sub-trees for %d leaves", len(phase2), len(leaves))
	}
	phase1, err := votetree.NewTree(leaves)
	if err != nil {
		return nil, err
	}
	for i, sub := range phase2 {
		if len(sub) != len(leaves) {
			return nil, errors.Wrapf(votetree.ErrInvalidNodeCount, "sub-tree %d has %d leaves", i, len(sub))
		}
	}
	return &LocalTree{
		layout: votetree.NewLayout(len(leaves), depthPerRound),
		leaves: leaves,
		phase1: phase1,
		phase2: phase2,
		sub:    make(map[uint64]*votetree.Tree),
	}, nil
}

// Layout returns the layout of the tree
func (t *LocalTree) Layout() votetree.Layout { return t.layout }

// Leaves returns the phase 1 leaves
func (t *LocalTree) Leaves() []votetree.Node { return votetree.CloneNodes(t.leaves) }

// Root returns the root of the tree
func (t *LocalTree) Root() votetree.Node { return t.phase1.Root() }

// Node returns the node at a global index of the tree
func (t *LocalTree) Node(index uint64) (votetree.Node, error) {
	p1 := t.layout.Phase1Depth()
	d := votetree.Depth(index)
	if index == 0 || d > t.layout.Phase2Depth() {
		return votetree.Node{}, errors.Wrapf(votetree.ErrInvalidIndex, "index %d", index)
	}
	if d <= p1 {
		return t.phase1.Node(index)
	}
	sub, err := t.subTree(index >> (d - p1))
	if err != nil {
		return votetree.Node{}, err
	}
	return sub.Node(votetree.GetSubIndex(index, p1))
}

// Pollard returns the honest answer to a challenge at index, or the proposal pollard for index 1
func (t *LocalTree) Pollard(index uint64) ([]votetree.Node, error) {
	p1 := t.layout.Phase1Depth()
	d := votetree.Depth(index)
	if index == 0 || d > t.layout.Phase2Depth() {
		return nil, errors.Wrapf(votetree.ErrInvalidIndex, "index %d", index)
	}
	if d < p1 {
		return votetree.GeneratePollard(t.leaves, t.layout.DepthPerRound(), index)
	}
	subRoot := index >> (d - p1)
	return votetree.GeneratePollard(t.subLeaves(subRoot), t.layout.DepthPerRound(), votetree.GetSubIndex(index, p1))
}

// ChallengeProof returns the node at index and the siblings linking it to its ancestor at the previous
// commitment depth
func (t *LocalTree) ChallengeProof(index uint64) (votetree.Node, []votetree.Node, error) {
	p1 := t.layout.Phase1Depth()
	d := votetree.Depth(index)
	if index == 0 || d > t.layout.Phase2Depth() {
		return votetree.Node{}, nil, errors.Wrapf(votetree.ErrInvalidIndex, "index %d", index)
	}
	if d <= p1 {
		return votetree.GenerateChallengeProof(t.leaves, t.layout.DepthPerRound(), index)
	}
	return votetree.GenerateChallengeProof(t.subLeaves(index>>(d-p1)), t.layout.DepthPerRound(), votetree.GetSubIndex(index, p1))
}

// VoteProof returns the phase 1 leaf of nodeIndex and its witness to the root
func (t *LocalTree) VoteProof(nodeIndex uint64) (votetree.Node, []votetree.Node, error) {
	return votetree.GenerateVoteProof(t.leaves, nodeIndex)
}

func (t *LocalTree) subTree(subRoot uint64) (*votetree.Tree, error) {
	if sub, ok := t.sub[subRoot]; ok {
		return sub, nil
	}
	sub, err := votetree.NewTree(t.subLeaves(subRoot))
	if err != nil {
		return nil, err
	}
	t.sub[subRoot] = sub
	return sub, nil
}

// subLeaves returns the phase 2 leaves below a sub-root, all zero for the padding past the last node
func (t *LocalTree) subLeaves(subRoot uint64) []votetree.Node {
	node := subRoot - 1<<t.layout.Phase1Depth()
	if node < uint64(len(t.phase2)) {
		return t.phase2[node]
	}
	zero := make([]votetree.Node, len(t.leaves))
	for i := range zero {
		zero[i] = votetree.ZeroLeaf()
	}
	return zero
}
