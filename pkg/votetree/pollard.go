// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package votetree

import (
	"github.com/pkg/errors"
)

// GeneratePollard returns the nodes revealed when answering a challenge at index, depthPerRound levels below
// it or down to the leaves. Index 1 yields the pollard submitted with a proposal.
func GeneratePollard(leaves []Node, depthPerRound uint64, index uint64) ([]Node, error) {
	t, err := NewTree(leaves)
	if err != nil {
		return nil, err
	}
	d := Depth(index)
	if index == 0 || d > t.Depth() {
		return nil, errors.Wrapf(ErrInvalidIndex, "index %d", index)
	}
	return t.Descendants(index, min(d+depthPerRound, t.Depth())-d)
}

// GenerateChallengeProof returns the node at index and the siblings linking it to its ancestor at the previous
// commitment depth
func GenerateChallengeProof(leaves []Node, depthPerRound uint64, index uint64) (Node, []Node, error) {
	t, err := NewTree(leaves)
	if err != nil {
		return Node{}, nil, err
	}
	node, err := t.Node(index)
	if err != nil {
		return Node{}, nil, err
	}
	d := Depth(index)
	if d == 0 {
		return node, []Node{}, nil
	}
	l := NewLayoutWithDepth(t.Depth(), depthPerRound)
	proof, err := t.Siblings(index, d-l.PreviousCommitmentDepth(d))
	if err != nil {
		return Node{}, nil, err
	}
	return node, proof, nil
}

// GenerateVoteProof returns the leaf of nodeIndex and the witness linking it to the root
func GenerateVoteProof(leaves []Node, nodeIndex uint64) (Node, []Node, error) {
	if nodeIndex >= uint64(len(leaves)) {
		return Node{}, nil, errors.Wrapf(ErrInvalidIndex, "node index %d of %d", nodeIndex, len(leaves))
	}
	t, err := NewTree(leaves)
	if err != nil {
		return Node{}, nil, err
	}
	index := 1<<t.Depth() + nodeIndex
	leaf, err := t.Node(index)
	if err != nil {
		return Node{}, nil, err
	}
	witness, err := t.Siblings(index, t.Depth())
	if err != nil {
		return Node{}, nil, err
	}
	return leaf, witness, nil
}

// ComputeRoot folds a pollard into the node it reveals
func ComputeRoot(pollard []Node) (Node, error) {
	n := len(pollard)
	if n == 0 || n&(n-1) != 0 {
		return Node{}, errors.Wrapf(ErrInvalidNodeCount, "pollard of %d nodes", n)
	}
	level := CloneNodes(pollard)
	for len(level) > 1 {
		next := make([]Node, len(level)/2)
		for i := range next {
			next[i] = Combine(level[2*i], level[2*i+1])
		}
		level = next
	}
	return level[0], nil
}

// FoldProof folds a node at index with its siblings, returning the ancestor len(proof) levels above
func FoldProof(node Node, index uint64, proof []Node) Node {
	cur := node
	for _, sibling := range proof {
		if index%2 == 0 {
			cur = Combine(cur, sibling)
		} else {
			cur = Combine(sibling, cur)
		}
		index >>= 1
	}
	return cur
}
