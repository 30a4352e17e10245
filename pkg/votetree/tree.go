// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package votetree

import (
	"math/big"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidNodeCount is returned when a set of nodes has the wrong size
	ErrInvalidNodeCount = errors.New("Invalid node count")
	// ErrInvalidIndex is returned when an index is outside the tree
	ErrInvalidIndex = errors.New("invalid tree index")
)

// Tree is a complete binary tree over a set of leaves padded with zero leaves to a power of two
type Tree struct {
	depth  uint64
	levels [][]Node
}

// ConstructTreeLeaves creates one leaf per node, in registration order
func ConstructTreeLeaves(power []*big.Int) []Node {
	leaves := make([]Node, len(power))
	for i, p := range power {
		leaves[i] = NewLeaf(p)
	}
	return leaves
}

// NewTree builds the tree over leaves
func NewTree(leaves []Node) (*Tree, error) {
	if len(leaves) == 0 {
		return nil, errors.Wrap(ErrInvalidNodeCount, "tree needs at least one leaf")
	}
	depth := Phase1Depth(len(leaves))
	levels := make([][]Node, depth+1)
	bottom := make([]Node, 1<<depth)
	for i := range bottom {
		if i < len(leaves) {
			bottom[i] = leaves[i].Clone()
		} else {
			bottom[i] = ZeroLeaf()
		}
	}
	levels[depth] = bottom
	for d := int(depth) - 1; d >= 0; d-- {
		below := levels[d+1]
		level := make([]Node, len(below)/2)
		for i := range level {
			level[i] = Combine(below[2*i], below[2*i+1])
		}
		levels[d] = level
	}
	return &Tree{depth: depth, levels: levels}, nil
}

// Depth returns the depth of the leaves
func (t *Tree) Depth() uint64 { return t.depth }

// Root returns the root node
func (t *Tree) Root() Node { return t.levels[0][0].Clone() }

// Node returns the node at a heap index
func (t *Tree) Node(index uint64) (Node, error) {
	if index == 0 || Depth(index) > t.depth {
		return Node{}, errors.Wrapf(ErrInvalidIndex, "index %d, depth %d", index, t.depth)
	}
	d := Depth(index)
	return t.levels[d][index-1<<d].Clone(), nil
}

// Descendants returns the nodes levels below index, left to right
func (t *Tree) Descendants(index uint64, levels uint64) ([]Node, error) {
	if index == 0 || Depth(index)+levels > t.depth {
		return nil, errors.Wrapf(ErrInvalidIndex, "index %d, levels %d, depth %d", index, levels, t.depth)
	}
	d := Depth(index) + levels
	start := index<<levels - 1<<d
	return CloneNodes(t.levels[d][start : start+1<<levels]), nil
}

// Siblings returns the siblings of index and of its ancestors, bottom up
func (t *Tree) Siblings(index uint64, levels uint64) ([]Node, error) {
	if index == 0 || Depth(index) > t.depth || levels > Depth(index) {
		return nil, errors.Wrapf(ErrInvalidIndex, "index %d, levels %d, depth %d", index, levels, t.depth)
	}
	proof := make([]Node, 0, levels)
	for i := uint64(0); i < levels; i++ {
		sibling, err := t.Node((index >> i) ^ 1)
		if err != nil {
			return nil, err
		}
		proof = append(proof, sibling)
	}
	return proof, nil
}
