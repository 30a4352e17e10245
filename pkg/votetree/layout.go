// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package votetree

import (
	"math/bits"
)

// Depth returns the depth of a binary heap index, the root (index 1) being at depth 0
func Depth(index uint64) uint64 {
	if index == 0 {
		return 0
	}
	return uint64(bits.Len64(index)) - 1
}

// Phase1Depth returns ceil(log2(leafCount)), at least 1
func Phase1Depth(leafCount int) uint64 {
	if leafCount <= 2 {
		return 1
	}
	return uint64(bits.Len64(uint64(leafCount - 1)))
}

// RoundCount returns the number of challenge rounds per phase for a tree of totalLeaves leaves
func RoundCount(totalLeaves uint64, depthPerRound uint64) uint64 {
	if totalLeaves == 0 || depthPerRound == 0 {
		return 1
	}
	levels := uint64(bits.Len64(totalLeaves)) - 1
	rounds := (levels + depthPerRound - 1) / depthPerRound
	if rounds <= 1 {
		return 1
	}
	return rounds - 1
}

// Layout is the index space of a two-phase tree. Phase 1 covers depths [0, p1] over the per-node delegated
// power, phase 2 continues each phase 1 leaf (the sub-root) down to depth p2 = 2*p1 over the power delegated
// to that node.
type Layout struct {
	phase1Depth   uint64
	depthPerRound uint64
}

// NewLayout creates the layout for nodeCount registered nodes
func NewLayout(nodeCount int, depthPerRound uint64) Layout {
	if depthPerRound == 0 {
		depthPerRound = 1
	}
	return Layout{
		phase1Depth:   Phase1Depth(nodeCount),
		depthPerRound: depthPerRound,
	}
}

// NewLayoutWithDepth creates a layout from a known phase 1 depth
func NewLayoutWithDepth(phase1Depth, depthPerRound uint64) Layout {
	if depthPerRound == 0 {
		depthPerRound = 1
	}
	return Layout{
		phase1Depth:   phase1Depth,
		depthPerRound: depthPerRound,
	}
}

// Phase1Depth returns the depth of the primary tree
func (l Layout) Phase1Depth() uint64 { return l.phase1Depth }

// Phase2Depth returns the maximum depth of the index space
func (l Layout) Phase2Depth() uint64 { return 2 * l.phase1Depth }

// DepthPerRound returns the levels revealed by a pollard
func (l Layout) DepthPerRound() uint64 { return l.depthPerRound }

// IsCommitmentDepth reports whether nodes at depth d are revealed by some pollard
func (l Layout) IsCommitmentDepth(d uint64) bool {
	p1, p2 := l.phase1Depth, l.Phase2Depth()
	switch {
	case d == 0, d == p1, d == p2:
		return true
	case d < p1:
		return d%l.depthPerRound == 0
	case d < p2:
		return (d-p1)%l.depthPerRound == 0
	default:
		return false
	}
}

// PreviousCommitmentDepth returns the deepest commitment depth strictly above d
func (l Layout) PreviousCommitmentDepth(d uint64) uint64 {
	p1 := l.phase1Depth
	if d == 0 {
		return 0
	}
	if d <= p1 {
		return (d - 1) / l.depthPerRound * l.depthPerRound
	}
	return p1 + (d-p1-1)/l.depthPerRound*l.depthPerRound
}

// NextCommitmentDepth returns the depth a pollard answering a challenge at depth d reaches
func (l Layout) NextCommitmentDepth(d uint64) uint64 {
	p1, p2 := l.phase1Depth, l.Phase2Depth()
	switch {
	case d < p1:
		return min(d+l.depthPerRound, p1)
	case d < p2:
		return min(d+l.depthPerRound, p2)
	default:
		return p2
	}
}

// PollardSize returns the node count of a pollard answering a challenge at depth d
func (l Layout) PollardSize(d uint64) uint64 {
	return 1 << (l.NextCommitmentDepth(d) - d)
}

// RootPollardSize returns the node count of the pollard submitted with a proposal
func (l Layout) RootPollardSize() uint64 {
	return l.PollardSize(0)
}

// SubRootIndex returns the phase 1 leaf index of a node
func (l Layout) SubRootIndex(nodeIndex uint64) uint64 {
	return 1<<l.phase1Depth + nodeIndex
}

// SubIndex maps a global phase 2 index into the index space of its sub-tree
func (l Layout) SubIndex(index uint64) uint64 {
	return GetSubIndex(index, l.phase1Depth)
}

// GetSubIndex maps a global index below the phase boundary at depth phase1Depth into the local index space of
// the sub-tree rooted at its phase 1 ancestor
func GetSubIndex(index uint64, phase1Depth uint64) uint64 {
	d := Depth(index)
	if d < phase1Depth {
		return index
	}
	sub := d - phase1Depth
	return 1<<sub + index%(1<<sub)
}
