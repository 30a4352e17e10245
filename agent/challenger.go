// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package agent

import (
	"math/bits"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/iotexproject/pdao-governance/action"
	"github.com/iotexproject/pdao-governance/pkg/log"
	"github.com/iotexproject/pdao-governance/pkg/votetree"
)

// ErrNoDispute indicates every node of a pollard matches the local tree
var ErrNoDispute = errors.New("no disputed node")

// Challenger checks pollards revealed by a proposer against its own tree
type Challenger struct {
	tree *LocalTree
}

// NewChallenger creates a challenger holding the honest tree
func NewChallenger(tree *LocalTree) *Challenger {
	return &Challenger{tree: tree}
}

// FirstDisputed returns the global index of the first node of a pollard answering index that differs from the
// local tree, and its position in the pollard
func (c *Challenger) FirstDisputed(index uint64, pollard []votetree.Node) (uint64, int, error) {
	n := len(pollard)
	if n == 0 || n&(n-1) != 0 {
		return 0, 0, errors.Wrapf(votetree.ErrInvalidNodeCount, "pollard of %d nodes", n)
	}
	levels := uint64(bits.TrailingZeros(uint(n)))
	first := index << levels
	for i, node := range pollard {
		want, err := c.tree.Node(first + uint64(i))
		if err != nil {
			return 0, 0, err
		}
		if !node.Equal(want) {
			return first + uint64(i), i, nil
		}
	}
	return 0, 0, ErrNoDispute
}

// Dispute returns the challenge against the first false node of a pollard answering index. The proof is taken
// from the pollard itself, the node the proposer committed to.
func (c *Challenger) Dispute(proposalID, index uint64, pollard []votetree.Node) (*action.CreateChallenge, error) {
	disputed, pos, err := c.FirstDisputed(index, pollard)
	if err != nil {
		return nil, err
	}
	var (
		levels = uint64(bits.TrailingZeros(uint(len(pollard))))
		proof  = make([]votetree.Node, 0, levels)
		level  = votetree.CloneNodes(pollard)
	)
	for i := uint64(0); i < levels; i++ {
		proof = append(proof, level[pos^1])
		next := make([]votetree.Node, len(level)/2)
		for j := range next {
			next[j] = votetree.Combine(level[2*j], level[2*j+1])
		}
		level, pos = next, pos/2
	}
	log.L().Debug("Disputing node.",
		zap.Uint64("proposal", proposalID),
		zap.Uint64("answered", index),
		zap.Uint64("disputed", disputed),
	)
	return action.NewCreateChallenge(proposalID, disputed, pollard[disputed-index<<levels], proof), nil
}
