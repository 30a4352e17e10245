// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package agent

import (
	"context"

	"github.com/iotexproject/pdao-governance/action"
	"github.com/iotexproject/pdao-governance/action/protocol"
)

// Proposer answers challenges against a proposal with pollards of its tree
type Proposer struct {
	tree  *LocalTree
	block uint64
}

// NewProposer creates a proposer committing to tree at block
func NewProposer(tree *LocalTree, block uint64) *Proposer {
	return &Proposer{tree: tree, block: block}
}

// Tree returns the tree the proposer commits to
func (p *Proposer) Tree() *LocalTree { return p.tree }

// Propose returns the proposal action carrying the root pollard
func (p *Proposer) Propose(message string, payload []byte) (*action.Propose, error) {
	pollard, err := p.tree.Pollard(1)
	if err != nil {
		return nil, err
	}
	return action.NewPropose(message, payload, p.block, pollard), nil
}

// Respond returns the action answering a challenge at index
func (p *Proposer) Respond(proposalID, index uint64) (*action.SubmitRoot, error) {
	pollard, err := p.tree.Pollard(index)
	if err != nil {
		return nil, err
	}
	return action.NewSubmitRoot(proposalID, index, pollard), nil
}

// Vote returns the phase 1 vote of nodeIndex carrying its delegated power and witness
func (p *Proposer) Vote(proposalID uint64, nodeIndex uint64, direction action.VoteDirection) (*action.Vote, error) {
	return NewVote(p.tree, proposalID, nodeIndex, direction)
}

// NewVote returns the phase 1 vote of nodeIndex proven against tree
func NewVote(tree *LocalTree, proposalID uint64, nodeIndex uint64, direction action.VoteDirection) (*action.Vote, error) {
	leaf, witness, err := tree.VoteProof(nodeIndex)
	if err != nil {
		return nil, err
	}
	return action.NewVote(proposalID, direction, leaf.Sum, nodeIndex, witness), nil
}

// NewProposerFromRegistry builds the honest tree of block and returns a proposer for it
func NewProposerFromRegistry(ctx context.Context, b *TreeBuilder, sr protocol.StateReader, block, depthPerRound uint64) (*Proposer, error) {
	tree, err := BuildLocalTree(ctx, b, sr, block, depthPerRound)
	if err != nil {
		return nil, err
	}
	return NewProposer(tree, block), nil
}
