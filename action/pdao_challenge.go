// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package action

import (
	"github.com/pkg/errors"

	"github.com/iotexproject/pdao-governance/pkg/votetree"
)

var (
	_ ProposalAction = (*CreateChallenge)(nil)
	_ ProposalAction = (*SubmitRoot)(nil)
	_ ProposalAction = (*DefeatProposal)(nil)
)

// CreateChallenge disputes the node at index, proving it was committed by an earlier pollard
type CreateChallenge struct {
	proposalRef
	index uint64
	node  votetree.Node
	proof []votetree.Node
}

// NewCreateChallenge returns a CreateChallenge instance
func NewCreateChallenge(proposalID, index uint64, node votetree.Node, proof []votetree.Node) *CreateChallenge {
	return &CreateChallenge{
		proposalRef: proposalRef{proposalID},
		index:       index,
		node:        node.Clone(),
		proof:       votetree.CloneNodes(proof),
	}
}

// Index returns the challenged tree index
func (c *CreateChallenge) Index() uint64 { return c.index }

// Node returns the challenged node as committed by the proposer
func (c *CreateChallenge) Node() votetree.Node { return c.node }

// Proof returns the siblings linking the node to its committed ancestor
func (c *CreateChallenge) Proof() []votetree.Node { return c.proof }

// MethodName returns the ABI method name
func (c *CreateChallenge) MethodName() string { return "createChallenge" }

// SanityCheck validates the variables in the action
func (c *CreateChallenge) SanityCheck() error {
	if c.index == 0 {
		return ErrInvalidIndex
	}
	if !c.node.Valid() {
		return errors.Wrap(ErrInvalidNode, "challenged node")
	}
	return validNodes(c.proof)
}

// EthData returns the ABI-encoded data for converting to eth tx
func (c *CreateChallenge) EthData() ([]byte, error) {
	return pack(c.MethodName(), u256(c.proposalID), u256(c.index), toABINode(c.node), toABINodes(c.proof))
}

// SubmitRoot answers a challenge with the pollard below the challenged index
type SubmitRoot struct {
	proposalRef
	index   uint64
	pollard []votetree.Node
}

// NewSubmitRoot returns a SubmitRoot instance
func NewSubmitRoot(proposalID, index uint64, pollard []votetree.Node) *SubmitRoot {
	return &SubmitRoot{
		proposalRef: proposalRef{proposalID},
		index:       index,
		pollard:     votetree.CloneNodes(pollard),
	}
}

// Index returns the answered tree index
func (s *SubmitRoot) Index() uint64 { return s.index }

// Pollard returns the revealed nodes
func (s *SubmitRoot) Pollard() []votetree.Node { return s.pollard }

// MethodName returns the ABI method name
func (s *SubmitRoot) MethodName() string { return "submitRoot" }

// SanityCheck validates the variables in the action
func (s *SubmitRoot) SanityCheck() error {
	if s.index == 0 {
		return ErrInvalidIndex
	}
	if len(s.pollard) == 0 {
		return errors.Wrap(votetree.ErrInvalidNodeCount, "empty pollard")
	}
	return validNodes(s.pollard)
}

// EthData returns the ABI-encoded data for converting to eth tx
func (s *SubmitRoot) EthData() ([]byte, error) {
	return pack(s.MethodName(), u256(s.proposalID), u256(s.index), toABINodes(s.pollard))
}

// DefeatProposal defeats a proposal whose challenge at index went unanswered
type DefeatProposal struct {
	proposalRef
	index uint64
}

// NewDefeatProposal returns a DefeatProposal instance
func NewDefeatProposal(proposalID, index uint64) *DefeatProposal {
	return &DefeatProposal{
		proposalRef: proposalRef{proposalID},
		index:       index,
	}
}

// Index returns the unanswered tree index
func (d *DefeatProposal) Index() uint64 { return d.index }

// MethodName returns the ABI method name
func (d *DefeatProposal) MethodName() string { return "defeatProposal" }

// SanityCheck validates the variables in the action
func (d *DefeatProposal) SanityCheck() error {
	if d.index == 0 {
		return ErrInvalidIndex
	}
	return nil
}

// EthData returns the ABI-encoded data for converting to eth tx
func (d *DefeatProposal) EthData() ([]byte, error) {
	return pack(d.MethodName(), u256(d.proposalID), u256(d.index))
}
