// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package action

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/iotexproject/pdao-governance/pkg/votetree"
)

// VoteDirection is the direction of a vote
type VoteDirection uint8

// vote directions
const (
	NoVote VoteDirection = iota
	Abstain
	For
	Against
	AgainstWithVeto
)

// ErrInvalidVoteDirection indicates a direction outside the known values or NoVote
var ErrInvalidVoteDirection = errors.New("Invalid vote direction")

var (
	_ ProposalAction = (*Vote)(nil)
	_ ProposalAction = (*OverrideVote)(nil)
)

// String returns the name of the direction
func (d VoteDirection) String() string {
	switch d {
	case NoVote:
		return "NoVote"
	case Abstain:
		return "Abstain"
	case For:
		return "For"
	case Against:
		return "Against"
	case AgainstWithVeto:
		return "AgainstWithVeto"
	default:
		return "Unknown"
	}
}

// Valid reports whether d is a direction a vote can be cast in
func (d VoteDirection) Valid() bool {
	return d > NoVote && d <= AgainstWithVeto
}

// Vote is a phase 1 vote cast by a node with its delegated voting power
type Vote struct {
	proposalRef
	direction   VoteDirection
	votingPower *big.Int
	nodeIndex   uint64
	witness     []votetree.Node
}

// NewVote returns a Vote instance
func NewVote(proposalID uint64, direction VoteDirection, votingPower *big.Int, nodeIndex uint64, witness []votetree.Node) *Vote {
	vp := new(big.Int)
	if votingPower != nil {
		vp.Set(votingPower)
	}
	return &Vote{
		proposalRef: proposalRef{proposalID},
		direction:   direction,
		votingPower: vp,
		nodeIndex:   nodeIndex,
		witness:     votetree.CloneNodes(witness),
	}
}

// Direction returns the vote direction
func (v *Vote) Direction() VoteDirection { return v.direction }

// VotingPower returns the delegated voting power claimed by the voter
func (v *Vote) VotingPower() *big.Int { return v.votingPower }

// NodeIndex returns the registration index of the voter
func (v *Vote) NodeIndex() uint64 { return v.nodeIndex }

// Witness returns the siblings linking the voter's leaf to the proposal root
func (v *Vote) Witness() []votetree.Node { return v.witness }

// MethodName returns the ABI method name
func (v *Vote) MethodName() string { return "vote" }

// SanityCheck validates the variables in the action
func (v *Vote) SanityCheck() error {
	if v.votingPower.Sign() < 0 || v.votingPower.BitLen() > 256 {
		return errors.Wrap(ErrInvalidNode, "voting power")
	}
	if v.direction > AgainstWithVeto {
		return ErrInvalidVoteDirection
	}
	return validNodes(v.witness)
}

// EthData returns the ABI-encoded data for converting to eth tx
func (v *Vote) EthData() ([]byte, error) {
	return pack(v.MethodName(), u256(v.proposalID), uint8(v.direction), v.votingPower, u256(v.nodeIndex), toABINodes(v.witness))
}

// OverrideVote is a phase 2 vote cast by a node with its own voting power, overriding its delegate's vote
type OverrideVote struct {
	proposalRef
	direction VoteDirection
}

// NewOverrideVote returns an OverrideVote instance
func NewOverrideVote(proposalID uint64, direction VoteDirection) *OverrideVote {
	return &OverrideVote{
		proposalRef: proposalRef{proposalID},
		direction:   direction,
	}
}

// Direction returns the vote direction
func (v *OverrideVote) Direction() VoteDirection { return v.direction }

// MethodName returns the ABI method name
func (v *OverrideVote) MethodName() string { return "overrideVote" }

// SanityCheck validates the variables in the action
func (v *OverrideVote) SanityCheck() error {
	if v.direction > AgainstWithVeto {
		return ErrInvalidVoteDirection
	}
	return nil
}

// EthData returns the ABI-encoded data for converting to eth tx
func (v *OverrideVote) EthData() ([]byte, error) {
	return pack(v.MethodName(), u256(v.proposalID), uint8(v.direction))
}
