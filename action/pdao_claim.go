// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package action

var (
	_ ProposalAction = (*ClaimBondProposer)(nil)
	_ ProposalAction = (*ClaimBondChallenger)(nil)
)

type claim struct {
	proposalRef
	indices []uint64
}

// Indices returns the tree indices whose bonds are claimed
func (c *claim) Indices() []uint64 { return c.indices }

// SanityCheck validates the variables in the action
func (c *claim) SanityCheck() error {
	if len(c.indices) == 0 {
		return ErrEmptyIndices
	}
	for _, idx := range c.indices {
		if idx == 0 {
			return ErrInvalidIndex
		}
	}
	return nil
}

func newClaim(proposalID uint64, indices []uint64) claim {
	return claim{
		proposalRef: proposalRef{proposalID},
		indices:     append([]uint64(nil), indices...),
	}
}

// ClaimBondProposer settles the proposer side of the bonds at the given indices
type ClaimBondProposer struct {
	claim
}

// NewClaimBondProposer returns a ClaimBondProposer instance
func NewClaimBondProposer(proposalID uint64, indices []uint64) *ClaimBondProposer {
	return &ClaimBondProposer{newClaim(proposalID, indices)}
}

// MethodName returns the ABI method name
func (c *ClaimBondProposer) MethodName() string { return "claimBondProposer" }

// EthData returns the ABI-encoded data for converting to eth tx
func (c *ClaimBondProposer) EthData() ([]byte, error) {
	return pack(c.MethodName(), u256(c.proposalID), bigIndices(c.indices))
}

// ClaimBondChallenger settles the challenger side of the bonds at the given indices
type ClaimBondChallenger struct {
	claim
}

// NewClaimBondChallenger returns a ClaimBondChallenger instance
func NewClaimBondChallenger(proposalID uint64, indices []uint64) *ClaimBondChallenger {
	return &ClaimBondChallenger{newClaim(proposalID, indices)}
}

// MethodName returns the ABI method name
func (c *ClaimBondChallenger) MethodName() string { return "claimBondChallenger" }

// EthData returns the ABI-encoded data for converting to eth tx
func (c *ClaimBondChallenger) EthData() ([]byte, error) {
	return pack(c.MethodName(), u256(c.proposalID), bigIndices(c.indices))
}
