// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package pdao

import (
	"github.com/pkg/errors"

	"github.com/iotexproject/pdao-governance/action"
)

var (
	// ErrProposalNotExist is returned for unknown proposal ids
	ErrProposalNotExist = errors.New("Invalid proposal ID")
	// ErrBlockNotInPast is returned when a proposal snapshots the current or a future block
	ErrBlockNotInPast = errors.New("Block must be in the past")
	// ErrBlockTooOld is returned when a proposal snapshots a block older than the maximum age
	ErrBlockTooOld = errors.New("Block too old")
	// ErrNotEnoughStake is returned when the unlocked stake does not cover a bond
	ErrNotEnoughStake = errors.New("Not enough staked RPL")
	// ErrLockingNotAllowed is returned when the bond holder did not allow locking
	ErrLockingNotAllowed = errors.New("Node is not allowed to lock RPL")

	// ErrInvalidIndexDepth is returned for indices below the tree
	ErrInvalidIndexDepth = errors.New("Invalid index depth")
	// ErrInvalidChallengeDepth is returned for indices not revealed by an answered pollard
	ErrInvalidChallengeDepth = errors.New("Invalid challenge depth")
	// ErrInvalidProofLength is returned when a proof does not reach the previous commitment depth
	ErrInvalidProofLength = errors.New("Invalid proof length")
	// ErrInvalidProof is returned when a proof does not fold to the committed node
	ErrInvalidProof = errors.New("Invalid proof")
	// ErrAlreadyChallenged is returned when challenging an index twice
	ErrAlreadyChallenged = errors.New("Index already challenged")
	// ErrNotPending is returned when challenging outside of the pending period
	ErrNotPending = errors.New("Can only challenge while proposal is Pending")

	// ErrNotProposer is returned when someone other than the proposer submits a root
	ErrNotProposer = errors.New("Only proposer can submit root")
	// ErrSubmitRootNotPending is returned when submitting a root outside of the pending period
	ErrSubmitRootNotPending = errors.New("Can not submit root for a valid proposal")
	// ErrChallengeNotExist is returned for an index nobody challenged
	ErrChallengeNotExist = errors.New("Challenge does not exist")
	// ErrChallengeResponded is returned when answering a challenge twice
	ErrChallengeResponded = errors.New("Challenge already responded")
	// ErrInvalidNodeCount is returned for pollards of the wrong size
	ErrInvalidNodeCount = errors.New("Invalid node count")
	// ErrInvalidSum is returned when a pollard does not add up to the challenged node
	ErrInvalidSum = errors.New("Invalid sum")
	// ErrInvalidHash is returned when a pollard does not hash to the challenged node
	ErrInvalidHash = errors.New("Invalid hash")
	// ErrInvalidLeaves is returned when leaves disagree with the delegated voting power
	ErrInvalidLeaves = errors.New("Invalid leaves")

	// ErrNotEnoughTime is returned when defeating before the challenge period elapsed
	ErrNotEnoughTime = errors.New("Not enough time has passed")
	// ErrDefeatResponded is returned when defeating with an answered challenge
	ErrDefeatResponded = errors.New("Can not defeat a responded challenge")
	// ErrDefeatNotPending is returned when defeating an already defeated proposal
	ErrDefeatNotPending = errors.New("Can only defeat while proposal is Pending")
	// ErrDefeatValid is returned when defeating a proposal that reached voting
	ErrDefeatValid = errors.New("Can not defeat a valid proposal")

	// ErrClaimPending is returned when claiming bonds before the pending period ended
	ErrClaimPending = errors.New("Can not claim bond while proposal is Pending")
	// ErrInvalidChallenger is returned when claiming another challenger's bond
	ErrInvalidChallenger = errors.New("Invalid challenger")
	// ErrInvalidChallengeState is returned when claiming a bond that is not claimable
	ErrInvalidChallengeState = errors.New("Invalid challenge state")
	// ErrNotProposerClaim is returned when someone other than the proposer claims proposer bonds
	ErrNotProposerClaim = errors.New("Not proposer")
	// ErrProposalDefeated is returned when the proposer claims on a defeated proposal
	ErrProposalDefeated = errors.New("Proposal defeated")

	// ErrPhase1NotActive is returned when voting outside of phase 1
	ErrPhase1NotActive = errors.New("Phase 1 voting is not active")
	// ErrPhase2NotActive is returned when overriding outside of phase 2
	ErrPhase2NotActive = errors.New("Phase 2 voting is not active")
	// ErrAlreadyVoted is returned when a node votes twice
	ErrAlreadyVoted = errors.New("Node operator has already voted on proposal")
	// ErrInvalidVoteDirection is returned for NoVote or unknown directions
	ErrInvalidVoteDirection = action.ErrInvalidVoteDirection
	// ErrSameDirection is returned when an override agrees with the delegate
	ErrSameDirection = errors.New("Vote direction must differ from delegate")
	// ErrInvalidVoter is returned when the caller is not the node at the voted index
	ErrInvalidVoter = errors.New("Invalid node index")
	// ErrVoterDelegated is returned when a node that delegated its power and holds none votes in phase 1
	ErrVoterDelegated = errors.New("Node has delegated its voting power")

	// ErrNotExecutable is returned when executing a proposal that did not succeed
	ErrNotExecutable = errors.New("Proposal has not succeeded, has expired or has already been executed")
	// ErrCancelNotProposer is returned when someone other than the proposer cancels
	ErrCancelNotProposer = errors.New("Proposal can only be cancelled by the proposer")
	// ErrCancelState is returned when cancelling a settled proposal
	ErrCancelState = errors.New("Proposal can only be cancelled if pending or active")
	// ErrFinaliseNotVetoed is returned when finalising a proposal that was not vetoed
	ErrFinaliseNotVetoed = errors.New("Can only finalise a vetoed proposal")
	// ErrAlreadyFinalised is returned when finalising twice
	ErrAlreadyFinalised = errors.New("Proposal already finalised")

	// ErrUnknownMethod is returned for payloads calling no known method
	ErrUnknownMethod = errors.New("Unknown proposal method")
)
