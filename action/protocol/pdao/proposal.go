// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package pdao

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/iotexproject/pdao-governance/action"
	"github.com/iotexproject/pdao-governance/pkg/votetree"
)

// ProposalState is the derived state of a proposal
type ProposalState uint8

// proposal states
const (
	Pending ProposalState = iota
	ActivePhase1
	ActivePhase2
	Cancelled
	Vetoed
	QuorumNotMet
	Defeated
	Succeeded
	Expired
	Executed
)

func (s ProposalState) String() string {
	switch s {
	case Pending:
		return "Pending"
	case ActivePhase1:
		return "ActivePhase1"
	case ActivePhase2:
		return "ActivePhase2"
	case Cancelled:
		return "Cancelled"
	case Vetoed:
		return "Vetoed"
	case QuorumNotMet:
		return "QuorumNotMet"
	case Defeated:
		return "Defeated"
	case Succeeded:
		return "Succeeded"
	case Expired:
		return "Expired"
	case Executed:
		return "Executed"
	default:
		return "Unknown"
	}
}

// Proposal is a governance proposal. Times are unix seconds, fixed at creation from the settings in effect.
type Proposal struct {
	ID            uint64
	Proposer      common.Address
	Message       string
	Payload       []byte
	Block         uint64
	CreatedTime   uint64
	NodeCount     uint64
	Phase1Depth   uint64
	DepthPerRound uint64

	StartTime       uint64
	Phase1EndTime   uint64
	Phase2EndTime   uint64
	ExpiryTime      uint64
	ChallengePeriod uint64

	// TotalPower is the root sum, the voting power the proposer claims exists at Block
	TotalPower *big.Int
	// Quorum and VetoQuorum are the absolute thresholds derived from TotalPower
	Quorum        *big.Int
	VetoQuorum    *big.Int
	ProposalBond  *big.Int
	ChallengeBond *big.Int

	VotingFor     *big.Int
	VotingAgainst *big.Int
	VotingVeto    *big.Int
	VotingAbstain *big.Int

	// DefeatIndex is the unanswered index a challenger defeated the proposal with, 0 if none
	DefeatIndex uint64
	// DefeatPathChallenges is the number of challenged indices on the path to DefeatIndex
	DefeatPathChallenges uint64

	Cancelled bool
	Executed  bool
	Finalised bool
}

// Layout returns the index space of the proposal tree
func (p *Proposal) Layout() votetree.Layout {
	return votetree.NewLayoutWithDepth(p.Phase1Depth, p.DepthPerRound)
}

// State derives the state of the proposal at time now
func (p *Proposal) State(now uint64) ProposalState {
	switch {
	case p.Cancelled:
		return Cancelled
	case p.Executed:
		return Executed
	case p.DefeatIndex != 0:
		return Defeated
	case now < p.StartTime:
		return Pending
	case now < p.Phase1EndTime:
		return ActivePhase1
	case now < p.Phase2EndTime:
		return ActivePhase2
	}
	total := p.TotalVotes()
	switch {
	case p.VotingVeto.Cmp(p.VetoQuorum) >= 0 && p.VetoQuorum.Sign() > 0:
		return Vetoed
	case total.Cmp(p.Quorum) < 0:
		return QuorumNotMet
	case p.VotingFor.Cmp(new(big.Int).Add(p.VotingAgainst, p.VotingVeto)) > 0:
		if now >= p.ExpiryTime {
			return Expired
		}
		return Succeeded
	default:
		return Defeated
	}
}

// TotalVotes returns the voting power cast in any direction
func (p *Proposal) TotalVotes() *big.Int {
	total := new(big.Int).Add(p.VotingFor, p.VotingAgainst)
	total.Add(total, p.VotingVeto)
	return total.Add(total, p.VotingAbstain)
}

func (p *Proposal) tally(direction action.VoteDirection) *big.Int {
	switch direction {
	case action.For:
		return p.VotingFor
	case action.Against:
		return p.VotingAgainst
	case action.AgainstWithVeto:
		return p.VotingVeto
	case action.Abstain:
		return p.VotingAbstain
	default:
		return nil
	}
}

// addVote adds power to the tally of direction
func (p *Proposal) addVote(direction action.VoteDirection, power *big.Int) {
	if t := p.tally(direction); t != nil {
		t.Add(t, power)
	}
}

// subVote removes up to power from the tally of direction
func (p *Proposal) subVote(direction action.VoteDirection, power *big.Int) {
	t := p.tally(direction)
	if t == nil {
		return
	}
	if t.Cmp(power) < 0 {
		t.SetInt64(0)
		return
	}
	t.Sub(t, power)
}

// normalize replaces nil amounts with zero after decoding
func (p *Proposal) normalize() {
	for _, v := range []**big.Int{
		&p.TotalPower, &p.Quorum, &p.VetoQuorum, &p.ProposalBond, &p.ChallengeBond,
		&p.VotingFor, &p.VotingAgainst, &p.VotingVeto, &p.VotingAbstain,
	} {
		if *v == nil {
			*v = new(big.Int)
		}
	}
}
