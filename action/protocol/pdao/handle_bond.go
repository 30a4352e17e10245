// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package pdao

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/iotexproject/pdao-governance/action"
	"github.com/iotexproject/pdao-governance/action/protocol"
	"github.com/iotexproject/pdao-governance/pkg/log"
)

// bondSettlement accumulates the amounts moved by a claim
type bondSettlement struct {
	unlocked *big.Int
	received *big.Int
	burned   *big.Int
}

func newBondSettlement() *bondSettlement {
	return &bondSettlement{
		unlocked: new(big.Int),
		received: new(big.Int),
		burned:   new(big.Int),
	}
}

func (p *Protocol) claimBondProposer(ctx context.Context, sm protocol.StateManager, act *action.ClaimBondProposer) ([]*action.Log, error) {
	proposal, err := p.proposalOf(sm, act)
	if err != nil {
		return nil, err
	}
	caller := protocol.MustGetActionCtx(ctx).Caller
	if caller != proposal.Proposer {
		return nil, ErrNotProposerClaim
	}
	if proposal.DefeatIndex != 0 {
		return nil, ErrProposalDefeated
	}
	state := proposal.State(now(ctx))
	if state == Pending {
		return nil, ErrClaimPending
	}
	ps, err := p.params(sm)
	if err != nil {
		return nil, err
	}
	settled := newBondSettlement()
	for _, index := range act.Indices() {
		c, err := p.store.Challenge(sm, proposal.ID, index)
		if err != nil {
			return nil, err
		}
		if c.State != Responded {
			return nil, errors.Wrapf(ErrInvalidChallengeState, "index %d is %s", index, c.State)
		}
		if index == 1 {
			// a vetoed proposer bond is settled by finalise
			if state == Vetoed {
				return nil, errors.Wrapf(ErrInvalidChallengeState, "proposal %d is %s", proposal.ID, state)
			}
			if err := p.ledger.UnlockRPL(sm, proposal.Proposer, proposal.ProposalBond); err != nil {
				return nil, err
			}
			settled.unlocked.Add(settled.unlocked, proposal.ProposalBond)
		} else {
			pay, burn, err := p.settleBond(sm, c.Challenger, proposal.Proposer, proposal.ChallengeBond, ps.burnPercent)
			if err != nil {
				return nil, err
			}
			settled.received.Add(settled.received, pay)
			settled.burned.Add(settled.burned, burn)
		}
		c.State = Paid
		if err := p.store.PutChallenge(sm, proposal.ID, index, c); err != nil {
			return nil, err
		}
	}
	return p.bondClaimed(proposal, caller, settled)
}

func (p *Protocol) claimBondChallenger(ctx context.Context, sm protocol.StateManager, act *action.ClaimBondChallenger) ([]*action.Log, error) {
	proposal, err := p.proposalOf(sm, act)
	if err != nil {
		return nil, err
	}
	if proposal.State(now(ctx)) == Pending {
		return nil, ErrClaimPending
	}
	ps, err := p.params(sm)
	if err != nil {
		return nil, err
	}
	var (
		caller   = protocol.MustGetActionCtx(ctx).Caller
		defeated = proposal.DefeatIndex != 0
		settled  = newBondSettlement()
	)
	for _, index := range act.Indices() {
		if index <= 1 {
			return nil, errors.Wrapf(ErrInvalidChallengeState, "index %d", index)
		}
		c, err := p.store.Challenge(sm, proposal.ID, index)
		if err != nil {
			return nil, err
		}
		if c.Challenger != caller {
			return nil, errors.Wrapf(ErrInvalidChallenger, "index %d", index)
		}
		if c.State != Challenged && c.State != Responded {
			return nil, errors.Wrapf(ErrInvalidChallengeState, "index %d is %s", index, c.State)
		}
		if !defeated && c.State == Responded {
			return nil, errors.Wrapf(ErrInvalidChallengeState, "index %d was responded", index)
		}
		if err := p.ledger.UnlockRPL(sm, caller, proposal.ChallengeBond); err != nil {
			return nil, err
		}
		settled.unlocked.Add(settled.unlocked, proposal.ChallengeBond)
		if defeated && onPath(proposal.DefeatIndex, index) && proposal.DefeatPathChallenges > 0 {
			reward := new(big.Int).Div(proposal.ProposalBond, new(big.Int).SetUint64(proposal.DefeatPathChallenges))
			pay, burn, err := p.settleBond(sm, proposal.Proposer, caller, reward, ps.burnPercent)
			if err != nil {
				return nil, err
			}
			settled.received.Add(settled.received, pay)
			settled.burned.Add(settled.burned, burn)
		}
		c.State = Paid
		if err := p.store.PutChallenge(sm, proposal.ID, index, c); err != nil {
			return nil, err
		}
	}
	return p.bondClaimed(proposal, caller, settled)
}

func (p *Protocol) finalise(ctx context.Context, sm protocol.StateManager, act *action.Finalise) ([]*action.Log, error) {
	proposal, err := p.proposalOf(sm, act)
	if err != nil {
		return nil, err
	}
	if s := proposal.State(now(ctx)); s != Vetoed {
		return nil, errors.Wrapf(ErrFinaliseNotVetoed, "proposal %d is %s", proposal.ID, s)
	}
	if proposal.Finalised {
		return nil, ErrAlreadyFinalised
	}
	root, err := p.store.Challenge(sm, proposal.ID, 1)
	if err != nil {
		return nil, err
	}
	if root.State == Paid {
		return nil, ErrAlreadyFinalised
	}
	if err := p.ledger.UnlockRPL(sm, proposal.Proposer, proposal.ProposalBond); err != nil {
		return nil, err
	}
	root.State = Paid
	if err := p.store.PutChallenge(sm, proposal.ID, 1, root); err != nil {
		return nil, err
	}
	proposal.Finalised = true
	if err := p.store.PutProposal(sm, proposal); err != nil {
		return nil, err
	}
	l, err := newLog("ProposalFinalised", proposal.ID, proposal.Proposer)
	if err != nil {
		return nil, err
	}
	log.L().Info("Proposal finalised.", zap.Uint64("id", proposal.ID))
	return []*action.Log{l}, nil
}

func (p *Protocol) bondClaimed(proposal *Proposal, claimer common.Address, s *bondSettlement) ([]*action.Log, error) {
	l, err := newLog("BondClaimed", proposal.ID, claimer, s.unlocked, s.received, s.burned)
	if err != nil {
		return nil, err
	}
	log.L().Info("Bond claimed.",
		zap.Uint64("id", proposal.ID),
		zap.String("claimer", claimer.Hex()),
		zap.String("unlocked", s.unlocked.String()),
		zap.String("received", s.received.String()),
		zap.String("burned", s.burned.String()))
	return []*action.Log{l}, nil
}

// onPath reports whether index is defeatIndex or one of its ancestors
func onPath(defeatIndex, index uint64) bool {
	for i := defeatIndex; i >= index && i > 0; i >>= 1 {
		if i == index {
			return true
		}
	}
	return false
}
