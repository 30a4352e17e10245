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
	"github.com/iotexproject/pdao-governance/pkg/votetree"
)

const (
	_phase1 uint8 = 1
	_phase2 uint8 = 2
)

func (p *Protocol) vote(ctx context.Context, sm protocol.StateManager, act *action.Vote) ([]*action.Log, error) {
	proposal, err := p.proposalOf(sm, act)
	if err != nil {
		return nil, err
	}
	if proposal.State(now(ctx)) != ActivePhase1 {
		return nil, ErrPhase1NotActive
	}
	voter := protocol.MustGetActionCtx(ctx).Caller
	if act.NodeIndex() >= proposal.NodeCount {
		return nil, errors.Wrapf(ErrInvalidVoter, "index %d of %d nodes", act.NodeIndex(), proposal.NodeCount)
	}
	node, err := p.registry.NodeAt(sm, act.NodeIndex())
	if err != nil {
		return nil, err
	}
	if node != voter {
		return nil, errors.Wrapf(ErrInvalidVoter, "index %d", act.NodeIndex())
	}
	root, err := p.store.Challenge(sm, proposal.ID, 1)
	if err != nil {
		return nil, err
	}
	layout := proposal.Layout()
	if uint64(len(act.Witness())) != layout.Phase1Depth() ||
		!votetree.FoldProof(votetree.NewLeaf(act.VotingPower()), layout.SubRootIndex(act.NodeIndex()), act.Witness()).Equal(root.Node()) {
		return nil, ErrInvalidProof
	}
	// a node that delegated away still votes the power delegated to it
	delegate, err := p.registry.Delegate(sm, voter, proposal.Block)
	if err != nil {
		return nil, err
	}
	if delegate != voter && act.VotingPower().Sign() == 0 {
		return nil, ErrVoterDelegated
	}
	if err := p.checkNotVoted(sm, proposal.ID, voter); err != nil {
		return nil, err
	}
	if !act.Direction().Valid() {
		return nil, ErrInvalidVoteDirection
	}
	return p.castVote(sm, proposal, voter, act.Direction(), act.VotingPower(), _phase1)
}

func (p *Protocol) overrideVote(ctx context.Context, sm protocol.StateManager, act *action.OverrideVote) ([]*action.Log, error) {
	proposal, err := p.proposalOf(sm, act)
	if err != nil {
		return nil, err
	}
	if proposal.State(now(ctx)) != ActivePhase2 {
		return nil, ErrPhase2NotActive
	}
	if !act.Direction().Valid() {
		return nil, ErrInvalidVoteDirection
	}
	voter := protocol.MustGetActionCtx(ctx).Caller
	if _, err := p.registry.NodeIndex(sm, voter); err != nil {
		return nil, errors.Wrap(ErrInvalidVoter, err.Error())
	}
	power, err := p.registry.VotingPower(sm, voter, proposal.Block)
	if err != nil {
		return nil, err
	}
	if err := p.checkNotVoted(sm, proposal.ID, voter); err != nil {
		return nil, err
	}
	delegate, err := p.registry.Delegate(sm, voter, proposal.Block)
	if err != nil {
		return nil, err
	}
	if delegate != voter {
		dv, err := p.store.Vote(sm, proposal.ID, delegate)
		if err != nil {
			return nil, err
		}
		// only a phase 1 vote carries the voter's power, a phase 2 vote is the delegate's own
		if dv != nil && dv.Phase == _phase1 {
			if dv.Direction == act.Direction() {
				return nil, ErrSameDirection
			}
			proposal.subVote(dv.Direction, power)
			if dv.VotingPower.Cmp(power) < 0 {
				dv.VotingPower.SetInt64(0)
			} else {
				dv.VotingPower.Sub(dv.VotingPower, power)
			}
			if err := p.store.PutVote(sm, proposal.ID, delegate, dv); err != nil {
				return nil, err
			}
		}
	}
	return p.castVote(sm, proposal, voter, act.Direction(), power, _phase2)
}

func (p *Protocol) checkNotVoted(sr protocol.StateReader, id uint64, voter common.Address) error {
	v, err := p.store.Vote(sr, id, voter)
	if err != nil {
		return err
	}
	if v != nil {
		return ErrAlreadyVoted
	}
	return nil
}

func (p *Protocol) castVote(sm protocol.StateManager, proposal *Proposal, voter common.Address, direction action.VoteDirection, power *big.Int, phase uint8) ([]*action.Log, error) {
	proposal.addVote(direction, power)
	if err := p.store.PutProposal(sm, proposal); err != nil {
		return nil, err
	}
	if err := p.store.PutVote(sm, proposal.ID, voter, &VoteRecord{
		Direction:   direction,
		Phase:       phase,
		VotingPower: new(big.Int).Set(power),
	}); err != nil {
		return nil, err
	}
	l, err := newLog("VoteCast", proposal.ID, voter, uint8(direction), power, phase == _phase2)
	if err != nil {
		return nil, err
	}
	log.L().Debug("Vote cast.",
		zap.Uint64("id", proposal.ID),
		zap.String("voter", voter.Hex()),
		zap.Stringer("direction", direction),
		zap.Uint8("phase", phase),
		zap.String("power", power.String()))
	return []*action.Log{l}, nil
}
