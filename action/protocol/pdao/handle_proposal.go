// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package pdao

import (
	"context"
	"math/big"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/iotexproject/pdao-governance/action"
	"github.com/iotexproject/pdao-governance/action/protocol"
	"github.com/iotexproject/pdao-governance/pkg/log"
	"github.com/iotexproject/pdao-governance/pkg/util/byteutil"
	"github.com/iotexproject/pdao-governance/pkg/votetree"
)

func (p *Protocol) propose(ctx context.Context, sm protocol.StateManager, act *action.Propose) ([]*action.Log, []byte, error) {
	blkCtx := protocol.MustGetBlockCtx(ctx)
	proposer := protocol.MustGetActionCtx(ctx).Caller
	if act.Block() >= blkCtx.BlockHeight {
		return nil, nil, errors.Wrapf(ErrBlockNotInPast, "block %d at height %d", act.Block(), blkCtx.BlockHeight)
	}
	ps, err := p.params(sm)
	if err != nil {
		return nil, nil, err
	}
	if ps.maxBlockAge > 0 && blkCtx.BlockHeight-act.Block() > ps.maxBlockAge {
		return nil, nil, errors.Wrapf(ErrBlockTooOld, "block %d at height %d", act.Block(), blkCtx.BlockHeight)
	}
	count, err := p.registry.NodeCount(sm, act.Block())
	if err != nil {
		return nil, nil, err
	}
	layout := votetree.NewLayout(int(count), ps.depthPerRound)
	if uint64(len(act.Pollard())) != layout.RootPollardSize() {
		return nil, nil, errors.Wrapf(ErrInvalidNodeCount, "expected %d nodes, got %d", layout.RootPollardSize(), len(act.Pollard()))
	}
	root, err := votetree.ComputeRoot(act.Pollard())
	if err != nil {
		return nil, nil, errors.Wrap(ErrInvalidNodeCount, err.Error())
	}
	if !root.Valid() {
		return nil, nil, errors.Wrap(ErrInvalidSum, "root sum out of range")
	}
	if err := p.lockBond(sm, proposer, ps.proposalBond); err != nil {
		return nil, nil, err
	}
	id, err := p.store.NextProposalID(sm)
	if err != nil {
		return nil, nil, err
	}
	created := now(ctx)
	proposal := &Proposal{
		ID:              id,
		Proposer:        proposer,
		Message:         act.Message(),
		Payload:         act.Payload(),
		Block:           act.Block(),
		CreatedTime:     created,
		NodeCount:       count,
		Phase1Depth:     layout.Phase1Depth(),
		DepthPerRound:   layout.DepthPerRound(),
		StartTime:       created + ps.voteDelayTime,
		ChallengePeriod: ps.challengePeriod,
		TotalPower:      new(big.Int).Set(root.Sum),
		Quorum:          share(root.Sum, ps.quorumBps),
		VetoQuorum:      share(root.Sum, ps.vetoQuorumBps),
		ProposalBond:    ps.proposalBond,
		ChallengeBond:   ps.challengeBond,
		VotingFor:       new(big.Int),
		VotingAgainst:   new(big.Int),
		VotingVeto:      new(big.Int),
		VotingAbstain:   new(big.Int),
	}
	proposal.Phase1EndTime = proposal.StartTime + ps.votePhase1Time
	proposal.Phase2EndTime = proposal.Phase1EndTime + ps.votePhase2Time
	proposal.ExpiryTime = proposal.Phase2EndTime + ps.expiryTime
	if err := p.store.PutProposal(sm, proposal); err != nil {
		return nil, nil, err
	}
	if err := p.store.PutChallenge(sm, id, 1, &Challenge{
		Challenger:  proposer,
		CreatedTime: created,
		State:       Responded,
		Sum:         root.Sum,
		Hash:        root.Hash,
	}); err != nil {
		return nil, nil, err
	}
	l, err := newLog("ProposalCreated", id, proposer, act.Block(), root.Sum)
	if err != nil {
		return nil, nil, err
	}
	log.L().Info("Proposal created.",
		zap.Uint64("id", id),
		zap.String("proposer", proposer.Hex()),
		zap.Uint64("block", act.Block()),
		zap.Uint64("nodes", count),
		zap.String("totalPower", root.Sum.String()))
	return []*action.Log{l}, byteutil.Uint64ToBytes(id), nil
}

func (p *Protocol) execute(ctx context.Context, sm protocol.StateManager, act *action.Execute) ([]*action.Log, error) {
	proposal, err := p.proposalOf(sm, act)
	if err != nil {
		return nil, err
	}
	if s := proposal.State(now(ctx)); s != Succeeded {
		return nil, errors.Wrapf(ErrNotExecutable, "proposal %d is %s", proposal.ID, s)
	}
	if err := p.executor.Execute(ctx, sm, proposal.Payload); err != nil {
		return nil, err
	}
	proposal.Executed = true
	if err := p.store.PutProposal(sm, proposal); err != nil {
		return nil, err
	}
	caller := protocol.MustGetActionCtx(ctx).Caller
	l, err := newLog("ProposalExecuted", proposal.ID, caller)
	if err != nil {
		return nil, err
	}
	log.L().Info("Proposal executed.", zap.Uint64("id", proposal.ID))
	return []*action.Log{l}, nil
}

func (p *Protocol) cancel(ctx context.Context, sm protocol.StateManager, act *action.Cancel) ([]*action.Log, error) {
	proposal, err := p.proposalOf(sm, act)
	if err != nil {
		return nil, err
	}
	caller := protocol.MustGetActionCtx(ctx).Caller
	if caller != proposal.Proposer {
		return nil, ErrCancelNotProposer
	}
	switch s := proposal.State(now(ctx)); s {
	case Pending, ActivePhase1, ActivePhase2:
	default:
		return nil, errors.Wrapf(ErrCancelState, "proposal %d is %s", proposal.ID, s)
	}
	proposal.Cancelled = true
	if err := p.store.PutProposal(sm, proposal); err != nil {
		return nil, err
	}
	l, err := newLog("ProposalCancelled", proposal.ID, caller)
	if err != nil {
		return nil, err
	}
	log.L().Info("Proposal cancelled.", zap.Uint64("id", proposal.ID))
	return []*action.Log{l}, nil
}
