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

func (p *Protocol) createChallenge(ctx context.Context, sm protocol.StateManager, act *action.CreateChallenge) ([]*action.Log, error) {
	proposal, err := p.proposalOf(sm, act)
	if err != nil {
		return nil, err
	}
	ts := now(ctx)
	if proposal.State(ts) != Pending {
		return nil, ErrNotPending
	}
	var (
		layout = proposal.Layout()
		index  = act.Index()
		d      = votetree.Depth(index)
	)
	if d > layout.Phase2Depth() {
		return nil, errors.Wrapf(ErrInvalidIndexDepth, "index %d", index)
	}
	if d == 0 || !layout.IsCommitmentDepth(d) {
		return nil, errors.Wrapf(ErrInvalidChallengeDepth, "index %d", index)
	}
	prev := layout.PreviousCommitmentDepth(d)
	ancestor, err := p.store.Challenge(sm, proposal.ID, index>>(d-prev))
	if err != nil {
		return nil, err
	}
	if ancestor.State != Responded {
		return nil, errors.Wrapf(ErrInvalidChallengeDepth, "ancestor of %d not revealed", index)
	}
	if uint64(len(act.Proof())) != d-prev {
		return nil, errors.Wrapf(ErrInvalidProofLength, "expected %d, got %d", d-prev, len(act.Proof()))
	}
	if !votetree.FoldProof(act.Node(), index, act.Proof()).Equal(ancestor.Node()) {
		return nil, ErrInvalidProof
	}
	existing, err := p.store.Challenge(sm, proposal.ID, index)
	if err != nil {
		return nil, err
	}
	if existing.State != Unchallenged {
		return nil, errors.Wrapf(ErrAlreadyChallenged, "index %d", index)
	}
	challenger := protocol.MustGetActionCtx(ctx).Caller
	if err := p.lockBond(sm, challenger, proposal.ChallengeBond); err != nil {
		return nil, err
	}
	c := &Challenge{
		Challenger:  challenger,
		CreatedTime: ts,
		State:       Challenged,
	}
	c.SetNode(act.Node())
	if err := p.store.PutChallenge(sm, proposal.ID, index, c); err != nil {
		return nil, err
	}
	l, err := newLog("ChallengeSubmitted", proposal.ID, challenger, new(big.Int).SetUint64(index))
	if err != nil {
		return nil, err
	}
	log.L().Info("Challenge submitted.",
		zap.Uint64("id", proposal.ID),
		zap.Uint64("index", index),
		zap.String("challenger", challenger.Hex()))
	return []*action.Log{l}, nil
}

func (p *Protocol) submitRoot(ctx context.Context, sm protocol.StateManager, act *action.SubmitRoot) ([]*action.Log, error) {
	proposal, err := p.proposalOf(sm, act)
	if err != nil {
		return nil, err
	}
	caller := protocol.MustGetActionCtx(ctx).Caller
	if caller != proposal.Proposer {
		return nil, ErrNotProposer
	}
	if proposal.State(now(ctx)) != Pending {
		return nil, ErrSubmitRootNotPending
	}
	index := act.Index()
	c, err := p.store.Challenge(sm, proposal.ID, index)
	if err != nil {
		return nil, err
	}
	switch c.State {
	case Challenged:
	case Unchallenged:
		return nil, errors.Wrapf(ErrChallengeNotExist, "index %d", index)
	default:
		return nil, errors.Wrapf(ErrChallengeResponded, "index %d", index)
	}
	computed, err := p.verifyPollard(sm, proposal, index, c.Node(), act.Pollard())
	if err != nil {
		return nil, err
	}
	c.State = Responded
	c.SetNode(computed)
	if err := p.store.PutChallenge(sm, proposal.ID, index, c); err != nil {
		return nil, err
	}
	l, err := newLog("RootSubmitted", proposal.ID, caller, new(big.Int).SetUint64(index), computed.Sum, [32]byte(computed.Hash))
	if err != nil {
		return nil, err
	}
	log.L().Info("Challenge responded.", zap.Uint64("id", proposal.ID), zap.Uint64("index", index))
	return []*action.Log{l}, nil
}

// verifyPollard checks a pollard answering the challenge at index against the committed node, and returns the
// node later challenges below index prove against
func (p *Protocol) verifyPollard(sr protocol.StateReader, proposal *Proposal, index uint64, committed votetree.Node, pollard []votetree.Node) (votetree.Node, error) {
	var (
		layout = proposal.Layout()
		d      = votetree.Depth(index)
		next   = layout.NextCommitmentDepth(d)
	)
	if uint64(len(pollard)) != layout.PollardSize(d) {
		return votetree.Node{}, errors.Wrapf(ErrInvalidNodeCount, "expected %d nodes, got %d", layout.PollardSize(d), len(pollard))
	}
	for _, n := range pollard {
		if !n.Valid() {
			return votetree.Node{}, errors.Wrap(ErrInvalidSum, "node sum out of range")
		}
	}
	computed, err := votetree.ComputeRoot(pollard)
	if err != nil {
		return votetree.Node{}, errors.Wrap(ErrInvalidNodeCount, err.Error())
	}
	if computed.Sum.Cmp(committed.Sum) != 0 {
		return votetree.Node{}, errors.Wrapf(ErrInvalidSum, "expected %s, got %s", committed.Sum, computed.Sum)
	}
	if d == layout.Phase1Depth() {
		// the committed phase 1 leaf only carries the sum, the sub-tree root hash is new information
		if votetree.LeafHash(computed.Sum) != committed.Hash {
			return votetree.Node{}, ErrInvalidHash
		}
	} else if computed.Hash != committed.Hash {
		return votetree.Node{}, ErrInvalidHash
	}
	if d >= layout.Phase1Depth() && next == layout.Phase2Depth() {
		if err := p.verifyLeaves(sr, proposal, index, pollard); err != nil {
			return votetree.Node{}, err
		}
	}
	return computed, nil
}

// verifyLeaves compares phase 2 leaves with the power delegated to the sub-root node at the proposal block
func (p *Protocol) verifyLeaves(sr protocol.StateReader, proposal *Proposal, index uint64, leaves []votetree.Node) error {
	var (
		p1      = proposal.Phase1Depth
		d       = votetree.Depth(index)
		subRoot = index >> (d - p1)
		nodeIdx = subRoot - 1<<p1
		first   = index<<(2*p1-d) - subRoot<<p1
		node    common.Address
		err     error
	)
	registered := nodeIdx < proposal.NodeCount
	if registered {
		if node, err = p.registry.NodeAt(sr, nodeIdx); err != nil {
			return err
		}
	}
	for i, leaf := range leaves {
		j := first + uint64(i)
		expected := new(big.Int)
		if registered && j < proposal.NodeCount {
			other, err := p.registry.NodeAt(sr, j)
			if err != nil {
				return err
			}
			delegate, err := p.registry.Delegate(sr, other, proposal.Block)
			if err != nil {
				return err
			}
			if delegate == node {
				if expected, err = p.registry.VotingPower(sr, other, proposal.Block); err != nil {
					return err
				}
			}
		}
		if !leaf.Equal(votetree.NewLeaf(expected)) {
			return errors.Wrapf(ErrInvalidLeaves, "leaf %d of node %d", j, nodeIdx)
		}
	}
	return nil
}

func (p *Protocol) defeatProposal(ctx context.Context, sm protocol.StateManager, act *action.DefeatProposal) ([]*action.Log, error) {
	proposal, err := p.proposalOf(sm, act)
	if err != nil {
		return nil, err
	}
	ts := now(ctx)
	index := act.Index()
	c, err := p.store.Challenge(sm, proposal.ID, index)
	if err != nil {
		return nil, err
	}
	if ts < c.CreatedTime+proposal.ChallengePeriod {
		return nil, ErrNotEnoughTime
	}
	switch c.State {
	case Challenged:
	case Unchallenged:
		return nil, errors.Wrapf(ErrChallengeNotExist, "index %d", index)
	default:
		return nil, errors.Wrapf(ErrDefeatResponded, "index %d", index)
	}
	if proposal.DefeatIndex != 0 {
		return nil, ErrDefeatNotPending
	}
	if s := proposal.State(ts); s != Pending {
		return nil, errors.Wrapf(ErrDefeatValid, "proposal %d is %s", proposal.ID, s)
	}
	var challenges uint64
	for i := index; i > 1; i >>= 1 {
		r, err := p.store.Challenge(sm, proposal.ID, i)
		if err != nil {
			return nil, err
		}
		if r.Challenger != (common.Address{}) {
			challenges++
		}
	}
	proposal.DefeatIndex = index
	proposal.DefeatPathChallenges = challenges
	if err := p.store.PutProposal(sm, proposal); err != nil {
		return nil, err
	}
	l, err := newLog("ProposalDefeated", proposal.ID, c.Challenger, new(big.Int).SetUint64(index))
	if err != nil {
		return nil, err
	}
	log.L().Info("Proposal defeated.",
		zap.Uint64("id", proposal.ID),
		zap.Uint64("index", index),
		zap.Uint64("pathChallenges", challenges))
	return []*action.Log{l}, nil
}
