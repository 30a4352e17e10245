// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

// Package pdao implements the optimistic protocol DAO governance engine. Proposals commit to a tree of delegated
// voting power that anyone can dispute by bisection before voting starts, then pass through two voting phases.
package pdao

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/iotexproject/pdao-governance/action"
	"github.com/iotexproject/pdao-governance/action/protocol"
	"github.com/iotexproject/pdao-governance/action/protocol/staking"
	"github.com/iotexproject/pdao-governance/pkg/log"
	"github.com/iotexproject/pdao-governance/pkg/tracer"
)

const _protocolID = "pdao"

type (
	// StakeLedger locks, moves and burns the RPL backing bonds
	StakeLedger interface {
		StakedRPL(protocol.StateReader, common.Address) (*big.Int, error)
		LockedRPL(protocol.StateReader, common.Address) (*big.Int, error)
		IsLockingAllowed(protocol.StateReader, common.Address) (bool, error)
		LockRPL(protocol.StateManager, common.Address, *big.Int) error
		UnlockRPL(protocol.StateManager, common.Address, *big.Int) error
		TransferRPL(protocol.StateManager, common.Address, common.Address, *big.Int) error
		BurnRPL(protocol.StateManager, common.Address, *big.Int) error
	}

	// NodeRegistry is the source of truth of registered nodes, their voting power and delegation
	NodeRegistry interface {
		NodeCount(protocol.StateReader, uint64) (uint64, error)
		NodeAt(protocol.StateReader, uint64) (common.Address, error)
		NodeIndex(protocol.StateReader, common.Address) (uint64, error)
		VotingPower(protocol.StateReader, common.Address, uint64) (*big.Int, error)
		Delegate(protocol.StateReader, common.Address, uint64) (common.Address, error)
	}

	// Protocol defines the protocol DAO governance engine
	Protocol struct {
		cfg           Config
		store         *GovernanceStore
		ledger        StakeLedger
		registry      NodeRegistry
		executor      Executor
		proposalBond  *big.Int
		challengeBond *big.Int
	}

	handler func(context.Context, protocol.StateManager) ([]*action.Log, []byte, error)
)

// NewProtocol instantiates the governance protocol. A nil executor defaults to the settings executor.
func NewProtocol(cfg Config, ledger StakeLedger, registry NodeRegistry, executor Executor) (*Protocol, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if ledger == nil || registry == nil {
		return nil, errors.New("stake ledger and node registry are required")
	}
	proposalBond, _ := parseAmount(cfg.ProposalBond)
	challengeBond, _ := parseAmount(cfg.ChallengeBond)
	p := &Protocol{
		cfg:           cfg,
		store:         NewGovernanceStore(),
		ledger:        ledger,
		registry:      registry,
		executor:      executor,
		proposalBond:  proposalBond,
		challengeBond: challengeBond,
	}
	if p.executor == nil {
		e, err := NewSettingsExecutor(p.store, ExecutorVersion)
		if err != nil {
			return nil, err
		}
		p.executor = e
	}
	return p, nil
}

// Name returns the name of the protocol
func (p *Protocol) Name() string {
	return _protocolID
}

// Register registers the protocol with a unique ID
func (p *Protocol) Register(r *protocol.Registry) error {
	return r.Register(_protocolID, p)
}

// Store returns the governance store
func (p *Protocol) Store() *GovernanceStore {
	return p.store
}

// Handle handles a governance action. Nothing is written unless the whole action succeeds.
func (p *Protocol) Handle(ctx context.Context, act action.Action, sm protocol.StateManager) (*action.Receipt, error) {
	var h handler
	switch act := act.(type) {
	case *action.Propose:
		h = func(ctx context.Context, sm protocol.StateManager) ([]*action.Log, []byte, error) {
			return p.propose(ctx, sm, act)
		}
	case *action.Vote:
		h = p.withLogs(func(ctx context.Context, sm protocol.StateManager) ([]*action.Log, error) {
			return p.vote(ctx, sm, act)
		})
	case *action.OverrideVote:
		h = p.withLogs(func(ctx context.Context, sm protocol.StateManager) ([]*action.Log, error) {
			return p.overrideVote(ctx, sm, act)
		})
	case *action.CreateChallenge:
		h = p.withLogs(func(ctx context.Context, sm protocol.StateManager) ([]*action.Log, error) {
			return p.createChallenge(ctx, sm, act)
		})
	case *action.SubmitRoot:
		h = p.withLogs(func(ctx context.Context, sm protocol.StateManager) ([]*action.Log, error) {
			return p.submitRoot(ctx, sm, act)
		})
	case *action.DefeatProposal:
		h = p.withLogs(func(ctx context.Context, sm protocol.StateManager) ([]*action.Log, error) {
			return p.defeatProposal(ctx, sm, act)
		})
	case *action.ClaimBondProposer:
		h = p.withLogs(func(ctx context.Context, sm protocol.StateManager) ([]*action.Log, error) {
			return p.claimBondProposer(ctx, sm, act)
		})
	case *action.ClaimBondChallenger:
		h = p.withLogs(func(ctx context.Context, sm protocol.StateManager) ([]*action.Log, error) {
			return p.claimBondChallenger(ctx, sm, act)
		})
	case *action.Execute:
		h = p.withLogs(func(ctx context.Context, sm protocol.StateManager) ([]*action.Log, error) {
			return p.execute(ctx, sm, act)
		})
	case *action.Cancel:
		h = p.withLogs(func(ctx context.Context, sm protocol.StateManager) ([]*action.Log, error) {
			return p.cancel(ctx, sm, act)
		})
	case *action.Finalise:
		h = p.withLogs(func(ctx context.Context, sm protocol.StateManager) ([]*action.Log, error) {
			return p.finalise(ctx, sm, act)
		})
	default:
		return nil, nil
	}
	return p.settleAction(ctx, sm, act, h)
}

func (p *Protocol) withLogs(f func(context.Context, protocol.StateManager) ([]*action.Log, error)) handler {
	return func(ctx context.Context, sm protocol.StateManager) ([]*action.Log, []byte, error) {
		logs, err := f(ctx, sm)
		return logs, nil, err
	}
}

func (p *Protocol) settleAction(ctx context.Context, sm protocol.StateManager, act action.Action, h handler) (*action.Receipt, error) {
	blkCtx := protocol.MustGetBlockCtx(ctx)
	actCtx := protocol.MustGetActionCtx(ctx)
	ctx, span := tracer.NewSpan(ctx, "pdao."+act.MethodName(),
		attribute.Int64("height", int64(blkCtx.BlockHeight)),
		attribute.String("caller", actCtx.Caller.Hex()),
	)
	defer span.End()

	snapshot := sm.Snapshot()
	logs, ret, err := h(ctx, sm)
	if err != nil {
		if rerr := sm.Revert(snapshot); rerr != nil {
			log.L().Panic("Failed to revert governance state.", zap.Error(rerr))
		}
		span.RecordError(err)
		_actionMtc.WithLabelValues(act.MethodName(), "failure").Inc()
		log.L().Debug("Governance action failed.",
			zap.String("action", act.MethodName()),
			zap.String("caller", actCtx.Caller.Hex()),
			zap.Error(err))
		return nil, err
	}
	_actionMtc.WithLabelValues(act.MethodName(), "success").Inc()
	receipt := &action.Receipt{
		Status:      action.SuccessReceiptStatus,
		Action:      act.MethodName(),
		BlockHeight: blkCtx.BlockHeight,
		ReturnValue: ret,
	}
	return receipt.AddLogs(logs...), nil
}

// ProposalByID returns a stored proposal
func (p *Protocol) ProposalByID(sr protocol.StateReader, id uint64) (*Proposal, error) {
	return p.store.Proposal(sr, id)
}

// ProposalState returns the state of a proposal at the given unix time
func (p *Protocol) ProposalState(sr protocol.StateReader, id uint64, now uint64) (ProposalState, error) {
	proposal, err := p.store.Proposal(sr, id)
	if err != nil {
		return 0, err
	}
	return proposal.State(now), nil
}

// ChallengeOf returns the dispute record of a tree index of a proposal
func (p *Protocol) ChallengeOf(sr protocol.StateReader, id, index uint64) (*Challenge, error) {
	if _, err := p.store.Proposal(sr, id); err != nil {
		return nil, err
	}
	return p.store.Challenge(sr, id, index)
}

// VoteOf returns the vote of a node on a proposal, nil if it did not vote
func (p *Protocol) VoteOf(sr protocol.StateReader, id uint64, voter common.Address) (*VoteRecord, error) {
	return p.store.Vote(sr, id, voter)
}

func (p *Protocol) proposalOf(sr protocol.StateReader, act action.ProposalAction) (*Proposal, error) {
	return p.store.Proposal(sr, act.ProposalID())
}

func (p *Protocol) lockBond(sm protocol.StateManager, node common.Address, amount *big.Int) error {
	err := p.ledger.LockRPL(sm, node, amount)
	switch errors.Cause(err) {
	case nil:
		return nil
	case staking.ErrLockingNotAllowed:
		return ErrLockingNotAllowed
	case staking.ErrNotEnoughStake:
		return ErrNotEnoughStake
	default:
		return err
	}
}

// settleBond unlocks amount from the loser, then moves the payable share to the winner and burns the rest
func (p *Protocol) settleBond(sm protocol.StateManager, loser, winner common.Address, amount *big.Int, burnPercent uint64) (*big.Int, *big.Int, error) {
	if err := p.ledger.UnlockRPL(sm, loser, amount); err != nil {
		return nil, nil, err
	}
	pay, burn := splitBurn(amount, burnPercent)
	if pay.Sign() > 0 {
		if err := p.ledger.TransferRPL(sm, loser, winner, pay); err != nil {
			return nil, nil, err
		}
	}
	if burn.Sign() > 0 {
		if err := p.ledger.BurnRPL(sm, loser, burn); err != nil {
			return nil, nil, err
		}
		recordBurn(burn)
	}
	return pay, burn, nil
}

func now(ctx context.Context) uint64 {
	return uint64(protocol.MustGetBlockCtx(ctx).BlockTimeStamp.Unix())
}
