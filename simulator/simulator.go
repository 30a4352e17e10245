// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

// Package simulator plays a governance proposal end to end against an in-process chain: a proposer commits to a
// voting power tree, challengers check it and dispute false nodes, nodes vote and bonds are settled.
package simulator

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/facebookgo/clock"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/iotexproject/pdao-governance/action"
	"github.com/iotexproject/pdao-governance/action/protocol"
	"github.com/iotexproject/pdao-governance/action/protocol/noderegistry"
	"github.com/iotexproject/pdao-governance/action/protocol/pdao"
	"github.com/iotexproject/pdao-governance/action/protocol/staking"
	"github.com/iotexproject/pdao-governance/agent"
	"github.com/iotexproject/pdao-governance/blockchain/genesis"
	"github.com/iotexproject/pdao-governance/config"
	"github.com/iotexproject/pdao-governance/db"
	"github.com/iotexproject/pdao-governance/pkg/lifecycle"
	"github.com/iotexproject/pdao-governance/pkg/log"
	"github.com/iotexproject/pdao-governance/pkg/probe"
	"github.com/iotexproject/pdao-governance/pkg/util/byteutil"
	"github.com/iotexproject/pdao-governance/pkg/votetree"
	"github.com/iotexproject/pdao-governance/state/factory"
)

type (
	// Scenario is one proposal to play
	Scenario struct {
		Message string
		Payload []byte
		// Dishonest makes the proposer ignore delegations when building its tree
		Dishonest bool
		Direction action.VoteDirection
	}

	// Report is the outcome of a scenario
	Report struct {
		ProposalID uint64
		State      pdao.ProposalState
		Disputed   []uint64
		Actions    uint64
		Failed     uint64
		Burned     *big.Int
	}

	// Simulator runs scenarios on a chain bootstrapped from a genesis
	Simulator struct {
		cfg     config.Config
		genesis genesis.Genesis
		clk     *clock.Mock
		sf      *factory.Factory
		p       *pdao.Protocol
		ledger  *staking.Ledger
		nodes   *noderegistry.Registry
		builder *agent.TreeBuilder
		lc      lifecycle.Lifecycle
		probe   *probe.Server

		actions *atomic.Uint64
		failed  *atomic.Uint64
	}
)

// New creates a simulator storing state in the configured db backend
func New(cfg config.Config, g genesis.Genesis, clk *clock.Mock) (*Simulator, error) {
	if len(g.Nodes) == 0 {
		return nil, errors.New("genesis has no node")
	}
	dao, err := db.CreateKVStore(cfg.DB, cfg.DB.DbPath)
	if err != nil {
		return nil, err
	}
	ledger, nodes := staking.NewLedger(), noderegistry.NewRegistry()
	p, err := pdao.NewProtocol(cfg.Governance, ledger, nodes, nil)
	if err != nil {
		return nil, err
	}
	reg := protocol.NewRegistry()
	if err := p.Register(reg); err != nil {
		return nil, err
	}
	s := &Simulator{
		cfg:     cfg,
		genesis: g,
		clk:     clk,
		sf:      factory.NewFactory(dao, reg),
		p:       p,
		ledger:  ledger,
		nodes:   nodes,
		builder: agent.NewTreeBuilder(nodes, cfg.Agent.Workers),
		actions: atomic.NewUint64(0),
		failed:  atomic.NewUint64(0),
	}
	s.lc.Add(s.sf)
	if cfg.Metrics.Port > 0 {
		s.probe = probe.New(cfg.Metrics.Port, probe.WithMetricsPath(cfg.Metrics.Path))
		s.lc.Add(s.probe)
	}
	return s, nil
}

// Start starts the chain and writes the genesis state on an empty store
func (s *Simulator) Start(ctx context.Context) error {
	if err := s.lc.OnStart(ctx); err != nil {
		return err
	}
	h, err := s.sf.Height()
	if err != nil {
		return err
	}
	if h == 0 {
		b := genesis.NewBootstrapper(s.ledger, s.nodes)
		if err := s.sf.Apply(func(sm protocol.StateManager) error {
			return b.Bootstrap(sm, s.genesis)
		}); err != nil {
			return errors.Wrap(err, "failed to bootstrap genesis")
		}
	}
	if s.probe != nil {
		s.probe.Ready()
	}
	return nil
}

// Stop stops the chain
func (s *Simulator) Stop(ctx context.Context) error {
	if s.probe != nil {
		s.probe.NotReady()
	}
	s.builder.Stop()
	return s.lc.OnStop(ctx)
}

// Protocol returns the governance protocol
func (s *Simulator) Protocol() *pdao.Protocol { return s.p }

// Factory returns the state factory
func (s *Simulator) Factory() *factory.Factory { return s.sf }

// Run plays a scenario. The proposal references the latest committed block.
func (s *Simulator) Run(ctx context.Context, sc Scenario) (*Report, error) {
	block, err := s.sf.Height()
	if err != nil {
		return nil, err
	}
	depth := s.cfg.Governance.DepthPerRound
	honest, err := agent.BuildLocalTree(ctx, s.builder, s.sf, block, depth)
	if err != nil {
		return nil, err
	}
	committed := honest
	if sc.Dishonest {
		if committed, err = s.selfDelegatedTree(ctx, block); err != nil {
			return nil, err
		}
	}
	challengers, err := s.challengers()
	if err != nil {
		return nil, err
	}
	var (
		proposerAddr = common.HexToAddress(s.genesis.Nodes[0].Address)
		proposer     = agent.NewProposer(committed, block)
		checkers     = make([]*agent.Challenger, len(challengers))
	)
	for i := range checkers {
		// every challenger builds the tree on its own
		tree, err := agent.BuildLocalTree(ctx, s.builder, s.sf, block, depth)
		if err != nil {
			return nil, err
		}
		checkers[i] = agent.NewChallenger(tree)
	}

	propose, err := proposer.Propose(sc.Message, sc.Payload)
	if err != nil {
		return nil, err
	}
	r, err := s.run(ctx, proposerAddr, propose)
	if err != nil {
		return nil, errors.Wrap(err, "failed to propose")
	}
	report := &Report{ProposalID: byteutil.BytesToUint64(r.ReturnValue)}
	id := report.ProposalID

	defeated, err := s.challengeRounds(ctx, id, proposerAddr, proposer, propose.Pollard(), challengers, checkers, report)
	if err != nil {
		return nil, err
	}
	if defeated {
		if err := s.claimChallengerBonds(ctx, id, report.Disputed); err != nil {
			return nil, err
		}
		return s.finish(report)
	}

	s.clk.Add(s.cfg.Governance.VoteDelayTime)
	if err := s.vote(ctx, id, honest, sc.Direction); err != nil {
		return nil, err
	}
	s.clk.Add(s.cfg.Governance.VotePhase1Time + s.cfg.Governance.VotePhase2Time)
	state, err := s.p.ProposalState(s.sf, id, s.unix())
	if err != nil {
		return nil, err
	}
	switch state {
	case pdao.Succeeded:
		if _, err := s.run(ctx, proposerAddr, action.NewExecute(id)); err != nil {
			log.L().Warn("Proposal payload failed.", zap.Uint64("id", id), zap.Error(err))
		}
		fallthrough
	case pdao.Defeated, pdao.QuorumNotMet, pdao.Executed:
		if _, err := s.run(ctx, proposerAddr, action.NewClaimBondProposer(id, []uint64{1})); err != nil {
			return nil, err
		}
	case pdao.Vetoed:
		if _, err := s.run(ctx, proposerAddr, action.NewFinalise(id)); err != nil {
			return nil, err
		}
	}
	return s.finish(report)
}

// challengeRounds lets challengers dispute the revealed pollards until none is disputed or the proposer cannot
// answer. It reports whether the proposal was defeated.
func (s *Simulator) challengeRounds(
	ctx context.Context,
	id uint64,
	proposerAddr common.Address,
	proposer *agent.Proposer,
	pollard []votetree.Node,
	challengers []common.Address,
	checkers []*agent.Challenger,
	report *Report,
) (bool, error) {
	index := uint64(1)
	for {
		who, ch, err := s.firstDispute(ctx, checkers, id, index, pollard)
		if err != nil {
			return false, err
		}
		if ch == nil {
			return false, nil
		}
		if _, err := s.run(ctx, challengers[who], ch); err != nil {
			return false, errors.Wrapf(err, "failed to challenge index %d", ch.Index())
		}
		index = ch.Index()
		report.Disputed = append(report.Disputed, index)

		resp, err := proposer.Respond(id, index)
		if err != nil {
			return false, err
		}
		if _, err := s.run(ctx, proposerAddr, resp); err != nil {
			log.L().Info("Proposer failed to answer.", zap.Uint64("id", id), zap.Uint64("index", index), zap.Error(err))
			s.clk.Add(s.cfg.Governance.ChallengePeriod)
			if _, err := s.run(ctx, challengers[who], action.NewDefeatProposal(id, index)); err != nil {
				return false, errors.Wrap(err, "failed to defeat proposal")
			}
			return true, nil
		}
		pollard = resp.Pollard()
	}
}

// firstDispute checks a pollard with every challenger in parallel and returns the dispute of the first one
// finding a false node
func (s *Simulator) firstDispute(ctx context.Context, checkers []*agent.Challenger, id, index uint64, pollard []votetree.Node) (int, *action.CreateChallenge, error) {
	disputes := make([]*action.CreateChallenge, len(checkers))
	g, _ := errgroup.WithContext(ctx)
	for i, c := range checkers {
		i, c := i, c
		g.Go(func() error {
			ch, err := c.Dispute(id, index, pollard)
			switch errors.Cause(err) {
			case nil:
				disputes[i] = ch
				return nil
			case agent.ErrNoDispute:
				return nil
			default:
				return err
			}
		})
	}
	if err := g.Wait(); err != nil {
		return 0, nil, err
	}
	for i, ch := range disputes {
		if ch != nil {
			return i, ch, nil
		}
	}
	return 0, nil, nil
}

func (s *Simulator) vote(ctx context.Context, id uint64, tree *agent.LocalTree, direction action.VoteDirection) error {
	leaves := tree.Leaves()
	for i, n := range s.genesis.NodeAddresses() {
		if leaves[i].Sum.Sign() == 0 {
			continue
		}
		v, err := agent.NewVote(tree, id, uint64(i), direction)
		if err != nil {
			return err
		}
		if _, err := s.run(ctx, n, v); err != nil {
			log.L().Warn("Vote rejected.", zap.String("node", n.Hex()), zap.Error(err))
		}
	}
	return nil
}

func (s *Simulator) claimChallengerBonds(ctx context.Context, id uint64, disputed []uint64) error {
	byChallenger := make(map[common.Address][]uint64)
	for _, index := range disputed {
		c, err := s.p.ChallengeOf(s.sf, id, index)
		if err != nil {
			return err
		}
		byChallenger[c.Challenger] = append(byChallenger[c.Challenger], index)
	}
	challengers, err := s.challengers()
	if err != nil {
		return err
	}
	for _, addr := range challengers {
		indices, ok := byChallenger[addr]
		if !ok {
			continue
		}
		if _, err := s.run(ctx, addr, action.NewClaimBondChallenger(id, indices)); err != nil {
			return err
		}
	}
	return nil
}

// selfDelegatedTree is the tree of a proposer ignoring every delegation
func (s *Simulator) selfDelegatedTree(ctx context.Context, block uint64) (*agent.LocalTree, error) {
	leaves, err := s.builder.ConstructTreeLeaves(ctx, s.sf, block)
	if err != nil {
		return nil, err
	}
	powers := make([]*big.Int, len(leaves))
	phase2 := make([][]votetree.Node, len(leaves))
	for i, addr := range s.genesis.NodeAddresses()[:len(leaves)] {
		if powers[i], err = s.nodes.VotingPower(s.sf, addr, block); err != nil {
			return nil, err
		}
		own := make([]*big.Int, len(leaves))
		for j := range own {
			own[j] = new(big.Int)
		}
		own[i].Set(powers[i])
		phase2[i] = votetree.ConstructTreeLeaves(own)
	}
	return agent.NewLocalTree(votetree.ConstructTreeLeaves(powers), phase2, s.cfg.Governance.DepthPerRound)
}

// challengers are the genesis accounts staked without a node
func (s *Simulator) challengers() ([]common.Address, error) {
	addrs, _, err := s.genesis.InitStakes()
	if err != nil {
		return nil, err
	}
	if n := s.cfg.Simulator.Challengers; n < len(addrs) {
		addrs = addrs[:n]
	}
	return addrs, nil
}

func (s *Simulator) run(ctx context.Context, caller common.Address, act action.Action) (*action.Receipt, error) {
	s.actions.Inc()
	r, err := s.sf.RunAction(ctx, caller, s.clk.Now(), act)
	if err != nil {
		s.failed.Inc()
		return nil, err
	}
	// blocks are produced at a fixed interval
	s.clk.Add(time.Duration(s.cfg.Simulator.BlockInterval) * time.Second)
	return r, nil
}

func (s *Simulator) finish(report *Report) (*Report, error) {
	state, err := s.p.ProposalState(s.sf, report.ProposalID, s.unix())
	if err != nil {
		return nil, err
	}
	burned, err := s.ledger.Burned(s.sf)
	if err != nil {
		return nil, err
	}
	report.State = state
	report.Burned = burned
	report.Actions = s.actions.Load()
	report.Failed = s.failed.Load()
	log.L().Info("Scenario finished.",
		zap.Uint64("id", report.ProposalID),
		zap.Stringer("state", state),
		zap.Uint64s("disputed", report.Disputed),
		zap.Uint64("actions", report.Actions))
	return report, nil
}

func (s *Simulator) unix() uint64 {
	return uint64(s.clk.Now().Unix())
}
