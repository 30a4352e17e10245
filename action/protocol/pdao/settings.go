// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package pdao

import (
	"math/big"

	"github.com/iotexproject/pdao-governance/action/protocol"
)

// setting paths a passed proposal can change through proposalSettingUint
const (
	SettingVoteDelayTime   = "proposal.vote.delay.time"
	SettingVotePhase1Time  = "proposal.vote.phase1.time"
	SettingVotePhase2Time  = "proposal.vote.phase2.time"
	SettingChallengePeriod = "proposal.challenge.period"
	SettingExpiryTime      = "proposal.expires"
	SettingQuorum          = "proposal.quorum"
	SettingVetoQuorum      = "proposal.veto.quorum"
	SettingProposalBond    = "proposal.bond"
	SettingChallengeBond   = "proposal.challenge.bond"
	SettingDepthPerRound   = "proposal.depth.per.round"
	SettingMaxBlockAge     = "proposal.max.block.age"
	SettingBurnPercent     = "proposal.burn.percent"
)

// params is the governance parameters in effect, durations in seconds
type params struct {
	voteDelayTime   uint64
	votePhase1Time  uint64
	votePhase2Time  uint64
	challengePeriod uint64
	expiryTime      uint64
	quorumBps       uint64
	vetoQuorumBps   uint64
	depthPerRound   uint64
	maxBlockAge     uint64
	burnPercent     uint64
	proposalBond    *big.Int
	challengeBond   *big.Int
}

func (p *Protocol) defaultParams() *params {
	return &params{
		voteDelayTime:   uint64(p.cfg.VoteDelayTime.Seconds()),
		votePhase1Time:  uint64(p.cfg.VotePhase1Time.Seconds()),
		votePhase2Time:  uint64(p.cfg.VotePhase2Time.Seconds()),
		challengePeriod: uint64(p.cfg.ChallengePeriod.Seconds()),
		expiryTime:      uint64(p.cfg.ExpiryTime.Seconds()),
		quorumBps:       p.cfg.QuorumBps,
		vetoQuorumBps:   p.cfg.VetoQuorumBps,
		depthPerRound:   p.cfg.DepthPerRound,
		maxBlockAge:     p.cfg.MaxBlockAge,
		burnPercent:     p.cfg.BurnPercent,
		proposalBond:    new(big.Int).Set(p.proposalBond),
		challengeBond:   new(big.Int).Set(p.challengeBond),
	}
}

// params returns the configured parameters overridden by the settings stored by executed proposals
func (p *Protocol) params(sr protocol.StateReader) (*params, error) {
	ps := p.defaultParams()
	uints := map[string]*uint64{
		SettingVoteDelayTime:   &ps.voteDelayTime,
		SettingVotePhase1Time:  &ps.votePhase1Time,
		SettingVotePhase2Time:  &ps.votePhase2Time,
		SettingChallengePeriod: &ps.challengePeriod,
		SettingExpiryTime:      &ps.expiryTime,
		SettingQuorum:          &ps.quorumBps,
		SettingVetoQuorum:      &ps.vetoQuorumBps,
		SettingDepthPerRound:   &ps.depthPerRound,
		SettingMaxBlockAge:     &ps.maxBlockAge,
		SettingBurnPercent:     &ps.burnPercent,
	}
	for path, dst := range uints {
		v, ok, err := p.store.SettingUint(sr, path)
		if err != nil {
			return nil, err
		}
		if ok && v.IsUint64() {
			*dst = v.Uint64()
		}
	}
	bigs := map[string]*big.Int{
		SettingProposalBond:  ps.proposalBond,
		SettingChallengeBond: ps.challengeBond,
	}
	for path, dst := range bigs {
		v, ok, err := p.store.SettingUint(sr, path)
		if err != nil {
			return nil, err
		}
		if ok {
			dst.Set(v)
		}
	}
	if ps.depthPerRound == 0 {
		ps.depthPerRound = 1
	}
	if ps.quorumBps > _bpsBase {
		ps.quorumBps = _bpsBase
	}
	if ps.vetoQuorumBps > _bpsBase {
		ps.vetoQuorumBps = _bpsBase
	}
	if ps.burnPercent > 100 {
		ps.burnPercent = 100
	}
	return ps, nil
}

// share returns total * bps / 10000
func share(total *big.Int, bps uint64) *big.Int {
	v := new(big.Int).Mul(total, new(big.Int).SetUint64(bps))
	return v.Div(v, big.NewInt(_bpsBase))
}

// splitBurn splits amount into the part paid out and the part burned
func splitBurn(amount *big.Int, burnPercent uint64) (*big.Int, *big.Int) {
	burn := new(big.Int).Mul(amount, new(big.Int).SetUint64(burnPercent))
	burn.Div(burn, big.NewInt(100))
	return new(big.Int).Sub(amount, burn), burn
}
