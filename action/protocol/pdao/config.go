// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package pdao

import (
	"math/big"
	"time"

	"github.com/pkg/errors"
)

// _bpsBase is the denominator of quorum ratios
const _bpsBase = 10000

// Config is the governance parameters. They seed the protocol settings a passed proposal can later change.
type Config struct {
	VoteDelayTime   time.Duration `yaml:"voteDelayTime"`
	VotePhase1Time  time.Duration `yaml:"votePhase1Time"`
	VotePhase2Time  time.Duration `yaml:"votePhase2Time"`
	ChallengePeriod time.Duration `yaml:"challengePeriod"`
	ExpiryTime      time.Duration `yaml:"expiryTime"`
	// QuorumBps is the share of the total voting power that must vote, in basis points
	QuorumBps uint64 `yaml:"quorumBps"`
	// VetoQuorumBps is the share of the total voting power voting AgainstWithVeto that vetoes a proposal
	VetoQuorumBps uint64 `yaml:"vetoQuorumBps"`
	ProposalBond  string `yaml:"proposalBond"`
	ChallengeBond string `yaml:"challengeBond"`
	DepthPerRound uint64 `yaml:"depthPerRound"`
	// MaxBlockAge bounds how far behind the current height a proposal snapshot may be, 0 for no bound
	MaxBlockAge uint64 `yaml:"maxBlockAge"`
	// BurnPercent is the share of a forfeited bond that is burned
	BurnPercent uint64 `yaml:"burnPercent"`
}

// DefaultConfig is the default governance parameters
var DefaultConfig = Config{
	VoteDelayTime:   7 * 24 * time.Hour,
	VotePhase1Time:  7 * 24 * time.Hour,
	VotePhase2Time:  7 * 24 * time.Hour,
	ChallengePeriod: 30 * time.Minute,
	ExpiryTime:      28 * 24 * time.Hour,
	QuorumBps:       5100,
	VetoQuorumBps:   5100,
	ProposalBond:    "100",
	ChallengeBond:   "10",
	DepthPerRound:   5,
	MaxBlockAge:     1024,
	BurnPercent:     20,
}

// Validate checks the parameters
func (cfg Config) Validate() error {
	if cfg.DepthPerRound == 0 {
		return errors.New("depth per round must be positive")
	}
	if cfg.QuorumBps > _bpsBase || cfg.VetoQuorumBps > _bpsBase {
		return errors.Errorf("quorum must not exceed %d basis points", _bpsBase)
	}
	if cfg.BurnPercent > 100 {
		return errors.New("burn percent must not exceed 100")
	}
	for _, d := range []time.Duration{cfg.VoteDelayTime, cfg.VotePhase1Time, cfg.VotePhase2Time, cfg.ChallengePeriod} {
		if d <= 0 {
			return errors.New("proposal periods must be positive")
		}
	}
	if _, err := parseAmount(cfg.ProposalBond); err != nil {
		return errors.Wrap(err, "invalid proposal bond")
	}
	if _, err := parseAmount(cfg.ChallengeBond); err != nil {
		return errors.Wrap(err, "invalid challenge bond")
	}
	return nil
}

func parseAmount(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return nil, errors.Errorf("invalid amount %q", s)
	}
	return v, nil
}
