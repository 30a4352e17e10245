// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package simulator

import (
	"context"
	"math/big"
	"path/filepath"
	"testing"
	"time"

	"github.com/facebookgo/clock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/iotexproject/pdao-governance/action"
	"github.com/iotexproject/pdao-governance/action/protocol/pdao"
	"github.com/iotexproject/pdao-governance/blockchain/genesis"
	"github.com/iotexproject/pdao-governance/config"
	"github.com/iotexproject/pdao-governance/db"
	"github.com/iotexproject/pdao-governance/test/identityset"
)

func testGenesis() genesis.Genesis {
	g := genesis.Genesis{InitStakeMap: make(map[string]string)}
	for i, power := range []string{"100", "200", "300", "400"} {
		g.Nodes = append(g.Nodes, genesis.Node{
			Address:      identityset.Address(i).Hex(),
			VotingPower:  power,
			Stake:        "1000",
			AllowLocking: true,
		})
	}
	g.Nodes[3].Delegate = identityset.Address(0).Hex()
	for i := 10; i < 13; i++ {
		g.InitStakeMap[identityset.Address(i).Hex()] = "1000"
	}
	return g
}

func newTestSimulator(t *testing.T, dbType string) *Simulator {
	require := require.New(t)
	cfg := config.Default
	cfg.Governance.DepthPerRound = 1
	cfg.DB.DBType = dbType
	if dbType != db.DBMemory {
		cfg.DB.DbPath = filepath.Join(t.TempDir(), "chain.db")
	}
	clk := clock.NewMock()
	clk.Add(time.Duration(1700000000) * time.Second)
	s, err := New(cfg, testGenesis(), clk)
	require.NoError(err)
	ctx := context.Background()
	require.NoError(s.Start(ctx))
	t.Cleanup(func() {
		require.NoError(s.Stop(ctx))
	})
	return s
}

func TestNew(t *testing.T) {
	_, err := New(config.Default, genesis.Genesis{}, clock.NewMock())
	require.Error(t, err)
}

func TestHonestProposal(t *testing.T) {
	// runs after the simulator stops
	t.Cleanup(func() { goleak.VerifyNone(t) })
	require := require.New(t)
	s := newTestSimulator(t, db.DBMemory)

	payload, err := pdao.PayloadABI().Pack("proposalSettingUint", "proposal.bond", big.NewInt(50))
	require.NoError(err)
	report, err := s.Run(context.Background(), Scenario{
		Message:   "lower the proposal bond",
		Payload:   payload,
		Direction: action.For,
	})
	require.NoError(err)
	require.Equal(uint64(1), report.ProposalID)
	require.Empty(report.Disputed)
	require.Equal(pdao.Executed, report.State)
	require.Zero(report.Burned.Sign())

	p, err := s.Protocol().ProposalByID(s.Factory(), report.ProposalID)
	require.NoError(err)
	require.Equal("1000", p.VotingFor.String())
}

func TestDishonestProposal(t *testing.T) {
	require := require.New(t)
	s := newTestSimulator(t, db.DBBolt)

	report, err := s.Run(context.Background(), Scenario{
		Message:   "self delegated tree",
		Dishonest: true,
		Direction: action.For,
	})
	require.NoError(err)
	require.Equal(pdao.Defeated, report.State)
	require.Equal([]uint64{2, 4, 9}, report.Disputed)
	require.Equal(uint64(1), report.Failed)
	require.Positive(report.Burned.Sign())

	// every challenge bond was returned
	for _, index := range report.Disputed {
		c, err := s.Protocol().ChallengeOf(s.Factory(), report.ProposalID, index)
		require.NoError(err)
		require.Equal(pdao.Paid, c.State)
	}
}

func TestRunInvalidInitStakes(t *testing.T) {
	require := require.New(t)
	s := newTestSimulator(t, db.DBMemory)

	s.genesis.InitStakeMap[identityset.Address(20).Hex()] = "lots"
	_, err := s.Run(context.Background(), Scenario{Message: "no challengers", Direction: action.For})
	require.ErrorContains(err, "invalid amount")
	h, err := s.Factory().Height()
	require.NoError(err)
	require.Equal(uint64(1), h)
}
