// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package pdao

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iotexproject/pdao-governance/action"
	"github.com/iotexproject/pdao-governance/action/protocol"
	"github.com/iotexproject/pdao-governance/db"
	"github.com/iotexproject/pdao-governance/state/factory"
	"github.com/iotexproject/pdao-governance/test/identityset"
)

func TestSettingsExecutor(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	store := NewGovernanceStore()
	e, err := NewSettingsExecutor(store, ExecutorVersion)
	require.NoError(err)
	_, err = NewSettingsExecutor(store, 0)
	require.Error(err)

	sf := factory.NewFactory(db.NewMemKVStore(), protocol.NewRegistry())
	require.NoError(sf.Start(ctx))
	defer func() {
		require.NoError(sf.Stop(ctx))
	}()
	member := identityset.Address(9)

	require.NoError(sf.Apply(func(sm protocol.StateManager) error {
		for _, payload := range [][]byte{
			mustPack(t, "proposalSettingUint", SettingQuorum, big.NewInt(4000)),
			mustPack(t, "proposalSettingBool", "proposal.enabled", true),
			mustPack(t, "proposalSecurityInvite", "alice", member),
		} {
			if err := e.Execute(ctx, sm, payload); err != nil {
				return err
			}
		}
		return nil
	}))
	v, ok, err := store.SettingUint(sf, SettingQuorum)
	require.NoError(err)
	require.True(ok)
	require.Equal(uint64(4000), v.Uint64())
	b, ok, err := store.SettingBool(sf, "proposal.enabled")
	require.NoError(err)
	require.True(ok)
	require.True(b)
	_, ok, err = store.SettingBool(sf, "proposal.disabled")
	require.NoError(err)
	require.False(ok)
	invite, err := store.SecurityInvite(sf, member)
	require.NoError(err)
	require.Equal("alice", invite.ID)

	require.NoError(sf.Apply(func(sm protocol.StateManager) error {
		return e.Execute(ctx, sm, mustPack(t, "proposalSecurityKick", member))
	}))
	invite, err = store.SecurityInvite(sf, member)
	require.NoError(err)
	require.Nil(invite)

	require.ErrorIs(sf.Apply(func(sm protocol.StateManager) error {
		return e.Execute(ctx, sm, []byte{0xde, 0xad})
	}), ErrUnknownMethod)
	require.ErrorIs(sf.Apply(func(sm protocol.StateManager) error {
		return e.Execute(ctx, sm, []byte{0xde, 0xad, 0xbe, 0xef})
	}), ErrUnknownMethod)
}

func TestParamsOverride(t *testing.T) {
	require := require.New(t)
	p, err := NewProtocol(DefaultConfig, nil, nil, nil)
	require.Error(err)
	require.Nil(p)

	n := newTestNetwork(t, testConfig(), []int64{1, 2}, nil)
	ps, err := n.p.params(n.sf)
	require.NoError(err)
	require.Equal(uint64(3600), ps.voteDelayTime)
	require.Equal(uint64(5100), ps.quorumBps)
	require.Equal("10", ps.challengeBond.String())

	require.NoError(n.sf.Apply(func(sm protocol.StateManager) error {
		for path, v := range map[string]int64{
			SettingQuorum:        20000,
			SettingChallengeBond: 7,
			SettingVoteDelayTime: 60,
			SettingBurnPercent:   150,
		} {
			if err := n.p.Store().PutSettingUint(sm, path, big.NewInt(v)); err != nil {
				return err
			}
		}
		return nil
	}))
	ps, err = n.p.params(n.sf)
	require.NoError(err)
	require.Equal(uint64(60), ps.voteDelayTime)
	require.Equal(uint64(_bpsBase), ps.quorumBps)
	require.Equal("7", ps.challengeBond.String())
	require.Equal(uint64(100), ps.burnPercent)
	// config defaults are untouched
	require.Equal("10", n.p.challengeBond.String())
}

func TestBurnPercentSetting(t *testing.T) {
	require := require.New(t)
	n := newTestNetwork(t, testConfig(), _testPowers, _testDelegates)
	id := n.propose(0, nil, n.pollard(1))
	node, proof := n.challengeProof(2)
	n.mustRun(4, action.NewCreateChallenge(id, 2, node, proof))
	n.mustRun(0, action.NewSubmitRoot(id, 2, n.pollard(2)))

	// the burn is read when the bond is claimed, not when the proposal was created
	require.NoError(n.sf.Apply(func(sm protocol.StateManager) error {
		return n.p.Store().PutSettingUint(sm, SettingBurnPercent, big.NewInt(50))
	}))
	n.advance(time.Hour)
	n.mustRun(0, action.NewClaimBondProposer(id, []uint64{1, 2}))
	require.Equal("1005", n.account(0).Staked.String())
	burned, err := n.ledger.Burned(n.sf)
	require.NoError(err)
	require.Equal("5", burned.String())
	n.checkConservation()
}
