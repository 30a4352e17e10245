// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package genesis

import (
	"context"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/iotexproject/pdao-governance/action/protocol"
	"github.com/iotexproject/pdao-governance/action/protocol/noderegistry"
	"github.com/iotexproject/pdao-governance/action/protocol/staking"
	"github.com/iotexproject/pdao-governance/db"
	"github.com/iotexproject/pdao-governance/state/factory"
	"github.com/iotexproject/pdao-governance/test/identityset"
)

func testGenesisYAML() string {
	return `
nodes:
  - address: "` + identityset.Address(0).Hex() + `"
    votingPower: "100"
    stake: "1000"
    allowLocking: true
  - address: "` + identityset.Address(1).Hex() + `"
    votingPower: "200"
    stake: "500"
    delegate: "` + identityset.Address(0).Hex() + `"
initStakes:
  "` + identityset.Address(5).Hex() + `": "300"
`
}

func writeGenesis(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "genesis.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestDefaultConfig(t *testing.T) {
	require := require.New(t)
	g, err := New("")
	require.NoError(err)
	require.Empty(g.Nodes)
	require.Empty(g.InitStakeMap)
	require.Equal(Default.Hash(), g.Hash())
}

func TestNew(t *testing.T) {
	require := require.New(t)
	g, err := New(writeGenesis(t, testGenesisYAML()))
	require.NoError(err)
	require.Len(g.Nodes, 2)
	require.Equal(identityset.Addresses(2), g.NodeAddresses())
	require.Equal([]*big.Int{big.NewInt(100), big.NewInt(200)}, g.VotingPowers())
	addrs, amounts, err := g.InitStakes()
	require.NoError(err)
	require.Equal([]common.Address{identityset.Address(5)}, addrs)
	require.Equal("300", amounts[0].String())

	g.InitStakeMap[identityset.Address(6).Hex()] = "-1"
	_, _, err = g.InitStakes()
	require.ErrorContains(err, "invalid amount")
	delete(g.InitStakeMap, identityset.Address(6).Hex())

	h := g.Hash()
	require.Equal(h, g.Hash())
	g.Nodes[1].Delegate = ""
	require.NotEqual(h, g.Hash())
}

func TestValidate(t *testing.T) {
	addr0, addr1 := identityset.Address(0).Hex(), identityset.Address(1).Hex()
	for _, tc := range []struct {
		name string
		g    Genesis
	}{
		{"bad address", Genesis{Nodes: []Node{{Address: "node"}}}},
		{"duplicate", Genesis{Nodes: []Node{{Address: addr0}, {Address: addr0}}}},
		{"bad power", Genesis{Nodes: []Node{{Address: addr0, VotingPower: "-1"}}}},
		{"bad stake", Genesis{Nodes: []Node{{Address: addr0, Stake: "ten"}}}},
		{"unregistered delegate", Genesis{Nodes: []Node{{Address: addr0, Delegate: addr1}}}},
		{"bad init stake", Genesis{InitStakeMap: map[string]string{addr1: "1.5"}}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			require.Error(t, tc.g.Validate())
		})
	}
	_, err := New(writeGenesis(t, "nodes:\n  - address: nowhere\n"))
	require.Error(t, err)
}

func TestBootstrap(t *testing.T) {
	require := require.New(t)
	g, err := New(writeGenesis(t, testGenesisYAML()))
	require.NoError(err)

	ledger, nodes := staking.NewLedger(), noderegistry.NewRegistry()
	sf := factory.NewFactory(db.NewMemKVStore(), protocol.NewRegistry())
	ctx := context.Background()
	require.NoError(sf.Start(ctx))
	defer func() {
		require.NoError(sf.Stop(ctx))
	}()
	b := NewBootstrapper(ledger, nodes)
	require.NoError(sf.Apply(func(sm protocol.StateManager) error {
		return b.Bootstrap(sm, g)
	}))

	count, err := nodes.NodeCount(sf, 1)
	require.NoError(err)
	require.Equal(uint64(2), count)
	d, err := nodes.Delegate(sf, identityset.Address(1), 1)
	require.NoError(err)
	require.Equal(identityset.Address(0), d)
	power, err := nodes.VotingPower(sf, identityset.Address(1), 1)
	require.NoError(err)
	require.Equal("200", power.String())

	staked, err := ledger.StakedRPL(sf, identityset.Address(0))
	require.NoError(err)
	require.Equal("1000", staked.String())
	allowed, err := ledger.IsLockingAllowed(sf, identityset.Address(1))
	require.NoError(err)
	require.False(allowed)
	staked, err = ledger.StakedRPL(sf, identityset.Address(5))
	require.NoError(err)
	require.Equal("300", staked.String())
	allowed, err = ledger.IsLockingAllowed(sf, identityset.Address(5))
	require.NoError(err)
	require.True(allowed)
}
