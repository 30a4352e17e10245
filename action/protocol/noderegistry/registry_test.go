// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package noderegistry

import (
	"math/big"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iotexproject/pdao-governance/action/protocol"
	"github.com/iotexproject/pdao-governance/db/batch"
	"github.com/iotexproject/pdao-governance/state"
	"github.com/iotexproject/pdao-governance/test/identityset"
	"github.com/iotexproject/pdao-governance/test/mock/mock_chainmanager"
)

func newMockStateManager(ctrl *gomock.Controller, height *uint64) protocol.StateManager {
	sm := mock_chainmanager.NewMockStateManager(ctrl)
	cb := batch.NewCachedBatch()
	sm.EXPECT().Height().DoAndReturn(func() (uint64, error) {
		return *height, nil
	}).AnyTimes()
	sm.EXPECT().State(gomock.Any(), gomock.Any()).DoAndReturn(
		func(s interface{}, opts ...protocol.StateOption) (uint64, error) {
			cfg, err := protocol.CreateStateConfig(opts...)
			if err != nil {
				return 0, err
			}
			val, err := cb.Get("state", cfg.Key)
			if err != nil {
				return 0, state.ErrStateNotExist
			}
			return 0, state.Deserialize(s, val)
		}).AnyTimes()
	sm.EXPECT().PutState(gomock.Any(), gomock.Any()).DoAndReturn(
		func(s interface{}, opts ...protocol.StateOption) (uint64, error) {
			cfg, err := protocol.CreateStateConfig(opts...)
			if err != nil {
				return 0, err
			}
			ss, err := state.Serialize(s)
			if err != nil {
				return 0, err
			}
			cb.Put("state", cfg.Key, ss, "failed to put state")
			return 0, nil
		}).AnyTimes()
	return sm
}

func TestHistory(t *testing.T) {
	require := require.New(t)

	h := History{}
	require.Zero(h.At(10).Sign())
	h.Push(2, big.NewInt(5))
	h.Push(4, big.NewInt(7))
	h.Push(4, big.NewInt(8))
	require.Len(h.Checkpoints, 2)
	require.Zero(h.At(1).Sign())
	require.Equal("5", h.At(3).String())
	require.Equal("8", h.At(4).String())
	require.Equal("8", h.At(100).String())

	d := DelegateHistory{}
	_, ok := d.At(1)
	require.False(ok)
	d.Push(3, identityset.Address(1))
	del, ok := d.At(3)
	require.True(ok)
	require.Equal(identityset.Address(1), del)
}

func TestRegistry(t *testing.T) {
	require := require.New(t)
	ctrl := gomock.NewController(t)
	height := uint64(1)
	sm := newMockStateManager(ctrl, &height)

	r := NewRegistry()
	nodes := identityset.Addresses(3)
	for i, n := range nodes {
		idx, err := r.Register(sm, n)
		require.NoError(err)
		require.Equal(uint64(i), idx)
		require.NoError(r.SetVotingPower(sm, n, big.NewInt(int64(100*(i+1)))))
		height++
	}
	_, err := r.Register(sm, nodes[0])
	require.Equal(ErrNodeAlreadyRegistered, errors.Cause(err))
	require.Equal(ErrInvalidPower, r.SetVotingPower(sm, nodes[0], big.NewInt(-1)))
	stranger := identityset.Address(10)
	require.Equal(ErrNodeNotRegistered, errors.Cause(r.SetVotingPower(sm, stranger, big.NewInt(1))))
	require.Equal(ErrNodeNotRegistered, errors.Cause(r.SetDelegate(sm, nodes[0], stranger)))

	// height 4: node 2 delegates to node 0, node 1 doubles its power
	require.NoError(r.SetDelegate(sm, nodes[2], nodes[0]))
	require.NoError(r.SetVotingPower(sm, nodes[1], big.NewInt(400)))

	count, err := r.NodeCount(sm, 1)
	require.NoError(err)
	require.Equal(uint64(1), count)
	count, err = r.NodeCount(sm, 3)
	require.NoError(err)
	require.Equal(uint64(3), count)
	addr, err := r.NodeAt(sm, 2)
	require.NoError(err)
	require.Equal(nodes[2], addr)
	_, err = r.NodeAt(sm, 3)
	require.Equal(ErrNodeNotRegistered, errors.Cause(err))
	idx, err := r.NodeIndex(sm, nodes[1])
	require.NoError(err)
	require.Equal(uint64(1), idx)

	p, err := r.VotingPower(sm, nodes[1], 3)
	require.NoError(err)
	require.Equal("200", p.String())
	p, err = r.VotingPower(sm, nodes[1], 4)
	require.NoError(err)
	require.Equal("400", p.String())
	p, err = r.VotingPower(sm, stranger, 4)
	require.NoError(err)
	require.Zero(p.Sign())

	del, err := r.Delegate(sm, nodes[2], 3)
	require.NoError(err)
	require.Equal(nodes[2], del)
	del, err = r.Delegate(sm, nodes[2], 4)
	require.NoError(err)
	require.Equal(nodes[0], del)
	del, err = r.Delegate(sm, stranger, 4)
	require.NoError(err)
	require.Equal(stranger, del)
}
