// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package protocol

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/iotexproject/pdao-governance/action"
)

type namedProtocol struct {
	name    string
	handles bool
}

func (p *namedProtocol) Name() string { return p.name }

func (p *namedProtocol) Handle(context.Context, action.Action, StateManager) (*action.Receipt, error) {
	if !p.handles {
		return nil, nil
	}
	return &action.Receipt{Status: action.SuccessReceiptStatus, Action: p.name}, nil
}

func TestRegistry(t *testing.T) {
	require := require.New(t)

	reg := NewRegistry()
	require.NoError(reg.Register("a", &namedProtocol{name: "a"}))
	require.Error(reg.Register("a", &namedProtocol{name: "a"}))
	require.NoError(reg.Register("b", &namedProtocol{name: "b", handles: true}))
	p, ok := reg.Find("b")
	require.True(ok)
	require.Equal("b", p.Name())
	_, ok = reg.Find("c")
	require.False(ok)
	require.Len(reg.All(), 2)

	r, err := reg.Handle(context.Background(), action.NewCancel(1), nil)
	require.NoError(err)
	require.Equal("b", r.Action)

	_, err = NewRegistry().Handle(context.Background(), action.NewCancel(1), nil)
	require.Equal(ErrUnimplemented, errors.Cause(err))
}

func TestContext(t *testing.T) {
	require := require.New(t)

	ctx := context.Background()
	_, ok := GetBlockCtx(ctx)
	require.False(ok)
	require.Panics(func() { MustGetBlockCtx(ctx) })
	require.Panics(func() { MustGetActionCtx(ctx) })

	ctx = WithBlockCtx(ctx, BlockCtx{BlockHeight: 7})
	require.Equal(uint64(7), MustGetBlockCtx(ctx).BlockHeight)
	ctx = WithActionCtx(ctx, ActionCtx{})
	_, ok = GetActionCtx(ctx)
	require.True(ok)

	_, err := CreateStateConfig(NamespaceOption("ns"))
	require.Error(err)
	cfg, err := CreateStateConfig(KeyOption([]byte("k")))
	require.NoError(err)
	require.Equal(AccountNameSpace, cfg.Namespace)
}
