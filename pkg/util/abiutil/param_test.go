// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package abiutil

import (
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

const _testABI = `[
	{"type":"function","name":"set","inputs":[{"name":"path","type":"string"},{"name":"value","type":"uint256"},{"name":"on","type":"bool"},{"name":"who","type":"address"}],"outputs":[]},
	{"type":"event","name":"Set","inputs":[{"name":"path","type":"string","indexed":false},{"name":"value","type":"uint256","indexed":false}]}
]`

func TestUnpack(t *testing.T) {
	require := require.New(t)

	a, err := abi.JSON(strings.NewReader(_testABI))
	require.NoError(err)
	method := a.Methods["set"]
	who := common.HexToAddress("0x1")
	args, err := method.Inputs.Pack("proposal.bond", big.NewInt(7), true, who)
	require.NoError(err)

	p, err := UnpackCall(&method, append(method.ID, args...))
	require.NoError(err)
	path, err := p.FieldString("path")
	require.NoError(err)
	require.Equal("proposal.bond", path)
	v, err := p.FieldUint256("value")
	require.NoError(err)
	require.Equal("7", v.String())
	on, err := p.FieldBool("on")
	require.NoError(err)
	require.True(on)
	addr, err := p.FieldAddress("who")
	require.NoError(err)
	require.Equal(who, addr)
	_, err = p.FieldBool("path")
	require.Equal(ErrInvalidParam, errors.Cause(err))

	_, err = UnpackCall(&method, []byte{1, 2, 3, 4})
	require.Equal(ErrMethodMismatch, errors.Cause(err))

	event := a.Events["Set"]
	data, err := event.Inputs.Pack("x", big.NewInt(3))
	require.NoError(err)
	p, err = UnpackEvent(&event, data)
	require.NoError(err)
	v, err = p.FieldUint256("value")
	require.NoError(err)
	require.Equal("3", v.String())
}
