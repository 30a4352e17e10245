// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package action

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/iotexproject/pdao-governance/pkg/votetree"
)

func TestEthDataRoundTrip(t *testing.T) {
	require := require.New(t)

	leaves := votetree.ConstructTreeLeaves([]*big.Int{big.NewInt(100), big.NewInt(200), big.NewInt(300)})
	pollard, err := votetree.GeneratePollard(leaves, 1, 1)
	require.NoError(err)
	node, proof, err := votetree.GenerateChallengeProof(leaves, 1, 2)
	require.NoError(err)

	for _, act := range []Action{
		NewPropose("raise the bond", []byte{1, 2, 3}, 12, pollard),
		NewVote(1, For, big.NewInt(300), 2, proof),
		NewOverrideVote(1, Against),
		NewCreateChallenge(1, 2, node, proof),
		NewSubmitRoot(1, 2, leaves[:2]),
		NewDefeatProposal(1, 2),
		NewClaimBondProposer(1, []uint64{1, 2}),
		NewClaimBondChallenger(1, []uint64{2, 5}),
		NewExecute(1),
		NewCancel(1),
		NewFinalise(1),
	} {
		require.NoError(act.SanityCheck(), act.MethodName())
		data, err := act.EthData()
		require.NoError(err, act.MethodName())
		decoded, err := DecodeEthData(data)
		require.NoError(err, act.MethodName())
		require.Equal(act.MethodName(), decoded.MethodName())
		redata, err := decoded.EthData()
		require.NoError(err)
		require.Equal(data, redata)
	}

	data, err := NewCreateChallenge(3, 5, node, proof).EthData()
	require.NoError(err)
	act, err := DecodeEthData(data)
	require.NoError(err)
	cc, ok := act.(*CreateChallenge)
	require.True(ok)
	require.Equal(uint64(3), cc.ProposalID())
	require.Equal(uint64(5), cc.Index())
	require.True(node.Equal(cc.Node()))
	require.Len(cc.Proof(), len(proof))
	require.True(proof[0].Equal(cc.Proof()[0]))
}

func TestDecodeEthDataFailure(t *testing.T) {
	require := require.New(t)

	_, err := DecodeEthData([]byte{1, 2})
	require.Equal(errDecodeFailure, errors.Cause(err))
	_, err = DecodeEthData([]byte{0xde, 0xad, 0xbe, 0xef})
	require.Equal(ErrInvalidAct, errors.Cause(err))

	data, err := NewExecute(1).EthData()
	require.NoError(err)
	_, err = DecodeEthData(data[:20])
	require.Error(err)
}

func TestSanityCheck(t *testing.T) {
	require := require.New(t)

	require.Error(NewPropose("", nil, 1, nil).SanityCheck())
	require.Equal(ErrInvalidNode, errors.Cause(NewPropose("", nil, 1, []votetree.Node{{Sum: big.NewInt(-1)}}).SanityCheck()))
	require.Equal(ErrInvalidIndex, NewCreateChallenge(1, 0, votetree.ZeroLeaf(), nil).SanityCheck())
	require.Equal(ErrInvalidIndex, NewDefeatProposal(1, 0).SanityCheck())
	require.Equal(ErrEmptyIndices, NewClaimBondProposer(1, nil).SanityCheck())
	require.Equal(ErrInvalidIndex, NewClaimBondChallenger(1, []uint64{0}).SanityCheck())
	require.Equal(ErrInvalidVoteDirection, NewOverrideVote(1, VoteDirection(9)).SanityCheck())
	huge := new(big.Int).Lsh(big.NewInt(1), 256)
	require.Equal(ErrInvalidNode, errors.Cause(NewVote(1, For, huge, 0, nil).SanityCheck()))

	require.False(NoVote.Valid())
	require.True(AgainstWithVeto.Valid())
	require.Equal("AgainstWithVeto", AgainstWithVeto.String())
}

func TestReceiptLogs(t *testing.T) {
	require := require.New(t)

	r := &Receipt{Status: SuccessReceiptStatus, BlockHeight: 9}
	topic := EventTopic("ProposalCreated(uint256,address)")
	r.AddLogs(nil, &Log{Topics: []common.Hash{topic}}, &Log{})
	require.Len(r.Logs, 2)
	require.Equal(uint64(9), r.Logs[1].BlockHeight)
	require.Equal(uint(1), r.Logs[1].Index)
	require.Equal([]common.Hash{topic}, r.Topic0s())
}
