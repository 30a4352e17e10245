// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package pdao

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/iotexproject/pdao-governance/action"
)

const _eventsABI = `[
	{"type":"event","name":"ProposalCreated","anonymous":false,"inputs":[
		{"indexed":true,"name":"proposalID","type":"uint256"},
		{"indexed":true,"name":"proposer","type":"address"},
		{"indexed":false,"name":"block","type":"uint64"},
		{"indexed":false,"name":"totalPower","type":"uint256"}]},
	{"type":"event","name":"ChallengeSubmitted","anonymous":false,"inputs":[
		{"indexed":true,"name":"proposalID","type":"uint256"},
		{"indexed":true,"name":"challenger","type":"address"},
		{"indexed":false,"name":"index","type":"uint256"}]},
	{"type":"event","name":"RootSubmitted","anonymous":false,"inputs":[
		{"indexed":true,"name":"proposalID","type":"uint256"},
		{"indexed":true,"name":"proposer","type":"address"},
		{"indexed":false,"name":"index","type":"uint256"},
		{"indexed":false,"name":"sum","type":"uint256"},
		{"indexed":false,"name":"hash","type":"bytes32"}]},
	{"type":"event","name":"ProposalDefeated","anonymous":false,"inputs":[
		{"indexed":true,"name":"proposalID","type":"uint256"},
		{"indexed":true,"name":"challenger","type":"address"},
		{"indexed":false,"name":"index","type":"uint256"}]},
	{"type":"event","name":"VoteCast","anonymous":false,"inputs":[
		{"indexed":true,"name":"proposalID","type":"uint256"},
		{"indexed":true,"name":"voter","type":"address"},
		{"indexed":false,"name":"direction","type":"uint8"},
		{"indexed":false,"name":"votingPower","type":"uint256"},
		{"indexed":false,"name":"override","type":"bool"}]},
	{"type":"event","name":"BondClaimed","anonymous":false,"inputs":[
		{"indexed":true,"name":"proposalID","type":"uint256"},
		{"indexed":true,"name":"claimer","type":"address"},
		{"indexed":false,"name":"unlocked","type":"uint256"},
		{"indexed":false,"name":"received","type":"uint256"},
		{"indexed":false,"name":"burned","type":"uint256"}]},
	{"type":"event","name":"ProposalExecuted","anonymous":false,"inputs":[
		{"indexed":true,"name":"proposalID","type":"uint256"},
		{"indexed":true,"name":"executor","type":"address"}]},
	{"type":"event","name":"ProposalCancelled","anonymous":false,"inputs":[
		{"indexed":true,"name":"proposalID","type":"uint256"},
		{"indexed":true,"name":"proposer","type":"address"}]},
	{"type":"event","name":"ProposalFinalised","anonymous":false,"inputs":[
		{"indexed":true,"name":"proposalID","type":"uint256"},
		{"indexed":true,"name":"proposer","type":"address"}]}
]`

var _events abi.ABI

func init() {
	var err error
	_events, err = abi.JSON(strings.NewReader(_eventsABI))
	if err != nil {
		panic(err)
	}
}

// Event returns the ABI of a governance event
func Event(name string) (*abi.Event, bool) {
	e, ok := _events.Events[name]
	if !ok {
		return nil, false
	}
	return &e, true
}

// newLog builds the log of event name for proposal id and account, packing the non-indexed fields
func newLog(name string, id uint64, account common.Address, fields ...interface{}) (*action.Log, error) {
	e, ok := _events.Events[name]
	if !ok {
		return nil, errors.Errorf("unknown event %s", name)
	}
	data, err := e.Inputs.NonIndexed().Pack(fields...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to pack event %s", name)
	}
	return &action.Log{
		Topics: []common.Hash{
			e.ID,
			common.BigToHash(new(big.Int).SetUint64(id)),
			common.BytesToHash(account.Bytes()),
		},
		Data: data,
	}, nil
}
