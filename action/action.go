// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

// Package action defines the governance actions accepted by the protocol DAO and their Ethereum ABI encoding.
package action

import (
	"bytes"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/pkg/errors"

	"github.com/iotexproject/pdao-governance/pkg/votetree"
)

var (
	// ErrInvalidAct indicates an action that cannot be handled
	ErrInvalidAct = errors.New("invalid action")
	// ErrNilAction indicates a nil action
	ErrNilAction = errors.New("nil action")
	// ErrInvalidNode indicates a node with a negative or oversized sum
	ErrInvalidNode = errors.New("invalid tree node")
	// ErrEmptyIndices indicates a claim without indices
	ErrEmptyIndices = errors.New("no index to claim")
	// ErrInvalidIndex indicates a tree index of 0
	ErrInvalidIndex = errors.New("invalid tree index")

	errDecodeFailure = errors.New("failed to decode the data")
)

type (
	// Action is a governance action submitted by a caller
	Action interface {
		// MethodName is the ABI method the action is encoded with
		MethodName() string
		SanityCheck() error
		EthData() ([]byte, error)
	}

	// ProposalAction is an action targeting an existing proposal
	ProposalAction interface {
		Action
		ProposalID() uint64
	}

	// abiNode is the ABI form of a votetree.Node
	abiNode struct {
		Sum  *big.Int
		Hash [32]byte
	}

	proposalRef struct {
		proposalID uint64
	}
)

// ProposalID returns the proposal the action targets
func (p proposalRef) ProposalID() uint64 { return p.proposalID }

const _pdaoInterfaceABI = `[
	{"type":"function","name":"propose","stateMutability":"nonpayable","outputs":[{"name":"","type":"uint256"}],"inputs":[
		{"name":"message","type":"string"},
		{"name":"payload","type":"bytes"},
		{"name":"blockNumber","type":"uint64"},
		{"name":"treeNodes","type":"tuple[]","components":[{"name":"sum","type":"uint256"},{"name":"hash","type":"bytes32"}]}]},
	{"type":"function","name":"vote","stateMutability":"nonpayable","outputs":[],"inputs":[
		{"name":"proposalID","type":"uint256"},
		{"name":"voteDirection","type":"uint8"},
		{"name":"votingPower","type":"uint256"},
		{"name":"nodeIndex","type":"uint256"},
		{"name":"witness","type":"tuple[]","components":[{"name":"sum","type":"uint256"},{"name":"hash","type":"bytes32"}]}]},
	{"type":"function","name":"overrideVote","stateMutability":"nonpayable","outputs":[],"inputs":[
		{"name":"proposalID","type":"uint256"},
		{"name":"voteDirection","type":"uint8"}]},
	{"type":"function","name":"createChallenge","stateMutability":"nonpayable","outputs":[],"inputs":[
		{"name":"proposalID","type":"uint256"},
		{"name":"index","type":"uint256"},
		{"name":"node","type":"tuple","components":[{"name":"sum","type":"uint256"},{"name":"hash","type":"bytes32"}]},
		{"name":"witness","type":"tuple[]","components":[{"name":"sum","type":"uint256"},{"name":"hash","type":"bytes32"}]}]},
	{"type":"function","name":"submitRoot","stateMutability":"nonpayable","outputs":[],"inputs":[
		{"name":"proposalID","type":"uint256"},
		{"name":"index","type":"uint256"},
		{"name":"nodes","type":"tuple[]","components":[{"name":"sum","type":"uint256"},{"name":"hash","type":"bytes32"}]}]},
	{"type":"function","name":"defeatProposal","stateMutability":"nonpayable","outputs":[],"inputs":[
		{"name":"proposalID","type":"uint256"},
		{"name":"index","type":"uint256"}]},
	{"type":"function","name":"claimBondProposer","stateMutability":"nonpayable","outputs":[],"inputs":[
		{"name":"proposalID","type":"uint256"},
		{"name":"indices","type":"uint256[]"}]},
	{"type":"function","name":"claimBondChallenger","stateMutability":"nonpayable","outputs":[],"inputs":[
		{"name":"proposalID","type":"uint256"},
		{"name":"indices","type":"uint256[]"}]},
	{"type":"function","name":"execute","stateMutability":"nonpayable","outputs":[],"inputs":[
		{"name":"proposalID","type":"uint256"}]},
	{"type":"function","name":"cancel","stateMutability":"nonpayable","outputs":[],"inputs":[
		{"name":"proposalID","type":"uint256"}]},
	{"type":"function","name":"finalise","stateMutability":"nonpayable","outputs":[],"inputs":[
		{"name":"proposalID","type":"uint256"}]}
]`

var _pdaoABI abi.ABI

func init() {
	var err error
	_pdaoABI, err = abi.JSON(strings.NewReader(_pdaoInterfaceABI))
	if err != nil {
		panic(err)
	}
}

func pack(name string, args ...interface{}) ([]byte, error) {
	method, ok := _pdaoABI.Methods[name]
	if !ok {
		return nil, errors.Errorf("fail to load the %s method", name)
	}
	data, err := method.Inputs.Pack(args...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to pack %s", name)
	}
	return append(method.ID, data...), nil
}

// DecodeEthData decodes ABI call data into the governance action it encodes
func DecodeEthData(data []byte) (Action, error) {
	if len(data) < 4 {
		return nil, errors.Wrap(errDecodeFailure, "call data shorter than a selector")
	}
	method, err := _pdaoABI.MethodById(data[:4])
	if err != nil {
		return nil, errors.Wrap(ErrInvalidAct, err.Error())
	}
	if !bytes.Equal(method.ID, data[:4]) {
		return nil, errDecodeFailure
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, errors.Wrapf(err, "failed to unpack %s", method.Name)
	}
	d := decoder{args: args}
	var act Action
	switch method.Name {
	case "propose":
		act = &Propose{
			message: d.string(0),
			payload: d.bytes(1),
			block:   d.uint64(2),
			pollard: d.nodes(3),
		}
	case "vote":
		act = &Vote{
			proposalRef: proposalRef{d.bigUint64(0)},
			direction:   VoteDirection(d.uint8(1)),
			votingPower: d.big(2),
			nodeIndex:   d.bigUint64(3),
			witness:     d.nodes(4),
		}
	case "overrideVote":
		act = &OverrideVote{
			proposalRef: proposalRef{d.bigUint64(0)},
			direction:   VoteDirection(d.uint8(1)),
		}
	case "createChallenge":
		act = &CreateChallenge{
			proposalRef: proposalRef{d.bigUint64(0)},
			index:       d.bigUint64(1),
			node:        d.node(2),
			proof:       d.nodes(3),
		}
	case "submitRoot":
		act = &SubmitRoot{
			proposalRef: proposalRef{d.bigUint64(0)},
			index:       d.bigUint64(1),
			pollard:     d.nodes(2),
		}
	case "defeatProposal":
		act = &DefeatProposal{
			proposalRef: proposalRef{d.bigUint64(0)},
			index:       d.bigUint64(1),
		}
	case "claimBondProposer":
		act = &ClaimBondProposer{claim{
			proposalRef: proposalRef{d.bigUint64(0)},
			indices:     d.indices(1),
		}}
	case "claimBondChallenger":
		act = &ClaimBondChallenger{claim{
			proposalRef: proposalRef{d.bigUint64(0)},
			indices:     d.indices(1),
		}}
	case "execute":
		act = NewExecute(d.bigUint64(0))
	case "cancel":
		act = NewCancel(d.bigUint64(0))
	case "finalise":
		act = NewFinalise(d.bigUint64(0))
	default:
		return nil, errors.Wrapf(ErrInvalidAct, "method %s", method.Name)
	}
	if d.err != nil {
		return nil, errors.Wrapf(d.err, "failed to decode %s", method.Name)
	}
	return act, nil
}

// decoder converts unpacked ABI arguments, keeping the first failure
type decoder struct {
	args []interface{}
	err  error
}

func (d *decoder) arg(i int) interface{} {
	if i >= len(d.args) {
		d.fail()
		return nil
	}
	return d.args[i]
}

func (d *decoder) fail() {
	if d.err == nil {
		d.err = errDecodeFailure
	}
}

func (d *decoder) string(i int) string {
	v, ok := d.arg(i).(string)
	if !ok {
		d.fail()
	}
	return v
}

func (d *decoder) bytes(i int) []byte {
	v, ok := d.arg(i).([]byte)
	if !ok {
		d.fail()
	}
	return v
}

func (d *decoder) uint8(i int) uint8 {
	v, ok := d.arg(i).(uint8)
	if !ok {
		d.fail()
	}
	return v
}

func (d *decoder) uint64(i int) uint64 {
	v, ok := d.arg(i).(uint64)
	if !ok {
		d.fail()
	}
	return v
}

func (d *decoder) big(i int) *big.Int {
	v, ok := d.arg(i).(*big.Int)
	if !ok {
		d.fail()
		return new(big.Int)
	}
	return v
}

func (d *decoder) bigUint64(i int) uint64 {
	v := d.big(i)
	if !v.IsUint64() {
		d.fail()
		return 0
	}
	return v.Uint64()
}

func (d *decoder) indices(i int) []uint64 {
	v, ok := d.arg(i).([]*big.Int)
	if !ok {
		d.fail()
		return nil
	}
	indices := make([]uint64, len(v))
	for j, idx := range v {
		if !idx.IsUint64() {
			d.fail()
			return nil
		}
		indices[j] = idx.Uint64()
	}
	return indices
}

func (d *decoder) node(i int) votetree.Node {
	v := d.arg(i)
	if v == nil {
		return votetree.Node{}
	}
	n := *abi.ConvertType(v, new(abiNode)).(*abiNode)
	return fromABINode(n)
}

func (d *decoder) nodes(i int) []votetree.Node {
	v := d.arg(i)
	if v == nil {
		return nil
	}
	ns := *abi.ConvertType(v, new([]abiNode)).(*[]abiNode)
	nodes := make([]votetree.Node, len(ns))
	for j := range ns {
		nodes[j] = fromABINode(ns[j])
	}
	return nodes
}

func toABINode(n votetree.Node) abiNode {
	sum := n.Sum
	if sum == nil {
		sum = new(big.Int)
	}
	return abiNode{Sum: sum, Hash: n.Hash}
}

func toABINodes(nodes []votetree.Node) []abiNode {
	ns := make([]abiNode, len(nodes))
	for i := range nodes {
		ns[i] = toABINode(nodes[i])
	}
	return ns
}

func fromABINode(n abiNode) votetree.Node {
	sum := n.Sum
	if sum == nil {
		sum = new(big.Int)
	}
	return votetree.Node{Sum: new(big.Int).Set(sum), Hash: n.Hash}
}

func validNodes(nodes []votetree.Node) error {
	for i := range nodes {
		if !nodes[i].Valid() {
			return errors.Wrapf(ErrInvalidNode, "node %d", i)
		}
	}
	return nil
}

func bigIndices(indices []uint64) []*big.Int {
	v := make([]*big.Int, len(indices))
	for i, idx := range indices {
		v[i] = new(big.Int).SetUint64(idx)
	}
	return v
}

func u256(v uint64) *big.Int {
	return new(big.Int).SetUint64(v)
}
