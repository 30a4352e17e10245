// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

// Package noderegistry records registered node operators, their voting power and their delegates. Power,
// delegates and the node count are kept as block checkpoints so they can be read as of any past block.
package noderegistry

import (
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/iotexproject/go-pkgs/hash"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/iotexproject/pdao-governance/action/protocol"
	"github.com/iotexproject/pdao-governance/pkg/log"
	"github.com/iotexproject/pdao-governance/pkg/util/byteutil"
	"github.com/iotexproject/pdao-governance/state"
)

const (
	_nodeNameSpace = "Node"

	_protocolID = "noderegistry"
)

var (
	// ErrNodeNotRegistered is returned for unknown node addresses
	ErrNodeNotRegistered = errors.New("node is not registered")
	// ErrNodeAlreadyRegistered is returned when registering a node twice
	ErrNodeAlreadyRegistered = errors.New("node is already registered")
	// ErrInvalidPower is returned for negative voting power
	ErrInvalidPower = errors.New("invalid voting power")

	_countKey = []byte("count")
	_nodeKey  = []byte("node")
	_indexKey = []byte("index")
	_powerKey = []byte("power")
	_delegKey = []byte("delegate")
)

type (
	// Checkpoint is a value taking effect at Block
	Checkpoint struct {
		Block uint64
		Value *big.Int
	}

	// History is a list of checkpoints in ascending block order
	History struct {
		Checkpoints []Checkpoint
	}

	// DelegateCheckpoint is a delegate taking effect at Block
	DelegateCheckpoint struct {
		Block    uint64
		Delegate common.Address
	}

	// DelegateHistory is a list of delegate checkpoints in ascending block order
	DelegateHistory struct {
		Checkpoints []DelegateCheckpoint
	}

	nodeRecord struct {
		Address common.Address
	}

	indexRecord struct {
		Index uint64
	}

	// Registry is the node registry store
	Registry struct {
		keyPrefix []byte
	}
)

// NewRegistry creates a node registry
func NewRegistry() *Registry {
	h := hash.Hash160b([]byte(_protocolID))
	return &Registry{keyPrefix: h[:]}
}

// At returns the value in effect at block, zero before the first checkpoint
func (h *History) At(block uint64) *big.Int {
	i := sort.Search(len(h.Checkpoints), func(i int) bool {
		return h.Checkpoints[i].Block > block
	})
	if i == 0 {
		return new(big.Int)
	}
	return new(big.Int).Set(h.Checkpoints[i-1].Value)
}

// Push records value from block on, replacing a checkpoint at the same block
func (h *History) Push(block uint64, value *big.Int) {
	n := len(h.Checkpoints)
	if n > 0 && h.Checkpoints[n-1].Block == block {
		h.Checkpoints[n-1].Value = new(big.Int).Set(value)
		return
	}
	h.Checkpoints = append(h.Checkpoints, Checkpoint{Block: block, Value: new(big.Int).Set(value)})
}

// At returns the delegate in effect at block
func (h *DelegateHistory) At(block uint64) (common.Address, bool) {
	i := sort.Search(len(h.Checkpoints), func(i int) bool {
		return h.Checkpoints[i].Block > block
	})
	if i == 0 {
		return common.Address{}, false
	}
	return h.Checkpoints[i-1].Delegate, true
}

// Push records delegate from block on, replacing a checkpoint at the same block
func (h *DelegateHistory) Push(block uint64, delegate common.Address) {
	n := len(h.Checkpoints)
	if n > 0 && h.Checkpoints[n-1].Block == block {
		h.Checkpoints[n-1].Delegate = delegate
		return
	}
	h.Checkpoints = append(h.Checkpoints, DelegateCheckpoint{Block: block, Delegate: delegate})
}

// Register appends node to the registry, delegating to itself
func (r *Registry) Register(sm protocol.StateManager, node common.Address) (uint64, error) {
	if _, err := r.NodeIndex(sm, node); err == nil {
		return 0, errors.Wrap(ErrNodeAlreadyRegistered, node.Hex())
	} else if errors.Cause(err) != ErrNodeNotRegistered {
		return 0, err
	}
	height, err := sm.Height()
	if err != nil {
		return 0, err
	}
	counts, err := r.countHistory(sm)
	if err != nil {
		return 0, err
	}
	index := counts.At(height).Uint64()
	counts.Push(height, new(big.Int).SetUint64(index+1))
	if err := r.put(sm, counts, _countKey); err != nil {
		return 0, err
	}
	if err := r.put(sm, &nodeRecord{Address: node}, r.nodeKey(index)); err != nil {
		return 0, err
	}
	if err := r.put(sm, &indexRecord{Index: index}, r.addressKey(_indexKey, node)); err != nil {
		return 0, err
	}
	if err := r.SetDelegate(sm, node, node); err != nil {
		return 0, err
	}
	log.L().Info("Registered node.", zap.String("node", node.Hex()), zap.Uint64("index", index))
	return index, nil
}

// SetDelegate delegates the voting power of node to delegate from the current height on
func (r *Registry) SetDelegate(sm protocol.StateManager, node, delegate common.Address) error {
	for _, n := range []common.Address{node, delegate} {
		if _, err := r.NodeIndex(sm, n); err != nil {
			return err
		}
	}
	height, err := sm.Height()
	if err != nil {
		return err
	}
	h := DelegateHistory{}
	if err := r.get(sm, &h, r.addressKey(_delegKey, node)); err != nil {
		return err
	}
	h.Push(height, delegate)
	return r.put(sm, &h, r.addressKey(_delegKey, node))
}

// SetVotingPower sets the voting power of node from the current height on
func (r *Registry) SetVotingPower(sm protocol.StateManager, node common.Address, power *big.Int) error {
	if power == nil || power.Sign() < 0 {
		return ErrInvalidPower
	}
	if _, err := r.NodeIndex(sm, node); err != nil {
		return err
	}
	height, err := sm.Height()
	if err != nil {
		return err
	}
	h := History{}
	if err := r.get(sm, &h, r.addressKey(_powerKey, node)); err != nil {
		return err
	}
	h.Push(height, power)
	return r.put(sm, &h, r.addressKey(_powerKey, node))
}

// NodeCount returns the number of nodes registered at block
func (r *Registry) NodeCount(sr protocol.StateReader, block uint64) (uint64, error) {
	counts, err := r.countHistory(sr)
	if err != nil {
		return 0, err
	}
	return counts.At(block).Uint64(), nil
}

// NodeAt returns the address of the node registered at index
func (r *Registry) NodeAt(sr protocol.StateReader, index uint64) (common.Address, error) {
	rec := nodeRecord{}
	_, err := sr.State(&rec, protocol.NamespaceOption(_nodeNameSpace), protocol.KeyOption(r.key(r.nodeKey(index))))
	if errors.Cause(err) == state.ErrStateNotExist {
		return common.Address{}, errors.Wrapf(ErrNodeNotRegistered, "index %d", index)
	}
	if err != nil {
		return common.Address{}, err
	}
	return rec.Address, nil
}

// NodeIndex returns the registration index of node
func (r *Registry) NodeIndex(sr protocol.StateReader, node common.Address) (uint64, error) {
	rec := indexRecord{}
	_, err := sr.State(&rec, protocol.NamespaceOption(_nodeNameSpace), protocol.KeyOption(r.key(r.addressKey(_indexKey, node))))
	if errors.Cause(err) == state.ErrStateNotExist {
		return 0, errors.Wrap(ErrNodeNotRegistered, node.Hex())
	}
	if err != nil {
		return 0, err
	}
	return rec.Index, nil
}

// VotingPower returns the own voting power of node at block
func (r *Registry) VotingPower(sr protocol.StateReader, node common.Address, block uint64) (*big.Int, error) {
	h := History{}
	if err := r.get(sr, &h, r.addressKey(_powerKey, node)); err != nil {
		return nil, err
	}
	return h.At(block), nil
}

// Delegate returns the delegate of node at block, node itself if it had none
func (r *Registry) Delegate(sr protocol.StateReader, node common.Address, block uint64) (common.Address, error) {
	h := DelegateHistory{}
	if err := r.get(sr, &h, r.addressKey(_delegKey, node)); err != nil {
		return common.Address{}, err
	}
	if d, ok := h.At(block); ok {
		return d, nil
	}
	return node, nil
}

func (r *Registry) countHistory(sr protocol.StateReader) (*History, error) {
	h := History{}
	if err := r.get(sr, &h, _countKey); err != nil {
		return nil, err
	}
	return &h, nil
}

// get loads a state into s, leaving s untouched if it does not exist
func (r *Registry) get(sr protocol.StateReader, s interface{}, key []byte) error {
	_, err := sr.State(s, protocol.NamespaceOption(_nodeNameSpace), protocol.KeyOption(r.key(key)))
	if err != nil && errors.Cause(err) != state.ErrStateNotExist {
		return err
	}
	return nil
}

func (r *Registry) put(sm protocol.StateManager, s interface{}, key []byte) error {
	_, err := sm.PutState(s, protocol.NamespaceOption(_nodeNameSpace), protocol.KeyOption(r.key(key)))
	return err
}

func (r *Registry) key(key []byte) []byte {
	h := hash.Hash160b(append(r.keyPrefix, key...))
	return h[:]
}

func (r *Registry) nodeKey(index uint64) []byte {
	return byteutil.JoinKey(_nodeKey, index)
}

func (r *Registry) addressKey(prefix []byte, node common.Address) []byte {
	return append(append([]byte{}, prefix...), node.Bytes()...)
}
