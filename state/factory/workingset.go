// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package factory

import (
	"github.com/iotexproject/go-pkgs/hash"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/iotexproject/pdao-governance/action/protocol"
	"github.com/iotexproject/pdao-governance/db"
	"github.com/iotexproject/pdao-governance/db/batch"
	"github.com/iotexproject/pdao-governance/pkg/util/byteutil"
	"github.com/iotexproject/pdao-governance/state"
)

const (
	// CurrentHeightKey indicates the key of current factory height in underlying DB
	CurrentHeightKey = "currentHeight"
)

var (
	_stateDBMtc = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pdao_state_db",
			Help: "IoTeX governance state DB",
		},
		[]string{"type"},
	)
	_dbBatchSizeMtc = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pdao_state_db_batch_size",
			Help: "Number of entries written by the last commit",
		},
		[]string{},
	)
)

func init() {
	prometheus.MustRegister(_stateDBMtc)
	prometheus.MustRegister(_dbBatchSizeMtc)
}

// WorkingSet tracks the pending changes of a block on top of the committed store
type WorkingSet struct {
	height    uint64
	finalized bool
	dao       db.KVStore
	cb        batch.CachedBatch
}

var _ protocol.StateManager = (*WorkingSet)(nil)

// NewWorkingSet creates a working set at height over dao
func NewWorkingSet(height uint64, dao db.KVStore) *WorkingSet {
	return &WorkingSet{
		height: height,
		dao:    dao,
		cb:     batch.NewCachedBatch(),
	}
}

// Height returns the height of the block being built
func (ws *WorkingSet) Height() (uint64, error) {
	return ws.height, nil
}

// State reads a state, preferring pending changes over the store
func (ws *WorkingSet) State(s interface{}, opts ...protocol.StateOption) (uint64, error) {
	_stateDBMtc.WithLabelValues("get").Inc()
	cfg, err := protocol.CreateStateConfig(opts...)
	if err != nil {
		return ws.height, err
	}
	data, err := ws.cb.Get(cfg.Namespace, cfg.Key)
	switch errors.Cause(err) {
	case nil:
	case batch.ErrAlreadyDeleted:
		return ws.height, errors.Wrapf(state.ErrStateNotExist, "key = %x", cfg.Key)
	case batch.ErrNotExist:
		data, err = ws.dao.Get(cfg.Namespace, cfg.Key)
		if errors.Cause(err) == db.ErrNotExist || errors.Cause(err) == db.ErrBucketNotExist {
			return ws.height, errors.Wrapf(state.ErrStateNotExist, "key = %x", cfg.Key)
		}
		if err != nil {
			return ws.height, errors.Wrapf(err, "failed to get state of ns = %s key = %x", cfg.Namespace, cfg.Key)
		}
	default:
		return ws.height, err
	}
	return ws.height, state.Deserialize(s, data)
}

// PutState puts a state into the pending changes
func (ws *WorkingSet) PutState(s interface{}, opts ...protocol.StateOption) (uint64, error) {
	_stateDBMtc.WithLabelValues("put").Inc()
	if ws.finalized {
		return ws.height, errors.New("cannot put state into a finalized working set")
	}
	cfg, err := protocol.CreateStateConfig(opts...)
	if err != nil {
		return ws.height, err
	}
	ss, err := state.Serialize(s)
	if err != nil {
		return ws.height, errors.Wrapf(err, "failed to convert state %v to bytes", s)
	}
	ws.cb.Put(cfg.Namespace, cfg.Key, ss, "failed to put state of ns = %s", cfg.Namespace)
	return ws.height, nil
}

// DelState deletes a state
func (ws *WorkingSet) DelState(opts ...protocol.StateOption) (uint64, error) {
	_stateDBMtc.WithLabelValues("delete").Inc()
	if ws.finalized {
		return ws.height, errors.New("cannot delete state from a finalized working set")
	}
	cfg, err := protocol.CreateStateConfig(opts...)
	if err != nil {
		return ws.height, err
	}
	ws.cb.Delete(cfg.Namespace, cfg.Key, "failed to delete state of ns = %s", cfg.Namespace)
	return ws.height, nil
}

// Snapshot takes a snapshot of the pending changes
func (ws *WorkingSet) Snapshot() int {
	return ws.cb.Snapshot()
}

// Revert discards the pending changes made after snapshot
func (ws *WorkingSet) Revert(snapshot int) error {
	return ws.cb.Revert(snapshot)
}

// Finalize seals the working set, recording its height
func (ws *WorkingSet) Finalize() error {
	if ws.finalized {
		return errors.New("Cannot finalize a working set twice")
	}
	ws.finalized = true
	ws.cb.Put(protocol.AccountNameSpace, []byte(CurrentHeightKey), byteutil.Uint64ToBytes(ws.height), "failed to store current height")
	return nil
}

// Commit persists all pending changes into the DB
func (ws *WorkingSet) Commit() error {
	if !ws.finalized {
		return errors.New("cannot commit a working set before finalizing it")
	}
	_dbBatchSizeMtc.WithLabelValues().Set(float64(ws.cb.Size()))
	if err := ws.dao.WriteBatch(ws.cb); err != nil {
		return errors.Wrap(err, "failed to Commit all changes to underlying DB in a batch")
	}
	ws.cb.Clear()
	return nil
}

// Digest returns the hash of the pending write queue
func (ws *WorkingSet) Digest() hash.Hash256 {
	var buf []byte
	for i := 0; i < ws.cb.Size(); i++ {
		wi, err := ws.cb.Entry(i)
		if err != nil {
			continue
		}
		buf = append(buf, wi.Serialize()...)
	}
	return hash.Hash256b(buf)
}
