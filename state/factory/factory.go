// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

// Package factory applies governance actions to the state store one block at a time.
package factory

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/iotexproject/pdao-governance/action"
	"github.com/iotexproject/pdao-governance/action/protocol"
	"github.com/iotexproject/pdao-governance/db"
	"github.com/iotexproject/pdao-governance/pkg/lifecycle"
	"github.com/iotexproject/pdao-governance/pkg/log"
	"github.com/iotexproject/pdao-governance/pkg/util/byteutil"
	"github.com/iotexproject/pdao-governance/state"
)

// Factory holds the committed governance state and runs every action in a working set of its own block.
// Actions are totally ordered: concurrent callers queue on the factory mutex.
type Factory struct {
	lifecycle.Readiness
	mutex         sync.Mutex
	dao           db.KVStore
	registry      *protocol.Registry
	currentHeight uint64
}

// NewFactory creates a factory over dao, dispatching actions to the protocols of registry
func NewFactory(dao db.KVStore, registry *protocol.Registry) *Factory {
	return &Factory{
		dao:      dao,
		registry: registry,
	}
}

// Start starts the store and loads the committed height
func (sf *Factory) Start(ctx context.Context) error {
	if err := sf.dao.Start(ctx); err != nil {
		return err
	}
	h, err := sf.dao.Get(protocol.AccountNameSpace, []byte(CurrentHeightKey))
	switch errors.Cause(err) {
	case nil:
		sf.currentHeight = byteutil.BytesToUint64(h)
	case db.ErrNotExist, db.ErrBucketNotExist:
		sf.currentHeight = 0
	default:
		return errors.Wrap(err, "failed to get factory's height from underlying DB")
	}
	return sf.TurnOn()
}

// Stop stops the store
func (sf *Factory) Stop(ctx context.Context) error {
	if err := sf.TurnOff(); err != nil {
		return err
	}
	return sf.dao.Stop(ctx)
}

// Height returns the height of the last committed block
func (sf *Factory) Height() (uint64, error) {
	sf.mutex.Lock()
	defer sf.mutex.Unlock()
	return sf.currentHeight, nil
}

// State reads a committed state
func (sf *Factory) State(s interface{}, opts ...protocol.StateOption) (uint64, error) {
	sf.mutex.Lock()
	defer sf.mutex.Unlock()
	cfg, err := protocol.CreateStateConfig(opts...)
	if err != nil {
		return sf.currentHeight, err
	}
	data, err := sf.dao.Get(cfg.Namespace, cfg.Key)
	if errors.Cause(err) == db.ErrNotExist || errors.Cause(err) == db.ErrBucketNotExist {
		return sf.currentHeight, errors.Wrapf(state.ErrStateNotExist, "key = %x", cfg.Key)
	}
	if err != nil {
		return sf.currentHeight, err
	}
	return sf.currentHeight, state.Deserialize(s, data)
}

// Apply runs fn in a new block, committing its changes if fn succeeds
func (sf *Factory) Apply(fn func(protocol.StateManager) error) error {
	if !sf.IsReady() {
		return lifecycle.ErrWrongState
	}
	sf.mutex.Lock()
	defer sf.mutex.Unlock()
	ws := NewWorkingSet(sf.currentHeight+1, sf.dao)
	if err := fn(ws); err != nil {
		return err
	}
	return sf.commit(ws)
}

// RunAction handles act sent by caller in a new block stamped with ts
func (sf *Factory) RunAction(ctx context.Context, caller common.Address, ts time.Time, act action.Action) (*action.Receipt, error) {
	if !sf.IsReady() {
		return nil, lifecycle.ErrWrongState
	}
	if act == nil {
		return nil, action.ErrNilAction
	}
	if err := act.SanityCheck(); err != nil {
		return nil, errors.Wrapf(err, "invalid %s action", act.MethodName())
	}
	sf.mutex.Lock()
	defer sf.mutex.Unlock()
	ws := NewWorkingSet(sf.currentHeight+1, sf.dao)
	ctx = protocol.WithBlockCtx(ctx, protocol.BlockCtx{
		BlockHeight:    ws.height,
		BlockTimeStamp: ts,
	})
	ctx = protocol.WithActionCtx(ctx, protocol.ActionCtx{Caller: caller})
	receipt, err := sf.registry.Handle(ctx, act, ws)
	if err != nil {
		log.L().Debug("Action rejected.",
			zap.String("action", act.MethodName()),
			zap.String("caller", caller.Hex()),
			zap.Uint64("height", ws.height),
			zap.Error(err))
		return nil, err
	}
	if err := sf.commit(ws); err != nil {
		return nil, err
	}
	return receipt, nil
}

func (sf *Factory) commit(ws *WorkingSet) error {
	if err := ws.Finalize(); err != nil {
		return err
	}
	if err := ws.Commit(); err != nil {
		return err
	}
	sf.currentHeight = ws.height
	return nil
}
