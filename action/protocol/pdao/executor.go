// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package pdao

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/iotexproject/pdao-governance/action/protocol"
	"github.com/iotexproject/pdao-governance/pkg/log"
	"github.com/iotexproject/pdao-governance/pkg/util/abiutil"
)

// Executor runs the payload of a succeeded proposal
type Executor interface {
	Execute(context.Context, protocol.StateManager, []byte) error
}

// ExecutorVersion is the version of the payload method table
const ExecutorVersion = 1

const _payloadABI = `[
	{"type":"function","name":"proposalSettingUint","outputs":[],"inputs":[
		{"name":"path","type":"string"},
		{"name":"value","type":"uint256"}]},
	{"type":"function","name":"proposalSettingBool","outputs":[],"inputs":[
		{"name":"path","type":"string"},
		{"name":"value","type":"bool"}]},
	{"type":"function","name":"proposalSecurityInvite","outputs":[],"inputs":[
		{"name":"id","type":"string"},
		{"name":"member","type":"address"}]},
	{"type":"function","name":"proposalSecurityKick","outputs":[],"inputs":[
		{"name":"member","type":"address"}]}
]`

type (
	payloadHandler func(*SettingsExecutor, protocol.StateManager, abiutil.Param) error

	payloadMethod struct {
		method  abi.Method
		handler payloadHandler
	}

	// SettingsExecutor executes payloads changing protocol settings or the security council
	SettingsExecutor struct {
		store   *GovernanceStore
		methods map[[4]byte]payloadMethod
	}
)

var _payloadMethods map[int]map[string]payloadHandler

func init() {
	_payloadMethods = map[int]map[string]payloadHandler{
		1: {
			"proposalSettingUint":    (*SettingsExecutor).settingUint,
			"proposalSettingBool":    (*SettingsExecutor).settingBool,
			"proposalSecurityInvite": (*SettingsExecutor).securityInvite,
			"proposalSecurityKick":   (*SettingsExecutor).securityKick,
		},
	}
}

// PayloadABI returns the ABI proposal payloads are encoded with
func PayloadABI() abi.ABI {
	a, err := abi.JSON(strings.NewReader(_payloadABI))
	if err != nil {
		panic(err)
	}
	return a
}

// NewSettingsExecutor creates the executor of the method table of version
func NewSettingsExecutor(store *GovernanceStore, version int) (*SettingsExecutor, error) {
	handlers, ok := _payloadMethods[version]
	if !ok {
		return nil, errors.Errorf("unknown executor version %d", version)
	}
	a := PayloadABI()
	e := &SettingsExecutor{
		store:   store,
		methods: make(map[[4]byte]payloadMethod),
	}
	for name, h := range handlers {
		m, ok := a.Methods[name]
		if !ok {
			return nil, errors.Errorf("fail to load the %s method", name)
		}
		var id [4]byte
		copy(id[:], m.ID)
		e.methods[id] = payloadMethod{method: m, handler: h}
	}
	return e, nil
}

// Execute dispatches payload to the method its selector names
func (e *SettingsExecutor) Execute(ctx context.Context, sm protocol.StateManager, payload []byte) error {
	if len(payload) < 4 {
		return ErrUnknownMethod
	}
	var id [4]byte
	copy(id[:], payload[:4])
	m, ok := e.methods[id]
	if !ok {
		return errors.Wrapf(ErrUnknownMethod, "selector %x", id)
	}
	param, err := abiutil.UnpackCall(&m.method, payload)
	if err != nil {
		return err
	}
	if err := m.handler(e, sm, param); err != nil {
		return errors.Wrapf(err, "failed to execute %s", m.method.Name)
	}
	log.L().Info("Executed proposal payload.", zap.String("method", m.method.Name))
	return nil
}

func (e *SettingsExecutor) settingUint(sm protocol.StateManager, param abiutil.Param) error {
	path, err := param.FieldString("path")
	if err != nil {
		return err
	}
	value, err := param.FieldUint256("value")
	if err != nil {
		return err
	}
	return e.store.PutSettingUint(sm, path, new(big.Int).Set(value))
}

func (e *SettingsExecutor) settingBool(sm protocol.StateManager, param abiutil.Param) error {
	path, err := param.FieldString("path")
	if err != nil {
		return err
	}
	value, err := param.FieldBool("value")
	if err != nil {
		return err
	}
	return e.store.PutSettingBool(sm, path, value)
}

func (e *SettingsExecutor) securityInvite(sm protocol.StateManager, param abiutil.Param) error {
	id, err := param.FieldString("id")
	if err != nil {
		return err
	}
	member, err := param.FieldAddress("member")
	if err != nil {
		return err
	}
	return e.store.PutSecurityInvite(sm, &SecurityInvite{ID: id, Member: member})
}

func (e *SettingsExecutor) securityKick(sm protocol.StateManager, param abiutil.Param) error {
	member, err := param.FieldAddress("member")
	if err != nil {
		return err
	}
	return e.store.DelSecurityInvite(sm, member)
}
