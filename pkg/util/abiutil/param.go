// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

// Package abiutil converts unpacked ABI arguments into go types.
package abiutil

import (
	"bytes"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

type (
	// Param is a struct to hold call or event parameters, which can easily convert a param to go type
	Param map[string]any
)

var (
	// ErrInvalidParam is an error for invalid param
	ErrInvalidParam = errors.New("invalid param")
	// ErrMethodMismatch is an error for call data of another method
	ErrMethodMismatch = errors.New("call data does not match method")
)

// Field is a helper function to get a field from param
func Field[T any](p Param, name string) (T, error) {
	field, ok := p[name].(T)
	if !ok {
		return field, errors.Wrapf(ErrInvalidParam, "field %s got %#v, expect %T", name, p[name], field)
	}
	return field, nil
}

// FieldUint256 is a helper function to get a uint256 field from param
func (p Param) FieldUint256(name string) (*big.Int, error) {
	return Field[*big.Int](p, name)
}

// FieldString is a helper function to get a string field from param
func (p Param) FieldString(name string) (string, error) {
	return Field[string](p, name)
}

// FieldBool is a helper function to get a bool field from param
func (p Param) FieldBool(name string) (bool, error) {
	return Field[bool](p, name)
}

// FieldAddress is a helper function to get an address field from param
func (p Param) FieldAddress(name string) (common.Address, error) {
	return Field[common.Address](p, name)
}

// UnpackCall unpacks the arguments of call data for method
func UnpackCall(method *abi.Method, data []byte) (Param, error) {
	if len(data) < 4 || !bytes.Equal(method.ID, data[:4]) {
		return nil, errors.Wrapf(ErrMethodMismatch, "method %s", method.Name)
	}
	p := make(Param)
	if err := method.Inputs.UnpackIntoMap(p, data[4:]); err != nil {
		return nil, errors.Wrapf(err, "failed to unpack %s", method.Name)
	}
	return p, nil
}

// UnpackEvent unpacks the non-indexed fields of an event
func UnpackEvent(event *abi.Event, data []byte) (Param, error) {
	p := make(Param)
	if len(data) == 0 {
		return p, nil
	}
	if err := event.Inputs.UnpackIntoMap(p, data); err != nil {
		return nil, errors.Wrapf(err, "failed to unpack event %s", event.Name)
	}
	return p, nil
}
