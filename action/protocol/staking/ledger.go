// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

// Package staking keeps the RPL stake of node operators, the part of it locked as governance bonds and the
// amount burned by bond settlements.
package staking

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/iotexproject/go-pkgs/hash"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/iotexproject/pdao-governance/action/protocol"
	"github.com/iotexproject/pdao-governance/pkg/log"
	"github.com/iotexproject/pdao-governance/state"
)

const (
	// _stakingNameSpace is the bucket name for staking state
	_stakingNameSpace = "Staking"

	_protocolID = "staking"
)

var (
	// ErrInvalidAmount is returned for negative amounts
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrLockingNotAllowed is returned when locking for a node that did not opt in
	ErrLockingNotAllowed = errors.New("Node is not allowed to lock RPL")
	// ErrNotEnoughStake is returned when the unlocked stake does not cover an amount
	ErrNotEnoughStake = errors.New("Not enough staked RPL")
	// ErrNotEnoughLocked is returned when unlocking more than is locked
	ErrNotEnoughLocked = errors.New("Not enough locked RPL")
	// ErrWithdrawBelowRequired is returned when a withdrawal would dip into locked stake
	ErrWithdrawBelowRequired = errors.New("Node's staked RPL balance after withdrawal is less than required balance")

	_burnedKey = []byte("burned")
)

type (
	// Account is the stake state of a node
	Account struct {
		Staked         *big.Int
		Locked         *big.Int
		LockingAllowed bool
	}

	// Ledger is the stake store of node operators
	Ledger struct {
		keyPrefix []byte
	}

	totalBurned struct {
		Amount *big.Int
	}
)

// NewLedger creates a ledger
func NewLedger() *Ledger {
	h := hash.Hash160b([]byte(_protocolID))
	return &Ledger{keyPrefix: h[:]}
}

// Free returns the stake not locked
func (a *Account) Free() *big.Int {
	return new(big.Int).Sub(a.Staked, a.Locked)
}

// Account returns the stake state of node
func (l *Ledger) Account(sr protocol.StateReader, node common.Address) (*Account, error) {
	acct := Account{}
	_, err := sr.State(&acct, protocol.NamespaceOption(_stakingNameSpace), protocol.KeyOption(l.accountKey(node)))
	switch errors.Cause(err) {
	case nil:
	case state.ErrStateNotExist:
		return &Account{Staked: new(big.Int), Locked: new(big.Int)}, nil
	default:
		return nil, errors.Wrapf(err, "failed to load stake of %s", node.Hex())
	}
	if acct.Staked == nil {
		acct.Staked = new(big.Int)
	}
	if acct.Locked == nil {
		acct.Locked = new(big.Int)
	}
	return &acct, nil
}

// StakedRPL returns the stake of node, locked part included
func (l *Ledger) StakedRPL(sr protocol.StateReader, node common.Address) (*big.Int, error) {
	acct, err := l.Account(sr, node)
	if err != nil {
		return nil, err
	}
	return acct.Staked, nil
}

// LockedRPL returns the locked stake of node
func (l *Ledger) LockedRPL(sr protocol.StateReader, node common.Address) (*big.Int, error) {
	acct, err := l.Account(sr, node)
	if err != nil {
		return nil, err
	}
	return acct.Locked, nil
}

// IsLockingAllowed returns whether node allows its stake to be locked as bonds
func (l *Ledger) IsLockingAllowed(sr protocol.StateReader, node common.Address) (bool, error) {
	acct, err := l.Account(sr, node)
	if err != nil {
		return false, err
	}
	return acct.LockingAllowed, nil
}

// Burned returns the total stake burned
func (l *Ledger) Burned(sr protocol.StateReader) (*big.Int, error) {
	total := totalBurned{}
	_, err := sr.State(&total, protocol.NamespaceOption(_stakingNameSpace), protocol.KeyOption(l.totalKey()))
	switch errors.Cause(err) {
	case nil:
		if total.Amount == nil {
			return new(big.Int), nil
		}
		return total.Amount, nil
	case state.ErrStateNotExist:
		return new(big.Int), nil
	default:
		return nil, errors.Wrap(err, "failed to load burned total")
	}
}

// Stake adds amount to the stake of node
func (l *Ledger) Stake(sm protocol.StateManager, node common.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	acct, err := l.Account(sm, node)
	if err != nil {
		return err
	}
	acct.Staked.Add(acct.Staked, amount)
	return l.putAccount(sm, node, acct)
}

// Withdraw removes amount from the unlocked stake of node
func (l *Ledger) Withdraw(sm protocol.StateManager, node common.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	acct, err := l.Account(sm, node)
	if err != nil {
		return err
	}
	if acct.Free().Cmp(amount) < 0 {
		return ErrWithdrawBelowRequired
	}
	acct.Staked.Sub(acct.Staked, amount)
	return l.putAccount(sm, node, acct)
}

// SetLockingAllowed sets whether node allows its stake to be locked
func (l *Ledger) SetLockingAllowed(sm protocol.StateManager, node common.Address, allowed bool) error {
	acct, err := l.Account(sm, node)
	if err != nil {
		return err
	}
	acct.LockingAllowed = allowed
	return l.putAccount(sm, node, acct)
}

// LockRPL locks amount of the unlocked stake of node
func (l *Ledger) LockRPL(sm protocol.StateManager, node common.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	acct, err := l.Account(sm, node)
	if err != nil {
		return err
	}
	if !acct.LockingAllowed {
		return ErrLockingNotAllowed
	}
	if acct.Free().Cmp(amount) < 0 {
		return errors.Wrapf(ErrNotEnoughStake, "node %s has %s unlocked, %s needed", node.Hex(), acct.Free(), amount)
	}
	acct.Locked.Add(acct.Locked, amount)
	return l.putAccount(sm, node, acct)
}

// UnlockRPL unlocks amount of the locked stake of node
func (l *Ledger) UnlockRPL(sm protocol.StateManager, node common.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	acct, err := l.Account(sm, node)
	if err != nil {
		return err
	}
	if acct.Locked.Cmp(amount) < 0 {
		return errors.Wrapf(ErrNotEnoughLocked, "node %s has %s locked, %s needed", node.Hex(), acct.Locked, amount)
	}
	acct.Locked.Sub(acct.Locked, amount)
	return l.putAccount(sm, node, acct)
}

// TransferRPL moves amount of unlocked stake from one node to another
func (l *Ledger) TransferRPL(sm protocol.StateManager, from, to common.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	src, err := l.Account(sm, from)
	if err != nil {
		return err
	}
	if src.Free().Cmp(amount) < 0 {
		return errors.Wrapf(ErrNotEnoughStake, "node %s has %s unlocked, %s needed", from.Hex(), src.Free(), amount)
	}
	src.Staked.Sub(src.Staked, amount)
	if err := l.putAccount(sm, from, src); err != nil {
		return err
	}
	dst, err := l.Account(sm, to)
	if err != nil {
		return err
	}
	dst.Staked.Add(dst.Staked, amount)
	if err := l.putAccount(sm, to, dst); err != nil {
		return err
	}
	log.L().Debug("Transferred RPL.",
		zap.String("from", from.Hex()),
		zap.String("to", to.Hex()),
		zap.String("amount", amount.String()))
	return nil
}

// BurnRPL destroys amount of the unlocked stake of node
func (l *Ledger) BurnRPL(sm protocol.StateManager, node common.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	acct, err := l.Account(sm, node)
	if err != nil {
		return err
	}
	if acct.Free().Cmp(amount) < 0 {
		return errors.Wrapf(ErrNotEnoughStake, "node %s has %s unlocked, %s needed", node.Hex(), acct.Free(), amount)
	}
	acct.Staked.Sub(acct.Staked, amount)
	if err := l.putAccount(sm, node, acct); err != nil {
		return err
	}
	burned, err := l.Burned(sm)
	if err != nil {
		return err
	}
	total := totalBurned{Amount: new(big.Int).Add(burned, amount)}
	_, err = sm.PutState(&total, protocol.NamespaceOption(_stakingNameSpace), protocol.KeyOption(l.totalKey()))
	return err
}

func (l *Ledger) putAccount(sm protocol.StateManager, node common.Address, acct *Account) error {
	_, err := sm.PutState(acct, protocol.NamespaceOption(_stakingNameSpace), protocol.KeyOption(l.accountKey(node)))
	return err
}

func (l *Ledger) accountKey(node common.Address) []byte {
	h := hash.Hash160b(append(l.keyPrefix, node.Bytes()...))
	return h[:]
}

func (l *Ledger) totalKey() []byte {
	h := hash.Hash160b(append(l.keyPrefix, _burnedKey...))
	return h[:]
}

func checkAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	return nil
}
