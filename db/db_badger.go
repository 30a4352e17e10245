// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package db

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"

	"github.com/iotexproject/pdao-governance/db/batch"
	"github.com/iotexproject/pdao-governance/pkg/lifecycle"
)

// BadgerDB is KVStore implementation based on badger DB
type BadgerDB struct {
	lifecycle.Readiness
	db     *badger.DB
	path   string
	config Config
}

// NewBadgerDB creates a new BadgerDB instance
func NewBadgerDB(cfg Config) *BadgerDB {
	return &BadgerDB{
		path:   cfg.DbPath,
		config: cfg,
	}
}

// Start opens the badgerDB (creates new file if not existing yet)
func (b *BadgerDB) Start(_ context.Context) error {
	opts := badger.DefaultOptions(b.path).
		WithReadOnly(b.config.ReadOnly).
		WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return errors.Wrap(ErrIO, err.Error())
	}
	b.db = db
	return b.TurnOn()
}

// Stop closes the badgerDB
func (b *BadgerDB) Stop(_ context.Context) error {
	if err := b.TurnOff(); err != nil {
		return err
	}
	if err := b.db.Close(); err != nil {
		return errors.Wrap(ErrIO, err.Error())
	}
	return nil
}

// Put inserts a <key, value> record
func (b *BadgerDB) Put(namespace string, key, value []byte) error {
	if !b.IsReady() {
		return ErrDBNotStarted
	}
	if err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(nsKey(namespace, key), value)
	}); err != nil {
		return errors.Wrap(ErrIO, err.Error())
	}
	return nil
}

// Get retrieves a record
func (b *BadgerDB) Get(namespace string, key []byte) ([]byte, error) {
	if !b.IsReady() {
		return nil, ErrDBNotStarted
	}
	var value []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(nsKey(namespace, key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	switch {
	case err == nil:
		return value, nil
	case errors.Is(err, badger.ErrKeyNotFound):
		return nil, errors.Wrapf(ErrNotExist, "ns %s key = %x doesn't exist", namespace, key)
	default:
		return nil, errors.Wrap(ErrIO, err.Error())
	}
}

// Delete deletes a record
func (b *BadgerDB) Delete(namespace string, key []byte) error {
	if !b.IsReady() {
		return ErrDBNotStarted
	}
	if err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(nsKey(namespace, key))
	}); err != nil {
		return errors.Wrap(ErrIO, err.Error())
	}
	return nil
}

// WriteBatch commits a batch
func (b *BadgerDB) WriteBatch(kvsb batch.KVStoreBatch) error {
	if !b.IsReady() {
		return ErrDBNotStarted
	}
	kvsb.Lock()
	err := b.db.Update(func(txn *badger.Txn) error {
		for i := 0; i < kvsb.Size(); i++ {
			write, err := kvsb.Entry(i)
			if err != nil {
				return err
			}
			k := nsKey(write.Namespace(), write.Key())
			switch write.WriteType() {
			case batch.Put:
				err = txn.Set(k, write.Value())
			case batch.Delete:
				err = txn.Delete(k)
			}
			if err != nil {
				return batchWriteError(err, write)
			}
		}
		return nil
	})
	if err != nil {
		kvsb.Unlock()
		return errors.Wrap(ErrIO, err.Error())
	}
	kvsb.ClearAndUnlock()
	return nil
}
