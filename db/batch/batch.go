// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package batch

import (
	"sync"

	"github.com/pkg/errors"
)

// ErrInvalidSnapshot indicates the snapshot number does not exist
var ErrInvalidSnapshot = errors.New("invalid snapshot")

type (
	// KVStoreBatch defines a batch buffer interface that stages Put/Delete entries in sequential order
	// To use it, first start a new batch
	// b := NewBatch()
	// and keep batching Put/Delete operation into it
	// b.Put(bucket, k, v)
	// b.Delete(bucket, k, v)
	// once it's done, call KVStore interface's WriteBatch() to persist to underlying DB
	// KVStore.WriteBatch(b)
	// if commit succeeds, the batch is cleared
	// otherwise the batch is kept intact (so batch user can figure out what's wrong and attempt re-commit later)
	KVStoreBatch interface {
		// Lock locks the batch
		Lock()
		// Unlock unlocks the batch
		Unlock()
		// ClearAndUnlock clears the write queue and unlocks the batch
		ClearAndUnlock()
		// Put insert or update a record identified by (namespace, key)
		Put(string, []byte, []byte, string, ...interface{})
		// Delete deletes a record by (namespace, key)
		Delete(string, []byte, string, ...interface{})
		// Size returns the size of batch
		Size() int
		// Entry returns the entry at the index
		Entry(int) (*WriteInfo, error)
		// Clear clears entries staged in batch
		Clear()
		// CloneBatch clones the batch
		CloneBatch() KVStoreBatch
	}

	// CachedBatch derives from Batch interface
	// A local cache is added to provide fast retrieval of pending Put/Delete entries
	CachedBatch interface {
		KVStoreBatch
		// Get gets a record by (namespace, key)
		Get(string, []byte) ([]byte, error)
		// Snapshot takes a snapshot of current cached batch
		Snapshot() int
		// Revert sets the cached batch to the state at the given snapshot
		Revert(int) error
	}

	// baseKVStoreBatch is the base implementation of KVStoreBatch
	baseKVStoreBatch struct {
		mutex      sync.RWMutex
		writeQueue []*WriteInfo
	}

	// cachedBatch implements the CachedBatch interface
	cachedBatch struct {
		lock  sync.RWMutex
		batch *baseKVStoreBatch
		cache KVStoreCache
		// saved snapshots, a revert drops every snapshot taken after the target
		snapshots []snapshot
	}

	snapshot struct {
		queue []*WriteInfo
		cache KVStoreCache
	}
)

// NewBatch returns a batch
func NewBatch() KVStoreBatch {
	return &baseKVStoreBatch{}
}

// Lock locks the batch
func (b *baseKVStoreBatch) Lock() {
	b.mutex.Lock()
}

// Unlock unlocks the batch
func (b *baseKVStoreBatch) Unlock() {
	b.mutex.Unlock()
}

// ClearAndUnlock clears the write queue and unlocks the batch
func (b *baseKVStoreBatch) ClearAndUnlock() {
	defer b.mutex.Unlock()
	b.writeQueue = nil
}

// Put inserts a <key, value> record
func (b *baseKVStoreBatch) Put(namespace string, key, value []byte, errorFormat string, errorArgs ...interface{}) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.writeQueue = append(b.writeQueue, NewWriteInfo(Put, namespace, key, value, errorFormat, errorArgs...))
}

// Delete deletes a record
func (b *baseKVStoreBatch) Delete(namespace string, key []byte, errorFormat string, errorArgs ...interface{}) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.writeQueue = append(b.writeQueue, NewWriteInfo(Delete, namespace, key, nil, errorFormat, errorArgs...))
}

// Size returns the size of batch
func (b *baseKVStoreBatch) Size() int {
	return len(b.writeQueue)
}

// Entry returns the entry at the index
func (b *baseKVStoreBatch) Entry(index int) (*WriteInfo, error) {
	if index < 0 || index >= len(b.writeQueue) {
		return nil, errors.Errorf("invalid index %d", index)
	}
	return b.writeQueue[index], nil
}

// Clear clear write queue
func (b *baseKVStoreBatch) Clear() {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.writeQueue = nil
}

// CloneBatch clones the batch
func (b *baseKVStoreBatch) CloneBatch() KVStoreBatch {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	return &baseKVStoreBatch{writeQueue: b.cloneQueue()}
}

func (b *baseKVStoreBatch) cloneQueue() []*WriteInfo {
	q := make([]*WriteInfo, len(b.writeQueue))
	copy(q, b.writeQueue)
	return q
}

//======================================
// CachedBatch implementation
//======================================

// NewCachedBatch returns a new cached batch buffer
func NewCachedBatch() CachedBatch {
	return &cachedBatch{
		batch: &baseKVStoreBatch{},
		cache: NewKVCache(),
	}
}

// Lock locks the batch
func (cb *cachedBatch) Lock() {
	cb.lock.Lock()
}

// Unlock unlocks the batch
func (cb *cachedBatch) Unlock() {
	cb.lock.Unlock()
}

// ClearAndUnlock clears the write queue and unlocks the batch
func (cb *cachedBatch) ClearAndUnlock() {
	defer cb.lock.Unlock()
	cb.clear()
}

// Put inserts a <key, value> record
func (cb *cachedBatch) Put(namespace string, key, value []byte, errorFormat string, errorArgs ...interface{}) {
	cb.lock.Lock()
	defer cb.lock.Unlock()
	cb.cache.Write(namespace, key, value)
	cb.batch.Put(namespace, key, value, errorFormat, errorArgs...)
}

// Delete deletes a record
func (cb *cachedBatch) Delete(namespace string, key []byte, errorFormat string, errorArgs ...interface{}) {
	cb.lock.Lock()
	defer cb.lock.Unlock()
	cb.cache.Evict(namespace, key)
	cb.batch.Delete(namespace, key, errorFormat, errorArgs...)
}

// Size returns the size of batch
func (cb *cachedBatch) Size() int {
	return cb.batch.Size()
}

// Entry returns the entry at the index
func (cb *cachedBatch) Entry(index int) (*WriteInfo, error) {
	return cb.batch.Entry(index)
}

// Clear clear the cached batch buffer
func (cb *cachedBatch) Clear() {
	cb.lock.Lock()
	defer cb.lock.Unlock()
	cb.clear()
}

// CloneBatch clones the write queue
func (cb *cachedBatch) CloneBatch() KVStoreBatch {
	return cb.batch.CloneBatch()
}

// Get retrieves a record
func (cb *cachedBatch) Get(namespace string, key []byte) ([]byte, error) {
	cb.lock.RLock()
	defer cb.lock.RUnlock()
	return cb.cache.Read(namespace, key)
}

// Snapshot takes a snapshot of current cached batch
func (cb *cachedBatch) Snapshot() int {
	cb.lock.Lock()
	defer cb.lock.Unlock()
	cb.snapshots = append(cb.snapshots, snapshot{
		queue: cb.batch.cloneQueue(),
		cache: cb.cache.Clone(),
	})
	return len(cb.snapshots) - 1
}

// Revert sets the cached batch to the state at the given snapshot
func (cb *cachedBatch) Revert(sn int) error {
	cb.lock.Lock()
	defer cb.lock.Unlock()
	if sn < 0 || sn >= len(cb.snapshots) {
		return errors.Wrapf(ErrInvalidSnapshot, "snapshot number = %d", sn)
	}
	s := cb.snapshots[sn]
	cb.batch = &baseKVStoreBatch{writeQueue: s.queue}
	cb.cache = s.cache
	// the reverted snapshot stays usable
	cb.snapshots = cb.snapshots[:sn]
	cb.snapshots = append(cb.snapshots, snapshot{
		queue: cb.batch.cloneQueue(),
		cache: cb.cache.Clone(),
	})
	return nil
}

func (cb *cachedBatch) clear() {
	cb.batch = &baseKVStoreBatch{}
	cb.cache.Clear()
	cb.snapshots = nil
}
