// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package batch

import (
	"github.com/pkg/errors"
)

var (
	// ErrNotExist indicates certain item does not exist in the cache
	ErrNotExist = errors.New("not exist in cache")
	// ErrAlreadyDeleted indicates the key has been deleted
	ErrAlreadyDeleted = errors.New("already deleted from cache")
)

type (
	// KVStoreCache is a local cache of batched <k, v> for fast query
	KVStoreCache interface {
		// Read retrieves a record
		Read(namespace string, key []byte) ([]byte, error)
		// Write puts a record into cache
		Write(namespace string, key, value []byte)
		// Evict marks a record as deleted
		Evict(namespace string, key []byte)
		// Clear clears the cache
		Clear()
		// Clone clones the cache
		Clone() KVStoreCache
	}

	node struct {
		value   []byte
		deleted bool
	}

	// kvCache implements KVStoreCache interface
	kvCache struct {
		cache map[string]map[string]*node
	}
)

// NewKVCache returns a KVCache
func NewKVCache() KVStoreCache {
	return &kvCache{
		cache: make(map[string]map[string]*node),
	}
}

// Read retrieves a record
func (c *kvCache) Read(namespace string, key []byte) ([]byte, error) {
	if ns, ok := c.cache[namespace]; ok {
		if n, ok := ns[string(key)]; ok {
			if n.deleted {
				return nil, ErrAlreadyDeleted
			}
			return n.value, nil
		}
	}
	return nil, ErrNotExist
}

// Write puts a record into cache
func (c *kvCache) Write(namespace string, key, v []byte) {
	c.put(namespace, key, &node{value: v})
}

// Evict marks a record as deleted
func (c *kvCache) Evict(namespace string, key []byte) {
	c.put(namespace, key, &node{deleted: true})
}

// Clear clears the cache
func (c *kvCache) Clear() {
	c.cache = make(map[string]map[string]*node)
}

// Clone clones the cache
func (c *kvCache) Clone() KVStoreCache {
	clone := make(map[string]map[string]*node, len(c.cache))
	for ns, kvs := range c.cache {
		m := make(map[string]*node, len(kvs))
		for k, n := range kvs {
			m[k] = &node{value: n.value, deleted: n.deleted}
		}
		clone[ns] = m
	}
	return &kvCache{cache: clone}
}

func (c *kvCache) put(namespace string, key []byte, n *node) {
	if _, ok := c.cache[namespace]; !ok {
		c.cache[namespace] = make(map[string]*node)
	}
	c.cache[namespace][string(key)] = n
}
