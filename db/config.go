// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package db

import "time"

const (
	// DBMemory is the in-memory backend
	DBMemory = "memory"
	// DBBolt is the bolt backend
	DBBolt = "boltdb"
	// DBPebble is the pebble backend
	DBPebble = "pebbledb"
	// DBBadger is the badger backend
	DBBadger = "badgerdb"
)

// Config is the config for database
type Config struct {
	DbPath string `yaml:"dbPath"`
	// DBType is the backend, one of memory, boltdb, pebbledb and badgerdb
	DBType string `yaml:"dbType"`
	// NumRetries is the number of retries
	NumRetries uint8 `yaml:"numRetries"`
	// RetryInterval is the interval between two retries
	RetryInterval time.Duration `yaml:"retryInterval"`
	// ReadOnly is set db to be opened in read only mode
	ReadOnly bool `yaml:"readOnly"`
}

// DefaultConfig returns the default config
var DefaultConfig = Config{
	DBType:        DBMemory,
	NumRetries:    3,
	RetryInterval: 10 * time.Millisecond,
}
