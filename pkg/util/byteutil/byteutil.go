// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package byteutil

import (
	"encoding/binary"
)

// Uint64ToBytes converts a uint64 to 8 big endian bytes, so encoded heights and ids sort numerically
func Uint64ToBytes(value uint64) []byte {
	bytes := make([]byte, 8)
	binary.BigEndian.PutUint64(bytes, value)
	return bytes
}

// BytesToUint64 converts up to 8 big endian bytes to uint64
func BytesToUint64(value []byte) uint64 {
	if len(value) > 8 {
		value = value[len(value)-8:]
	}
	var buf [8]byte
	copy(buf[8-len(value):], value)
	return binary.BigEndian.Uint64(buf[:])
}

// JoinKey concatenates key parts, each uint64 part encoded with Uint64ToBytes
func JoinKey(prefix []byte, parts ...uint64) []byte {
	key := make([]byte, 0, len(prefix)+8*len(parts))
	key = append(key, prefix...)
	for _, p := range parts {
		key = append(key, Uint64ToBytes(p)...)
	}
	return key
}

// Must is a helper wraps a call to a function returing ([]byte, error) and panics if the error is not nil.
func Must(d []byte, err error) []byte {
	if err != nil {
		panic(err)
	}
	return d
}
