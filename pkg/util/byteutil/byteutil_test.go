// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package byteutil

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestUint64(t *testing.T) {
	require := require.New(t)

	for _, v := range []uint64{0, 1, 255, 256, 1 << 40, ^uint64(0)} {
		require.Equal(v, BytesToUint64(Uint64ToBytes(v)))
	}
	require.Equal([]byte{0, 0, 0, 0, 0, 0, 1, 0}, Uint64ToBytes(256))
	require.Equal(uint64(258), BytesToUint64([]byte{1, 2}))
	require.Equal(uint64(0), BytesToUint64(nil))
	require.Equal(uint64(1), BytesToUint64([]byte{9, 0, 0, 0, 0, 0, 0, 0, 1}))
}

func TestJoinKey(t *testing.T) {
	require := require.New(t)

	key := JoinKey([]byte("p"), 1, 2)
	require.Len(key, 17)
	require.Equal(byte('p'), key[0])
	require.Equal(uint64(2), BytesToUint64(key[9:]))
	require.Equal([]byte("p"), JoinKey([]byte("p")))
}

func TestMust(t *testing.T) {
	require := require.New(t)

	require.Equal([]byte{1}, Must([]byte{1}, nil))
	require.Panics(func() { Must(nil, errors.New("boom")) })
}
